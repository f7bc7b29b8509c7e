package handler

import (
	"encoding/json"
	"net/http"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/config"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/services"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"go.uber.org/zap"
)

// Deps groups what the router hands to the handlers. Issuer is nil when
// tokens come from a remote account service; the Google login is then off.
type Deps struct {
	Documents ports.DocumentService
	Browse    ports.BrowseService
	Status    *services.StatusService
	Renderer  ports.Renderer
	Users     ports.UserDirectory
	Issuer    TokenIssuer
	Logger    *zap.Logger
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := NewHTTPHandler(deps.Documents, deps.Renderer, logger)
	bh := NewBrowseHandler(deps.Browse, deps.Status, logger)
	mw := NewMiddleware(logger, deps.Status)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", bh.Status)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})

	// Documents
	mux.HandleFunc("POST /create", h.Create)
	mux.HandleFunc("GET /hash/{dochash}", h.Hash)
	mux.HandleFunc("GET /html/{ecli}", h.HTML)
	mux.HandleFunc("GET /d/txt/{dochash}", h.Text)
	mux.HandleFunc("GET /d/latex/{dochash}", h.Latex)
	mux.HandleFunc("GET /d/pdf/{dochash}", h.PDF)
	mux.HandleFunc("GET /d/read/{id}", h.Read)
	mux.HandleFunc("POST /d/update/{id}", h.Update)

	// Index
	mux.HandleFunc("GET /labels/{begin}", bh.Labels)
	mux.HandleFunc("GET /list", bh.List)

	if deps.Issuer != nil {
		authHandler := NewAuthHandler(cfg, deps.Issuer, deps.Users, logger)
		mux.HandleFunc("GET /auth/google/login", authHandler.Login)
		mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
		mux.HandleFunc("GET /auth/logout", authHandler.Logout)
	}

	return mw.Wrap(mux)
}
