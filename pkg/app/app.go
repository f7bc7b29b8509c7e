// Package app wires the adapters and services into a runnable HTTP handler.
package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/auth"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/handler"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/notify"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/render"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/config"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/services"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"go.uber.org/zap"
)

const Version = "1.2.0"

type App struct {
	Handler http.Handler
	Repo    *sqldb.Repository
	// Issuer is nil when tokens are verified by a remote account service.
	Issuer *auth.JWTVerifier

	documents *services.DocumentService
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	repo, err := sqldb.NewRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var (
		verifier ports.TokenVerifier
		users    ports.UserDirectory
		issuer   *auth.JWTVerifier
	)
	if cfg.AuthHost != "" {
		remote := auth.NewRemoteClient(cfg.AuthHost, cfg.AuthEnv)
		verifier, users = remote, remote
		logger.Info("using remote account service", zap.String("host", cfg.AuthHost))
	} else {
		secret := cfg.JWTSecret
		if secret == "" {
			if secret, err = randomSecret(); err != nil {
				repo.Close()
				return nil, err
			}
			logger.Warn("JWT_SECRET not set, tokens are signed with a per-process secret that changes on restart")
		}
		issuer = auth.NewJWTVerifier(secret, cfg.JWTTTL)
		verifier, users = issuer, auth.NewLocalDirectory(repo)
	}

	notifier := notify.New(cfg, logger)
	documents := services.NewDocumentService(repo, verifier, users, notifier, logger, cfg.HashMaxViews, cfg.Salt)
	status := services.NewStatusService(Version)

	deps := handler.Deps{
		Documents: documents,
		Browse:    services.NewBrowseService(repo),
		Status:    status,
		Renderer:  render.New(cfg.PandocBin, cfg.PDFLatexBin, cfg.RenderTimeout),
		Users:     users,
		Logger:    logger,
	}
	// A typed nil must not reach the router.
	if issuer != nil {
		deps.Issuer = issuer
	}

	return &App{
		Handler:   handler.NewRouter(cfg, deps),
		Repo:      repo,
		Issuer:    issuer,
		documents: documents,
	}, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Close drains pending notifications and closes the store.
func (a *App) Close() error {
	a.documents.Close()
	return a.Repo.Close()
}
