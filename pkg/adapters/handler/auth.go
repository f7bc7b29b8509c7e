package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/ecli-publisher/pkg/config"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"
	"github.com/wadjakorntonsri/ecli-publisher/pkg/ports"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// TokenIssuer mints session tokens for signed-in users.
type TokenIssuer interface {
	Issue(user domain.User) (string, time.Time, error)
}

// AuthHandler signs moderators and contributors in with Google and hands
// out a session token.
type AuthHandler struct {
	oauthConfig  *oauth2.Config
	userInfoURL  string
	issuer       TokenIssuer
	users        ports.UserDirectory
	cfg          *config.Config
	logger       *zap.Logger
	isProduction bool
}

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewAuthHandler(cfg *config.Config, issuer TokenIssuer, users ports.UserDirectory, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		userInfoURL:  googleUserInfoURL,
		issuer:       issuer,
		users:        users,
		cfg:          cfg,
		logger:       logger,
		isProduction: cfg.IsProduction(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := h.generateStateOauthCookie(w)
	url := h.oauthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	oauthState, err := r.Cookie("oauthstate")
	if err != nil {
		h.logger.Warn("oauth callback without state cookie", zap.Error(err))
		http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
		return
	}

	if r.FormValue("state") != oauthState.Value {
		h.logger.Warn("oauth callback with invalid state")
		writeJSONError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), r.FormValue("code"))
	if err != nil {
		h.logger.Error("oauth code exchange failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "code exchange failed")
		return
	}

	googleUser, err := h.fetchUser(r, token)
	if err != nil {
		h.logger.Error("failed getting user info", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed getting user info")
		return
	}

	user := domain.User{
		Email: googleUser.Email,
		Name:  googleUser.Name,
		Admin: h.cfg.IsAdminEmail(googleUser.Email),
		Valid: true,
	}
	// Registered contributors keep their legacy key in the session.
	if known, err := h.users.ByEmail(r.Context(), googleUser.Email); err != nil {
		h.logger.Warn("user directory lookup failed", zap.String("email", googleUser.Email), zap.Error(err))
	} else if known != nil {
		user.Key = known.Key
		user.Admin = user.Admin || known.Admin
		if user.Name == "" {
			user.Name = known.Name
		}
	}

	tokenString, expirationTime, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("failed signing token", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    tokenString,
		Expires:  expirationTime,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("login successful", zap.String("email", user.Email), zap.Bool("admin", user.Admin))
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) fetchUser(r *http.Request, token *oauth2.Token) (*GoogleUser, error) {
	resp, err := h.oauthConfig.Client(r.Context(), token).Get(h.userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}

	var googleUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&googleUser); err != nil {
		return nil, err
	}
	if googleUser.Email == "" || !googleUser.VerifiedEmail {
		return nil, fmt.Errorf("email %q is not verified", googleUser.Email)
	}
	return &googleUser, nil
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookie,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.cfg.FrontendURL, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	http.SetCookie(w, &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(20 * time.Minute),
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	return state
}
