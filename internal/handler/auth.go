package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/devrel-dashboard/internal/auth"
	"github.com/sakif/devrel-dashboard/internal/service"
)

const stateCookie = "oauth_state"

// AuthHandler runs the sign-in flows and manages the session cookie.
//
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → exchange the code for a profile, sign in, set cookie
//   - HandlePasswordLogin  → email/password sign-in, set cookie
//   - HandleLogout         → clear the cookie
//
// github is nil when OAuth is not configured; the server then does not
// mount the GitHub routes.
type AuthHandler struct {
	github *auth.GitHubProvider
	svc    *service.AuthService
	ttl    time.Duration
	secure bool
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. ttl is the session cookie lifetime
// and should equal the token lifetime; secure marks cookies HTTPS-only.
func NewAuthHandler(
	github *auth.GitHubProvider,
	svc *service.AuthService,
	ttl time.Duration,
	secure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github: github,
		svc:    svc,
		ttl:    ttl,
		secure: secure,
		logger: logger,
	}
}

// HandleGitHubLogin redirects to GitHub.
//
// HTTP: GET /auth/github/login
//
// A random state goes into a short-lived HttpOnly cookie and the
// authorization URL; the callback rejects any request where the two differ.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.github.AuthURL(state), http.StatusFound)
}

// HandleGitHubCallback completes the OAuth flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
//  1. Validate state against the cookie
//  2. Exchange the code for a GitHub profile
//  3. Sign in or register the matching account
//  4. Set the session cookie and redirect home
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || q.Get("state") != cookie.Value {
		h.logger.Warn("auth callback: invalid state")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid OAuth state"})
		return
	}
	// Single use.
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusFound)
		return
	}

	code := q.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "missing OAuth code"})
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication failed"})
		return
	}

	result, err := h.svc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, h.ttl, h.secure)
	http.Redirect(w, r, "/", http.StatusFound)
}

type passwordLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandlePasswordLogin signs in an email/password account and returns the user.
//
// HTTP: POST /auth/login  {"email":"...","password":"..."}
func (h *AuthHandler) HandlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	var body passwordLogin
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.svc.LoginWithPassword(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	auth.SetSessionCookie(w, result.Token, h.ttl, h.secure)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// The JWT itself stays valid until it expires; without the cookie the
// browser no longer sends it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w, h.secure)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
