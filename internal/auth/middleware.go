package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/devrel-dashboard/internal/model"
)

// CookieName is the HttpOnly cookie carrying the session JWT.
const CookieName = "token"

// contextKey is unexported so no other package can read or shadow the value.
type contextKey string

const userKey contextKey = "user"

// UserLookup is the slice of the user store the middleware needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireUser rejects the request with 401 unless the "token" cookie holds a
// valid session for a user that still exists. On success the *model.User is
// stored in the request context for UserFromContext.
//
// It runs before the handler, so an unauthenticated request never reaches
// storage beyond this one lookup.
func RequireUser(tokens *TokenService, users UserLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				logger.Error("resolving session user", slog.String("error", err.Error()))
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if user == nil {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin must be mounted after RequireUser. A non-admin gets the same
// 401 as an anonymous caller.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin() {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or (nil, false) for an
// anonymous request.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// SetSessionCookie stores a signed session token. ttl should match the
// token's own lifetime (TokenService.TTL).
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// resolveUser returns (nil, nil) when there is no usable session and an error
// only when the user lookup itself fails.
func resolveUser(r *http.Request, tokens *TokenService, users UserLookup) (*model.User, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, nil
	}
	userID, err := tokens.Validate(cookie.Value)
	if err != nil {
		return nil, nil
	}
	return users.GetByID(r.Context(), userID)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
