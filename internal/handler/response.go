// Package handler is the HTTP boundary: it parses path, query and body,
// calls one service operation and maps the result or error to a response.
//
// Handlers never touch storage and never decide access; that is the job of
// the auth middleware and the services.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/devrel-dashboard/internal/apperror"
	"github.com/sakif/devrel-dashboard/internal/auth"
	"github.com/sakif/devrel-dashboard/internal/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends data with the given status.
//
// Headers and status must be written before the body: once Encode writes,
// later header changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a service error to a status code.
//
// ERROR MAPPING:
// Services return errors built by package apperror, each carrying a kind.
// This is the only place a kind becomes an HTTP status, so a service never
// imports net/http and every handler answers the same way for the same
// failure:
//
//	ErrValidation   → 400
//	ErrUnauthorized → 401
//	ErrNotFound     → 404
//	ErrConflict     → 409
//	anything else   → 500, logged; the client gets a generic message
//
// errors.Is walks the %w chain, so a kind wrapped by a service still matches.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		}
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: appErr.Message})
			return
		}
	}

	// Never expose internal details: the raw error may carry SQL or paths.
	logger.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

func writeNotFound(w http.ResponseWriter, resource, id string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: apperror.NotFound(resource, id).Message})
}

// decodeJSON reads a single JSON value from the body into dst.
//
// JSON DECODING:
// The body is read as a stream through http.MaxBytesReader, so an oversized
// upload fails part way instead of being buffered whole. Any decode failure,
// including hitting the cap, is reported as a 400 on the "body" field; the
// decoder's own message is not echoed to the client.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}

// parseList splits a comma-separated query value such as ?ids=a,b,c.
// Blank entries are dropped; nil means the parameter was absent or empty.
func parseList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func pathID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// actor is the authenticated user, or nil on a public route.
func actor(r *http.Request) *model.User {
	user, _ := auth.UserFromContext(r.Context())
	return user
}
