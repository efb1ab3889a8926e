package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devrel-dashboard/internal/service"
)

type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// HandleMe  HTTP: GET /api/users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), actor(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCreate  HTTP: POST /api/users  (admin)
// REQUEST BODY: {"name":"","email":"a@b.c","role":"user","password":""}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.svc.Create(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}
