package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
	"github.com/sakif/devrel-dashboard/internal/service"
)

// RepositoryHandler serves /api/repositories. Reads are public; writes are
// mounted behind RequireUser.
type RepositoryHandler struct {
	svc    *service.RepositoryService
	logger *slog.Logger
}

func NewRepositoryHandler(svc *service.RepositoryService, logger *slog.Logger) *RepositoryHandler {
	return &RepositoryHandler{svc: svc, logger: logger}
}

// HandleList  HTTP: GET /api/repositories?names=a,b&urls=&ids=&q=
func (h *RepositoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	repos, err := h.svc.List(r.Context(), repository.RepositoryFilter{
		Query: q.Get("q"),
		Names: parseList(q.Get("names")),
		URLs:  parseList(q.Get("urls")),
		IDs:   parseList(q.Get("ids")),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, repos)
}

// HandleGet  HTTP: GET /api/repositories/{id}
func (h *RepositoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	repo, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if repo == nil {
		writeNotFound(w, "repository", id)
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

// HandleCreate  HTTP: POST /api/repositories
func (h *RepositoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var repo model.Repository
	if err := decodeJSON(w, r, &repo); err != nil {
		writeError(w, h.logger, err)
		return
	}
	created, err := h.svc.Create(r.Context(), &repo)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate  HTTP: PUT /api/repositories/{id}
func (h *RepositoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var patch model.RepositoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}
	updated, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if updated == nil {
		writeNotFound(w, "repository", id)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete  HTTP: DELETE /api/repositories/{id}
func (h *RepositoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	ok, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeNotFound(w, "repository", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
