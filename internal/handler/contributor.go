package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/repository"
	"github.com/sakif/devrel-dashboard/internal/service"
)

// ContributorHandler serves /api/contributors. Every route requires a user.
type ContributorHandler struct {
	svc    *service.ContributorService
	logger *slog.Logger
}

func NewContributorHandler(svc *service.ContributorService, logger *slog.Logger) *ContributorHandler {
	return &ContributorHandler{svc: svc, logger: logger}
}

// HandleList is dual-mode.
//
// HTTP: GET /api/contributors?id=xyz                      → one object, or 404
// HTTP: GET /api/contributors?q=&sortBy=&sortDir=&segmentIds=a,b → array
//
// WHY ONE ROUTE, TWO SHAPES?
// The dashboard client fetches a single contributor with ?id= on the same
// path it uses for the table. When id is present every other parameter is ignored and the response is the bare
// object; otherwise it is always an array, empty rather than null.
func (h *ContributorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := q.Get("id"); id != "" {
		h.writeOne(w, r, id)
		return
	}

	contributors, err := h.svc.List(r.Context(), repository.ContributorFilter{
		Query:      q.Get("q"),
		SortBy:     q.Get("sortBy"),
		SortDir:    q.Get("sortDir"),
		SegmentIDs: parseList(q.Get("segmentIds")),
		IDs:        parseList(q.Get("ids")),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contributors)
}

// HandleGet  HTTP: GET /api/contributors/{id}
func (h *ContributorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	h.writeOne(w, r, pathID(r))
}

// HandleCreate  HTTP: POST /api/contributors
func (h *ContributorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var c model.Contributor
	if err := decodeJSON(w, r, &c); err != nil {
		writeError(w, h.logger, err)
		return
	}
	created, err := h.svc.Create(r.Context(), &c)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleUpdate applies a partial update; omitted fields are left unchanged.
//
// HTTP: PUT /api/contributors/{id}
func (h *ContributorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var patch model.ContributorPatch
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
		writeNotFound(w, "contributor", id)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDelete  HTTP: DELETE /api/contributors/{id}
func (h *ContributorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	ok, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeNotFound(w, "contributor", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *ContributorHandler) writeOne(w http.ResponseWriter, r *http.Request, id string) {
	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if c == nil {
		writeNotFound(w, "contributor", id)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
