package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/service"
)

// SublistHandler serves /api/contributor-sublists and
// /api/repositories/sublists. None of these routes require a session.
type SublistHandler struct {
	contributors *service.ContributorSublistService
	repositories *service.RepositorySublistService
	logger       *slog.Logger
}

func NewSublistHandler(
	contributors *service.ContributorSublistService,
	repositories *service.RepositorySublistService,
	logger *slog.Logger,
) *SublistHandler {
	return &SublistHandler{contributors: contributors, repositories: repositories, logger: logger}
}

// Request bodies. The patch variants use pointers and nil slices so an
// omitted field is left unchanged.

type contributorSublistBody struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	ContributorIDs []string `json:"contributorIds"`
}

type contributorSublistPatch struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	ContributorIDs []string `json:"contributorIds"`
}

type repositorySublistBody struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	RepositoryIDs []string `json:"repositoryIds"`
}

type repositorySublistPatch struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	RepositoryIDs []string `json:"repositoryIds"`
}

// =============================================================================
// Contributor sublists
// =============================================================================

// HandleListContributors  HTTP: GET /api/contributor-sublists
func (h *SublistHandler) HandleListContributors(w http.ResponseWriter, r *http.Request) {
	lists, err := h.contributors.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// HandleGetContributors  HTTP: GET /api/contributor-sublists/{id}
func (h *SublistHandler) HandleGetContributors(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	sl, err := h.contributors.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sl == nil {
		writeNotFound(w, "contributor sublist", id)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

// HandleCreateContributors  HTTP: POST /api/contributor-sublists
// REQUEST BODY: {"name":"VIPs","description":"","contributorIds":["a","b"]}
func (h *SublistHandler) HandleCreateContributors(w http.ResponseWriter, r *http.Request) {
	var body contributorSublistBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sl, err := h.contributors.Create(r.Context(), service.SublistInput{
		Name:        body.Name,
		Description: body.Description,
		Members:     body.ContributorIDs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sl)
}

// HandleUpdateContributors  HTTP: PUT /api/contributor-sublists/{id}
func (h *SublistHandler) HandleUpdateContributors(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var body contributorSublistPatch
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sl, err := h.contributors.Update(r.Context(), id, model.SublistPatch{
		Name:        body.Name,
		Description: body.Description,
		Members:     body.ContributorIDs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sl == nil {
		writeNotFound(w, "contributor sublist", id)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

// HandleDeleteContributors  HTTP: DELETE /api/contributor-sublists/{id}
func (h *SublistHandler) HandleDeleteContributors(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	ok, err := h.contributors.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeNotFound(w, "contributor sublist", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// HandleContributorActivity  HTTP: GET /api/contributor-sublists/activity?ids=a,b,c
func (h *SublistHandler) HandleContributorActivity(w http.ResponseWriter, r *http.Request) {
	points, err := h.contributors.Activity(r.Context(), parseList(r.URL.Query().Get("ids")))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// HandleContributorRetention  HTTP: GET /api/contributor-sublists/retention?ids=a,b,c
func (h *SublistHandler) HandleContributorRetention(w http.ResponseWriter, r *http.Request) {
	points, err := h.contributors.Retention(r.Context(), parseList(r.URL.Query().Get("ids")))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// =============================================================================
// Repository sublists
// =============================================================================

// HandleListRepositories  HTTP: GET /api/repositories/sublists
func (h *SublistHandler) HandleListRepositories(w http.ResponseWriter, r *http.Request) {
	lists, err := h.repositories.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

// HandleGetRepositories attaches the series named by ?dataType=.
//
// HTTP: GET /api/repositories/sublists/{id}?dataType=activity|retention
func (h *SublistHandler) HandleGetRepositories(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	view, err := h.repositories.Get(r.Context(), id, r.URL.Query().Get("dataType"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if view == nil {
		writeNotFound(w, "repository sublist", id)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleCreateRepositories  HTTP: POST /api/repositories/sublists
func (h *SublistHandler) HandleCreateRepositories(w http.ResponseWriter, r *http.Request) {
	var body repositorySublistBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sl, err := h.repositories.Create(r.Context(), service.SublistInput{
		Name:        body.Name,
		Description: body.Description,
		Members:     body.RepositoryIDs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, sl)
}

// HandleUpdateRepositories  HTTP: PUT /api/repositories/sublists/{id}
func (h *SublistHandler) HandleUpdateRepositories(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var body repositorySublistPatch
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	sl, err := h.repositories.Update(r.Context(), id, model.SublistPatch{
		Name:        body.Name,
		Description: body.Description,
		Members:     body.RepositoryIDs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if sl == nil {
		writeNotFound(w, "repository sublist", id)
		return
	}
	writeJSON(w, http.StatusOK, sl)
}

// HandleDeleteRepositories  HTTP: DELETE /api/repositories/sublists/{id}
func (h *SublistHandler) HandleDeleteRepositories(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	ok, err := h.repositories.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeNotFound(w, "repository sublist", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
