package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/devrel-dashboard/internal/model"
	"github.com/sakif/devrel-dashboard/internal/service"
)

// SegmentHandler serves /api/segments and the membership sub-routes.
type SegmentHandler struct {
	svc    *service.SegmentService
	logger *slog.Logger
}

func NewSegmentHandler(svc *service.SegmentService, logger *slog.Logger) *SegmentHandler {
	return &SegmentHandler{svc: svc, logger: logger}
}

// HandleList returns the caller's segments (all segments for an admin).
//
// HTTP: GET /api/segments?q=
func (h *SegmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	segments, err := h.svc.List(r.Context(), actor(r), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, segments)
}

// HandleGet  HTTP: GET /api/segments/{id}
//
// Another user's segment is a 404, the same as a missing one.
func (h *SegmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	seg, err := h.svc.Get(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if seg == nil {
		writeNotFound(w, "segment", id)
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

// HandleCreate  HTTP: POST /api/segments
// REQUEST BODY: {"name":"Core","description":"","contributorLogins":[],"repositoryUrls":[]}
func (h *SegmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.SegmentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	seg, err := h.svc.Create(r.Context(), actor(r), in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, seg)
}

// HandleUpdate  HTTP: PUT /api/segments/{id}
func (h *SegmentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	var patch model.SegmentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err)
		return
	}
	seg, err := h.svc.Update(r.Context(), actor(r), id, patch)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if seg == nil {
		writeNotFound(w, "segment", id)
		return
	}
	writeJSON(w, http.StatusOK, seg)
}

// HandleDelete  HTTP: DELETE /api/segments/{id}
func (h *SegmentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	ok, err := h.svc.Delete(r.Context(), actor(r), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeNotFound(w, "segment", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type contributorMember struct {
	GitHubLogin string `json:"githubLogin"`
}

type repositoryMember struct {
	RepositoryURL string `json:"repositoryUrl"`
}

// HandleAddContributor  HTTP: POST /api/segments/{id}/contributors  {"githubLogin":"..."}
//
// Adding an existing member still answers {"added": true}.
func (h *SegmentHandler) HandleAddContributor(w http.ResponseWriter, r *http.Request) {
	var body contributorMember
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.membership(w, r, "added", body.GitHubLogin, h.svc.AddContributor)
}

// HandleRemoveContributor  HTTP: DELETE /api/segments/{id}/contributors  {"githubLogin":"..."}
//
// Answers {"removed": false} when login was not a member.
func (h *SegmentHandler) HandleRemoveContributor(w http.ResponseWriter, r *http.Request) {
	var body contributorMember
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.membership(w, r, "removed", body.GitHubLogin, h.svc.RemoveContributor)
}

// HandleAddRepository  HTTP: POST /api/segments/{id}/repositories  {"repositoryUrl":"..."}
func (h *SegmentHandler) HandleAddRepository(w http.ResponseWriter, r *http.Request) {
	var body repositoryMember
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.membership(w, r, "added", body.RepositoryURL, h.svc.AddRepository)
}

// HandleRemoveRepository  HTTP: DELETE /api/segments/{id}/repositories  {"repositoryUrl":"..."}
func (h *SegmentHandler) HandleRemoveRepository(w http.ResponseWriter, r *http.Request) {
	var body repositoryMember
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.membership(w, r, "removed", body.RepositoryURL, h.svc.RemoveRepository)
}

// membership runs op and answers {key: changed}. A segment that does not
// exist is a 404 in both directions; removing a non-member is an idempotent
// no-op (200, false).
func (h *SegmentHandler) membership(
	w http.ResponseWriter,
	r *http.Request,
	key, member string,
	op func(ctx context.Context, segmentID, member string) (*model.Segment, bool, error),
) {
	id := pathID(r)
	seg, changed, err := op(r.Context(), id, member)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if seg == nil {
		writeNotFound(w, "segment", id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{key: changed})
}
