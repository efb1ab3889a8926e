package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/devrel-dashboard/internal/service"
)

// DashboardHandler serves /api/dashboard/*. Each route is one service call.
type DashboardHandler struct {
	svc    *service.DashboardService
	logger *slog.Logger
}

func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// respond writes the result of a service call as 200 JSON or maps its error.
func respond[T any](w http.ResponseWriter, logger *slog.Logger, v T, err error) {
	if err != nil {
		writeError(w, logger, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleOverview  HTTP: GET /api/dashboard
func (h *DashboardHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Overview(r.Context(), actor(r))
	respond(w, h.logger, v, err)
}

// HandleKPIs  HTTP: GET /api/dashboard/kpis
func (h *DashboardHandler) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.KPIs(r.Context(), actor(r))
	respond(w, h.logger, v, err)
}

// HandleMonthlyCommits  HTTP: GET /api/dashboard/monthly-commits
func (h *DashboardHandler) HandleMonthlyCommits(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.MonthlyCommits(r.Context(), actor(r))
	respond(w, h.logger, v, err)
}

// HandleMonthlyPRsMerged  HTTP: GET /api/dashboard/monthly-prs-merged
func (h *DashboardHandler) HandleMonthlyPRsMerged(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.MonthlyPRsMerged(r.Context(), actor(r))
	respond(w, h.logger, v, err)
}

// HandleCommitsByDevType  HTTP: GET /api/dashboard/commits-by-dev-type
func (h *DashboardHandler) HandleCommitsByDevType(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.CommitsByDevType(r.Context())
	respond(w, h.logger, v, err)
}

// HandleDeveloperActivity  HTTP: GET /api/dashboard/developer-activity
func (h *DashboardHandler) HandleDeveloperActivity(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.DeveloperActivity(r.Context())
	respond(w, h.logger, v, err)
}

// HandleDevActivity  HTTP: GET /api/dashboard/dev-activity
func (h *DashboardHandler) HandleDevActivity(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.DevActivity(r.Context())
	respond(w, h.logger, v, err)
}

// HandleDeveloperLocations  HTTP: GET /api/dashboard/developer-locations
func (h *DashboardHandler) HandleDeveloperLocations(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.DeveloperLocations(r.Context())
	respond(w, h.logger, v, err)
}

// HandleDevelopersByCountry  HTTP: GET /api/dashboard/developers-by-country
func (h *DashboardHandler) HandleDevelopersByCountry(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.DevelopersByCountry(r.Context())
	respond(w, h.logger, v, err)
}

// HandleDevelopersByChain  HTTP: GET /api/dashboard/developers-by-chain
func (h *DashboardHandler) HandleDevelopersByChain(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.DevelopersByChain(r.Context())
	respond(w, h.logger, v, err)
}
