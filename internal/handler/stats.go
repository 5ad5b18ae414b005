package handler

import (
	"net/http"

	"github.com/forgo/ludoteca/api/internal/middleware"
)

// StatsHandler serves dashboard counters
type StatsHandler struct {
	stats StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(stats StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// RegisterAdminRoutes mounts GET /v1/admin/stats behind guard
func (h *StatsHandler) RegisterAdminRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/admin/stats", wrap(guard, h.System))
}

// RegisterSuperRoutes mounts GET /v1/super/stats behind guard
func (h *StatsHandler) RegisterSuperRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/super/stats", wrap(guard, h.Centers))
}

// System handles GET /v1/admin/stats
func (h *StatsHandler) System(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.System(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, stats)
}

// Centers handles GET /v1/super/stats with counts for overseen centers
func (h *StatsHandler) Centers(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Centers(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteList(w, stats)
}
