package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/forgo/ludoteca/api/internal/model"
)

// Pinger reports database reachability
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves GET /health
type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

// NewHealthHandler creates a health handler that pings db
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: 2 * time.Second}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		pd := model.NewInternalError("database unreachable")
		pd.Status = http.StatusServiceUnavailable
		pd.Title = "Service Unavailable"
		pd.Code = model.ErrCodeDatabase
		WriteError(w, pd)
		return
	}

	WriteData(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
