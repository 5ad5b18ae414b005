package handler

import (
	"net/http"
	"strings"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
)

// RentalHandler handles the caller's own rentals and the admin rental listing
type RentalHandler struct {
	rentals RentalService
}

// NewRentalHandler creates a new rental handler
func NewRentalHandler(rentals RentalService) *RentalHandler {
	return &RentalHandler{rentals: rentals}
}

// RegisterUserRoutes mounts /v1/user behind guard
func (h *RentalHandler) RegisterUserRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/user/rentals", wrap(guard, h.ListMine))
	mux.Handle("POST /v1/user/rentals", wrap(guard, h.Request))
	mux.Handle("GET /v1/user/rentals/{rentalId}", wrap(guard, h.GetMine))
	mux.Handle("POST /v1/user/rentals/{rentalId}/cancel", wrap(guard, h.Cancel))
}

// RegisterAdminRoutes mounts GET /v1/admin/rentals behind guard
func (h *RentalHandler) RegisterAdminRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/admin/rentals", wrap(guard, h.ListAll))
}

// ListMine handles GET /v1/user/rentals?status=
func (h *RentalHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	page, pd := pageParams(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	status, pd := rentalStatusParam(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	result, err := h.rentals.ListForUser(r.Context(), userID, status, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// Request handles POST /v1/user/rentals
func (h *RentalHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req model.CreateRentalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rental, err := h.rentals.Request(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, rental)
}

// GetMine handles GET /v1/user/rentals/{rentalId}
func (h *RentalHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rental, err := h.rentals.GetForUser(r.Context(), userID, r.PathValue("rentalId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, rental)
}

// Cancel handles POST /v1/user/rentals/{rentalId}/cancel
func (h *RentalHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	rental, err := h.rentals.CancelByUser(r.Context(), userID, r.PathValue("rentalId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, rental)
}

// ListAll handles GET /v1/admin/rentals?status=&center_id=&user_id=
func (h *RentalHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	page, pd := pageParams(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	status, pd := rentalStatusParam(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	q := r.URL.Query()
	result, err := h.rentals.List(r.Context(), model.RentalFilter{
		CenterID: strings.TrimSpace(q.Get("center_id")),
		UserID:   strings.TrimSpace(q.Get("user_id")),
		Status:   status,
		Page:     page,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}
