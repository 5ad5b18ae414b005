package handler

import (
	"net/http"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
)

// CoordinatorHandler handles /v1/coordinator. Every endpoint works on the
// center assigned to the caller.
type CoordinatorHandler struct {
	centers   CenterService
	inventory InventoryService
	rentals   RentalService
}

// NewCoordinatorHandler creates a new coordinator handler
func NewCoordinatorHandler(centers CenterService, inventory InventoryService, rentals RentalService) *CoordinatorHandler {
	return &CoordinatorHandler{centers: centers, inventory: inventory, rentals: rentals}
}

// RegisterRoutes mounts /v1/coordinator behind guard
func (h *CoordinatorHandler) RegisterRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/coordinator/center", wrap(guard, h.Center))

	mux.Handle("GET /v1/coordinator/instances", wrap(guard, h.ListInstances))
	mux.Handle("POST /v1/coordinator/instances", wrap(guard, h.CreateInstance))
	mux.Handle("GET /v1/coordinator/instances/{instanceId}", wrap(guard, h.GetInstance))
	mux.Handle("PATCH /v1/coordinator/instances/{instanceId}", wrap(guard, h.UpdateInstance))
	mux.Handle("DELETE /v1/coordinator/instances/{instanceId}", wrap(guard, h.DeleteInstance))

	mux.Handle("GET /v1/coordinator/rentals", wrap(guard, h.ListRentals))
	mux.Handle("GET /v1/coordinator/rentals/overdue", wrap(guard, h.OverdueRentals))
	mux.Handle("POST /v1/coordinator/rentals/{rentalId}/approve", wrap(guard, h.Approve))
	mux.Handle("POST /v1/coordinator/rentals/{rentalId}/reject", wrap(guard, h.Reject))
	mux.Handle("POST /v1/coordinator/rentals/{rentalId}/return", wrap(guard, h.Return))
}

// center resolves the caller's assigned center, writing the error if none
func (h *CoordinatorHandler) center(w http.ResponseWriter, r *http.Request) (*model.Center, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}

	center, err := h.centers.GetForCoordinator(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return center, true
}

// Center handles GET /v1/coordinator/center
func (h *CoordinatorHandler) Center(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	WriteData(w, http.StatusOK, center)
}

// ListInstances handles GET /v1/coordinator/instances?status=
func (h *CoordinatorHandler) ListInstances(w http.ResponseWriter, r *http.Request) {
	page, pd := pageParams(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}
	status, pd := instanceStatusParam(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	center, ok := h.center(w, r)
	if !ok {
		return
	}

	result, err := h.inventory.List(r.Context(), center.ID, status, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// CreateInstance handles POST /v1/coordinator/instances
func (h *CoordinatorHandler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	var req model.CreateInstanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	instance, err := h.inventory.Create(r.Context(), center.ID, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, instance)
}

// GetInstance handles GET /v1/coordinator/instances/{instanceId}
func (h *CoordinatorHandler) GetInstance(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	instance, err := h.inventory.Get(r.Context(), center.ID, r.PathValue("instanceId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, instance)
}

// UpdateInstance handles PATCH /v1/coordinator/instances/{instanceId}
func (h *CoordinatorHandler) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	var req model.UpdateInstanceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	instance, err := h.inventory.Update(r.Context(), center.ID, r.PathValue("instanceId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, instance)
}

// DeleteInstance handles DELETE /v1/coordinator/instances/{instanceId}
func (h *CoordinatorHandler) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	instanceID := r.PathValue("instanceId")
	if err := h.inventory.Delete(r.Context(), center.ID, instanceID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]string{"id": instanceID})
}

// ListRentals handles GET /v1/coordinator/rentals?status=
func (h *CoordinatorHandler) ListRentals(w http.ResponseWriter, r *http.Request) {
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

	center, ok := h.center(w, r)
	if !ok {
		return
	}

	result, err := h.rentals.ListForCenter(r.Context(), center.ID, status, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// OverdueRentals handles GET /v1/coordinator/rentals/overdue
func (h *CoordinatorHandler) OverdueRentals(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	rentals, err := h.rentals.ListOverdue(r.Context(), center.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteList(w, rentals)
}

// Approve handles POST /v1/coordinator/rentals/{rentalId}/approve
func (h *CoordinatorHandler) Approve(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	var req model.ApproveRentalRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	rental, err := h.rentals.Approve(r.Context(), actorFrom(r), center.ID, r.PathValue("rentalId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, rental)
}

// Reject handles POST /v1/coordinator/rentals/{rentalId}/reject
func (h *CoordinatorHandler) Reject(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	var req model.RejectRentalRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rental, err := h.rentals.Reject(r.Context(), actorFrom(r), center.ID, r.PathValue("rentalId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, rental)
}

// Return handles POST /v1/coordinator/rentals/{rentalId}/return
func (h *CoordinatorHandler) Return(w http.ResponseWriter, r *http.Request) {
	center, ok := h.center(w, r)
	if !ok {
		return
	}

	var req model.ReturnRentalRequest
	if !decodeOptionalBody(w, r, &req) {
		return
	}

	rental, err := h.rentals.Return(r.Context(), actorFrom(r), center.ID, r.PathValue("rentalId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, rental)
}
