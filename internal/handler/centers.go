package handler

import (
	"net/http"
	"strings"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
)

// CenterHandler serves center management for admins and super coordinators.
// Scope checks live in the service and key off the caller's role.
type CenterHandler struct {
	centers CenterService
	users   UserAdminService
	rentals RentalService
}

// NewCenterHandler creates a new center handler
func NewCenterHandler(centers CenterService, users UserAdminService, rentals RentalService) *CenterHandler {
	return &CenterHandler{centers: centers, users: users, rentals: rentals}
}

// RegisterAdminRoutes mounts /v1/admin/centers behind guard
func (h *CenterHandler) RegisterAdminRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/admin/centers", wrap(guard, h.List))
	mux.Handle("POST /v1/admin/centers", wrap(guard, h.Create))
	mux.Handle("GET /v1/admin/centers/{centerId}", wrap(guard, h.Get))
	mux.Handle("PATCH /v1/admin/centers/{centerId}", wrap(guard, h.Update))
	mux.Handle("DELETE /v1/admin/centers/{centerId}", wrap(guard, h.Delete))
	mux.Handle("PUT /v1/admin/centers/{centerId}/coordinator", wrap(guard, h.AssignCoordinator))
	mux.Handle("DELETE /v1/admin/centers/{centerId}/coordinator", wrap(guard, h.RemoveCoordinator))
	mux.Handle("PUT /v1/admin/centers/{centerId}/super-coordinator", wrap(guard, h.AssignSuperCoordinator))
	mux.Handle("DELETE /v1/admin/centers/{centerId}/super-coordinator", wrap(guard, h.RemoveSuperCoordinator))
	mux.Handle("POST /v1/admin/centers/{centerId}/activate", wrap(guard, h.Activate))
	mux.Handle("POST /v1/admin/centers/{centerId}/deactivate", wrap(guard, h.Deactivate))
}

// RegisterSuperRoutes mounts /v1/super behind guard
func (h *CenterHandler) RegisterSuperRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/super/centers", wrap(guard, h.List))
	mux.Handle("GET /v1/super/centers/{centerId}", wrap(guard, h.Get))
	mux.Handle("GET /v1/super/centers/{centerId}/rentals", wrap(guard, h.CenterRentals))
	mux.Handle("PUT /v1/super/centers/{centerId}/coordinator", wrap(guard, h.AssignCoordinator))
	mux.Handle("DELETE /v1/super/centers/{centerId}/coordinator", wrap(guard, h.RemoveCoordinator))
	mux.Handle("POST /v1/super/centers/{centerId}/activate", wrap(guard, h.Activate))
	mux.Handle("POST /v1/super/centers/{centerId}/deactivate", wrap(guard, h.Deactivate))
	mux.Handle("GET /v1/super/coordinators", wrap(guard, h.Coordinators))
}

// List handles GET /v1/{admin,super}/centers?search=&city=&page=&page_size=
func (h *CenterHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pd := pageParams(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	q := r.URL.Query()
	filter := model.CenterFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		City:       strings.TrimSpace(q.Get("city")),
		ActiveOnly: q.Get("active") == "true",
		Page:       page,
	}

	result, err := h.centers.ListForActor(r.Context(), actorFrom(r), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// Create handles POST /v1/admin/centers
func (h *CenterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCenterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	center, err := h.centers.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, center)
}

// Get handles GET /v1/{admin,super}/centers/{centerId}
func (h *CenterHandler) Get(w http.ResponseWriter, r *http.Request) {
	center, err := h.centers.GetForActor(r.Context(), actorFrom(r), r.PathValue("centerId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// Update handles PATCH /v1/admin/centers/{centerId}
func (h *CenterHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCenterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	center, err := h.centers.Update(r.Context(), r.PathValue("centerId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// Delete handles DELETE /v1/admin/centers/{centerId}
func (h *CenterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	centerID := r.PathValue("centerId")
	if err := h.centers.Delete(r.Context(), centerID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]string{"id": centerID})
}

// AssignCoordinator handles PUT .../centers/{centerId}/coordinator
func (h *CenterHandler) AssignCoordinator(w http.ResponseWriter, r *http.Request) {
	var req model.AssignUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	center, err := h.centers.AssignCoordinator(r.Context(), actorFrom(r), r.PathValue("centerId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// RemoveCoordinator handles DELETE .../centers/{centerId}/coordinator.
// The center is deactivated in the same write.
func (h *CenterHandler) RemoveCoordinator(w http.ResponseWriter, r *http.Request) {
	center, err := h.centers.RemoveCoordinator(r.Context(), actorFrom(r), r.PathValue("centerId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// AssignSuperCoordinator handles PUT /v1/admin/centers/{centerId}/super-coordinator
func (h *CenterHandler) AssignSuperCoordinator(w http.ResponseWriter, r *http.Request) {
	var req model.AssignUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	center, err := h.centers.AssignSuperCoordinator(r.Context(), r.PathValue("centerId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// RemoveSuperCoordinator handles DELETE /v1/admin/centers/{centerId}/super-coordinator
func (h *CenterHandler) RemoveSuperCoordinator(w http.ResponseWriter, r *http.Request) {
	center, err := h.centers.RemoveSuperCoordinator(r.Context(), r.PathValue("centerId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// Activate handles POST .../centers/{centerId}/activate
func (h *CenterHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// Deactivate handles POST .../centers/{centerId}/deactivate
func (h *CenterHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *CenterHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	center, err := h.centers.SetActive(r.Context(), actorFrom(r), r.PathValue("centerId"), active)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, center)
}

// CenterRentals handles GET /v1/super/centers/{centerId}/rentals?status=
func (h *CenterHandler) CenterRentals(w http.ResponseWriter, r *http.Request) {
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

	center, err := h.centers.GetForActor(r.Context(), actorFrom(r), r.PathValue("centerId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.rentals.ListForCenter(r.Context(), center.ID, status, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// Coordinators handles GET /v1/super/coordinators
func (h *CenterHandler) Coordinators(w http.ResponseWriter, r *http.Request) {
	coordinators, err := h.users.ListCoordinators(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteList(w, coordinators)
}
