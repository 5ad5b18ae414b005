package handler

import (
	"net/http"
	"strings"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
)

// AdminUsersHandler handles /v1/admin/users
type AdminUsersHandler struct {
	users UserAdminService
}

// NewAdminUsersHandler creates a new admin users handler
func NewAdminUsersHandler(users UserAdminService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// RegisterRoutes mounts the admin user endpoints behind guard
func (h *AdminUsersHandler) RegisterRoutes(mux *http.ServeMux, guard middleware.Middleware) {
	mux.Handle("GET /v1/admin/users", wrap(guard, h.ListUsers))
	mux.Handle("POST /v1/admin/users", wrap(guard, h.CreateUser))
	mux.Handle("GET /v1/admin/users/{userId}", wrap(guard, h.GetUser))
	mux.Handle("PATCH /v1/admin/users/{userId}/role", wrap(guard, h.UpdateRole))
	mux.Handle("PATCH /v1/admin/users/{userId}/status", wrap(guard, h.UpdateStatus))
	mux.Handle("DELETE /v1/admin/users/{userId}", wrap(guard, h.DeleteUser))
}

// ListUsers handles GET /v1/admin/users?page=&page_size=&search=&role=
func (h *AdminUsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pd := pageParams(r)
	if pd != nil {
		WriteError(w, pd)
		return
	}

	q := r.URL.Query()
	filter := model.UserFilter{
		Search: strings.TrimSpace(q.Get("search")),
		Role:   model.UserRole(q.Get("role")),
		Page:   page,
	}

	result, err := h.users.ListUsers(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WritePage(w, result, page)
}

// CreateUser handles POST /v1/admin/users
func (h *AdminUsersHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.CreateUser(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusCreated, user)
}

// GetUser handles GET /v1/admin/users/{userId}
func (h *AdminUsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}

// UpdateRole handles PATCH /v1/admin/users/{userId}/role
func (h *AdminUsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserRoleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.SetRole(r.Context(), actorFrom(r), r.PathValue("userId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}

// UpdateStatus handles PATCH /v1/admin/users/{userId}/status
func (h *AdminUsersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateUserStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.SetStatus(r.Context(), actorFrom(r), r.PathValue("userId"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, user)
}

// DeleteUser handles DELETE /v1/admin/users/{userId}
func (h *AdminUsersHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	if err := h.users.DeleteUser(r.Context(), actorFrom(r), userID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]string{"id": userID})
}
