package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/internal/service"
)

func adminUserRoutes(users *mockUserAdmin) func(*http.ServeMux) {
	h := NewAdminUsersHandler(users)
	return func(mux *http.ServeMux) {
		h.RegisterRoutes(mux, middleware.RequireRole(model.UserRoleAdmin))
	}
}

func TestAdminUsers_NonAdminIsForbidden(t *testing.T) {
	req := asUser(newJSONRequest(http.MethodGet, "/v1/admin/users", nil), "user:s1", model.UserRoleSuperCoordinator)
	rr := serve(adminUserRoutes(&mockUserAdmin{}), req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminUsers_List(t *testing.T) {
	users := &mockUserAdmin{users: []*model.User{{ID: "user:1"}, {ID: "user:2"}}}

	req := asUser(newJSONRequest(http.MethodGet, "/v1/admin/users?role=coordinator&search=ana", nil), "user:a1", model.UserRoleAdmin)
	rr := serve(adminUserRoutes(users), req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.UserRoleCoordinator, users.lastFilter.Role)
	assert.Equal(t, "ana", users.lastFilter.Search)
	assert.Equal(t, 2, decodeEnvelope(t, rr).Pagination.Total)
}

func TestAdminUsers_Create(t *testing.T) {
	req := asUser(newJSONRequest(http.MethodPost, "/v1/admin/users", map[string]string{
		"email": "coord@example.com", "password": "a-strong-pass", "role": "coordinator",
	}), "user:a1", model.UserRoleAdmin)
	rr := serve(adminUserRoutes(&mockUserAdmin{}), req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var user model.User
	decodeData(t, rr, &user)
	assert.Equal(t, model.UserRoleCoordinator, user.Role)
}

func TestAdminUsers_GetMissing_ReturnsNotFound(t *testing.T) {
	req := asUser(newJSONRequest(http.MethodGet, "/v1/admin/users/user:404", nil), "user:a1", model.UserRoleAdmin)
	rr := serve(adminUserRoutes(&mockUserAdmin{}), req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAdminUsers_ChangeOwnRole_ReturnsForbidden(t *testing.T) {
	users := &mockUserAdmin{
		setRoleFunc: func(ctx context.Context, actor service.Actor, userID string, req *model.UpdateUserRoleRequest) (*model.User, error) {
			if actor.UserID == userID {
				return nil, service.ErrCannotModifySelf
			}
			return &model.User{ID: userID, Role: req.Role}, nil
		},
	}

	req := asUser(newJSONRequest(http.MethodPatch, "/v1/admin/users/user:a1/role", map[string]string{"role": "user"}),
		"user:a1", model.UserRoleAdmin)
	rr := serve(adminUserRoutes(users), req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminUsers_SetStatus(t *testing.T) {
	req := asUser(newJSONRequest(http.MethodPatch, "/v1/admin/users/user:2/status", map[string]bool{"is_active": false}),
		"user:a1", model.UserRoleAdmin)
	rr := serve(adminUserRoutes(&mockUserAdmin{}), req)

	require.Equal(t, http.StatusOK, rr.Code)
	var user model.User
	decodeData(t, rr, &user)
	assert.False(t, user.IsActive)
}

func TestAdminUsers_DeleteWithOpenRentals_ReturnsConflict(t *testing.T) {
	users := &mockUserAdmin{
		deleteFunc: func(ctx context.Context, actor service.Actor, userID string) error {
			return service.ErrUserHasOpenRentals
		},
	}

	req := asUser(newJSONRequest(http.MethodDelete, "/v1/admin/users/user:2", nil), "user:a1", model.UserRoleAdmin)
	rr := serve(adminUserRoutes(users), req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdminUsers_Delete_ReturnsID(t *testing.T) {
	req := asUser(newJSONRequest(http.MethodDelete, "/v1/admin/users/user:2", nil), "user:a1", model.UserRoleAdmin)
	rr := serve(adminUserRoutes(&mockUserAdmin{}), req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"user:2"}}`, rr.Body.String())
}
