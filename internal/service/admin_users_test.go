package service

import (
	"context"
	"testing"

	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminActor = Actor{UserID: "user:admin", Role: model.UserRoleAdmin}

func boolPtr(b bool) *bool { return &b }

func TestAdminUsers_CreateUser_WithRole(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo()
	svc := NewAdminUsersService(users, newMockCenterRepo())

	user, err := svc.CreateUser(context.Background(), &model.CreateUserRequest{
		Email:    "Coord@Example.com",
		Password: "correct-horse",
		Role:     model.UserRoleCoordinator,
	})
	require.NoError(t, err)
	assert.Equal(t, "coord@example.com", user.Email)
	assert.Equal(t, model.UserRoleCoordinator, user.Role)

	_, err = svc.CreateUser(context.Background(), &model.CreateUserRequest{
		Email:    "coord@example.com",
		Password: "correct-horse",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAdminUsers_CreateUser_RejectsUnknownRole(t *testing.T) {
	t.Parallel()
	svc := NewAdminUsersService(newMockUserRepo(), newMockCenterRepo())

	_, err := svc.CreateUser(context.Background(), &model.CreateUserRequest{
		Email:    "x@example.com",
		Password: "correct-horse",
		Role:     "overlord",
	})
	var pd *model.ProblemDetails
	require.ErrorAs(t, err, &pd)
	assert.Equal(t, 422, pd.Status)
}

func TestAdminUsers_SelfProtection(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo()
	users.add(&model.User{ID: adminActor.UserID, Email: "root@example.com", Role: model.UserRoleAdmin, IsActive: true})
	svc := NewAdminUsersService(users, newMockCenterRepo())
	ctx := context.Background()

	_, err := svc.SetRole(ctx, adminActor, adminActor.UserID, &model.UpdateUserRoleRequest{Role: model.UserRoleUser})
	assert.ErrorIs(t, err, ErrCannotModifySelf)

	_, err = svc.SetStatus(ctx, adminActor, adminActor.UserID, &model.UpdateUserStatusRequest{IsActive: boolPtr(false)})
	assert.ErrorIs(t, err, ErrCannotModifySelf)

	assert.ErrorIs(t, svc.DeleteUser(ctx, adminActor, adminActor.UserID), ErrCannotModifySelf)
}

func TestAdminUsers_SetRole(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo()
	users.add(&model.User{ID: "user:1", Email: "a@example.com", Role: model.UserRoleUser})
	svc := NewAdminUsersService(users, newMockCenterRepo())

	user, err := svc.SetRole(context.Background(), adminActor, "user:1", &model.UpdateUserRoleRequest{Role: model.UserRoleCoordinator})
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleCoordinator, user.Role)

	_, err = svc.SetRole(context.Background(), adminActor, "user:missing", &model.UpdateUserRoleRequest{Role: model.UserRoleAdmin})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAdminUsers_SetStatus(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo()
	users.add(&model.User{ID: "user:1", Email: "a@example.com", IsActive: true})
	svc := NewAdminUsersService(users, newMockCenterRepo())

	user, err := svc.SetStatus(context.Background(), adminActor, "user:1", &model.UpdateUserStatusRequest{IsActive: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	_, err = svc.SetStatus(context.Background(), adminActor, "user:1", &model.UpdateUserStatusRequest{})
	var pd *model.ProblemDetails
	assert.ErrorAs(t, err, &pd)
}

func TestAdminUsers_DeleteUser_WithOpenRentals(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo()
	users.add(&model.User{ID: "user:1", Email: "a@example.com"})
	users.deleteErr = conflictErr(model.ConflictUserOpenRentals)
	svc := NewAdminUsersService(users, newMockCenterRepo())

	err := svc.DeleteUser(context.Background(), adminActor, "user:1")
	assert.ErrorIs(t, err, ErrUserHasOpenRentals)
}

func TestAdminUsers_ListCoordinators(t *testing.T) {
	t.Parallel()
	users := newMockUserRepo()
	users.add(&model.User{ID: "user:c1", Email: "c1@example.com", Role: model.UserRoleCoordinator})
	users.add(&model.User{ID: "user:u1", Email: "u1@example.com", Role: model.UserRoleUser})
	centers := newMockCenterRepo()
	centers.add(&model.Center{ID: "center:1", Name: "Norte", CoordinatorID: strPtr("user:c1")})
	svc := NewAdminUsersService(users, centers)

	list, err := svc.ListCoordinators(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "user:c1", list[0].User.ID)
	require.NotNil(t, list[0].Center)
	assert.Equal(t, "center:1", list[0].Center.ID)
}

func TestAdminUsers_ListUsers_InvalidRole(t *testing.T) {
	t.Parallel()
	svc := NewAdminUsersService(newMockUserRepo(), newMockCenterRepo())
	_, err := svc.ListUsers(context.Background(), model.UserFilter{Role: "nobody"})
	var pd *model.ProblemDetails
	assert.ErrorAs(t, err, &pd)
}

func TestMapConflict(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, mapConflict(conflictErr(model.ConflictRentalLimit)), ErrRentalLimitReached)
	assert.ErrorIs(t, mapConflict(conflictErr(model.ConflictNotPending)), ErrInvalidTransition)
	assert.ErrorIs(t, mapConflict(conflictErr("something else")), ErrStateConflict)
	assert.Nil(t, mapConflict(nil))
	assert.ErrorIs(t, mapConflict(ErrForbidden), ErrForbidden)
}
