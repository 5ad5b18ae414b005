package handler

import (
	"context"
	"net/http"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/internal/service"
)

// The interfaces below are the slices of the service layer each handler
// uses; *service.XService values satisfy them.

// AuthService is implemented by *service.AuthService
type AuthService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error)
	Login(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error)
	ChangePassword(ctx context.Context, userID string, req *model.ChangePasswordRequest) error
}

// UserAdminService is implemented by *service.AdminUsersService
type UserAdminService interface {
	ListUsers(ctx context.Context, filter model.UserFilter) (*model.Page[*model.User], error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	SetRole(ctx context.Context, actor service.Actor, userID string, req *model.UpdateUserRoleRequest) (*model.User, error)
	SetStatus(ctx context.Context, actor service.Actor, userID string, req *model.UpdateUserStatusRequest) (*model.User, error)
	DeleteUser(ctx context.Context, actor service.Actor, userID string) error
	ListCoordinators(ctx context.Context) ([]*model.CoordinatorSummary, error)
}

// CenterService is implemented by *service.CenterService
type CenterService interface {
	Create(ctx context.Context, req *model.CreateCenterRequest) (*model.Center, error)
	Get(ctx context.Context, centerID string) (*model.Center, error)
	GetActive(ctx context.Context, centerID string) (*model.Center, error)
	GetForActor(ctx context.Context, actor service.Actor, centerID string) (*model.Center, error)
	GetForCoordinator(ctx context.Context, userID string) (*model.Center, error)
	List(ctx context.Context, filter model.CenterFilter) (*model.Page[*model.Center], error)
	ListForActor(ctx context.Context, actor service.Actor, filter model.CenterFilter) (*model.Page[*model.Center], error)
	Update(ctx context.Context, centerID string, req *model.UpdateCenterRequest) (*model.Center, error)
	Delete(ctx context.Context, centerID string) error
	AssignCoordinator(ctx context.Context, actor service.Actor, centerID string, req *model.AssignUserRequest) (*model.Center, error)
	RemoveCoordinator(ctx context.Context, actor service.Actor, centerID string) (*model.Center, error)
	AssignSuperCoordinator(ctx context.Context, centerID string, req *model.AssignUserRequest) (*model.Center, error)
	RemoveSuperCoordinator(ctx context.Context, centerID string) (*model.Center, error)
	SetActive(ctx context.Context, actor service.Actor, centerID string, active bool) (*model.Center, error)
}

// CatalogService is implemented by *service.CatalogService
type CatalogService interface {
	Create(ctx context.Context, req *model.CreateGameRequest) (*model.Game, error)
	GetDetail(ctx context.Context, gameID string) (*model.GameDetail, error)
	List(ctx context.Context, filter model.GameFilter) (*model.Page[*model.Game], error)
	ListByCenter(ctx context.Context, centerID string) ([]*model.CenterGame, error)
	Update(ctx context.Context, gameID string, req *model.UpdateGameRequest) (*model.Game, error)
	Delete(ctx context.Context, gameID string) error
}

// InventoryService is implemented by *service.InventoryService
type InventoryService interface {
	List(ctx context.Context, centerID string, status model.InstanceStatus, page model.PageParams) (*model.Page[*model.GameInstance], error)
	Create(ctx context.Context, centerID string, req *model.CreateInstanceRequest) (*model.GameInstance, error)
	Get(ctx context.Context, centerID, instanceID string) (*model.GameInstance, error)
	Update(ctx context.Context, centerID, instanceID string, req *model.UpdateInstanceRequest) (*model.GameInstance, error)
	Delete(ctx context.Context, centerID, instanceID string) error
}

// RentalService is implemented by *service.RentalService
type RentalService interface {
	Request(ctx context.Context, userID string, req *model.CreateRentalRequest) (*model.Rental, error)
	GetForUser(ctx context.Context, userID, rentalID string) (*model.Rental, error)
	ListForUser(ctx context.Context, userID string, status model.RentalStatus, page model.PageParams) (*model.Page[*model.Rental], error)
	CancelByUser(ctx context.Context, userID, rentalID string) (*model.Rental, error)
	List(ctx context.Context, filter model.RentalFilter) (*model.Page[*model.Rental], error)
	ListForCenter(ctx context.Context, centerID string, status model.RentalStatus, page model.PageParams) (*model.Page[*model.Rental], error)
	ListOverdue(ctx context.Context, centerID string) ([]*model.Rental, error)
	Approve(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.ApproveRentalRequest) (*model.Rental, error)
	Reject(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.RejectRentalRequest) (*model.Rental, error)
	Return(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.ReturnRentalRequest) (*model.Rental, error)
}

// StatsService is implemented by *service.StatsService
type StatsService interface {
	System(ctx context.Context) (*model.SystemStats, error)
	Centers(ctx context.Context, actor service.Actor) ([]*model.CenterStats, error)
}

// actorFrom builds the service actor from the authenticated request
func actorFrom(r *http.Request) service.Actor {
	return service.Actor{
		UserID: middleware.GetUserID(r.Context()),
		Role:   middleware.GetUserRole(r.Context()),
	}
}

// requireUser returns the caller's user ID, writing 401 when missing
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, model.NewUnauthorizedError("authentication required"))
		return "", false
	}
	return userID, true
}

// wrap applies mw to a handler func; a nil mw leaves it unwrapped
func wrap(mw middleware.Middleware, fn http.HandlerFunc) http.Handler {
	if mw == nil {
		return fn
	}
	return mw(fn)
}
