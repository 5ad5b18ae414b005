package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// AdminUsersService handles admin user management operations
type AdminUsersService struct {
	userRepo   UserRepository
	centerRepo CenterRepository
}

// NewAdminUsersService creates a new admin users service
func NewAdminUsersService(userRepo UserRepository, centerRepo CenterRepository) *AdminUsersService {
	return &AdminUsersService{
		userRepo:   userRepo,
		centerRepo: centerRepo,
	}
}

// ListUsers returns one page of users matching the filter
func (s *AdminUsersService) ListUsers(ctx context.Context, filter model.UserFilter) (*model.Page[*model.User], error) {
	if filter.Role != "" && !filter.Role.IsValid() {
		return nil, model.NewValidationError([]model.FieldError{{Field: "role", Message: "unknown role"}})
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Page = filter.Page.Normalize()

	users, total, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.Page[*model.User]{Items: users, Total: total}, nil
}

// GetUser returns a single user
func (s *AdminUsersService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateUser creates an account with an explicit role
func (s *AdminUsersService) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	email := normalizeEmail(req.Email)
	if !model.IsEmail(email) {
		return nil, ErrInvalidEmail
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.UserRoleUser
	}

	user := &model.User{
		Email:     email,
		Hash:      &hash,
		Firstname: trimmedPtr(req.Firstname),
		Lastname:  trimmedPtr(req.Lastname),
		Phone:     trimmedPtr(req.Phone),
		Role:      role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	slog.Info("admin created user",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)))
	return user, nil
}

// SetRole changes a user's role. Demoting a coordinator detaches and
// deactivates their center.
func (s *AdminUsersService) SetRole(ctx context.Context, actor Actor, userID string, req *model.UpdateUserRoleRequest) (*model.User, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if actor.UserID == userID {
		return nil, ErrCannotModifySelf
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == req.Role {
		return user, nil
	}

	if err := s.userRepo.SetRole(ctx, userID, req.Role); err != nil {
		return nil, mapConflict(err)
	}

	slog.Info("user role changed",
		slog.String("user_id", userID),
		slog.String("from", string(user.Role)),
		slog.String("to", string(req.Role)),
		slog.String("by", actor.UserID))
	return s.GetUser(ctx, userID)
}

// SetStatus activates or deactivates an account. Deactivation revokes the
// user's refresh tokens.
func (s *AdminUsersService) SetStatus(ctx context.Context, actor Actor, userID string, req *model.UpdateUserStatusRequest) (*model.User, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if actor.UserID == userID {
		return nil, ErrCannotModifySelf
	}

	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.userRepo.SetActive(ctx, userID, *req.IsActive); err != nil {
		return nil, err
	}

	slog.Info("user status changed",
		slog.String("user_id", userID),
		slog.Bool("is_active", *req.IsActive),
		slog.String("by", actor.UserID))
	return s.GetUser(ctx, userID)
}

// DeleteUser removes an account. Users with pending or active rentals cannot
// be deleted.
func (s *AdminUsersService) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if actor.UserID == userID {
		return ErrCannotModifySelf
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return mapConflict(err)
	}

	slog.Info("user deleted", slog.String("user_id", userID), slog.String("by", actor.UserID))
	return nil
}

// ListCoordinators returns every coordinator with the center they run
func (s *AdminUsersService) ListCoordinators(ctx context.Context) ([]*model.CoordinatorSummary, error) {
	users, err := s.userRepo.ListByRole(ctx, model.UserRoleCoordinator)
	if err != nil {
		return nil, err
	}

	out := make([]*model.CoordinatorSummary, 0, len(users))
	for _, u := range users {
		center, err := s.centerRepo.GetByCoordinator(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &model.CoordinatorSummary{User: u, Center: center})
	}
	return out, nil
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return stringPtr(strings.TrimSpace(*s))
}
