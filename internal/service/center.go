package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// CenterRepository defines the interface for center storage
type CenterRepository interface {
	Create(ctx context.Context, center *model.Center) error
	GetByID(ctx context.Context, id string) (*model.Center, error)
	GetByCoordinator(ctx context.Context, userID string) (*model.Center, error)
	List(ctx context.Context, filter model.CenterFilter) ([]*model.Center, int, error)
	Update(ctx context.Context, center *model.Center) error
	AssignCoordinator(ctx context.Context, centerID, userID string) error
	RemoveCoordinator(ctx context.Context, centerID string) error
	AssignSuperCoordinator(ctx context.Context, centerID, userID string) error
	RemoveSuperCoordinator(ctx context.Context, centerID string) error
	SetActive(ctx context.Context, centerID string, active bool) error
	Delete(ctx context.Context, centerID string) error
	Count(ctx context.Context) (total, active int, err error)
	Stats(ctx context.Context, superCoordinatorID string, now time.Time) ([]*model.CenterStats, error)
}

// CenterService manages centers and their coordinator assignments.
//
// Admins can act on every center. Super coordinators can only act on the
// centers they oversee; any other center is ErrNotCenterOverseer.
type CenterService struct {
	centerRepo CenterRepository
	userRepo   UserRepository
}

// NewCenterService creates a new center service
func NewCenterService(centerRepo CenterRepository, userRepo UserRepository) *CenterService {
	return &CenterService{
		centerRepo: centerRepo,
		userRepo:   userRepo,
	}
}

// Create creates an inactive center and assigns the optional coordinators
func (s *CenterService) Create(ctx context.Context, req *model.CreateCenterRequest) (*model.Center, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	center := &model.Center{
		Name:               strings.TrimSpace(req.Name),
		Address:            trimmedPtr(req.Address),
		City:               trimmedPtr(req.City),
		Phone:              trimmedPtr(req.Phone),
		Email:              trimmedPtr(req.Email),
		Description:        trimmedPtr(req.Description),
		CoordinatorID:      req.CoordinatorID,
		SuperCoordinatorID: req.SuperCoordinatorID,
	}

	// The repository re-checks the roles inside the create transaction
	if req.CoordinatorID != nil {
		if err := s.checkCoordinator(ctx, *req.CoordinatorID, ""); err != nil {
			return nil, err
		}
	}
	if req.SuperCoordinatorID != nil {
		if err := s.checkRole(ctx, *req.SuperCoordinatorID, model.UserRoleSuperCoordinator); err != nil {
			return nil, err
		}
	}

	if err := s.centerRepo.Create(ctx, center); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrCenterNameExists
		}
		return nil, mapConflict(err)
	}

	slog.Info("center created", slog.String("center_id", center.ID), slog.String("name", center.Name))
	return s.Get(ctx, center.ID)
}

// Get returns a center regardless of its state
func (s *CenterService) Get(ctx context.Context, centerID string) (*model.Center, error) {
	center, err := s.centerRepo.GetByID(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if center == nil {
		return nil, ErrCenterNotFound
	}
	return center, nil
}

// GetActive returns a center only when it is active
func (s *CenterService) GetActive(ctx context.Context, centerID string) (*model.Center, error) {
	center, err := s.Get(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if !center.IsActive {
		return nil, ErrCenterNotFound
	}
	return center, nil
}

// GetForActor returns a center the actor is allowed to manage
func (s *CenterService) GetForActor(ctx context.Context, actor Actor, centerID string) (*model.Center, error) {
	center, err := s.Get(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !center.IsOverseenBy(actor.UserID) {
		return nil, ErrNotCenterOverseer
	}
	return center, nil
}

// GetForCoordinator returns the center the coordinator is assigned to
func (s *CenterService) GetForCoordinator(ctx context.Context, userID string) (*model.Center, error) {
	center, err := s.centerRepo.GetByCoordinator(ctx, userID)
	if err != nil {
		return nil, err
	}
	if center == nil {
		return nil, ErrNoAssignedCenter
	}
	return center, nil
}

// List returns one page of centers
func (s *CenterService) List(ctx context.Context, filter model.CenterFilter) (*model.Page[*model.Center], error) {
	filter.Page = filter.Page.Normalize()
	centers, total, err := s.centerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.Page[*model.Center]{Items: centers, Total: total}, nil
}

// ListForActor returns the centers the actor oversees; admins see every center
func (s *CenterService) ListForActor(ctx context.Context, actor Actor, filter model.CenterFilter) (*model.Page[*model.Center], error) {
	if !actor.IsAdmin() {
		filter.SuperCoordinatorID = actor.UserID
	}
	return s.List(ctx, filter)
}

// Update changes a center's descriptive fields
func (s *CenterService) Update(ctx context.Context, centerID string, req *model.UpdateCenterRequest) (*model.Center, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if req.IsEmpty() {
		return nil, model.NewValidationError([]model.FieldError{{Field: "body", Message: "at least one field must be provided"}})
	}

	center, err := s.Get(ctx, centerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		center.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		center.Address = trimmedPtr(req.Address)
	}
	if req.City != nil {
		center.City = trimmedPtr(req.City)
	}
	if req.Phone != nil {
		center.Phone = trimmedPtr(req.Phone)
	}
	if req.Email != nil {
		center.Email = trimmedPtr(req.Email)
	}
	if req.Description != nil {
		center.Description = trimmedPtr(req.Description)
	}

	if err := s.centerRepo.Update(ctx, center); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrCenterNameExists
		}
		return nil, err
	}
	return s.Get(ctx, centerID)
}

// Delete removes a center and its inventory
func (s *CenterService) Delete(ctx context.Context, centerID string) error {
	if _, err := s.Get(ctx, centerID); err != nil {
		return err
	}
	if err := s.centerRepo.Delete(ctx, centerID); err != nil {
		return mapConflict(err)
	}
	slog.Info("center deleted", slog.String("center_id", centerID))
	return nil
}

// AssignCoordinator assigns a coordinator to a center the actor manages.
// The center's active flag is left unchanged.
func (s *CenterService) AssignCoordinator(ctx context.Context, actor Actor, centerID string, req *model.AssignUserRequest) (*model.Center, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if _, err := s.GetForActor(ctx, actor, centerID); err != nil {
		return nil, err
	}
	if err := s.checkCoordinator(ctx, req.UserID, centerID); err != nil {
		return nil, err
	}

	if err := s.centerRepo.AssignCoordinator(ctx, centerID, req.UserID); err != nil {
		return nil, mapConflict(err)
	}

	slog.Info("coordinator assigned",
		slog.String("center_id", centerID),
		slog.String("user_id", req.UserID),
		slog.String("by", actor.UserID))
	return s.Get(ctx, centerID)
}

// RemoveCoordinator detaches the coordinator and deactivates the center
func (s *CenterService) RemoveCoordinator(ctx context.Context, actor Actor, centerID string) (*model.Center, error) {
	if _, err := s.GetForActor(ctx, actor, centerID); err != nil {
		return nil, err
	}
	if err := s.centerRepo.RemoveCoordinator(ctx, centerID); err != nil {
		return nil, err
	}

	slog.Info("coordinator removed", slog.String("center_id", centerID), slog.String("by", actor.UserID))
	return s.Get(ctx, centerID)
}

// AssignSuperCoordinator sets the super coordinator overseeing a center
func (s *CenterService) AssignSuperCoordinator(ctx context.Context, centerID string, req *model.AssignUserRequest) (*model.Center, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}
	if _, err := s.Get(ctx, centerID); err != nil {
		return nil, err
	}
	if err := s.checkRole(ctx, req.UserID, model.UserRoleSuperCoordinator); err != nil {
		return nil, err
	}

	if err := s.centerRepo.AssignSuperCoordinator(ctx, centerID, req.UserID); err != nil {
		return nil, mapConflict(err)
	}
	return s.Get(ctx, centerID)
}

// RemoveSuperCoordinator clears a center's super coordinator
func (s *CenterService) RemoveSuperCoordinator(ctx context.Context, centerID string) (*model.Center, error) {
	if _, err := s.Get(ctx, centerID); err != nil {
		return nil, err
	}
	if err := s.centerRepo.RemoveSuperCoordinator(ctx, centerID); err != nil {
		return nil, err
	}
	return s.Get(ctx, centerID)
}

// SetActive activates or deactivates a center the actor manages. A center
// without a coordinator cannot be activated.
func (s *CenterService) SetActive(ctx context.Context, actor Actor, centerID string, active bool) (*model.Center, error) {
	center, err := s.GetForActor(ctx, actor, centerID)
	if err != nil {
		return nil, err
	}
	if active && !center.HasCoordinator() {
		return nil, ErrCenterHasNoCoordinator
	}
	if center.IsActive == active {
		return center, nil
	}

	if err := s.centerRepo.SetActive(ctx, centerID, active); err != nil {
		return nil, mapConflict(err)
	}

	slog.Info("center status changed",
		slog.String("center_id", centerID),
		slog.Bool("is_active", active),
		slog.String("by", actor.UserID))
	return s.Get(ctx, centerID)
}

// checkCoordinator verifies userID can run centerID: the user must exist,
// have the coordinator role and not run another center.
func (s *CenterService) checkCoordinator(ctx context.Context, userID, centerID string) error {
	if err := s.checkRole(ctx, userID, model.UserRoleCoordinator); err != nil {
		return err
	}
	current, err := s.centerRepo.GetByCoordinator(ctx, userID)
	if err != nil {
		return err
	}
	if current != nil && current.ID != centerID {
		return ErrCoordinatorAssigned
	}
	return nil
}

func (s *CenterService) checkRole(ctx context.Context, userID string, role model.UserRole) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Role != role {
		if role == model.UserRoleCoordinator {
			return ErrNotCoordinatorRole
		}
		return ErrNotSuperCoordinatorRole
	}
	return nil
}
