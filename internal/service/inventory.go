package service

import (
	"context"
	"log/slog"

	"github.com/forgo/ludoteca/api/internal/model"
)

// InstanceRepository defines the interface for game instance storage
type InstanceRepository interface {
	Create(ctx context.Context, inst *model.GameInstance) error
	GetByID(ctx context.Context, id string) (*model.GameInstance, error)
	List(ctx context.Context, filter model.InstanceFilter) ([]*model.GameInstance, int, error)
	Update(ctx context.Context, inst *model.GameInstance) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, centerID string) (total, available int, err error)
}

// InventoryService manages the physical copies held by a center
type InventoryService struct {
	instanceRepo InstanceRepository
	gameRepo     GameRepository
}

// NewInventoryService creates a new inventory service
func NewInventoryService(instanceRepo InstanceRepository, gameRepo GameRepository) *InventoryService {
	return &InventoryService{
		instanceRepo: instanceRepo,
		gameRepo:     gameRepo,
	}
}

// List returns one page of a center's instances
func (s *InventoryService) List(ctx context.Context, centerID string, status model.InstanceStatus, page model.PageParams) (*model.Page[*model.GameInstance], error) {
	if status != "" && !status.IsValid() {
		return nil, model.NewValidationError([]model.FieldError{{Field: "status", Message: "unknown instance status"}})
	}

	items, total, err := s.instanceRepo.List(ctx, model.InstanceFilter{
		CenterID: centerID,
		Status:   status,
		Page:     page.Normalize(),
	})
	if err != nil {
		return nil, err
	}
	return &model.Page[*model.GameInstance]{Items: items, Total: total}, nil
}

// Create adds a copy of a catalog game to the center
func (s *InventoryService) Create(ctx context.Context, centerID string, req *model.CreateInstanceRequest) (*model.GameInstance, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	game, err := s.gameRepo.GetByID(ctx, req.GameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}

	inst := &model.GameInstance{
		GameID:    game.ID,
		CenterID:  centerID,
		Status:    model.InstanceStatusAvailable,
		Condition: req.Condition,
		Notes:     trimmedPtr(req.Notes),
		Game:      game,
	}
	if err := s.instanceRepo.Create(ctx, inst); err != nil {
		return nil, err
	}

	slog.Info("instance created",
		slog.String("instance_id", inst.ID),
		slog.String("game_id", game.ID),
		slog.String("center_id", centerID))
	return inst, nil
}

// Get returns an instance held by the center
func (s *InventoryService) Get(ctx context.Context, centerID, instanceID string) (*model.GameInstance, error) {
	inst, err := s.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrInstanceNotFound
	}
	if inst.CenterID != centerID {
		return nil, ErrInstanceOtherCenter
	}
	return inst, nil
}

// Update changes an instance's status, condition or notes. A rented copy
// cannot be edited until its rental is returned.
func (s *InventoryService) Update(ctx context.Context, centerID, instanceID string, req *model.UpdateInstanceRequest) (*model.GameInstance, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	inst, err := s.Get(ctx, centerID, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status == model.InstanceStatusRented {
		return nil, ErrInstanceRented
	}

	if req.Status != nil {
		inst.Status = *req.Status
	}
	if req.Condition != nil {
		inst.Condition = *req.Condition
	}
	if req.Notes != nil {
		inst.Notes = trimmedPtr(req.Notes)
	}

	if err := s.instanceRepo.Update(ctx, inst); err != nil {
		return nil, mapConflict(err)
	}
	return s.Get(ctx, centerID, instanceID)
}

// Delete removes an instance that is neither rented nor requested
func (s *InventoryService) Delete(ctx context.Context, centerID, instanceID string) error {
	inst, err := s.Get(ctx, centerID, instanceID)
	if err != nil {
		return err
	}
	if inst.Status == model.InstanceStatusRented {
		return ErrInstanceRented
	}

	if err := s.instanceRepo.Delete(ctx, instanceID); err != nil {
		return mapConflict(err)
	}

	slog.Info("instance deleted", slog.String("instance_id", instanceID), slog.String("center_id", centerID))
	return nil
}
