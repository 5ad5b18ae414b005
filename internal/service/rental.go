package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/forgo/ludoteca/api/internal/model"
)

// RentalRepository defines the interface for rental storage
type RentalRepository interface {
	Create(ctx context.Context, rental *model.Rental, maxOpen int) error
	GetByID(ctx context.Context, id string) (*model.Rental, error)
	List(ctx context.Context, filter model.RentalFilter) ([]*model.Rental, int, error)
	ListOverdue(ctx context.Context, centerID string, now time.Time) ([]*model.Rental, error)
	CountOpenByUser(ctx context.Context, userID string) (int, error)
	HasOpenForInstance(ctx context.Context, userID, instanceID string) (bool, error)
	Approve(ctx context.Context, rental *model.Rental, approverID string, due time.Time) error
	Cancel(ctx context.Context, rentalID, reason string) error
	Return(ctx context.Context, rental *model.Rental, condition *model.InstanceCondition, notes *string) error
	ExpirePending(ctx context.Context, cutoff time.Time) (int, error)
	CountByStatus(ctx context.Context, centerID string) (map[model.RentalStatus]int, error)
}

// Rental lifecycle events reported to the RentalRecorder
const (
	RentalEventRequested = "requested"
	RentalEventApproved  = "approved"
	RentalEventRejected  = "rejected"
	RentalEventCancelled = "cancelled"
	RentalEventReturned  = "returned"
	RentalEventExpired   = "expired"
)

// RentalRecorder receives rental lifecycle events, e.g. for metrics
type RentalRecorder interface {
	RentalEvent(event string, count int)
}

// RentalService implements the rental lifecycle:
// pending -> active -> returned, and pending -> cancelled.
type RentalService struct {
	rentalRepo   RentalRepository
	instanceRepo InstanceRepository
	centerRepo   CenterRepository
	recorder     RentalRecorder
	loanPeriod   time.Duration
	maxOpen      int
	pendingTTL   time.Duration
	now          func() time.Time
}

// RentalServiceConfig holds configuration for the rental service
type RentalServiceConfig struct {
	RentalRepo   RentalRepository
	InstanceRepo InstanceRepository
	CenterRepo   CenterRepository
	Recorder     RentalRecorder // Optional
	LoanPeriod   time.Duration  // Default: 14 days
	MaxOpen      int            // Default: 3
	PendingTTL   time.Duration  // Default: 72 hours
	Now          func() time.Time
}

// NewRentalService creates a new rental service
func NewRentalService(cfg RentalServiceConfig) *RentalService {
	if cfg.LoanPeriod == 0 {
		cfg.LoanPeriod = 14 * 24 * time.Hour
	}
	if cfg.MaxOpen == 0 {
		cfg.MaxOpen = 3
	}
	if cfg.PendingTTL == 0 {
		cfg.PendingTTL = 72 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &RentalService{
		rentalRepo:   cfg.RentalRepo,
		instanceRepo: cfg.InstanceRepo,
		centerRepo:   cfg.CenterRepo,
		recorder:     cfg.Recorder,
		loanPeriod:   cfg.LoanPeriod,
		maxOpen:      cfg.MaxOpen,
		pendingTTL:   cfg.PendingTTL,
		now:          cfg.Now,
	}
}

// Request creates a pending rental of a game instance for the user
func (s *RentalService) Request(ctx context.Context, userID string, req *model.CreateRentalRequest) (*model.Rental, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	inst, err := s.instanceRepo.GetByID(ctx, req.GameInstanceID)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrInstanceNotFound
	}

	center, err := s.centerRepo.GetByID(ctx, inst.CenterID)
	if err != nil {
		return nil, err
	}
	if center == nil || !center.IsActive {
		return nil, ErrCenterInactive
	}
	if inst.Status != model.InstanceStatusAvailable {
		return nil, ErrInstanceNotAvailable
	}

	dup, err := s.rentalRepo.HasOpenForInstance(ctx, userID, inst.ID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, ErrDuplicateRentalRequest
	}

	open, err := s.rentalRepo.CountOpenByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open >= s.maxOpen {
		return nil, &LimitError{Err: ErrRentalLimitReached, Limit: s.maxOpen, Current: open}
	}

	rental := &model.Rental{
		UserID:         userID,
		GameInstanceID: inst.ID,
		GameID:         inst.GameID,
		CenterID:       inst.CenterID,
		Notes:          trimmedPtr(req.Notes),
	}
	// The repository re-checks every precondition inside the transaction
	if err := s.rentalRepo.Create(ctx, rental, s.maxOpen); err != nil {
		err = mapConflict(err)
		if errors.Is(err, ErrRentalLimitReached) {
			return nil, s.limitReached(ctx, userID)
		}
		return nil, err
	}

	s.record(RentalEventRequested, 1)
	slog.Info("rental requested",
		slog.String("rental_id", rental.ID),
		slog.String("user_id", userID),
		slog.String("instance_id", inst.ID))
	return rental, nil
}

// GetForUser returns one of the user's rentals
func (s *RentalService) GetForUser(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	rental, err := s.get(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.UserID != userID {
		return nil, ErrNotRentalOwner
	}
	return rental, nil
}

// ListForUser returns one page of the user's rentals
func (s *RentalService) ListForUser(ctx context.Context, userID string, status model.RentalStatus, page model.PageParams) (*model.Page[*model.Rental], error) {
	return s.List(ctx, model.RentalFilter{UserID: userID, Status: status, Page: page})
}

// CancelByUser cancels one of the user's own pending rentals
func (s *RentalService) CancelByUser(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	rental, err := s.GetForUser(ctx, userID, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.Status.CanTransitionTo(model.RentalStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	if err := s.rentalRepo.Cancel(ctx, rentalID, model.CancelReasonByUser); err != nil {
		return nil, mapConflict(err)
	}

	s.record(RentalEventCancelled, 1)
	slog.Info("rental cancelled", slog.String("rental_id", rentalID), slog.String("user_id", userID))
	return s.get(ctx, rentalID)
}

// List returns one page of rentals matching the filter
func (s *RentalService) List(ctx context.Context, filter model.RentalFilter) (*model.Page[*model.Rental], error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, model.NewValidationError([]model.FieldError{{Field: "status", Message: "unknown rental status"}})
	}
	filter.Page = filter.Page.Normalize()

	rentals, total, err := s.rentalRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.Page[*model.Rental]{Items: rentals, Total: total}, nil
}

// ListForCenter returns one page of a center's rentals
func (s *RentalService) ListForCenter(ctx context.Context, centerID string, status model.RentalStatus, page model.PageParams) (*model.Page[*model.Rental], error) {
	return s.List(ctx, model.RentalFilter{CenterID: centerID, Status: status, Page: page})
}

// ListOverdue returns a center's active rentals past their due date
func (s *RentalService) ListOverdue(ctx context.Context, centerID string) ([]*model.Rental, error) {
	rentals, err := s.rentalRepo.ListOverdue(ctx, centerID, s.now())
	if err != nil {
		return nil, err
	}
	if rentals == nil {
		rentals = []*model.Rental{}
	}
	return rentals, nil
}

// Approve activates a pending rental of the center. The instance becomes
// rented and competing requests for it are cancelled.
func (s *RentalService) Approve(ctx context.Context, actor Actor, centerID, rentalID string, req *model.ApproveRentalRequest) (*model.Rental, error) {
	now := s.now()
	if errs := req.Validate(now); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	rental, err := s.getForCenter(ctx, centerID, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.Status.CanTransitionTo(model.RentalStatusActive) {
		return nil, ErrInvalidTransition
	}

	due := now.Add(s.loanPeriod)
	if req.DueDate != nil {
		due = *req.DueDate
	}

	if err := s.rentalRepo.Approve(ctx, rental, actor.UserID, due); err != nil {
		return nil, mapConflict(err)
	}

	s.record(RentalEventApproved, 1)
	slog.Info("rental approved",
		slog.String("rental_id", rentalID),
		slog.String("center_id", centerID),
		slog.String("by", actor.UserID),
		slog.Time("due_date", due))
	return s.get(ctx, rentalID)
}

// Reject cancels a pending rental of the center with a reason
func (s *RentalService) Reject(ctx context.Context, actor Actor, centerID, rentalID string, req *model.RejectRentalRequest) (*model.Rental, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	rental, err := s.getForCenter(ctx, centerID, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.Status.CanTransitionTo(model.RentalStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	if err := s.rentalRepo.Cancel(ctx, rentalID, strings.TrimSpace(req.Reason)); err != nil {
		return nil, mapConflict(err)
	}

	s.record(RentalEventRejected, 1)
	slog.Info("rental rejected",
		slog.String("rental_id", rentalID),
		slog.String("center_id", centerID),
		slog.String("by", actor.UserID))
	return s.get(ctx, rentalID)
}

// Return closes an active rental of the center and releases its instance
func (s *RentalService) Return(ctx context.Context, actor Actor, centerID, rentalID string, req *model.ReturnRentalRequest) (*model.Rental, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	rental, err := s.getForCenter(ctx, centerID, rentalID)
	if err != nil {
		return nil, err
	}
	if !rental.Status.CanTransitionTo(model.RentalStatusReturned) {
		return nil, ErrInvalidTransition
	}

	if err := s.rentalRepo.Return(ctx, rental, req.Condition, trimmedPtr(req.Notes)); err != nil {
		return nil, mapConflict(err)
	}

	s.record(RentalEventReturned, 1)
	slog.Info("rental returned",
		slog.String("rental_id", rentalID),
		slog.String("center_id", centerID),
		slog.String("by", actor.UserID))
	return s.get(ctx, rentalID)
}

// ExpirePending cancels pending rentals older than the pending TTL
func (s *RentalService) ExpirePending(ctx context.Context) (int, error) {
	n, err := s.rentalRepo.ExpirePending(ctx, s.now().Add(-s.pendingTTL))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.record(RentalEventExpired, n)
	}
	return n, nil
}

func (s *RentalService) get(ctx context.Context, rentalID string) (*model.Rental, error) {
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental == nil {
		return nil, ErrRentalNotFound
	}
	return rental, nil
}

func (s *RentalService) getForCenter(ctx context.Context, centerID, rentalID string) (*model.Rental, error) {
	rental, err := s.get(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.CenterID != centerID {
		return nil, ErrRentalOtherCenter
	}
	return rental, nil
}

// limitReached builds the limit error for a request the transaction refused.
// The transaction counted at least maxOpen open rentals.
func (s *RentalService) limitReached(ctx context.Context, userID string) error {
	current := s.maxOpen
	if open, err := s.rentalRepo.CountOpenByUser(ctx, userID); err == nil && open > current {
		current = open
	}
	return &LimitError{Err: ErrRentalLimitReached, Limit: s.maxOpen, Current: current}
}

func (s *RentalService) record(event string, count int) {
	if s.recorder != nil {
		s.recorder.RentalEvent(event, count)
	}
}
