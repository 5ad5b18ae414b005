package service

import (
	"context"
	"time"

	"github.com/forgo/ludoteca/api/internal/model"
)

// StatsService builds dashboard summaries
type StatsService struct {
	userRepo     UserRepository
	centerRepo   CenterRepository
	gameRepo     GameRepository
	instanceRepo InstanceRepository
	rentalRepo   RentalRepository
	now          func() time.Time
}

// NewStatsService creates a new stats service
func NewStatsService(
	userRepo UserRepository,
	centerRepo CenterRepository,
	gameRepo GameRepository,
	instanceRepo InstanceRepository,
	rentalRepo RentalRepository,
) *StatsService {
	return &StatsService{
		userRepo:     userRepo,
		centerRepo:   centerRepo,
		gameRepo:     gameRepo,
		instanceRepo: instanceRepo,
		rentalRepo:   rentalRepo,
		now:          time.Now,
	}
}

// System returns counts across the whole system
func (s *StatsService) System(ctx context.Context) (*model.SystemStats, error) {
	users, err := s.userRepo.CountByRole(ctx)
	if err != nil {
		return nil, err
	}
	centers, active, err := s.centerRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	games, err := s.gameRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	instances, _, err := s.instanceRepo.Count(ctx, "")
	if err != nil {
		return nil, err
	}
	byStatus, err := s.rentalRepo.CountByStatus(ctx, "")
	if err != nil {
		return nil, err
	}
	overdue, err := s.rentalRepo.ListOverdue(ctx, "", s.now())
	if err != nil {
		return nil, err
	}

	rentals := map[string]int{
		string(model.RentalStatusPending):   0,
		string(model.RentalStatusActive):    0,
		string(model.RentalStatusReturned):  0,
		string(model.RentalStatusCancelled): 0,
	}
	for status, n := range byStatus {
		rentals[string(status)] = n
	}

	return &model.SystemStats{
		Users:          users,
		Centers:        centers,
		ActiveCenters:  active,
		Games:          games,
		Instances:      instances,
		Rentals:        rentals,
		OverdueRentals: len(overdue),
	}, nil
}

// Centers returns per-center counts for the centers the actor oversees;
// admins get every center.
func (s *StatsService) Centers(ctx context.Context, actor Actor) ([]*model.CenterStats, error) {
	superID := actor.UserID
	if actor.IsAdmin() {
		superID = ""
	}

	stats, err := s.centerRepo.Stats(ctx, superID, s.now())
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []*model.CenterStats{}
	}
	return stats, nil
}
