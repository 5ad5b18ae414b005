package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// GameRepository defines the interface for catalog storage
type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	GetByID(ctx context.Context, id string) (*model.Game, error)
	List(ctx context.Context, filter model.GameFilter) ([]*model.Game, int, error)
	Update(ctx context.Context, game *model.Game) error
	Delete(ctx context.Context, id string) error
	ListByCenter(ctx context.Context, centerID string) ([]*model.CenterGame, error)
	Availability(ctx context.Context, gameID string) ([]*model.GameAvailability, error)
	Count(ctx context.Context) (int, error)
}

// CatalogService manages the game catalog shared by all centers
type CatalogService struct {
	gameRepo   GameRepository
	centerRepo CenterRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(gameRepo GameRepository, centerRepo CenterRepository) *CatalogService {
	return &CatalogService{
		gameRepo:   gameRepo,
		centerRepo: centerRepo,
	}
}

// Create adds a catalog entry
func (s *CatalogService) Create(ctx context.Context, req *model.CreateGameRequest) (*model.Game, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	game := &model.Game{
		Name:         strings.TrimSpace(req.Name),
		Description:  trimmedPtr(req.Description),
		Category:     trimmedPtr(req.Category),
		MinPlayers:   req.MinPlayers,
		MaxPlayers:   req.MaxPlayers,
		MinAge:       req.MinAge,
		DurationMins: req.DurationMins,
		ImageURL:     trimmedPtr(req.ImageURL),
	}

	if err := s.gameRepo.Create(ctx, game); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrGameNameExists
		}
		return nil, err
	}

	slog.Info("game created", slog.String("game_id", game.ID), slog.String("name", game.Name))
	return game, nil
}

// Get returns a catalog entry
func (s *CatalogService) Get(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// GetDetail returns a catalog entry with its stock at every active center
func (s *CatalogService) GetDetail(ctx context.Context, gameID string) (*model.GameDetail, error) {
	game, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}

	availability, err := s.gameRepo.Availability(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if availability == nil {
		availability = []*model.GameAvailability{}
	}
	return &model.GameDetail{Game: game, Availability: availability}, nil
}

// List returns one page of catalog entries
func (s *CatalogService) List(ctx context.Context, filter model.GameFilter) (*model.Page[*model.Game], error) {
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Page = filter.Page.Normalize()

	games, total, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.Page[*model.Game]{Items: games, Total: total}, nil
}

// ListByCenter returns the games stocked by an active center
func (s *CatalogService) ListByCenter(ctx context.Context, centerID string) ([]*model.CenterGame, error) {
	center, err := s.centerRepo.GetByID(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if center == nil || !center.IsActive {
		return nil, ErrCenterNotFound
	}

	games, err := s.gameRepo.ListByCenter(ctx, centerID)
	if err != nil {
		return nil, err
	}
	if games == nil {
		games = []*model.CenterGame{}
	}
	return games, nil
}

// Update changes a catalog entry
func (s *CatalogService) Update(ctx context.Context, gameID string, req *model.UpdateGameRequest) (*model.Game, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return nil, model.NewValidationError(errs)
	}

	game, err := s.Get(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		game.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		game.Description = trimmedPtr(req.Description)
	}
	if req.Category != nil {
		game.Category = trimmedPtr(req.Category)
	}
	if req.MinPlayers != nil {
		game.MinPlayers = req.MinPlayers
	}
	if req.MaxPlayers != nil {
		game.MaxPlayers = req.MaxPlayers
	}
	if req.MinAge != nil {
		game.MinAge = req.MinAge
	}
	if req.DurationMins != nil {
		game.DurationMins = req.DurationMins
	}
	if req.ImageURL != nil {
		game.ImageURL = trimmedPtr(req.ImageURL)
	}

	// The merged record must still have a sane player range
	if game.MinPlayers != nil && game.MaxPlayers != nil && *game.MinPlayers > *game.MaxPlayers {
		return nil, model.NewValidationError([]model.FieldError{{
			Field:   "max_players",
			Message: "max_players must be greater than or equal to min_players",
		}})
	}

	if err := s.gameRepo.Update(ctx, game); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrGameNameExists
		}
		return nil, err
	}
	return s.Get(ctx, gameID)
}

// Delete removes a catalog entry that no center holds a copy of
func (s *CatalogService) Delete(ctx context.Context, gameID string) error {
	if _, err := s.Get(ctx, gameID); err != nil {
		return err
	}
	if err := s.gameRepo.Delete(ctx, gameID); err != nil {
		return mapConflict(err)
	}
	slog.Info("game deleted", slog.String("game_id", gameID))
	return nil
}
