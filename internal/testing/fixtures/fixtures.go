package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/internal/repository"
)

// DefaultPassword is the plaintext password of every fixture user
const DefaultPassword = "testpass123"

// Factory creates test entities through the real repositories
type Factory struct {
	Users     *repository.UserRepository
	Centers   *repository.CenterRepository
	Games     *repository.GameRepository
	Instances *repository.InstanceRepository
	Rentals   *repository.RentalRepository
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		Users:     repository.NewUserRepository(db),
		Centers:   repository.NewCenterRepository(db),
		Games:     repository.NewGameRepository(db),
		Instances: repository.NewInstanceRepository(db),
		Rentals:   repository.NewRentalRepository(db),
	}
}

// randomID generates a random hex suffix for unique names
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

// ============================================================================
// Users
// ============================================================================

// CreateUser creates an active user with the given role and DefaultPassword
func (f *Factory) CreateUser(t *testing.T, role model.UserRole) *model.User {
	t.Helper()

	// MinCost: fixture users only
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("fixtures: hashing password: %v", err)
	}
	h := string(hash)

	user := &model.User{
		Email: fmt.Sprintf("%s_%s@test.local", role, randomID()),
		Hash:  &h,
		Role:  role,
	}
	if err := f.Users.Create(ctx(t), user); err != nil {
		t.Fatalf("fixtures: creating user: %v", err)
	}
	return user
}

// ============================================================================
// Centers
// ============================================================================

// CreateCenter creates an inactive center without coordinators
func (f *Factory) CreateCenter(t *testing.T) *model.Center {
	t.Helper()

	city := "Valencia"
	center := &model.Center{Name: "Center " + randomID(), City: &city}
	if err := f.Centers.Create(ctx(t), center); err != nil {
		t.Fatalf("fixtures: creating center: %v", err)
	}
	return center
}

// CreateActiveCenter creates a center run by a new coordinator and activates
// it. It returns the center and its coordinator.
func (f *Factory) CreateActiveCenter(t *testing.T) (*model.Center, *model.User) {
	t.Helper()

	center := f.CreateCenter(t)
	coordinator := f.CreateUser(t, model.UserRoleCoordinator)

	c := ctx(t)
	if err := f.Centers.AssignCoordinator(c, center.ID, coordinator.ID); err != nil {
		t.Fatalf("fixtures: assigning coordinator: %v", err)
	}
	if err := f.Centers.SetActive(c, center.ID, true); err != nil {
		t.Fatalf("fixtures: activating center: %v", err)
	}

	reloaded, err := f.Centers.GetByID(c, center.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("fixtures: reloading center: %v", err)
	}
	return reloaded, coordinator
}

// ============================================================================
// Catalog and inventory
// ============================================================================

// CreateGame creates a catalog entry with a unique name
func (f *Factory) CreateGame(t *testing.T) *model.Game {
	t.Helper()

	minPlayers, maxPlayers := 2, 4
	game := &model.Game{
		Name:       "Game " + randomID(),
		MinPlayers: &minPlayers,
		MaxPlayers: &maxPlayers,
	}
	if err := f.Games.Create(ctx(t), game); err != nil {
		t.Fatalf("fixtures: creating game: %v", err)
	}
	return game
}

// CreateInstance adds an available copy of game to center
func (f *Factory) CreateInstance(t *testing.T, center *model.Center, game *model.Game) *model.GameInstance {
	t.Helper()

	inst := &model.GameInstance{
		GameID:    game.ID,
		CenterID:  center.ID,
		Status:    model.InstanceStatusAvailable,
		Condition: model.ConditionGood,
	}
	if err := f.Instances.Create(ctx(t), inst); err != nil {
		t.Fatalf("fixtures: creating instance: %v", err)
	}
	return inst
}
