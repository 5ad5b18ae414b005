package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"testing"
	"time"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/pkg/jwt"
)

// ============================================================================
// In-memory repositories
// ============================================================================

type mockUserRepo struct {
	users      map[string]*model.User
	emailIndex map[string]*model.User
	createErr  error
	getErr     error
	setRoleErr error
	deleteErr  error
	touched    []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:      make(map[string]*model.User),
		emailIndex: make(map[string]*model.User),
	}
}

func (m *mockUserRepo) add(u *model.User) *model.User {
	if u.Role == "" {
		u.Role = model.UserRoleUser
	}
	m.users[u.ID] = u
	m.emailIndex[u.Email] = u
	return u
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = "user:" + user.Email
	user.IsActive = true
	user.CreatedOn = time.Now()
	user.UpdatedOn = time.Now()
	m.add(user)
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.emailIndex[email], nil
}

func (m *mockUserRepo) List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error) {
	var out []*model.User
	for _, u := range m.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role model.UserRole) ([]*model.User, error) {
	out, _, err := m.List(ctx, model.UserFilter{Role: role})
	return out, err
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID, hash string) error {
	if u, ok := m.users[userID]; ok {
		u.Hash = &hash
	}
	return nil
}

func (m *mockUserRepo) TouchLogin(ctx context.Context, userID string) error {
	m.touched = append(m.touched, userID)
	return nil
}

func (m *mockUserRepo) SetActive(ctx context.Context, userID string, active bool) error {
	if u, ok := m.users[userID]; ok {
		u.IsActive = active
	}
	return nil
}

func (m *mockUserRepo) SetRole(ctx context.Context, userID string, role model.UserRole) error {
	if m.setRoleErr != nil {
		return m.setRoleErr
	}
	if u, ok := m.users[userID]; ok {
		u.Role = role
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, userID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if u, ok := m.users[userID]; ok {
		delete(m.emailIndex, u.Email)
		delete(m.users, userID)
	}
	return nil
}

func (m *mockUserRepo) CountByRole(ctx context.Context) (map[model.UserRole]int, error) {
	counts := map[model.UserRole]int{}
	for _, u := range m.users {
		counts[u.Role]++
	}
	return counts, nil
}

type mockTokenRepo struct {
	tokens       map[string]*model.RefreshToken
	revokeLost   bool
	revokedUsers []string
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*model.RefreshToken)}
}

func (m *mockTokenRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	token.ID = fmt.Sprintf("refresh_token:%d", len(m.tokens)+1)
	m.tokens[token.TokenHash] = token
	return nil
}

func (m *mockTokenRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	t, ok := m.tokens[hash]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *mockTokenRepo) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	if m.revokeLost {
		return false, nil
	}
	t, ok := m.tokens[hash]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

func (m *mockTokenRepo) RevokeAllUserTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type mockCenterRepo struct {
	centers   map[string]*model.Center
	createErr error
	deleteErr error
	seq       int
}

func newMockCenterRepo() *mockCenterRepo {
	return &mockCenterRepo{centers: make(map[string]*model.Center)}
}

func (m *mockCenterRepo) add(c *model.Center) *model.Center {
	m.centers[c.ID] = c
	return c
}

func (m *mockCenterRepo) Create(ctx context.Context, center *model.Center) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, c := range m.centers {
		if c.Name == center.Name {
			return errDuplicate
		}
	}
	m.seq++
	center.ID = fmt.Sprintf("center:%d", m.seq)
	center.IsActive = false
	m.add(center)
	return nil
}

func (m *mockCenterRepo) GetByID(ctx context.Context, id string) (*model.Center, error) {
	c, ok := m.centers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m *mockCenterRepo) GetByCoordinator(ctx context.Context, userID string) (*model.Center, error) {
	for _, c := range m.centers {
		if c.CoordinatorID != nil && *c.CoordinatorID == userID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockCenterRepo) List(ctx context.Context, filter model.CenterFilter) ([]*model.Center, int, error) {
	var out []*model.Center
	for _, c := range m.centers {
		if filter.ActiveOnly && !c.IsActive {
			continue
		}
		if filter.SuperCoordinatorID != "" && !c.IsOverseenBy(filter.SuperCoordinatorID) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockCenterRepo) Update(ctx context.Context, center *model.Center) error {
	m.centers[center.ID] = center
	return nil
}

func (m *mockCenterRepo) AssignCoordinator(ctx context.Context, centerID, userID string) error {
	m.centers[centerID].CoordinatorID = &userID
	return nil
}

func (m *mockCenterRepo) RemoveCoordinator(ctx context.Context, centerID string) error {
	m.centers[centerID].CoordinatorID = nil
	m.centers[centerID].IsActive = false
	return nil
}

func (m *mockCenterRepo) AssignSuperCoordinator(ctx context.Context, centerID, userID string) error {
	m.centers[centerID].SuperCoordinatorID = &userID
	return nil
}

func (m *mockCenterRepo) RemoveSuperCoordinator(ctx context.Context, centerID string) error {
	m.centers[centerID].SuperCoordinatorID = nil
	return nil
}

func (m *mockCenterRepo) SetActive(ctx context.Context, centerID string, active bool) error {
	m.centers[centerID].IsActive = active
	return nil
}

func (m *mockCenterRepo) Delete(ctx context.Context, centerID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.centers, centerID)
	return nil
}

func (m *mockCenterRepo) Count(ctx context.Context) (int, int, error) {
	active := 0
	for _, c := range m.centers {
		if c.IsActive {
			active++
		}
	}
	return len(m.centers), active, nil
}

func (m *mockCenterRepo) Stats(ctx context.Context, superCoordinatorID string, now time.Time) ([]*model.CenterStats, error) {
	var out []*model.CenterStats
	for _, c := range m.centers {
		if superCoordinatorID != "" && !c.IsOverseenBy(superCoordinatorID) {
			continue
		}
		out = append(out, &model.CenterStats{CenterID: c.ID, CenterName: c.Name, IsActive: c.IsActive})
	}
	return out, nil
}

type mockGameRepo struct {
	games     map[string]*model.Game
	deleteErr error
	seq       int
}

func newMockGameRepo() *mockGameRepo {
	return &mockGameRepo{games: make(map[string]*model.Game)}
}

func (m *mockGameRepo) add(g *model.Game) *model.Game {
	m.games[g.ID] = g
	return g
}

func (m *mockGameRepo) Create(ctx context.Context, game *model.Game) error {
	for _, g := range m.games {
		if g.Name == game.Name {
			return errDuplicate
		}
	}
	m.seq++
	game.ID = fmt.Sprintf("game:%d", m.seq)
	m.add(game)
	return nil
}

func (m *mockGameRepo) GetByID(ctx context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (m *mockGameRepo) List(ctx context.Context, filter model.GameFilter) ([]*model.Game, int, error) {
	var out []*model.Game
	for _, g := range m.games {
		out = append(out, g)
	}
	return out, len(out), nil
}

func (m *mockGameRepo) Update(ctx context.Context, game *model.Game) error {
	m.games[game.ID] = game
	return nil
}

func (m *mockGameRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.games, id)
	return nil
}

func (m *mockGameRepo) ListByCenter(ctx context.Context, centerID string) ([]*model.CenterGame, error) {
	return nil, nil
}

func (m *mockGameRepo) Availability(ctx context.Context, gameID string) ([]*model.GameAvailability, error) {
	return nil, nil
}

func (m *mockGameRepo) Count(ctx context.Context) (int, error) {
	return len(m.games), nil
}

type mockInstanceRepo struct {
	instances map[string]*model.GameInstance
	updateErr error
	seq       int
}

func newMockInstanceRepo() *mockInstanceRepo {
	return &mockInstanceRepo{instances: make(map[string]*model.GameInstance)}
}

func (m *mockInstanceRepo) add(i *model.GameInstance) *model.GameInstance {
	m.instances[i.ID] = i
	return i
}

func (m *mockInstanceRepo) Create(ctx context.Context, inst *model.GameInstance) error {
	m.seq++
	inst.ID = fmt.Sprintf("game_instance:%d", m.seq)
	if inst.Condition == "" {
		inst.Condition = model.ConditionGood
	}
	m.add(inst)
	return nil
}

func (m *mockInstanceRepo) GetByID(ctx context.Context, id string) (*model.GameInstance, error) {
	i, ok := m.instances[id]
	if !ok {
		return nil, nil
	}
	cp := *i
	return &cp, nil
}

func (m *mockInstanceRepo) List(ctx context.Context, filter model.InstanceFilter) ([]*model.GameInstance, int, error) {
	var out []*model.GameInstance
	for _, i := range m.instances {
		if i.CenterID == filter.CenterID && (filter.Status == "" || i.Status == filter.Status) {
			out = append(out, i)
		}
	}
	return out, len(out), nil
}

func (m *mockInstanceRepo) Update(ctx context.Context, inst *model.GameInstance) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.instances[inst.ID] = inst
	return nil
}

func (m *mockInstanceRepo) Delete(ctx context.Context, id string) error {
	delete(m.instances, id)
	return nil
}

func (m *mockInstanceRepo) Count(ctx context.Context, centerID string) (int, int, error) {
	total, available := 0, 0
	for _, i := range m.instances {
		if i.Status != model.InstanceStatusRetired {
			total++
		}
		if i.Status == model.InstanceStatusAvailable {
			available++
		}
	}
	return total, available, nil
}

// mockRentalRepo applies the same state changes as the SurrealDB
// transactions, without the guards.
type mockRentalRepo struct {
	rentals    map[string]*model.Rental
	instances  *mockInstanceRepo
	createErr  error
	approveErr error
	expired    int
	cutoff     time.Time
	seq        int
}

func newMockRentalRepo(instances *mockInstanceRepo) *mockRentalRepo {
	return &mockRentalRepo{rentals: make(map[string]*model.Rental), instances: instances}
}

func (m *mockRentalRepo) add(r *model.Rental) *model.Rental {
	m.rentals[r.ID] = r
	return r
}

func (m *mockRentalRepo) Create(ctx context.Context, rental *model.Rental, maxOpen int) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	rental.ID = fmt.Sprintf("rental:r%d", m.seq)
	rental.Status = model.RentalStatusPending
	rental.RequestedOn = time.Now()
	m.add(rental)
	return nil
}

func (m *mockRentalRepo) GetByID(ctx context.Context, id string) (*model.Rental, error) {
	r, ok := m.rentals[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *mockRentalRepo) List(ctx context.Context, filter model.RentalFilter) ([]*model.Rental, int, error) {
	var out []*model.Rental
	for _, r := range m.rentals {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.CenterID != "" && r.CenterID != filter.CenterID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *mockRentalRepo) ListOverdue(ctx context.Context, centerID string, now time.Time) ([]*model.Rental, error) {
	var out []*model.Rental
	for _, r := range m.rentals {
		if (centerID == "" || r.CenterID == centerID) && r.IsOverdue(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRentalRepo) CountOpenByUser(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, r := range m.rentals {
		if r.UserID == userID && r.Status.IsOpen() {
			n++
		}
	}
	return n, nil
}

func (m *mockRentalRepo) HasOpenForInstance(ctx context.Context, userID, instanceID string) (bool, error) {
	for _, r := range m.rentals {
		if r.UserID == userID && r.GameInstanceID == instanceID && r.Status.IsOpen() {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRentalRepo) Approve(ctx context.Context, rental *model.Rental, approverID string, due time.Time) error {
	if m.approveErr != nil {
		return m.approveErr
	}
	now := time.Now()
	r := m.rentals[rental.ID]
	r.Status = model.RentalStatusActive
	r.ApprovedOn = &now
	r.ApprovedBy = &approverID
	r.DueDate = &due
	if inst, ok := m.instances.instances[r.GameInstanceID]; ok {
		inst.Status = model.InstanceStatusRented
	}
	reason := model.CancelReasonInstanceAssigned
	for _, other := range m.rentals {
		if other.ID != r.ID && other.GameInstanceID == r.GameInstanceID && other.Status == model.RentalStatusPending {
			other.Status = model.RentalStatusCancelled
			other.CancelReason = &reason
		}
	}
	return nil
}

func (m *mockRentalRepo) Cancel(ctx context.Context, rentalID, reason string) error {
	now := time.Now()
	r := m.rentals[rentalID]
	r.Status = model.RentalStatusCancelled
	r.CancelledOn = &now
	r.CancelReason = &reason
	return nil
}

func (m *mockRentalRepo) Return(ctx context.Context, rental *model.Rental, condition *model.InstanceCondition, notes *string) error {
	now := time.Now()
	r := m.rentals[rental.ID]
	r.Status = model.RentalStatusReturned
	r.ReturnedOn = &now
	r.ReturnedCondition = condition
	if inst, ok := m.instances.instances[r.GameInstanceID]; ok {
		inst.Status = model.InstanceStatusAvailable
		if condition != nil {
			inst.Condition = *condition
			if *condition == model.ConditionDamaged {
				inst.Status = model.InstanceStatusMaintenance
			}
		}
	}
	return nil
}

func (m *mockRentalRepo) ExpirePending(ctx context.Context, cutoff time.Time) (int, error) {
	m.cutoff = cutoff
	return m.expired, nil
}

func (m *mockRentalRepo) CountByStatus(ctx context.Context, centerID string) (map[model.RentalStatus]int, error) {
	counts := map[model.RentalStatus]int{}
	for _, r := range m.rentals {
		counts[r.Status]++
	}
	return counts, nil
}

type recordedEvents map[string]int

func (r recordedEvents) RentalEvent(event string, count int) {
	r[event] += count
}

// ============================================================================
// Helpers
// ============================================================================

var errDuplicate = fmt.Errorf("%w: index already contains value", database.ErrDuplicate)

func conflictErr(reason string) error {
	return fmt.Errorf("%w: An error occurred: conflict: %s", database.ErrConflict, reason)
}

func createTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	return jwt.NewTestService(privateKey, "test-issuer", time.Hour)
}

func mustHash(t *testing.T, password string) *string {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &hash
}

func strPtr(s string) *string { return &s }
