package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgo/ludoteca/api/internal/middleware"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/internal/service"
	"github.com/forgo/ludoteca/api/pkg/jwt"
)

// ============================================================================
// Mock AuthService
// ============================================================================

type mockAuthService struct {
	registerFunc       func(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error)
	loginFunc          func(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error)
	refreshTokensFunc  func(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	logoutFunc         func(ctx context.Context, userID string) error
	getUserByIDFunc    func(ctx context.Context, userID string) (*model.User, error)
	updateProfileFunc  func(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error)
	changePasswordFunc func(ctx context.Context, userID string, req *model.ChangePasswordRequest) error
}

func (m *mockAuthService) Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error) {
	return m.registerFunc(ctx, req)
}

func (m *mockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error) {
	return m.loginFunc(ctx, req)
}

func (m *mockAuthService) RefreshTokens(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	return m.refreshTokensFunc(ctx, refreshToken)
}

func (m *mockAuthService) Logout(ctx context.Context, userID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, userID)
	}
	return nil
}

func (m *mockAuthService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	return m.getUserByIDFunc(ctx, userID)
}

func (m *mockAuthService) UpdateProfile(ctx context.Context, userID string, req *model.UpdateProfileRequest) (*model.User, error) {
	return m.updateProfileFunc(ctx, userID, req)
}

func (m *mockAuthService) ChangePassword(ctx context.Context, userID string, req *model.ChangePasswordRequest) error {
	if m.changePasswordFunc != nil {
		return m.changePasswordFunc(ctx, userID, req)
	}
	return nil
}

// ============================================================================
// Mock CenterService
// ============================================================================

// mockCenterService records the actor it was called with and answers from
// the func fields; unset funcs return a center with the requested ID.
type mockCenterService struct {
	lastActor service.Actor

	createFunc            func(ctx context.Context, req *model.CreateCenterRequest) (*model.Center, error)
	getForActorFunc       func(ctx context.Context, actor service.Actor, centerID string) (*model.Center, error)
	getForCoordinatorFunc func(ctx context.Context, userID string) (*model.Center, error)
	getActiveFunc         func(ctx context.Context, centerID string) (*model.Center, error)
	listFunc              func(ctx context.Context, filter model.CenterFilter) (*model.Page[*model.Center], error)
	setActiveFunc         func(ctx context.Context, actor service.Actor, centerID string, active bool) (*model.Center, error)
	removeCoordinatorFunc func(ctx context.Context, actor service.Actor, centerID string) (*model.Center, error)
}

func (m *mockCenterService) Create(ctx context.Context, req *model.CreateCenterRequest) (*model.Center, error) {
	return m.createFunc(ctx, req)
}

func (m *mockCenterService) Get(ctx context.Context, centerID string) (*model.Center, error) {
	return &model.Center{ID: centerID}, nil
}

func (m *mockCenterService) GetActive(ctx context.Context, centerID string) (*model.Center, error) {
	if m.getActiveFunc != nil {
		return m.getActiveFunc(ctx, centerID)
	}
	return &model.Center{ID: centerID, IsActive: true}, nil
}

func (m *mockCenterService) GetForActor(ctx context.Context, actor service.Actor, centerID string) (*model.Center, error) {
	m.lastActor = actor
	if m.getForActorFunc != nil {
		return m.getForActorFunc(ctx, actor, centerID)
	}
	return &model.Center{ID: centerID}, nil
}

func (m *mockCenterService) GetForCoordinator(ctx context.Context, userID string) (*model.Center, error) {
	if m.getForCoordinatorFunc != nil {
		return m.getForCoordinatorFunc(ctx, userID)
	}
	return &model.Center{ID: "center:1", CoordinatorID: &userID, IsActive: true}, nil
}

func (m *mockCenterService) List(ctx context.Context, filter model.CenterFilter) (*model.Page[*model.Center], error) {
	return m.listFunc(ctx, filter)
}

func (m *mockCenterService) ListForActor(ctx context.Context, actor service.Actor, filter model.CenterFilter) (*model.Page[*model.Center], error) {
	m.lastActor = actor
	if !actor.IsAdmin() {
		filter.SuperCoordinatorID = actor.UserID
	}
	return m.listFunc(ctx, filter)
}

func (m *mockCenterService) Update(ctx context.Context, centerID string, req *model.UpdateCenterRequest) (*model.Center, error) {
	return &model.Center{ID: centerID}, nil
}

func (m *mockCenterService) Delete(ctx context.Context, centerID string) error {
	return nil
}

func (m *mockCenterService) AssignCoordinator(ctx context.Context, actor service.Actor, centerID string, req *model.AssignUserRequest) (*model.Center, error) {
	m.lastActor = actor
	return &model.Center{ID: centerID, CoordinatorID: &req.UserID}, nil
}

func (m *mockCenterService) RemoveCoordinator(ctx context.Context, actor service.Actor, centerID string) (*model.Center, error) {
	m.lastActor = actor
	if m.removeCoordinatorFunc != nil {
		return m.removeCoordinatorFunc(ctx, actor, centerID)
	}
	return &model.Center{ID: centerID}, nil
}

func (m *mockCenterService) AssignSuperCoordinator(ctx context.Context, centerID string, req *model.AssignUserRequest) (*model.Center, error) {
	return &model.Center{ID: centerID, SuperCoordinatorID: &req.UserID}, nil
}

func (m *mockCenterService) RemoveSuperCoordinator(ctx context.Context, centerID string) (*model.Center, error) {
	return &model.Center{ID: centerID}, nil
}

func (m *mockCenterService) SetActive(ctx context.Context, actor service.Actor, centerID string, active bool) (*model.Center, error) {
	m.lastActor = actor
	if m.setActiveFunc != nil {
		return m.setActiveFunc(ctx, actor, centerID, active)
	}
	return &model.Center{ID: centerID, IsActive: active}, nil
}

// ============================================================================
// Mock RentalService
// ============================================================================

type mockRentalService struct {
	lastCenterID string
	lastFilter   model.RentalFilter

	requestFunc    func(ctx context.Context, userID string, req *model.CreateRentalRequest) (*model.Rental, error)
	getForUserFunc func(ctx context.Context, userID, rentalID string) (*model.Rental, error)
	approveFunc    func(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.ApproveRentalRequest) (*model.Rental, error)
	returnFunc     func(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.ReturnRentalRequest) (*model.Rental, error)
	rentals        []*model.Rental
}

func (m *mockRentalService) page() *model.Page[*model.Rental] {
	return &model.Page[*model.Rental]{Items: m.rentals, Total: len(m.rentals)}
}

func (m *mockRentalService) Request(ctx context.Context, userID string, req *model.CreateRentalRequest) (*model.Rental, error) {
	return m.requestFunc(ctx, userID, req)
}

func (m *mockRentalService) GetForUser(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	return m.getForUserFunc(ctx, userID, rentalID)
}

func (m *mockRentalService) ListForUser(ctx context.Context, userID string, status model.RentalStatus, page model.PageParams) (*model.Page[*model.Rental], error) {
	m.lastFilter = model.RentalFilter{UserID: userID, Status: status, Page: page}
	return m.page(), nil
}

func (m *mockRentalService) CancelByUser(ctx context.Context, userID, rentalID string) (*model.Rental, error) {
	return &model.Rental{ID: rentalID, UserID: userID, Status: model.RentalStatusCancelled}, nil
}

func (m *mockRentalService) List(ctx context.Context, filter model.RentalFilter) (*model.Page[*model.Rental], error) {
	m.lastFilter = filter
	return m.page(), nil
}

func (m *mockRentalService) ListForCenter(ctx context.Context, centerID string, status model.RentalStatus, page model.PageParams) (*model.Page[*model.Rental], error) {
	m.lastCenterID = centerID
	m.lastFilter = model.RentalFilter{CenterID: centerID, Status: status, Page: page}
	return m.page(), nil
}

func (m *mockRentalService) ListOverdue(ctx context.Context, centerID string) ([]*model.Rental, error) {
	m.lastCenterID = centerID
	return nil, nil
}

func (m *mockRentalService) Approve(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.ApproveRentalRequest) (*model.Rental, error) {
	m.lastCenterID = centerID
	return m.approveFunc(ctx, actor, centerID, rentalID, req)
}

func (m *mockRentalService) Reject(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.RejectRentalRequest) (*model.Rental, error) {
	m.lastCenterID = centerID
	return &model.Rental{ID: rentalID, Status: model.RentalStatusCancelled, CancelReason: &req.Reason}, nil
}

func (m *mockRentalService) Return(ctx context.Context, actor service.Actor, centerID, rentalID string, req *model.ReturnRentalRequest) (*model.Rental, error) {
	m.lastCenterID = centerID
	return m.returnFunc(ctx, actor, centerID, rentalID, req)
}

// ============================================================================
// Mock InventoryService
// ============================================================================

type mockInventoryService struct {
	lastStatus model.InstanceStatus
	updateFunc func(ctx context.Context, centerID, instanceID string, req *model.UpdateInstanceRequest) (*model.GameInstance, error)
}

func (m *mockInventoryService) List(ctx context.Context, centerID string, status model.InstanceStatus, page model.PageParams) (*model.Page[*model.GameInstance], error) {
	m.lastStatus = status
	return &model.Page[*model.GameInstance]{}, nil
}

func (m *mockInventoryService) Create(ctx context.Context, centerID string, req *model.CreateInstanceRequest) (*model.GameInstance, error) {
	return &model.GameInstance{ID: "game_instance:1", CenterID: centerID, GameID: req.GameID, Status: model.InstanceStatusAvailable}, nil
}

func (m *mockInventoryService) Get(ctx context.Context, centerID, instanceID string) (*model.GameInstance, error) {
	return &model.GameInstance{ID: instanceID, CenterID: centerID}, nil
}

func (m *mockInventoryService) Update(ctx context.Context, centerID, instanceID string, req *model.UpdateInstanceRequest) (*model.GameInstance, error) {
	return m.updateFunc(ctx, centerID, instanceID, req)
}

func (m *mockInventoryService) Delete(ctx context.Context, centerID, instanceID string) error {
	return nil
}

// ============================================================================
// Mock CatalogService
// ============================================================================

type mockCatalogService struct {
	lastFilter       model.GameFilter
	createFunc       func(ctx context.Context, req *model.CreateGameRequest) (*model.Game, error)
	listByCenterFunc func(ctx context.Context, centerID string) ([]*model.CenterGame, error)
	deleteFunc       func(ctx context.Context, gameID string) error
	games            []*model.Game
}

func (m *mockCatalogService) Create(ctx context.Context, req *model.CreateGameRequest) (*model.Game, error) {
	return m.createFunc(ctx, req)
}

func (m *mockCatalogService) GetDetail(ctx context.Context, gameID string) (*model.GameDetail, error) {
	return &model.GameDetail{Game: &model.Game{ID: gameID}, Availability: []*model.GameAvailability{}}, nil
}

func (m *mockCatalogService) List(ctx context.Context, filter model.GameFilter) (*model.Page[*model.Game], error) {
	m.lastFilter = filter
	return &model.Page[*model.Game]{Items: m.games, Total: len(m.games)}, nil
}

func (m *mockCatalogService) ListByCenter(ctx context.Context, centerID string) ([]*model.CenterGame, error) {
	return m.listByCenterFunc(ctx, centerID)
}

func (m *mockCatalogService) Update(ctx context.Context, gameID string, req *model.UpdateGameRequest) (*model.Game, error) {
	return &model.Game{ID: gameID}, nil
}

func (m *mockCatalogService) Delete(ctx context.Context, gameID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, gameID)
	}
	return nil
}

// ============================================================================
// Mock StatsService
// ============================================================================

type mockStatsService struct {
	lastActor service.Actor
	system    *model.SystemStats
	centers   []*model.CenterStats
}

func (m *mockStatsService) System(ctx context.Context) (*model.SystemStats, error) {
	return m.system, nil
}

func (m *mockStatsService) Centers(ctx context.Context, actor service.Actor) ([]*model.CenterStats, error) {
	m.lastActor = actor
	return m.centers, nil
}

// ============================================================================
// Mock UserAdminService
// ============================================================================

type mockUserAdmin struct {
	lastFilter   model.UserFilter
	setRoleFunc  func(ctx context.Context, actor service.Actor, userID string, req *model.UpdateUserRoleRequest) (*model.User, error)
	deleteFunc   func(ctx context.Context, actor service.Actor, userID string) error
	users        []*model.User
	coordinators []*model.CoordinatorSummary
}

func (m *mockUserAdmin) ListUsers(ctx context.Context, filter model.UserFilter) (*model.Page[*model.User], error) {
	m.lastFilter = filter
	return &model.Page[*model.User]{Items: m.users, Total: len(m.users)}, nil
}

func (m *mockUserAdmin) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return nil, service.ErrUserNotFound
}

func (m *mockUserAdmin) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	return &model.User{ID: "user:new", Email: req.Email, Role: req.Role, IsActive: true}, nil
}

func (m *mockUserAdmin) SetRole(ctx context.Context, actor service.Actor, userID string, req *model.UpdateUserRoleRequest) (*model.User, error) {
	return m.setRoleFunc(ctx, actor, userID, req)
}

func (m *mockUserAdmin) SetStatus(ctx context.Context, actor service.Actor, userID string, req *model.UpdateUserStatusRequest) (*model.User, error) {
	return &model.User{ID: userID, IsActive: *req.IsActive}, nil
}

func (m *mockUserAdmin) DeleteUser(ctx context.Context, actor service.Actor, userID string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, actor, userID)
	}
	return nil
}

func (m *mockUserAdmin) ListCoordinators(ctx context.Context) ([]*model.CoordinatorSummary, error) {
	return m.coordinators, nil
}

// ============================================================================
// Test Helpers
// ============================================================================

// envelope mirrors both response envelopes for decoding in tests
type envelope struct {
	Success    bool                  `json:"success"`
	Data       json.RawMessage       `json:"data"`
	Pagination *model.Pagination     `json:"pagination"`
	Error      *model.ProblemDetails `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	env := decodeEnvelope(t, rr)
	require.True(t, env.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// asUser authenticates the request as userID with role
func asUser(r *http.Request, userID string, role model.UserRole) *http.Request {
	claims := &jwt.Claims{UserID: userID, Email: userID + "@example.com", Role: string(role)}
	return r.WithContext(middleware.WithClaims(r.Context(), claims))
}

func newJSONRequest(method, target string, body interface{}) *http.Request {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// serve routes req through a fresh mux populated by register
func serve(register func(mux *http.ServeMux), req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	register(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}
