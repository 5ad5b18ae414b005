package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/internal/service"
)

func sessionResult(email string) *service.AuthResult {
	return &service.AuthResult{
		User: &model.User{ID: "user:1", Email: email, Role: model.UserRoleUser, IsActive: true},
		TokenPair: &service.TokenPair{
			AccessToken:  "access",
			RefreshToken: "refresh",
			TokenType:    "Bearer",
			ExpiresIn:    900,
		},
	}
}

func TestRegister_ValidInput_ReturnsCreated(t *testing.T) {
	var got service.RegisterRequest
	mock := &mockAuthService{
		registerFunc: func(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error) {
			got = req
			return sessionResult(req.Email), nil
		},
	}
	h := NewAuthHandler(mock)

	req := newJSONRequest(http.MethodPost, "/v1/auth/register", map[string]string{
		"email":     "ana@example.com",
		"password":  "correct-horse",
		"firstname": "Ana",
	})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "Ana", got.Firstname)

	var session struct {
		User  model.User        `json:"user"`
		Token service.TokenPair `json:"token"`
	}
	decodeData(t, rr, &session)
	assert.Equal(t, "ana@example.com", session.User.Email)
	assert.Equal(t, "access", session.Token.AccessToken)
	assert.NotContains(t, rr.Body.String(), "hash")
}

func TestRegister_DuplicateEmail_ReturnsConflict(t *testing.T) {
	mock := &mockAuthService{
		registerFunc: func(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error) {
			return nil, service.ErrEmailAlreadyExists
		},
	}
	h := NewAuthHandler(mock)

	req := newJSONRequest(http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "ana@example.com", "password": "correct-horse",
	})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.False(t, env.Success)
	assert.Equal(t, model.ErrCodeAlreadyExists, env.Error.Code)
}

func TestRegister_InvalidJSON_ReturnsBadRequest(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := newJSONRequest(http.MethodPost, "/v1/auth/register", `{"email":`)
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, decodeEnvelope(t, rr).Success)
}

func TestRegister_UnknownField_ReturnsBadRequest(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := newJSONRequest(http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "ana@example.com", "password": "correct-horse", "role": "admin",
	})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLogin_MissingFields_ReturnsValidationError(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := newJSONRequest(http.MethodPost, "/v1/auth/login", map[string]string{"email": "ana@example.com"})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.Equal(t, model.ErrCodeValidation, env.Error.Code)
}

func TestLogin_WrongPassword_ReturnsUnauthorized(t *testing.T) {
	mock := &mockAuthService{
		loginFunc: func(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error) {
			return nil, service.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(mock)

	req := newJSONRequest(http.MethodPost, "/v1/auth/login", map[string]string{
		"email": "ana@example.com", "password": "wrong-password",
	})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, model.ErrCodeLoginFailed, decodeEnvelope(t, rr).Error.Code)
}

func TestLogin_DisabledAccount_ReturnsForbidden(t *testing.T) {
	mock := &mockAuthService{
		loginFunc: func(ctx context.Context, req service.LoginRequest) (*service.AuthResult, error) {
			return nil, service.ErrAccountDisabled
		},
	}
	h := NewAuthHandler(mock)

	req := newJSONRequest(http.MethodPost, "/v1/auth/login", map[string]string{
		"email": "ana@example.com", "password": "correct-horse",
	})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, model.ErrCodeAccountBlocked, decodeEnvelope(t, rr).Error.Code)
}

func TestRefresh_MissingToken_ReturnsValidationError(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := newJSONRequest(http.MethodPost, "/v1/auth/refresh", map[string]string{})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestRefresh_RevokedToken_ReturnsUnauthorized(t *testing.T) {
	mock := &mockAuthService{
		refreshTokensFunc: func(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
			return nil, service.ErrRefreshTokenRevoked
		},
	}
	h := NewAuthHandler(mock)

	req := newJSONRequest(http.MethodPost, "/v1/auth/refresh", map[string]string{"refresh_token": "old"})
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, model.ErrCodeTokenInvalid, decodeEnvelope(t, rr).Error.Code)
}

func TestMe_Unauthenticated_ReturnsUnauthorized(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := newJSONRequest(http.MethodGet, "/v1/auth/me", nil)
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	mock := &mockAuthService{
		getUserByIDFunc: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{ID: userID, Email: "ana@example.com", Role: model.UserRoleUser}, nil
		},
	}
	h := NewAuthHandler(mock)

	req := asUser(newJSONRequest(http.MethodGet, "/v1/auth/me", nil), "user:1", model.UserRoleUser)
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var user model.User
	decodeData(t, rr, &user)
	assert.Equal(t, "user:1", user.ID)
}

func TestLogout_ReturnsNullData(t *testing.T) {
	var loggedOut string
	mock := &mockAuthService{
		logoutFunc: func(ctx context.Context, userID string) error {
			loggedOut = userID
			return nil
		},
	}
	h := NewAuthHandler(mock)

	req := asUser(newJSONRequest(http.MethodPost, "/v1/auth/logout", nil), "user:1", model.UserRoleUser)
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user:1", loggedOut)
	assert.JSONEq(t, `{"success":true,"data":null}`, rr.Body.String())
}

func TestChangePassword_WrongCurrent_ReturnsUnauthorized(t *testing.T) {
	mock := &mockAuthService{
		changePasswordFunc: func(ctx context.Context, userID string, req *model.ChangePasswordRequest) error {
			return service.ErrInvalidCredentials
		},
	}
	h := NewAuthHandler(mock)

	req := asUser(newJSONRequest(http.MethodPost, "/v1/auth/me/password", map[string]string{
		"current_password": "nope", "new_password": "a-new-password",
	}), "user:1", model.UserRoleUser)
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegister_OversizedBody_ReturnsPayloadTooLarge(t *testing.T) {
	called := false
	mock := &mockAuthService{
		registerFunc: func(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error) {
			called = true
			return sessionResult(req.Email), nil
		},
	}
	h := NewAuthHandler(mock)

	req := newJSONRequest(http.MethodPost, "/v1/auth/register", map[string]string{
		"email":     "ana@example.com",
		"password":  "correct-horse",
		"firstname": strings.Repeat("a", 4096),
	})
	req.Body = http.MaxBytesReader(nil, req.Body, 1024)
	rr := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, nil) }, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.Equal(t, model.ErrCodeInvalidInput, env.Error.Code)
	assert.False(t, called)
}
