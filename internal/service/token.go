package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/pkg/jwt"
)

const refreshTokenBytes = 32

// TokenRepository stores refresh token hashes
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, hash string) (bool, error)
	RevokeAllUserTokens(ctx context.Context, userID string) error
}

// TokenService issues access/refresh token pairs and rotates refresh tokens
type TokenService struct {
	jwt        *jwt.Service
	repo       TokenRepository
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenServiceConfig holds configuration for the token service
type TokenServiceConfig struct {
	JWTService      *jwt.Service
	TokenRepo       TokenRepository
	RefreshDuration time.Duration // Default: 30 days
}

func NewTokenService(cfg TokenServiceConfig) *TokenService {
	ttl := cfg.RefreshDuration
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenService{
		jwt:        cfg.JWTService,
		repo:       cfg.TokenRepo,
		refreshTTL: ttl,
		now:        time.Now,
	}
}

// TokenPair is returned by login, register and refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

// GenerateTokenPair signs an access token for user and stores a fresh
// refresh token.
func (s *TokenService) GenerateTokenPair(ctx context.Context, user *model.User) (*TokenPair, error) {
	access, err := s.jwt.Sign(jwt.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.DisplayName(),
		Role:   string(user.Role),
	})
	if err != nil {
		return nil, err
	}

	raw, err := generateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwt.GetExpiration().Seconds()),
	}, nil
}

// LookupRefreshToken finds the stored record for a raw refresh token
func (s *TokenService) LookupRefreshToken(ctx context.Context, raw string) (*model.RefreshToken, error) {
	stored, err := s.repo.GetRefreshTokenByHash(ctx, hashToken(raw))
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrInvalidRefreshToken
	}
	return stored, nil
}

// RotateRefreshToken spends stored and issues a new pair for user. A token
// can be spent once; presenting it again, or losing the revoke to a
// concurrent refresh, ends every session of the user.
func (s *TokenService) RotateRefreshToken(ctx context.Context, stored *model.RefreshToken, user *model.User) (*TokenPair, error) {
	if stored.Revoked {
		s.revokeOnReuse(ctx, stored.UserID)
		return nil, ErrRefreshTokenRevoked
	}
	if stored.ExpiredAt(s.now()) {
		return nil, ErrRefreshTokenExpired
	}

	spent, err := s.repo.RevokeRefreshToken(ctx, stored.TokenHash)
	if err != nil {
		return nil, err
	}
	if !spent {
		s.revokeOnReuse(ctx, stored.UserID)
		return nil, ErrRefreshTokenRevoked
	}

	return s.GenerateTokenPair(ctx, user)
}

func (s *TokenService) revokeOnReuse(ctx context.Context, userID string) {
	slog.WarnContext(ctx, "refresh token reused, revoking all sessions", slog.String("user_id", userID))
	if err := s.repo.RevokeAllUserTokens(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "revoke sessions failed", slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

func (s *TokenService) ValidateAccessToken(token string) (*jwt.Claims, error) {
	return s.jwt.Validate(token)
}

// RevokeAllUserTokens ends every session of a user
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.repo.RevokeAllUserTokens(ctx, userID)
}

func generateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
