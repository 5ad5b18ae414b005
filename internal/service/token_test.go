package service

import (
	"context"
	"testing"
	"time"

	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, repo *mockTokenRepo) *TokenService {
	t.Helper()
	return NewTokenService(TokenServiceConfig{
		JWTService: createTestJWTService(t),
		TokenRepo:  repo,
	})
}

func TestHashToken_Deterministic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, hashToken("abc"), hashToken("abc"))
	assert.NotEqual(t, hashToken("abc"), hashToken("abd"))
	assert.Len(t, hashToken("abc"), 64)
}

func TestGenerateRefreshToken_Unique(t *testing.T) {
	t.Parallel()
	a, err := generateRefreshToken()
	require.NoError(t, err)
	b, err := generateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 64)
}

func TestTokenService_GenerateTokenPair_CarriesRole(t *testing.T) {
	t.Parallel()
	repo := newMockTokenRepo()
	svc := newTestTokenService(t, repo)
	user := &model.User{ID: "user:1", Email: "ana@example.com", Role: model.UserRoleCoordinator}

	pair, err := svc.GenerateTokenPair(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 3600, pair.ExpiresIn)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user:1", claims.UserID)
	assert.Equal(t, "coordinator", claims.Role)

	stored := repo.tokens[hashToken(pair.RefreshToken)]
	require.NotNil(t, stored, "only the hash is stored")
	assert.Equal(t, "user:1", stored.UserID)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), stored.ExpiresAt, time.Minute)
}

func TestTokenService_Rotate_RevokesOldToken(t *testing.T) {
	t.Parallel()
	repo := newMockTokenRepo()
	svc := newTestTokenService(t, repo)
	user := &model.User{ID: "user:1", Email: "ana@example.com"}
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, user)
	require.NoError(t, err)

	stored, err := svc.LookupRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	next, err := svc.RotateRefreshToken(ctx, stored, user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	assert.True(t, repo.tokens[hashToken(pair.RefreshToken)].Revoked)
}

func TestTokenService_Rotate_ReuseRevokesEverything(t *testing.T) {
	t.Parallel()
	repo := newMockTokenRepo()
	svc := newTestTokenService(t, repo)
	user := &model.User{ID: "user:1", Email: "ana@example.com"}
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, user)
	require.NoError(t, err)
	stored, _ := svc.LookupRefreshToken(ctx, pair.RefreshToken)
	_, err = svc.RotateRefreshToken(ctx, stored, user)
	require.NoError(t, err)

	reused, _ := svc.LookupRefreshToken(ctx, pair.RefreshToken)
	_, err = svc.RotateRefreshToken(ctx, reused, user)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	assert.Equal(t, []string{"user:1"}, repo.revokedUsers)
	for _, tok := range repo.tokens {
		assert.True(t, tok.Revoked)
	}
}

func TestTokenService_Rotate_LostRaceIsRevoked(t *testing.T) {
	t.Parallel()
	repo := newMockTokenRepo()
	svc := newTestTokenService(t, repo)
	user := &model.User{ID: "user:1"}
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, user)
	require.NoError(t, err)
	stored, _ := svc.LookupRefreshToken(ctx, pair.RefreshToken)

	repo.revokeLost = true
	_, err = svc.RotateRefreshToken(ctx, stored, user)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
	assert.Contains(t, repo.revokedUsers, "user:1")
}

func TestTokenService_Rotate_Expired(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService(t, newMockTokenRepo())
	stored := &model.RefreshToken{UserID: "user:1", TokenHash: "h", ExpiresAt: time.Now().Add(-time.Minute)}

	_, err := svc.RotateRefreshToken(context.Background(), stored, &model.User{ID: "user:1"})
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestTokenService_Lookup_Unknown(t *testing.T) {
	t.Parallel()
	svc := newTestTokenService(t, newMockTokenRepo())
	_, err := svc.LookupRefreshToken(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTokenService_Rotate_ExpiryFollowsClock(t *testing.T) {
	t.Parallel()
	repo := newMockTokenRepo()
	svc := newTestTokenService(t, repo)
	user := &model.User{ID: "user:1"}
	ctx := context.Background()

	pair, err := svc.GenerateTokenPair(ctx, user)
	require.NoError(t, err)
	stored, err := svc.LookupRefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	_, err = svc.RotateRefreshToken(ctx, stored, user)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
	assert.False(t, repo.tokens[hashToken(pair.RefreshToken)].Revoked)
}
