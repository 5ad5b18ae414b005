package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/ludoteca/api/internal/model"
)

func TestTokenRepository_Create_FillsID(t *testing.T) {
	t.Parallel()
	created := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	db := &fakeDB{respond: func(q string) ([]interface{}, error) {
		return ok(map[string]interface{}{
			"id":         "refresh_token:t1",
			"user":       "user:1",
			"token_hash": "abc",
			"expires_at": created.Add(time.Hour).Format(time.RFC3339),
			"created_at": created.Format(time.RFC3339),
		}), nil
	}}
	repo := NewTokenRepository(db)

	tok := &model.RefreshToken{UserID: "user:1", TokenHash: "abc", ExpiresAt: created.Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(context.Background(), tok))

	assert.Equal(t, "refresh_token:t1", tok.ID)
	assert.True(t, created.Equal(tok.CreatedAt))
	assert.Equal(t, "abc", db.vars[0]["hash"])
}

func TestTokenRepository_GetByHash_MissingIsNil(t *testing.T) {
	t.Parallel()
	repo := NewTokenRepository(&fakeDB{})

	tok, err := repo.GetRefreshTokenByHash(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, tok)
}

func TestTokenRepository_Revoke_ReportsWhetherSpent(t *testing.T) {
	t.Parallel()

	spent := NewTokenRepository(&fakeDB{respond: func(q string) ([]interface{}, error) {
		return ok(map[string]interface{}{"id": "refresh_token:t1", "revoked": true}), nil
	}})
	got, err := spent.RevokeRefreshToken(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, got)

	db := &fakeDB{}
	already := NewTokenRepository(db)
	got, err = already.RevokeRefreshToken(context.Background(), "abc")
	require.NoError(t, err)
	assert.False(t, got)
	assert.Contains(t, db.queries[0], "revoked = false")
}

func TestTokenRepository_Cleanup_CountsDeleted(t *testing.T) {
	t.Parallel()
	db := &fakeDB{respond: func(q string) ([]interface{}, error) {
		return ok(map[string]interface{}{"id": "refresh_token:a"}, map[string]interface{}{"id": "refresh_token:b"}), nil
	}}
	repo := NewTokenRepository(db)

	n, err := repo.CleanupRevokedTokens(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, strings.HasPrefix(db.queries[0], "DELETE refresh_token WHERE revoked = true"))
	assert.Contains(t, db.vars[0], "cutoff")

	n, err = repo.DeleteExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, db.queries[1], "expires_at < time::now()")
}
