package repository

import (
	"context"
	"errors"
	"time"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// TokenRepository stores refresh token hashes
type TokenRepository struct {
	db database.Database
}

func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken stores token and fills in its id and creation time
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	results, err := r.db.Query(ctx, `
		CREATE refresh_token CONTENT {
			user: type::record($user),
			token_hash: $hash,
			expires_at: <datetime>$expires_at,
			revoked: false
		}
	`, map[string]interface{}{
		"user":       token.UserID,
		"hash":       token.TokenHash,
		"expires_at": timeVar(token.ExpiresAt),
	})
	if err != nil {
		return err
	}

	created, err := decodeRecords[model.RefreshToken](results, 0)
	if err != nil {
		return err
	}
	if len(created) == 0 {
		return errors.New("refresh token not created")
	}
	token.ID = created[0].ID
	token.CreatedAt = created[0].CreatedAt
	return nil
}

// GetRefreshTokenByHash returns nil when no token has the hash
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	result, err := r.db.QueryOne(ctx,
		`SELECT * FROM refresh_token WHERE token_hash = $hash LIMIT 1`,
		map[string]interface{}{"hash": hash})
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	token, err := decodeRecord[model.RefreshToken](result)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return token, err
}

// RevokeRefreshToken spends a token. It reports false when the token was
// already revoked, so two concurrent refreshes cannot both succeed.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	results, err := r.db.Query(ctx,
		`UPDATE refresh_token SET revoked = true WHERE token_hash = $hash AND revoked = false`,
		map[string]interface{}{"hash": hash})
	if err != nil {
		return false, err
	}
	return len(statementResult(results, 0)) > 0, nil
}

func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return r.db.Execute(ctx,
		`UPDATE refresh_token SET revoked = true WHERE user = type::record($user) AND revoked = false`,
		map[string]interface{}{"user": userID})
}

// DeleteExpiredTokens removes expired tokens and reports how many
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context) (int, error) {
	return r.deleteWhere(ctx, `expires_at < time::now()`, nil)
}

// CleanupRevokedTokens removes revoked tokens created more than olderThan ago
func (r *TokenRepository) CleanupRevokedTokens(ctx context.Context, olderThan time.Duration) (int, error) {
	return r.deleteWhere(ctx, `revoked = true AND created_at < <datetime>$cutoff`,
		map[string]interface{}{"cutoff": timeVar(time.Now().Add(-olderThan))})
}

func (r *TokenRepository) deleteWhere(ctx context.Context, cond string, vars map[string]interface{}) (int, error) {
	results, err := r.db.Query(ctx, `DELETE refresh_token WHERE `+cond+` RETURN BEFORE`, vars)
	if err != nil {
		return 0, err
	}
	return len(statementResult(results, 0)), nil
}
