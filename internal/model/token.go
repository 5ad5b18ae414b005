package model

import "time"

// RefreshToken is the stored half of a session. Only the SHA-256 hash of the
// opaque token handed to the client is persisted.
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	TokenHash string    `json:"token_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Revoked   bool      `json:"revoked"`
}

// ExpiredAt reports whether the token is past its expiry at t
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
