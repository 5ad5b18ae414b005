package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// EnsureAdmin creates the first administrator when no account with email
// exists yet. It reports whether an account was created.
func EnsureAdmin(ctx context.Context, users UserRepository, email, password string) (bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return false, nil
	}
	if !model.IsEmail(email) {
		return false, ErrInvalidEmail
	}
	if err := validatePassword(password); err != nil {
		return false, err
	}

	existing, err := users.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("looking up bootstrap admin: %w", err)
	}
	if existing != nil {
		if existing.Role != model.UserRoleAdmin {
			slog.Warn("bootstrap admin email belongs to a non-admin account", slog.String("email", email))
		}
		return false, nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}

	admin := &model.User{
		Email: email,
		Hash:  &hash,
		Role:  model.UserRoleAdmin,
	}
	if err := users.Create(ctx, admin); err != nil {
		// Another instance created it first
		if errors.Is(err, database.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("creating bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin created", slog.String("user_id", admin.ID), slog.String("email", email))
	return true, nil
}
