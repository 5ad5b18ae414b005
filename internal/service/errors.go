package service

import (
	"errors"
	"fmt"
)

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Authentication Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrAccountDisabled    = errors.New("account is deactivated")
)

// ===== Token Errors =====
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// ===== Authorization Errors =====
var (
	ErrForbidden           = errors.New("not authorized to perform this action")
	ErrNotCenterOverseer   = errors.New("center is not overseen by this super coordinator")
	ErrNoAssignedCenter    = errors.New("no center assigned to this coordinator")
	ErrNotRentalOwner      = errors.New("rental belongs to another user")
	ErrCannotModifySelf    = errors.New("cannot change own role, status or account")
	ErrRentalOtherCenter   = errors.New("rental belongs to another center")
	ErrInstanceOtherCenter = errors.New("instance belongs to another center")
)

// ===== Not Found Errors =====
var (
	ErrCenterNotFound   = errors.New("center not found")
	ErrGameNotFound     = errors.New("game not found")
	ErrInstanceNotFound = errors.New("game instance not found")
	ErrRentalNotFound   = errors.New("rental not found")
)

// ===== Conflict Errors =====
var (
	ErrCenterNameExists        = errors.New("a center with this name already exists")
	ErrGameNameExists          = errors.New("a game with this name already exists")
	ErrCenterInactive          = errors.New("center is not active")
	ErrCenterHasNoCoordinator  = errors.New("center has no coordinator")
	ErrCenterHasOpenRentals    = errors.New("center has pending or active rentals")
	ErrCoordinatorAssigned     = errors.New("coordinator is already assigned to another center")
	ErrNotCoordinatorRole      = errors.New("user does not have the coordinator role")
	ErrNotSuperCoordinatorRole = errors.New("user does not have the super_coordinator role")
	ErrGameHasInstances        = errors.New("game still has instances")
	ErrInstanceNotAvailable    = errors.New("game instance is not available")
	ErrInstanceRented          = errors.New("game instance is currently rented")
	ErrInstanceHasOpenRentals  = errors.New("game instance has pending rentals")
	ErrDuplicateRentalRequest  = errors.New("an open request for this instance already exists")
	ErrInvalidTransition       = errors.New("rental status does not allow this action")
	ErrUserHasOpenRentals      = errors.New("user has pending or active rentals")
	ErrStateConflict           = errors.New("the record changed, retry the request")
)

// ===== Limit Errors =====
var (
	ErrRentalLimitReached = errors.New("maximum number of open rentals reached")
)

// LimitError is a limit error that knows the cap and the caller's count
type LimitError struct {
	Err     error
	Limit   int
	Current int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s (%d of %d)", e.Err, e.Current, e.Limit)
}

func (e *LimitError) Unwrap() error {
	return e.Err
}
