package service

import (
	"errors"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
)

// Actor is the authenticated caller of a scoped operation
type Actor struct {
	UserID string
	Role   model.UserRole
}

// IsAdmin reports whether the actor bypasses center scoping
func (a Actor) IsAdmin() bool {
	return a.Role == model.UserRoleAdmin
}

// conflictErrors maps guard reasons raised inside repository transactions to
// service errors.
var conflictErrors = map[string]error{
	model.ConflictCenterInactive:      ErrCenterInactive,
	model.ConflictInstanceUnavailable: ErrInstanceNotAvailable,
	model.ConflictDuplicateRequest:    ErrDuplicateRentalRequest,
	model.ConflictRentalLimit:         ErrRentalLimitReached,
	model.ConflictNotPending:          ErrInvalidTransition,
	model.ConflictNotActive:           ErrInvalidTransition,
	model.ConflictNoCoordinator:       ErrCenterHasNoCoordinator,
	model.ConflictNotCoordinator:      ErrNotCoordinatorRole,
	model.ConflictNotSuperCoordinator: ErrNotSuperCoordinatorRole,
	model.ConflictCoordinatorAssigned: ErrCoordinatorAssigned,
	model.ConflictCenterOpenRentals:   ErrCenterHasOpenRentals,
	model.ConflictGameHasInstances:    ErrGameHasInstances,
	model.ConflictInstanceRented:      ErrInstanceRented,
	model.ConflictInstanceOpenRentals: ErrInstanceHasOpenRentals,
	model.ConflictUserOpenRentals:     ErrUserHasOpenRentals,
}

// mapConflict translates database.ErrConflict into the matching service error.
// Other errors pass through unchanged.
func mapConflict(err error) error {
	if err == nil || !errors.Is(err, database.ErrConflict) {
		return err
	}
	if mapped, ok := conflictErrors[database.ConflictReason(err)]; ok {
		return mapped
	}
	return ErrStateConflict
}
