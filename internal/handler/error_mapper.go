package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/forgo/ludoteca/api/internal/database"
	"github.com/forgo/ludoteca/api/internal/model"
	"github.com/forgo/ludoteca/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Every handler goes through here so status codes stay consistent.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// Services build request validation failures themselves
	var pd *model.ProblemDetails
	if errors.As(err, &pd) {
		return pd
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrInvalidCredentials):
		p := model.NewUnauthorizedError(err.Error())
		p.Code = model.ErrCodeLoginFailed
		return p
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		p := model.NewUnauthorizedError(err.Error())
		p.Code = model.ErrCodeTokenInvalid
		return p

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrAccountDisabled):
		p := model.NewForbiddenError(err.Error())
		p.Code = model.ErrCodeAccountBlocked
		return p
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrNotCenterOverseer),
		errors.Is(err, service.ErrNoAssignedCenter),
		errors.Is(err, service.ErrNotRentalOwner),
		errors.Is(err, service.ErrCannotModifySelf),
		errors.Is(err, service.ErrRentalOtherCenter),
		errors.Is(err, service.ErrInstanceOtherCenter):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrCenterNotFound):
		return model.NewNotFoundError("center")
	case errors.Is(err, service.ErrGameNotFound):
		return model.NewNotFoundError("game")
	case errors.Is(err, service.ErrInstanceNotFound):
		return model.NewNotFoundError("game instance")
	case errors.Is(err, service.ErrRentalNotFound):
		return model.NewNotFoundError("rental")
	case errors.Is(err, database.ErrNotFound):
		return model.NewNotFoundError("record")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists),
		errors.Is(err, service.ErrCenterNameExists),
		errors.Is(err, service.ErrGameNameExists),
		errors.Is(err, database.ErrDuplicate):
		return model.NewAlreadyExistsError(err.Error())
	case errors.Is(err, service.ErrCenterInactive),
		errors.Is(err, service.ErrCenterHasNoCoordinator),
		errors.Is(err, service.ErrCenterHasOpenRentals),
		errors.Is(err, service.ErrCoordinatorAssigned),
		errors.Is(err, service.ErrNotCoordinatorRole),
		errors.Is(err, service.ErrNotSuperCoordinatorRole),
		errors.Is(err, service.ErrGameHasInstances),
		errors.Is(err, service.ErrInstanceNotAvailable),
		errors.Is(err, service.ErrInstanceRented),
		errors.Is(err, service.ErrInstanceHasOpenRentals),
		errors.Is(err, service.ErrDuplicateRentalRequest),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrUserHasOpenRentals),
		errors.Is(err, service.ErrStateConflict),
		errors.Is(err, database.ErrConflict):
		return model.NewConflictError(err.Error())

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail):
		return model.NewValidationError([]model.FieldError{{Field: "email", Message: err.Error()}})
	case errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "password", Message: err.Error()}})

	// ===== Limit Errors → 422 =====
	case errors.Is(err, service.ErrRentalLimitReached):
		var le *service.LimitError
		if errors.As(err, &le) {
			return model.NewLimitExceededError("open rentals", le.Limit, le.Current)
		}
		return model.NewLimitExceededError("open rentals", -1, -1)

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// writeServiceError maps err and writes it, logging anything unexpected
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	pd := MapServiceError(err)
	if pd.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	WriteError(w, pd.WithInstance(r.URL.Path))
}
