// Package model defines domain entities and request types for the Ludoteca API.
//
// # Domain Entities
//
//   - User: account with a UserRole (user, coordinator, super_coordinator, admin)
//   - Center: lending location, active only while a coordinator is assigned
//   - Game: catalog entry shared by all centers
//   - GameInstance: physical copy of a Game held by a Center
//   - Rental: a user's request for, and loan of, one GameInstance
//
// Record links are carried as "table:id" strings (CoordinatorID, GameID, ...).
//
// # Rental Lifecycle
//
//	pending --approve--> active --return--> returned
//	   \
//	    `--reject/cancel/expire--> cancelled
//
// RentalStatus.CanTransitionTo encodes the allowed moves.
//
// # Validation
//
// Request types carry go-playground/validator tags; each exposes
// Validate() []FieldError, which reports errors by JSON field name.
//
// # Error Types
//
// RFC 9457 Problem Details are defined in errors.go and are written inside the
// {"success": false, "error": {...}} envelope.
package model
