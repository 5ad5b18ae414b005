package model

import (
	"strings"
	"time"
)

// RentalStatus is the lifecycle state of a rental
type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "pending"
	RentalStatusActive    RentalStatus = "active"
	RentalStatusReturned  RentalStatus = "returned"
	RentalStatusCancelled RentalStatus = "cancelled"
)

// Cancel reasons recorded by the system rather than a person
const (
	CancelReasonExpired          = "expired"
	CancelReasonInstanceAssigned = "instance rented to another request"
	CancelReasonByUser           = "cancelled by user"
)

// IsValid returns true if the status is known
func (s RentalStatus) IsValid() bool {
	switch s {
	case RentalStatusPending, RentalStatusActive, RentalStatusReturned, RentalStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible
func (s RentalStatus) IsTerminal() bool {
	return s == RentalStatusReturned || s == RentalStatusCancelled
}

// IsOpen reports whether the rental still holds (or claims) an instance
func (s RentalStatus) IsOpen() bool {
	return s == RentalStatusPending || s == RentalStatusActive
}

// CanTransitionTo reports whether moving from s to next is allowed:
// pending -> active, pending -> cancelled, active -> returned.
func (s RentalStatus) CanTransitionTo(next RentalStatus) bool {
	switch s {
	case RentalStatusPending:
		return next == RentalStatusActive || next == RentalStatusCancelled
	case RentalStatusActive:
		return next == RentalStatusReturned
	default:
		return false
	}
}

// Rental is a user's request for, and loan of, one game instance
type Rental struct {
	ID                string             `json:"id"`
	UserID            string             `json:"user_id"`
	GameInstanceID    string             `json:"game_instance_id"`
	GameID            string             `json:"game_id"`
	CenterID          string             `json:"center_id"`
	Status            RentalStatus       `json:"status"`
	Notes             *string            `json:"notes,omitempty"`
	RequestedOn       time.Time          `json:"requested_on"`
	ApprovedOn        *time.Time         `json:"approved_on,omitempty"`
	ApprovedBy        *string            `json:"approved_by,omitempty"`
	DueDate           *time.Time         `json:"due_date,omitempty"`
	ReturnedOn        *time.Time         `json:"returned_on,omitempty"`
	ReturnedCondition *InstanceCondition `json:"returned_condition,omitempty"`
	CancelledOn       *time.Time         `json:"cancelled_on,omitempty"`
	CancelReason      *string            `json:"cancel_reason,omitempty"`
	CreatedOn         time.Time          `json:"created_on"`
	UpdatedOn         time.Time          `json:"updated_on"`
	Game              *Game              `json:"game,omitempty"`
	Center            *Center            `json:"center,omitempty"`
}

// IsOverdue reports whether an active rental is past its due date
func (r *Rental) IsOverdue(now time.Time) bool {
	return r.Status == RentalStatusActive && r.DueDate != nil && now.After(*r.DueDate)
}

// RentalFilter narrows rental listings
type RentalFilter struct {
	UserID   string
	CenterID string
	Status   RentalStatus
	Page     PageParams
}

// CreateRentalRequest requests a specific game instance
type CreateRentalRequest struct {
	GameInstanceID string  `json:"game_instance_id" validate:"required"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Validate checks if the request is valid
func (r *CreateRentalRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// ApproveRentalRequest approves a pending rental. DueDate defaults to the
// configured loan period.
type ApproveRentalRequest struct {
	DueDate *time.Time `json:"due_date,omitempty"`
}

// Validate checks if the request is valid
func (r *ApproveRentalRequest) Validate(now time.Time) []FieldError {
	if r.DueDate != nil && !r.DueDate.After(now) {
		return []FieldError{{Field: "due_date", Message: "due_date must be in the future"}}
	}
	return nil
}

// RejectRentalRequest rejects a pending rental
type RejectRentalRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Validate checks if the request is valid. A reason of only whitespace
// counts as missing.
func (r *RejectRentalRequest) Validate() []FieldError {
	if strings.TrimSpace(r.Reason) == "" {
		return []FieldError{{Field: "reason", Message: "reason is required"}}
	}
	return ValidateStruct(r)
}

// ReturnRentalRequest closes an active rental
type ReturnRentalRequest struct {
	Condition *InstanceCondition `json:"condition,omitempty" validate:"omitempty,oneof=new good fair worn damaged"`
	Notes     *string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Validate checks if the request is valid
func (r *ReturnRentalRequest) Validate() []FieldError {
	return ValidateStruct(r)
}
