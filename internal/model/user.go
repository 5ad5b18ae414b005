package model

import "time"

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleUser             UserRole = "user"              // Default role, can request rentals
	UserRoleCoordinator      UserRole = "coordinator"       // Runs one center's inventory and rentals
	UserRoleSuperCoordinator UserRole = "super_coordinator" // Oversees several centers
	UserRoleAdmin            UserRole = "admin"             // Full access
)

// IsValid returns true if the role is a known user role
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleCoordinator, UserRoleSuperCoordinator, UserRoleAdmin:
		return true
	default:
		return false
	}
}

// User represents a user account
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Hash      *string    `json:"-"` // Never expose password hash
	Firstname *string    `json:"firstname,omitempty"`
	Lastname  *string    `json:"lastname,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Role      UserRole   `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn time.Time  `json:"updated_on"`
	LoginOn   *time.Time `json:"login_on,omitempty"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// IsCoordinator returns true if the user runs a center
func (u *User) IsCoordinator() bool {
	return u.Role == UserRoleCoordinator
}

// IsSuperCoordinator returns true if the user oversees centers
func (u *User) IsSuperCoordinator() bool {
	return u.Role == UserRoleSuperCoordinator
}

// DisplayName returns "Firstname Lastname", falling back to the email
func (u *User) DisplayName() string {
	name := ""
	if u.Firstname != nil {
		name = *u.Firstname
	}
	if u.Lastname != nil && *u.Lastname != "" {
		if name != "" {
			name += " "
		}
		name += *u.Lastname
	}
	if name == "" {
		return u.Email
	}
	return name
}

// UserFilter narrows the admin user listing
type UserFilter struct {
	Search string
	Role   UserRole
	Page   PageParams
}

// UpdateProfileRequest updates the caller's own profile
type UpdateProfileRequest struct {
	Firstname *string `json:"firstname,omitempty" validate:"omitempty,max=100"`
	Lastname  *string `json:"lastname,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// Validate checks if the request is valid
func (r *UpdateProfileRequest) Validate() []FieldError {
	errs := ValidateStruct(r)
	if r.Firstname == nil && r.Lastname == nil && r.Phone == nil {
		errs = append(errs, FieldError{Field: "body", Message: "at least one field must be provided"})
	}
	return errs
}

// ChangePasswordRequest changes the caller's password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// Validate checks if the request is valid
func (r *ChangePasswordRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// CreateUserRequest is an admin-created account with an explicit role
type CreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email,max=254"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	Firstname *string  `json:"firstname,omitempty" validate:"omitempty,max=100"`
	Lastname  *string  `json:"lastname,omitempty" validate:"omitempty,max=100"`
	Phone     *string  `json:"phone,omitempty" validate:"omitempty,max=30"`
	Role      UserRole `json:"role" validate:"omitempty,oneof=user coordinator super_coordinator admin"`
}

// Validate checks if the request is valid
func (r *CreateUserRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// UpdateUserRoleRequest changes a user's role
type UpdateUserRoleRequest struct {
	Role UserRole `json:"role" validate:"required,oneof=user coordinator super_coordinator admin"`
}

// Validate checks if the request is valid
func (r *UpdateUserRoleRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// UpdateUserStatusRequest activates or deactivates a user
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// Validate checks if the request is valid
func (r *UpdateUserStatusRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// TokenClaims represents extracted JWT claims
type TokenClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}
