package model

import "time"

// Center is a physical location that lends games. A center can only be
// active while it has a coordinator.
type Center struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Address            *string   `json:"address,omitempty"`
	City               *string   `json:"city,omitempty"`
	Phone              *string   `json:"phone,omitempty"`
	Email              *string   `json:"email,omitempty"`
	Description        *string   `json:"description,omitempty"`
	CoordinatorID      *string   `json:"coordinator_id,omitempty"`
	SuperCoordinatorID *string   `json:"super_coordinator_id,omitempty"`
	IsActive           bool      `json:"is_active"`
	CreatedOn          time.Time `json:"created_on"`
	UpdatedOn          time.Time `json:"updated_on"`
}

// HasCoordinator reports whether a coordinator is assigned
func (c *Center) HasCoordinator() bool {
	return c.CoordinatorID != nil && *c.CoordinatorID != ""
}

// IsOverseenBy reports whether userID is the center's super coordinator
func (c *Center) IsOverseenBy(userID string) bool {
	return c.SuperCoordinatorID != nil && *c.SuperCoordinatorID == userID
}

// CenterFilter narrows center listings
type CenterFilter struct {
	Search             string
	City               string
	ActiveOnly         bool
	SuperCoordinatorID string
	Page               PageParams
}

// CreateCenterRequest creates a center. New centers start inactive; the
// optional coordinators are assigned right after creation.
type CreateCenterRequest struct {
	Name               string  `json:"name" validate:"required,min=2,max=120"`
	Address            *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City               *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Phone              *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email              *string `json:"email,omitempty" validate:"omitempty,email"`
	Description        *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	CoordinatorID      *string `json:"coordinator_id,omitempty"`
	SuperCoordinatorID *string `json:"super_coordinator_id,omitempty"`
}

// Validate checks if the request is valid
func (r *CreateCenterRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// UpdateCenterRequest updates a center's descriptive fields
type UpdateCenterRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Address     *string `json:"address,omitempty" validate:"omitempty,max=255"`
	City        *string `json:"city,omitempty" validate:"omitempty,max=100"`
	Phone       *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Email       *string `json:"email,omitempty" validate:"omitempty,email"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// Validate checks if the request is valid
func (r *UpdateCenterRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// IsEmpty reports whether the update carries no fields
func (r *UpdateCenterRequest) IsEmpty() bool {
	return r.Name == nil && r.Address == nil && r.City == nil &&
		r.Phone == nil && r.Email == nil && r.Description == nil
}

// AssignUserRequest names the user to assign as coordinator or super coordinator
type AssignUserRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// Validate checks if the request is valid
func (r *AssignUserRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// CoordinatorSummary lists a coordinator with their current assignment
type CoordinatorSummary struct {
	User   *User   `json:"user"`
	Center *Center `json:"center,omitempty"`
}

// CenterStats aggregates inventory and rental counts for one center
type CenterStats struct {
	CenterID           string `json:"center_id"`
	CenterName         string `json:"center_name"`
	IsActive           bool   `json:"is_active"`
	Instances          int    `json:"instances"`
	AvailableInstances int    `json:"available_instances"`
	PendingRentals     int    `json:"pending_rentals"`
	ActiveRentals      int    `json:"active_rentals"`
	OverdueRentals     int    `json:"overdue_rentals"`
}

// SystemStats is the admin dashboard summary
type SystemStats struct {
	Users          map[UserRole]int `json:"users"`
	Centers        int              `json:"centers"`
	ActiveCenters  int              `json:"active_centers"`
	Games          int              `json:"games"`
	Instances      int              `json:"instances"`
	Rentals        map[string]int   `json:"rentals"`
	OverdueRentals int              `json:"overdue_rentals"`
}
