package model

import "time"

// Game is a catalog entry shared by every center
type Game struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Category     *string   `json:"category,omitempty"`
	MinPlayers   *int      `json:"min_players,omitempty"`
	MaxPlayers   *int      `json:"max_players,omitempty"`
	MinAge       *int      `json:"min_age,omitempty"`
	DurationMins *int      `json:"duration_mins,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
	CreatedOn    time.Time `json:"created_on"`
	UpdatedOn    time.Time `json:"updated_on"`
}

// InstanceStatus is the lending state of a physical copy
type InstanceStatus string

const (
	InstanceStatusAvailable   InstanceStatus = "available"
	InstanceStatusRented      InstanceStatus = "rented"
	InstanceStatusMaintenance InstanceStatus = "maintenance"
	InstanceStatusRetired     InstanceStatus = "retired"
)

// IsValid returns true if the status is known
func (s InstanceStatus) IsValid() bool {
	switch s {
	case InstanceStatusAvailable, InstanceStatusRented, InstanceStatusMaintenance, InstanceStatusRetired:
		return true
	default:
		return false
	}
}

// InstanceCondition is the physical condition of a copy
type InstanceCondition string

const (
	ConditionNew     InstanceCondition = "new"
	ConditionGood    InstanceCondition = "good"
	ConditionFair    InstanceCondition = "fair"
	ConditionWorn    InstanceCondition = "worn"
	ConditionDamaged InstanceCondition = "damaged"
)

// IsValid returns true if the condition is known
func (c InstanceCondition) IsValid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionWorn, ConditionDamaged:
		return true
	default:
		return false
	}
}

// GameInstance is one physical copy of a game held by a center
type GameInstance struct {
	ID        string            `json:"id"`
	GameID    string            `json:"game_id"`
	CenterID  string            `json:"center_id"`
	Status    InstanceStatus    `json:"status"`
	Condition InstanceCondition `json:"condition"`
	Notes     *string           `json:"notes,omitempty"`
	CreatedOn time.Time         `json:"created_on"`
	UpdatedOn time.Time         `json:"updated_on"`
	Game      *Game             `json:"game,omitempty"`
}

// GameFilter narrows catalog listings
type GameFilter struct {
	Search   string
	Category string
	Page     PageParams
}

// InstanceFilter narrows inventory listings
type InstanceFilter struct {
	CenterID string
	GameID   string
	Status   InstanceStatus
	Page     PageParams
}

// CenterGame is a catalog entry as stocked by one center
type CenterGame struct {
	Game      *Game `json:"game"`
	Total     int   `json:"total"`
	Available int   `json:"available"`
}

// GameAvailability is the stock of one game at one active center
type GameAvailability struct {
	CenterID   string `json:"center_id"`
	CenterName string `json:"center_name"`
	City       string `json:"city,omitempty"`
	Total      int    `json:"total"`
	Available  int    `json:"available"`
}

// GameDetail is a game with per-center availability
type GameDetail struct {
	Game         *Game               `json:"game"`
	Availability []*GameAvailability `json:"availability"`
}

// CreateGameRequest adds a catalog entry
type CreateGameRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=60"`
	MinPlayers   *int    `json:"min_players,omitempty" validate:"omitempty,min=1,max=100"`
	MaxPlayers   *int    `json:"max_players,omitempty" validate:"omitempty,min=1,max=100"`
	MinAge       *int    `json:"min_age,omitempty" validate:"omitempty,min=0,max=99"`
	DurationMins *int    `json:"duration_mins,omitempty" validate:"omitempty,min=1,max=1440"`
	ImageURL     *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// Validate checks if the request is valid
func (r *CreateGameRequest) Validate() []FieldError {
	errs := ValidateStruct(r)
	if r.MinPlayers != nil && r.MaxPlayers != nil && *r.MinPlayers > *r.MaxPlayers {
		errs = append(errs, FieldError{Field: "max_players", Message: "max_players must be greater than or equal to min_players"})
	}
	return errs
}

// UpdateGameRequest updates a catalog entry
type UpdateGameRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category     *string `json:"category,omitempty" validate:"omitempty,max=60"`
	MinPlayers   *int    `json:"min_players,omitempty" validate:"omitempty,min=1,max=100"`
	MaxPlayers   *int    `json:"max_players,omitempty" validate:"omitempty,min=1,max=100"`
	MinAge       *int    `json:"min_age,omitempty" validate:"omitempty,min=0,max=99"`
	DurationMins *int    `json:"duration_mins,omitempty" validate:"omitempty,min=1,max=1440"`
	ImageURL     *string `json:"image_url,omitempty" validate:"omitempty,url"`
}

// Validate checks if the request is valid
func (r *UpdateGameRequest) Validate() []FieldError {
	errs := ValidateStruct(r)
	if r.MinPlayers != nil && r.MaxPlayers != nil && *r.MinPlayers > *r.MaxPlayers {
		errs = append(errs, FieldError{Field: "max_players", Message: "max_players must be greater than or equal to min_players"})
	}
	return errs
}

// CreateInstanceRequest adds a copy of a catalog game to the caller's center
type CreateInstanceRequest struct {
	GameID    string            `json:"game_id" validate:"required"`
	Condition InstanceCondition `json:"condition,omitempty" validate:"omitempty,oneof=new good fair worn damaged"`
	Notes     *string           `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Validate checks if the request is valid
func (r *CreateInstanceRequest) Validate() []FieldError {
	return ValidateStruct(r)
}

// UpdateInstanceRequest changes a copy's status, condition or notes. Setting
// status to rented is reserved to rental approval.
type UpdateInstanceRequest struct {
	Status    *InstanceStatus    `json:"status,omitempty" validate:"omitempty,oneof=available maintenance retired"`
	Condition *InstanceCondition `json:"condition,omitempty" validate:"omitempty,oneof=new good fair worn damaged"`
	Notes     *string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// Validate checks if the request is valid
func (r *UpdateInstanceRequest) Validate() []FieldError {
	errs := ValidateStruct(r)
	if r.Status == nil && r.Condition == nil && r.Notes == nil {
		errs = append(errs, FieldError{Field: "body", Message: "at least one field must be provided"})
	}
	return errs
}
