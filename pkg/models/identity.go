package models

import "github.com/google/uuid"

// Identity is the caller context handed in by the API layer. The engine
// only uses it for scoping reads and for naming notification rooms.
type Identity struct {
	UserID          uuid.UUID  `json:"user_id"`
	RoleName        string     `json:"role_name"`
	ServiceCenterID *uuid.UUID `json:"service_center_id,omitempty"`
	CompanyID       *uuid.UUID `json:"company_id,omitempty"`
}
