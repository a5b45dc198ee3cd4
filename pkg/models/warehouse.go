package models

import "github.com/google/uuid"

type Warehouse struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	Name            string     `json:"name" db:"name"`
	ServiceCenterID *uuid.UUID `json:"service_center_id,omitempty" db:"service_center_id"`
	CompanyID       *uuid.UUID `json:"company_id,omitempty" db:"company_id"`
}

// IsCompanyWarehouse reports whether the warehouse belongs to the
// manufacturer rather than to a service center.
func (w Warehouse) IsCompanyWarehouse() bool {
	return w.ServiceCenterID == nil && w.CompanyID != nil
}
