package models

import (
	"time"

	"github.com/google/uuid"
)

type ComponentStatus string

const (
	ComponentInStock   ComponentStatus = "IN_STOCK"
	ComponentReserved  ComponentStatus = "RESERVED"
	ComponentPickedUp  ComponentStatus = "PICKED_UP"
	ComponentInTransit ComponentStatus = "IN_TRANSIT"
	ComponentInstalled ComponentStatus = "INSTALLED"
	ComponentRemoved   ComponentStatus = "REMOVED"
	ComponentDefective ComponentStatus = "DEFECTIVE"
)

// IsLive is true for every status in which the unit still physically
// exists somewhere in the network.
func (s ComponentStatus) IsLive() bool {
	switch s {
	case ComponentInStock, ComponentReserved, ComponentPickedUp, ComponentInTransit, ComponentInstalled:
		return true
	default:
		return false
	}
}

// Component is one physical, serially identified unit.
type Component struct {
	ID                     uuid.UUID       `json:"id" db:"id"`
	SerialNumber           string          `json:"serial_number" db:"serial_number"`
	TypeComponentID        uuid.UUID       `json:"type_component_id" db:"type_component_id"`
	WarehouseID            *uuid.UUID      `json:"warehouse_id,omitempty" db:"warehouse_id"`
	Status                 ComponentStatus `json:"status" db:"status"`
	StockTransferRequestID *uuid.UUID      `json:"stock_transfer_request_id,omitempty" db:"stock_transfer_request_id"`
	VehicleVIN             *string         `json:"vehicle_vin,omitempty" db:"vehicle_vin"`
	InstalledAt            *time.Time      `json:"installed_at,omitempty" db:"installed_at"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// ComponentTransition is the full target placement of a unit. Every field is
// written, so a nil pointer clears the column.
type ComponentTransition struct {
	Status                 ComponentStatus
	WarehouseID            *uuid.UUID
	StockTransferRequestID *uuid.UUID
	VehicleVIN             *string
	InstalledAt            *time.Time
}

func (c *Component) Apply(t ComponentTransition, at time.Time) {
	c.Status = t.Status
	c.WarehouseID = t.WarehouseID
	c.StockTransferRequestID = t.StockTransferRequestID
	c.VehicleVIN = t.VehicleVIN
	c.InstalledAt = t.InstalledAt
	c.UpdatedAt = at
}

type ComponentFilter struct {
	WarehouseID     *uuid.UUID
	TypeComponentID *uuid.UUID
	Status          *ComponentStatus
}
