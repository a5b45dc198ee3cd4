package models

import (
	"time"

	custom_error "evinventory/pkg/errors"

	"github.com/google/uuid"
)

// Stock is the quantity record of one component type in one warehouse.
type Stock struct {
	ID               uuid.UUID `json:"id" db:"id"`
	WarehouseID      uuid.UUID `json:"warehouse_id" db:"warehouse_id"`
	TypeComponentID  uuid.UUID `json:"type_component_id" db:"type_component_id"`
	QuantityInStock  int       `json:"quantity_in_stock" db:"quantity_in_stock"`
	QuantityReserved int       `json:"quantity_reserved" db:"quantity_reserved"`
	ReorderPoint     int       `json:"reorder_point" db:"reorder_point"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`

	// Owner of the warehouse, joined in on reads.
	ServiceCenterID *uuid.UUID `json:"service_center_id,omitempty" db:"service_center_id" goqu:"skipinsert,skipupdate"`
	CompanyID       *uuid.UUID `json:"company_id,omitempty" db:"company_id" goqu:"skipinsert,skipupdate"`
}

func (s Stock) QuantityAvailable() int {
	return s.QuantityInStock - s.QuantityReserved
}

func (s Stock) IsLow() bool {
	return s.QuantityAvailable() <= s.ReorderPoint
}

// WithDelta returns the stock after applying both deltas, or an
// InvariantViolation when 0 <= reserved <= inStock would no longer hold.
func (s Stock) WithDelta(deltaStock, deltaReserved int) (Stock, error) {
	next := s
	next.QuantityInStock += deltaStock
	next.QuantityReserved += deltaReserved

	if next.QuantityInStock < 0 || next.QuantityReserved < 0 || next.QuantityReserved > next.QuantityInStock {
		return s, custom_error.NewInvariantViolation(
			"stock %s: applying (%+d, %+d) to (in_stock=%d, reserved=%d) gives (in_stock=%d, reserved=%d)",
			s.ID, deltaStock, deltaReserved, s.QuantityInStock, s.QuantityReserved,
			next.QuantityInStock, next.QuantityReserved,
		)
	}

	return next, nil
}

// Warehouse returns the owning warehouse as far as the joined fields know it.
func (s Stock) Warehouse() Warehouse {
	return Warehouse{
		ID:              s.WarehouseID,
		ServiceCenterID: s.ServiceCenterID,
		CompanyID:       s.CompanyID,
	}
}

func (s *Stock) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   s.ID,
		ResourceType: "stock",
	}
}

type StockFilter struct {
	WarehouseID     *uuid.UUID
	TypeComponentID *uuid.UUID
	LowStockOnly    bool
}

// WarehouseStockSummary aggregates all stock rows of one warehouse.
type WarehouseStockSummary struct {
	WarehouseID      uuid.UUID `json:"warehouse_id" db:"warehouse_id"`
	WarehouseName    string    `json:"warehouse_name" db:"warehouse_name"`
	ComponentTypes   int       `json:"component_types" db:"component_types"`
	QuantityInStock  int       `json:"quantity_in_stock" db:"quantity_in_stock"`
	QuantityReserved int       `json:"quantity_reserved" db:"quantity_reserved"`
	LowStockCount    int       `json:"low_stock_count" db:"low_stock_count"`
}

func (s WarehouseStockSummary) QuantityAvailable() int {
	return s.QuantityInStock - s.QuantityReserved
}
