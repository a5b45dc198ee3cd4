package models

import (
	"time"

	"github.com/google/uuid"
)

type AdjustmentType string

const (
	AdjustmentIn  AdjustmentType = "IN"
	AdjustmentOut AdjustmentType = "OUT"
)

// StockAdjustment is an append-only manual correction of a stock row.
type StockAdjustment struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	StockID        uuid.UUID      `json:"stock_id" db:"stock_id"`
	AdjustmentType AdjustmentType `json:"adjustment_type" db:"adjustment_type"`
	Quantity       int            `json:"quantity" db:"quantity"`
	Reason         string         `json:"reason" db:"reason"`
	Note           *string        `json:"note,omitempty" db:"note"`
	AdjustedBy     uuid.UUID      `json:"adjusted_by" db:"adjusted_by"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`

	WarehouseID uuid.UUID `json:"warehouse_id" db:"warehouse_id" goqu:"skipinsert,skipupdate"`
}

func (a *StockAdjustment) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "stock_adjustment",
	}
}

type AdjustmentFilter struct {
	StockID        *uuid.UUID
	WarehouseID    *uuid.UUID
	AdjustmentType *AdjustmentType
}
