package models

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "RESERVED"
	ReservationPickedUp  ReservationStatus = "PICKED_UP"
	ReservationInstalled ReservationStatus = "INSTALLED"
	ReservationShipped   ReservationStatus = "SHIPPED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationReleased  ReservationStatus = "RELEASED"
)

func NewReservationStatus(value string) (ReservationStatus, bool) {
	status := ReservationStatus(value)
	switch status {
	case ReservationReserved, ReservationPickedUp, ReservationInstalled, ReservationShipped,
		ReservationCancelled, ReservationReleased:
		return status, true
	default:
		return "", false
	}
}

// Reservation claims stock for one consumer: a case line or a line of a
// transfer request.
type Reservation struct {
	ID                     uuid.UUID         `json:"id" db:"id"`
	StockID                uuid.UUID         `json:"stock_id" db:"stock_id"`
	ComponentID            *uuid.UUID        `json:"component_id,omitempty" db:"component_id"`
	CaseLineID             *uuid.UUID        `json:"case_line_id,omitempty" db:"case_line_id"`
	StockTransferRequestID *uuid.UUID        `json:"stock_transfer_request_id,omitempty" db:"stock_transfer_request_id"`
	RequestItemID          *uuid.UUID        `json:"request_item_id,omitempty" db:"request_item_id"`
	QuantityReserved       int               `json:"quantity_reserved" db:"quantity_reserved"`
	Status                 ReservationStatus `json:"status" db:"status"`
	PickedUpBy             *uuid.UUID        `json:"picked_up_by,omitempty" db:"picked_up_by"`
	PickedUpAt             *time.Time        `json:"picked_up_at,omitempty" db:"picked_up_at"`
	InstalledAt            *time.Time        `json:"installed_at,omitempty" db:"installed_at"`
	OldComponentSerial     *string           `json:"old_component_serial,omitempty" db:"old_component_serial"`
	CreatedAt              time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time         `json:"updated_at" db:"updated_at"`

	WarehouseID uuid.UUID `json:"warehouse_id" db:"warehouse_id" goqu:"skipinsert,skipupdate"`
}

type ReservationFilter struct {
	CaseLineID   *uuid.UUID
	RequestID    *uuid.UUID
	WarehouseID  *uuid.UUID
	TechnicianID *uuid.UUID
	Status       *ReservationStatus
}
