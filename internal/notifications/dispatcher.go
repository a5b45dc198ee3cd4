package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evinventory/pkg/roles"

	"github.com/google/uuid"
)

// Event names broadcast by the inventory engine.
const (
	EventTransferCreated   = "stock_transfer_request_created"
	EventTransferApproved  = "stock_transfer_request_approved"
	EventTransferShipped   = "stock_transfer_request_shipped"
	EventTransferReceived  = "stock_transfer_request_received"
	EventTransferRejected  = "stock_transfer_request_rejected"
	EventTransferCancelled = "stock_transfer_request_cancelled"
	EventStockAdjusted     = "stock_adjusted"
	EventLowStockAlert     = "low_stock_alert"
)

// Dispatcher delivers a named event to one or more rooms. Callers treat it as
// fire-and-forget and only log the returned error.
type Dispatcher interface {
	SendToRoom(ctx context.Context, room, event string, payload interface{}) error
	SendToRooms(ctx context.Context, rooms []string, event string, payload interface{}) error
}

// Envelope is the wire form every backend publishes.
type Envelope struct {
	ID        uuid.UUID   `json:"id"`
	Room      string      `json:"room"`
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	CreatedAt time.Time   `json:"created_at"`
}

func newEnvelope(room, event string, payload interface{}) Envelope {
	return Envelope{
		ID:        uuid.New(),
		Room:      room,
		Event:     event,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// sendEach fans out to send and joins the per-room failures.
func sendEach(rooms []string, send func(room string) error) error {
	var errs []error
	for _, room := range rooms {
		if err := send(room); err != nil {
			errs = append(errs, fmt.Errorf("room %s: %w", room, err))
		}
	}
	return errors.Join(errs...)
}

func ServiceCenterRoom(serviceCenterID uuid.UUID) string {
	return "service_center:" + serviceCenterID.String()
}

func ServiceCenterRoleRoom(serviceCenterID uuid.UUID, role roles.Role) string {
	return ServiceCenterRoom(serviceCenterID) + ":" + role.String()
}

func CompanyRoom(companyID uuid.UUID) string {
	return "company:" + companyID.String()
}

func CompanyRoleRoom(companyID uuid.UUID, role roles.Role) string {
	return CompanyRoom(companyID) + ":" + role.String()
}

// OwnerRoom names the room of whoever owns a warehouse: its service center
// when set, otherwise its company. Empty when neither is known.
func OwnerRoom(serviceCenterID, companyID *uuid.UUID) string {
	switch {
	case serviceCenterID != nil:
		return ServiceCenterRoom(*serviceCenterID)
	case companyID != nil:
		return CompanyRoom(*companyID)
	default:
		return ""
	}
}

// CoordinatorRoom names the parts coordinators of a warehouse owner.
func CoordinatorRoom(serviceCenterID, companyID *uuid.UUID) string {
	switch {
	case serviceCenterID != nil:
		return ServiceCenterRoleRoom(*serviceCenterID, roles.PartsCoordinatorServiceCenter)
	case companyID != nil:
		return CompanyRoleRoom(*companyID, roles.PartsCoordinatorCompany)
	default:
		return ""
	}
}
