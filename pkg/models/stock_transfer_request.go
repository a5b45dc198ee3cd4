package models

import (
	"time"

	"github.com/google/uuid"
)

type TransferRequestType string

const (
	RequestTypeCaseLine         TransferRequestType = "CASELINE"
	RequestTypeWarehouseRestock TransferRequestType = "WAREHOUSE_RESTOCK"
)

func (t TransferRequestType) IsValid() bool {
	return t == RequestTypeCaseLine || t == RequestTypeWarehouseRestock
}

type TransferStatus string

const (
	TransferPendingApproval TransferStatus = "PENDING_APPROVAL"
	TransferApproved        TransferStatus = "APPROVED"
	TransferShipped         TransferStatus = "SHIPPED"
	TransferReceived        TransferStatus = "RECEIVED"
	TransferRejected        TransferStatus = "REJECTED"
	TransferCancelled       TransferStatus = "CANCELLED"
)

func NewTransferStatus(value string) (TransferStatus, bool) {
	status := TransferStatus(value)
	switch status {
	case TransferPendingApproval, TransferApproved, TransferShipped, TransferReceived,
		TransferRejected, TransferCancelled:
		return status, true
	default:
		return "", false
	}
}

type StockTransferRequest struct {
	ID                    uuid.UUID           `json:"id" db:"id"`
	RequestType           TransferRequestType `json:"request_type" db:"request_type"`
	Status                TransferStatus      `json:"status" db:"status"`
	RequestingWarehouseID uuid.UUID           `json:"requesting_warehouse_id" db:"requesting_warehouse_id"`
	RequestedBy           uuid.UUID           `json:"requested_by" db:"requested_by"`
	ApprovedBy            *uuid.UUID          `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt            *time.Time          `json:"approved_at,omitempty" db:"approved_at"`
	ShippedAt             *time.Time          `json:"shipped_at,omitempty" db:"shipped_at"`
	EstimatedDeliveryDate *time.Time          `json:"estimated_delivery_date,omitempty" db:"estimated_delivery_date"`
	ReceivedBy            *uuid.UUID          `json:"received_by,omitempty" db:"received_by"`
	ReceivedAt            *time.Time          `json:"received_at,omitempty" db:"received_at"`
	RejectedBy            *uuid.UUID          `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectionReason       *string             `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CancelledBy           *uuid.UUID          `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancellationReason    *string             `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt             time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at" db:"updated_at"`

	Items []RequestItem `json:"items" db:"-"`

	RequestingServiceCenterID *uuid.UUID `json:"requesting_service_center_id,omitempty" db:"service_center_id" goqu:"skipinsert,skipupdate"`
	RequestingCompanyID       *uuid.UUID `json:"requesting_company_id,omitempty" db:"company_id" goqu:"skipinsert,skipupdate"`
}

type RequestItem struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	RequestID         uuid.UUID  `json:"request_id" db:"request_id"`
	TypeComponentID   uuid.UUID  `json:"type_component_id" db:"type_component_id"`
	QuantityRequested int        `json:"quantity_requested" db:"quantity_requested"`
	CaseLineID        *uuid.UUID `json:"case_line_id,omitempty" db:"case_line_id"`
}

// CaseLineIDs returns the distinct case lines the request was raised for.
func (r *StockTransferRequest) CaseLineIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range r.Items {
		if item.CaseLineID == nil || seen[*item.CaseLineID] {
			continue
		}
		seen[*item.CaseLineID] = true
		ids = append(ids, *item.CaseLineID)
	}
	return ids
}

func (r *StockTransferRequest) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   r.ID,
		ResourceType: "stock_transfer_request",
	}
}
