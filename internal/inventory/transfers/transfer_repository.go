package transfers

import (
	"context"
	"fmt"

	"evinventory/internal/inventory/scope"
	"evinventory/internal/repository"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.StockTransferRequest, error)
	List(ctx context.Context, sc scope.Resolver, status *models.TransferStatus, p models.Pagination) ([]models.StockTransferRequest, int, error)

	Insert(ctx context.Context, tx *goqu.TxDatabase, request *models.StockTransferRequest) error
	// LockRequest locks the request row, then reads its items in order.
	LockRequest(ctx context.Context, tx *goqu.TxDatabase, id uuid.UUID) (*models.StockTransferRequest, error)
	Update(ctx context.Context, tx *goqu.TxDatabase, request *models.StockTransferRequest) error
}

type TransferRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *TransferRepository {
	return &TransferRepository{repository: r}
}

func requestQuery(q repository.Querier) *goqu.SelectDataset {
	return q.From(goqu.T("stock_transfer_requests").As("t")).
		Select(
			goqu.I("t.id"),
			goqu.I("t.request_type"),
			goqu.I("t.status"),
			goqu.I("t.requesting_warehouse_id"),
			goqu.I("t.requested_by"),
			goqu.I("t.approved_by"),
			goqu.I("t.approved_at"),
			goqu.I("t.shipped_at"),
			goqu.I("t.estimated_delivery_date"),
			goqu.I("t.received_by"),
			goqu.I("t.received_at"),
			goqu.I("t.rejected_by"),
			goqu.I("t.rejection_reason"),
			goqu.I("t.cancelled_by"),
			goqu.I("t.cancellation_reason"),
			goqu.I("t.created_at"),
			goqu.I("t.updated_at"),
			goqu.I("w.service_center_id"),
			goqu.I("w.company_id"),
		).
		InnerJoin(goqu.T("warehouses").As("w"), goqu.On(goqu.Ex{"t.requesting_warehouse_id": goqu.I("w.id")}))
}

var requestSortColumns = map[string]string{
	"created_at": "t.created_at",
	"updated_at": "t.updated_at",
	"status":     "t.status",
}

func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StockTransferRequest, error) {
	var request models.StockTransferRequest
	found, err := requestQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"t.id": id}).
		ScanStructContext(ctx, &request)
	if err != nil {
		return nil, fmt.Errorf("unable to select transfer request from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("stock transfer request", id)
	}

	if request.Items, err = r.items(ctx, r.repository.GoquDBWrapper, id); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *TransferRepository) items(ctx context.Context, q repository.Querier, requestID uuid.UUID) ([]models.RequestItem, error) {
	var items []models.RequestItem
	err := q.From("stock_transfer_request_items").
		Select("id", "request_id", "type_component_id", "quantity_requested", "case_line_id").
		Where(goqu.Ex{"request_id": requestID}).
		Order(goqu.C("position").Asc()).
		ScanStructsContext(ctx, &items)
	if err != nil {
		return nil, fmt.Errorf("unable to select transfer request items: %w", err)
	}
	return items, nil
}

func (r *TransferRepository) List(ctx context.Context, sc scope.Resolver, status *models.TransferStatus, p models.Pagination) ([]models.StockTransferRequest, int, error) {
	ds := requestQuery(r.repository.GoquDBWrapper).Where(sc.Expression("w"))
	if status != nil {
		ds = ds.Where(goqu.Ex{"t.status": *status})
	}

	total, err := repository.Count(ctx, ds)
	if err != nil {
		return nil, 0, err
	}

	var requests []models.StockTransferRequest
	if err := repository.Page(ds, p, requestSortColumns).ScanStructsContext(ctx, &requests); err != nil {
		return nil, 0, fmt.Errorf("unable to select transfer requests from database: %w", err)
	}
	return requests, total, nil
}

func (r *TransferRepository) Insert(ctx context.Context, tx *goqu.TxDatabase, request *models.StockTransferRequest) error {
	_, err := tx.Insert("stock_transfer_requests").
		Rows(goqu.Record{
			"id":                      request.ID,
			"request_type":            request.RequestType,
			"status":                  request.Status,
			"requesting_warehouse_id": request.RequestingWarehouseID,
			"requested_by":            request.RequestedBy,
			"created_at":              request.CreatedAt,
			"updated_at":              request.UpdatedAt,
		}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.WrapDBError("failed to insert transfer request", err)
	}

	rows := make([]interface{}, 0, len(request.Items))
	for i, item := range request.Items {
		rows = append(rows, goqu.Record{
			"id":                 item.ID,
			"request_id":         request.ID,
			"type_component_id":  item.TypeComponentID,
			"quantity_requested": item.QuantityRequested,
			"case_line_id":       item.CaseLineID,
			"position":           i,
		})
	}
	if len(rows) > 0 {
		if _, err := tx.Insert("stock_transfer_request_items").Rows(rows...).Executor().ExecContext(ctx); err != nil {
			return custom_error.WrapDBError("failed to insert transfer request items", err)
		}
	}
	return nil
}

func (r *TransferRepository) LockRequest(ctx context.Context, tx *goqu.TxDatabase, id uuid.UUID) (*models.StockTransferRequest, error) {
	var request models.StockTransferRequest
	found, err := requestQuery(tx).
		Where(goqu.Ex{"t.id": id}).
		ForUpdate(exp.Wait, goqu.T("t")).
		ScanStructContext(ctx, &request)
	if err != nil {
		return nil, fmt.Errorf("unable to lock transfer request: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("stock transfer request", id)
	}

	if request.Items, err = r.items(ctx, tx, id); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *TransferRepository) Update(ctx context.Context, tx *goqu.TxDatabase, request *models.StockTransferRequest) error {
	_, err := tx.Update("stock_transfer_requests").
		Set(goqu.Record{
			"status":                  request.Status,
			"approved_by":             request.ApprovedBy,
			"approved_at":             request.ApprovedAt,
			"shipped_at":              request.ShippedAt,
			"estimated_delivery_date": request.EstimatedDeliveryDate,
			"received_by":             request.ReceivedBy,
			"received_at":             request.ReceivedAt,
			"rejected_by":             request.RejectedBy,
			"rejection_reason":        request.RejectionReason,
			"cancelled_by":            request.CancelledBy,
			"cancellation_reason":     request.CancellationReason,
			"updated_at":              request.UpdatedAt,
		}).
		Where(goqu.Ex{"id": request.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.WrapDBError("failed to update transfer request", err)
	}
	return nil
}
