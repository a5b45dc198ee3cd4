package inventorytest

import (
	"context"

	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type TransferRepository struct{ s *Store }

func (s *Store) TransferRepository() *TransferRepository { return &TransferRepository{s} }

func (r *TransferRepository) GetByID(_ context.Context, id uuid.UUID) (*models.StockTransferRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	request, ok := r.s.st.requests[id]
	if !ok {
		return nil, custom_error.NewNotFound("stock transfer request", id)
	}
	request = r.s.withRequestOwner(request)
	return &request, nil
}

func (r *TransferRepository) List(_ context.Context, sc scope.Resolver, status *models.TransferStatus, p models.Pagination) ([]models.StockTransferRequest, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var list []models.StockTransferRequest
	for _, request := range r.s.st.requests {
		if !sc.Allows(r.s.st.warehouses[request.RequestingWarehouseID]) {
			continue
		}
		if status != nil && request.Status != *status {
			continue
		}
		list = append(list, r.s.withRequestOwner(request))
	}
	sortByCreated(list, func(t models.StockTransferRequest) (int64, uuid.UUID) { return t.CreatedAt.UnixNano(), t.ID })
	if p.SortOrder == models.SortDesc {
		list = newestFirst(list)
	}
	page := models.Paginate(list, p)
	return page.Items, page.Total, nil
}

func (r *TransferRepository) Insert(_ context.Context, _ *goqu.TxDatabase, request *models.StockTransferRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.warehouses[request.RequestingWarehouseID]; !ok {
		return custom_error.WrapDBError("failed to insert transfer request",
			&pq.Error{Code: "23503", Constraint: "stock_transfer_requests_requesting_warehouse_id_fkey"})
	}
	stored := *request
	stored.Items = make([]models.RequestItem, len(request.Items))
	for i, item := range request.Items {
		item.RequestID = request.ID
		stored.Items[i] = item
	}
	stored.RequestingServiceCenterID, stored.RequestingCompanyID = nil, nil
	r.s.st.requests[request.ID] = stored
	r.s.write()
	return nil
}

func (r *TransferRepository) LockRequest(ctx context.Context, _ *goqu.TxDatabase, id uuid.UUID) (*models.StockTransferRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *TransferRepository) Update(_ context.Context, _ *goqu.TxDatabase, request *models.StockTransferRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.st.requests[request.ID]
	if !ok {
		return nil
	}
	items := current.Items
	current = *request
	current.Items = items
	current.RequestingServiceCenterID, current.RequestingCompanyID = nil, nil
	r.s.st.requests[request.ID] = current
	r.s.write()
	return nil
}
