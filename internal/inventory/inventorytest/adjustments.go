package inventorytest

import (
	"context"

	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type AdjustmentRepository struct{ s *Store }

func (s *Store) AdjustmentRepository() *AdjustmentRepository { return &AdjustmentRepository{s} }

func (r *AdjustmentRepository) GetByID(_ context.Context, id uuid.UUID) (*models.StockAdjustment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.st.adjustments[id]
	if !ok {
		return nil, custom_error.NewNotFound("stock adjustment", id)
	}
	a = r.s.withAdjustmentWarehouse(a)
	return &a, nil
}

func (r *AdjustmentRepository) List(_ context.Context, sc scope.Resolver, f models.AdjustmentFilter, p models.Pagination) ([]models.StockAdjustment, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.adjustmentsLocked(func(a models.StockAdjustment) bool {
		switch {
		case !sc.Allows(r.s.st.warehouses[a.WarehouseID]):
			return false
		case f.StockID != nil && a.StockID != *f.StockID:
			return false
		case f.WarehouseID != nil && a.WarehouseID != *f.WarehouseID:
			return false
		case f.AdjustmentType != nil && a.AdjustmentType != *f.AdjustmentType:
			return false
		}
		return true
	})
	if p.SortOrder == models.SortDesc {
		list = newestFirst(list)
	}
	page := models.Paginate(list, p)
	return page.Items, page.Total, nil
}

func (r *AdjustmentRepository) FindByStock(_ context.Context, stockID uuid.UUID) ([]models.StockAdjustment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return newestFirst(r.s.adjustmentsLocked(func(a models.StockAdjustment) bool {
		return a.StockID == stockID
	})), nil
}

func (r *AdjustmentRepository) Insert(_ context.Context, _ *goqu.TxDatabase, adjustment *models.StockAdjustment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *adjustment
	stored.WarehouseID = uuid.Nil
	r.s.st.adjustments[adjustment.ID] = stored
	r.s.write()
	return nil
}
