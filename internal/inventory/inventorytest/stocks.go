package inventorytest

import (
	"context"
	"sort"

	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type StockRepository struct{ s *Store }

func (s *Store) StockRepository() *StockRepository { return &StockRepository{s} }

func (s *Store) withOwner(st models.Stock) models.Stock {
	w := s.st.warehouses[st.WarehouseID]
	st.ServiceCenterID = w.ServiceCenterID
	st.CompanyID = w.CompanyID
	return st
}

func (r *StockRepository) GetStock(_ context.Context, id uuid.UUID) (*models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.st.stocks[id]
	if !ok {
		return nil, custom_error.NewNotFound("stock", id)
	}
	st = r.s.withOwner(st)
	return &st, nil
}

func (r *StockRepository) FindByWarehouseAndType(_ context.Context, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if st, ok := r.s.findStockLocked(warehouseID, typeComponentID); ok {
		return &st, nil
	}
	return nil, custom_error.NewNotFound("stock", warehouseID)
}

func (s *Store) findStockLocked(warehouseID, typeComponentID uuid.UUID) (models.Stock, bool) {
	for _, st := range s.st.stocks {
		if st.WarehouseID == warehouseID && st.TypeComponentID == typeComponentID {
			return s.withOwner(st), true
		}
	}
	return models.Stock{}, false
}

func (r *StockRepository) GetStocksByIDs(_ context.Context, ids []uuid.UUID) ([]models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.stocksByIDsLocked(ids), nil
}

func (s *Store) stocksByIDsLocked(ids []uuid.UUID) []models.Stock {
	var stocks []models.Stock
	for _, id := range ids {
		if st, ok := s.st.stocks[id]; ok {
			stocks = append(stocks, s.withOwner(st))
		}
	}
	sortByID(stocks, func(st models.Stock) uuid.UUID { return st.ID })
	return stocks
}

func (r *StockRepository) List(_ context.Context, sc scope.Resolver, filter models.StockFilter, p models.Pagination) ([]models.Stock, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stocks []models.Stock
	for _, st := range r.s.st.stocks {
		st = r.s.withOwner(st)
		if !sc.Allows(r.s.st.warehouses[st.WarehouseID]) {
			continue
		}
		if filter.WarehouseID != nil && st.WarehouseID != *filter.WarehouseID {
			continue
		}
		if filter.TypeComponentID != nil && st.TypeComponentID != *filter.TypeComponentID {
			continue
		}
		if filter.LowStockOnly && !st.IsLow() {
			continue
		}
		stocks = append(stocks, st)
	}
	sort.Slice(stocks, func(i, j int) bool {
		less := stocks[i].UpdatedAt.Before(stocks[j].UpdatedAt)
		if p.SortOrder == models.SortDesc {
			return stocks[j].UpdatedAt.Before(stocks[i].UpdatedAt)
		}
		return less
	})
	page := models.Paginate(stocks, p)
	return page.Items, page.Total, nil
}

func (r *StockRepository) Summary(_ context.Context, sc scope.Resolver, filter models.StockFilter) ([]models.WarehouseStockSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var summaries []models.WarehouseStockSummary
	for _, w := range r.s.st.warehouses {
		if !sc.Allows(w) || (filter.WarehouseID != nil && w.ID != *filter.WarehouseID) {
			continue
		}
		summary := models.WarehouseStockSummary{WarehouseID: w.ID, WarehouseName: w.Name}
		for _, st := range r.s.st.stocks {
			if st.WarehouseID != w.ID {
				continue
			}
			if filter.TypeComponentID != nil && st.TypeComponentID != *filter.TypeComponentID {
				continue
			}
			summary.ComponentTypes++
			summary.QuantityInStock += st.QuantityInStock
			summary.QuantityReserved += st.QuantityReserved
			if st.IsLow() {
				summary.LowStockCount++
			}
		}
		if filter.LowStockOnly && summary.LowStockCount == 0 {
			continue
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].WarehouseName < summaries[j].WarehouseName })
	return summaries, nil
}

func (r *StockRepository) GetWarehouse(_ context.Context, id uuid.UUID) (*models.Warehouse, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	w, ok := r.s.st.warehouses[id]
	if !ok {
		return nil, custom_error.NewNotFound("warehouse", id)
	}
	return &w, nil
}

func (r *StockRepository) UpdateReorderPoint(_ context.Context, id uuid.UUID, reorderPoint int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.st.stocks[id]
	if !ok {
		return custom_error.NewNotFound("stock", id)
	}
	st.ReorderPoint = reorderPoint
	st.UpdatedAt = r.s.tick()
	r.s.st.stocks[id] = st
	r.s.write()
	return nil
}

func (r *StockRepository) LockStocks(ctx context.Context, _ *goqu.TxDatabase, ids []uuid.UUID) ([]models.Stock, error) {
	return r.GetStocksByIDs(ctx, ids)
}

func (r *StockRepository) LockStocksByType(_ context.Context, _ *goqu.TxDatabase, typeComponentID uuid.UUID, excludeWarehouseID *uuid.UUID) ([]models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var stocks []models.Stock
	for _, st := range r.s.st.stocks {
		if st.TypeComponentID != typeComponentID {
			continue
		}
		if excludeWarehouseID != nil && st.WarehouseID == *excludeWarehouseID {
			continue
		}
		stocks = append(stocks, r.s.withOwner(st))
	}
	sortByID(stocks, func(st models.Stock) uuid.UUID { return st.ID })
	return stocks, nil
}

func (r *StockRepository) FindOrCreateForUpdate(_ context.Context, _ *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if st, ok := r.s.findStockLocked(warehouseID, typeComponentID); ok {
		return &st, nil
	}
	if _, ok := r.s.st.warehouses[warehouseID]; !ok {
		return nil, custom_error.NewNotFound("warehouse", warehouseID)
	}
	now := r.s.tick()
	st := models.Stock{
		ID:              uuid.New(),
		WarehouseID:     warehouseID,
		TypeComponentID: typeComponentID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	r.s.st.stocks[st.ID] = st
	r.s.write()
	st = r.s.withOwner(st)
	return &st, nil
}

// ApplyDelta enforces the same guard as the SQL statement.
func (r *StockRepository) ApplyDelta(_ context.Context, _ *goqu.TxDatabase, id uuid.UUID, deltaStock, deltaReserved int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.st.stocks[id]
	if !ok {
		return custom_error.NewInvariantViolation("stock %s rejected delta (%+d, %+d)", id, deltaStock, deltaReserved)
	}
	next, err := st.WithDelta(deltaStock, deltaReserved)
	if err != nil {
		return err
	}
	next.UpdatedAt = r.s.tick()
	r.s.st.stocks[id] = next
	r.s.write()
	return nil
}
