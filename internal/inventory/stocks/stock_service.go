package stocks

import (
	"context"

	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger is what the other inventory modules need from the stock book:
// row locks and the single way to change the counters.
type Ledger interface {
	GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	LockStocks(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Stock, error)
	LockStocksByType(ctx context.Context, tx *goqu.TxDatabase, typeComponentID uuid.UUID, excludeWarehouseID *uuid.UUID) ([]models.Stock, error)
	FindOrCreateForUpdate(ctx context.Context, tx *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error)
	ApplyDelta(ctx context.Context, tx *goqu.TxDatabase, stock *models.Stock, deltaStock, deltaReserved int) error
}

type StockService struct {
	r      Repository
	logger *zap.Logger
}

func NewService(r Repository, logger *zap.Logger) *StockService {
	return &StockService{r: r, logger: logger}
}

func (s *StockService) FindStock(ctx context.Context, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error) {
	return s.r.FindByWarehouseAndType(ctx, warehouseID, typeComponentID)
}

// GetStock loads a stock row visible to the caller's scope.
func (s *StockService) GetStock(ctx context.Context, sc scope.Resolver, id uuid.UUID) (*models.Stock, error) {
	stock, err := s.r.GetStock(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(stock.Warehouse()) {
		return nil, custom_error.NewNotFound("stock", id)
	}
	return stock, nil
}

func (s *StockService) GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	return s.r.GetWarehouse(ctx, id)
}

func (s *StockService) List(ctx context.Context, sc scope.Resolver, filter models.StockFilter, p models.Pagination) (models.Page[models.Stock], error) {
	p = p.Normalize("updated_at", "created_at", "updated_at", "quantity_in_stock")
	stocks, total, err := s.r.List(ctx, sc, filter, p)
	if err != nil {
		return models.Page[models.Stock]{}, err
	}
	return models.NewPage(stocks, total, p), nil
}

func (s *StockService) SummaryByWarehouseFilter(ctx context.Context, sc scope.Resolver, filter models.StockFilter) ([]models.WarehouseStockSummary, error) {
	summaries, err := s.r.Summary(ctx, sc, filter)
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []models.WarehouseStockSummary{}
	}
	return summaries, nil
}

func (s *StockService) UpdateReorderPoint(ctx context.Context, sc scope.Resolver, id uuid.UUID, reorderPoint int) (*models.Stock, error) {
	if reorderPoint < 0 {
		return nil, custom_error.NewBadRequest("reorder_point", "reorder point must not be negative, got %d", reorderPoint)
	}
	if _, err := s.GetStock(ctx, sc, id); err != nil {
		return nil, err
	}
	if err := s.r.UpdateReorderPoint(ctx, id, reorderPoint); err != nil {
		return nil, err
	}
	return s.r.GetStock(ctx, id)
}

func (s *StockService) LockStocks(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Stock, error) {
	return s.r.LockStocks(ctx, tx, ids)
}

func (s *StockService) LockStocksByType(ctx context.Context, tx *goqu.TxDatabase, typeComponentID uuid.UUID, excludeWarehouseID *uuid.UUID) ([]models.Stock, error) {
	return s.r.LockStocksByType(ctx, tx, typeComponentID, excludeWarehouseID)
}

func (s *StockService) FindOrCreateForUpdate(ctx context.Context, tx *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error) {
	return s.r.FindOrCreateForUpdate(ctx, tx, warehouseID, typeComponentID)
}

// ApplyDelta checks the locked row in memory, writes the guarded update and
// leaves stock holding the new counters. A violation is a bookkeeping defect
// and is logged as such before it aborts the transaction.
func (s *StockService) ApplyDelta(ctx context.Context, tx *goqu.TxDatabase, stock *models.Stock, deltaStock, deltaReserved int) error {
	next, err := stock.WithDelta(deltaStock, deltaReserved)
	if err != nil {
		s.logInvariantViolation(stock, deltaStock, deltaReserved, err)
		return err
	}

	if err := s.r.ApplyDelta(ctx, tx, stock.ID, deltaStock, deltaReserved); err != nil {
		if custom_error.IsInvariantViolation(err) {
			s.logInvariantViolation(stock, deltaStock, deltaReserved, err)
		}
		return err
	}

	*stock = next
	return nil
}

func (s *StockService) logInvariantViolation(stock *models.Stock, deltaStock, deltaReserved int, err error) {
	s.logger.Error("Stock invariant violation",
		zap.String("stock_id", stock.ID.String()),
		zap.Int("quantity_in_stock", stock.QuantityInStock),
		zap.Int("quantity_reserved", stock.QuantityReserved),
		zap.Int("delta_stock", deltaStock),
		zap.Int("delta_reserved", deltaReserved),
		zap.Error(err),
	)
}
