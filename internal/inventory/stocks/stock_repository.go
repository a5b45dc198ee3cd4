package stocks

import (
	"context"
	"fmt"
	"time"

	"evinventory/internal/inventory/scope"
	"evinventory/internal/repository"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

type Repository interface {
	GetStock(ctx context.Context, id uuid.UUID) (*models.Stock, error)
	FindByWarehouseAndType(ctx context.Context, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error)
	GetStocksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Stock, error)
	List(ctx context.Context, sc scope.Resolver, filter models.StockFilter, p models.Pagination) ([]models.Stock, int, error)
	Summary(ctx context.Context, sc scope.Resolver, filter models.StockFilter) ([]models.WarehouseStockSummary, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	UpdateReorderPoint(ctx context.Context, id uuid.UUID, reorderPoint int) error

	LockStocks(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Stock, error)
	LockStocksByType(ctx context.Context, tx *goqu.TxDatabase, typeComponentID uuid.UUID, excludeWarehouseID *uuid.UUID) ([]models.Stock, error)
	FindOrCreateForUpdate(ctx context.Context, tx *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error)
	ApplyDelta(ctx context.Context, tx *goqu.TxDatabase, id uuid.UUID, deltaStock, deltaReserved int) error
}

type StockRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *StockRepository {
	return &StockRepository{repository: r}
}

var stockSortColumns = map[string]string{
	"created_at":        "s.created_at",
	"updated_at":        "s.updated_at",
	"quantity_in_stock": "s.quantity_in_stock",
}

func stockQuery(q repository.Querier) *goqu.SelectDataset {
	return q.From(goqu.T("stocks").As("s")).
		Select(
			goqu.I("s.id"),
			goqu.I("s.warehouse_id"),
			goqu.I("s.type_component_id"),
			goqu.I("s.quantity_in_stock"),
			goqu.I("s.quantity_reserved"),
			goqu.I("s.reorder_point"),
			goqu.I("s.created_at"),
			goqu.I("s.updated_at"),
			goqu.I("w.service_center_id"),
			goqu.I("w.company_id"),
		).
		InnerJoin(goqu.T("warehouses").As("w"), goqu.On(goqu.Ex{"s.warehouse_id": goqu.I("w.id")}))
}

// lockQuery locks only the stock rows, not the joined warehouses.
func lockQuery(q repository.Querier) *goqu.SelectDataset {
	return stockQuery(q).ForUpdate(exp.Wait, goqu.T("s"))
}

func filterConditions(filter models.StockFilter) repository.QueryBuilder {
	qb := repository.NewQueryBuilder()
	if filter.WarehouseID != nil {
		qb.AddCondition("warehouse_id", *filter.WarehouseID)
	}
	if filter.TypeComponentID != nil {
		qb.AddCondition("type_component_id", *filter.TypeComponentID)
	}
	return qb
}

var filterAliases = map[string]string{
	"warehouse_id":      "s.warehouse_id",
	"type_component_id": "s.type_component_id",
}

var lowStockExpression = goqu.L(`"s"."quantity_in_stock" - "s"."quantity_reserved" <= "s"."reorder_point"`)

func (r *StockRepository) GetStock(ctx context.Context, id uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	found, err := stockQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"s.id": id}).
		ScanStructContext(ctx, &stock)
	if err != nil {
		return nil, fmt.Errorf("unable to select stock from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("stock", id)
	}
	return &stock, nil
}

func (r *StockRepository) FindByWarehouseAndType(ctx context.Context, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error) {
	var stock models.Stock
	found, err := stockQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"s.warehouse_id": warehouseID, "s.type_component_id": typeComponentID}).
		ScanStructContext(ctx, &stock)
	if err != nil {
		return nil, fmt.Errorf("unable to select stock from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("stock", stockKey{warehouseID, typeComponentID})
	}
	return &stock, nil
}

type stockKey struct {
	warehouseID     uuid.UUID
	typeComponentID uuid.UUID
}

func (k stockKey) String() string {
	return fmt.Sprintf("warehouse=%s type=%s", k.warehouseID, k.typeComponentID)
}

func (r *StockRepository) GetStocksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Stock, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var stocks []models.Stock
	err := stockQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"s.id": ids}).
		Order(goqu.I("s.id").Asc()).
		ScanStructsContext(ctx, &stocks)
	if err != nil {
		return nil, fmt.Errorf("unable to select stocks from database: %w", err)
	}
	return stocks, nil
}

func (r *StockRepository) List(ctx context.Context, sc scope.Resolver, filter models.StockFilter, p models.Pagination) ([]models.Stock, int, error) {
	ds := stockQuery(r.repository.GoquDBWrapper).
		Where(sc.Expression("w"), filterConditions(filter).BuildConditions(filterAliases))
	if filter.LowStockOnly {
		ds = ds.Where(lowStockExpression)
	}

	total, err := repository.Count(ctx, ds)
	if err != nil {
		return nil, 0, err
	}

	var stocks []models.Stock
	if err := repository.Page(ds, p, stockSortColumns).ScanStructsContext(ctx, &stocks); err != nil {
		return nil, 0, fmt.Errorf("unable to select stocks from database: %w", err)
	}
	return stocks, total, nil
}

func summaryQuery(q repository.Querier, sc scope.Resolver, filter models.StockFilter) *goqu.SelectDataset {
	ds := q.From(goqu.T("warehouses").As("w")).
		Select(
			goqu.I("w.id").As("warehouse_id"),
			goqu.I("w.name").As("warehouse_name"),
			goqu.COUNT(goqu.I("s.id")).As("component_types"),
			goqu.COALESCE(goqu.SUM(goqu.I("s.quantity_in_stock")), 0).As("quantity_in_stock"),
			goqu.COALESCE(goqu.SUM(goqu.I("s.quantity_reserved")), 0).As("quantity_reserved"),
			goqu.L(`COUNT("s"."id") FILTER (WHERE ?)`, lowStockExpression).As("low_stock_count"),
		).
		LeftJoin(goqu.T("stocks").As("s"), goqu.On(goqu.Ex{"s.warehouse_id": goqu.I("w.id")})).
		Where(sc.Expression("w")).
		GroupBy(goqu.I("w.id"), goqu.I("w.name")).
		Order(goqu.I("w.name").Asc())

	if filter.WarehouseID != nil {
		ds = ds.Where(goqu.Ex{"w.id": *filter.WarehouseID})
	}
	if filter.TypeComponentID != nil {
		ds = ds.Where(goqu.Ex{"s.type_component_id": *filter.TypeComponentID})
	}
	if filter.LowStockOnly {
		ds = ds.Having(goqu.L(`COUNT("s"."id") FILTER (WHERE ?) > 0`, lowStockExpression))
	}
	return ds
}

func (r *StockRepository) Summary(ctx context.Context, sc scope.Resolver, filter models.StockFilter) ([]models.WarehouseStockSummary, error) {
	var summaries []models.WarehouseStockSummary
	if err := summaryQuery(r.repository.GoquDBWrapper, sc, filter).ScanStructsContext(ctx, &summaries); err != nil {
		return nil, fmt.Errorf("unable to summarize stocks: %w", err)
	}
	return summaries, nil
}

func (r *StockRepository) GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	found, err := r.repository.GoquDBWrapper.From("warehouses").
		Select("id", "name", "service_center_id", "company_id").
		Where(goqu.Ex{"id": id}).
		ScanStructContext(ctx, &warehouse)
	if err != nil {
		return nil, fmt.Errorf("unable to select warehouse from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("warehouse", id)
	}
	return &warehouse, nil
}

func (r *StockRepository) UpdateReorderPoint(ctx context.Context, id uuid.UUID, reorderPoint int) error {
	result, err := r.repository.GoquDBWrapper.Update("stocks").
		Set(goqu.Record{"reorder_point": reorderPoint, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.WrapDBError("failed to update reorder point", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFound("stock", id)
	}
	return nil
}

func (r *StockRepository) LockStocks(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Stock, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var stocks []models.Stock
	err := lockQuery(tx).
		Where(goqu.Ex{"s.id": ids}).
		Order(goqu.I("s.id").Asc()).
		ScanStructsContext(ctx, &stocks)
	if err != nil {
		return nil, fmt.Errorf("unable to lock stocks: %w", err)
	}
	return stocks, nil
}

func (r *StockRepository) LockStocksByType(ctx context.Context, tx *goqu.TxDatabase, typeComponentID uuid.UUID, excludeWarehouseID *uuid.UUID) ([]models.Stock, error) {
	ds := lockQuery(tx).Where(goqu.Ex{"s.type_component_id": typeComponentID})
	if excludeWarehouseID != nil {
		ds = ds.Where(goqu.I("s.warehouse_id").Neq(*excludeWarehouseID))
	}

	var stocks []models.Stock
	if err := ds.Order(goqu.I("s.id").Asc()).ScanStructsContext(ctx, &stocks); err != nil {
		return nil, fmt.Errorf("unable to lock stocks of type %s: %w", typeComponentID, err)
	}
	return stocks, nil
}

// FindOrCreateForUpdate inserts an empty stock row when the pair has none
// yet and returns the row locked.
func (r *StockRepository) FindOrCreateForUpdate(ctx context.Context, tx *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID) (*models.Stock, error) {
	now := time.Now()
	_, err := tx.Insert("stocks").
		Rows(goqu.Record{
			"id":                uuid.New(),
			"warehouse_id":      warehouseID,
			"type_component_id": typeComponentID,
			"quantity_in_stock": 0,
			"quantity_reserved": 0,
			"reorder_point":     0,
			"created_at":        now,
			"updated_at":        now,
		}).
		OnConflict(goqu.DoNothing()).
		Executor().ExecContext(ctx)
	if err != nil {
		return nil, custom_error.WrapDBError("failed to create stock", err)
	}

	var stock models.Stock
	found, err := lockQuery(tx).
		Where(goqu.Ex{"s.warehouse_id": warehouseID, "s.type_component_id": typeComponentID}).
		ScanStructContext(ctx, &stock)
	if err != nil {
		return nil, fmt.Errorf("unable to lock stock: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("warehouse", warehouseID)
	}
	return &stock, nil
}

func applyDeltaQuery(q repository.Querier, id uuid.UUID, deltaStock, deltaReserved int, at time.Time) *goqu.UpdateDataset {
	return q.Update("stocks").
		Set(goqu.Record{
			"quantity_in_stock": goqu.L("quantity_in_stock + ?", deltaStock),
			"quantity_reserved": goqu.L("quantity_reserved + ?", deltaReserved),
			"updated_at":        at,
		}).
		Where(
			goqu.Ex{"id": id},
			goqu.L("quantity_in_stock + ? >= 0", deltaStock),
			goqu.L("quantity_reserved + ? >= 0", deltaReserved),
			goqu.L("quantity_reserved + ? <= quantity_in_stock + ?", deltaReserved, deltaStock),
		)
}

// ApplyDelta changes both counters in one guarded statement. No row updated
// means the guard failed and the invariant would have been broken.
func (r *StockRepository) ApplyDelta(ctx context.Context, tx *goqu.TxDatabase, id uuid.UUID, deltaStock, deltaReserved int) error {
	result, err := applyDeltaQuery(tx, id, deltaStock, deltaReserved, time.Now()).Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.WrapDBError("failed to apply stock delta", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return custom_error.NewInvariantViolation("stock %s rejected delta (%+d, %+d)", id, deltaStock, deltaReserved)
	}
	return nil
}
