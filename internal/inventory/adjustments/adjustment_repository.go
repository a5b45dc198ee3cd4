package adjustments

import (
	"context"
	"fmt"

	"evinventory/internal/inventory/scope"
	"evinventory/internal/repository"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.StockAdjustment, error)
	List(ctx context.Context, sc scope.Resolver, filter models.AdjustmentFilter, p models.Pagination) ([]models.StockAdjustment, int, error)
	FindByStock(ctx context.Context, stockID uuid.UUID) ([]models.StockAdjustment, error)
	Insert(ctx context.Context, tx *goqu.TxDatabase, adjustment *models.StockAdjustment) error
}

type AdjustmentRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AdjustmentRepository {
	return &AdjustmentRepository{repository: r}
}

func adjustmentQuery(q repository.Querier) *goqu.SelectDataset {
	return q.From(goqu.T("stock_adjustments").As("a")).
		Select(
			goqu.I("a.id"),
			goqu.I("a.stock_id"),
			goqu.I("a.adjustment_type"),
			goqu.I("a.quantity"),
			goqu.I("a.reason"),
			goqu.I("a.note"),
			goqu.I("a.adjusted_by"),
			goqu.I("a.created_at"),
			goqu.I("s.warehouse_id"),
		).
		InnerJoin(goqu.T("stocks").As("s"), goqu.On(goqu.Ex{"a.stock_id": goqu.I("s.id")}))
}

var adjustmentSortColumns = map[string]string{
	"created_at": "a.created_at",
	"quantity":   "a.quantity",
}

func (r *AdjustmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StockAdjustment, error) {
	var adjustment models.StockAdjustment
	found, err := adjustmentQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"a.id": id}).
		ScanStructContext(ctx, &adjustment)
	if err != nil {
		return nil, fmt.Errorf("unable to select adjustment from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("stock adjustment", id)
	}
	return &adjustment, nil
}

func (r *AdjustmentRepository) List(ctx context.Context, sc scope.Resolver, filter models.AdjustmentFilter, p models.Pagination) ([]models.StockAdjustment, int, error) {
	qb := repository.NewQueryBuilder()
	if filter.StockID != nil {
		qb.AddCondition("stock_id", *filter.StockID)
	}
	if filter.WarehouseID != nil {
		qb.AddCondition("warehouse_id", *filter.WarehouseID)
	}
	if filter.AdjustmentType != nil {
		qb.AddCondition("adjustment_type", *filter.AdjustmentType)
	}

	ds := adjustmentQuery(r.repository.GoquDBWrapper).
		InnerJoin(goqu.T("warehouses").As("w"), goqu.On(goqu.Ex{"s.warehouse_id": goqu.I("w.id")})).
		Where(sc.Expression("w"), qb.BuildConditions(map[string]string{
			"stock_id":        "a.stock_id",
			"warehouse_id":    "s.warehouse_id",
			"adjustment_type": "a.adjustment_type",
		}))

	total, err := repository.Count(ctx, ds)
	if err != nil {
		return nil, 0, err
	}

	var adjustments []models.StockAdjustment
	if err := repository.Page(ds, p, adjustmentSortColumns).ScanStructsContext(ctx, &adjustments); err != nil {
		return nil, 0, fmt.Errorf("unable to select adjustments from database: %w", err)
	}
	return adjustments, total, nil
}

func (r *AdjustmentRepository) FindByStock(ctx context.Context, stockID uuid.UUID) ([]models.StockAdjustment, error) {
	var adjustments []models.StockAdjustment
	err := adjustmentQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"a.stock_id": stockID}).
		Order(goqu.I("a.created_at").Desc()).
		ScanStructsContext(ctx, &adjustments)
	if err != nil {
		return nil, fmt.Errorf("unable to select adjustments of stock: %w", err)
	}
	return adjustments, nil
}

func (r *AdjustmentRepository) Insert(ctx context.Context, tx *goqu.TxDatabase, adjustment *models.StockAdjustment) error {
	_, err := tx.Insert("stock_adjustments").
		Rows(goqu.Record{
			"id":              adjustment.ID,
			"stock_id":        adjustment.StockID,
			"adjustment_type": adjustment.AdjustmentType,
			"quantity":        adjustment.Quantity,
			"reason":          adjustment.Reason,
			"note":            adjustment.Note,
			"adjusted_by":     adjustment.AdjustedBy,
			"created_at":      adjustment.CreatedAt,
		}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.WrapDBError("failed to insert stock adjustment", err)
	}
	return nil
}
