package components

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
	GetByID(ctx context.Context, id uuid.UUID) (*models.Component, error)
	GetBySerial(ctx context.Context, serial string) (*models.Component, error)
	List(ctx context.Context, sc scope.Resolver, filter Filter, p models.Pagination) ([]models.Component, int, error)

	FindExistingSerials(ctx context.Context, tx *goqu.TxDatabase, serials []string) ([]string, error)
	Insert(ctx context.Context, tx *goqu.TxDatabase, components []models.Component) error
	LockComponents(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Component, error)
	LockInStock(ctx context.Context, tx *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID, limit int, excluding []uuid.UUID) ([]models.Component, error)
	LockInTransitByRequest(ctx context.Context, tx *goqu.TxDatabase, requestID uuid.UUID) ([]models.Component, error)
	LockOnVehicle(ctx context.Context, tx *goqu.TxDatabase, vin string, typeComponentID uuid.UUID) ([]models.Component, error)
	Move(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID, transition models.ComponentTransition) error
}

type Filter = models.ComponentFilter

type ComponentRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ComponentRepository {
	return &ComponentRepository{repository: r}
}

var componentColumns = []interface{}{
	"id", "serial_number", "type_component_id", "warehouse_id", "status",
	"stock_transfer_request_id", "vehicle_vin", "installed_at", "created_at", "updated_at",
}

func componentQuery(q repository.Querier) *goqu.SelectDataset {
	return q.From("components").Select(componentColumns...)
}

// oldestFirst is the FIFO order every bulk pick follows.
func oldestFirst(ds *goqu.SelectDataset) *goqu.SelectDataset {
	return ds.Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
}

func (r *ComponentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Component, error) {
	var component models.Component
	found, err := componentQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"id": id}).
		ScanStructContext(ctx, &component)
	if err != nil {
		return nil, fmt.Errorf("unable to select component from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("component", id)
	}
	return &component, nil
}

func (r *ComponentRepository) GetBySerial(ctx context.Context, serial string) (*models.Component, error) {
	var component models.Component
	found, err := componentQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"serial_number": serial}).
		ScanStructContext(ctx, &component)
	if err != nil {
		return nil, fmt.Errorf("unable to select component from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("component", serialKey(serial))
	}
	return &component, nil
}

type serialKey string

func (s serialKey) String() string { return "serial " + string(s) }

var componentSortColumns = map[string]string{
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
	"status":     "c.status",
}

func (r *ComponentRepository) List(ctx context.Context, sc scope.Resolver, filter Filter, p models.Pagination) ([]models.Component, int, error) {
	qb := repository.NewQueryBuilder()
	if filter.WarehouseID != nil {
		qb.AddCondition("warehouse_id", *filter.WarehouseID)
	}
	if filter.TypeComponentID != nil {
		qb.AddCondition("type_component_id", *filter.TypeComponentID)
	}
	if filter.Status != nil {
		qb.AddCondition("status", *filter.Status)
	}

	ds := r.repository.GoquDBWrapper.From(goqu.T("components").As("c")).
		Select(goqu.I("c.*")).
		InnerJoin(goqu.T("warehouses").As("w"), goqu.On(goqu.Ex{"c.warehouse_id": goqu.I("w.id")})).
		Where(sc.Expression("w"), qb.BuildConditions(map[string]string{
			"warehouse_id":      "c.warehouse_id",
			"type_component_id": "c.type_component_id",
			"status":            "c.status",
		}))

	total, err := repository.Count(ctx, ds)
	if err != nil {
		return nil, 0, err
	}

	var components []models.Component
	if err := repository.Page(ds, p, componentSortColumns).ScanStructsContext(ctx, &components); err != nil {
		return nil, 0, fmt.Errorf("unable to select components from database: %w", err)
	}
	return components, total, nil
}

func (r *ComponentRepository) FindExistingSerials(ctx context.Context, tx *goqu.TxDatabase, serials []string) ([]string, error) {
	if len(serials) == 0 {
		return nil, nil
	}
	var existing []string
	err := tx.From("components").
		Select("serial_number").
		Where(goqu.Ex{"serial_number": serials}).
		Order(goqu.C("serial_number").Asc()).
		ScanValsContext(ctx, &existing)
	if err != nil {
		return nil, fmt.Errorf("unable to look up serial numbers: %w", err)
	}
	return existing, nil
}

func (r *ComponentRepository) Insert(ctx context.Context, tx *goqu.TxDatabase, components []models.Component) error {
	if len(components) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(components))
	for _, c := range components {
		rows = append(rows, goqu.Record{
			"id":                c.ID,
			"serial_number":     c.SerialNumber,
			"type_component_id": c.TypeComponentID,
			"warehouse_id":      c.WarehouseID,
			"status":            c.Status,
			"created_at":        c.CreatedAt,
			"updated_at":        c.UpdatedAt,
		})
	}

	if _, err := tx.Insert("components").Rows(rows...).Executor().ExecContext(ctx); err != nil {
		return custom_error.WrapDBError("Duplicate serial number for component", err)
	}
	return nil
}

func (r *ComponentRepository) LockComponents(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Component, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var components []models.Component
	err := componentQuery(tx).
		Where(goqu.Ex{"id": ids}).
		Order(goqu.C("id").Asc()).
		ForUpdate(exp.Wait).
		ScanStructsContext(ctx, &components)
	if err != nil {
		return nil, fmt.Errorf("unable to lock components: %w", err)
	}
	return components, nil
}

func lockInStockQuery(q repository.Querier, warehouseID, typeComponentID uuid.UUID, limit int, excluding []uuid.UUID) *goqu.SelectDataset {
	ds := componentQuery(q).Where(goqu.Ex{
		"warehouse_id":      warehouseID,
		"type_component_id": typeComponentID,
		"status":            models.ComponentInStock,
	})
	if len(excluding) > 0 {
		ds = ds.Where(goqu.C("id").NotIn(excluding))
	}
	return oldestFirst(ds).Limit(uint(limit)).ForUpdate(exp.SkipLocked)
}

// LockInStock locks up to limit of the oldest IN_STOCK units of a type in a
// warehouse. Rows held by another transaction are skipped.
func (r *ComponentRepository) LockInStock(ctx context.Context, tx *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID, limit int, excluding []uuid.UUID) ([]models.Component, error) {
	if limit <= 0 {
		return nil, nil
	}
	var components []models.Component
	if err := lockInStockQuery(tx, warehouseID, typeComponentID, limit, excluding).ScanStructsContext(ctx, &components); err != nil {
		return nil, fmt.Errorf("unable to lock components in stock: %w", err)
	}
	return components, nil
}

func (r *ComponentRepository) LockInTransitByRequest(ctx context.Context, tx *goqu.TxDatabase, requestID uuid.UUID) ([]models.Component, error) {
	var components []models.Component
	err := oldestFirst(componentQuery(tx).Where(goqu.Ex{
		"stock_transfer_request_id": requestID,
		"status":                    models.ComponentInTransit,
	})).ForUpdate(exp.Wait).ScanStructsContext(ctx, &components)
	if err != nil {
		return nil, fmt.Errorf("unable to lock components in transit: %w", err)
	}
	return components, nil
}

// LockOnVehicle locks the units of a type recorded on a vehicle that have not
// been retired yet, newest first.
func (r *ComponentRepository) LockOnVehicle(ctx context.Context, tx *goqu.TxDatabase, vin string, typeComponentID uuid.UUID) ([]models.Component, error) {
	var components []models.Component
	err := componentQuery(tx).
		Where(
			goqu.Ex{"vehicle_vin": vin, "type_component_id": typeComponentID},
			goqu.C("status").NotIn(models.ComponentRemoved, models.ComponentDefective),
		).
		Order(goqu.C("installed_at").Desc().NullsLast(), goqu.C("id").Asc()).
		ForUpdate(exp.Wait).
		ScanStructsContext(ctx, &components)
	if err != nil {
		return nil, fmt.Errorf("unable to lock components on vehicle: %w", err)
	}
	return components, nil
}

func moveQuery(q repository.Querier, ids []uuid.UUID, t models.ComponentTransition, at time.Time) *goqu.UpdateDataset {
	return q.Update("components").
		Set(goqu.Record{
			"status":                    t.Status,
			"warehouse_id":              t.WarehouseID,
			"stock_transfer_request_id": t.StockTransferRequestID,
			"vehicle_vin":               t.VehicleVIN,
			"installed_at":              t.InstalledAt,
			"updated_at":                at,
		}).
		Where(goqu.Ex{"id": ids})
}

// Move applies one transition to every listed unit. All of them must exist.
func (r *ComponentRepository) Move(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID, transition models.ComponentTransition) error {
	if len(ids) == 0 {
		return nil
	}
	result, err := moveQuery(tx, ids, transition, time.Now()).Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.WrapDBError("failed to move components", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}
	if rowsAffected != int64(len(ids)) {
		return custom_error.NewConflict("moved %d of %d components to %s", rowsAffected, len(ids), transition.Status)
	}
	return nil
}
