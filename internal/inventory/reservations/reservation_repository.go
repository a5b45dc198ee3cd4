package reservations

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
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, sc scope.Resolver, filter models.ReservationFilter, p models.Pagination) ([]models.Reservation, int, error)
	FindByStock(ctx context.Context, stockID uuid.UUID) ([]models.Reservation, error)
	FindByRequest(ctx context.Context, requestID uuid.UUID, status models.ReservationStatus) ([]models.Reservation, error)

	Insert(ctx context.Context, tx *goqu.TxDatabase, reservations []models.Reservation) error
	LockByIDs(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Reservation, error)
	LockByRequest(ctx context.Context, tx *goqu.TxDatabase, requestID uuid.UUID, status models.ReservationStatus) ([]models.Reservation, error)
	Update(ctx context.Context, tx *goqu.TxDatabase, reservation models.Reservation) error
}

type ReservationRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *ReservationRepository {
	return &ReservationRepository{repository: r}
}

func reservationQuery(q repository.Querier) *goqu.SelectDataset {
	return q.From(goqu.T("reservations").As("r")).
		Select(
			goqu.I("r.id"),
			goqu.I("r.stock_id"),
			goqu.I("r.component_id"),
			goqu.I("r.case_line_id"),
			goqu.I("r.stock_transfer_request_id"),
			goqu.I("r.request_item_id"),
			goqu.I("r.quantity_reserved"),
			goqu.I("r.status"),
			goqu.I("r.picked_up_by"),
			goqu.I("r.picked_up_at"),
			goqu.I("r.installed_at"),
			goqu.I("r.old_component_serial"),
			goqu.I("r.created_at"),
			goqu.I("r.updated_at"),
			goqu.I("s.warehouse_id"),
		).
		InnerJoin(goqu.T("stocks").As("s"), goqu.On(goqu.Ex{"r.stock_id": goqu.I("s.id")}))
}

func lockQuery(q repository.Querier) *goqu.SelectDataset {
	return reservationQuery(q).ForUpdate(exp.Wait, goqu.T("r"))
}

var reservationSortColumns = map[string]string{
	"created_at": "r.created_at",
	"updated_at": "r.updated_at",
	"status":     "r.status",
}

var filterAliases = map[string]string{
	"case_line_id": "r.case_line_id",
	"request_id":   "r.stock_transfer_request_id",
	"warehouse_id": "s.warehouse_id",
	"picked_up_by": "r.picked_up_by",
	"status":       "r.status",
}

func filterConditions(filter models.ReservationFilter) repository.QueryBuilder {
	qb := repository.NewQueryBuilder()
	if filter.CaseLineID != nil {
		qb.AddCondition("case_line_id", *filter.CaseLineID)
	}
	if filter.RequestID != nil {
		qb.AddCondition("request_id", *filter.RequestID)
	}
	if filter.WarehouseID != nil {
		qb.AddCondition("warehouse_id", *filter.WarehouseID)
	}
	if filter.TechnicianID != nil {
		qb.AddCondition("picked_up_by", *filter.TechnicianID)
	}
	if filter.Status != nil {
		qb.AddCondition("status", *filter.Status)
	}
	return qb
}

func listQuery(q repository.Querier, sc scope.Resolver, filter models.ReservationFilter) *goqu.SelectDataset {
	return reservationQuery(q).
		InnerJoin(goqu.T("warehouses").As("w"), goqu.On(goqu.Ex{"s.warehouse_id": goqu.I("w.id")})).
		Where(sc.Expression("w"), filterConditions(filter).BuildConditions(filterAliases))
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	found, err := reservationQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"r.id": id}).
		ScanStructContext(ctx, &reservation)
	if err != nil {
		return nil, fmt.Errorf("unable to select reservation from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("reservation", id)
	}
	return &reservation, nil
}

func (r *ReservationRepository) List(ctx context.Context, sc scope.Resolver, filter models.ReservationFilter, p models.Pagination) ([]models.Reservation, int, error) {
	ds := listQuery(r.repository.GoquDBWrapper, sc, filter)

	total, err := repository.Count(ctx, ds)
	if err != nil {
		return nil, 0, err
	}

	var reservations []models.Reservation
	if err := repository.Page(ds, p, reservationSortColumns).ScanStructsContext(ctx, &reservations); err != nil {
		return nil, 0, fmt.Errorf("unable to select reservations from database: %w", err)
	}
	return reservations, total, nil
}

func (r *ReservationRepository) FindByStock(ctx context.Context, stockID uuid.UUID) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := reservationQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"r.stock_id": stockID}).
		Order(goqu.I("r.updated_at").Desc()).
		ScanStructsContext(ctx, &reservations)
	if err != nil {
		return nil, fmt.Errorf("unable to select reservations of stock: %w", err)
	}
	return reservations, nil
}

// FindByRequest reads without locking. Callers use it to learn which stocks
// to lock before they lock the reservations themselves.
func (r *ReservationRepository) FindByRequest(ctx context.Context, requestID uuid.UUID, status models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := reservationQuery(r.repository.GoquDBWrapper).
		Where(goqu.Ex{"r.stock_transfer_request_id": requestID, "r.status": status}).
		Order(goqu.I("r.id").Asc()).
		ScanStructsContext(ctx, &reservations)
	if err != nil {
		return nil, fmt.Errorf("unable to select reservations of request: %w", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) Insert(ctx context.Context, tx *goqu.TxDatabase, reservations []models.Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	rows := make([]interface{}, 0, len(reservations))
	for _, res := range reservations {
		rows = append(rows, goqu.Record{
			"id":                        res.ID,
			"stock_id":                  res.StockID,
			"component_id":              res.ComponentID,
			"case_line_id":              res.CaseLineID,
			"stock_transfer_request_id": res.StockTransferRequestID,
			"request_item_id":           res.RequestItemID,
			"quantity_reserved":         res.QuantityReserved,
			"status":                    res.Status,
			"created_at":                res.CreatedAt,
			"updated_at":                res.UpdatedAt,
		})
	}

	if _, err := tx.Insert("reservations").Rows(rows...).Executor().ExecContext(ctx); err != nil {
		return custom_error.WrapDBError("failed to insert reservations", err)
	}
	return nil
}

func (r *ReservationRepository) LockByIDs(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID) ([]models.Reservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var reservations []models.Reservation
	err := lockQuery(tx).
		Where(goqu.Ex{"r.id": ids}).
		Order(goqu.I("r.id").Asc()).
		ScanStructsContext(ctx, &reservations)
	if err != nil {
		return nil, fmt.Errorf("unable to lock reservations: %w", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) LockByRequest(ctx context.Context, tx *goqu.TxDatabase, requestID uuid.UUID, status models.ReservationStatus) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := lockQuery(tx).
		Where(goqu.Ex{"r.stock_transfer_request_id": requestID, "r.status": status}).
		Order(goqu.I("r.id").Asc()).
		ScanStructsContext(ctx, &reservations)
	if err != nil {
		return nil, fmt.Errorf("unable to lock reservations of request: %w", err)
	}
	return reservations, nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx *goqu.TxDatabase, reservation models.Reservation) error {
	result, err := tx.Update("reservations").
		Set(goqu.Record{
			"component_id":         reservation.ComponentID,
			"status":               reservation.Status,
			"picked_up_by":         reservation.PickedUpBy,
			"picked_up_at":         reservation.PickedUpAt,
			"installed_at":         reservation.InstalledAt,
			"old_component_serial": reservation.OldComponentSerial,
			"updated_at":           reservation.UpdatedAt,
		}).
		Where(goqu.Ex{"id": reservation.ID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return custom_error.WrapDBError("failed to update reservation", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFound("reservation", reservation.ID)
	}
	return nil
}
