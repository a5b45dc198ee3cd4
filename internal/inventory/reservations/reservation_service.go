package reservations

import (
	"context"
	"time"

	"evinventory/internal/caselines"
	"evinventory/internal/inventory/alerts"
	"evinventory/internal/inventory/components"
	"evinventory/internal/inventory/effects"
	"evinventory/internal/inventory/scope"
	"evinventory/internal/inventory/stocks"
	"evinventory/internal/repository"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReserveRequest struct {
	CaseLineID      uuid.UUID `json:"case_line_id" binding:"required"`
	WarehouseID     uuid.UUID `json:"warehouse_id" binding:"required"`
	TypeComponentID uuid.UUID `json:"type_component_id" binding:"required"`
	Quantity        int       `json:"quantity"`
}

type ReservationService struct {
	tx         repository.Transactor
	r          Repository
	ledger     stocks.Ledger
	components components.Repository
	caseLines  caselines.Service
	alerts     *alerts.Engine
	effects    effects.Runner
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(
	tx repository.Transactor,
	r Repository,
	ledger stocks.Ledger,
	components components.Repository,
	caseLines caselines.Service,
	alerts *alerts.Engine,
	runner effects.Runner,
	logger *zap.Logger,
) *ReservationService {
	return &ReservationService{
		tx:         tx,
		r:          r,
		ledger:     ledger,
		components: components,
		caseLines:  caseLines,
		alerts:     alerts,
		effects:    runner,
		logger:     logger,
		now:        time.Now,
	}
}

// Reserve claims units of a warehouse's stock for a case line. Every unit
// gets its own reservation bound to the oldest free component.
func (s *ReservationService) Reserve(ctx context.Context, sc scope.Resolver, req ReserveRequest) ([]models.Reservation, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, custom_error.NewBadRequest("quantity", "quantity must be positive, got %d", req.Quantity)
	}

	warehouse, err := s.ledger.GetWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(*warehouse) {
		return nil, custom_error.NewNotFound("warehouse", req.WarehouseID)
	}

	var reservations []models.Reservation
	err = s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		if _, err := s.caseLines.GetVehicleVIN(ctx, tx, req.CaseLineID); err != nil {
			return err
		}

		stock, err := s.ledger.FindOrCreateForUpdate(ctx, tx, req.WarehouseID, req.TypeComponentID)
		if err != nil {
			return err
		}
		if available := stock.QuantityAvailable(); available < req.Quantity {
			return custom_error.NewConflictWithDetails(
				map[string]interface{}{"stock_id": stock.ID, "requested": req.Quantity, "available": available},
				"cannot reserve %d units of component type %s: only %d available", req.Quantity, req.TypeComponentID, available,
			)
		}

		units, err := s.components.LockInStock(ctx, tx, req.WarehouseID, req.TypeComponentID, req.Quantity, nil)
		if err != nil {
			return err
		}
		if len(units) < req.Quantity {
			return custom_error.NewConflict("stock %s books %d available units but only %d are on the shelf",
				stock.ID, stock.QuantityAvailable(), len(units))
		}

		ids := make([]uuid.UUID, 0, len(units))
		now := s.now()
		caseLineID := req.CaseLineID
		for i := range units {
			componentID := units[i].ID
			ids = append(ids, componentID)
			reservations = append(reservations, models.Reservation{
				ID:               uuid.New(),
				StockID:          stock.ID,
				ComponentID:      &componentID,
				CaseLineID:       &caseLineID,
				QuantityReserved: 1,
				Status:           models.ReservationReserved,
				CreatedAt:        now,
				UpdatedAt:        now,
				WarehouseID:      stock.WarehouseID,
			})
		}

		warehouseID := req.WarehouseID
		if err := s.components.Move(ctx, tx, ids, models.ComponentTransition{
			Status:      models.ComponentReserved,
			WarehouseID: &warehouseID,
		}); err != nil {
			return err
		}
		if err := s.ledger.ApplyDelta(ctx, tx, stock, 0, len(units)); err != nil {
			return err
		}
		return s.r.Insert(ctx, tx, reservations)
	})
	if err != nil {
		return nil, err
	}

	s.emitLowStock(reservationStockIDs(reservations))
	return reservations, nil
}

// Pickup hands reserved units to a technician. The batch is all or nothing.
func (s *ReservationService) Pickup(ctx context.Context, sc scope.Resolver, ids []uuid.UUID, technicianID uuid.UUID) ([]models.Reservation, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, custom_error.NewBadRequest("reservation_ids", "at least one reservation id is required")
	}

	var picked []models.Reservation
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		stockByID, err := s.lockStocksOf(ctx, tx, sc, ids)
		if err != nil {
			return err
		}

		reservations, err := s.r.LockByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := requireAll(ids, reservations); err != nil {
			return err
		}

		now := s.now()
		var caseLineIDs []uuid.UUID
		var chosen []uuid.UUID
		for _, res := range reservations {
			if res.Status != models.ReservationReserved {
				return wrongStatus(res, models.ReservationReserved)
			}
			if res.StockTransferRequestID != nil {
				return custom_error.NewConflict("reservation %s belongs to transfer request %s and leaves by shipment",
					res.ID, *res.StockTransferRequestID)
			}
			stock := stockByID[res.StockID]

			unit, err := s.unitForPickup(ctx, tx, res, stock, chosen)
			if err != nil {
				return err
			}
			chosen = append(chosen, unit.ID)

			if err := s.components.Move(ctx, tx, []uuid.UUID{unit.ID}, models.ComponentTransition{
				Status: models.ComponentPickedUp,
			}); err != nil {
				return err
			}
			if err := s.ledger.ApplyDelta(ctx, tx, stock, -res.QuantityReserved, -res.QuantityReserved); err != nil {
				return err
			}

			componentID, tech, at := unit.ID, technicianID, now
			res.ComponentID = &componentID
			res.Status = models.ReservationPickedUp
			res.PickedUpBy = &tech
			res.PickedUpAt = &at
			res.UpdatedAt = now
			if err := s.r.Update(ctx, tx, res); err != nil {
				return err
			}

			if res.CaseLineID != nil {
				caseLineIDs = append(caseLineIDs, *res.CaseLineID)
			}
			picked = append(picked, res)
		}

		return s.caseLines.BulkUpdateStatusByIDs(ctx, tx, uniqueIDs(caseLineIDs), caselines.InRepair)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservations picked up",
		zap.Int("count", len(picked)),
		zap.String("technician_id", technicianID.String()),
	)
	s.emitLowStock(reservationStockIDs(picked))
	return picked, nil
}

// unitForPickup returns the component the reservation is bound to, or the
// oldest free unit of its stock when none is bound yet.
func (s *ReservationService) unitForPickup(ctx context.Context, tx *goqu.TxDatabase, res models.Reservation, stock *models.Stock, chosen []uuid.UUID) (*models.Component, error) {
	if res.ComponentID == nil {
		units, err := s.components.LockInStock(ctx, tx, stock.WarehouseID, stock.TypeComponentID, 1, chosen)
		if err != nil {
			return nil, err
		}
		if len(units) == 0 {
			return nil, custom_error.NewConflict("no unit on the shelf for reservation %s", res.ID)
		}
		return &units[0], nil
	}

	units, err := s.components.LockComponents(ctx, tx, []uuid.UUID{*res.ComponentID})
	if err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, custom_error.NewNotFound("component", *res.ComponentID)
	}
	unit := units[0]
	if unit.WarehouseID == nil {
		return nil, custom_error.NewConflictWithDetails(
			map[string]interface{}{"reservation_id": res.ID, "component_id": unit.ID},
			"component %s of reservation %s has no warehouse", unit.SerialNumber, res.ID,
		)
	}
	if unit.Status != models.ComponentReserved && unit.Status != models.ComponentInStock {
		return nil, custom_error.NewConflictWithDetails(
			map[string]interface{}{"component_id": unit.ID, "status": unit.Status},
			"component %s is %s and cannot be picked up", unit.SerialNumber, unit.Status,
		)
	}
	return &unit, nil
}

// Install fits the picked-up unit on the case line's vehicle. When the
// vehicle already carries a warranted unit of the type, that unit is retired.
func (s *ReservationService) Install(ctx context.Context, sc scope.Resolver, id uuid.UUID) (*models.Reservation, error) {
	var installed models.Reservation
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		locked, err := s.r.LockByIDs(ctx, tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if len(locked) == 0 {
			return custom_error.NewNotFound("reservation", id)
		}
		res := locked[0]
		if err := s.visible(ctx, sc, res); err != nil {
			return err
		}
		if res.Status != models.ReservationPickedUp {
			return wrongStatus(res, models.ReservationPickedUp)
		}
		if res.CaseLineID == nil || res.ComponentID == nil {
			return custom_error.NewConflict("reservation %s is not bound to a case line and a component", res.ID)
		}

		vin, err := s.caseLines.GetVehicleVIN(ctx, tx, *res.CaseLineID)
		if err != nil {
			return err
		}

		units, err := s.components.LockComponents(ctx, tx, []uuid.UUID{*res.ComponentID})
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return custom_error.NewNotFound("component", *res.ComponentID)
		}
		unit := units[0]
		if unit.Status != models.ComponentPickedUp {
			return custom_error.NewConflictWithDetails(
				map[string]interface{}{"component_id": unit.ID, "status": unit.Status},
				"component %s is %s, expected %s", unit.SerialNumber, unit.Status, models.ComponentPickedUp,
			)
		}

		warranted, err := s.caseLines.CountWarrantedComponents(ctx, tx, vin, unit.TypeComponentID)
		if err != nil {
			return err
		}
		if warranted > 0 {
			oldSerial, err := s.retireOldUnit(ctx, tx, vin, unit)
			if err != nil {
				return err
			}
			res.OldComponentSerial = &oldSerial
		}

		now := s.now()
		if err := s.components.Move(ctx, tx, []uuid.UUID{unit.ID}, models.ComponentTransition{
			Status:      models.ComponentInstalled,
			VehicleVIN:  &vin,
			InstalledAt: &now,
		}); err != nil {
			return err
		}

		res.Status = models.ReservationInstalled
		res.InstalledAt = &now
		res.UpdatedAt = now
		if err := s.r.Update(ctx, tx, res); err != nil {
			return err
		}
		installed = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &installed, nil
}

func (s *ReservationService) retireOldUnit(ctx context.Context, tx *goqu.TxDatabase, vin string, replacement models.Component) (string, error) {
	onVehicle, err := s.components.LockOnVehicle(ctx, tx, vin, replacement.TypeComponentID)
	if err != nil {
		return "", err
	}
	var old *models.Component
	for i := range onVehicle {
		if onVehicle[i].ID != replacement.ID {
			old = &onVehicle[i]
			break
		}
	}
	if old == nil {
		return "", custom_error.NewConflict("vehicle %s has a warranted unit of type %s but none is recorded as fitted",
			vin, replacement.TypeComponentID)
	}
	if old.Status != models.ComponentInstalled {
		return "", custom_error.NewConflictWithDetails(
			map[string]interface{}{"component_id": old.ID, "status": old.Status},
			"old component %s on vehicle %s is %s, expected %s", old.SerialNumber, vin, old.Status, models.ComponentInstalled,
		)
	}

	if err := s.components.Move(ctx, tx, []uuid.UUID{old.ID}, models.ComponentTransition{
		Status:      models.ComponentRemoved,
		VehicleVIN:  old.VehicleVIN,
		InstalledAt: old.InstalledAt,
	}); err != nil {
		return "", err
	}
	return old.SerialNumber, nil
}

// Cancel releases a reservation that has not been picked up yet.
func (s *ReservationService) Cancel(ctx context.Context, sc scope.Resolver, id uuid.UUID, reason string) (*models.Reservation, error) {
	var cancelled models.Reservation
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		stockByID, err := s.lockStocksOf(ctx, tx, sc, []uuid.UUID{id})
		if err != nil {
			return err
		}
		locked, err := s.r.LockByIDs(ctx, tx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		if err := requireAll([]uuid.UUID{id}, locked); err != nil {
			return err
		}
		res := locked[0]
		if res.Status != models.ReservationReserved {
			return wrongStatus(res, models.ReservationReserved)
		}
		if res.StockTransferRequestID != nil {
			return custom_error.NewConflict("reservation %s belongs to transfer request %s and is released by cancelling the request",
				res.ID, *res.StockTransferRequestID)
		}

		if err := s.ledger.ApplyDelta(ctx, tx, stockByID[res.StockID], 0, -res.QuantityReserved); err != nil {
			return err
		}
		if res.ComponentID != nil {
			warehouseID := res.WarehouseID
			if err := s.components.Move(ctx, tx, []uuid.UUID{*res.ComponentID}, models.ComponentTransition{
				Status:      models.ComponentInStock,
				WarehouseID: &warehouseID,
			}); err != nil {
				return err
			}
		}

		res.Status = models.ReservationCancelled
		res.UpdatedAt = s.now()
		if err := s.r.Update(ctx, tx, res); err != nil {
			return err
		}
		cancelled = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Reservation cancelled", zap.String("reservation_id", id.String()), zap.String("reason", reason))
	return &cancelled, nil
}

func (s *ReservationService) GetByID(ctx context.Context, sc scope.Resolver, id uuid.UUID) (*models.Reservation, error) {
	res, err := s.r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.visible(ctx, sc, *res); err != nil {
		return nil, err
	}
	return res, nil
}

// GetComponentReservations is the read-only, scoped reservation query.
func (s *ReservationService) GetComponentReservations(ctx context.Context, sc scope.Resolver, filter models.ReservationFilter, p models.Pagination) (models.Page[models.Reservation], error) {
	p = p.Normalize("created_at", "created_at", "updated_at", "status")
	list, total, err := s.r.List(ctx, sc, filter, p)
	if err != nil {
		return models.Page[models.Reservation]{}, err
	}
	return models.NewPage(list, total, p), nil
}

func (s *ReservationService) visible(ctx context.Context, sc scope.Resolver, res models.Reservation) error {
	warehouse, err := s.ledger.GetWarehouse(ctx, res.WarehouseID)
	if err != nil {
		return err
	}
	if !sc.Allows(*warehouse) {
		return custom_error.NewNotFound("reservation", res.ID)
	}
	return nil
}

// lockStocksOf reads the reservations without locking to learn their stocks,
// then locks those stocks so reservations are always locked after stocks.
func (s *ReservationService) lockStocksOf(ctx context.Context, tx *goqu.TxDatabase, sc scope.Resolver, ids []uuid.UUID) (map[uuid.UUID]*models.Stock, error) {
	stockIDs := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		res, err := s.r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		stockIDs = append(stockIDs, res.StockID)
	}

	locked, err := s.ledger.LockStocks(ctx, tx, uniqueIDs(stockIDs))
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Stock, len(locked))
	for i := range locked {
		if !sc.Allows(locked[i].Warehouse()) {
			return nil, custom_error.NewNotFound("stock", locked[i].ID)
		}
		byID[locked[i].ID] = &locked[i]
	}
	return byID, nil
}

func (s *ReservationService) emitLowStock(stockIDs []uuid.UUID) {
	if len(stockIDs) == 0 {
		return
	}
	s.effects.Go("low stock alerts", func(ctx context.Context) error {
		_, err := s.alerts.EmitLowStockAlerts(ctx, stockIDs)
		return err
	})
}

func requireAll(ids []uuid.UUID, reservations []models.Reservation) error {
	found := make(map[uuid.UUID]bool, len(reservations))
	for _, r := range reservations {
		found[r.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return custom_error.NewNotFound("reservation", id)
		}
	}
	return nil
}

func wrongStatus(res models.Reservation, want models.ReservationStatus) error {
	return custom_error.NewConflictWithDetails(
		map[string]interface{}{"reservation_id": res.ID, "status": res.Status, "expected": want},
		"reservation %s is %s, expected %s", res.ID, res.Status, want,
	)
}

func reservationStockIDs(reservations []models.Reservation) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(reservations))
	for _, r := range reservations {
		ids = append(ids, r.StockID)
	}
	return uniqueIDs(ids)
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
