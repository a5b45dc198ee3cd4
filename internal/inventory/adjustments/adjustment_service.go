package adjustments

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"evinventory/internal/inventory/alerts"
	"evinventory/internal/inventory/components"
	"evinventory/internal/inventory/effects"
	"evinventory/internal/inventory/scope"
	"evinventory/internal/inventory/stocks"
	"evinventory/internal/notifications"
	"evinventory/internal/repository"
	"evinventory/pkg/auditlog"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateAdjustmentRequest struct {
	StockID        uuid.UUID             `json:"stock_id" binding:"required"`
	AdjustmentType models.AdjustmentType `json:"adjustment_type" binding:"required"`
	Quantity       int                   `json:"quantity"`
	SerialNumbers  []string              `json:"serial_numbers"`
	Reason         string                `json:"reason" binding:"required"`
	Note           *string               `json:"note"`
}

// StockAdjustedEvent is the payload of the stock_adjusted notification.
type StockAdjustedEvent struct {
	AdjustmentID      uuid.UUID             `json:"adjustment_id"`
	StockID           uuid.UUID             `json:"stock_id"`
	WarehouseID       uuid.UUID             `json:"warehouse_id"`
	TypeComponentID   uuid.UUID             `json:"type_component_id"`
	AdjustmentType    models.AdjustmentType `json:"adjustment_type"`
	Quantity          int                   `json:"quantity"`
	Reason            string                `json:"reason"`
	QuantityInStock   int                   `json:"quantity_in_stock"`
	QuantityAvailable int                   `json:"quantity_available"`
}

type AdjustmentService struct {
	tx         repository.Transactor
	r          Repository
	ledger     stocks.Ledger
	components components.Repository
	alerts     *alerts.Engine
	dispatcher notifications.Dispatcher
	auditLog   *auditlog.Auditlog
	effects    effects.Runner
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(
	tx repository.Transactor,
	r Repository,
	ledger stocks.Ledger,
	components components.Repository,
	alerts *alerts.Engine,
	dispatcher notifications.Dispatcher,
	auditLog *auditlog.Auditlog,
	runner effects.Runner,
	logger *zap.Logger,
) *AdjustmentService {
	return &AdjustmentService{
		tx:         tx,
		r:          r,
		ledger:     ledger,
		components: components,
		alerts:     alerts,
		dispatcher: dispatcher,
		auditLog:   auditLog,
		effects:    runner,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateAdjustment books a manual correction. IN registers one new unit per
// serial number, OUT writes off free quantity and retires the oldest units.
func (s *AdjustmentService) CreateAdjustment(ctx context.Context, identity models.Identity, sc scope.Resolver, req CreateAdjustmentRequest) (*models.StockAdjustment, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, custom_error.NewBadRequest("reason", "reason is required")
	}

	var serials []string
	switch req.AdjustmentType {
	case models.AdjustmentIn:
		var err error
		if serials, err = normalizeSerials(req.SerialNumbers); err != nil {
			return nil, err
		}
		if req.Quantity != 0 && req.Quantity != len(serials) {
			return nil, custom_error.NewBadRequest("quantity",
				"quantity %d does not match %d serial numbers", req.Quantity, len(serials))
		}
	case models.AdjustmentOut:
		if req.Quantity <= 0 {
			return nil, custom_error.NewBadRequest("quantity", "quantity must be positive, got %d", req.Quantity)
		}
	default:
		return nil, custom_error.NewBadRequest("adjustment_type", "unknown adjustment type %q", req.AdjustmentType)
	}

	var adjustment *models.StockAdjustment
	var stock *models.Stock
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		locked, err := s.ledger.LockStocks(ctx, tx, []uuid.UUID{req.StockID})
		if err != nil {
			return err
		}
		if len(locked) == 0 || !sc.Allows(locked[0].Warehouse()) {
			return custom_error.NewNotFound("stock", req.StockID)
		}
		stock = &locked[0]

		quantity := req.Quantity
		if req.AdjustmentType == models.AdjustmentIn {
			quantity = len(serials)
			err = s.stockIn(ctx, tx, stock, serials)
		} else {
			err = s.stockOut(ctx, tx, stock, quantity)
		}
		if err != nil {
			return err
		}

		adjustment = &models.StockAdjustment{
			ID:             uuid.New(),
			StockID:        stock.ID,
			AdjustmentType: req.AdjustmentType,
			Quantity:       quantity,
			Reason:         strings.TrimSpace(req.Reason),
			Note:           req.Note,
			AdjustedBy:     identity.UserID,
			CreatedAt:      s.now(),
			WarehouseID:    stock.WarehouseID,
		}
		return s.r.Insert(ctx, tx, adjustment)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(identity, adjustment, *stock)
	return adjustment, nil
}

func (s *AdjustmentService) stockIn(ctx context.Context, tx *goqu.TxDatabase, stock *models.Stock, serials []string) error {
	existing, err := s.components.FindExistingSerials(ctx, tx, serials)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return custom_error.NewConflictWithDetails(
			map[string]interface{}{"serial_numbers": existing},
			"serial numbers already exist: %s", strings.Join(existing, ", "),
		)
	}

	now := s.now()
	units := make([]models.Component, 0, len(serials))
	for _, serial := range serials {
		warehouseID := stock.WarehouseID
		units = append(units, models.Component{
			ID:              uuid.New(),
			SerialNumber:    serial,
			TypeComponentID: stock.TypeComponentID,
			WarehouseID:     &warehouseID,
			Status:          models.ComponentInStock,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	if err := s.components.Insert(ctx, tx, units); err != nil {
		var unique *custom_error.UniqueViolationError
		if errors.As(err, &unique) {
			return custom_error.NewConflict("serial numbers already exist: %s", strings.Join(serials, ", "))
		}
		return err
	}

	return s.ledger.ApplyDelta(ctx, tx, stock, len(serials), 0)
}

func (s *AdjustmentService) stockOut(ctx context.Context, tx *goqu.TxDatabase, stock *models.Stock, quantity int) error {
	if available := stock.QuantityAvailable(); quantity > available {
		return custom_error.NewConflictWithDetails(
			map[string]interface{}{"stock_id": stock.ID, "requested": quantity, "available": available},
			"cannot remove %d units from stock %s: only %d available", quantity, stock.ID, available,
		)
	}

	units, err := s.components.LockInStock(ctx, tx, stock.WarehouseID, stock.TypeComponentID, quantity, nil)
	if err != nil {
		return err
	}
	if len(units) < quantity {
		s.logger.Warn("Fewer registered units than written off",
			zap.String("stock_id", stock.ID.String()),
			zap.Int("quantity", quantity),
			zap.Int("units", len(units)),
		)
	}
	ids := make([]uuid.UUID, 0, len(units))
	for _, u := range units {
		ids = append(ids, u.ID)
	}
	if err := s.components.Move(ctx, tx, ids, models.ComponentTransition{Status: models.ComponentRemoved}); err != nil {
		return err
	}

	return s.ledger.ApplyDelta(ctx, tx, stock, -quantity, 0)
}

func (s *AdjustmentService) afterCommit(identity models.Identity, adjustment *models.StockAdjustment, stock models.Stock) {
	event := StockAdjustedEvent{
		AdjustmentID:      adjustment.ID,
		StockID:           stock.ID,
		WarehouseID:       stock.WarehouseID,
		TypeComponentID:   stock.TypeComponentID,
		AdjustmentType:    adjustment.AdjustmentType,
		Quantity:          adjustment.Quantity,
		Reason:            adjustment.Reason,
		QuantityInStock:   stock.QuantityInStock,
		QuantityAvailable: stock.QuantityAvailable(),
	}

	if room := notifications.CoordinatorRoom(stock.ServiceCenterID, stock.CompanyID); room != "" {
		s.effects.Go("notify stock adjusted", func(ctx context.Context) error {
			return s.dispatcher.SendToRoom(ctx, room, notifications.EventStockAdjusted, event)
		})
	}

	userID := identity.UserID
	action := "adjusted_" + strings.ToLower(string(adjustment.AdjustmentType))
	s.effects.Go("audit stock adjustment", func(ctx context.Context) error {
		return s.auditLog.Log(ctx, action, &userID, event, adjustment)
	})

	if adjustment.AdjustmentType == models.AdjustmentOut {
		s.effects.Go("low stock alerts", func(ctx context.Context) error {
			_, err := s.alerts.EmitLowStockAlerts(ctx, []uuid.UUID{stock.ID})
			return err
		})
	}
}

func (s *AdjustmentService) GetByID(ctx context.Context, sc scope.Resolver, id uuid.UUID) (*models.StockAdjustment, error) {
	adjustment, err := s.r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	warehouse, err := s.ledger.GetWarehouse(ctx, adjustment.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(*warehouse) {
		return nil, custom_error.NewNotFound("stock adjustment", id)
	}
	return adjustment, nil
}

func (s *AdjustmentService) List(ctx context.Context, sc scope.Resolver, filter models.AdjustmentFilter, p models.Pagination) (models.Page[models.StockAdjustment], error) {
	p = p.Normalize("created_at", "created_at", "quantity")
	list, total, err := s.r.List(ctx, sc, filter, p)
	if err != nil {
		return models.Page[models.StockAdjustment]{}, fmt.Errorf("failed to list stock adjustments: %w", err)
	}
	return models.NewPage(list, total, p), nil
}

// normalizeSerials trims the list and rejects blanks and repeats.
func normalizeSerials(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, custom_error.NewBadRequest("serial_numbers", "at least one serial number is required")
	}

	seen := make(map[string]bool, len(raw))
	var duplicates []string
	serials := make([]string, 0, len(raw))
	for _, serial := range raw {
		serial = strings.TrimSpace(serial)
		if serial == "" {
			return nil, custom_error.NewBadRequest("serial_numbers", "serial numbers must not be blank")
		}
		if seen[serial] {
			duplicates = append(duplicates, serial)
			continue
		}
		seen[serial] = true
		serials = append(serials, serial)
	}

	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return nil, custom_error.NewConflictWithDetails(
			map[string]interface{}{"serial_numbers": duplicates},
			"serial numbers repeated in request: %s", strings.Join(duplicates, ", "),
		)
	}
	return serials, nil
}
