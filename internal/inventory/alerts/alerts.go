package alerts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"evinventory/internal/notifications"
	"evinventory/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StockReader interface {
	GetStocksByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Stock, error)
}

type LowStockItem struct {
	StockID           uuid.UUID `json:"stock_id"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	TypeComponentID   uuid.UUID `json:"type_component_id"`
	QuantityInStock   int       `json:"quantity_in_stock"`
	QuantityReserved  int       `json:"quantity_reserved"`
	QuantityAvailable int       `json:"quantity_available"`
	ReorderPoint      int       `json:"reorder_point"`
}

type LowStockAlert struct {
	Room      string         `json:"room"`
	Items     []LowStockItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}

type Engine struct {
	stocks     StockReader
	dispatcher notifications.Dispatcher
	logger     *zap.Logger
}

func NewEngine(stocks StockReader, dispatcher notifications.Dispatcher, logger *zap.Logger) *Engine {
	return &Engine{stocks: stocks, dispatcher: dispatcher, logger: logger}
}

// EmitLowStockAlerts reloads the stocks, keeps those at or below their
// reorder point and sends one alert per owning room. It never writes.
func (e *Engine) EmitLowStockAlerts(ctx context.Context, stockIDs []uuid.UUID) ([]LowStockAlert, error) {
	if len(stockIDs) == 0 {
		return nil, nil
	}

	stocks, err := e.stocks.GetStocksByIDs(ctx, uniqueIDs(stockIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to reload stocks for low-stock check: %w", err)
	}

	alerts := Group(stocks, time.Now().UTC())

	var errs []error
	for _, alert := range alerts {
		if err := e.dispatcher.SendToRoom(ctx, alert.Room, notifications.EventLowStockAlert, alert); err != nil {
			e.logger.Warn("Failed to send low stock alert", zap.String("room", alert.Room), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		e.logger.Info("Low stock alert sent", zap.String("room", alert.Room), zap.Int("items", len(alert.Items)))
	}
	return alerts, errors.Join(errs...)
}

// Group collects the low stocks by owning room, rooms sorted by name.
func Group(stocks []models.Stock, at time.Time) []LowStockAlert {
	byRoom := map[string][]LowStockItem{}
	for _, s := range stocks {
		if !s.IsLow() {
			continue
		}
		room := notifications.OwnerRoom(s.ServiceCenterID, s.CompanyID)
		if room == "" {
			continue
		}
		byRoom[room] = append(byRoom[room], LowStockItem{
			StockID:           s.ID,
			WarehouseID:       s.WarehouseID,
			TypeComponentID:   s.TypeComponentID,
			QuantityInStock:   s.QuantityInStock,
			QuantityReserved:  s.QuantityReserved,
			QuantityAvailable: s.QuantityAvailable(),
			ReorderPoint:      s.ReorderPoint,
		})
	}

	rooms := make([]string, 0, len(byRoom))
	for room := range byRoom {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)

	alerts := make([]LowStockAlert, 0, len(rooms))
	for _, room := range rooms {
		alerts = append(alerts, LowStockAlert{Room: room, Items: byRoom[room], CreatedAt: at})
	}
	return alerts
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
