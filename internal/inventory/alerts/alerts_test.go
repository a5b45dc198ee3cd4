package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"evinventory/internal/inventory/inventorytest"
	"evinventory/internal/notifications"
	"evinventory/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGroup_ByOwningRoom(t *testing.T) {
	scID, company := uuid.New(), uuid.New()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stocks := []models.Stock{
		{ID: uuid.New(), QuantityInStock: 2, QuantityReserved: 1, ReorderPoint: 1, ServiceCenterID: &scID, CompanyID: &company},
		{ID: uuid.New(), QuantityInStock: 9, QuantityReserved: 0, ReorderPoint: 3, ServiceCenterID: &scID, CompanyID: &company},
		{ID: uuid.New(), QuantityInStock: 0, QuantityReserved: 0, ReorderPoint: 0, ServiceCenterID: &scID, CompanyID: &company},
		{ID: uuid.New(), QuantityInStock: 4, QuantityReserved: 4, ReorderPoint: 0, CompanyID: &company},
		{ID: uuid.New(), QuantityInStock: 0, QuantityReserved: 0, ReorderPoint: 2},
	}

	alerts := Group(stocks, at)

	require.Len(t, alerts, 2)
	rooms := map[string]LowStockAlert{}
	for _, a := range alerts {
		rooms[a.Room] = a
		assert.Equal(t, at, a.CreatedAt)
	}
	require.Contains(t, rooms, notifications.ServiceCenterRoom(scID))
	require.Contains(t, rooms, notifications.CompanyRoom(company))
	assert.Len(t, rooms[notifications.ServiceCenterRoom(scID)].Items, 2)
	assert.Len(t, rooms[notifications.CompanyRoom(company)].Items, 1)
	assert.Equal(t, 0, rooms[notifications.CompanyRoom(company)].Items[0].QuantityAvailable)
}

func TestEmitLowStockAlerts_IsIdempotent(t *testing.T) {
	store := inventorytest.NewStore()
	recorder := &inventorytest.Recorder{}
	engine := NewEngine(store.StockRepository(), recorder, zap.NewNop())
	scID := uuid.New()
	wh := store.AddServiceCenterWarehouse("SC Riga", scID, uuid.New())
	low := store.AddStockRow(wh.ID, uuid.New(), 3, 2, 2)
	fine := store.AddStockRow(wh.ID, uuid.New(), 10, 0, 2)
	before := store.Stocks()
	ctx := context.Background()

	first, err := engine.EmitLowStockAlerts(ctx, []uuid.UUID{low.ID, fine.ID, low.ID})
	require.NoError(t, err)
	second, err := engine.EmitLowStockAlerts(ctx, []uuid.UUID{low.ID, fine.ID})
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Room, second[0].Room)
	assert.Equal(t, first[0].Items, second[0].Items)
	require.Len(t, first[0].Items, 1)
	assert.Equal(t, low.ID, first[0].Items[0].StockID)

	sent := recorder.Events(notifications.EventLowStockAlert)
	require.Len(t, sent, 2)
	assert.Equal(t, notifications.ServiceCenterRoom(scID), sent[0].Room)
	assert.Equal(t, before, store.Stocks())
}

func TestEmitLowStockAlerts_NothingToDo(t *testing.T) {
	store := inventorytest.NewStore()
	recorder := &inventorytest.Recorder{}
	engine := NewEngine(store.StockRepository(), recorder, zap.NewNop())

	alerts, err := engine.EmitLowStockAlerts(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Empty(t, recorder.Sent())
}

func TestEmitLowStockAlerts_ReportsDispatchFailure(t *testing.T) {
	store := inventorytest.NewStore()
	recorder := &inventorytest.Recorder{Err: errors.New("broker down")}
	engine := NewEngine(store.StockRepository(), recorder, zap.NewNop())
	wh := store.AddCompanyWarehouse("Central", uuid.New())
	stock := store.AddStockRow(wh.ID, uuid.New(), 0, 0, 1)

	alerts, err := engine.EmitLowStockAlerts(context.Background(), []uuid.UUID{stock.ID})

	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, alerts, 1)
}
