package stocks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"evinventory/internal/inventory/inventorytest"
	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestApplyDeltaQuery_GuardsInvariant(t *testing.T) {
	id := uuid.MustParse("6f1c2f0e-5d0b-4a43-9a57-0f0e4b9c1a11")
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	sql, _, err := applyDeltaQuery(goqu.Dialect("postgres"), id, -2, 1, at).ToSQL()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, `UPDATE "stocks" SET`))
	assert.Contains(t, sql, `"quantity_in_stock"=quantity_in_stock + -2`)
	assert.Contains(t, sql, `"quantity_reserved"=quantity_reserved + 1`)
	assert.Contains(t, sql, `"id" = '`+id.String()+`'`)
	assert.Contains(t, sql, `quantity_in_stock + -2 >= 0`)
	assert.Contains(t, sql, `quantity_reserved + 1 >= 0`)
	assert.Contains(t, sql, `quantity_reserved + 1 <= quantity_in_stock + -2`)
}

func newService(store *inventorytest.Store) (*StockService, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return NewService(store.StockRepository(), zap.New(core)), logs
}

func TestApplyDelta_RejectsViolationAndLogs(t *testing.T) {
	store := inventorytest.NewStore()
	service, logs := newService(store)
	wh := store.AddCompanyWarehouse("Central", uuid.New())
	stock := store.AddStockRow(wh.ID, uuid.New(), 3, 2, 0)

	tests := []struct {
		name          string
		deltaStock    int
		deltaReserved int
	}{
		{"reserve beyond stock", 0, 2},
		{"negative reserved", 0, -3},
		{"stock below reserved", -2, 0},
		{"negative stock", -4, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locked := store.Stock(stock.ID)
			err := service.ApplyDelta(context.Background(), nil, &locked, tt.deltaStock, tt.deltaReserved)

			assert.True(t, custom_error.IsInvariantViolation(err))
			assert.Equal(t, 3, locked.QuantityInStock)
			assert.Equal(t, 2, locked.QuantityReserved)
		})
	}

	after := store.Stock(stock.ID)
	assert.Equal(t, 3, after.QuantityInStock)
	assert.Equal(t, 2, after.QuantityReserved)
	assert.Equal(t, len(tests), logs.FilterMessage("Stock invariant violation").Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}

func TestApplyDelta_UpdatesLockedCopy(t *testing.T) {
	store := inventorytest.NewStore()
	service, _ := newService(store)
	wh := store.AddCompanyWarehouse("Central", uuid.New())
	stock := store.AddStockRow(wh.ID, uuid.New(), 3, 1, 0)

	locked := store.Stock(stock.ID)
	require.NoError(t, service.ApplyDelta(context.Background(), nil, &locked, 2, 3))

	assert.Equal(t, 5, locked.QuantityInStock)
	assert.Equal(t, 4, locked.QuantityReserved)
	assert.Equal(t, locked.QuantityInStock, store.Stock(stock.ID).QuantityInStock)
	assert.Equal(t, locked.QuantityReserved, store.Stock(stock.ID).QuantityReserved)
}

func TestGetStock_IsScoped(t *testing.T) {
	store := inventorytest.NewStore()
	service, _ := newService(store)
	scID, company := uuid.New(), uuid.New()
	wh := store.AddServiceCenterWarehouse("SC Gdansk", scID, company)
	stock := store.AddStockRow(wh.ID, uuid.New(), 1, 0, 0)
	ctx := context.Background()

	for _, sc := range []scope.Resolver{
		scope.ServiceCenterScope{ServiceCenterID: scID},
		scope.CompanyScope{CompanyID: company},
		scope.UnscopedAdmin{},
	} {
		got, err := service.GetStock(ctx, sc, stock.ID)
		require.NoError(t, err)
		assert.Equal(t, stock.ID, got.ID)
	}

	_, err := service.GetStock(ctx, scope.ServiceCenterScope{ServiceCenterID: uuid.New()}, stock.ID)
	assert.True(t, custom_error.IsNotFound(err))

	_, err = service.GetStock(ctx, scope.UnscopedAdmin{}, uuid.New())
	assert.True(t, custom_error.IsNotFound(err))
}

func TestUpdateReorderPoint(t *testing.T) {
	store := inventorytest.NewStore()
	service, _ := newService(store)
	scID := uuid.New()
	wh := store.AddServiceCenterWarehouse("SC Gdansk", scID, uuid.New())
	stock := store.AddStockRow(wh.ID, uuid.New(), 4, 0, 1)
	ctx := context.Background()
	sc := scope.ServiceCenterScope{ServiceCenterID: scID}

	_, err := service.UpdateReorderPoint(ctx, sc, stock.ID, -1)
	var badRequest *custom_error.BadRequestError
	require.True(t, errors.As(err, &badRequest))
	assert.Equal(t, "reorder_point", badRequest.Field)

	updated, err := service.UpdateReorderPoint(ctx, sc, stock.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.ReorderPoint)
	assert.True(t, updated.IsLow())

	_, err = service.UpdateReorderPoint(ctx, scope.ServiceCenterScope{ServiceCenterID: uuid.New()}, stock.ID, 0)
	assert.True(t, custom_error.IsNotFound(err))
	assert.Equal(t, 4, store.Stock(stock.ID).ReorderPoint)
}

func TestSummaryAndList(t *testing.T) {
	store := inventorytest.NewStore()
	service, _ := newService(store)
	company := uuid.New()
	alpha := store.AddCompanyWarehouse("Alpha", company)
	beta := store.AddCompanyWarehouse("Beta", company)
	store.AddCompanyWarehouse("Elsewhere", uuid.New())
	store.AddStockRow(alpha.ID, uuid.New(), 10, 4, 2)
	store.AddStockRow(alpha.ID, uuid.New(), 3, 1, 5)
	store.AddStockRow(beta.ID, uuid.New(), 8, 0, 1)
	ctx := context.Background()
	sc := scope.CompanyScope{CompanyID: company}

	summaries, err := service.SummaryByWarehouseFilter(ctx, sc, models.StockFilter{})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Alpha", summaries[0].WarehouseName)
	assert.Equal(t, 2, summaries[0].ComponentTypes)
	assert.Equal(t, 13, summaries[0].QuantityInStock)
	assert.Equal(t, 5, summaries[0].QuantityReserved)
	assert.Equal(t, 8, summaries[0].QuantityAvailable())
	assert.Equal(t, 1, summaries[0].LowStockCount)

	low, err := service.SummaryByWarehouseFilter(ctx, sc, models.StockFilter{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, alpha.ID, low[0].WarehouseID)

	page, err := service.List(ctx, sc, models.StockFilter{LowStockOnly: true}, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.Items[0].ReorderPoint)

	page, err = service.List(ctx, sc, models.StockFilter{WarehouseID: &beta.ID}, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}
