package history

import (
	"context"
	"testing"
	"time"

	"evinventory/internal/inventory/inventorytest"
	"evinventory/internal/inventory/scope"
	"evinventory/internal/inventory/stocks"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSign(t *testing.T) {
	tests := []struct {
		status models.ReservationStatus
		want   int
	}{
		{models.ReservationReserved, -1},
		{models.ReservationPickedUp, -1},
		{models.ReservationInstalled, -1},
		{models.ReservationShipped, -1},
		{"IN_TRANSIT", -1},
		{"COMPLETED", -1},
		{models.ReservationCancelled, 1},
		{models.ReservationReleased, 1},
		{"RETURNED", 1},
		{"SOMETHING_NEW", 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, Sign(tt.status))
		})
	}
}

func TestMerge_NewestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := models.StockAdjustment{ID: uuid.New(), AdjustmentType: models.AdjustmentIn, Quantity: 5, Reason: "delivery", CreatedAt: base}
	out := models.StockAdjustment{ID: uuid.New(), AdjustmentType: models.AdjustmentOut, Quantity: 2, Reason: "damaged", CreatedAt: base.Add(2 * time.Hour)}
	reserved := models.Reservation{ID: uuid.New(), QuantityReserved: 1, Status: models.ReservationReserved, UpdatedAt: base.Add(time.Hour)}
	cancelled := models.Reservation{ID: uuid.New(), QuantityReserved: 3, Status: models.ReservationCancelled, UpdatedAt: base.Add(3 * time.Hour)}

	entries := Merge([]models.StockAdjustment{in, out}, []models.Reservation{reserved, cancelled})

	require.Len(t, entries, 4)
	assert.Equal(t, []uuid.UUID{cancelled.ID, out.ID, reserved.ID, in.ID},
		[]uuid.UUID{entries[0].ID, entries[1].ID, entries[2].ID, entries[3].ID})
	assert.Equal(t, []int{3, -2, -1, 5},
		[]int{entries[0].QuantityChange, entries[1].QuantityChange, entries[2].QuantityChange, entries[3].QuantityChange})
	assert.Equal(t, SourceAdjustment, entries[1].Source)
	assert.Equal(t, "damaged", *entries[1].Reason)
	assert.Equal(t, SourceReservation, entries[0].Source)
	assert.Equal(t, "CANCELLED", entries[0].Kind)
}

func TestGetStockHistory(t *testing.T) {
	store := inventorytest.NewStore()
	logger := zap.NewNop()
	scID := uuid.New()
	wh := store.AddServiceCenterWarehouse("SC Porto", scID, uuid.New())
	stock := store.AddStock(wh.ID, uuid.New(), 5, 2, 0)
	other := store.AddStock(wh.ID, uuid.New(), 1, 0, 0)
	for i := 0; i < 3; i++ {
		store.AddReservation(models.Reservation{StockID: stock.ID, QuantityReserved: 1, Status: models.ReservationReserved})
	}
	store.AddReservation(models.Reservation{StockID: other.ID, QuantityReserved: 1, Status: models.ReservationReserved})

	service := NewService(
		stocks.NewService(store.StockRepository(), logger),
		store.AdjustmentRepository(),
		store.ReservationRepository(),
		logger,
	)
	ctx := context.Background()
	sc := scope.ServiceCenterScope{ServiceCenterID: scID}

	page, err := service.GetStockHistory(ctx, sc, stock.ID, models.Pagination{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.True(t, !page.Items[0].OccurredAt.Before(page.Items[1].OccurredAt))

	page, err = service.GetStockHistory(ctx, sc, stock.ID, models.Pagination{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	ascending, err := service.GetStockHistory(ctx, sc, stock.ID, models.Pagination{SortOrder: models.SortAsc})
	require.NoError(t, err)
	require.Len(t, ascending.Items, 3)
	assert.True(t, !ascending.Items[0].OccurredAt.After(ascending.Items[2].OccurredAt))

	_, err = service.GetStockHistory(ctx, scope.ServiceCenterScope{ServiceCenterID: uuid.New()}, stock.ID, models.Pagination{})
	assert.True(t, custom_error.IsNotFound(err))

	empty, err := service.GetStockHistory(ctx, sc, store.AddStockRow(wh.ID, uuid.New(), 0, 0, 0).ID, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.NotNil(t, empty.Items)
}
