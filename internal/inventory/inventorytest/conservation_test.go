package inventorytest_test

import (
	"context"
	"testing"
	"time"

	"evinventory/internal/caselines"
	"evinventory/internal/inventory/adjustments"
	"evinventory/internal/inventory/alerts"
	"evinventory/internal/inventory/effects"
	"evinventory/internal/inventory/inventorytest"
	"evinventory/internal/inventory/reservations"
	"evinventory/internal/inventory/scope"
	"evinventory/internal/inventory/stocks"
	"evinventory/internal/inventory/transfers"
	"evinventory/pkg/auditlog"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type shelf struct {
	warehouseID     uuid.UUID
	typeComponentID uuid.UUID
}

// assertConserved checks that every serial exists once, that each live unit
// sits in exactly one place, and that the units on each shelf match the
// ledger row for it.
func assertConserved(t *testing.T, store *inventorytest.Store, step string) {
	t.Helper()

	serials := map[string]int{}
	onShelf := map[shelf]int{}
	for _, c := range store.Components(func(models.Component) bool { return true }) {
		serials[c.SerialNumber]++
		if !c.Status.IsLive() {
			continue
		}

		places := 0
		if c.WarehouseID != nil {
			places++
		}
		if c.StockTransferRequestID != nil {
			places++
		}
		if c.VehicleVIN != nil {
			places++
		}
		switch c.Status {
		case models.ComponentInStock, models.ComponentReserved:
			require.NotNil(t, c.WarehouseID, "%s: %s is %s without a warehouse", step, c.SerialNumber, c.Status)
			onShelf[shelf{*c.WarehouseID, c.TypeComponentID}]++
			assert.Equal(t, 1, places, "%s: %s", step, c.SerialNumber)
		case models.ComponentInTransit:
			assert.NotNil(t, c.StockTransferRequestID, "%s: %s", step, c.SerialNumber)
			assert.Equal(t, 1, places, "%s: %s", step, c.SerialNumber)
		case models.ComponentInstalled:
			assert.NotNil(t, c.VehicleVIN, "%s: %s", step, c.SerialNumber)
			assert.Equal(t, 1, places, "%s: %s", step, c.SerialNumber)
		case models.ComponentPickedUp:
			assert.Nil(t, c.WarehouseID, "%s: %s", step, c.SerialNumber)
		}
	}
	for serial, n := range serials {
		assert.Equal(t, 1, n, "%s: serial %s", step, serial)
	}

	for _, s := range store.Stocks() {
		assert.Equal(t, s.QuantityInStock, onShelf[shelf{s.WarehouseID, s.TypeComponentID}],
			"%s: units on the shelf of stock %s", step, s.ID)
		assert.GreaterOrEqual(t, s.QuantityReserved, 0, "%s: stock %s", step, s.ID)
		assert.LessOrEqual(t, s.QuantityReserved, s.QuantityInStock, "%s: stock %s", step, s.ID)
	}
}

func TestUnitsFollowTheLedgerThroughTheWholeLifecycle(t *testing.T) {
	const vin = "WVWZZZE1ZNP000001"
	logger := zap.NewNop()
	ctx := context.Background()
	store := inventorytest.NewStore()
	recorder := &inventorytest.Recorder{}
	stockRepo := store.StockRepository()
	ledger := stocks.NewService(stockRepo, logger)
	engine := alerts.NewEngine(stockRepo, recorder, logger)
	audit := auditlog.NewAuditLog(store.AuditStore(), logger)
	runner := effects.NewInline(logger)

	adjustmentService := adjustments.NewService(
		store, store.AdjustmentRepository(), ledger, store.ComponentRepository(),
		engine, recorder, audit, runner, logger,
	)
	reservationService := reservations.NewService(
		store, store.ReservationRepository(), ledger, store.ComponentRepository(), store.CaseLines(),
		engine, runner, logger,
	)
	transferService := transfers.NewService(
		store, store.TransferRepository(), ledger, store.ReservationRepository(), store.ComponentRepository(),
		store.CaseLines(), engine, recorder, audit, store.AuditStore(), runner, logger,
	)

	scID, company, typeID := uuid.New(), uuid.New(), uuid.New()
	shop := store.AddServiceCenterWarehouse("SC Turin", scID, company)
	central := store.AddCompanyWarehouse("Central", company)
	centralStock := store.AddStockRow(central.ID, typeID, 0, 0, 0)

	manager := models.Identity{UserID: uuid.New(), RoleName: string(roles.ServiceCenterManager), ServiceCenterID: &scID}
	coordinator := models.Identity{UserID: uuid.New(), RoleName: string(roles.PartsCoordinatorCompany), CompanyID: &company}
	shopScope := scope.ServiceCenterScope{ServiceCenterID: scID}
	companyScope := scope.CompanyScope{CompanyID: company}
	assertConserved(t, store, "start")

	_, err := adjustmentService.CreateAdjustment(ctx, coordinator, companyScope, adjustments.CreateAdjustmentRequest{
		StockID:        centralStock.ID,
		AdjustmentType: models.AdjustmentIn,
		SerialNumbers:  []string{"PACK-001", "PACK-002", "PACK-003", "PACK-004", "PACK-005"},
		Reason:         "delivery from plant",
	})
	require.NoError(t, err)
	assertConserved(t, store, "stock in")

	request, err := transferService.Create(ctx, manager, shopScope, transfers.CreateTransferRequest{
		RequestType:           models.RequestTypeWarehouseRestock,
		RequestingWarehouseID: shop.ID,
		Items:                 []transfers.CreateItemRequest{{TypeComponentID: typeID, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = transferService.Approve(ctx, coordinator, companyScope, request.ID)
	require.NoError(t, err)
	assertConserved(t, store, "approve")

	eta := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err = transferService.Ship(ctx, coordinator, companyScope, request.ID, &eta)
	require.NoError(t, err)
	assertConserved(t, store, "ship")

	_, err = transferService.Receive(ctx, manager, shopScope, request.ID)
	require.NoError(t, err)
	assertConserved(t, store, "receive")

	fittedAt := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	vehicle := vin
	old := store.AddComponent(models.Component{
		SerialNumber:    "PACK-OLD",
		TypeComponentID: typeID,
		Status:          models.ComponentInstalled,
		VehicleVIN:      &vehicle,
		InstalledAt:     &fittedAt,
	})
	store.SetWarrantedComponents(vin, typeID, 1)
	caseLine := store.AddCaseLine(caselines.PartsAvailable, vin)
	assertConserved(t, store, "vehicle registered")

	reserved, err := reservationService.Reserve(ctx, shopScope, reservations.ReserveRequest{
		CaseLineID:      caseLine,
		WarehouseID:     shop.ID,
		TypeComponentID: typeID,
	})
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	assertConserved(t, store, "reserve")

	_, err = reservationService.Pickup(ctx, shopScope, []uuid.UUID{reserved[0].ID}, uuid.New())
	require.NoError(t, err)
	assertConserved(t, store, "pickup")

	_, err = reservationService.Install(ctx, shopScope, reserved[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.ComponentRemoved, store.Component(old.ID).Status)
	assertConserved(t, store, "install")

	_, err = adjustmentService.CreateAdjustment(ctx, coordinator, companyScope, adjustments.CreateAdjustmentRequest{
		StockID:        centralStock.ID,
		AdjustmentType: models.AdjustmentOut,
		Quantity:       1,
		Reason:         "damaged in storage",
	})
	require.NoError(t, err)
	assertConserved(t, store, "stock out")

	assert.Equal(t, 1, store.Stock(centralStock.ID).QuantityInStock)
	live := store.Components(func(c models.Component) bool { return c.Status.IsLive() })
	assert.Len(t, live, 4)
}
