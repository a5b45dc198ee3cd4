package transfers

import (
	"context"
	"errors"
	"testing"
	"time"

	"evinventory/internal/caselines"
	"evinventory/internal/inventory/alerts"
	"evinventory/internal/inventory/effects"
	"evinventory/internal/inventory/inventorytest"
	"evinventory/internal/inventory/scope"
	"evinventory/internal/inventory/stocks"
	"evinventory/internal/notifications"
	"evinventory/pkg/auditlog"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store    *inventorytest.Store
	recorder *inventorytest.Recorder
	service  *TransferService

	scID     uuid.UUID
	company  uuid.UUID
	shop     models.Warehouse
	centralA models.Warehouse
	centralB models.Warehouse
	typeID   uuid.UUID

	manager      models.Identity
	coordinator  models.Identity
	shopScope    scope.Resolver
	companyScope scope.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	store := inventorytest.NewStore()
	recorder := &inventorytest.Recorder{}
	stockRepo := store.StockRepository()
	auditStore := store.AuditStore()

	f := &fixture{
		store:    store,
		recorder: recorder,
		scID:     uuid.New(),
		company:  uuid.New(),
		typeID:   uuid.New(),
	}
	f.shop = store.AddServiceCenterWarehouse("SC Lyon", f.scID, f.company)
	f.centralA = store.AddWarehouse(models.Warehouse{
		ID:        uuid.MustParse("00000000-0000-0000-0000-00000000000a"),
		Name:      "Central A",
		CompanyID: &f.company,
	})
	f.centralB = store.AddWarehouse(models.Warehouse{
		ID:        uuid.MustParse("00000000-0000-0000-0000-00000000000b"),
		Name:      "Central B",
		CompanyID: &f.company,
	})

	f.manager = models.Identity{UserID: uuid.New(), RoleName: string(roles.ServiceCenterManager), ServiceCenterID: &f.scID}
	f.coordinator = models.Identity{UserID: uuid.New(), RoleName: string(roles.PartsCoordinatorCompany), CompanyID: &f.company}
	f.shopScope = scope.ServiceCenterScope{ServiceCenterID: f.scID}
	f.companyScope = scope.CompanyScope{CompanyID: f.company}

	f.service = NewService(
		store,
		store.TransferRepository(),
		stocks.NewService(stockRepo, logger),
		store.ReservationRepository(),
		store.ComponentRepository(),
		store.CaseLines(),
		alerts.NewEngine(stockRepo, recorder, logger),
		recorder,
		auditlog.NewAuditLog(auditStore, logger),
		auditStore,
		effects.NewInline(logger),
		logger,
	)
	f.service.now = store.Now
	return f
}

func (f *fixture) create(t *testing.T, req CreateTransferRequest) *models.StockTransferRequest {
	t.Helper()
	request, err := f.service.Create(context.Background(), f.manager, f.shopScope, req)
	require.NoError(t, err)
	return request
}

func (f *fixture) restock(t *testing.T, quantity int) *models.StockTransferRequest {
	t.Helper()
	return f.create(t, CreateTransferRequest{
		RequestType:           models.RequestTypeWarehouseRestock,
		RequestingWarehouseID: f.shop.ID,
		Items:                 []CreateItemRequest{{TypeComponentID: f.typeID, Quantity: quantity}},
	})
}

func (f *fixture) forCaseLine(t *testing.T, caseLine uuid.UUID, quantity int) *models.StockTransferRequest {
	t.Helper()
	return f.create(t, CreateTransferRequest{
		RequestType:           models.RequestTypeCaseLine,
		RequestingWarehouseID: f.shop.ID,
		Items:                 []CreateItemRequest{{TypeComponentID: f.typeID, Quantity: quantity, CaseLineID: &caseLine}},
	})
}

func assertInvariant(t *testing.T, store *inventorytest.Store) {
	t.Helper()
	for _, s := range store.Stocks() {
		assert.GreaterOrEqual(t, s.QuantityReserved, 0, "stock %s", s.ID)
		assert.LessOrEqual(t, s.QuantityReserved, s.QuantityInStock, "stock %s", s.ID)
	}
}

func TestCreate_PendingAndNotifiesFulfiller(t *testing.T) {
	f := newFixture(t)
	caseLine := f.store.AddCaseLine(caselines.InRepair, "VIN-1")

	request := f.forCaseLine(t, caseLine, 2)

	assert.Equal(t, models.TransferPendingApproval, request.Status)
	assert.Equal(t, f.manager.UserID, request.RequestedBy)
	require.Len(t, request.Items, 1)
	assert.Equal(t, request.ID, request.Items[0].RequestID)
	assert.Equal(t, caselines.WaitingForParts, f.store.CaseLineStatus(caseLine))

	created := f.recorder.Events(notifications.EventTransferCreated)
	require.Len(t, created, 1)
	assert.Equal(t, notifications.CompanyRoleRoom(f.company, roles.PartsCoordinatorCompany), created[0].Room)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateTransferRequest
		field string
	}{
		{
			name:  "unknown type",
			req:   CreateTransferRequest{RequestType: "EXPRESS", RequestingWarehouseID: f.shop.ID, Items: []CreateItemRequest{{TypeComponentID: f.typeID, Quantity: 1}}},
			field: "request_type",
		},
		{
			name:  "no items",
			req:   CreateTransferRequest{RequestType: models.RequestTypeWarehouseRestock, RequestingWarehouseID: f.shop.ID},
			field: "items",
		},
		{
			name:  "non positive quantity",
			req:   CreateTransferRequest{RequestType: models.RequestTypeWarehouseRestock, RequestingWarehouseID: f.shop.ID, Items: []CreateItemRequest{{TypeComponentID: f.typeID}}},
			field: "items",
		},
		{
			name:  "case line request without case line",
			req:   CreateTransferRequest{RequestType: models.RequestTypeCaseLine, RequestingWarehouseID: f.shop.ID, Items: []CreateItemRequest{{TypeComponentID: f.typeID, Quantity: 1}}},
			field: "items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(ctx, f.manager, f.shopScope, tt.req)
			var badRequest *custom_error.BadRequestError
			require.True(t, errors.As(err, &badRequest))
			assert.Equal(t, tt.field, badRequest.Field)
		})
	}

	_, err := f.service.Create(ctx, f.manager, scope.ServiceCenterScope{ServiceCenterID: uuid.New()}, CreateTransferRequest{
		RequestType:           models.RequestTypeWarehouseRestock,
		RequestingWarehouseID: f.shop.ID,
		Items:                 []CreateItemRequest{{TypeComponentID: f.typeID, Quantity: 1}},
	})
	assert.True(t, custom_error.IsNotFound(err))
	assert.Equal(t, 0, f.store.RequestCount())
}

func TestApprove_SplitsAcrossWarehouses(t *testing.T) {
	f := newFixture(t)
	stockA := f.store.AddStock(f.centralA.ID, f.typeID, 3, 0, 0)
	stockB := f.store.AddStock(f.centralB.ID, f.typeID, 4, 0, 0)
	request := f.restock(t, 5)

	approved, err := f.service.Approve(context.Background(), f.coordinator, f.companyScope, request.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TransferApproved, approved.Status)
	assert.Equal(t, f.coordinator.UserID, *approved.ApprovedBy)
	assert.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, 3, f.store.Stock(stockA.ID).QuantityReserved)
	assert.Equal(t, 2, f.store.Stock(stockB.ID).QuantityReserved)

	reservations := f.store.Reservations(func(r models.Reservation) bool {
		return r.StockTransferRequestID != nil && *r.StockTransferRequestID == request.ID
	})
	require.Len(t, reservations, 2)
	byStock := map[uuid.UUID]models.Reservation{}
	for _, r := range reservations {
		byStock[r.StockID] = r
		assert.Equal(t, models.ReservationReserved, r.Status)
		assert.Equal(t, request.Items[0].ID, *r.RequestItemID)
		assert.Nil(t, r.ComponentID)
	}
	assert.Equal(t, 3, byStock[stockA.ID].QuantityReserved)
	assert.Equal(t, 2, byStock[stockB.ID].QuantityReserved)

	approvedEvents := f.recorder.Events(notifications.EventTransferApproved)
	require.Len(t, approvedEvents, 1)
	assert.Equal(t, notifications.ServiceCenterRoom(f.scID), approvedEvents[0].Room)
	assertInvariant(t, f.store)
}

func TestApprove_PrefersOwnCompanyWarehouses(t *testing.T) {
	f := newFixture(t)
	otherCompany := uuid.New()
	foreign := f.store.AddWarehouse(models.Warehouse{
		ID:        uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Name:      "Partner",
		CompanyID: &otherCompany,
	})
	foreignStock := f.store.AddStock(foreign.ID, f.typeID, 5, 0, 0)
	ownStock := f.store.AddStock(f.centralB.ID, f.typeID, 5, 0, 0)
	request := f.restock(t, 2)

	_, err := f.service.Approve(context.Background(), f.coordinator, scope.UnscopedAdmin{}, request.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, f.store.Stock(foreignStock.ID).QuantityReserved)
	assert.Equal(t, 2, f.store.Stock(ownStock.ID).QuantityReserved)
}

func TestApprove_IsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	scarce := uuid.New()
	plenty := f.store.AddStock(f.centralA.ID, f.typeID, 10, 0, 0)
	few := f.store.AddStock(f.centralB.ID, scarce, 1, 0, 0)
	request := f.create(t, CreateTransferRequest{
		RequestType:           models.RequestTypeWarehouseRestock,
		RequestingWarehouseID: f.shop.ID,
		Items: []CreateItemRequest{
			{TypeComponentID: f.typeID, Quantity: 4},
			{TypeComponentID: scarce, Quantity: 3},
		},
	})

	_, err := f.service.Approve(context.Background(), f.coordinator, f.companyScope, request.ID)

	var conflict *custom_error.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, scarce, conflict.Details["type_component_id"])
	assert.Equal(t, 3, conflict.Details["requested"])
	assert.Equal(t, 1, conflict.Details["available"])

	assert.Equal(t, 0, f.store.Stock(plenty.ID).QuantityReserved)
	assert.Equal(t, 0, f.store.Stock(few.ID).QuantityReserved)
	assert.Empty(t, f.store.Reservations(func(models.Reservation) bool { return true }))
	assert.Equal(t, models.TransferPendingApproval, f.store.Request(request.ID).Status)
	assert.Empty(t, f.recorder.Events(notifications.EventTransferApproved))
}

func TestApprove_SkipsRequestingWarehouse(t *testing.T) {
	f := newFixture(t)
	f.store.AddStock(f.shop.ID, f.typeID, 10, 0, 0)
	request := f.restock(t, 1)

	_, err := f.service.Approve(context.Background(), f.coordinator, f.companyScope, request.ID)

	assert.True(t, custom_error.IsConflict(err))
}

func TestApprove_RequiresPending(t *testing.T) {
	f := newFixture(t)
	f.store.AddStock(f.centralA.ID, f.typeID, 5, 0, 0)
	request := f.restock(t, 1)
	ctx := context.Background()

	_, err := f.service.Approve(ctx, f.coordinator, f.companyScope, request.ID)
	require.NoError(t, err)
	_, err = f.service.Approve(ctx, f.coordinator, f.companyScope, request.ID)

	assert.True(t, custom_error.IsConflict(err))
	assert.Len(t, f.store.Reservations(func(models.Reservation) bool { return true }), 1)
}

func TestShipAndReceive_MovesUnitsBetweenWarehouses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stockA := f.store.AddStock(f.centralA.ID, f.typeID, 3, 0, 0)
	stockB := f.store.AddStock(f.centralB.ID, f.typeID, 4, 0, 0)
	caseLine := f.store.AddCaseLine(caselines.InRepair, "VIN-1")
	request := f.forCaseLine(t, caseLine, 5)

	_, err := f.service.Approve(ctx, f.coordinator, f.companyScope, request.ID)
	require.NoError(t, err)

	eta := f.store.Now().Add(48 * time.Hour)
	shipped, err := f.service.Ship(ctx, f.coordinator, f.companyScope, request.ID, &eta)
	require.NoError(t, err)
	assert.Equal(t, models.TransferShipped, shipped.Status)
	assert.Equal(t, eta, *shipped.EstimatedDeliveryDate)
	assert.NotNil(t, shipped.ShippedAt)

	a, b := f.store.Stock(stockA.ID), f.store.Stock(stockB.ID)
	assert.Equal(t, 0, a.QuantityInStock)
	assert.Equal(t, 0, a.QuantityReserved)
	assert.Equal(t, 2, b.QuantityInStock)
	assert.Equal(t, 0, b.QuantityReserved)

	inTransit := f.store.Components(func(c models.Component) bool { return c.Status == models.ComponentInTransit })
	require.Len(t, inTransit, 5)
	for _, c := range inTransit {
		assert.Nil(t, c.WarehouseID)
		assert.Equal(t, request.ID, *c.StockTransferRequestID)
	}
	for _, r := range f.store.Reservations(func(models.Reservation) bool { return true }) {
		assert.Equal(t, models.ReservationShipped, r.Status)
	}
	shippedEvents := f.recorder.Events(notifications.EventTransferShipped)
	require.Len(t, shippedEvents, 2)
	assert.Equal(t, notifications.ServiceCenterRoleRoom(f.scID, roles.ServiceCenterManager), shippedEvents[0].Room)
	assert.Equal(t, notifications.ServiceCenterRoleRoom(f.scID, roles.PartsCoordinatorServiceCenter), shippedEvents[1].Room)

	received, err := f.service.Receive(ctx, f.manager, f.shopScope, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferReceived, received.Status)
	assert.Equal(t, f.manager.UserID, *received.ReceivedBy)

	shopUnits := f.store.Components(func(c models.Component) bool {
		return c.WarehouseID != nil && *c.WarehouseID == f.shop.ID
	})
	require.Len(t, shopUnits, 5)
	for _, c := range shopUnits {
		assert.Equal(t, models.ComponentInStock, c.Status)
		assert.Nil(t, c.StockTransferRequestID)
	}

	var destination *models.Stock
	for _, s := range f.store.Stocks() {
		if s.WarehouseID == f.shop.ID && s.TypeComponentID == f.typeID {
			s := s
			destination = &s
		}
	}
	require.NotNil(t, destination)
	assert.Equal(t, 5, destination.QuantityInStock)
	assert.Equal(t, 0, destination.QuantityReserved)
	assert.Equal(t, caselines.PartsAvailable, f.store.CaseLineStatus(caseLine))
	assertInvariant(t, f.store)

	history, err := f.service.History(ctx, f.shopScope, request.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(history))
	for _, entry := range history {
		actions = append(actions, entry.Action)
	}
	assert.Equal(t, []string{"created", "approved", "shipped", "received"}, actions)
}

func TestShip_RequiresApproved(t *testing.T) {
	f := newFixture(t)
	request := f.restock(t, 1)

	_, err := f.service.Ship(context.Background(), f.coordinator, f.companyScope, request.ID, nil)

	assert.True(t, custom_error.IsConflict(err))
}

func TestShip_ConflictWhenUnitsAreMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.store.AddStockRow(f.centralA.ID, f.typeID, 2, 0, 0)
	request := f.restock(t, 2)

	_, err := f.service.Approve(ctx, f.coordinator, f.companyScope, request.ID)
	require.NoError(t, err)
	_, err = f.service.Ship(ctx, f.coordinator, f.companyScope, request.ID, nil)

	assert.True(t, custom_error.IsConflict(err))
	after := f.store.Stock(stock.ID)
	assert.Equal(t, 2, after.QuantityInStock)
	assert.Equal(t, 2, after.QuantityReserved)
	assert.Equal(t, models.TransferApproved, f.store.Request(request.ID).Status)
}

func TestShip_ConflictWithoutReservedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stock := f.store.AddStock(f.centralA.ID, f.typeID, 5, 0, 0)
	request := f.restock(t, 3)

	_, err := f.service.Approve(ctx, f.coordinator, f.companyScope, request.ID)
	require.NoError(t, err)
	reservations := f.store.ReservationRepository()
	for _, res := range f.store.Reservations(func(models.Reservation) bool { return true }) {
		res.Status = models.ReservationCancelled
		require.NoError(t, reservations.Update(ctx, nil, res))
	}

	_, err = f.service.Ship(ctx, f.coordinator, f.companyScope, request.ID, nil)

	assert.True(t, custom_error.IsConflict(err))
	assert.Equal(t, models.TransferApproved, f.store.Request(request.ID).Status)
	assert.Equal(t, 5, f.store.Stock(stock.ID).QuantityInStock)
	assert.Empty(t, f.store.Components(func(c models.Component) bool { return c.Status == models.ComponentInTransit }))
}

func TestReceive_RequiresShipped(t *testing.T) {
	f := newFixture(t)
	request := f.restock(t, 1)

	_, err := f.service.Receive(context.Background(), f.manager, f.shopScope, request.ID)

	assert.True(t, custom_error.IsConflict(err))
}

func TestReject_NeedsReasonAndRejectsCaseLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	caseLine := f.store.AddCaseLine(caselines.InRepair, "VIN-1")
	request := f.forCaseLine(t, caseLine, 1)

	_, err := f.service.Reject(ctx, f.coordinator, f.companyScope, request.ID, "  ")
	var badRequest *custom_error.BadRequestError
	require.True(t, errors.As(err, &badRequest))
	assert.Equal(t, "reason", badRequest.Field)

	rejected, err := f.service.Reject(ctx, f.coordinator, f.companyScope, request.ID, "part discontinued")
	require.NoError(t, err)
	assert.Equal(t, models.TransferRejected, rejected.Status)
	assert.Equal(t, "part discontinued", *rejected.RejectionReason)
	assert.Equal(t, f.coordinator.UserID, *rejected.RejectedBy)
	assert.Equal(t, caselines.RejectedByOEM, f.store.CaseLineStatus(caseLine))

	events := f.recorder.Events(notifications.EventTransferRejected)
	require.Len(t, events, 1)
	assert.Equal(t, notifications.ServiceCenterRoom(f.scID), events[0].Room)
}

func TestCancel_ApprovedReleasesReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stockA := f.store.AddStock(f.centralA.ID, f.typeID, 3, 0, 0)
	stockB := f.store.AddStock(f.centralB.ID, f.typeID, 4, 1, 0)
	caseLine := f.store.AddCaseLine(caselines.InRepair, "VIN-1")
	request := f.forCaseLine(t, caseLine, 5)
	_, err := f.service.Approve(ctx, f.coordinator, f.companyScope, request.ID)
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(ctx, f.coordinator, f.companyScope, request.ID, "customer declined")
	require.NoError(t, err)

	assert.Equal(t, models.TransferCancelled, cancelled.Status)
	assert.Equal(t, "customer declined", *cancelled.CancellationReason)
	assert.Equal(t, 0, f.store.Stock(stockA.ID).QuantityReserved)
	assert.Equal(t, 1, f.store.Stock(stockB.ID).QuantityReserved)
	for _, r := range f.store.Reservations(func(r models.Reservation) bool { return r.StockTransferRequestID != nil }) {
		assert.Equal(t, models.ReservationCancelled, r.Status)
	}
	assert.Equal(t, caselines.WaitingForParts, f.store.CaseLineStatus(caseLine))

	events := f.recorder.Events(notifications.EventTransferCancelled)
	require.Len(t, events, 1)
	assert.Equal(t, notifications.ServiceCenterRoom(f.scID), events[0].Room)
	assertInvariant(t, f.store)
}

func TestCancel_PartyRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddStock(f.centralA.ID, f.typeID, 5, 0, 0)

	pending := f.restock(t, 1)
	cancelled, err := f.service.Cancel(ctx, f.manager, f.shopScope, pending.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.TransferCancelled, cancelled.Status)
	assert.Nil(t, cancelled.CancellationReason)
	fulfillerEvents := f.recorder.Events(notifications.EventTransferCancelled)
	require.Len(t, fulfillerEvents, 1)
	assert.Equal(t, notifications.CompanyRoleRoom(f.company, roles.PartsCoordinatorCompany), fulfillerEvents[0].Room)

	approved := f.restock(t, 1)
	_, err = f.service.Approve(ctx, f.coordinator, f.companyScope, approved.ID)
	require.NoError(t, err)
	_, err = f.service.Cancel(ctx, f.manager, f.shopScope, approved.ID, "too late")
	var forbidden *custom_error.ForbiddenError
	assert.True(t, errors.As(err, &forbidden))
	assert.Equal(t, models.TransferApproved, f.store.Request(approved.ID).Status)

	_, err = f.service.Ship(ctx, f.coordinator, f.companyScope, approved.ID, nil)
	require.NoError(t, err)
	_, err = f.service.Cancel(ctx, f.coordinator, f.companyScope, approved.ID, "too late")
	assert.True(t, custom_error.IsConflict(err))
}

func TestGetByIDAndList_AreScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	request := f.restock(t, 1)

	got, err := f.service.GetByID(ctx, f.companyScope, request.ID)
	require.NoError(t, err)
	assert.Equal(t, f.scID, *got.RequestingServiceCenterID)

	_, err = f.service.GetByID(ctx, scope.ServiceCenterScope{ServiceCenterID: uuid.New()}, request.ID)
	assert.True(t, custom_error.IsNotFound(err))

	pending := models.TransferPendingApproval
	page, err := f.service.List(ctx, f.shopScope, &pending, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	approved := models.TransferApproved
	page, err = f.service.List(ctx, f.shopScope, &approved, models.Pagination{})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	_, err = f.service.History(ctx, scope.CompanyScope{CompanyID: uuid.New()}, request.ID)
	assert.True(t, custom_error.IsNotFound(err))
}
