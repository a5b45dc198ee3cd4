package transfers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"evinventory/internal/caselines"
	"evinventory/internal/inventory/alerts"
	"evinventory/internal/inventory/allocation"
	"evinventory/internal/inventory/components"
	"evinventory/internal/inventory/effects"
	"evinventory/internal/inventory/reservations"
	"evinventory/internal/inventory/scope"
	"evinventory/internal/inventory/stocks"
	"evinventory/internal/notifications"
	"evinventory/internal/repository"
	"evinventory/pkg/auditlog"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"
	"evinventory/pkg/roles"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateItemRequest struct {
	TypeComponentID uuid.UUID  `json:"type_component_id" binding:"required"`
	Quantity        int        `json:"quantity" binding:"required"`
	CaseLineID      *uuid.UUID `json:"case_line_id"`
}

type CreateTransferRequest struct {
	RequestType           models.TransferRequestType `json:"request_type" binding:"required"`
	RequestingWarehouseID uuid.UUID                  `json:"requesting_warehouse_id" binding:"required"`
	Items                 []CreateItemRequest        `json:"items" binding:"required"`
}

// TransferEvent is the notification and audit payload of every transition.
type TransferEvent struct {
	RequestID             uuid.UUID                  `json:"request_id"`
	RequestType           models.TransferRequestType `json:"request_type"`
	Status                models.TransferStatus      `json:"status"`
	RequestingWarehouseID uuid.UUID                  `json:"requesting_warehouse_id"`
	ActorID               uuid.UUID                  `json:"actor_id"`
	Reason                *string                    `json:"reason,omitempty"`
	EstimatedDeliveryDate *time.Time                 `json:"estimated_delivery_date,omitempty"`
	Quantity              int                        `json:"quantity,omitempty"`
}

type AuditReader interface {
	GetResourceLog(ctx context.Context, id uuid.UUID, resourceType string) ([]models.AuditLog, error)
}

type TransferService struct {
	tx           repository.Transactor
	r            Repository
	ledger       stocks.Ledger
	reservations reservations.Repository
	components   components.Repository
	caseLines    caselines.Service
	alerts       *alerts.Engine
	dispatcher   notifications.Dispatcher
	auditLog     *auditlog.Auditlog
	auditReader  AuditReader
	effects      effects.Runner
	logger       *zap.Logger
	now          func() time.Time
}

func NewService(
	tx repository.Transactor,
	r Repository,
	ledger stocks.Ledger,
	reservationRepo reservations.Repository,
	componentRepo components.Repository,
	caseLines caselines.Service,
	alerts *alerts.Engine,
	dispatcher notifications.Dispatcher,
	auditLog *auditlog.Auditlog,
	auditReader AuditReader,
	runner effects.Runner,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		tx:           tx,
		r:            r,
		ledger:       ledger,
		reservations: reservationRepo,
		components:   componentRepo,
		caseLines:    caseLines,
		alerts:       alerts,
		dispatcher:   dispatcher,
		auditLog:     auditLog,
		auditReader:  auditReader,
		effects:      runner,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *TransferService) Create(ctx context.Context, identity models.Identity, sc scope.Resolver, req CreateTransferRequest) (*models.StockTransferRequest, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	warehouse, err := s.ledger.GetWarehouse(ctx, req.RequestingWarehouseID)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(*warehouse) {
		return nil, custom_error.NewNotFound("warehouse", req.RequestingWarehouseID)
	}

	now := s.now()
	request := &models.StockTransferRequest{
		ID:                        uuid.New(),
		RequestType:               req.RequestType,
		Status:                    models.TransferPendingApproval,
		RequestingWarehouseID:     warehouse.ID,
		RequestedBy:               identity.UserID,
		CreatedAt:                 now,
		UpdatedAt:                 now,
		RequestingServiceCenterID: warehouse.ServiceCenterID,
		RequestingCompanyID:       warehouse.CompanyID,
	}
	for _, item := range req.Items {
		request.Items = append(request.Items, models.RequestItem{
			ID:                uuid.New(),
			RequestID:         request.ID,
			TypeComponentID:   item.TypeComponentID,
			QuantityRequested: item.Quantity,
			CaseLineID:        item.CaseLineID,
		})
	}

	err = s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		if err := s.r.Insert(ctx, tx, request); err != nil {
			return err
		}
		if request.RequestType == models.RequestTypeCaseLine {
			return s.caseLines.BulkUpdateStatusByIDs(ctx, tx, request.CaseLineIDs(), caselines.WaitingForParts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(request, identity, "created", notifications.EventTransferCreated, fulfillerRooms(request), nil, nil)
	return request, nil
}

func validateCreate(req CreateTransferRequest) error {
	if !req.RequestType.IsValid() {
		return custom_error.NewBadRequest("request_type", "unknown request type %q", req.RequestType)
	}
	if len(req.Items) == 0 {
		return custom_error.NewBadRequest("items", "at least one item is required")
	}
	for i, item := range req.Items {
		if item.TypeComponentID == uuid.Nil {
			return custom_error.NewBadRequest("items", "item %d has no component type", i)
		}
		if item.Quantity <= 0 {
			return custom_error.NewBadRequest("items", "item %d: quantity must be positive, got %d", i, item.Quantity)
		}
		if req.RequestType == models.RequestTypeCaseLine && item.CaseLineID == nil {
			return custom_error.NewBadRequest("items", "item %d: case line requests need a case line per item", i)
		}
	}
	return nil
}

// Approve reserves stock for every item or for none. All items are planned
// against locked, in-memory candidates before anything is written.
func (s *TransferService) Approve(ctx context.Context, identity models.Identity, sc scope.Resolver, id uuid.UUID) (*models.StockTransferRequest, error) {
	var request *models.StockTransferRequest
	var touched []uuid.UUID
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		if request, err = s.lockVisible(ctx, tx, sc, id); err != nil {
			return err
		}
		if err := requireStatus(request, models.TransferPendingApproval); err != nil {
			return err
		}

		preferred := identity.CompanyID
		if preferred == nil {
			preferred = request.RequestingCompanyID
		}
		locked, candidates, err := s.lockCandidates(ctx, tx, request, preferred)
		if err != nil {
			return err
		}

		type planned struct {
			item        models.RequestItem
			allocations []allocation.Allocation
		}
		plan := make([]planned, 0, len(request.Items))
		for _, item := range request.Items {
			allocations, err := allocation.Allocate(item.TypeComponentID, item.QuantityRequested, candidates[item.TypeComponentID])
			if err != nil {
				return shortfall(err)
			}
			plan = append(plan, planned{item: item, allocations: allocations})
		}

		now := s.now()
		delta := map[uuid.UUID]int{}
		var rows []models.Reservation
		for _, p := range plan {
			for _, a := range p.allocations {
				delta[a.StockID] += a.Quantity
				requestID, itemID := request.ID, p.item.ID
				rows = append(rows, models.Reservation{
					ID:                     uuid.New(),
					StockID:                a.StockID,
					CaseLineID:             p.item.CaseLineID,
					StockTransferRequestID: &requestID,
					RequestItemID:          &itemID,
					QuantityReserved:       a.Quantity,
					Status:                 models.ReservationReserved,
					CreatedAt:              now,
					UpdatedAt:              now,
					WarehouseID:            a.WarehouseID,
				})
			}
		}

		for _, stockID := range sortedKeys(delta) {
			if err := s.ledger.ApplyDelta(ctx, tx, locked[stockID], 0, delta[stockID]); err != nil {
				return err
			}
			touched = append(touched, stockID)
		}
		if err := s.reservations.Insert(ctx, tx, rows); err != nil {
			return err
		}

		approver := identity.UserID
		request.Status = models.TransferApproved
		request.ApprovedBy = &approver
		request.ApprovedAt = &now
		request.UpdatedAt = now
		return s.r.Update(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(request, identity, "approved", notifications.EventTransferApproved, []string{requesterRoom(request)}, nil, touched)
	return request, nil
}

// lockCandidates locks every other warehouse's stock of each requested type,
// types in id order, and returns them keyed by stock id and in priority order
// per type. The candidate slices hold copies that allocation may mutate.
func (s *TransferService) lockCandidates(ctx context.Context, tx *goqu.TxDatabase, request *models.StockTransferRequest, preferred *uuid.UUID) (map[uuid.UUID]*models.Stock, map[uuid.UUID][]*models.Stock, error) {
	types := map[uuid.UUID]bool{}
	for _, item := range request.Items {
		types[item.TypeComponentID] = true
	}
	typeIDs := make([]uuid.UUID, 0, len(types))
	for typeID := range types {
		typeIDs = append(typeIDs, typeID)
	}
	sortIDs(typeIDs)

	locked := map[uuid.UUID]*models.Stock{}
	candidates := map[uuid.UUID][]*models.Stock{}
	exclude := request.RequestingWarehouseID
	for _, typeID := range typeIDs {
		rows, err := s.ledger.LockStocksByType(ctx, tx, typeID, &exclude)
		if err != nil {
			return nil, nil, err
		}
		for i := range rows {
			original := rows[i]
			working := rows[i]
			locked[original.ID] = &original
			candidates[typeID] = append(candidates[typeID], &working)
		}
		allocation.Prioritize(candidates[typeID], preferred)
	}
	return locked, candidates, nil
}

func shortfall(err error) error {
	var allocErr *allocation.AllocationError
	if !errors.As(err, &allocErr) {
		return err
	}
	return custom_error.NewConflictWithDetails(
		map[string]interface{}{
			"type_component_id": allocErr.TypeComponentID,
			"requested":         allocErr.Requested,
			"available":         allocErr.Available,
		},
		"insufficient stock for component type %s: requested %d, available %d",
		allocErr.TypeComponentID, allocErr.Requested, allocErr.Available,
	)
}

// Ship takes the reserved units off the source shelves and puts them in
// transit under the request.
func (s *TransferService) Ship(ctx context.Context, identity models.Identity, sc scope.Resolver, id uuid.UUID, estimatedDelivery *time.Time) (*models.StockTransferRequest, error) {
	var request *models.StockTransferRequest
	var touched []uuid.UUID
	shipped := 0
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		if request, err = s.lockVisible(ctx, tx, sc, id); err != nil {
			return err
		}
		if err := requireStatus(request, models.TransferApproved); err != nil {
			return err
		}

		stockByID, reserved, err := s.lockReservations(ctx, tx, request.ID)
		if err != nil {
			return err
		}
		if len(reserved) == 0 {
			return custom_error.NewConflict("stock transfer request %s has no reserved stock to ship", request.ID)
		}

		now := s.now()
		var taken []uuid.UUID
		for _, res := range reserved {
			stock := stockByID[res.StockID]
			units, err := s.components.LockInStock(ctx, tx, stock.WarehouseID, stock.TypeComponentID, res.QuantityReserved, taken)
			if err != nil {
				return err
			}
			if len(units) < res.QuantityReserved {
				return custom_error.NewConflictWithDetails(
					map[string]interface{}{
						"reservation_id": res.ID,
						"stock_id":       stock.ID,
						"reserved":       res.QuantityReserved,
						"found":          len(units),
					},
					"stock %s has %d units on the shelf for a reservation of %d", stock.ID, len(units), res.QuantityReserved,
				)
			}

			ids := make([]uuid.UUID, 0, len(units))
			for _, u := range units {
				ids = append(ids, u.ID)
			}
			taken = append(taken, ids...)
			requestID := request.ID
			if err := s.components.Move(ctx, tx, ids, models.ComponentTransition{
				Status:                 models.ComponentInTransit,
				StockTransferRequestID: &requestID,
			}); err != nil {
				return err
			}
			if err := s.ledger.ApplyDelta(ctx, tx, stock, -res.QuantityReserved, -res.QuantityReserved); err != nil {
				return err
			}

			res.Status = models.ReservationShipped
			res.UpdatedAt = now
			if err := s.reservations.Update(ctx, tx, res); err != nil {
				return err
			}
			shipped += res.QuantityReserved
		}
		touched = sortedKeys(stockByID)

		request.Status = models.TransferShipped
		request.ShippedAt = &now
		request.EstimatedDeliveryDate = estimatedDelivery
		request.UpdatedAt = now
		return s.r.Update(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	event := s.event(request, identity, nil)
	event.Quantity = shipped
	s.publish(request, identity, "shipped", notifications.EventTransferShipped, requesterRoleRooms(request), event, touched)
	return request, nil
}

// Receive books the in-transit units into the requesting warehouse.
func (s *TransferService) Receive(ctx context.Context, identity models.Identity, sc scope.Resolver, id uuid.UUID) (*models.StockTransferRequest, error) {
	var request *models.StockTransferRequest
	received := 0
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		if request, err = s.lockVisible(ctx, tx, sc, id); err != nil {
			return err
		}
		if err := requireStatus(request, models.TransferShipped); err != nil {
			return err
		}

		destination := map[uuid.UUID]*models.Stock{}
		lockDestination := func(typeID uuid.UUID) (*models.Stock, error) {
			if stock, ok := destination[typeID]; ok {
				return stock, nil
			}
			stock, err := s.ledger.FindOrCreateForUpdate(ctx, tx, request.RequestingWarehouseID, typeID)
			if err != nil {
				return nil, err
			}
			destination[typeID] = stock
			return stock, nil
		}
		typeIDs := make([]uuid.UUID, 0, len(request.Items))
		for _, item := range request.Items {
			typeIDs = append(typeIDs, item.TypeComponentID)
		}
		sortIDs(typeIDs)
		for _, typeID := range typeIDs {
			if _, err := lockDestination(typeID); err != nil {
				return err
			}
		}

		units, err := s.components.LockInTransitByRequest(ctx, tx, request.ID)
		if err != nil {
			return err
		}
		if len(units) == 0 {
			return custom_error.NewConflict("stock transfer request %s has no components in transit", request.ID)
		}

		byType := map[uuid.UUID][]uuid.UUID{}
		for _, u := range units {
			byType[u.TypeComponentID] = append(byType[u.TypeComponentID], u.ID)
		}
		warehouseID := request.RequestingWarehouseID
		for _, typeID := range sortedKeys(byType) {
			ids := byType[typeID]
			stock, err := lockDestination(typeID)
			if err != nil {
				return err
			}
			if err := s.components.Move(ctx, tx, ids, models.ComponentTransition{
				Status:      models.ComponentInStock,
				WarehouseID: &warehouseID,
			}); err != nil {
				return err
			}
			if err := s.ledger.ApplyDelta(ctx, tx, stock, len(ids), 0); err != nil {
				return err
			}
			received += len(ids)
		}

		if request.RequestType == models.RequestTypeCaseLine {
			if err := s.caseLines.BulkUpdateStatusByIDs(ctx, tx, request.CaseLineIDs(), caselines.PartsAvailable); err != nil {
				return err
			}
		}

		now := s.now()
		receiver := identity.UserID
		request.Status = models.TransferReceived
		request.ReceivedBy = &receiver
		request.ReceivedAt = &now
		request.UpdatedAt = now
		return s.r.Update(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	event := s.event(request, identity, nil)
	event.Quantity = received
	s.publish(request, identity, "received", notifications.EventTransferReceived, requesterRoleRooms(request), event, nil)
	return request, nil
}

func (s *TransferService) Reject(ctx context.Context, identity models.Identity, sc scope.Resolver, id uuid.UUID, reason string) (*models.StockTransferRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, custom_error.NewBadRequest("reason", "a rejection reason is required")
	}

	var request *models.StockTransferRequest
	err := s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		if request, err = s.lockVisible(ctx, tx, sc, id); err != nil {
			return err
		}
		if err := requireStatus(request, models.TransferPendingApproval); err != nil {
			return err
		}

		if err := s.caseLines.BulkUpdateStatusByIDs(ctx, tx, request.CaseLineIDs(), caselines.RejectedByOEM); err != nil {
			return err
		}

		now := s.now()
		rejecter := identity.UserID
		request.Status = models.TransferRejected
		request.RejectedBy = &rejecter
		request.RejectionReason = &reason
		request.UpdatedAt = now
		return s.r.Update(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(request, identity, "rejected", notifications.EventTransferRejected, []string{requesterRoom(request)}, &reason, nil)
	return request, nil
}

// Cancel withdraws a request. The requesting side may do so only before
// approval; the fulfilling side also after it, releasing what was reserved.
func (s *TransferService) Cancel(ctx context.Context, identity models.Identity, sc scope.Resolver, id uuid.UUID, reason string) (*models.StockTransferRequest, error) {
	party, err := scope.PartyFor(roles.Role(identity.RoleName))
	if err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)

	var request *models.StockTransferRequest
	err = s.tx.WithTransaction(ctx, func(tx *goqu.TxDatabase) error {
		var err error
		if request, err = s.lockVisible(ctx, tx, sc, id); err != nil {
			return err
		}

		switch request.Status {
		case models.TransferPendingApproval:
		case models.TransferApproved:
			if party == scope.Requester {
				return custom_error.NewForbidden("the requesting side cannot cancel request %s once it is %s", request.ID, request.Status)
			}
			if err := s.releaseReservations(ctx, tx, request.ID); err != nil {
				return err
			}
		default:
			return custom_error.NewConflictWithDetails(
				map[string]interface{}{"request_id": request.ID, "status": request.Status},
				"stock transfer request %s is %s and can no longer be cancelled", request.ID, request.Status,
			)
		}

		canceller := identity.UserID
		request.Status = models.TransferCancelled
		request.CancelledBy = &canceller
		if reason != "" {
			request.CancellationReason = &reason
		}
		request.UpdatedAt = s.now()
		return s.r.Update(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	rooms := []string{requesterRoom(request)}
	if party == scope.Requester {
		rooms = fulfillerRooms(request)
	}
	s.afterCommit(request, identity, "cancelled", notifications.EventTransferCancelled, rooms, request.CancellationReason, nil)
	return request, nil
}

func (s *TransferService) releaseReservations(ctx context.Context, tx *goqu.TxDatabase, requestID uuid.UUID) error {
	stockByID, reserved, err := s.lockReservations(ctx, tx, requestID)
	if err != nil {
		return err
	}
	now := s.now()
	for _, res := range reserved {
		if err := s.ledger.ApplyDelta(ctx, tx, stockByID[res.StockID], 0, -res.QuantityReserved); err != nil {
			return err
		}
		res.Status = models.ReservationCancelled
		res.UpdatedAt = now
		if err := s.reservations.Update(ctx, tx, res); err != nil {
			return err
		}
	}
	return nil
}

// lockReservations locks the stocks behind the request's RESERVED
// reservations and then the reservations themselves.
func (s *TransferService) lockReservations(ctx context.Context, tx *goqu.TxDatabase, requestID uuid.UUID) (map[uuid.UUID]*models.Stock, []models.Reservation, error) {
	pending, err := s.reservations.FindByRequest(ctx, requestID, models.ReservationReserved)
	if err != nil {
		return nil, nil, err
	}
	stockIDs := make([]uuid.UUID, 0, len(pending))
	for _, res := range pending {
		stockIDs = append(stockIDs, res.StockID)
	}

	locked, err := s.ledger.LockStocks(ctx, tx, uniqueIDs(stockIDs))
	if err != nil {
		return nil, nil, err
	}
	stockByID := make(map[uuid.UUID]*models.Stock, len(locked))
	for i := range locked {
		stockByID[locked[i].ID] = &locked[i]
	}

	reserved, err := s.reservations.LockByRequest(ctx, tx, requestID, models.ReservationReserved)
	if err != nil {
		return nil, nil, err
	}
	for _, res := range reserved {
		if _, ok := stockByID[res.StockID]; !ok {
			return nil, nil, custom_error.NewConflict("reservation %s changed while the request was being processed", res.ID)
		}
	}
	return stockByID, reserved, nil
}

func (s *TransferService) GetByID(ctx context.Context, sc scope.Resolver, id uuid.UUID) (*models.StockTransferRequest, error) {
	request, err := s.r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(requestingWarehouse(request)) {
		return nil, custom_error.NewNotFound("stock transfer request", id)
	}
	return request, nil
}

func (s *TransferService) List(ctx context.Context, sc scope.Resolver, status *models.TransferStatus, p models.Pagination) (models.Page[models.StockTransferRequest], error) {
	p = p.Normalize("created_at", "created_at", "updated_at", "status")
	list, total, err := s.r.List(ctx, sc, status, p)
	if err != nil {
		return models.Page[models.StockTransferRequest]{}, err
	}
	return models.NewPage(list, total, p), nil
}

// History returns the audit trail of a request's transitions.
func (s *TransferService) History(ctx context.Context, sc scope.Resolver, id uuid.UUID) ([]models.AuditLog, error) {
	request, err := s.GetByID(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	logs, err := s.auditReader.GetResourceLog(ctx, request.ID, request.CreateLogView().ResourceType)
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, nil
}

func (s *TransferService) lockVisible(ctx context.Context, tx *goqu.TxDatabase, sc scope.Resolver, id uuid.UUID) (*models.StockTransferRequest, error) {
	request, err := s.r.LockRequest(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(requestingWarehouse(request)) {
		return nil, custom_error.NewNotFound("stock transfer request", id)
	}
	return request, nil
}

func (s *TransferService) event(request *models.StockTransferRequest, identity models.Identity, reason *string) TransferEvent {
	return TransferEvent{
		RequestID:             request.ID,
		RequestType:           request.RequestType,
		Status:                request.Status,
		RequestingWarehouseID: request.RequestingWarehouseID,
		ActorID:               identity.UserID,
		Reason:                reason,
		EstimatedDeliveryDate: request.EstimatedDeliveryDate,
	}
}

func (s *TransferService) afterCommit(request *models.StockTransferRequest, identity models.Identity, action, eventName string, rooms []string, reason *string, lowered []uuid.UUID) {
	s.publish(request, identity, action, eventName, rooms, s.event(request, identity, reason), lowered)
}

// publish schedules the notification, the audit entry and, for stocks whose
// free quantity went down, the low-stock check.
func (s *TransferService) publish(request *models.StockTransferRequest, identity models.Identity, action, eventName string, rooms []string, event TransferEvent, lowered []uuid.UUID) {
	rooms = nonEmpty(rooms)
	if len(rooms) > 0 {
		s.effects.Go("notify "+eventName, func(ctx context.Context) error {
			return s.dispatcher.SendToRooms(ctx, rooms, eventName, event)
		})
	}

	userID := identity.UserID
	snapshot := *request
	s.effects.Go("audit transfer "+action, func(ctx context.Context) error {
		return s.auditLog.Log(ctx, action, &userID, event, &snapshot)
	})

	if len(lowered) > 0 {
		s.effects.Go("low stock alerts", func(ctx context.Context) error {
			_, err := s.alerts.EmitLowStockAlerts(ctx, lowered)
			return err
		})
	}

	s.logger.Info("Stock transfer request "+action,
		zap.String("request_id", request.ID.String()),
		zap.String("status", string(request.Status)),
		zap.String("actor_id", userID.String()),
	)
}

func requireStatus(request *models.StockTransferRequest, want models.TransferStatus) error {
	if request.Status == want {
		return nil
	}
	return custom_error.NewConflictWithDetails(
		map[string]interface{}{"request_id": request.ID, "status": request.Status, "expected": want},
		"stock transfer request %s is %s, expected %s", request.ID, request.Status, want,
	)
}

func requestingWarehouse(request *models.StockTransferRequest) models.Warehouse {
	return models.Warehouse{
		ID:              request.RequestingWarehouseID,
		ServiceCenterID: request.RequestingServiceCenterID,
		CompanyID:       request.RequestingCompanyID,
	}
}

func requesterRoom(request *models.StockTransferRequest) string {
	return notifications.OwnerRoom(request.RequestingServiceCenterID, request.RequestingCompanyID)
}

// requesterRoleRooms are the rooms of the people who handle arriving parts.
func requesterRoleRooms(request *models.StockTransferRequest) []string {
	if id := request.RequestingServiceCenterID; id != nil {
		return []string{
			notifications.ServiceCenterRoleRoom(*id, roles.ServiceCenterManager),
			notifications.ServiceCenterRoleRoom(*id, roles.PartsCoordinatorServiceCenter),
		}
	}
	return []string{requesterRoom(request)}
}

func fulfillerRooms(request *models.StockTransferRequest) []string {
	if request.RequestingCompanyID == nil {
		return nil
	}
	return []string{notifications.CompanyRoleRoom(*request.RequestingCompanyID, roles.PartsCoordinatorCompany)}
}

func nonEmpty(rooms []string) []string {
	out := rooms[:0:0]
	for _, room := range rooms {
		if room != "" {
			out = append(out, room)
		}
	}
	return out
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

func sortedKeys[V any](m map[uuid.UUID]V) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortIDs(keys)
	return keys
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
