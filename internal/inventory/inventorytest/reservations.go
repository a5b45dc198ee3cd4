package inventorytest

import (
	"context"

	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ReservationRepository struct{ s *Store }

func (s *Store) ReservationRepository() *ReservationRepository { return &ReservationRepository{s} }

func (r *ReservationRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.st.reservations[id]
	if !ok {
		return nil, custom_error.NewNotFound("reservation", id)
	}
	res = r.s.withWarehouse(res)
	return &res, nil
}

func (r *ReservationRepository) List(_ context.Context, sc scope.Resolver, f models.ReservationFilter, p models.Pagination) ([]models.Reservation, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.reservationsLocked(func(res models.Reservation) bool {
		switch {
		case !sc.Allows(r.s.st.warehouses[res.WarehouseID]):
			return false
		case f.CaseLineID != nil && (res.CaseLineID == nil || *res.CaseLineID != *f.CaseLineID):
			return false
		case f.RequestID != nil && (res.StockTransferRequestID == nil || *res.StockTransferRequestID != *f.RequestID):
			return false
		case f.WarehouseID != nil && res.WarehouseID != *f.WarehouseID:
			return false
		case f.TechnicianID != nil && (res.PickedUpBy == nil || *res.PickedUpBy != *f.TechnicianID):
			return false
		case f.Status != nil && res.Status != *f.Status:
			return false
		}
		return true
	})
	if p.SortOrder == models.SortDesc {
		list = newestFirst(list)
	}
	page := models.Paginate(list, p)
	return page.Items, page.Total, nil
}

func (r *ReservationRepository) FindByStock(_ context.Context, stockID uuid.UUID) ([]models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return newestFirst(r.s.reservationsLocked(func(res models.Reservation) bool {
		return res.StockID == stockID
	})), nil
}

func (r *ReservationRepository) FindByRequest(ctx context.Context, requestID uuid.UUID, status models.ReservationStatus) ([]models.Reservation, error) {
	return r.LockByRequest(ctx, nil, requestID, status)
}

func (r *ReservationRepository) Insert(_ context.Context, _ *goqu.TxDatabase, reservations []models.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range reservations {
		if _, ok := r.s.st.stocks[res.StockID]; !ok {
			return custom_error.WrapDBError("failed to insert reservations", &pq.Error{Code: "23503", Constraint: "reservations_stock_id_fkey"})
		}
		r.s.st.reservations[res.ID] = res
	}
	r.s.write()
	return nil
}

func (r *ReservationRepository) LockByIDs(_ context.Context, _ *goqu.TxDatabase, ids []uuid.UUID) ([]models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	list := r.s.reservationsLocked(func(res models.Reservation) bool { return wanted[res.ID] })
	sortByID(list, func(res models.Reservation) uuid.UUID { return res.ID })
	return list, nil
}

func (r *ReservationRepository) LockByRequest(_ context.Context, _ *goqu.TxDatabase, requestID uuid.UUID, status models.ReservationStatus) ([]models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.reservationsLocked(func(res models.Reservation) bool {
		return res.Status == status && res.StockTransferRequestID != nil && *res.StockTransferRequestID == requestID
	})
	sortByID(list, func(res models.Reservation) uuid.UUID { return res.ID })
	return list, nil
}

func (r *ReservationRepository) Update(_ context.Context, _ *goqu.TxDatabase, reservation models.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.st.reservations[reservation.ID]
	if !ok {
		return custom_error.NewNotFound("reservation", reservation.ID)
	}
	current.ComponentID = reservation.ComponentID
	current.Status = reservation.Status
	current.PickedUpBy = reservation.PickedUpBy
	current.PickedUpAt = reservation.PickedUpAt
	current.InstalledAt = reservation.InstalledAt
	current.OldComponentSerial = reservation.OldComponentSerial
	current.UpdatedAt = reservation.UpdatedAt
	r.s.st.reservations[reservation.ID] = current
	r.s.write()
	return nil
}
