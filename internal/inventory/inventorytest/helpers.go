package inventorytest

import (
	"sort"

	"evinventory/pkg/models"

	"github.com/google/uuid"
)

func (s *Store) withWarehouse(r models.Reservation) models.Reservation {
	r.WarehouseID = s.st.stocks[r.StockID].WarehouseID
	return r
}

func (s *Store) withRequestOwner(r models.StockTransferRequest) models.StockTransferRequest {
	w := s.st.warehouses[r.RequestingWarehouseID]
	r.RequestingServiceCenterID = w.ServiceCenterID
	r.RequestingCompanyID = w.CompanyID
	r.Items = append([]models.RequestItem(nil), r.Items...)
	return r
}

func (s *Store) withAdjustmentWarehouse(a models.StockAdjustment) models.StockAdjustment {
	a.WarehouseID = s.st.stocks[a.StockID].WarehouseID
	return a
}

// componentsLocked returns matching units in FIFO order.
func (s *Store) componentsLocked(keep func(models.Component) bool) []models.Component {
	var components []models.Component
	for _, c := range s.st.components {
		if keep(c) {
			components = append(components, c)
		}
	}
	sort.Slice(components, func(i, j int) bool {
		if !components[i].CreatedAt.Equal(components[j].CreatedAt) {
			return components[i].CreatedAt.Before(components[j].CreatedAt)
		}
		return components[i].ID.String() < components[j].ID.String()
	})
	return components
}

func (s *Store) reservationsLocked(keep func(models.Reservation) bool) []models.Reservation {
	var reservations []models.Reservation
	for _, r := range s.st.reservations {
		r = s.withWarehouse(r)
		if keep(r) {
			reservations = append(reservations, r)
		}
	}
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].CreatedAt.Equal(reservations[j].CreatedAt) {
			return reservations[i].CreatedAt.Before(reservations[j].CreatedAt)
		}
		return reservations[i].ID.String() < reservations[j].ID.String()
	})
	return reservations
}

func (s *Store) adjustmentsLocked(keep func(models.StockAdjustment) bool) []models.StockAdjustment {
	var adjustments []models.StockAdjustment
	for _, a := range s.st.adjustments {
		a = s.withAdjustmentWarehouse(a)
		if keep(a) {
			adjustments = append(adjustments, a)
		}
	}
	sort.Slice(adjustments, func(i, j int) bool {
		if !adjustments[i].CreatedAt.Equal(adjustments[j].CreatedAt) {
			return adjustments[i].CreatedAt.Before(adjustments[j].CreatedAt)
		}
		return adjustments[i].ID.String() < adjustments[j].ID.String()
	})
	return adjustments
}

func newestFirst[T any](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}

func sortByCreated[T any](items []T, key func(T) (int64, uuid.UUID)) {
	sort.Slice(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if ti != tj {
			return ti < tj
		}
		return idi.String() < idj.String()
	})
}
