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

type ComponentRepository struct{ s *Store }

func (s *Store) ComponentRepository() *ComponentRepository { return &ComponentRepository{s} }

func (r *ComponentRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Component, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.components[id]
	if !ok {
		return nil, custom_error.NewNotFound("component", id)
	}
	return &c, nil
}

func (r *ComponentRepository) GetBySerial(_ context.Context, serial string) (*models.Component, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.st.components {
		if c.SerialNumber == serial {
			return &c, nil
		}
	}
	return nil, custom_error.NewNotFound("component", serialKey(serial))
}

func (r *ComponentRepository) List(_ context.Context, sc scope.Resolver, filter models.ComponentFilter, p models.Pagination) ([]models.Component, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.componentsLocked(func(c models.Component) bool {
		if c.WarehouseID == nil || !sc.Allows(r.s.st.warehouses[*c.WarehouseID]) {
			return false
		}
		if filter.WarehouseID != nil && *c.WarehouseID != *filter.WarehouseID {
			return false
		}
		if filter.TypeComponentID != nil && c.TypeComponentID != *filter.TypeComponentID {
			return false
		}
		return filter.Status == nil || c.Status == *filter.Status
	})
	if p.SortOrder == models.SortDesc {
		list = newestFirst(list)
	}
	page := models.Paginate(list, p)
	return page.Items, page.Total, nil
}

func (r *ComponentRepository) FindExistingSerials(_ context.Context, _ *goqu.TxDatabase, serials []string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(serials))
	for _, serial := range serials {
		wanted[serial] = true
	}
	var existing []string
	for _, c := range r.s.componentsLocked(func(c models.Component) bool { return wanted[c.SerialNumber] }) {
		existing = append(existing, c.SerialNumber)
	}
	return existing, nil
}

func (r *ComponentRepository) Insert(_ context.Context, _ *goqu.TxDatabase, list []models.Component) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	serials := make(map[string]bool)
	for _, c := range r.s.st.components {
		serials[c.SerialNumber] = true
	}
	for _, c := range list {
		if serials[c.SerialNumber] {
			return custom_error.WrapDBError("Duplicate serial number for component", &pq.Error{Code: "23505", Constraint: "components_serial_number_key"})
		}
		serials[c.SerialNumber] = true
		r.s.st.components[c.ID] = c
	}
	r.s.write()
	return nil
}

func (r *ComponentRepository) LockComponents(_ context.Context, _ *goqu.TxDatabase, ids []uuid.UUID) ([]models.Component, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	list := r.s.componentsLocked(func(c models.Component) bool { return wanted[c.ID] })
	sortByID(list, func(c models.Component) uuid.UUID { return c.ID })
	return list, nil
}

func (r *ComponentRepository) LockInStock(_ context.Context, _ *goqu.TxDatabase, warehouseID, typeComponentID uuid.UUID, limit int, excluding []uuid.UUID) ([]models.Component, error) {
	if limit <= 0 {
		return nil, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	skip := make(map[uuid.UUID]bool, len(excluding))
	for _, id := range excluding {
		skip[id] = true
	}
	list := r.s.componentsLocked(func(c models.Component) bool {
		return c.WarehouseID != nil && *c.WarehouseID == warehouseID &&
			c.TypeComponentID == typeComponentID &&
			c.Status == models.ComponentInStock && !skip[c.ID]
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (r *ComponentRepository) LockInTransitByRequest(_ context.Context, _ *goqu.TxDatabase, requestID uuid.UUID) ([]models.Component, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.componentsLocked(func(c models.Component) bool {
		return c.Status == models.ComponentInTransit &&
			c.StockTransferRequestID != nil && *c.StockTransferRequestID == requestID
	}), nil
}

func (r *ComponentRepository) LockOnVehicle(_ context.Context, _ *goqu.TxDatabase, vin string, typeComponentID uuid.UUID) ([]models.Component, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	list := r.s.componentsLocked(func(c models.Component) bool {
		return c.VehicleVIN != nil && *c.VehicleVIN == vin &&
			c.TypeComponentID == typeComponentID &&
			c.Status != models.ComponentRemoved && c.Status != models.ComponentDefective
	})
	return newestFirst(list), nil
}

func (r *ComponentRepository) Move(_ context.Context, _ *goqu.TxDatabase, ids []uuid.UUID, transition models.ComponentTransition) error {
	if len(ids) == 0 {
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.s.st.components[id]; !ok {
			return custom_error.NewConflict("moved fewer than %d components to %s", len(ids), transition.Status)
		}
	}
	now := r.s.tick()
	for _, id := range ids {
		c := r.s.st.components[id]
		c.Apply(transition, now)
		r.s.st.components[id] = c
	}
	r.s.write()
	return nil
}

type serialKey string

func (s serialKey) String() string { return "serial " + string(s) }
