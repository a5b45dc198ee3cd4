package components

import (
	"context"

	"evinventory/internal/inventory/scope"
	custom_error "evinventory/pkg/errors"
	"evinventory/pkg/models"

	"github.com/google/uuid"
)

type WarehouseLookup interface {
	GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
}

// ComponentService is the read side of the registry. Writes happen only as
// part of reservation, transfer and adjustment transactions.
type ComponentService struct {
	r          Repository
	warehouses WarehouseLookup
}

func NewService(r Repository, warehouses WarehouseLookup) *ComponentService {
	return &ComponentService{r: r, warehouses: warehouses}
}

func (s *ComponentService) GetByID(ctx context.Context, sc scope.Resolver, id uuid.UUID) (*models.Component, error) {
	component, err := s.r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, sc, component)
}

func (s *ComponentService) GetBySerial(ctx context.Context, sc scope.Resolver, serial string) (*models.Component, error) {
	component, err := s.r.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	return s.visible(ctx, sc, component)
}

// visible hides units shelved in a warehouse outside the caller's scope.
// Units off the shelf (in transit, on a vehicle) are not warehouse-bound.
func (s *ComponentService) visible(ctx context.Context, sc scope.Resolver, component *models.Component) (*models.Component, error) {
	if component.WarehouseID == nil {
		return component, nil
	}
	warehouse, err := s.warehouses.GetWarehouse(ctx, *component.WarehouseID)
	if err != nil {
		return nil, err
	}
	if !sc.Allows(*warehouse) {
		return nil, custom_error.NewNotFound("component", component.ID)
	}
	return component, nil
}

func (s *ComponentService) List(ctx context.Context, sc scope.Resolver, filter Filter, p models.Pagination) (models.Page[models.Component], error) {
	p = p.Normalize("created_at", "created_at", "updated_at", "status")
	components, total, err := s.r.List(ctx, sc, filter, p)
	if err != nil {
		return models.Page[models.Component]{}, err
	}
	return models.NewPage(components, total, p), nil
}
