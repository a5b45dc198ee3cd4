package inventorytest

import (
	"fmt"

	"evinventory/internal/caselines"
	"evinventory/pkg/models"

	"github.com/google/uuid"
)

func (s *Store) AddServiceCenterWarehouse(name string, serviceCenterID, companyID uuid.UUID) models.Warehouse {
	return s.AddWarehouse(models.Warehouse{ID: uuid.New(), Name: name, ServiceCenterID: &serviceCenterID, CompanyID: &companyID})
}

func (s *Store) AddCompanyWarehouse(name string, companyID uuid.UUID) models.Warehouse {
	return s.AddWarehouse(models.Warehouse{ID: uuid.New(), Name: name, CompanyID: &companyID})
}

func (s *Store) AddWarehouse(w models.Warehouse) models.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.warehouses[w.ID] = w
	return w
}

// AddStock creates a stock row and one IN_STOCK component per unit on hand,
// so ledger and registry agree from the start.
func (s *Store) AddStock(warehouseID, typeComponentID uuid.UUID, inStock, reserved, reorderPoint int) models.Stock {
	stock := s.AddStockRow(warehouseID, typeComponentID, inStock, reserved, reorderPoint)
	for i := 0; i < inStock; i++ {
		s.AddComponent(models.Component{
			SerialNumber:    fmt.Sprintf("SN-%s-%d", stock.ID.String()[:8], i),
			TypeComponentID: typeComponentID,
			WarehouseID:     &warehouseID,
			Status:          models.ComponentInStock,
		})
	}
	return s.Stock(stock.ID)
}

// AddStockRow creates only the stock row.
func (s *Store) AddStockRow(warehouseID, typeComponentID uuid.UUID, inStock, reserved, reorderPoint int) models.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.tick()
	stock := models.Stock{
		ID:               uuid.New(),
		WarehouseID:      warehouseID,
		TypeComponentID:  typeComponentID,
		QuantityInStock:  inStock,
		QuantityReserved: reserved,
		ReorderPoint:     reorderPoint,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.st.stocks[stock.ID] = stock
	return s.withOwner(stock)
}

func (s *Store) AddComponent(c models.Component) models.Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := s.tick()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.st.components[c.ID] = c
	return c
}

func (s *Store) AddReservation(r models.Reservation) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := s.tick()
	r.CreatedAt, r.UpdatedAt = now, now
	s.st.reservations[r.ID] = r
	return s.withWarehouse(r)
}

func (s *Store) AddCaseLine(status caselines.Status, vin string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.st.caseLines[id] = status
	s.st.caseLineVINs[id] = vin
	return id
}

func (s *Store) SetWarrantedComponents(vin string, typeComponentID uuid.UUID, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.warranted[warrantyKey{vin, typeComponentID}] = count
}

func (s *Store) Stock(id uuid.UUID) models.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withOwner(s.st.stocks[id])
}

func (s *Store) Stocks() []models.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	stocks := make([]models.Stock, 0, len(s.st.stocks))
	for _, st := range s.st.stocks {
		stocks = append(stocks, s.withOwner(st))
	}
	sortByID(stocks, func(st models.Stock) uuid.UUID { return st.ID })
	return stocks
}

func (s *Store) Component(id uuid.UUID) models.Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.components[id]
}

// Components returns every unit matching keep, oldest first.
func (s *Store) Components(keep func(models.Component) bool) []models.Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.componentsLocked(keep)
}

func (s *Store) Reservation(id uuid.UUID) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withWarehouse(s.st.reservations[id])
}

func (s *Store) Reservations(keep func(models.Reservation) bool) []models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservationsLocked(keep)
}

func (s *Store) Request(id uuid.UUID) models.StockTransferRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withRequestOwner(s.st.requests[id])
}

func (s *Store) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.requests)
}

func (s *Store) Adjustments() []models.StockAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustmentsLocked(func(models.StockAdjustment) bool { return true })
}

func (s *Store) CaseLineStatus(id uuid.UUID) caselines.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.caseLines[id]
}

func (s *Store) AuditLogs() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.st.auditLogs...)
}
