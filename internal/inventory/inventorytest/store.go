// Package inventorytest is an in-memory stand-in for the Postgres
// repositories. Transactions run one at a time and roll back by restoring a
// snapshot, so a failed operation leaves no trace.
package inventorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"evinventory/internal/caselines"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type state struct {
	warehouses   map[uuid.UUID]models.Warehouse
	stocks       map[uuid.UUID]models.Stock
	components   map[uuid.UUID]models.Component
	reservations map[uuid.UUID]models.Reservation
	requests     map[uuid.UUID]models.StockTransferRequest
	adjustments  map[uuid.UUID]models.StockAdjustment
	caseLines    map[uuid.UUID]caselines.Status
	caseLineVINs map[uuid.UUID]string
	warranted    map[warrantyKey]int
	auditLogs    []models.AuditLog
}

type warrantyKey struct {
	vin             string
	typeComponentID uuid.UUID
}

func newState() state {
	return state{
		warehouses:   map[uuid.UUID]models.Warehouse{},
		stocks:       map[uuid.UUID]models.Stock{},
		components:   map[uuid.UUID]models.Component{},
		reservations: map[uuid.UUID]models.Reservation{},
		requests:     map[uuid.UUID]models.StockTransferRequest{},
		adjustments:  map[uuid.UUID]models.StockAdjustment{},
		caseLines:    map[uuid.UUID]caselines.Status{},
		caseLineVINs: map[uuid.UUID]string{},
		warranted:    map[warrantyKey]int{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.stocks {
		c.stocks[k] = v
	}
	for k, v := range s.components {
		c.components[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.requests {
		v.Items = append([]models.RequestItem(nil), v.Items...)
		c.requests[k] = v
	}
	for k, v := range s.adjustments {
		c.adjustments[k] = v
	}
	for k, v := range s.caseLines {
		c.caseLines[k] = v
	}
	for k, v := range s.caseLineVINs {
		c.caseLineVINs[k] = v
	}
	for k, v := range s.warranted {
		c.warranted[k] = v
	}
	c.auditLogs = append([]models.AuditLog(nil), s.auditLogs...)
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   state
	now  time.Time

	// Counters of repository calls, for asserting read-only behaviour.
	Writes int
}

func NewStore() *Store {
	return &Store{
		st:  newState(),
		now: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so creation order is total.
func (s *Store) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

// Now is the store clock, usable as the services' clock.
func (s *Store) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick()
}

// WithTransaction serializes transactions and restores the snapshot taken
// on entry when fn fails or panics. fn receives a nil transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.st.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		} else if err != nil {
			s.restore(snapshot)
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}
	err = fn(nil)
	return
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	s.st = snapshot
	s.mu.Unlock()
}

func (s *Store) write() {
	s.Writes++
}

func sortByID[T any](items []T, id func(T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool {
		return id(items[i]).String() < id(items[j]).String()
	})
}
