package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"evinventory/internal/inventory/scope"
	"evinventory/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Source string

const (
	SourceAdjustment  Source = "adjustment"
	SourceReservation Source = "reservation"
)

// Entry is one movement on a stock row as seen from the outside.
type Entry struct {
	ID             uuid.UUID  `json:"id"`
	Source         Source     `json:"source"`
	Kind           string     `json:"kind"`
	Quantity       int        `json:"quantity"`
	QuantityChange int        `json:"quantity_change"`
	Reason         *string    `json:"reason,omitempty"`
	ActorID        *uuid.UUID `json:"actor_id,omitempty"`
	CaseLineID     *uuid.UUID `json:"case_line_id,omitempty"`
	RequestID      *uuid.UUID `json:"stock_transfer_request_id,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// reservationSign is the direction a reservation in a given status moved
// the stock. Statuses missing from the table count as zero.
var reservationSign = map[string]int{
	"RESERVED":   -1,
	"SHIPPED":    -1,
	"IN_TRANSIT": -1,
	"INSTALLED":  -1,
	"PICKED_UP":  -1,
	"COMPLETED":  -1,
	"CANCELLED":  1,
	"RELEASED":   1,
	"RETURNED":   1,
}

func Sign(status models.ReservationStatus) int {
	return reservationSign[string(status)]
}

type StockReader interface {
	GetStock(ctx context.Context, sc scope.Resolver, id uuid.UUID) (*models.Stock, error)
}

type AdjustmentReader interface {
	FindByStock(ctx context.Context, stockID uuid.UUID) ([]models.StockAdjustment, error)
}

type ReservationReader interface {
	FindByStock(ctx context.Context, stockID uuid.UUID) ([]models.Reservation, error)
}

type HistoryService struct {
	stocks       StockReader
	adjustments  AdjustmentReader
	reservations ReservationReader
	logger       *zap.Logger
}

func NewService(stocks StockReader, adjustments AdjustmentReader, reservations ReservationReader, logger *zap.Logger) *HistoryService {
	return &HistoryService{
		stocks:       stocks,
		adjustments:  adjustments,
		reservations: reservations,
		logger:       logger,
	}
}

// GetStockHistory merges adjustments and reservations of a stock, newest
// first, and pages the result in memory.
func (s *HistoryService) GetStockHistory(ctx context.Context, sc scope.Resolver, stockID uuid.UUID, p models.Pagination) (models.Page[Entry], error) {
	p = p.Normalize("occurred_at", "occurred_at")

	stock, err := s.stocks.GetStock(ctx, sc, stockID)
	if err != nil {
		return models.Page[Entry]{}, err
	}

	adjustments, err := s.adjustments.FindByStock(ctx, stock.ID)
	if err != nil {
		return models.Page[Entry]{}, fmt.Errorf("failed to load adjustments of stock %s: %w", stock.ID, err)
	}
	reservations, err := s.reservations.FindByStock(ctx, stock.ID)
	if err != nil {
		return models.Page[Entry]{}, fmt.Errorf("failed to load reservations of stock %s: %w", stock.ID, err)
	}

	entries := Merge(adjustments, reservations)
	if p.SortOrder == models.SortAsc {
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	}

	s.logger.Debug("Projected stock history",
		zap.String("stock_id", stock.ID.String()),
		zap.Int("entries", len(entries)),
	)
	return models.Paginate(entries, p), nil
}

// Merge projects both sources into entries sorted newest first. Entries at
// the same instant are ordered by id.
func Merge(adjustments []models.StockAdjustment, reservations []models.Reservation) []Entry {
	entries := make([]Entry, 0, len(adjustments)+len(reservations))
	for _, a := range adjustments {
		change := a.Quantity
		if a.AdjustmentType == models.AdjustmentOut {
			change = -change
		}
		reason, actor := a.Reason, a.AdjustedBy
		entries = append(entries, Entry{
			ID:             a.ID,
			Source:         SourceAdjustment,
			Kind:           string(a.AdjustmentType),
			Quantity:       a.Quantity,
			QuantityChange: change,
			Reason:         &reason,
			ActorID:        &actor,
			OccurredAt:     a.CreatedAt,
		})
	}
	for _, r := range reservations {
		entries = append(entries, Entry{
			ID:             r.ID,
			Source:         SourceReservation,
			Kind:           string(r.Status),
			Quantity:       r.QuantityReserved,
			QuantityChange: Sign(r.Status) * r.QuantityReserved,
			ActorID:        r.PickedUpBy,
			CaseLineID:     r.CaseLineID,
			RequestID:      r.StockTransferRequestID,
			OccurredAt:     r.UpdatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].OccurredAt.Equal(entries[j].OccurredAt) {
			return entries[i].OccurredAt.After(entries[j].OccurredAt)
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
	return entries
}
