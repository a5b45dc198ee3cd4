package allocation

import (
	"fmt"
	"sort"

	"evinventory/pkg/models"

	"github.com/google/uuid"
)

// Allocation is the quantity taken from one stock row.
type Allocation struct {
	StockID     uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int
}

// AllocationError reports that the candidates cannot cover the request.
type AllocationError struct {
	TypeComponentID uuid.UUID
	Requested       int
	Available       int
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("insufficient stock for component type %s: requested %d, available %d",
		e.TypeComponentID, e.Requested, e.Available)
}

// Prioritize orders candidates in place: warehouses owned by the preferred
// company come first, the rest follow by warehouse id and then stock id.
func Prioritize(candidates []*models.Stock, preferredCompanyID *uuid.UUID) {
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := isPreferred(candidates[i], preferredCompanyID), isPreferred(candidates[j], preferredCompanyID)
		if pi != pj {
			return pi
		}
		wi, wj := candidates[i].WarehouseID.String(), candidates[j].WarehouseID.String()
		if wi != wj {
			return wi < wj
		}
		return candidates[i].ID.String() < candidates[j].ID.String()
	})
}

func isPreferred(s *models.Stock, preferredCompanyID *uuid.UUID) bool {
	if preferredCompanyID == nil || !s.Warehouse().IsCompanyWarehouse() {
		return false
	}
	return *s.CompanyID == *preferredCompanyID
}

// Available sums the free quantity over candidates.
func Available(candidates []*models.Stock) int {
	total := 0
	for _, c := range candidates {
		if a := c.QuantityAvailable(); a > 0 {
			total += a
		}
	}
	return total
}

// Allocate greedily takes free quantity from candidates in list order. Each
// taken amount is added to the candidate's reserved counter right away, so a
// later call over the same candidates sees what is left. Nothing is touched
// when the candidates cannot cover the request.
func Allocate(typeComponentID uuid.UUID, requested int, candidates []*models.Stock) ([]Allocation, error) {
	if requested <= 0 {
		return nil, nil
	}

	if available := Available(candidates); available < requested {
		return nil, &AllocationError{
			TypeComponentID: typeComponentID,
			Requested:       requested,
			Available:       available,
		}
	}

	var allocations []Allocation
	remaining := requested
	for _, c := range candidates {
		if remaining == 0 {
			break
		}
		take := c.QuantityAvailable()
		if take <= 0 {
			continue
		}
		if take > remaining {
			take = remaining
		}
		c.QuantityReserved += take
		remaining -= take
		allocations = append(allocations, Allocation{
			StockID:     c.ID,
			WarehouseID: c.WarehouseID,
			Quantity:    take,
		})
	}

	return allocations, nil
}
