package allocation

import (
	"testing"

	"evinventory/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stock(inStock, reserved int) *models.Stock {
	return &models.Stock{
		ID:               uuid.New(),
		WarehouseID:      uuid.New(),
		QuantityInStock:  inStock,
		QuantityReserved: reserved,
	}
}

// taken is the quantity expected from the candidate at the given index.
type taken struct {
	candidate int
	quantity  int
}

func TestAllocate(t *testing.T) {
	typeID := uuid.New()

	tests := []struct {
		name       string
		requested  int
		candidates []*models.Stock
		want       []taken
		wantErr    bool
	}{
		{
			name:       "spans two stocks in list order",
			requested:  5,
			candidates: []*models.Stock{stock(3, 0), stock(4, 0)},
			want:       []taken{{0, 3}, {1, 2}},
		},
		{
			name:       "first stock covers everything",
			requested:  2,
			candidates: []*models.Stock{stock(5, 1), stock(4, 0)},
			want:       []taken{{0, 2}},
		},
		{
			name:       "skips exhausted stock",
			requested:  3,
			candidates: []*models.Stock{stock(2, 2), stock(4, 0)},
			want:       []taken{{1, 3}},
		},
		{
			name:       "shortfall",
			requested:  8,
			candidates: []*models.Stock{stock(3, 0), stock(4, 0)},
			wantErr:    true,
		},
		{
			name:       "no candidates",
			requested:  1,
			candidates: nil,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := make([]int, len(tt.candidates))
			for i, c := range tt.candidates {
				before[i] = c.QuantityReserved
			}

			allocations, err := Allocate(typeID, tt.requested, tt.candidates)

			if tt.wantErr {
				var allocErr *AllocationError
				require.ErrorAs(t, err, &allocErr)
				assert.Equal(t, tt.requested, allocErr.Requested)
				assert.Equal(t, Available(tt.candidates), allocErr.Available)
				for i, c := range tt.candidates {
					assert.Equal(t, before[i], c.QuantityReserved, "candidate must be untouched")
				}
				return
			}

			require.NoError(t, err)
			want := make([]Allocation, len(tt.want))
			for i, w := range tt.want {
				c := tt.candidates[w.candidate]
				want[i] = Allocation{StockID: c.ID, WarehouseID: c.WarehouseID, Quantity: w.quantity}
			}
			assert.Equal(t, want, allocations)
			for _, c := range tt.candidates {
				assert.LessOrEqual(t, c.QuantityReserved, c.QuantityInStock)
			}
		})
	}
}

func TestAllocate_SecondItemSeesFirstAllocation(t *testing.T) {
	typeID := uuid.New()
	a, b := stock(3, 0), stock(4, 0)
	candidates := []*models.Stock{a, b}

	_, err := Allocate(typeID, 5, candidates)
	require.NoError(t, err)

	_, err = Allocate(typeID, 3, candidates)
	var allocErr *AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, 2, allocErr.Available)

	allocations, err := Allocate(typeID, 2, candidates)
	require.NoError(t, err)
	assert.Equal(t, []Allocation{{StockID: b.ID, WarehouseID: b.WarehouseID, Quantity: 2}}, allocations)
	assert.Equal(t, 4, b.QuantityReserved)
}

func TestPrioritize(t *testing.T) {
	companyID := uuid.New()
	otherCompany := uuid.New()
	scID := uuid.New()

	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	mid := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	serviceCenter := &models.Stock{ID: uuid.New(), WarehouseID: low, ServiceCenterID: &scID, CompanyID: &companyID}
	foreign := &models.Stock{ID: uuid.New(), WarehouseID: mid, CompanyID: &otherCompany}
	own := &models.Stock{ID: uuid.New(), WarehouseID: high, CompanyID: &companyID}

	candidates := []*models.Stock{serviceCenter, foreign, own}
	Prioritize(candidates, &companyID)

	assert.Equal(t, []*models.Stock{own, serviceCenter, foreign}, candidates)

	Prioritize(candidates, nil)
	assert.Equal(t, []*models.Stock{serviceCenter, foreign, own}, candidates)
}
