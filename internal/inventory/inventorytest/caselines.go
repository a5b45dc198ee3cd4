package inventorytest

import (
	"context"

	"evinventory/internal/caselines"
	custom_error "evinventory/pkg/errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type CaseLines struct{ s *Store }

func (s *Store) CaseLines() *CaseLines { return &CaseLines{s} }

func (c *CaseLines) BulkUpdateStatusByIDs(_ context.Context, _ *goqu.TxDatabase, ids []uuid.UUID, status caselines.Status) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, id := range ids {
		if _, ok := c.s.st.caseLines[id]; ok {
			c.s.st.caseLines[id] = status
		}
	}
	c.s.write()
	return nil
}

func (c *CaseLines) GetVehicleVIN(_ context.Context, _ *goqu.TxDatabase, caseLineID uuid.UUID) (string, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	vin, ok := c.s.st.caseLineVINs[caseLineID]
	if !ok {
		return "", custom_error.NewNotFound("case line", caseLineID)
	}
	return vin, nil
}

func (c *CaseLines) CountWarrantedComponents(_ context.Context, _ *goqu.TxDatabase, vin string, typeComponentID uuid.UUID) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.st.warranted[warrantyKey{vin, typeComponentID}], nil
}
