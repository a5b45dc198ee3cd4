package inventorytest

import (
	"context"
	"encoding/json"

	"evinventory/pkg/models"

	"github.com/google/uuid"
)

type AuditStore struct{ s *Store }

func (s *Store) AuditStore() *AuditStore { return &AuditStore{s} }

func (a *AuditStore) PersistLog(_ context.Context, auditLog models.AuditLog, data interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	auditLog.ID = len(a.s.st.auditLogs) + 1
	auditLog.DataRaw = string(raw)
	auditLog.CreatedAt = a.s.tick()
	a.s.st.auditLogs = append(a.s.st.auditLogs, auditLog)
	return nil
}

func (a *AuditStore) GetResourceLog(_ context.Context, id uuid.UUID, resourceType string) ([]models.AuditLog, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	var logs []models.AuditLog
	for _, l := range a.s.st.auditLogs {
		if l.ResourceID == id && l.ResourceType == resourceType {
			l.LoadFromDB()
			logs = append(logs, l)
		}
	}
	return logs, nil
}
