package auditlog

import (
	"context"
	"encoding/json"
	"fmt"

	"evinventory/internal/repository"
	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type AuditLogRepository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *AuditLogRepository {
	return &AuditLogRepository{repository: r}
}

func (r *AuditLogRepository) PersistLog(ctx context.Context, auditlog models.AuditLog, auditLogData interface{}) error {
	dataJSON, err := json.Marshal(auditLogData)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log data: %w", err)
	}

	_, err = r.repository.GoquDBWrapper.Insert("audit_logs").
		Rows(goqu.Record{
			"resource_id":   auditlog.ResourceID,
			"resource_type": auditlog.ResourceType,
			"action":        auditlog.Action,
			"data":          string(dataJSON),
			"user_id":       auditlog.UserID,
		}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) GetResourceLog(ctx context.Context, id uuid.UUID, resourceType string) ([]models.AuditLog, error) {
	var auditLogs []models.AuditLog
	err := r.repository.GoquDBWrapper.
		From(goqu.T("audit_logs").As("a")).
		Select(
			goqu.I("a.id"),
			goqu.I("a.resource_id"),
			goqu.I("a.resource_type"),
			goqu.I("a.action"),
			goqu.L(`COALESCE("a"."data"::text, '')`).As("data"),
			goqu.I("a.created_at"),
			goqu.I("a.user_id"),
		).
		Where(goqu.Ex{
			"a.resource_id":   id,
			"a.resource_type": resourceType,
		}).
		Order(goqu.I("a.created_at").Asc(), goqu.I("a.id").Asc()).
		ScanStructsContext(ctx, &auditLogs)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	for i := range auditLogs {
		auditLogs[i].LoadFromDB()
	}
	return auditLogs, nil
}
