package auditlog

import (
	"context"

	"evinventory/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	PersistLog(ctx context.Context, auditLog models.AuditLog, data interface{}) error
}

type Auditlog struct {
	store  Store
	logger *zap.Logger
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

func NewAuditLog(store Store, logger *zap.Logger) *Auditlog {
	return &Auditlog{store: store, logger: logger}
}

// Log appends one entry for item. It runs after the owning transaction has
// committed, so a failure is logged and returned for the effect runner only.
func (a *Auditlog) Log(ctx context.Context, action string, userID *uuid.UUID, data interface{}, item Auditable) error {
	auditLog := item.CreateLogView()
	auditLog.Action = action
	auditLog.UserID = userID

	if err := a.store.PersistLog(ctx, auditLog, data); err != nil {
		a.logger.Warn("Unable to create AuditLog entry",
			zap.String("resource_type", auditLog.ResourceType),
			zap.String("resource_id", auditLog.ResourceID.String()),
			zap.Error(err),
		)
		return err
	}

	a.logger.Debug("Created AuditLog entry",
		zap.String("resource_type", auditLog.ResourceType),
		zap.String("resource_id", auditLog.ResourceID.String()),
		zap.String("action", action),
	)
	return nil
}
