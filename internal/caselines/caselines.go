package caselines

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"evinventory/internal/repository"
	custom_error "evinventory/pkg/errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
)

type Status string

const (
	WaitingForParts Status = "WAITING_FOR_PARTS"
	PartsAvailable  Status = "PARTS_AVAILABLE"
	InRepair        Status = "IN_REPAIR"
	RejectedByOEM   Status = "REJECTED_BY_OEM"
)

// Service is the warehouse-facing slice of the case-line workflow.
type Service interface {
	BulkUpdateStatusByIDs(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID, status Status) error
	GetVehicleVIN(ctx context.Context, tx *goqu.TxDatabase, caseLineID uuid.UUID) (string, error)
	// CountWarrantedComponents counts active warranted units of a type on a vehicle.
	CountWarrantedComponents(ctx context.Context, tx *goqu.TxDatabase, vin string, typeComponentID uuid.UUID) (int, error)
}

type Repository struct {
	repository *repository.Repository
}

func NewRepository(r *repository.Repository) *Repository {
	return &Repository{repository: r}
}

func (r *Repository) BulkUpdateStatusByIDs(ctx context.Context, tx *goqu.TxDatabase, ids []uuid.UUID, status Status) error {
	if len(ids) == 0 {
		return nil
	}

	_, err := tx.Update("case_lines").
		Set(goqu.Record{"status": status, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": ids}).
		Executor().ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to update case lines to %s: %w", status, err)
	}
	return nil
}

func (r *Repository) GetVehicleVIN(ctx context.Context, tx *goqu.TxDatabase, caseLineID uuid.UUID) (string, error) {
	var vin sql.NullString
	found, err := tx.From(goqu.T("case_lines").As("cl")).
		Select(goqu.I("gc.vehicle_vin")).
		InnerJoin(goqu.T("guarantee_cases").As("gc"), goqu.On(goqu.Ex{"cl.guarantee_case_id": goqu.I("gc.id")})).
		Where(goqu.Ex{"cl.id": caseLineID}).
		Executor().ScanValContext(ctx, &vin)
	if err != nil {
		return "", fmt.Errorf("failed to resolve vehicle for case line: %w", err)
	}
	if !found {
		return "", custom_error.NewNotFound("case line", caseLineID)
	}
	if !vin.Valid || vin.String == "" {
		return "", custom_error.NewConflict("case line %s has no vehicle assigned", caseLineID)
	}
	return vin.String, nil
}

func (r *Repository) CountWarrantedComponents(ctx context.Context, tx *goqu.TxDatabase, vin string, typeComponentID uuid.UUID) (int, error) {
	var count int
	_, err := tx.From("vehicle_warranty_components").
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.Ex{
			"vehicle_vin":       vin,
			"type_component_id": typeComponentID,
			"status":            "ACTIVE",
		}).
		Executor().ScanValContext(ctx, &count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to count warranted components: %w", err)
	}
	return count, nil
}
