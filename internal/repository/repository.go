package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// Repository holds the shared goqu handle every module repository is built on.
type Repository struct {
	DB            *sql.DB
	GoquDBWrapper *goqu.Database
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		DB:            db,
		GoquDBWrapper: goqu.New("postgres", db),
	}
}

// Transactor is the unit of work handed to services. The transaction is
// passed to fn by parameter and every repository write takes it explicitly.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error
}

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	return WithTransaction(ctx, r.GoquDBWrapper, fn)
}

func WithTransaction(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	err = fn(tx)
	return
}
