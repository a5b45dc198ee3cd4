package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"evinventory/internal/database/migration"

	"go.uber.org/zap"
)

// RunMigrations applies every pending migration found in migrationsDir.
func RunMigrations(dbURL, migrationsDir string, verbose bool, logger *zap.Logger) error {
	return runMigrations(dbURL, migrationsDir, 0, verbose, logger)
}

// RollbackMigrations reverts the last steps migrations.
func RollbackMigrations(dbURL, migrationsDir string, steps int, logger *zap.Logger) error {
	if steps < 1 {
		return fmt.Errorf("rollback needs at least one step, got %d", steps)
	}
	return runMigrations(dbURL, migrationsDir, -steps, true, logger)
}

func runMigrations(dbURL, migrationsDir string, steps int, verbose bool, logger *zap.Logger) error {
	if dbURL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	return migration.Migrate(dbURL, "file://"+absPath, steps, verbose, logger)
}
