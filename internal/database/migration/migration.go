package migration

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies steps migrations from source. Zero applies every pending
// one; a negative count rolls back that many.
func Migrate(dbURL, source string, steps int, verbose bool, log *zap.Logger) error {
	log.Info("Running database migration", zap.String("source", source), zap.Int("steps", steps))

	m, err := migrate.New(source, dbURL)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	defer m.Close()
	m.Log = &Logger{logger: log.Named("migrate"), verbose: verbose}

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("Database schema already up to date")
	case err != nil:
		log.Error("Database migration failed", zap.Error(err))
		return err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("Database schema is empty")
		return nil
	}
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty, fix it manually and force the version", version)
	}
	log.Info("Database schema ready", zap.Uint("version", version))
	return nil
}

// Logger forwards migrate's output to zap.
type Logger struct {
	logger  *zap.Logger
	verbose bool
}

func (l *Logger) Printf(format string, v ...any) {
	l.logger.Sugar().Infof(format, v...)
}

func (l *Logger) Verbose() bool {
	return l.verbose
}
