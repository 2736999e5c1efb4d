package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Status is the schema version recorded by the migrator.
type Status struct {
	Version uint
	Dirty   bool
	// Applied is false when no migration has ever run.
	Applied bool
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, databaseURL string) error {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Get().Info(ctx, "no new migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: up: %v", ErrMigration, err)
	}
	version, _, _ := m.Version()
	logger.Get().Info(ctx, "migrated database", logger.Int("version", int(version)))
	return nil
}

// MigrateDown rolls back steps migrations.
func MigrateDown(ctx context.Context, databaseURL string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrMigration, steps)
	}
	m, err := newMigrate(databaseURL)
	if err != nil {
		return err
	}
	defer closeMigrate(ctx, m)

	err = m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Get().Info(ctx, "no migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: down: %v", ErrMigration, err)
	}
	version, _, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		logger.Get().Info(ctx, "rolled back every migration")
		return nil
	}
	logger.Get().Info(ctx, "rolled back database", logger.Int("version", int(version)))
	return nil
}

// MigrateStatus reports the current schema version.
func MigrateStatus(ctx context.Context, databaseURL string) (Status, error) {
	m, err := newMigrate(databaseURL)
	if err != nil {
		return Status{}, err
	}
	defer closeMigrate(ctx, m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("%w: version: %v", ErrMigration, err)
	}
	return Status{Version: version, Dirty: dirty, Applied: true}, nil
}

func newMigrate(databaseURL string) (*migrate.Migrate, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse database url: %v", ErrMigration, err)
	}
	db := stdlib.OpenDB(*config.ConnConfig)

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: postgres driver: %v", ErrMigration, err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: embedded source: %v", ErrMigration, err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrMigration, err)
	}
	return m, nil
}

func closeMigrate(ctx context.Context, m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		logger.Get().Warn(ctx, "closing migrator", logger.Error(err))
	}
}
