package db

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Migrate applies every pending migration in src to the database behind pool.
// It returns the schema version after the run.
func Migrate(pool *pgxpool.Pool, src fs.FS) (uint, error) {
	m, err := migrator(pool, src)
	if err != nil {
		return 0, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("platform/db: apply migrations: %w", err)
	}
	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("platform/db: migration version: %w", err)
	}
	return version, nil
}

// MigrateDown rolls back steps migrations.
func MigrateDown(pool *pgxpool.Pool, src fs.FS, steps int) error {
	if steps <= 0 {
		return errors.New("platform/db: steps must be positive")
	}
	m, err := migrator(pool, src)
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: rollback migrations: %w", err)
	}
	return nil
}

// The *sql.DB wraps the shared pool, so the migrator is never closed here.
func migrator(pool *pgxpool.Pool, src fs.FS) (*migrate.Migrate, error) {
	source, err := iofs.New(src, ".")
	if err != nil {
		return nil, fmt.Errorf("platform/db: migration source: %w", err)
	}
	sqlDB := stdlib.OpenDBFromPool(pool)
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("platform/db: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("platform/db: migrator: %w", err)
	}
	return m, nil
}
