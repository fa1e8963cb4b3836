package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schema embed.FS

// migrateUp brings db to the newest embedded schema and returns the
// resulting schema version. The migrator is left open: closing it closes db.
func migrateUp(db *sql.DB) (uint, error) {
	src, err := iofs.New(schema, "migrations")
	if err != nil {
		return 0, fmt.Errorf("load embedded migrations: %w", err)
	}
	target, err := sqlite.WithInstance(db, &sqlite.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		return 0, fmt.Errorf("wrap sqlite handle: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", target)
	if err != nil {
		return 0, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
