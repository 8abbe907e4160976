package storage

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationManager applies the embedded schema migrations to a database file.
type MigrationManager struct {
	migrate *migrate.Migrate
}

func NewMigrationManager(dbPath string) (*MigrationManager, error) {
	dir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	src, err := iofs.New(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("migrations source: %w", err)
	}

	// sqlite://C:/x must become sqlite:///C:/x on windows.
	p := filepath.ToSlash(dbPath)
	if filepath.IsAbs(dbPath) && p[0] != '/' {
		p = "/" + p
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+p)
	if err != nil {
		return nil, fmt.Errorf("migrate init: %w", err)
	}
	return &MigrationManager{migrate: m}, nil
}

// Up applies all pending migrations.
func (mm *MigrationManager) Up() error {
	if err := mm.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Version returns the current schema version; 0 when nothing was applied yet.
func (mm *MigrationManager) Version() (uint, bool, error) {
	v, dirty, err := mm.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, fmt.Errorf("migrate version: %w", err)
	}
	return v, dirty, nil
}

func (mm *MigrationManager) Close() error {
	srcErr, dbErr := mm.migrate.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration db: %w", dbErr)
	}
	return nil
}

// Migrate brings the database file at path up to the latest schema.
func Migrate(path string) error {
	mm, err := NewMigrationManager(path)
	if err != nil {
		return err
	}
	upErr := mm.Up()
	closeErr := mm.Close()
	if upErr != nil {
		return upErr
	}
	return closeErr
}

// SchemaVersion reports the migration version of the database file at path and
// whether the last migration failed halfway.
func SchemaVersion(path string) (uint, bool, error) {
	mm, err := NewMigrationManager(path)
	if err != nil {
		return 0, false, err
	}
	v, dirty, verr := mm.Version()
	closeErr := mm.Close()
	if verr != nil {
		return 0, false, verr
	}
	return v, dirty, closeErr
}
