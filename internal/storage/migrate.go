package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtySchema means a previous migration stopped halfway and needs manual repair.
var ErrDirtySchema = errors.New("mirror schema is dirty")

// migrator owns its own connection so migrations never share the repository pool.
type migrator struct {
	db *sql.DB
	m  *migrate.Migrate
}

func openMigrator(dbPath string) (*migrator, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return &migrator{db: db, m: m}, nil
}

func (g *migrator) close() {
	g.m.Close()
	g.db.Close()
}

// version returns 0 for a database that has never been migrated.
func (g *migrator) version() (uint, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("%w at version %d", ErrDirtySchema, v)
	}
	return v, nil
}

// RunMigrations brings the mirror schema up to date and returns the resulting
// version. An up-to-date database is not an error.
func RunMigrations(dbPath string) (uint, error) {
	g, err := openMigrator(dbPath)
	if err != nil {
		return 0, err
	}
	defer g.close()

	before, err := g.version()
	if err != nil {
		return before, err
	}
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return before, fmt.Errorf("apply migrations: %w", err)
	}
	after, err := g.version()
	if err != nil {
		return after, err
	}
	if after != before {
		slog.Info("Mirror schema migrated", "db_path", dbPath, "from", before, "to", after)
	}
	return after, nil
}

// SchemaVersion reports the applied schema version without migrating.
func SchemaVersion(dbPath string) (uint, error) {
	g, err := openMigrator(dbPath)
	if err != nil {
		return 0, err
	}
	defer g.close()
	return g.version()
}
