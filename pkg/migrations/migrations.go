// Package migrations applies the SQL files under migrations/ to the waitlist database.
package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	DefaultDir   = "migrations"
	DefaultTable = "schema_migrations"
)

type migrator interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (sourceErr error, databaseErr error)
}

// Driver opens the golang-migrate driver for db. Postgres unless replaced.
type Driver struct {
	Name string
	Open func(db *sql.DB, table string) (database.Driver, error)
}

var PostgresDriver = Driver{
	Name: "postgres",
	Open: func(db *sql.DB, table string) (database.Driver, error) {
		return postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	},
}

var newMigrator = func(sourceURL string, driverName string, driver database.Driver) (migrator, error) {
	return migrate.NewWithDatabaseInstance(sourceURL, driverName, driver)
}

type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type Config struct {
	Dir             string
	MigrationsTable string
	Driver          *Driver
	Logger          Logger
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Dir) == "" {
		c.Dir = DefaultDir
	}
	if strings.TrimSpace(c.MigrationsTable) == "" {
		c.MigrationsTable = DefaultTable
	}
	if c.Driver == nil {
		c.Driver = &PostgresDriver
	}
	return c
}

func (c Config) info(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Info(msg, args...)
	}
}

func (c Config) warn(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Warn(msg, args...)
	}
}

// SourceURL turns a migrations directory into a file:// source URL.
func SourceURL(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("migrations: resolve dir: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

// Up applies every pending migration and returns the resulting schema version.
// A schema that is already current is not an error.
func Up(ctx context.Context, db *sql.DB, cfg Config) (uint, error) {
	if db == nil {
		return 0, errors.New("migrations: db is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cfg = cfg.withDefaults()

	sourceURL, err := SourceURL(cfg.Dir)
	if err != nil {
		return 0, err
	}

	driver, err := cfg.Driver.Open(db, cfg.MigrationsTable)
	if err != nil {
		return 0, fmt.Errorf("migrations: %s driver: %w", cfg.Driver.Name, err)
	}

	m, err := newMigrator(sourceURL, cfg.Driver.Name, driver)
	if err != nil {
		return 0, fmt.Errorf("migrations: init: %w", err)
	}

	var once sync.Once
	closeMigrator := func() {
		once.Do(func() {
			srcErr, dbErr := m.Close()
			if srcErr != nil {
				cfg.warn("Failed to close migration source", "error", srcErr)
			}
			if dbErr != nil {
				cfg.warn("Failed to close migration database", "error", dbErr)
			}
		})
	}
	defer closeMigrator()

	cfg.info("Applying waitlist schema migrations", "source", sourceURL, "table", cfg.MigrationsTable)

	done := make(chan error, 1)
	go func() { done <- m.Up() }()

	select {
	case <-ctx.Done():
		// migrate has no context support; closing is the only way to interrupt it.
		closeMigrator()
		return 0, ctx.Err()
	case err := <-done:
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return 0, fmt.Errorf("migrations: up: %w", err)
		}
		if errors.Is(err, migrate.ErrNoChange) {
			cfg.info("Waitlist schema already up to date")
		}
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("migrations: version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("migrations: schema version %d is dirty", version)
	}

	cfg.info("Waitlist schema ready", "version", version)
	return version, nil
}
