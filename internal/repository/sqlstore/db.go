// Package sqlstore persists settings profiles and answered questions in
// PostgreSQL or SQLite.
package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"docintake/db"
	"docintake/internal/config"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// NewDB opens a connection pool for cfg.Driver.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		conn, err := sqlx.Connect(DriverPostgres, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		conn.SetMaxOpenConns(cfg.MaxOpen)
		conn.SetMaxIdleConns(cfg.MaxIdle)
		return conn, nil
	case DriverSQLite:
		return OpenSQLite(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// OpenSQLite opens a single-connection SQLite database. path may be ":memory:".
func OpenSQLite(path string) (*sqlx.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; an in-memory database exists per connection.
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// Migrate applies all pending embedded migrations to conn.
func Migrate(conn *sqlx.DB) error {
	var (
		driver database.Driver
		err    error
	)
	switch conn.DriverName() {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(conn.DB, &sqlite.Config{})
	case DriverPostgres:
		driver, err = postgres.WithInstance(conn.DB, &postgres.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", conn.DriverName())
	}
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	source, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	// m.Close would close conn, which the caller still owns.
	m, err := migrate.NewWithInstance("iofs", source, conn.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}
