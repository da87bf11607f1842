package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx doesn't know about.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Store is the Account/Credential Store: accounts, API keys, permissions,
// transactions, telemetry events, waitlist, and settings. SQLite (embedded)
// is the default backend; Postgres is supported for production deployments.
type Store struct {
	db     *sqlx.DB
	driver string
}

// New opens a store. driver is "sqlite" or "postgres". For sqlite, dsn is a
// data directory (empty string for in-memory); for postgres, dsn is a
// connection URL.
func New(driver, dsn string) (*Store, error) {
	switch driver {
	case "", "sqlite":
		return newSQLite(dsn)
	case "postgres":
		db, err := sqlx.Connect("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		s := &Store{db: db, driver: "postgres"}
		if err := s.migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

func newSQLite(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "pilot.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db, driver: "sqlite"}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the active driver name ("sqlite" or "postgres").
func (s *Store) Driver() string {
	return s.driver
}

// rebind rewrites "?" placeholders for the active driver's bind style.
func (s *Store) rebind(query string) string {
	return s.db.Rebind(query)
}
