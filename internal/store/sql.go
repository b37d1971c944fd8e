package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLStore implements the Store interface on Postgres or SQLite.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

var _ Store = (*SQLStore)(nil)

// DriverFor maps a database URL to a driver name. postgres:// and
// postgresql:// URLs select the Postgres driver; anything else is treated as
// a SQLite path.
func DriverFor(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to the database named by databaseURL and verifies the
// connection. SQLite databases get WAL mode and foreign keys enabled; pass
// ":memory:" for an in-memory database.
func Open(databaseURL string) (*SQLStore, error) {
	driver := DriverFor(databaseURL)

	db, err := sqlx.Connect(driver, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// A second connection to ":memory:" would open a different empty
		// database, so the pool must stay at one.
		if strings.Contains(databaseURL, ":memory:") {
			db.SetMaxOpenConns(1)
		}
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling foreign keys: %w", err)
		}
	}

	return &SQLStore{db: db, driver: driver}, nil
}

// New wraps an existing database handle. Used by tests that inject sqlmock
// or pre-configured connections.
func New(db *sqlx.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// DB exposes the underlying handle for pool tuning.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// exec rebinds query placeholders for the active driver and executes.
func (s *SQLStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.db.Rebind(query), args...)
}

// query rebinds placeholders and runs a multi-row query.
func (s *SQLStore) query(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
}

// queryRow rebinds placeholders and runs a single-row query.
func (s *SQLStore) queryRow(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return s.db.QueryRowxContext(ctx, s.db.Rebind(query), args...)
}

// jsonStrings marshals a string slice for a TEXT column, normalizing nil to
// an empty JSON array.
func jsonStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshaling string list: %w", err)
	}
	return string(encoded), nil
}

// parseStrings unmarshals a TEXT column written by jsonStrings.
func parseStrings(encoded string) ([]string, error) {
	if encoded == "" || encoded == "[]" || encoded == "null" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(encoded), &values); err != nil {
		return nil, fmt.Errorf("unmarshaling string list: %w", err)
	}
	return values, nil
}
