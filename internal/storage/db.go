package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DB wraps a SQL connection holding snapshots, the command journal,
// settings and pending MCP approvals.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open connects to the given driver and runs migrations. For sqlite the dsn
// is a file path (or ":memory:"); the parent directory is created.
func Open(driver, dsn string) (*DB, error) {
	if driver == "" {
		driver = DriverSQLite
	}

	var (
		conn *sql.DB
		err  error
	)
	switch driver {
	case DriverSQLite:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
		conn, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite only supports one writer; a single connection also keeps
		// :memory: databases alive across calls
		conn.SetMaxOpenConns(1)
	case DriverPostgres, DriverMySQL:
		conn, err = sql.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driver, err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db := &DB{conn: conn, driver: driver}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the driver name the DB was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders into the driver's bind syntax.
func (db *DB) Rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.Rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.Rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.Rebind(query), args...)
}

// upsert replaces the row keyed by key inside a transaction. Delete+insert
// keeps the statement portable across all three drivers.
func (db *DB) upsert(ctx context.Context, table, key string, keyValue any, columns []string, values []any) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, db.Rebind(fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, key)), keyValue); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders)
	if _, err := tx.ExecContext(ctx, db.Rebind(stmt), values...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return tx.Commit()
}

func (db *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			name VARCHAR(191) PRIMARY KEY,
			version VARCHAR(32) NOT NULL,
			data TEXT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS command_journal (
			id VARCHAR(64) PRIMARY KEY,
			kind VARCHAR(32) NOT NULL,
			label TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			name VARCHAR(191) PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		// Pending agent actions awaiting a human decision (standalone MCP)
		`CREATE TABLE IF NOT EXISTS mcp_approvals (
			id VARCHAR(64) PRIMARY KEY,
			tool VARCHAR(64) NOT NULL,
			description TEXT NOT NULL,
			status VARCHAR(16) NOT NULL,
			metadata TEXT NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}
