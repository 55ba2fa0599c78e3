package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLBackend is a SQL-backed Backend.
// It works with any database/sql compatible driver (PostgreSQL, MySQL,
// SQLite). Requires a table with schema:
//
//	CREATE TABLE pigment_store (
//	    id VARCHAR(128) PRIMARY KEY,
//	    data BYTEA NOT NULL,
//	    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
//	);
type SQLBackend struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	closed    bool
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders).
	DialectPostgreSQL SQLDialect = iota
	// DialectMySQL uses MySQL syntax (? placeholders).
	DialectMySQL
	// DialectSQLite uses SQLite syntax (? placeholders).
	DialectSQLite
)

// SQLBackendOption configures SQLBackend behavior.
type SQLBackendOption func(*sqlBackendConfig)

type sqlBackendConfig struct {
	tableName string
	dialect   SQLDialect
}

// WithSQLTableName sets the table name for value storage.
// Default: "pigment_store".
func WithSQLTableName(name string) SQLBackendOption {
	return func(c *sqlBackendConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectSQLite.
func WithSQLDialect(dialect SQLDialect) SQLBackendOption {
	return func(c *sqlBackendConfig) {
		c.dialect = dialect
	}
}

// NewSQLBackend creates a new SQL-backed storage backend.
func NewSQLBackend(db *sql.DB, opts ...SQLBackendOption) *SQLBackend {
	cfg := &sqlBackendConfig{
		tableName: "pigment_store",
		dialect:   DialectSQLite,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &SQLBackend{
		db:        db,
		tableName: cfg.tableName,
		dialect:   cfg.dialect,
	}
}

// placeholder returns the placeholder syntax for the dialect.
func (s *SQLBackend) placeholder(n int) string {
	switch s.dialect {
	case DialectPostgreSQL:
		return fmt.Sprintf("$%d", n)
	default:
		return "?"
	}
}

// Save upserts the value for key.
func (s *SQLBackend) Save(ctx context.Context, key string, data []byte) error {
	if s.closed {
		return ErrBackendClosed{}
	}

	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (id, data, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (id) DO UPDATE SET
				data = EXCLUDED.data,
				updated_at = NOW()
		`, s.tableName)
	case DialectMySQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (id, data, updated_at)
			VALUES (?, ?, NOW())
			ON DUPLICATE KEY UPDATE
				data = VALUES(data),
				updated_at = NOW()
		`, s.tableName)
	case DialectSQLite:
		query = fmt.Sprintf(`
			INSERT OR REPLACE INTO %s (id, data, updated_at)
			VALUES (?, ?, datetime('now'))
		`, s.tableName)
	}

	_, err := s.db.ExecContext(ctx, query, key, data)
	return err
}

// Load retrieves the value for key, or (nil, nil) if no row exists.
func (s *SQLBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if s.closed {
		return nil, ErrBackendClosed{}
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = %s`, s.tableName, s.placeholder(1))

	var data []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return data, nil
}

// Delete removes the row for key.
func (s *SQLBackend) Delete(ctx context.Context, key string) error {
	if s.closed {
		return ErrBackendClosed{}
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = %s`, s.tableName, s.placeholder(1))
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// Keys returns all stored keys.
func (s *SQLBackend) Keys(ctx context.Context) ([]string, error) {
	if s.closed {
		return nil, ErrBackendClosed{}
	}

	query := fmt.Sprintf(`SELECT id FROM %s`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Close marks the backend closed.
// Note: This does not close the underlying database connection,
// as it may be shared with other components.
func (s *SQLBackend) Close() error {
	s.closed = true
	return nil
}

// CreateTable creates the storage table if it doesn't exist.
// This is a convenience method for development/testing.
func (s *SQLBackend) CreateTable(ctx context.Context) error {
	var query string
	switch s.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(128) PRIMARY KEY,
				data BYTEA NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`, s.tableName)
	case DialectMySQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id VARCHAR(128) PRIMARY KEY,
				data BLOB NOT NULL,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)
		`, s.tableName)
	case DialectSQLite:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				data BLOB NOT NULL,
				updated_at TEXT DEFAULT (datetime('now'))
			)
		`, s.tableName)
	}

	_, err := s.db.ExecContext(ctx, query)
	return err
}
