package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps every key in a single kv_entries table.
type SQLStore struct {
	db      *sqlx.DB
	dialect Dialect
}

func NewSQLStore(db *sqlx.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

func (s *SQLStore) createTableQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return `CREATE TABLE IF NOT EXISTS kv_entries (
	entry_key VARCHAR(512) NOT NULL PRIMARY KEY,
	entry_value LONGTEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`
	default:
		return `CREATE TABLE IF NOT EXISTS kv_entries (
	entry_key TEXT NOT NULL PRIMARY KEY,
	entry_value TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	}
}

func (s *SQLStore) upsertQuery() string {
	switch s.dialect {
	case DialectMySQL:
		return "INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value)"
	default:
		return s.db.Rebind("INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?) ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP")
	}
}

// Migrate creates the kv_entries table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.createTableQuery()); err != nil {
		return unavailable("db.ExecContext(create kv_entries)", "", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT entry_value FROM kv_entries WHERE entry_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("db.GetContext(kv_entries)", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsertQuery(), key, value); err != nil {
		return unavailable("db.ExecContext(upsert kv_entries)", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM kv_entries WHERE entry_key = ?"), key); err != nil {
		return unavailable("db.ExecContext(delete kv_entries)", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("db.Close() > %w", err)
	}
	return nil
}
