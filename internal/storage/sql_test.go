package storage

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSQLStore(t *testing.T, driverName string, dialect Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewSQLStore(sqlx.NewDb(db, driverName), dialect), mock
}

func TestSQLStore_Get(t *testing.T) {
	query := regexp.QuoteMeta("SELECT entry_value FROM kv_entries WHERE entry_key = ?")

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      string
		wantOK    bool
		wantErr   bool
	}{
		{
			name: "found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs("collection").
					WillReturnRows(sqlmock.NewRows([]string{"entry_value"}).AddRow(`[{"name":"Nicodemo"}]`))
			},
			want:   `[{"name":"Nicodemo"}]`,
			wantOK: true,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs("collection").
					WillReturnRows(sqlmock.NewRows([]string{"entry_value"}))
			},
		},
		{
			name: "db error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).
					WithArgs("collection").
					WillReturnError(fmt.Errorf("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockSQLStore(t, "mysql", DialectMySQL)
			tt.setupMock(mock)

			got, ok, err := store.Get(context.Background(), "collection")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStorageUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_Set(t *testing.T) {
	tests := []struct {
		name       string
		driverName string
		dialect    Dialect
		query      string
		execErr    error
	}{
		{
			name:       "mysql upsert",
			driverName: "mysql",
			dialect:    DialectMySQL,
			query:      "INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value)",
		},
		{
			name:       "postgres upsert uses dollar placeholders",
			driverName: "pgx",
			dialect:    DialectPostgres,
			query:      "INSERT INTO kv_entries (entry_key, entry_value) VALUES ($1, $2) ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP",
		},
		{
			name:       "sqlite upsert",
			driverName: "sqlite",
			dialect:    DialectSQLite,
			query:      "INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?) ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP",
		},
		{
			name:       "db error",
			driverName: "mysql",
			dialect:    DialectMySQL,
			query:      "INSERT INTO kv_entries",
			execErr:    fmt.Errorf("disk full"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockSQLStore(t, tt.driverName, tt.dialect)
			expect := mock.ExpectExec(regexp.QuoteMeta(tt.query)).WithArgs("completedBooks", "{}")
			if tt.execErr != nil {
				expect.WillReturnError(tt.execErr)
			} else {
				expect.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := store.Set(context.Background(), "completedBooks", "{}")
			if tt.execErr != nil {
				assert.ErrorIs(t, err, ErrStorageUnavailable)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSQLStore_RemoveAndMigrate(t *testing.T) {
	store, mock := newMockSQLStore(t, "mysql", DialectMySQL)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS kv_entries")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM kv_entries WHERE entry_key = ?")).
		WithArgs("note_Juan_3_16").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Migrate(context.Background()))
	require.NoError(t, store.Remove(context.Background(), "note_Juan_3_16"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	store := NewSQLStore(db, DialectSQLite)
	defer store.Close()

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Set(ctx, "highlight_Juan_3_16", `{"color":"red"}`))
	require.NoError(t, store.Set(ctx, "highlight_Juan_3_16", "null"))

	value, ok, err := store.Get(ctx, "highlight_Juan_3_16")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "null", value)

	require.NoError(t, store.Remove(ctx, "highlight_Juan_3_16"))
	_, ok, err = store.Get(ctx, "highlight_Juan_3_16")
	require.NoError(t, err)
	assert.False(t, ok)
}
