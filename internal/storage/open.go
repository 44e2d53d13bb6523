package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/at-ishikawa/biblia/internal/config"
	"github.com/at-ishikawa/biblia/internal/database"
)

// Handle is a Store that owns resources to release.
type Handle interface {
	Store
	io.Closer
}

type fallbackHandle struct {
	*FallbackStore
	closer io.Closer
}

func (h fallbackHandle) Close() error {
	return h.closer.Close()
}

// Open builds the store selected by cfg.Driver. With FallbackToMemory the
// store degrades to memory on the first ErrStorageUnavailable.
func Open(ctx context.Context, cfg config.StorageConfig) (Handle, error) {
	handle, err := open(ctx, cfg)
	if err != nil {
		if cfg.FallbackToMemory && IsUnavailable(err) {
			slog.Default().Warn("storage unavailable at startup, keeping changes in memory for this session",
				slog.String("driver", cfg.Driver),
				slog.Any("error", err),
			)
			return NewMemoryStore(), nil
		}
		return nil, err
	}
	if cfg.FallbackToMemory && cfg.Driver != "memory" {
		return fallbackHandle{FallbackStore: NewFallbackStore(handle), closer: handle}, nil
	}
	return handle, nil
}

func open(ctx context.Context, cfg config.StorageConfig) (Handle, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		store, err := NewFileStore(cfg.Directory)
		if err != nil {
			return nil, fmt.Errorf("NewFileStore() > %w", err)
		}
		return store, nil
	case "sqlite":
		db, err := database.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("database.OpenSQLite() > %w", err)
		}
		return migrated(ctx, NewSQLStore(db, DialectSQLite))
	case "mysql":
		db, err := database.OpenMySQL(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database.OpenMySQL() > %w", err)
		}
		return migrated(ctx, NewSQLStore(db, DialectMySQL))
	case "postgres":
		db, err := database.OpenPostgres(cfg.Postgres.URL, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("database.OpenPostgres() > %w", err)
		}
		return migrated(ctx, NewSQLStore(db, DialectPostgres))
	case "remote":
		if cfg.Remote.BaseURL == "" {
			return nil, fmt.Errorf("storage.remote.base_url is required for the remote driver")
		}
		return NewRemoteStore(cfg.Remote.BaseURL, cfg.Remote.Timeout, cfg.Remote.RetryAttempts), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
}

func migrated(ctx context.Context, store *SQLStore) (Handle, error) {
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("store.Migrate() > %w", err)
	}
	return store, nil
}
