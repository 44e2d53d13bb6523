// Package storage provides the key/value persistence adapter shared by the
// reading engines.
package storage

import (
	"context"
)

//go:generate mockgen -source=storage.go -destination=../mocks/storage/mock_store.go -package=mock_storage

// Store is a flat namespace of string keys and string values. Keys are
// written independently; there is no transaction across keys.
type Store interface {
	// Get returns ok=false when the key has never been set or was removed.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string) error
	Remove(ctx context.Context, key string) error
}
