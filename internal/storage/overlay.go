package storage

import (
	"context"
	"log/slog"
	"sync"
)

// UnsavedOverlay keeps writes that the underlying store rejected with
// ErrStorageUnavailable and serves them back to later reads of the same key.
// Other errors are returned unchanged. A successful write drops the unsaved
// value of its key.
type UnsavedOverlay struct {
	store Store

	mu sync.Mutex
	// A nil value records a removal.
	unsaved map[string]*string
}

func NewUnsavedOverlay(store Store) *UnsavedOverlay {
	return &UnsavedOverlay{
		store:   store,
		unsaved: make(map[string]*string),
	}
}

func (o *UnsavedOverlay) lookup(key string) (*string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	value, ok := o.unsaved[key]
	return value, ok
}

func (o *UnsavedOverlay) keep(key string, value *string, err error) error {
	if !IsUnavailable(err) {
		return err
	}
	o.mu.Lock()
	o.unsaved[key] = value
	o.mu.Unlock()
	slog.Default().Warn("change kept in memory only",
		slog.String("key", key),
		slog.Any("error", err),
	)
	return nil
}

func (o *UnsavedOverlay) forget(key string) {
	o.mu.Lock()
	delete(o.unsaved, key)
	o.mu.Unlock()
}

func (o *UnsavedOverlay) Get(ctx context.Context, key string) (string, bool, error) {
	if value, ok := o.lookup(key); ok {
		if value == nil {
			return "", false, nil
		}
		return *value, true, nil
	}
	return o.store.Get(ctx, key)
}

func (o *UnsavedOverlay) Set(ctx context.Context, key string, value string) error {
	if err := o.store.Set(ctx, key, value); err != nil {
		return o.keep(key, &value, err)
	}
	o.forget(key)
	return nil
}

func (o *UnsavedOverlay) Remove(ctx context.Context, key string) error {
	if err := o.store.Remove(ctx, key); err != nil {
		return o.keep(key, nil, err)
	}
	o.forget(key)
	return nil
}
