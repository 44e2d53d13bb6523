package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrStorageUnavailable is returned when the underlying storage cannot be
// reached or refuses the operation. Callers treat it as non-fatal.
var ErrStorageUnavailable = errors.New("storage unavailable")

func unavailable(op, key string, err error) error {
	return fmt.Errorf("%s(%s) > %w: %w", op, key, ErrStorageUnavailable, err)
}

// IsUnavailable reports whether err is, or wraps, ErrStorageUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// GetJSON decodes the value at key into dst. It reports ok=false for a
// missing key and leaves dst untouched.
func GetJSON(ctx context.Context, store Store, key string, dst any) (bool, error) {
	value, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return false, fmt.Errorf("json.Unmarshal(%s) > %w", key, err)
	}
	return true, nil
}

func SetJSON(ctx context.Context, store Store, key string, value any) error {
	contents, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json.Marshal(%s) > %w", key, err)
	}
	return store.Set(ctx, key, string(contents))
}
