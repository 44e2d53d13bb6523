package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/biblia/internal/config"
	mock_storage "github.com/at-ishikawa/biblia/internal/mocks/storage"
)

func TestStore_Contract(t *testing.T) {
	tests := []struct {
		name     string
		newStore func(t *testing.T) Store
	}{
		{
			name: "memory",
			newStore: func(t *testing.T) Store {
				return NewMemoryStore()
			},
		},
		{
			name: "file",
			newStore: func(t *testing.T) Store {
				store, err := NewFileStore(filepath.Join(t.TempDir(), "storage"))
				require.NoError(t, err)
				return store
			},
		},
		{
			name: "namespaced memory",
			newStore: func(t *testing.T) Store {
				return Namespace(NewMemoryStore(), "maria")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := tt.newStore(t)

			_, ok, err := store.Get(ctx, "completedChapters")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "completedChapters", `{"Juan_3":{"completed":true,"date":"18/10/2026"}}`))
			value, ok, err := store.Get(ctx, "completedChapters")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"Juan_3":{"completed":true,"date":"18/10/2026"}}`, value)

			require.NoError(t, store.Set(ctx, "note_1 Samuel/x_3_10", ""))
			value, ok, err = store.Get(ctx, "note_1 Samuel/x_3_10")
			require.NoError(t, err)
			assert.True(t, ok, "empty string is a stored value")
			assert.Equal(t, "", value)

			require.NoError(t, store.Remove(ctx, "completedChapters"))
			_, ok, err = store.Get(ctx, "completedChapters")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, store.Remove(ctx, "never-set"))
		})
	}
}

func TestFileStore_ConcurrentWritesToSameKey(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Set(ctx, "collection", fmt.Sprintf("value-%d", i)))
		}(i)
	}
	wg.Wait()

	value, ok, err := store.Get(ctx, "collection")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Regexp(t, `^value-\d+$`, value)
}

func TestFileStore_Unavailable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	_, err := NewFileStore(filepath.Join(blocker, "storage"))
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	type progress struct {
		Completed bool    `json:"completed"`
		Date      *string `json:"date"`
	}

	var got progress
	ok, err := GetJSON(ctx, store, "completedBooks", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	date := "18/10/2026"
	require.NoError(t, SetJSON(ctx, store, "completedBooks", progress{Completed: true, Date: &date}))
	raw, _, _ := store.Get(ctx, "completedBooks")
	assert.JSONEq(t, `{"completed":true,"date":"18/10/2026"}`, raw)

	ok, err = GetJSON(ctx, store, "completedBooks", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, progress{Completed: true, Date: &date}, got)

	require.NoError(t, store.Set(ctx, "broken", "{"))
	_, err = GetJSON(ctx, store, "broken", &got)
	assert.Error(t, err)
	assert.False(t, IsUnavailable(err))
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryStore()

	assert.Same(t, Store(memory), Namespace(memory, ""))

	require.NoError(t, Namespace(memory, "maria").Set(ctx, "collection", "[]"))
	require.NoError(t, Namespace(memory, "jose").Set(ctx, "collection", `[{"name":"Nicodemo"}]`))
	assert.Equal(t, []string{"jose/collection", "maria/collection"}, memory.Keys(""))
}

func TestFallbackStore(t *testing.T) {
	ctx := context.Background()
	unavailableErr := fmt.Errorf("set > %w: %w", ErrStorageUnavailable, errors.New("quota exceeded"))

	t.Run("degrades to memory on unavailable storage", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		primary := mock_storage.NewMockStore(ctrl)
		primary.EXPECT().Get(gomock.Any(), "collection").Return("[]", true, nil)
		primary.EXPECT().Set(gomock.Any(), "collection", `[{"name":"Nicodemo"}]`).Return(unavailableErr)

		store := NewFallbackStore(primary)
		value, ok, err := store.Get(ctx, "collection")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "[]", value)
		assert.False(t, store.Degraded())

		require.NoError(t, store.Set(ctx, "collection", `[{"name":"Nicodemo"}]`))
		assert.True(t, store.Degraded())

		// The primary is not consulted again.
		value, ok, err = store.Get(ctx, "collection")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"name":"Nicodemo"}]`, value)
		require.NoError(t, store.Remove(ctx, "collection"))
	})

	t.Run("other errors are returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		primary := mock_storage.NewMockStore(ctrl)
		want := errors.New("context canceled")
		primary.EXPECT().Remove(gomock.Any(), "collection").Return(want)

		store := NewFallbackStore(primary)
		assert.ErrorIs(t, store.Remove(ctx, "collection"), want)
		assert.False(t, store.Degraded())
	})
}

func TestUnsavedOverlay(t *testing.T) {
	ctx := context.Background()
	unavailableErr := fmt.Errorf("set > %w: %w", ErrStorageUnavailable, errors.New("quota exceeded"))

	t.Run("keeps rejected writes until the storage takes them", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		backend := mock_storage.NewMockStore(ctrl)
		gomock.InOrder(
			backend.EXPECT().Set(gomock.Any(), "note_Juan_3_16", "texto").Return(unavailableErr),
			backend.EXPECT().Remove(gomock.Any(), "highlight_Juan_3_16").Return(unavailableErr),
			backend.EXPECT().Set(gomock.Any(), "note_Juan_3_16", "otro").Return(nil),
			backend.EXPECT().Get(gomock.Any(), "note_Juan_3_16").Return("otro", true, nil),
		)

		store := NewUnsavedOverlay(backend)
		require.NoError(t, store.Set(ctx, "note_Juan_3_16", "texto"))
		value, ok, err := store.Get(ctx, "note_Juan_3_16")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "texto", value)

		require.NoError(t, store.Remove(ctx, "highlight_Juan_3_16"))
		_, ok, err = store.Get(ctx, "highlight_Juan_3_16")
		require.NoError(t, err)
		assert.False(t, ok)

		// Once saved, reads go back to the storage.
		require.NoError(t, store.Set(ctx, "note_Juan_3_16", "otro"))
		value, ok, err = store.Get(ctx, "note_Juan_3_16")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "otro", value)
	})

	t.Run("other errors are returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		backend := mock_storage.NewMockStore(ctrl)
		want := errors.New("context canceled")
		backend.EXPECT().Set(gomock.Any(), "note_Juan_3_16", "texto").Return(want)
		backend.EXPECT().Get(gomock.Any(), "note_Juan_3_16").Return("", false, nil)

		store := NewUnsavedOverlay(backend)
		assert.ErrorIs(t, store.Set(ctx, "note_Juan_3_16", "texto"), want)
		_, ok, err := store.Get(ctx, "note_Juan_3_16")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		cfg          func(dir string) config.StorageConfig
		wantFallback bool
		wantErr      bool
	}{
		{
			name: "memory",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Driver: "memory", FallbackToMemory: true}
			},
		},
		{
			name: "file with fallback",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Driver: "file", Directory: filepath.Join(dir, "storage"), FallbackToMemory: true}
			},
			wantFallback: true,
		},
		{
			name: "sqlite",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Driver: "sqlite", SQLite: config.SQLiteConfig{Path: filepath.Join(dir, "biblia.db")}}
			},
		},
		{
			name: "remote without url",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Driver: "remote"}
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			cfg: func(dir string) config.StorageConfig {
				return config.StorageConfig{Driver: "redis"}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handle, err := Open(ctx, tt.cfg(t.TempDir()))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() {
				assert.NoError(t, handle.Close())
			}()

			_, isFallback := handle.(fallbackHandle)
			assert.Equal(t, tt.wantFallback, isFallback)

			require.NoError(t, handle.Set(ctx, "completedBooks", "{}"))
			value, ok, err := handle.Get(ctx, "completedBooks")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "{}", value)
		})
	}
}

func TestOpen_UnavailableFallsBackToMemory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	handle, err := Open(context.Background(), config.StorageConfig{
		Driver:           "file",
		Directory:        filepath.Join(blocker, "storage"),
		FallbackToMemory: true,
	})
	require.NoError(t, err)
	_, isMemory := handle.(*MemoryStore)
	assert.True(t, isMemory)

	_, err = Open(context.Background(), config.StorageConfig{
		Driver:    "file",
		Directory: filepath.Join(blocker, "storage"),
	})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
