package bootstrap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApp_Run(t *testing.T) {
	t.Run("run returns nil", func(t *testing.T) {
		app := New()
		err := app.Run(context.Background(), func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("run error is joined with hook errors", func(t *testing.T) {
		app := New()
		runErr := errors.New("listen failed")
		hookErr := errors.New("close failed")
		app.AddShutdownHook("storage", func(ctx context.Context) error {
			return hookErr
		})

		err := app.Run(context.Background(), func(ctx context.Context) error {
			return runErr
		})
		assert.ErrorIs(t, err, runErr)
		assert.ErrorIs(t, err, hookErr)
		assert.Contains(t, err.Error(), "storage > close failed")
	})

	t.Run("shutdown hooks run in LIFO order on context cancel", func(t *testing.T) {
		app := New()
		var mu sync.Mutex
		var order []string
		for _, name := range []string{"storage", "sessions", "http"} {
			app.AddShutdownHook(name, func(ctx context.Context) error {
				mu.Lock()
				defer mu.Unlock()
				order = append(order, name)
				return nil
			})
		}

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"http", "sessions", "storage"}, order)
	})

	t.Run("hooks get a deadline", func(t *testing.T) {
		app := New(WithShutdownTimeout(time.Second))
		var hasDeadline bool
		app.AddShutdownHook("http", func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		})

		require.NoError(t, app.Run(context.Background(), func(ctx context.Context) error {
			return nil
		}))
		assert.True(t, hasDeadline)
	})

	t.Run("hook registered from inside run callback", func(t *testing.T) {
		app := New()
		hookCalled := false

		ctx, cancel := context.WithCancel(context.Background())
		err := app.Run(ctx, func(ctx context.Context) error {
			app.AddShutdownHook("late", func(ctx context.Context) error {
				hookCalled = true
				return nil
			})
			cancel()
			<-ctx.Done()
			return nil
		})
		require.NoError(t, err)
		assert.True(t, hookCalled)
	})
}
