package storage

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kvServer is a minimal stand-in for the server's /v1/kv endpoints.
type kvServer struct {
	mu       sync.Mutex
	values   map[string]string
	failures int32
	calls    int32
}

func (s *kvServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.calls, 1)
	if atomic.AddInt32(&s.failures, -1) >= 0 {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	key := strings.TrimPrefix(r.URL.EscapedPath(), "/v1/kv/")

	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		value, ok := s.values[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(KVValue{Value: value})
	case http.MethodPut:
		var body KVValue
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.values[key] = body.Value
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		delete(s.values, key)
		w.WriteHeader(http.StatusNoContent)
	}
}

func newTestRemoteStore(t *testing.T, handler http.Handler, retryAttempts uint) *RemoteStore {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := NewRemoteStore(server.URL, 5*time.Second, retryAttempts)
	store.retryDelay = time.Millisecond
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRemoteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	server := &kvServer{values: map[string]string{}}
	store := newTestRemoteStore(t, server, DefaultRemoteRetryAttempts)

	_, ok, err := store.Get(ctx, "collection")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "collection", `[{"name":"Nicodemo","chapter":"Juan 3"}]`))
	value, ok, err := store.Get(ctx, "collection")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"name":"Nicodemo","chapter":"Juan 3"}]`, value)

	require.NoError(t, store.Remove(ctx, "collection"))
	_, ok, err = store.Get(ctx, "collection")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoteStore_Retry(t *testing.T) {
	tests := []struct {
		name          string
		failures      int32
		retryAttempts uint
		wantErr       bool
		wantCalls     int32
	}{
		{
			name:          "recovers after transient failures",
			failures:      2,
			retryAttempts: 3,
			wantCalls:     3,
		},
		{
			name:          "gives up after the retry budget",
			failures:      10,
			retryAttempts: 2,
			wantErr:       true,
			wantCalls:     3,
		},
		{
			name:          "no retries",
			failures:      1,
			retryAttempts: 0,
			wantErr:       true,
			wantCalls:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &kvServer{values: map[string]string{}, failures: tt.failures}
			store := newTestRemoteStore(t, server, tt.retryAttempts)

			err := store.Set(context.Background(), "completedBooks", "{}")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStorageUnavailable)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&server.calls))
		})
	}
}

func TestRemoteStore_ClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	store := newTestRemoteStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}), 3)

	err := store.Set(context.Background(), "completedBooks", "{}")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
