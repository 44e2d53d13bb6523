package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"
)

const DefaultRemoteRetryAttempts = 3

// KVValue is the wire format of the server's /v1/kv endpoints.
type KVValue struct {
	Value string `json:"value"`
}

// RemoteStore talks to a biblia-server's key/value endpoints.
type RemoteStore struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
	retryDelay       time.Duration
	locks            keyLocks
}

func NewRemoteStore(baseURL string, timeout time.Duration, retryAttempts uint) *RemoteStore {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &RemoteStore{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
		retryDelay:       100 * time.Millisecond,
	}
}

func (s *RemoteStore) Close() error {
	return s.httpClient.Close()
}

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("response error %d", e.status)
}

func isRetryableStatus(status int) bool {
	return status >= http.StatusInternalServerError || status == http.StatusTooManyRequests
}

// do runs the request with retries on transport errors, 5xx and 429.
func (s *RemoteStore) do(ctx context.Context, op, key string, request func() (*resty.Response, error)) (*resty.Response, error) {
	var response *resty.Response
	err := retry.Do(
		func() error {
			res, err := request()
			if err != nil {
				return err
			}
			if isRetryableStatus(res.StatusCode()) {
				return &statusError{status: res.StatusCode()}
			}
			response = res
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.maxRetryAttempts+1),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Default().Debug("retrying remote storage request",
				slog.String("op", op),
				slog.String("key", key),
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		return nil, unavailable(op, key, err)
	}
	return response, nil
}

func (s *RemoteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var result KVValue
	res, err := s.do(ctx, "GET", key, func() (*resty.Response, error) {
		return s.httpClient.R().
			SetContext(ctx).
			SetPathParam("key", key).
			SetResult(&result).
			Get("/v1/kv/{key}")
	})
	if err != nil {
		return "", false, err
	}
	switch {
	case res.StatusCode() == http.StatusNotFound:
		return "", false, nil
	case res.IsError():
		return "", false, unavailable("GET", key, &statusError{status: res.StatusCode()})
	}
	return result.Value, true, nil
}

func (s *RemoteStore) Set(ctx context.Context, key string, value string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	res, err := s.do(ctx, "PUT", key, func() (*resty.Response, error) {
		return s.httpClient.R().
			SetContext(ctx).
			SetPathParam("key", key).
			SetBody(KVValue{Value: value}).
			Put("/v1/kv/{key}")
	})
	if err != nil {
		return err
	}
	if res.IsError() {
		return unavailable("PUT", key, &statusError{status: res.StatusCode()})
	}
	return nil
}

func (s *RemoteStore) Remove(ctx context.Context, key string) error {
	unlock := s.locks.lock(key)
	defer unlock()

	res, err := s.do(ctx, "DELETE", key, func() (*resty.Response, error) {
		return s.httpClient.R().
			SetContext(ctx).
			SetPathParam("key", key).
			Delete("/v1/kv/{key}")
	})
	if err != nil {
		return err
	}
	if res.IsError() && res.StatusCode() != http.StatusNotFound {
		return unavailable("DELETE", key, &statusError{status: res.StatusCode()})
	}
	return nil
}
