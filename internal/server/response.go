package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/prayer"
	"github.com/at-ishikawa/biblia/internal/progress"
	"github.com/at-ishikawa/biblia/internal/storage"
)

type APIResponse struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Warn("failed to write response", slog.Any("error", err))
	}
}

func success(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{
		Status:  http.StatusOK,
		Success: true,
		Data:    data,
	})
}

func failure(w http.ResponseWriter, statusCode int, message string, data any) {
	writeJSON(w, statusCode, APIResponse{
		Status:  statusCode,
		Message: message,
		Data:    data,
	})
}

// badRequestError marks malformed input such as a non-numeric chapter.
type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string {
	return e.err.Error()
}

func (e *badRequestError) Unwrap() error {
	return e.err
}

func statusOf(err error) int {
	var precondition *progress.PreconditionNotMetError
	var badRequest *badRequestError
	switch {
	case errors.As(err, &precondition), errors.Is(err, prayer.ErrAlreadyRecording):
		return http.StatusConflict
	case errors.Is(err, bible.ErrUnknownBook),
		errors.Is(err, bible.ErrUnknownChapter),
		errors.Is(err, bible.ErrUnknownVerse),
		errors.Is(err, prayer.ErrNoPrayer):
		return http.StatusNotFound
	case errors.As(err, &badRequest),
		errors.Is(err, prayer.ErrMissingAudio),
		errors.Is(err, prayer.ErrMissingUnlockDate),
		errors.Is(err, prayer.ErrNotRecording):
		return http.StatusBadRequest
	case errors.Is(err, prayer.ErrPermissionDenied):
		return http.StatusForbidden
	case storage.IsUnavailable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		slog.Default().Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	var data any
	var precondition *progress.PreconditionNotMetError
	if errors.As(err, &precondition) {
		data = map[string]int{"remaining": precondition.Remaining}
	}
	failure(w, status, err.Error(), data)
}
