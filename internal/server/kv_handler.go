package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/at-ishikawa/biblia/internal/storage"
)

// kvKey reads the key from the escaped path so that keys containing "/" or
// "%" survive routing.
func kvKey(r *http.Request) (string, error) {
	escaped := r.URL.EscapedPath()
	i := strings.Index(escaped, "/kv/")
	if i < 0 {
		return "", &badRequestError{err: fmt.Errorf("missing key")}
	}
	key, err := url.PathUnescape(escaped[i+len("/kv/"):])
	if err != nil || key == "" {
		return "", &badRequestError{err: fmt.Errorf("invalid key %q", escaped[i+len("/kv/"):])}
	}
	return key, nil
}

func (s *Server) getValue(w http.ResponseWriter, r *http.Request) {
	key, err := kvKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	value, ok, err := s.kv.Get(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		failure(w, http.StatusNotFound, "key not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, storage.KVValue{Value: value})
}

func (s *Server) putValue(w http.ResponseWriter, r *http.Request) {
	key, err := kvKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body storage.KVValue
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, &badRequestError{err: fmt.Errorf("json.Decode() > %w", err)})
		return
	}
	if err := s.kv.Set(r.Context(), key, body.Value); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteValue(w http.ResponseWriter, r *http.Request) {
	key, err := kvKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.kv.Remove(r.Context(), key); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
