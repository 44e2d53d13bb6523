// Package server exposes the reading engines and the key/value store over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/config"
	"github.com/at-ishikawa/biblia/internal/session"
	"github.com/at-ishikawa/biblia/internal/storage"
)

// userSession serialises every request of one reader.
type userSession struct {
	mu      sync.Mutex
	session *session.Session
}

// Key namespaces of the shared store. Remote clients only reach kvPrefix,
// so reader data is changed only through the reading endpoints.
const (
	usersPrefix = "users"
	kvPrefix    = "kv"
)

type Server struct {
	bible   *bible.Bible
	catalog *collection.Catalog
	users   storage.Store
	kv      storage.Store
	cfg     config.ServerConfig
	options session.Options

	mu       sync.Mutex
	sessions map[string]*userSession
}

func NewServer(b *bible.Bible, catalog *collection.Catalog, store storage.Store, cfg config.ServerConfig, options session.Options) *Server {
	return &Server{
		bible:    b,
		catalog:  catalog,
		users:    storage.Namespace(store, usersPrefix),
		kv:       storage.Namespace(store, kvPrefix),
		cfg:      cfg,
		options:  options,
		sessions: make(map[string]*userSession),
	}
}

// HTTPServer returns the http.Server for handler, which may wrap Handler.
func (s *Server) HTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// withSession runs fn while holding the reader's lock. The session is
// created on first use, over the reader's own key namespace.
func (s *Server) withSession(ctx context.Context, user string, fn func(*session.Session) error) error {
	s.mu.Lock()
	us, ok := s.sessions[user]
	if !ok {
		us = &userSession{}
		s.sessions[user] = us
	}
	s.mu.Unlock()

	us.mu.Lock()
	defer us.mu.Unlock()
	if us.session == nil {
		sess, err := session.New(ctx, s.bible, s.catalog, storage.Namespace(s.users, user), s.options)
		if err != nil {
			return fmt.Errorf("session.New() > %w", err)
		}
		us.session = sess
	}
	return fn(us.session)
}
