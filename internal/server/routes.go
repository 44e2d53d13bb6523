package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         3600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		success(w, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		s.loadKVRoutes(r)
		r.Route("/users/{user}", s.loadReadingRoutes)
	})
	return r
}

func (s *Server) loadKVRoutes(router chi.Router) {
	router.Get("/kv/*", s.getValue)
	router.Put("/kv/*", s.putValue)
	router.Delete("/kv/*", s.deleteValue)
}

func (s *Server) loadReadingRoutes(router chi.Router) {
	router.Get("/progress", s.getProgress)
	router.Get("/collection", s.getCollection)

	router.Route("/chapters/{book}/{chapter}", func(r chi.Router) {
		r.Get("/", s.getChapter)
		r.Post("/open", s.openChapter)
		r.Post("/toggle", s.toggleChapter)
		r.Post("/verses/{verse}/read", s.readVerse)
	})
	router.Post("/books/{book}/toggle", s.toggleBook)

	router.Route("/verses/{book}/{chapter}/{verse}", func(r chi.Router) {
		r.Get("/", s.getVerse)
		r.Put("/highlight", s.putHighlight)
		r.Put("/note", s.putNote)
	})

	router.Get("/prayers/{book}/{chapter}/{verse}", s.getPrayer)
	router.Post("/prayers/{book}/{chapter}/{verse}", s.postPrayer)
}
