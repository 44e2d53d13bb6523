package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/progress"
	"github.com/at-ishikawa/biblia/internal/session"
)

func intParam(r *http.Request, name string) (int, error) {
	value := chi.URLParam(r, name)
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &badRequestError{err: fmt.Errorf("invalid %s %q", name, value)}
	}
	return n, nil
}

func (s *Server) chapterRef(r *http.Request) (bible.ChapterRef, error) {
	chapter, err := intParam(r, "chapter")
	if err != nil {
		return bible.ChapterRef{}, err
	}
	return s.bible.ResolveChapter(chi.URLParam(r, "book"), chapter)
}

func (s *Server) verseRef(r *http.Request) (bible.VerseRef, error) {
	chapter, err := intParam(r, "chapter")
	if err != nil {
		return bible.VerseRef{}, err
	}
	verse, err := intParam(r, "verse")
	if err != nil {
		return bible.VerseRef{}, err
	}
	return s.bible.ResolveVerse(chi.URLParam(r, "book"), chapter, verse)
}

// handle resolves the reader's session and writes fn's result as JSON.
func (s *Server) handle(w http.ResponseWriter, r *http.Request, fn func(sess *session.Session) (any, error)) {
	var data any
	err := s.withSession(r.Context(), chi.URLParam(r, "user"), func(sess *session.Session) error {
		var err error
		data, err = fn(sess)
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	success(w, data)
}

func (s *Server) getChapter(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.chapterRef(r)
		if err != nil {
			return nil, err
		}
		return sess.Chapter(r.Context(), ref)
	})
}

func (s *Server) openChapter(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.chapterRef(r)
		if err != nil {
			return nil, err
		}
		if err := sess.Tracker.OpenChapter(ref); err != nil {
			return nil, err
		}
		return sess.Chapter(r.Context(), ref)
	})
}

// readVerse marks a verse read. With a dwell query parameter ("4s") the
// dwell heuristic decides instead.
func (s *Server) readVerse(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.verseRef(r)
		if err != nil {
			return nil, err
		}
		if value := r.URL.Query().Get("dwell"); value != "" {
			dwell, err := time.ParseDuration(value)
			if err != nil {
				return nil, &badRequestError{err: fmt.Errorf("invalid dwell %q", value)}
			}
			if _, err := sess.Tracker.ObserveDwell(ref, dwell); err != nil {
				return nil, err
			}
		} else if err := sess.Tracker.MarkVerseRead(ref); err != nil {
			return nil, err
		}
		return sess.Chapter(r.Context(), ref.ChapterRef())
	})
}

type toggleResponse struct {
	Progress progress.ReadingProgress `json:"progress"`
	Unlocked *collection.Collectible  `json:"unlocked,omitempty"`
}

func (s *Server) toggleChapter(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.chapterRef(r)
		if err != nil {
			return nil, err
		}
		result, err := sess.Tracker.ToggleChapterCompletion(r.Context(), ref)
		if err != nil {
			return nil, err
		}
		return toggleResponse{Progress: result.Progress, Unlocked: result.Unlocked}, nil
	})
}

func (s *Server) toggleBook(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		book, err := s.bible.ResolveBook(chi.URLParam(r, "book"))
		if err != nil {
			return nil, err
		}
		result, err := sess.Tracker.ToggleBookCompletion(r.Context(), book)
		if err != nil {
			return nil, err
		}
		return toggleResponse{Progress: result.Progress}, nil
	})
}

type progressResponse struct {
	Books    map[string]progress.ReadingProgress `json:"books"`
	Chapters map[string]progress.ReadingProgress `json:"chapters"`
}

func (s *Server) getProgress(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		books, err := sess.Tracker.Books(r.Context())
		if err != nil {
			return nil, err
		}
		chapters, err := sess.Tracker.Chapters(r.Context())
		if err != nil {
			return nil, err
		}
		return progressResponse{Books: books, Chapters: chapters}, nil
	})
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		return sess.Collection.Cards(r.Context())
	})
}

func (s *Server) getVerse(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.verseRef(r)
		if err != nil {
			return nil, err
		}
		return sess.Verse(r.Context(), ref)
	})
}

type highlightRequest struct {
	Color string `json:"color"`
}

func (s *Server) putHighlight(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.verseRef(r)
		if err != nil {
			return nil, err
		}
		var body highlightRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, &badRequestError{err: fmt.Errorf("json.Decode() > %w", err)}
		}
		color, err := sess.Annotations.SetHighlight(r.Context(), ref, body.Color)
		if err != nil {
			return nil, err
		}
		return highlightRequest{Color: color}, nil
	})
}

type noteRequest struct {
	Text string `json:"text"`
}

func (s *Server) putNote(w http.ResponseWriter, r *http.Request) {
	s.handle(w, r, func(sess *session.Session) (any, error) {
		ref, err := s.verseRef(r)
		if err != nil {
			return nil, err
		}
		var body noteRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, &badRequestError{err: fmt.Errorf("json.Decode() > %w", err)}
		}
		if err := sess.Annotations.SetNote(r.Context(), ref, body.Text); err != nil {
			return nil, err
		}
		return body, nil
	})
}
