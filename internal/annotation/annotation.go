// Package annotation stores per-verse highlights and notes.
package annotation

import (
	"context"
	"fmt"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/storage"
)

// Highlight is the stored form of a verse highlight. A cleared highlight
// is stored as JSON null.
type Highlight struct {
	Color string `json:"color"`
}

type Store struct {
	store storage.Store
	user  string
}

// NewStore returns a Store. When user is not empty, keys carry a
// "_<user>" suffix so several readers can share one storage namespace.
// Writes the storage cannot take are kept for the rest of the session.
func NewStore(store storage.Store, user string) *Store {
	return &Store{store: storage.NewUnsavedOverlay(store), user: user}
}

func (s *Store) key(kind string, ref bible.VerseRef) string {
	key := fmt.Sprintf("%s_%s_%d_%d", kind, ref.Book, ref.Chapter, ref.Verse)
	if s.user != "" {
		key += "_" + s.user
	}
	return key
}

// Keys returns the highlight and note keys of ref.
func (s *Store) Keys(ref bible.VerseRef) []string {
	return []string{s.key("highlight", ref), s.key("note", ref)}
}

// Highlight returns the verse's color, or "" when the verse is not highlighted.
func (s *Store) Highlight(ctx context.Context, ref bible.VerseRef) (string, error) {
	var highlight *Highlight
	if _, err := storage.GetJSON(ctx, s.store, s.key("highlight", ref), &highlight); err != nil {
		return "", fmt.Errorf("storage.GetJSON() > %w", err)
	}
	if highlight == nil {
		return "", nil
	}
	return highlight.Color, nil
}

// SetHighlight toggles the verse's highlight: selecting the color it
// already has clears it, any other color replaces it, and "" clears it.
// It returns the color now in effect.
func (s *Store) SetHighlight(ctx context.Context, ref bible.VerseRef, color string) (string, error) {
	current, err := s.Highlight(ctx, ref)
	if err != nil {
		return "", err
	}

	var next *Highlight
	if color != "" && color != current {
		next = &Highlight{Color: color}
	}
	if err := storage.SetJSON(ctx, s.store, s.key("highlight", ref), next); err != nil {
		return "", fmt.Errorf("storage.SetJSON() > %w", err)
	}
	if next == nil {
		return "", nil
	}
	return next.Color, nil
}

// Note returns the verse's note text. An unset note is "".
func (s *Store) Note(ctx context.Context, ref bible.VerseRef) (string, error) {
	text, _, err := s.store.Get(ctx, s.key("note", ref))
	if err != nil {
		return "", fmt.Errorf("store.Get() > %w", err)
	}
	return text, nil
}

// SetNote overwrites the verse's note. The empty string is stored as is.
func (s *Store) SetNote(ctx context.Context, ref bible.VerseRef, text string) error {
	if err := s.store.Set(ctx, s.key("note", ref), text); err != nil {
		return fmt.Errorf("store.Set() > %w", err)
	}
	return nil
}
