package collection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/storage"
)

// StorageKey holds the granted collectibles.
const StorageKey = "collection"

// Listener is notified after a collectible has been added to the collection.
type Listener interface {
	CollectibleUnlocked(ctx context.Context, collectible Collectible)
}

type ListenerFunc func(ctx context.Context, collectible Collectible)

func (f ListenerFunc) CollectibleUnlocked(ctx context.Context, collectible Collectible) {
	f(ctx, collectible)
}

// Card is a catalog entry as shown in the collection grid.
type Card struct {
	Collectible
	Unlocked bool `json:"unlocked"`
}

// Engine grants collectibles. The collection only grows: an entry is
// appended when its name is absent and is never removed.
type Engine struct {
	catalog   *Catalog
	store     storage.Store
	listeners []Listener

	mu         sync.Mutex
	loaded     bool
	collection []Collectible
}

func NewEngine(catalog *Catalog, store storage.Store, listeners ...Listener) *Engine {
	return &Engine{
		catalog:   catalog,
		store:     store,
		listeners: listeners,
	}
}

func (e *Engine) load(ctx context.Context) error {
	if e.loaded {
		return nil
	}
	var collection []Collectible
	if _, err := storage.GetJSON(ctx, e.store, StorageKey, &collection); err != nil {
		if !storage.IsUnavailable(err) {
			return fmt.Errorf("storage.GetJSON() > %w", err)
		}
		slog.Default().Warn("collection could not be loaded, starting empty for this session",
			slog.Any("error", err),
		)
	}
	e.collection = collection
	e.loaded = true
	return nil
}

func (e *Engine) has(name string) bool {
	for _, c := range e.collection {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (e *Engine) persist(ctx context.Context) error {
	collection := e.collection
	if collection == nil {
		collection = []Collectible{}
	}
	if err := storage.SetJSON(ctx, e.store, StorageKey, collection); err != nil {
		if !storage.IsUnavailable(err) {
			return fmt.Errorf("storage.SetJSON() > %w", err)
		}
		slog.Default().Warn("collection kept in memory only",
			slog.Any("error", err),
		)
	}
	return nil
}

// OnChapterCompleted grants the collectible unlocked by ref, if any. It
// returns nil when the chapter has no collectible or it was already granted.
func (e *Engine) OnChapterCompleted(ctx context.Context, ref bible.ChapterRef) (*Collectible, error) {
	e.mu.Lock()
	granted, err := e.grant(ctx, []bible.ChapterRef{ref})
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	e.notify(ctx, granted)
	if len(granted) == 0 {
		return nil, nil
	}
	return &granted[0], nil
}

// Reconcile grants every collectible whose chapter is in completed but is
// missing from the collection. It closes the gap left when a chapter was
// persisted as completed but the unlock write never happened.
func (e *Engine) Reconcile(ctx context.Context, completed []bible.ChapterRef) ([]Collectible, error) {
	e.mu.Lock()
	granted, err := e.grant(ctx, completed)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(granted) > 0 {
		slog.Default().Info("reconciled collection",
			slog.Int("granted", len(granted)),
		)
	}
	e.notify(ctx, granted)
	return granted, nil
}

func (e *Engine) grant(ctx context.Context, refs []bible.ChapterRef) ([]Collectible, error) {
	if err := e.load(ctx); err != nil {
		return nil, err
	}

	var granted []Collectible
	for _, ref := range refs {
		collectible, ok := e.catalog.Lookup(ref)
		if !ok || e.has(collectible.Name) {
			continue
		}
		e.collection = append(e.collection, collectible)
		granted = append(granted, collectible)
	}
	if len(granted) == 0 {
		return nil, nil
	}
	if err := e.persist(ctx); err != nil {
		e.collection = e.collection[:len(e.collection)-len(granted)]
		return nil, err
	}
	return granted, nil
}

func (e *Engine) notify(ctx context.Context, granted []Collectible) {
	for _, collectible := range granted {
		slog.Default().Debug("collectible unlocked",
			slog.String("name", collectible.Name),
			slog.String("chapter", collectible.Chapter),
		)
		for _, listener := range e.listeners {
			listener.CollectibleUnlocked(ctx, collectible)
		}
	}
}

// Collection returns the granted collectibles in unlock order.
func (e *Engine) Collection(ctx context.Context) ([]Collectible, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return nil, err
	}
	return append([]Collectible(nil), e.collection...), nil
}

// Cards lists the whole catalog in order, marking which entries are unlocked.
func (e *Engine) Cards(ctx context.Context) ([]Card, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.load(ctx); err != nil {
		return nil, err
	}
	entries := e.catalog.Entries()
	cards := make([]Card, 0, len(entries))
	for _, entry := range entries {
		cards = append(cards, Card{Collectible: entry, Unlocked: e.has(entry.Name)})
	}
	return cards, nil
}
