// Package session wires the reading engines for one reader.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/at-ishikawa/biblia/internal/annotation"
	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/progress"
	"github.com/at-ishikawa/biblia/internal/prayer"
	"github.com/at-ishikawa/biblia/internal/storage"
)

type Options struct {
	// User is appended to highlight and note keys when set.
	User      string
	MinDwell  time.Duration
	Bitrate   int
	Now       func() time.Time
	Listeners []collection.Listener
}

type Session struct {
	Bible       *bible.Bible
	Tracker     *progress.Tracker
	Annotations *annotation.Store
	Collection  *collection.Engine
	Prayers     *prayer.Recorder
}

// New builds a session over store and grants any collectible whose chapter
// is already completed but missing from the collection.
func New(ctx context.Context, b *bible.Bible, catalog *collection.Catalog, store storage.Store, opts Options) (*Session, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	minDwell := opts.MinDwell
	if minDwell == 0 {
		minDwell = progress.DefaultMinDwell
	}

	engine := collection.NewEngine(catalog, store, opts.Listeners...)
	s := &Session{
		Bible:       b,
		Collection:  engine,
		Annotations: annotation.NewStore(store, opts.User),
		Tracker: progress.NewTracker(b, store,
			progress.WithUnlocker(engine),
			progress.WithMinDwell(minDwell),
			progress.WithClock(now),
		),
		Prayers: prayer.NewRecorder(store,
			prayer.WithBitrate(opts.Bitrate),
			prayer.WithClock(now),
		),
	}

	completed, err := s.Tracker.CompletedChapters(ctx)
	if err != nil {
		return nil, fmt.Errorf("tracker.CompletedChapters() > %w", err)
	}
	if _, err := engine.Reconcile(ctx, completed); err != nil {
		return nil, fmt.Errorf("engine.Reconcile() > %w", err)
	}
	return s, nil
}

type VerseView struct {
	Ref       bible.VerseRef `json:"ref"`
	Text      string         `json:"text"`
	Highlight string         `json:"highlight,omitempty"`
	Note      string         `json:"note,omitempty"`
	Prayer    prayer.State   `json:"prayer"`
	Share     string         `json:"share"`
}

// Verse collects the text and the annotations of a verse.
func (s *Session) Verse(ctx context.Context, ref bible.VerseRef) (VerseView, error) {
	verse, err := s.Bible.Verse(ref)
	if err != nil {
		return VerseView{}, fmt.Errorf("bible.Verse() > %w", err)
	}
	highlight, err := s.Annotations.Highlight(ctx, ref)
	if err != nil {
		return VerseView{}, fmt.Errorf("annotations.Highlight() > %w", err)
	}
	note, err := s.Annotations.Note(ctx, ref)
	if err != nil {
		return VerseView{}, fmt.Errorf("annotations.Note() > %w", err)
	}
	state, err := s.Prayers.State(ctx, ref)
	if err != nil {
		return VerseView{}, fmt.Errorf("prayers.State() > %w", err)
	}
	return VerseView{
		Ref:       ref,
		Text:      verse.Text,
		Highlight: highlight,
		Note:      note,
		Prayer:    state,
		Share:     fmt.Sprintf("%s - %s", ref, verse.Text),
	}, nil
}

type ChapterView struct {
	Ref       bible.ChapterRef         `json:"ref"`
	State     progress.ChapterState    `json:"state"`
	Read      int                      `json:"read"`
	Total     int                      `json:"total"`
	Remaining int                      `json:"remaining"`
	Progress  progress.ReadingProgress `json:"progress"`
}

func (s *Session) Chapter(ctx context.Context, ref bible.ChapterRef) (ChapterView, error) {
	if _, err := s.Bible.Chapter(ref); err != nil {
		return ChapterView{}, fmt.Errorf("bible.Chapter() > %w", err)
	}
	state, err := s.Tracker.ChapterState(ctx, ref)
	if err != nil {
		return ChapterView{}, fmt.Errorf("tracker.ChapterState() > %w", err)
	}
	chapters, err := s.Tracker.Chapters(ctx)
	if err != nil {
		return ChapterView{}, fmt.Errorf("tracker.Chapters() > %w", err)
	}
	return ChapterView{
		Ref:       ref,
		State:     state,
		Read:      s.Tracker.ReadVerses(ref),
		Total:     s.Bible.VerseCount(ref),
		Remaining: s.Tracker.Remaining(ref),
		Progress:  chapters[ref.Key()],
	}, nil
}
