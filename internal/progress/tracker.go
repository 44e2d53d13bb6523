// Package progress tracks verse reading in the open chapter and the
// completion of chapters and books.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/storage"
)

const (
	booksKey    = "completedBooks"
	chaptersKey = "completedChapters"

	// DateLayout is DD/MM/YYYY.
	DateLayout = "02/01/2006"

	DefaultMinDwell = 3 * time.Second
)

// StorageKeys lists the keys holding book and chapter completion records.
func StorageKeys() []string {
	return []string{booksKey, chaptersKey}
}

type ChapterState int

const (
	NotStarted ChapterState = iota
	InProgress
	Eligible
	Completed
)

func (s ChapterState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Eligible:
		return "eligible"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("ChapterState(%d)", int(s))
}

func (s ChapterState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ReadingProgress is the persisted completion record of a book or chapter.
// Date is kept when Completed goes back to false.
type ReadingProgress struct {
	Completed bool    `json:"completed"`
	Date      *string `json:"date"`
}

// PreconditionNotMetError rejects completing a chapter whose verses have
// not all been read.
type PreconditionNotMetError struct {
	Chapter   bible.ChapterRef
	Remaining int
}

func (e *PreconditionNotMetError) Error() string {
	return fmt.Sprintf("%s cannot be completed yet: %d verses remain unread", e.Chapter, e.Remaining)
}

// Unlocker is called after a chapter becomes completed.
type Unlocker interface {
	OnChapterCompleted(ctx context.Context, ref bible.ChapterRef) (*collection.Collectible, error)
}

// ToggleResult is the outcome of a completion toggle. Unlocked is set when
// completing the chapter granted a new collectible.
type ToggleResult struct {
	Progress ReadingProgress
	Unlocked *collection.Collectible
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func WithMinDwell(d time.Duration) Option {
	return func(t *Tracker) {
		t.minDwell = d
	}
}

func WithUnlocker(u Unlocker) Option {
	return func(t *Tracker) {
		t.unlocker = u
	}
}

// Tracker is not safe for concurrent use. Callers serialise access per reader.
type Tracker struct {
	bible    *bible.Bible
	store    storage.Store
	unlocker Unlocker
	minDwell time.Duration
	now      func() time.Time

	open *bible.ChapterRef
	read map[int]struct{}

	loaded   bool
	books    map[string]ReadingProgress
	chapters map[string]ReadingProgress
}

func NewTracker(b *bible.Bible, store storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		bible:    b,
		store:    store,
		minDwell: DefaultMinDwell,
		now:      time.Now,
		read:     make(map[int]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OpenChapter makes ref the open chapter and restarts its read tracking,
// also when ref is already open.
func (t *Tracker) OpenChapter(ref bible.ChapterRef) error {
	if _, err := t.bible.Chapter(ref); err != nil {
		return fmt.Errorf("bible.Chapter() > %w", err)
	}
	t.open = &ref
	t.read = make(map[int]struct{})
	return nil
}

func (t *Tracker) CloseChapter() {
	t.open = nil
	t.read = make(map[int]struct{})
}

// OpenedChapter returns the open chapter, if any.
func (t *Tracker) OpenedChapter() (bible.ChapterRef, bool) {
	if t.open == nil {
		return bible.ChapterRef{}, false
	}
	return *t.open, true
}

func (t *Tracker) isOpen(ref bible.ChapterRef) bool {
	return t.open != nil && *t.open == ref
}

// MarkVerseRead adds the verse to the read set of its chapter, opening the
// chapter first when another one is open.
func (t *Tracker) MarkVerseRead(ref bible.VerseRef) error {
	if _, err := t.bible.Verse(ref); err != nil {
		return fmt.Errorf("bible.Verse() > %w", err)
	}
	if !t.isOpen(ref.ChapterRef()) {
		if err := t.OpenChapter(ref.ChapterRef()); err != nil {
			return err
		}
	}
	t.read[ref.Verse] = struct{}{}
	return nil
}

// ObserveDwell marks the verse as read when it stayed on screen for at
// least the minimum dwell time. It reports whether the verse was marked.
func (t *Tracker) ObserveDwell(ref bible.VerseRef, dwell time.Duration) (bool, error) {
	if dwell < t.minDwell {
		return false, nil
	}
	if err := t.MarkVerseRead(ref); err != nil {
		return false, err
	}
	return true, nil
}

// ReadVerses returns how many verses of ref are marked read.
func (t *Tracker) ReadVerses(ref bible.ChapterRef) int {
	if !t.isOpen(ref) {
		return 0
	}
	return len(t.read)
}

// Remaining returns how many verses of ref are still unread.
func (t *Tracker) Remaining(ref bible.ChapterRef) int {
	remaining := t.bible.VerseCount(ref) - t.ReadVerses(ref)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (t *Tracker) ChapterState(ctx context.Context, ref bible.ChapterRef) (ChapterState, error) {
	if err := t.load(ctx); err != nil {
		return NotStarted, err
	}
	if t.chapters[ref.Key()].Completed {
		return Completed, nil
	}
	return t.readingState(ref), nil
}

func (t *Tracker) readingState(ref bible.ChapterRef) ChapterState {
	read := t.ReadVerses(ref)
	count := t.bible.VerseCount(ref)
	switch {
	case read >= count:
		// A chapter without verses has nothing left to read.
		return Eligible
	case read == 0:
		return NotStarted
	}
	return InProgress
}

// ToggleChapterCompletion completes an Eligible chapter or un-completes a
// Completed one. Any other state is rejected with PreconditionNotMetError
// and nothing changes.
func (t *Tracker) ToggleChapterCompletion(ctx context.Context, ref bible.ChapterRef) (ToggleResult, error) {
	if _, err := t.bible.Chapter(ref); err != nil {
		return ToggleResult{}, fmt.Errorf("bible.Chapter() > %w", err)
	}
	state, err := t.ChapterState(ctx, ref)
	if err != nil {
		return ToggleResult{}, err
	}

	switch state {
	case Completed:
		updated, err := t.toggle(ctx, chaptersKey, t.chapters, ref.Key())
		if err != nil {
			return ToggleResult{}, err
		}
		t.chapters = updated
		return ToggleResult{Progress: updated[ref.Key()]}, nil
	case Eligible:
	default:
		return ToggleResult{}, &PreconditionNotMetError{Chapter: ref, Remaining: t.Remaining(ref)}
	}

	updated, err := t.toggle(ctx, chaptersKey, t.chapters, ref.Key())
	if err != nil {
		return ToggleResult{}, err
	}
	t.chapters = updated
	t.read = make(map[int]struct{})

	result := ToggleResult{Progress: updated[ref.Key()]}
	if t.unlocker != nil {
		unlocked, err := t.unlocker.OnChapterCompleted(ctx, ref)
		if err != nil {
			slog.Default().Warn("unlock failed, it will be retried on next start",
				slog.String("chapter", ref.String()),
				slog.Any("error", err),
			)
		}
		result.Unlocked = unlocked
	}
	return result, nil
}

// ToggleBookCompletion flips a book's completion. Unlike chapters it has no
// reading precondition.
func (t *Tracker) ToggleBookCompletion(ctx context.Context, book string) (ToggleResult, error) {
	if _, err := t.bible.Book(book); err != nil {
		return ToggleResult{}, fmt.Errorf("bible.Book() > %w", err)
	}
	if err := t.load(ctx); err != nil {
		return ToggleResult{}, err
	}
	updated, err := t.toggle(ctx, booksKey, t.books, book)
	if err != nil {
		return ToggleResult{}, err
	}
	t.books = updated
	return ToggleResult{Progress: updated[book]}, nil
}

// toggle returns a copy of records with name flipped, after persisting it.
// Becoming completed stamps today's date; becoming not completed keeps the date.
func (t *Tracker) toggle(ctx context.Context, key string, records map[string]ReadingProgress, name string) (map[string]ReadingProgress, error) {
	updated := maps.Clone(records)
	if updated == nil {
		updated = make(map[string]ReadingProgress)
	}
	record := updated[name]
	record.Completed = !record.Completed
	if record.Completed {
		today := t.now().Format(DateLayout)
		record.Date = &today
	}
	updated[name] = record

	if err := storage.SetJSON(ctx, t.store, key, updated); err != nil {
		if !storage.IsUnavailable(err) {
			return nil, fmt.Errorf("storage.SetJSON() > %w", err)
		}
		slog.Default().Warn("progress kept in memory only",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	return updated, nil
}

func (t *Tracker) load(ctx context.Context) error {
	if t.loaded {
		return nil
	}
	books, err := t.loadRecords(ctx, booksKey)
	if err != nil {
		return err
	}
	chapters, err := t.loadRecords(ctx, chaptersKey)
	if err != nil {
		return err
	}
	t.books = books
	t.chapters = chapters
	t.loaded = true
	return nil
}

func (t *Tracker) loadRecords(ctx context.Context, key string) (map[string]ReadingProgress, error) {
	records := make(map[string]ReadingProgress)
	if _, err := storage.GetJSON(ctx, t.store, key, &records); err != nil {
		if !storage.IsUnavailable(err) {
			return nil, fmt.Errorf("storage.GetJSON() > %w", err)
		}
		slog.Default().Warn("progress could not be loaded, starting empty for this session",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
	return records, nil
}

// Books returns the completion records by book name.
func (t *Tracker) Books(ctx context.Context) (map[string]ReadingProgress, error) {
	if err := t.load(ctx); err != nil {
		return nil, err
	}
	return maps.Clone(t.books), nil
}

// Chapters returns the completion records keyed by "<book>_<chapter>".
func (t *Tracker) Chapters(ctx context.Context) (map[string]ReadingProgress, error) {
	if err := t.load(ctx); err != nil {
		return nil, err
	}
	return maps.Clone(t.chapters), nil
}

// CompletedChapters returns the completed chapters in dataset order.
func (t *Tracker) CompletedChapters(ctx context.Context) ([]bible.ChapterRef, error) {
	if err := t.load(ctx); err != nil {
		return nil, err
	}
	var refs []bible.ChapterRef
	for _, ref := range t.bible.Chapters() {
		if t.chapters[ref.Key()].Completed {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}
