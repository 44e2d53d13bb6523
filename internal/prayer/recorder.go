// Package prayer records audio prayers per verse and locks their playback
// until an unlock date.
package prayer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/storage"
)

var (
	ErrPermissionDenied  = errors.New("audio capture permission denied")
	ErrMissingUnlockDate = errors.New("unlock date is required")
	ErrMissingAudio      = errors.New("no recorded audio to save")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrAlreadyRecording  = errors.New("a recording is already in progress")
	ErrNoPrayer          = errors.New("no prayer recorded for this verse")
)

// DefaultBitrate is the encoder bitrate assumed when estimating durations.
const DefaultBitrate = 128000

type State int

const (
	Idle State = iota
	Recording
	Stopped
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Stopped:
		return "stopped"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Prayer is the persisted clip of a verse. Saving again replaces it whole.
type Prayer struct {
	Audio      []byte `json:"audio"`
	UnlockDate Date   `json:"unlockDate"`
	RecordDate Date   `json:"recordDate"`
	Duration   int    `json:"duration"`
}

// Metadata is what may be disclosed about a prayer while it is locked.
type Metadata struct {
	UnlockDate Date `json:"unlockDate"`
	RecordDate Date `json:"recordDate"`
	Duration   int  `json:"duration"`
	Locked     bool `json:"locked"`
}

// Playback carries the audio only when the prayer is unlocked.
type Playback struct {
	Metadata
	Audio []byte `json:"-"`
}

// Session identifies a recording.
type Session struct {
	ID        string         `json:"id"`
	Ref       bible.VerseRef `json:"ref"`
	StartedAt time.Time      `json:"startedAt"`
}

// Clip is a stopped recording waiting to be saved.
type Clip struct {
	Session
	Bytes    int `json:"bytes"`
	Duration int `json:"duration"`
}

// EstimateDuration converts an encoded size to seconds at the given bitrate.
// The result is approximate: encoders vary their real bitrate.
func EstimateDuration(size int, bitrate int) int {
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}
	return int(math.Round(float64(size) * 8 / float64(bitrate)))
}

type activeRecording struct {
	Session
	capture Capture
	cancel  context.CancelFunc
	done    chan struct{}

	mu     sync.Mutex
	chunks [][]byte
	err    error
}

func (a *activeRecording) pump(ctx context.Context) {
	defer close(a.done)
	for {
		chunk, err := a.capture.ReadChunk(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				a.mu.Lock()
				a.err = err
				a.mu.Unlock()
			}
			return
		}
		a.mu.Lock()
		a.chunks = append(a.chunks, append([]byte(nil), chunk...))
		a.mu.Unlock()
	}
}

type pendingClip struct {
	Clip
	audio []byte
}

type Option func(*Recorder)

func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

func WithBitrate(bitrate int) Option {
	return func(r *Recorder) {
		r.bitrate = bitrate
	}
}

// Recorder holds at most one recording at a time, plus the last stopped
// clip until it is saved or replaced by a new recording.
type Recorder struct {
	store   storage.Store
	bitrate int
	now     func() time.Time

	mu      sync.Mutex
	active  *activeRecording
	pending *pendingClip
}

// NewRecorder returns a Recorder saving prayers into store. A prayer the
// storage cannot take stays playable until the process exits.
func NewRecorder(store storage.Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:   storage.NewUnsavedOverlay(store),
		bitrate: DefaultBitrate,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StorageKey is the key holding the prayer of ref.
func StorageKey(ref bible.VerseRef) string {
	return fmt.Sprintf("prayer_%s_%d_%d", ref.Book, ref.Chapter, ref.Verse)
}

// StartRecording starts capturing audio for ref. A stopped clip that was
// never saved is discarded. On ErrPermissionDenied the recorder stays idle.
func (r *Recorder) StartRecording(ctx context.Context, ref bible.VerseRef, capturer Capturer) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return Session{}, fmt.Errorf("%w: %s", ErrAlreadyRecording, r.active.Ref)
	}

	capture, err := capturer.Start(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("capturer.Start() > %w", err)
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	active := &activeRecording{
		Session: Session{
			ID:        uuid.NewString(),
			Ref:       ref,
			StartedAt: r.now(),
		},
		capture: capture,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	r.active = active
	r.pending = nil
	go active.pump(pumpCtx)

	slog.Default().Debug("recording started",
		slog.String("id", active.ID),
		slog.String("verse", ref.String()),
	)
	return active.Session, nil
}

// Drained is closed once the active recording's source has no more audio.
// With no active recording it returns a closed channel.
func (r *Recorder) Drained() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return r.active.done
}

// StopRecording ends the active recording and keeps its audio as a clip
// pending save.
func (r *Recorder) StopRecording() (Clip, error) {
	r.mu.Lock()
	active := r.active
	if active == nil {
		r.mu.Unlock()
		return Clip{}, ErrNotRecording
	}
	r.active = nil
	r.mu.Unlock()

	// The pump is awaited without r.mu so that State and Drained stay
	// responsive while the capture shuts down.
	active.cancel()
	if err := active.capture.Close(); err != nil {
		slog.Default().Warn("failed to close audio capture",
			slog.String("id", active.ID),
			slog.Any("error", err),
		)
	}
	<-active.done

	active.mu.Lock()
	audio := bytes.Join(active.chunks, nil)
	captureErr := active.err
	active.mu.Unlock()
	if captureErr != nil {
		slog.Default().Warn("audio capture ended with an error, keeping what was captured",
			slog.String("id", active.ID),
			slog.Any("error", captureErr),
		)
	}

	clip := Clip{
		Session:  active.Session,
		Bytes:    len(audio),
		Duration: EstimateDuration(len(audio), r.bitrate),
	}
	r.mu.Lock()
	if r.active == nil {
		r.pending = &pendingClip{Clip: clip, audio: audio}
	}
	r.mu.Unlock()
	slog.Default().Debug("recording stopped",
		slog.String("id", clip.ID),
		slog.Int("bytes", clip.Bytes),
		slog.Int("duration", clip.Duration),
	)
	return clip, nil
}

// SavePrayer stores the stopped clip of ref, replacing any earlier prayer.
func (r *Recorder) SavePrayer(ctx context.Context, ref bible.VerseRef, unlockDate Date) (Prayer, error) {
	if unlockDate.IsZero() {
		return Prayer{}, ErrMissingUnlockDate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	pending := r.pending
	if pending == nil || pending.Ref != ref || len(pending.audio) == 0 {
		return Prayer{}, fmt.Errorf("%w for %s", ErrMissingAudio, ref)
	}

	prayer := Prayer{
		Audio:      pending.audio,
		UnlockDate: unlockDate,
		RecordDate: NewDate(r.now()),
		Duration:   pending.Duration,
	}
	if err := storage.SetJSON(ctx, r.store, StorageKey(ref), prayer); err != nil {
		return Prayer{}, fmt.Errorf("storage.SetJSON() > %w", err)
	}
	r.pending = nil
	return prayer, nil
}

func (r *Recorder) load(ctx context.Context, ref bible.VerseRef) (*Prayer, error) {
	var prayer Prayer
	ok, err := storage.GetJSON(ctx, r.store, StorageKey(ref), &prayer)
	if err != nil {
		return nil, fmt.Errorf("storage.GetJSON() > %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &prayer, nil
}

func (r *Recorder) locked(prayer *Prayer) bool {
	return NewDate(r.now()).Before(prayer.UnlockDate.Time)
}

// IsLocked reports whether ref has a prayer whose unlock day has not come.
func (r *Recorder) IsLocked(ctx context.Context, ref bible.VerseRef) (bool, error) {
	prayer, err := r.load(ctx, ref)
	if err != nil {
		return false, err
	}
	if prayer == nil {
		return false, nil
	}
	return r.locked(prayer), nil
}

// Play returns the prayer of ref. While it is locked only the metadata is
// returned.
func (r *Recorder) Play(ctx context.Context, ref bible.VerseRef) (Playback, error) {
	prayer, err := r.load(ctx, ref)
	if err != nil {
		return Playback{}, err
	}
	if prayer == nil {
		return Playback{}, fmt.Errorf("%w: %s", ErrNoPrayer, ref)
	}

	playback := Playback{
		Metadata: Metadata{
			UnlockDate: prayer.UnlockDate,
			RecordDate: prayer.RecordDate,
			Duration:   prayer.Duration,
			Locked:     r.locked(prayer),
		},
	}
	if !playback.Locked {
		playback.Audio = prayer.Audio
	}
	return playback, nil
}

func (r *Recorder) State(ctx context.Context, ref bible.VerseRef) (State, error) {
	r.mu.Lock()
	switch {
	case r.active != nil && r.active.Ref == ref:
		r.mu.Unlock()
		return Recording, nil
	case r.pending != nil && r.pending.Ref == ref:
		r.mu.Unlock()
		return Stopped, nil
	}
	r.mu.Unlock()

	prayer, err := r.load(ctx, ref)
	if err != nil {
		return Idle, err
	}
	switch {
	case prayer == nil:
		return Idle, nil
	case r.locked(prayer):
		return Locked, nil
	}
	return Unlocked, nil
}
