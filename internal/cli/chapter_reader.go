package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/progress"
	"github.com/at-ishikawa/biblia/internal/session"
)

const readerHelp = "[enter] next verse, h <color> highlight, n <text> note, s share, q quit"

// ChapterReaderCLI shows a chapter verse by verse. Time spent on a verse
// before moving on counts as dwell, and the chapter can be completed once
// every verse has been read.
type ChapterReaderCLI struct {
	*InteractiveCLI
	session *session.Session
	ref     bible.ChapterRef
	verses  []bible.Verse

	index   int
	shownAt time.Time
	started bool
}

func NewChapterReaderCLI(
	sess *session.Session,
	ref bible.ChapterRef,
	stdin io.Reader,
	stdout io.Writer,
	now func() time.Time,
) (*ChapterReaderCLI, error) {
	chapter, err := sess.Bible.Chapter(ref)
	if err != nil {
		return nil, fmt.Errorf("bible.Chapter() > %w", err)
	}
	return &ChapterReaderCLI{
		InteractiveCLI: newInteractiveCLI(stdin, stdout, now),
		session:        sess,
		ref:            ref,
		verses:         chapter.Verses,
	}, nil
}

func (r *ChapterReaderCLI) verseRef() bible.VerseRef {
	return bible.VerseRef{Book: r.ref.Book, Chapter: r.ref.Chapter, Verse: r.verses[r.index].Verse}
}

func (r *ChapterReaderCLI) Step(ctx context.Context) error {
	if !r.started {
		if err := r.session.Tracker.OpenChapter(r.ref); err != nil {
			return fmt.Errorf("tracker.OpenChapter() > %w", err)
		}
		r.started = true
		_, _ = r.bold.Fprintf(r.stdoutWriter, "%s\n", r.ref)
		_, _ = r.italic.Fprintf(r.stdoutWriter, "%s\n\n", readerHelp)
		r.showVerse(ctx)
	}
	if r.index >= len(r.verses) {
		if err := r.finish(ctx); err != nil {
			return err
		}
		return errEnd
	}

	r.printf("> ")
	line, err := r.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errEnd
		}
		return fmt.Errorf("error reading input: %w", err)
	}
	dwell := r.now().Sub(r.shownAt)

	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	ref := r.verseRef()
	switch command {
	case "":
		read, err := r.session.Tracker.ObserveDwell(ref, dwell)
		if err != nil {
			return fmt.Errorf("tracker.ObserveDwell() > %w", err)
		}
		if !read {
			_, _ = r.warning.Fprintf(r.stdoutWriter, "Read a little longer to count %s as read.\n", ref)
		}
		r.index++
		if r.index < len(r.verses) {
			r.showVerse(ctx)
		}
	case "h":
		color, err := r.session.Annotations.SetHighlight(ctx, ref, strings.TrimSpace(arg))
		if err != nil {
			return fmt.Errorf("annotations.SetHighlight() > %w", err)
		}
		if color == "" {
			r.printf("Highlight removed from %s\n", ref)
		} else {
			r.printf("%s highlighted in %s\n", ref, color)
		}
	case "n":
		if err := r.session.Annotations.SetNote(ctx, ref, strings.TrimSpace(arg)); err != nil {
			return fmt.Errorf("annotations.SetNote() > %w", err)
		}
		r.printf("Note saved for %s\n", ref)
	case "s":
		view, err := r.session.Verse(ctx, ref)
		if err != nil {
			return err
		}
		r.printf("%s\n", view.Share)
	case "q":
		r.session.Tracker.CloseChapter()
		return errEnd
	default:
		_, _ = r.warning.Fprintf(r.stdoutWriter, "Unknown command %q. %s\n", command, readerHelp)
	}
	return nil
}

func (r *ChapterReaderCLI) showVerse(ctx context.Context) {
	verse := r.verses[r.index]
	_, _ = r.bold.Fprintf(r.stdoutWriter, "%d ", verse.Verse)
	r.printf("%s\n", verse.Text)
	if view, err := r.session.Verse(ctx, r.verseRef()); err == nil {
		if view.Highlight != "" {
			_, _ = r.italic.Fprintf(r.stdoutWriter, "  highlighted: %s\n", view.Highlight)
		}
		if view.Note != "" {
			_, _ = r.italic.Fprintf(r.stdoutWriter, "  note: %s\n", view.Note)
		}
	}
	r.shownAt = r.now()
}

// finish offers to complete the chapter once every verse has been read.
func (r *ChapterReaderCLI) finish(ctx context.Context) error {
	view, err := r.session.Chapter(ctx, r.ref)
	if err != nil {
		return err
	}
	switch view.State {
	case progress.Completed:
		r.printf("%s was completed on %s\n", r.ref, dateOf(view.Progress))
		return nil
	case progress.Eligible:
	default:
		_, _ = r.warning.Fprintf(r.stdoutWriter, "%d verses of %s remain unread.\n", view.Remaining, r.ref)
		return nil
	}

	r.printf("Mark %s as completed? [y/N]: ", r.ref)
	answer, err := r.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error reading input: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		return nil
	}

	result, err := r.session.Tracker.ToggleChapterCompletion(ctx, r.ref)
	if err != nil {
		return fmt.Errorf("tracker.ToggleChapterCompletion() > %w", err)
	}
	_, _ = r.success.Fprintf(r.stdoutWriter, "%s completed on %s\n", r.ref, dateOf(result.Progress))
	if result.Unlocked != nil {
		PrintUnlocked(r.stdoutWriter, *result.Unlocked)
	}
	return nil
}

func dateOf(record progress.ReadingProgress) string {
	if record.Date == nil {
		return "-"
	}
	return *record.Date
}
