// Package datasync copies a reader's data from one store to another, for
// example from the file store to SQLite or to a biblia-server.
package datasync

import (
	"context"
	"fmt"
	"io"

	"github.com/at-ishikawa/biblia/internal/annotation"
	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/prayer"
	"github.com/at-ishikawa/biblia/internal/progress"
	"github.com/at-ishikawa/biblia/internal/storage"
)

// ImportResult tracks counts for each import operation.
type ImportResult struct {
	New       int
	Skipped   int
	Updated   int
	Unchanged int
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun         bool
	UpdateExisting bool
}

// KnownKeys lists every key the engines may write for user over b: the
// completion records, the collection, and per verse the highlight, note and
// prayer keys.
func KnownKeys(b *bible.Bible, user string) []string {
	keys := append(progress.StorageKeys(), collection.StorageKey)
	annotations := annotation.NewStore(nil, user)
	for _, book := range b.Books {
		for _, chapter := range book.Chapters {
			for _, verse := range chapter.Verses {
				ref := bible.VerseRef{Book: book.Name, Chapter: chapter.Chapter, Verse: verse.Verse}
				keys = append(keys, annotations.Keys(ref)...)
				keys = append(keys, prayer.StorageKey(ref))
			}
		}
	}
	return keys
}

// Importer copies values from a source store into a destination store.
type Importer struct {
	source      storage.Store
	destination storage.Store
	writer      io.Writer
}

func NewImporter(source, destination storage.Store, writer io.Writer) *Importer {
	return &Importer{
		source:      source,
		destination: destination,
		writer:      writer,
	}
}

// Import copies keys that exist in the source. Keys already present in the
// destination are skipped unless UpdateExisting is set.
func (imp *Importer) Import(ctx context.Context, keys []string, opts ImportOptions) (*ImportResult, error) {
	var result ImportResult
	for _, key := range keys {
		value, ok, err := imp.source.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("source.Get(%s) > %w", key, err)
		}
		if !ok {
			continue
		}

		existing, exists, err := imp.destination.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("destination.Get(%s) > %w", key, err)
		}
		switch {
		case exists && existing == value:
			result.Unchanged++
			continue
		case exists && !opts.UpdateExisting:
			_, _ = fmt.Fprintf(imp.writer, "  [SKIP]  %s\n", key)
			result.Skipped++
			continue
		}

		if !opts.DryRun {
			if err := imp.destination.Set(ctx, key, value); err != nil {
				return nil, fmt.Errorf("destination.Set(%s) > %w", key, err)
			}
		}
		if exists {
			_, _ = fmt.Fprintf(imp.writer, "  [UPDATE]  %s\n", key)
			result.Updated++
		} else {
			_, _ = fmt.Fprintf(imp.writer, "  [NEW]  %s\n", key)
			result.New++
		}
	}
	return &result, nil
}
