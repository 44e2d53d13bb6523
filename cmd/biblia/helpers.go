package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/config"
	"github.com/at-ishikawa/biblia/internal/session"
	"github.com/at-ishikawa/biblia/internal/storage"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// loadCatalog reads the catalog file, reporting malformed entries as
// warnings. Without a catalog file nothing can be unlocked.
func loadCatalog(path string, b *bible.Bible) (*collection.Catalog, error) {
	if path == "" {
		return collection.NewCatalog(nil, b), nil
	}
	catalog, err := collection.LoadCatalog(path, b)
	if err != nil {
		return nil, fmt.Errorf("collection.LoadCatalog() > %w", err)
	}
	for _, malformed := range catalog.Malformed() {
		slog.Default().Warn("skipping catalog entry", slog.Any("error", malformed))
	}
	return catalog, nil
}

type app struct {
	cfg     *config.Config
	store   storage.Handle
	session *session.Session
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	b, err := bible.Load(cfg.Bible.DatasetFile)
	if err != nil {
		return nil, fmt.Errorf("bible.Load() > %w", err)
	}
	catalog, err := loadCatalog(cfg.Bible.CatalogFile, b)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("storage.Open() > %w", err)
	}

	sess, err := session.New(ctx, b, catalog, store, session.Options{
		User:     cfg.User,
		MinDwell: cfg.Reading.MinDwell,
		Bitrate:  cfg.Prayers.Bitrate,
		Listeners: []collection.Listener{
			collection.ListenerFunc(func(_ context.Context, c collection.Collectible) {
				slog.Default().Info("collectible unlocked",
					slog.String("name", c.Name),
					slog.String("chapter", c.Chapter),
				)
			}),
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("session.New() > %w", err)
	}
	return &app{cfg: cfg, store: store, session: sess}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Default().Warn("failed to close storage", slog.Any("error", err))
	}
}

func parseNumber(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, value)
	}
	return n, nil
}

// chapterArg resolves "<book> <chapter>" arguments.
func chapterArg(b *bible.Bible, args []string) (bible.ChapterRef, error) {
	chapter, err := parseNumber("chapter", args[1])
	if err != nil {
		return bible.ChapterRef{}, err
	}
	return b.ResolveChapter(args[0], chapter)
}

// verseArg resolves "<book> <chapter> <verse>" arguments.
func verseArg(b *bible.Bible, args []string) (bible.VerseRef, error) {
	chapter, err := parseNumber("chapter", args[1])
	if err != nil {
		return bible.VerseRef{}, err
	}
	verse, err := parseNumber("verse", args[2])
	if err != nil {
		return bible.VerseRef{}, err
	}
	return b.ResolveVerse(args[0], chapter, verse)
}

// parseVerseRanges expands "1-3,5" into verse numbers. Ranges skip numbers
// the chapter does not have, single numbers are kept as given. "all" selects
// every verse of the chapter.
func parseVerseRanges(value string, chapter *bible.Chapter) ([]int, error) {
	exists := make(map[int]bool, len(chapter.Verses))
	all := make([]int, 0, len(chapter.Verses))
	for _, v := range chapter.Verses {
		exists[v.Verse] = true
		all = append(all, v.Verse)
	}
	if strings.TrimSpace(value) == "all" {
		return all, nil
	}

	var verses []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		first, last, isRange := strings.Cut(part, "-")
		from, err := parseNumber("verse", strings.TrimSpace(first))
		if err != nil {
			return nil, err
		}
		to := from
		if isRange {
			if to, err = parseNumber("verse", strings.TrimSpace(last)); err != nil {
				return nil, err
			}
		}
		if to < from {
			return nil, fmt.Errorf("invalid verse range %q", part)
		}
		if !isRange {
			verses = append(verses, from)
			continue
		}
		for v := from; v <= to; v++ {
			if exists[v] {
				verses = append(verses, v)
			}
		}
	}
	return verses, nil
}
