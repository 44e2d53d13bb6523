// Package collection holds the collectible catalog and the unlock engine
// that grants collectibles as chapters are completed.
package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/biblia/internal/bible"
)

var ErrMalformedCatalogEntry = errors.New("malformed catalog entry")

// Collectible is a card unlocked by completing Chapter ("<book> <chapter>").
type Collectible struct {
	Name        string `json:"name" yaml:"name"`
	Chapter     string `json:"chapter" yaml:"chapter"`
	Image       string `json:"image" yaml:"image"`
	Description string `json:"description" yaml:"description"`
}

// Catalog is the immutable list of collectibles, indexed by chapter.
type Catalog struct {
	entries   []Collectible
	byChapter map[string]int
	malformed []error
}

// LoadCatalog reads a JSON or YAML list of collectibles. The format is
// chosen by the file extension.
func LoadCatalog(path string, b *bible.Bible) (*Catalog, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}

	var entries []Collectible
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(contents, &entries); err != nil {
			return nil, fmt.Errorf("yaml.Unmarshal(%s) > %w", path, err)
		}
	default:
		if err := json.Unmarshal(contents, &entries); err != nil {
			return nil, fmt.Errorf("json.Unmarshal(%s) > %w", path, err)
		}
	}
	return NewCatalog(entries, b), nil
}

// NewCatalog indexes entries by chapter. Entries naming a chapter that is not
// in b never match a lookup and are reported by Malformed. When b is nil no
// validation happens. If two entries name the same chapter the first wins.
func NewCatalog(entries []Collectible, b *bible.Bible) *Catalog {
	c := &Catalog{
		entries:   entries,
		byChapter: make(map[string]int, len(entries)),
	}
	for i, entry := range entries {
		// Entries are indexed by the parsed reference, the form Lookup uses.
		key := entry.Chapter
		ref, err := bible.ParseChapterRef(entry.Chapter)
		if err == nil {
			key = ref.String()
		}
		if b != nil && (err != nil || !b.HasChapter(ref)) {
			c.malformed = append(c.malformed, fmt.Errorf("%w: %q unlocks at %q", ErrMalformedCatalogEntry, entry.Name, entry.Chapter))
			continue
		}
		if _, ok := c.byChapter[key]; ok {
			continue
		}
		c.byChapter[key] = i
	}
	return c
}

// Lookup returns the collectible unlocked by ref.
func (c *Catalog) Lookup(ref bible.ChapterRef) (Collectible, bool) {
	i, ok := c.byChapter[ref.String()]
	if !ok {
		return Collectible{}, false
	}
	return c.entries[i], true
}

// Entries returns every catalog entry in file order, including malformed ones.
func (c *Catalog) Entries() []Collectible {
	return c.entries
}

func (c *Catalog) Malformed() []error {
	return c.malformed
}

const placeholderImage = "https://placehold.co/50x50?text=%s"

// Generate builds a catalog with one entry per chapter of b in dataset order.
// A seed whose chapter matches is used as is; other chapters get a numbered
// placeholder figure. Generation stops after limit entries when limit > 0.
func Generate(b *bible.Bible, seeds []Collectible, limit int) []Collectible {
	seedByChapter := make(map[string]Collectible, len(seeds))
	for _, seed := range seeds {
		if _, ok := seedByChapter[seed.Chapter]; !ok {
			seedByChapter[seed.Chapter] = seed
		}
	}

	var entries []Collectible
	generic := 1
	for _, ref := range b.Chapters() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		if seed, ok := seedByChapter[ref.String()]; ok {
			entries = append(entries, seed)
			continue
		}
		entries = append(entries, Collectible{
			Name:        fmt.Sprintf("Personaje %d", generic),
			Chapter:     ref.String(),
			Image:       fmt.Sprintf(placeholderImage, fmt.Sprintf("Personaje+%d", generic)),
			Description: fmt.Sprintf("Figura en %s.", ref),
		})
		generic++
	}
	return entries
}
