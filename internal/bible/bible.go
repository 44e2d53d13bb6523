// Package bible provides the read-only Bible dataset and verse references.
package bible

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	ErrUnknownBook    = errors.New("unknown book")
	ErrUnknownChapter = errors.New("unknown chapter")
	ErrUnknownVerse   = errors.New("unknown verse")
)

type Verse struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

type Chapter struct {
	Chapter int     `json:"chapter"`
	Verses  []Verse `json:"verses"`
}

type Book struct {
	Name     string    `json:"name"`
	Chapters []Chapter `json:"chapters"`
}

// Bible is loaded once and never mutated afterwards.
type Bible struct {
	Books []Book `json:"books"`

	byName  map[string]int
	byFold  map[string]int
	chapter map[ChapterRef]*Chapter
}

// VerseRef identifies a verse within the dataset.
type VerseRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
}

func (ref VerseRef) ChapterRef() ChapterRef {
	return ChapterRef{Book: ref.Book, Chapter: ref.Chapter}
}

func (ref VerseRef) String() string {
	return fmt.Sprintf("%s %d:%d", ref.Book, ref.Chapter, ref.Verse)
}

type ChapterRef struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
}

// String returns the "<book> <chapter>" form used by the collectible catalog.
func (ref ChapterRef) String() string {
	return fmt.Sprintf("%s %d", ref.Book, ref.Chapter)
}

// Key returns the "<book>_<chapter>" form used for persisted chapter progress.
func (ref ChapterRef) Key() string {
	return fmt.Sprintf("%s_%d", ref.Book, ref.Chapter)
}

// ParseChapterRef parses "<book> <chapter>". Book names may contain spaces,
// so the chapter number is taken after the last space.
func ParseChapterRef(value string) (ChapterRef, error) {
	value = strings.TrimSpace(value)
	i := strings.LastIndex(value, " ")
	if i <= 0 {
		return ChapterRef{}, fmt.Errorf("invalid chapter reference %q", value)
	}
	number, err := strconv.Atoi(value[i+1:])
	if err != nil {
		return ChapterRef{}, fmt.Errorf("invalid chapter number in %q: %w", value, err)
	}
	return ChapterRef{Book: strings.TrimSpace(value[:i]), Chapter: number}, nil
}

// Load reads a dataset in the {"books": [...]} layout.
func Load(path string) (*Bible, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s) > %w", path, err)
	}
	var b Bible
	if err := json.Unmarshal(contents, &b); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(%s) > %w", path, err)
	}
	if len(b.Books) == 0 {
		return nil, fmt.Errorf("dataset %s has no books", path)
	}
	return New(b.Books), nil
}

func New(books []Book) *Bible {
	b := &Bible{
		Books:   books,
		byName:  make(map[string]int, len(books)),
		byFold:  make(map[string]int, len(books)),
		chapter: make(map[ChapterRef]*Chapter),
	}
	for i := range b.Books {
		book := &b.Books[i]
		b.byName[book.Name] = i
		b.byFold[fold(book.Name)] = i
		for j := range book.Chapters {
			b.chapter[ChapterRef{Book: book.Name, Chapter: book.Chapters[j].Chapter}] = &book.Chapters[j]
		}
	}
	return b
}

func (b *Bible) Book(name string) (*Book, error) {
	i, ok := b.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBook, name)
	}
	return &b.Books[i], nil
}

func (b *Bible) Chapter(ref ChapterRef) (*Chapter, error) {
	if _, err := b.Book(ref.Book); err != nil {
		return nil, err
	}
	chapter, ok := b.chapter[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChapter, ref)
	}
	return chapter, nil
}

func (b *Bible) Verse(ref VerseRef) (*Verse, error) {
	chapter, err := b.Chapter(ref.ChapterRef())
	if err != nil {
		return nil, err
	}
	for i := range chapter.Verses {
		if chapter.Verses[i].Verse == ref.Verse {
			return &chapter.Verses[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownVerse, ref)
}

// VerseCount returns the number of verses in a chapter, or 0 if it does not exist.
func (b *Bible) VerseCount(ref ChapterRef) int {
	chapter, ok := b.chapter[ref]
	if !ok {
		return 0
	}
	return len(chapter.Verses)
}

func (b *Bible) HasChapter(ref ChapterRef) bool {
	_, ok := b.chapter[ref]
	return ok
}

// Chapters returns every chapter in dataset order.
func (b *Bible) Chapters() []ChapterRef {
	var refs []ChapterRef
	for _, book := range b.Books {
		for _, chapter := range book.Chapters {
			refs = append(refs, ChapterRef{Book: book.Name, Chapter: chapter.Chapter})
		}
	}
	return refs
}
