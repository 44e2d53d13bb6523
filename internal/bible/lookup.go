package bible

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fold strips diacritics and case so that "genesis" matches "Génesis".
func fold(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.TrimSpace(name))
	if err != nil {
		stripped = strings.TrimSpace(name)
	}
	return cases.Fold().String(stripped)
}

// ResolveBook maps user input to the dataset's book name.
func (b *Bible) ResolveBook(input string) (string, error) {
	if i, ok := b.byName[input]; ok {
		return b.Books[i].Name, nil
	}
	if i, ok := b.byFold[fold(input)]; ok {
		return b.Books[i].Name, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownBook, input)
}

// ResolveVerse resolves the book name and checks the verse exists.
func (b *Bible) ResolveVerse(book string, chapter, verse int) (VerseRef, error) {
	name, err := b.ResolveBook(book)
	if err != nil {
		return VerseRef{}, err
	}
	ref := VerseRef{Book: name, Chapter: chapter, Verse: verse}
	if _, err := b.Verse(ref); err != nil {
		return VerseRef{}, err
	}
	return ref, nil
}

// ResolveChapter resolves the book name and checks the chapter exists.
func (b *Bible) ResolveChapter(book string, chapter int) (ChapterRef, error) {
	name, err := b.ResolveBook(book)
	if err != nil {
		return ChapterRef{}, err
	}
	ref := ChapterRef{Book: name, Chapter: chapter}
	if _, err := b.Chapter(ref); err != nil {
		return ChapterRef{}, err
	}
	return ref, nil
}
