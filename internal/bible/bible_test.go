package bible

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBible() *Bible {
	return New([]Book{
		{
			Name: "Génesis",
			Chapters: []Chapter{
				{Chapter: 1, Verses: []Verse{{Verse: 1, Text: "En el principio creó Dios los cielos y la tierra."}}},
			},
		},
		{
			Name: "Juan",
			Chapters: []Chapter{
				{Chapter: 1, Verses: []Verse{{Verse: 1, Text: "En el principio era el Verbo."}}},
				{Chapter: 3, Verses: []Verse{
					{Verse: 1, Text: "Había un hombre de los fariseos que se llamaba Nicodemo."},
					{Verse: 2, Text: "Este vino a Jesús de noche."},
					{Verse: 16, Text: "Porque de tal manera amó Dios al mundo."},
				}},
			},
		},
		{
			Name: "1 Samuel",
			Chapters: []Chapter{
				{Chapter: 3, Verses: []Verse{{Verse: 10, Text: "Habla, porque tu siervo oye."}}},
			},
		},
	})
}

func TestParseChapterRef(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    ChapterRef
		wantErr bool
	}{
		{
			name:  "single word book",
			value: "Juan 3",
			want:  ChapterRef{Book: "Juan", Chapter: 3},
		},
		{
			name:  "book with spaces",
			value: "1 Samuel 3",
			want:  ChapterRef{Book: "1 Samuel", Chapter: 3},
		},
		{
			name:  "surrounding whitespace",
			value: "  Génesis 1 ",
			want:  ChapterRef{Book: "Génesis", Chapter: 1},
		},
		{
			name:    "missing chapter",
			value:   "Juan",
			wantErr: true,
		},
		{
			name:    "non numeric chapter",
			value:   "Juan tres",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChapterRef(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChapterRef_Formats(t *testing.T) {
	ref := ChapterRef{Book: "Juan", Chapter: 3}
	assert.Equal(t, "Juan 3", ref.String())
	assert.Equal(t, "Juan_3", ref.Key())

	verse := VerseRef{Book: "Juan", Chapter: 3, Verse: 16}
	assert.Equal(t, "Juan 3:16", verse.String())
	assert.Equal(t, ref, verse.ChapterRef())
}

func TestBible_Lookups(t *testing.T) {
	b := newTestBible()

	assert.Equal(t, 3, b.VerseCount(ChapterRef{Book: "Juan", Chapter: 3}))
	assert.Equal(t, 0, b.VerseCount(ChapterRef{Book: "Juan", Chapter: 2}))
	assert.True(t, b.HasChapter(ChapterRef{Book: "1 Samuel", Chapter: 3}))

	verse, err := b.Verse(VerseRef{Book: "Juan", Chapter: 3, Verse: 16})
	require.NoError(t, err)
	assert.Contains(t, verse.Text, "amó Dios al mundo")

	_, err = b.Verse(VerseRef{Book: "Juan", Chapter: 3, Verse: 99})
	assert.ErrorIs(t, err, ErrUnknownVerse)
	_, err = b.Chapter(ChapterRef{Book: "Juan", Chapter: 99})
	assert.ErrorIs(t, err, ErrUnknownChapter)
	_, err = b.Chapter(ChapterRef{Book: "Hechos", Chapter: 1})
	assert.ErrorIs(t, err, ErrUnknownBook)

	assert.Equal(t, []ChapterRef{
		{Book: "Génesis", Chapter: 1},
		{Book: "Juan", Chapter: 1},
		{Book: "Juan", Chapter: 3},
		{Book: "1 Samuel", Chapter: 3},
	}, b.Chapters())
}

func TestBible_ResolveBook(t *testing.T) {
	b := newTestBible()

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "exact", input: "Juan", want: "Juan"},
		{name: "lower case", input: "juan", want: "Juan"},
		{name: "without accent", input: "genesis", want: "Génesis"},
		{name: "upper case with accent", input: "GÉNESIS", want: "Génesis"},
		{name: "numbered book", input: "1 samuel", want: "1 Samuel"},
		{name: "unknown", input: "Hechos", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.ResolveBook(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBook)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBible_ResolveVerse(t *testing.T) {
	b := newTestBible()

	ref, err := b.ResolveVerse("juan", 3, 16)
	require.NoError(t, err)
	assert.Equal(t, VerseRef{Book: "Juan", Chapter: 3, Verse: 16}, ref)

	_, err = b.ResolveVerse("juan", 3, 17)
	assert.ErrorIs(t, err, ErrUnknownVerse)

	chapter, err := b.ResolveChapter("génesis", 1)
	require.NoError(t, err)
	assert.Equal(t, ChapterRef{Book: "Génesis", Chapter: 1}, chapter)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "valid dataset",
			content: `{"books":[{"name":"Juan","chapters":[{"chapter":3,"verses":[{"verse":16,"text":"Porque de tal manera"}]}]}]}`,
		},
		{
			name:    "empty dataset",
			content: `{"books":[]}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			content: `{"books":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bible.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			got, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, got.VerseCount(ChapterRef{Book: "Juan", Chapter: 3}))
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
