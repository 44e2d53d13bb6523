// Package testutil provides shared test helpers for creating config files, Bible datasets and catalogs.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
)

// Books returns a small dataset: Génesis 1 (2 verses), Juan 1 (1 verse),
// Juan 3 (3 verses: 1, 2 and 16) and 1 Samuel 3 (1 verse).
func Books() []bible.Book {
	return []bible.Book{
		{
			Name: "Génesis",
			Chapters: []bible.Chapter{
				{Chapter: 1, Verses: []bible.Verse{
					{Verse: 1, Text: "En el principio creó Dios los cielos y la tierra."},
					{Verse: 2, Text: "Y la tierra estaba desordenada y vacía."},
				}},
			},
		},
		{
			Name: "Juan",
			Chapters: []bible.Chapter{
				{Chapter: 1, Verses: []bible.Verse{
					{Verse: 1, Text: "En el principio era el Verbo."},
				}},
				{Chapter: 3, Verses: []bible.Verse{
					{Verse: 1, Text: "Había un hombre de los fariseos que se llamaba Nicodemo."},
					{Verse: 2, Text: "Este vino a Jesús de noche."},
					{Verse: 16, Text: "Porque de tal manera amó Dios al mundo."},
				}},
			},
		},
		{
			Name: "1 Samuel",
			Chapters: []bible.Chapter{
				{Chapter: 3, Verses: []bible.Verse{
					{Verse: 10, Text: "Habla, porque tu siervo oye."},
				}},
			},
		},
	}
}

func NewBible() *bible.Bible {
	return bible.New(Books())
}

// Collectibles returns a catalog for Books: Génesis 1 and Juan 3 unlock a
// card, Juan 1 and 1 Samuel 3 do not.
func Collectibles() []collection.Collectible {
	return []collection.Collectible{
		{
			Name:        "Dios Creador",
			Chapter:     "Génesis 1",
			Image:       "https://placehold.co/50x50?text=Dios",
			Description: "Creador del universo, descrito en el relato de la creación.",
		},
		{
			Name:        "Nicodemo",
			Chapter:     "Juan 3",
			Image:       "https://placehold.co/50x50?text=Nicodemo",
			Description: "Fariseo que visitó a Jesús de noche.",
		},
	}
}

// WriteDataset writes Books to dir/bible.json and returns the path.
func WriteDataset(t *testing.T, dir string) string {
	t.Helper()
	contents, err := json.Marshal(map[string]any{"books": Books()})
	require.NoError(t, err)
	path := filepath.Join(dir, "bible.json")
	require.NoError(t, os.WriteFile(path, contents, 0644))
	return path
}

// WriteCatalog writes Collectibles to dir/characters.json and returns the path.
func WriteCatalog(t *testing.T, dir string) string {
	t.Helper()
	contents, err := json.MarshalIndent(Collectibles(), "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, "characters.json")
	require.NoError(t, os.WriteFile(path, contents, 0644))
	return path
}

// SetupTestConfig writes a dataset, a catalog and a config file using the
// file storage driver under tmpDir. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	for _, d := range []string{"storage", "reports"} {
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, d), 0755))
	}

	configContent := fmt.Sprintf(`bible:
  dataset_file: %s
  catalog_file: %s
storage:
  driver: file
  directory: %s
reading:
  min_dwell: 1s
outputs:
  report_directory: %s
`,
		WriteDataset(t, tmpDir),
		WriteCatalog(t, tmpDir),
		filepath.Join(tmpDir, "storage"),
		filepath.Join(tmpDir, "reports"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}
