package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/config"
)

func TestSetupTestConfig(t *testing.T) {
	tmpDir := t.TempDir()
	got := SetupTestConfig(t, tmpDir)

	want := filepath.Join(tmpDir, "config.yml")
	assert.Equal(t, want, got)

	loader, err := config.NewConfigLoader(got)
	require.NoError(t, err)
	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(tmpDir, "storage"), cfg.Storage.Directory)

	for _, d := range []string{"storage", "reports"} {
		info, err := os.Stat(filepath.Join(tmpDir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
}

func TestWriteDatasetAndCatalog(t *testing.T) {
	tmpDir := t.TempDir()

	b, err := bible.Load(WriteDataset(t, tmpDir))
	require.NoError(t, err)
	assert.Equal(t, 3, b.VerseCount(bible.ChapterRef{Book: "Juan", Chapter: 3}))

	catalog, err := collection.LoadCatalog(WriteCatalog(t, tmpDir), b)
	require.NoError(t, err)
	assert.Empty(t, catalog.Malformed())
	got, ok := catalog.Lookup(bible.ChapterRef{Book: "Juan", Chapter: 3})
	assert.True(t, ok)
	assert.Equal(t, "Nicodemo", got.Name)
}
