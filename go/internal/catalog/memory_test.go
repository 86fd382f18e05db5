package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mixfield/songdraft/go/internal/catalog"
	"github.com/mixfield/songdraft/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCatalogLookup(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]models.Song{
		{ID: "s1", Title: "Blue Train", Artist: "John Coltrane"},
		{ID: "s2", Title: "So What", Artist: "Miles Davis"},
	})
	ctx := context.Background()

	song, err := cat.Song(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Blue Train", song.Title)

	_, err = cat.Song(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrSongNotFound)

	available, err := cat.SongAvailable(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = cat.SongAvailable(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestListCandidateSongsKeepsSeedOrder(t *testing.T) {
	cat := catalog.NewMemoryCatalog([]models.Song{
		{ID: "c"}, {ID: "a"}, {ID: "b"},
	})

	songs, err := cat.ListCandidateSongs(context.Background())
	require.NoError(t, err)
	require.Len(t, songs, 3)
	assert.Equal(t, "c", songs[0].ID)
	assert.Equal(t, "a", songs[1].ID)
	assert.Equal(t, "b", songs[2].ID)
}

func TestLoadCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	seed := `songs:
  - id: s1
    title: Blue Train
    artist: John Coltrane
  - id: s2
    title: So What
    artist: Miles Davis
`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	cat, err := catalog.LoadCatalogFile(path)
	require.NoError(t, err)

	songs, err := cat.ListCandidateSongs(context.Background())
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "John Coltrane", songs[0].Artist)
}

func TestLoadCatalogFileRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("songs: []\n"), 0o644))

	_, err := catalog.LoadCatalogFile(path)
	assert.Error(t, err)

	_, err = catalog.LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
