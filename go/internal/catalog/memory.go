package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/mixfield/songdraft/go/internal/models"
	"gopkg.in/yaml.v3"
)

// MemoryCatalog serves a fixed song list. Candidate order is seed order.
type MemoryCatalog struct {
	songs []models.Song
	byID  map[string]models.Song
}

// NewMemoryCatalog builds a catalog from the given songs.
func NewMemoryCatalog(songs []models.Song) *MemoryCatalog {
	byID := make(map[string]models.Song, len(songs))
	for _, song := range songs {
		byID[song.ID] = song
	}
	return &MemoryCatalog{songs: songs, byID: byID}
}

// LoadCatalogFile reads a YAML song list into a MemoryCatalog.
func LoadCatalogFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var seed struct {
		Songs []models.Song `yaml:"songs"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(seed.Songs) == 0 {
		return nil, fmt.Errorf("catalog file %s contains no songs", path)
	}

	return NewMemoryCatalog(seed.Songs), nil
}

func (c *MemoryCatalog) Song(ctx context.Context, songID string) (*models.Song, error) {
	song, exists := c.byID[songID]
	if !exists {
		return nil, ErrSongNotFound
	}
	return &song, nil
}

func (c *MemoryCatalog) SongAvailable(ctx context.Context, songID string) (bool, error) {
	_, exists := c.byID[songID]
	return exists, nil
}

func (c *MemoryCatalog) ListCandidateSongs(ctx context.Context) ([]models.Song, error) {
	songs := make([]models.Song, len(c.songs))
	copy(songs, c.songs)
	return songs, nil
}
