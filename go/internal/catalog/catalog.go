// Package catalog is the read-only song catalog collaborator. The engine
// treats its availability view as advisory; the claim log is authoritative.
package catalog

import (
	"context"
	"errors"

	"github.com/mixfield/songdraft/go/internal/models"
)

// ErrSongNotFound is returned when a song id is not in the catalog.
var ErrSongNotFound = errors.New("song not found in catalog")

// Catalog lists songs and answers advisory availability queries.
type Catalog interface {
	Song(ctx context.Context, songID string) (*models.Song, error)
	SongAvailable(ctx context.Context, songID string) (bool, error)

	// ListCandidateSongs returns songs in auto-pick fallback order.
	ListCandidateSongs(ctx context.Context) ([]models.Song, error)
}
