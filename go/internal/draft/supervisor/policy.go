package supervisor

import (
	"context"
	"fmt"

	"github.com/mixfield/songdraft/go/internal/catalog"
	"github.com/mixfield/songdraft/go/internal/draft/engine"
)

// CandidatePolicy picks the song an expired turn is auto-claimed with.
// Which song a participant "would have wanted" is a business decision, so
// the ordering is pluggable.
type CandidatePolicy interface {
	SelectSong(ctx context.Context, snapshot *engine.Snapshot) (string, error)
}

// FirstAvailable walks the catalog's candidate order and returns the first
// song without a claim in the group.
type FirstAvailable struct {
	catalog catalog.Catalog
}

// NewFirstAvailable creates the default candidate policy.
func NewFirstAvailable(cat catalog.Catalog) *FirstAvailable {
	return &FirstAvailable{catalog: cat}
}

func (f *FirstAvailable) SelectSong(ctx context.Context, snapshot *engine.Snapshot) (string, error) {
	candidates, err := f.catalog.ListCandidateSongs(ctx)
	if err != nil {
		return "", fmt.Errorf("list candidate songs: %w", err)
	}

	claimed := make(map[string]bool, len(snapshot.Claims))
	for _, claim := range snapshot.Claims {
		claimed[claim.SongID] = true
	}

	for _, song := range candidates {
		if !claimed[song.ID] {
			return song.ID, nil
		}
	}
	return "", engine.ErrNoAvailableSongs
}
