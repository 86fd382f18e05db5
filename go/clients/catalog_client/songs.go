package catalog_client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mixfield/songdraft/go/internal/models"
)

type SongsResponse struct {
	Total int           `json:"total"`
	Songs []models.Song `json:"songs"`
}

// GetSongs fetches the full draftable song list from the catalog service.
func (c *CatalogClient) GetSongs(ctx context.Context) ([]models.Song, error) {
	body, err := c.Get(ctx, SongsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch songs: %w", err)
	}

	var response SongsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse songs response: %w", err)
	}
	if len(response.Songs) == 0 {
		return nil, fmt.Errorf("catalog service returned no songs")
	}

	return response.Songs, nil
}
