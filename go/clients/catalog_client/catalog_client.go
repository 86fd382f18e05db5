package catalog_client

import (
	"github.com/mixfield/songdraft/go/clients"
)

// CatalogClient fetches song metadata from a remote catalog service.
type CatalogClient struct {
	*clients.BaseClient
}

func NewCatalogClient(baseURL, apiKey string) *CatalogClient {
	client := &CatalogClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	if apiKey != "" {
		client.SetHeader(APIKeyHeader, apiKey)
	}

	return client
}
