package catalog_client

const (
	// API Endpoints
	SongsEndpoint = "/v1/songs"

	// Headers
	APIKeyHeader = "X-API-Key"
)
