package immich

// Config holds connection settings for the Immich server.
type Config struct {
	// Endpoint is the base URL of the Immich server (without /api).
	Endpoint string `mapstructure:"endpoint" default:"http://localhost:2283"`
	// ApiKey is the API key used for the x-api-key header.
	ApiKey string `mapstructure:"api_key" default:""`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
	// PageSize is the page size used for paginated asset search.
	PageSize int `mapstructure:"page_size" default:"500"`
}
