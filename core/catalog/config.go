package catalog

import "time"

// Config holds the CMR endpoint and credentials.
type Config struct {
	// URL is the CMR root, e.g. https://cmr.earthdata.nasa.gov.
	URL string `mapstructure:"url" default:""`
	// Provider restricts searches to one provider short name.
	Provider string `mapstructure:"provider" default:""`
	// Token is a static access token. Takes precedence over Username.
	Token string `mapstructure:"token" default:""`
	// Username and Password are exchanged for a token when Token is empty.
	Username string `mapstructure:"username" default:""`
	Password string `mapstructure:"password" default:""`
	// ClientID is sent as Client-Id on every request.
	ClientID string `mapstructure:"client_id" default:"inventory-reconciler"`
	// PageSize is the number of items requested per search page (max 2000).
	PageSize int `mapstructure:"page_size" default:"2000"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

// MaxPageSize is the largest page CMR serves.
const MaxPageSize = 2000

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EffectivePageSize clamps PageSize to (0, MaxPageSize].
func (c Config) EffectivePageSize() int {
	if c.PageSize <= 0 || c.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return c.PageSize
}
