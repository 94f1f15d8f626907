package dbxapi

import "time"

// Config configures a REST client.
type Config struct {
	// Host is the workspace base URL, e.g. https://acme.cloud.example.com.
	// Required. A trailing slash is tolerated.
	Host string

	// Token is the bearer token used for every request. Required.
	// Token acquisition is out of scope - OAuth flows, profiles, and the
	// like are handled by whatever produced the token.
	Token string

	// Timeout is the per-request HTTP timeout.
	// Zero uses DefaultTimeout.
	Timeout time.Duration

	// RateLimit is the maximum requests per second to the backend.
	// Zero means unlimited (the backend throttles on its side).
	RateLimit float64

	// PageSize is the page size for job listings.
	// Zero uses DefaultPageSize. Values over MaxPageSize are clamped.
	PageSize int
}

// DefaultTimeout is the per-request HTTP timeout when none is configured.
const DefaultTimeout = 30 * time.Second

// DefaultPageSize is the default page size for job listings.
const DefaultPageSize = 100

// MaxPageSize is the maximum page size accepted by the listing endpoint.
const MaxPageSize = 100

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{Field: "Host", Message: "workspace host is required"}
	}
	if c.Token == "" {
		return &ConfigError{Field: "Token", Message: "access token is required"}
	}
	if c.RateLimit < 0 {
		return &ConfigError{Field: "RateLimit", Message: "rate limit must not be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "dbxapi config: " + e.Field + ": " + e.Message
}
