package am

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultExcludedTags are tags never offered as filter keys
var DefaultExcludedTags = []string{
	"environment",
	"issue",
	"issue.id",
	"performance.issue_ids",
	"transaction.op",
	"transaction.status",
}

// DefaultDatasets are the tag datasets value suggestions fan out to
var DefaultDatasets = []string{"errors", "issue_platform"}

var defaultAllowedOrigins = []string{
	"http://localhost",
	"https://localhost",
	"http://127.0.0.1",
	"https://127.0.0.1",
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Search defaults
	v.SetDefault("search.disallow_free_text", false)
	v.SetDefault("search.excluded_tags", DefaultExcludedTags)
	v.SetDefault("search.keys_file", "")

	// Suggestion defaults
	v.SetDefault("suggest.debounce_ms", DefaultDebounceMs)
	v.SetDefault("suggest.cache_ttl_seconds", DefaultCacheTTLSeconds)
	v.SetDefault("suggest.cache_size", DefaultCacheSize)
	v.SetDefault("suggest.result_limit", DefaultResultLimit)
	v.SetDefault("suggest.max_requests_per_second", DefaultMaxRequestsPerSecond)
	v.SetDefault("suggest.datasets", DefaultDatasets)

	// Database defaults
	v.SetDefault("database.path", DefaultDatabasePath)

	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", defaultAllowedOrigins)
}

// BindSensitiveEnvVars explicitly binds configuration that is commonly set
// from the environment in deployments
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "SQB_DATABASE_PATH")
	v.BindEnv("server.port", "SQB_SERVER_PORT")
	v.BindEnv("search.keys_file", "SQB_SEARCH_KEYS_FILE")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetServerPort returns the configured server port, or DefaultServerPort
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetServerAllowedOrigins returns the allowed CORS origins
func (c *Config) GetServerAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return defaultAllowedOrigins
	}
	return c.Server.AllowedOrigins
}

// GetExcludedTags returns the tags dropped from the key registry
func (c *Config) GetExcludedTags() []string {
	if c.Search.ExcludedTags == nil {
		return DefaultExcludedTags
	}
	return c.Search.ExcludedTags
}

// GetSuggestConfig returns the suggestion configuration with defaults applied to zero values
func (c *Config) GetSuggestConfig() SuggestConfig {
	cfg := c.Suggest
	if cfg.DebounceMs == 0 {
		cfg.DebounceMs = DefaultDebounceMs
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.ResultLimit == 0 {
		cfg.ResultLimit = DefaultResultLimit
	}
	if len(cfg.Datasets) == 0 {
		cfg.Datasets = DefaultDatasets
	}
	return cfg
}

// Debounce returns the debounce delay as a duration
func (s SuggestConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMs) * time.Millisecond
}

// CacheTTL returns the cache time-to-live as a duration
func (s SuggestConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}
