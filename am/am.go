// Package am ("I am") holds sqb's core configuration.
//
// Configuration is read with viper from TOML files and SQB_* environment
// variables. See load.go for the precedence order.
package am

import "fmt"

// Config represents the core sqb configuration
type Config struct {
	Search   SearchConfig   `mapstructure:"search" json:"search" toml:"search" yaml:"search"`
	Suggest  SuggestConfig  `mapstructure:"suggest" json:"suggest" toml:"suggest" yaml:"suggest"`
	Database DatabaseConfig `mapstructure:"database" json:"database" toml:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" json:"server" toml:"server" yaml:"server"`
}

// SearchConfig configures query parsing and the filter key registry
type SearchConfig struct {
	DisallowFreeText bool     `mapstructure:"disallow_free_text" json:"disallow_free_text" toml:"disallow_free_text" yaml:"disallow_free_text"`
	ExcludedTags     []string `mapstructure:"excluded_tags" json:"excluded_tags" toml:"excluded_tags" yaml:"excluded_tags"`
	KeysFile         string   `mapstructure:"keys_file" json:"keys_file,omitempty" toml:"keys_file,omitempty" yaml:"keys_file,omitempty"` // .toml or .yaml key list merged over the built-in event fields
}

// SuggestConfig configures the value suggestion orchestrator
type SuggestConfig struct {
	DebounceMs           int      `mapstructure:"debounce_ms" json:"debounce_ms" toml:"debounce_ms" yaml:"debounce_ms"`
	CacheTTLSeconds      int      `mapstructure:"cache_ttl_seconds" json:"cache_ttl_seconds" toml:"cache_ttl_seconds" yaml:"cache_ttl_seconds"` // 0 disables the cache
	CacheSize            int      `mapstructure:"cache_size" json:"cache_size" toml:"cache_size" yaml:"cache_size"`
	ResultLimit          int      `mapstructure:"result_limit" json:"result_limit" toml:"result_limit" yaml:"result_limit"`
	MaxRequestsPerSecond float64  `mapstructure:"max_requests_per_second" json:"max_requests_per_second" toml:"max_requests_per_second" yaml:"max_requests_per_second"` // per source; 0 = unlimited
	Datasets             []string `mapstructure:"datasets" json:"datasets" toml:"datasets" yaml:"datasets"`
}

// DatabaseConfig configures the SQLite tag value store
type DatabaseConfig struct {
	Path string `mapstructure:"path" json:"path" toml:"path" yaml:"path"`
}

// ServerConfig configures the sqb HTTP/LSP server
type ServerConfig struct {
	Port           *int     `mapstructure:"port" json:"port,omitempty" toml:"port,omitempty" yaml:"port,omitempty"` // nil = default 8377, 0 is invalid (omit for default)
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins" toml:"allowed_origins" yaml:"allowed_origins"`
}

// Server port constants
const (
	DefaultServerPort = 8377
)

// Default values shared by SetDefaults and the zero-value getters
const (
	DefaultDatabasePath         = "sqb.db"
	DefaultDebounceMs           = 300
	DefaultCacheTTLSeconds      = 60
	DefaultCacheSize            = 512
	DefaultResultLimit          = 100
	DefaultMaxRequestsPerSecond = 10
)

// File permissions
const (
	DefaultFilePermissions = 0644
	DefaultDirPermissions  = 0755
)

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Server: {Port: %d}, Suggest: {DebounceMs: %d, Datasets: %v}}",
		c.GetDatabasePath(), c.GetServerPort(), c.Suggest.DebounceMs, c.Suggest.Datasets)
}
