package am

import (
	"path/filepath"
	"strings"

	"github.com/teranos/sqb/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.Newf("server.port cannot be 0 (omit for default port %d)", DefaultServerPort)
	}
	if c.Server.Port != nil && (*c.Server.Port < 0 || *c.Server.Port > 65535) {
		return errors.Newf("server.port must be between 1 and 65535, got %d", *c.Server.Port)
	}

	// Debounce: 0 = answer immediately, negative = invalid
	if c.Suggest.DebounceMs < 0 {
		return errors.Newf("suggest.debounce_ms must be >= 0, got %d", c.Suggest.DebounceMs)
	}
	if c.Suggest.CacheTTLSeconds < 0 {
		return errors.Newf("suggest.cache_ttl_seconds must be >= 0, got %d", c.Suggest.CacheTTLSeconds)
	}
	if c.Suggest.CacheSize < 0 {
		return errors.Newf("suggest.cache_size must be >= 0, got %d", c.Suggest.CacheSize)
	}
	if c.Suggest.ResultLimit < 0 {
		return errors.Newf("suggest.result_limit must be >= 0, got %d", c.Suggest.ResultLimit)
	}
	if c.Suggest.MaxRequestsPerSecond < 0 {
		return errors.Newf("suggest.max_requests_per_second must be >= 0, got %f", c.Suggest.MaxRequestsPerSecond)
	}
	for i, ds := range c.Suggest.Datasets {
		if strings.TrimSpace(ds) == "" {
			return errors.Newf("suggest.datasets[%d] cannot be empty", i)
		}
	}

	if c.Search.KeysFile != "" {
		switch ext := strings.ToLower(filepath.Ext(c.Search.KeysFile)); ext {
		case ".toml", ".yaml", ".yml":
		default:
			return errors.WithHint(
				errors.Newf("search.keys_file has unsupported extension %q", ext),
				"use a .toml, .yaml or .yml file",
			)
		}
	}

	return nil
}
