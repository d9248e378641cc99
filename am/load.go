package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/sqb/errors"
)

// EnvPrefix prefixes every environment variable sqb reads (SQB_SUGGEST_DEBOUNCE_MS)
const EnvPrefix = "SQB"

var (
	mu            sync.Mutex
	globalConfig  *Config
	viperInstance *viper.Viper

	// configSources records which file each key was last merged from
	configSources = map[string]SourceInfo{}
	// configFiles lists the files that were merged, lowest precedence first
	configFiles []string
)

// Load reads the sqb configuration using viper.
// The result is cached until Reset is called.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViperLocked()

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}
	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the viper instance for advanced configuration access
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return initViperLocked()
}

// LoadWithViper loads configuration using a provided viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path over the defaults.
// Environment variables are not consulted.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing and reloads)
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
	viperInstance = nil
	configSources = map[string]SourceInfo{}
	configFiles = nil
}

// initViperLocked initializes viper with configuration sources and defaults.
// Callers hold mu.
func initViperLocked() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindSensitiveEnvVars(v)

	SetDefaults(v)

	mergeConfigFiles(v)

	viperInstance = v
	return v
}

type candidate struct {
	path   string
	source ConfigSource
}

func candidates() []candidate {
	list := []candidate{{path: filepath.Join("/etc", "sqb", "am.toml"), source: SourceSystem}}
	if home, err := os.UserHomeDir(); err == nil {
		list = append(list, candidate{path: filepath.Join(home, ".sqb", "am.toml"), source: SourceUser})
	}
	if project := findProjectConfig(); project != "" {
		list = append(list, candidate{path: project, source: SourceProject})
	}
	return list
}

// CandidatePaths returns the config files sqb checks, lowest precedence first
func CandidatePaths() []string {
	var paths []string
	for _, c := range candidates() {
		paths = append(paths, c.path)
	}
	return paths
}

// findProjectConfig searches for am.toml by walking up the directory tree
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, "am.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// mergeConfigFiles merges configuration files in precedence order
// Precedence (lowest to highest): system < user < project < env vars
func mergeConfigFiles(v *viper.Viper) {
	for _, c := range candidates() {
		if _, err := os.Stat(c.path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(c.path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		// Merged into the config layer so SQB_* env vars still win
		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range tempViper.AllKeys() {
			configSources[key] = SourceInfo{Source: c.source, Path: c.path}
		}
		configFiles = append(configFiles, c.path)
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetBool returns a configuration value as bool using dot notation
func GetBool(key string) bool {
	return GetViper().GetBool(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return GetViper().GetInt(key)
}
