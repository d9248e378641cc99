package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/sqb/am.toml
	SourceUser        ConfigSource = "user"        // ~/.sqb/am.toml
	SourceProject     ConfigSource = "project"     // am.toml in the working tree
	SourceEnvironment ConfigSource = "environment" // SQB_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // file path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigIntrospection describes the active configuration
type ConfigIntrospection struct {
	Files    []string      `json:"files"`    // merged files, lowest precedence first
	Settings []SettingInfo `json:"settings"` // every effective setting, sorted by key
}

// Introspect returns every effective setting together with its source
func Introspect() *ConfigIntrospection {
	mu.Lock()
	defer mu.Unlock()

	v := initViperLocked()
	intro := &ConfigIntrospection{
		Files: append([]string(nil), configFiles...),
	}

	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := configSources[key]; ok {
			info = si
		}

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if _, set := os.LookupEnv(envKey); set {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		intro.Settings = append(intro.Settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return intro
}
