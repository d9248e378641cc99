package keys

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/sqb/errors"
)

// File is the on-disk shape of a key list
//
//	[[keys]]
//	key = "release.version"
//	kind = "event_field"
//	value_type = "version"
type File struct {
	Keys []KeyMeta `json:"keys" toml:"keys" yaml:"keys"`
}

// LoadFile reads a key list from a .toml, .yaml or .yml file
func LoadFile(path string) ([]KeyMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keys file %s", path)
	}
	return Decode(filepath.Ext(path), data)
}

// Decode parses a key list; ext selects the format (".toml", ".yaml", ".yml")
func Decode(ext string, data []byte) ([]KeyMeta, error) {
	var file File
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, errors.Wrap(err, "failed to parse TOML keys file")
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, errors.Wrap(err, "failed to parse YAML keys file")
		}
	default:
		return nil, errors.WithHint(
			errors.Newf("unsupported keys file format %q", ext),
			"use a .toml, .yaml or .yml file",
		)
	}

	for i, m := range file.Keys {
		if m.Key == "" {
			return nil, errors.Newf("keys[%d]: key is required", i)
		}
		if m.ValueType != "" && !m.ValueType.Valid() {
			return nil, errors.Newf("keys[%d] (%s): unknown value_type %q", i, m.Key, m.ValueType)
		}
		switch m.Kind {
		case "", FieldKindTag, FieldKindEventField:
		default:
			return nil, errors.Newf("keys[%d] (%s): unknown kind %q", i, m.Key, m.Kind)
		}
	}
	return file.Keys, nil
}

// EventFields returns the built-in event fields overlaid with the key list at
// path. An empty path returns the built-in fields.
func EventFields(path string) ([]KeyMeta, error) {
	fields := DefaultEventFields()
	if path == "" {
		return fields, nil
	}
	extra, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return Merge(fields, extra), nil
}

// Merge overlays extra on base; an entry in extra replaces the base entry
// with the same key. Neither input is modified.
func Merge(base, extra []KeyMeta) []KeyMeta {
	index := make(map[string]int, len(base))
	out := make([]KeyMeta, 0, len(base)+len(extra))
	for _, m := range base {
		index[m.Key] = len(out)
		out = append(out, m)
	}
	for _, m := range extra {
		if i, ok := index[m.Key]; ok {
			out[i] = m
			continue
		}
		index[m.Key] = len(out)
		out = append(out, m)
	}
	return out
}
