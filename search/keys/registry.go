// Package keys holds the filter key registry: which keys a query may filter on,
// what kind of value each key takes, and how keys are grouped for display.
//
// A Registry is immutable. When the upstream key list changes a new Registry is
// built and published through a Holder; readers keep whichever instance they loaded.
package keys

import (
	"sort"
	"sync/atomic"
)

// FieldKind distinguishes user-defined tags from built-in event fields
type FieldKind string

const (
	FieldKindTag        FieldKind = "tag"
	FieldKindEventField FieldKind = "event_field"
)

// ValueType is the grammar a filter value must satisfy
type ValueType string

const (
	ValueText       ValueType = "text"
	ValueNumber     ValueType = "number"
	ValueDate       ValueType = "date"
	ValueDuration   ValueType = "duration"
	ValueBoolean    ValueType = "boolean"
	ValuePercentage ValueType = "percentage"
	ValueList       ValueType = "list"
	ValueVersion    ValueType = "version"
)

// Valid reports whether t is one of the known value types
func (t ValueType) Valid() bool {
	switch t {
	case ValueText, ValueNumber, ValueDate, ValueDuration, ValueBoolean, ValuePercentage, ValueList, ValueVersion:
		return true
	}
	return false
}

// AllowsOperator reports whether comparison operators (>, >=, <, <=) make sense for t
func (t ValueType) AllowsOperator() bool {
	switch t {
	case ValueNumber, ValueDate, ValueDuration, ValuePercentage, ValueVersion:
		return true
	}
	return false
}

// KeyMeta describes one filter key
type KeyMeta struct {
	Key              string    `json:"key" toml:"key" yaml:"key"`
	Name             string    `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Kind             FieldKind `json:"kind" toml:"kind" yaml:"kind"`
	ValueType        ValueType `json:"value_type" toml:"value_type" yaml:"value_type"`
	Aliases          []string  `json:"aliases,omitempty" toml:"aliases,omitempty" yaml:"aliases,omitempty"`
	DisallowNegation bool      `json:"disallow_negation,omitempty" toml:"disallow_negation,omitempty" yaml:"disallow_negation,omitempty"`
	TotalValues      int       `json:"total_values,omitempty" toml:"total_values,omitempty" yaml:"total_values,omitempty"`
	Values           []string  `json:"values,omitempty" toml:"values,omitempty" yaml:"values,omitempty"` // predefined values, answered without a lookup
	Description      string    `json:"description,omitempty" toml:"description,omitempty" yaml:"description,omitempty"`
}

// Registry is an immutable key → metadata mapping.
// Lookups are case-sensitive exact matches on the key or one of its aliases.
type Registry struct {
	keys  []KeyMeta
	index map[string]int
}

// New builds a registry from metas. Later entries replace earlier ones with the
// same key; empty kinds default to tag and empty value types to text.
func New(metas []KeyMeta) *Registry {
	byKey := make(map[string]KeyMeta, len(metas))
	for _, m := range metas {
		if m.Key == "" {
			continue
		}
		if m.Kind == "" {
			m.Kind = FieldKindTag
		}
		if !m.ValueType.Valid() {
			m.ValueType = ValueText
		}
		if m.Name == "" {
			m.Name = m.Key
		}
		m.Aliases = append([]string(nil), m.Aliases...)
		m.Values = append([]string(nil), m.Values...)
		byKey[m.Key] = m
	}

	r := &Registry{
		keys:  make([]KeyMeta, 0, len(byKey)),
		index: make(map[string]int, len(byKey)),
	}
	for _, m := range byKey {
		r.keys = append(r.keys, m)
	}
	sort.Slice(r.keys, func(i, j int) bool { return r.keys[i].Key < r.keys[j].Key })

	for i, m := range r.keys {
		r.index[m.Key] = i
	}
	// Aliases never shadow a real key
	for i, m := range r.keys {
		for _, alias := range m.Aliases {
			if _, taken := r.index[alias]; !taken {
				r.index[alias] = i
			}
		}
	}
	return r
}

// Lookup returns the metadata for key, resolving aliases to their canonical key.
// A nil registry knows no keys.
func (r *Registry) Lookup(key string) (KeyMeta, bool) {
	if r == nil {
		return KeyMeta{}, false
	}
	i, ok := r.index[key]
	if !ok {
		return KeyMeta{}, false
	}
	return r.keys[i], true
}

// Keys returns a copy of all canonical keys sorted by key
func (r *Registry) Keys() []KeyMeta {
	if r == nil {
		return nil
	}
	out := make([]KeyMeta, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of canonical keys
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Sections groups the registry's keys for display
func (r *Registry) Sections() []Section {
	return Sectionize(r.Keys())
}

// Holder publishes the currently active registry.
// Store swaps the whole instance; it never mutates the registry it replaces.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder creates a holder publishing r
func NewHolder(r *Registry) *Holder {
	h := &Holder{}
	h.Store(r)
	return h
}

// Load returns the active registry
func (h *Holder) Load() *Registry {
	return h.current.Load()
}

// Store publishes r and returns the registry it replaced
func (h *Holder) Store(r *Registry) *Registry {
	return h.current.Swap(r)
}

// Lookup resolves key against the active registry
func (h *Holder) Lookup(key string) (KeyMeta, bool) {
	return h.Load().Lookup(key)
}
