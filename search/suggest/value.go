// Package suggest answers "which values does key K take, starting with T"
// for the focused filter, merging every configured value source.
package suggest

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Value is one suggested filter value with its usage statistics
type Value struct {
	Value    string    `json:"value"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// Source returns the values recorded for key that match query
type Source interface {
	Name() string
	Values(ctx context.Context, key, query string) ([]Value, error)
}

// FuncSource adapts a function to Source
type FuncSource struct {
	SourceName string
	Fn         func(ctx context.Context, key, query string) ([]Value, error)
}

func (f FuncSource) Name() string { return f.SourceName }

func (f FuncSource) Values(ctx context.Context, key, query string) ([]Value, error) {
	return f.Fn(ctx, key, query)
}

// MergeAndSort dedupes values across lists by exact string, summing counts
// and keeping the latest LastSeen, then orders them by count desc, last seen
// desc, and finally by value: versions (newest first) before other values,
// which sort alphabetically.
func MergeAndSort(lists ...[]Value) []Value {
	index := make(map[string]int)
	var out []Value
	for _, list := range lists {
		for _, v := range list {
			i, ok := index[v.Value]
			if !ok {
				index[v.Value] = len(out)
				out = append(out, v)
				continue
			}
			out[i].Count += v.Count
			if v.LastSeen.After(out[i].LastSeen) {
				out[i].LastSeen = v.LastSeen
			}
		}
	}

	versions := make(map[string]*semver.Version, len(out))
	for _, v := range out {
		if ver, err := semver.StrictNewVersion(v.Value); err == nil {
			versions[v.Value] = ver
		}
	}

	slices.SortFunc(out, func(a, b Value) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := b.LastSeen.Compare(a.LastSeen); c != 0 {
			return c
		}
		va, vb := versions[a.Value], versions[b.Value]
		switch {
		case va != nil && vb != nil:
			if c := vb.Compare(va); c != 0 {
				return c
			}
		case va != nil:
			return -1
		case vb != nil:
			return 1
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return out
}
