package keys

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.toml")
	content := `
[[keys]]
key = "release.version"
kind = "event_field"
value_type = "version"

[[keys]]
key = "level"
values = ["error", "warning", "info"]
total_values = 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	metas, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "release.version", metas[0].Key)
	assert.Equal(t, ValueVersion, metas[0].ValueType)
	assert.Equal(t, []string{"error", "warning", "info"}, metas[1].Values)
	assert.Equal(t, 3, metas[1].TotalValues)
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yml")
	content := `keys:
  - key: transaction.duration
    kind: event_field
    value_type: duration
  - key: browser
    aliases: [browser.name]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	metas, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, metas, 2)

	reg := New(metas)
	meta, ok := reg.Lookup("browser.name")
	require.True(t, ok)
	assert.Equal(t, "browser", meta.Key)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"unknown format", ".json", `{}`},
		{"missing key", ".toml", "[[keys]]\nvalue_type = \"text\"\n"},
		{"bad value type", ".toml", "[[keys]]\nkey = \"a\"\nvalue_type = \"colour\"\n"},
		{"bad kind", ".yaml", "keys:\n  - key: a\n    kind: metric\n"},
		{"unknown field", ".toml", "[[keys]]\nkey = \"a\"\nbogus = 1\n"},
		{"malformed yaml", ".yaml", "keys: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.ext, []byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := []KeyMeta{{Key: "a", Name: "A"}, {Key: "b", Name: "B"}}
	extra := []KeyMeta{{Key: "b", Name: "B2"}, {Key: "c", Name: "C"}}

	got := Merge(base, extra)
	require.Len(t, got, 3)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "B2", got[1].Name)
	assert.Equal(t, "C", got[2].Name)
	assert.Equal(t, "B", base[1].Name, "base is not modified")
}

func TestEventFields(t *testing.T) {
	fields, err := EventFields("")
	require.NoError(t, err)
	assert.Equal(t, DefaultEventFields(), fields)

	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keys:\n  - key: custom.score\n    kind: event_field\n    value_type: number\n"), 0644))

	fields, err = EventFields(path)
	require.NoError(t, err)
	assert.Len(t, fields, len(DefaultEventFields())+1)
	assert.Equal(t, "custom.score", fields[len(fields)-1].Key)

	_, err = EventFields(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
