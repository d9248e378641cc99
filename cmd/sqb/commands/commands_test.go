package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/sqb/search/editor"
	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/suggest"
)

// testEnv is an isolated config file and database shared by a test's commands
type testEnv struct {
	t      *testing.T
	config string
	db     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	pterm.DisableStyling()

	dir := t.TempDir()
	config := filepath.Join(dir, "am.toml")
	require.NoError(t, os.WriteFile(config, []byte(`
[suggest]
debounce_ms = 0
cache_ttl_seconds = 0
datasets = ["errors"]
`), 0644))

	return &testEnv{t: t, config: config, db: filepath.Join(dir, "sqb.db")}
}

// run executes sqb with args and returns what the command wrote to stdout
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	require.NoError(e.t, err, out)
	return out
}

func TestParseCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("parse", "message:timeout", `"disk full"`)
	assert.Contains(t, out, "message:timeout")
	assert.Contains(t, out, `Canonical: message:timeout "disk full"`)
	assert.Contains(t, out, "Query is valid")

	out = env.mustRun("parse", "unknown.key:x")
	assert.Contains(t, out, "Canonical: unknown.key:x")
	assert.NotContains(t, out, "Query is valid")
}

func TestParseCommand_JSON(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("parse", "--json", "message:timeout", "foo")

	var resp struct {
		Canonical   string            `json:"canonical"`
		Diagnostics []json.RawMessage `json:"diagnostics"`
		ParseState  struct {
			Filters int  `json:"filters"`
			Valid   bool `json:"valid"`
		} `json:"parse_state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "message:timeout foo", resp.Canonical)
	assert.Empty(t, resp.Diagnostics)
	assert.Equal(t, 1, resp.ParseState.Filters)
	assert.True(t, resp.ParseState.Valid)
}

func TestRecordAndValues(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("record", "errors", "browser", "Chrome")
	assert.Contains(t, out, "Recorded browser:Chrome in errors")
	env.mustRun("record", "errors", "browser", "Chrome", "--seen-at", "2025-01-15T10:00:00Z")
	env.mustRun("record", "errors", "browser", "Firefox")

	out = env.mustRun("values", "browser", "chr")
	assert.Contains(t, out, "Chrome")
	assert.NotContains(t, out, "Firefox")

	out = env.mustRun("values", "--json", "browser")
	var values []suggest.Value
	require.NoError(t, json.Unmarshal([]byte(out), &values), out)
	require.Len(t, values, 2)
	assert.Equal(t, "Chrome", values[0].Value)
	assert.Equal(t, int64(2), values[0].Count)

	// predefined values never touch the store
	out = env.mustRun("values", "--json", "is", "un")
	require.NoError(t, json.Unmarshal([]byte(out), &values), out)
	require.NotEmpty(t, values)
	for _, v := range values {
		assert.Contains(t, v.Value, "un")
	}
}

func TestRecordCommand_BadSeenAt(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("record", "errors", "browser", "Chrome", "--seen-at", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --seen-at")
}

func TestValuesCommand_UnknownKey(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("values", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown filter key")
}

func TestKeysCommand(t *testing.T) {
	env := newTestEnv(t)
	env.mustRun("record", "errors", "level", "error")

	out := env.mustRun("keys")
	assert.Contains(t, out, "Event Filters")
	assert.Contains(t, out, "Event Tags")
	assert.Contains(t, out, "release.version")

	out = env.mustRun("keys", "--json")
	var resp struct {
		Sections []keys.Section `json:"sections"`
		Keys     []keys.KeyMeta `json:"keys"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Len(t, resp.Keys, len(keys.DefaultEventFields())+1)

	var tags []string
	for _, s := range resp.Sections {
		if s.Label == "Event Tags" {
			tags = s.Children
		}
	}
	assert.Equal(t, []string{"level"}, tags)
}

func TestEditCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("edit", "level:error foo", "replace 1 message:timeout", "commit")
	assert.Contains(t, out, "start: level:error foo")
	assert.Contains(t, out, "[1] foo")
	assert.Contains(t, out, "replace 1 message:timeout: level:error message:timeout")
	assert.Contains(t, out, `search: "level:error message:timeout"`)
	assert.NotContains(t, out, "rejected")
}

func TestEditCommand_QuotedText(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("edit", "level:error message:x", `insert 1 "timed out"`)
	assert.Contains(t, out, `level:error "timed out" message:x`)
}

func TestEditCommand_Rejected(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("edit", "level:a level:b level:c )", "replace 0 (")
	assert.Contains(t, out, "✗ replace 0 (")
	assert.Contains(t, out, "1 edit(s) rejected")

	_, err := env.run("edit", "--strict", "level:a level:b level:c )", "replace 0 (")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edit rejected")
}

func TestEditCommand_BadAction(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("edit", "a b", "replace x foo")
	assert.Error(t, err)

	_, err = env.run("edit", "a b", `replace 0 "unterminated`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot split action")
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("version", "--json")
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info), out)
	assert.NotEmpty(t, info)
}

func TestAmShowCommand(t *testing.T) {
	env := newTestEnv(t)

	out := env.mustRun("am", "show", "--format", "json")
	var cfg struct {
		Suggest struct {
			DebounceMs int      `json:"debounce_ms"`
			Datasets   []string `json:"datasets"`
		} `json:"suggest"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &cfg), out)
	assert.Equal(t, 0, cfg.Suggest.DebounceMs)
	assert.Equal(t, []string{"errors"}, cfg.Suggest.Datasets)

	out = env.mustRun("am", "show", "--format", "toml")
	assert.Contains(t, out, "[suggest]")

	out = env.mustRun("am", "show", "--format", "yaml")
	assert.Contains(t, out, "suggest:")

	_, err := env.run("am", "show", "--format", "xml")
	assert.Error(t, err)
}

func TestParseEditAction(t *testing.T) {
	action, err := parseEditAction(`replace 2 "a b"`)
	require.NoError(t, err)
	assert.Equal(t, editor.ReplaceToken{Index: 2, Text: `"a b"`}, action)

	action, err = parseEditAction(`replace 0 message:\"a b\"`)
	require.NoError(t, err)
	assert.Equal(t, editor.ReplaceToken{Index: 0, Text: `message:"a b"`}, action)

	_, err = parseEditAction("")
	assert.Error(t, err)
}
