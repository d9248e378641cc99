package lsp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqbtest "github.com/teranos/sqb/internal/testing"
	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/storage"
	"github.com/teranos/sqb/search/suggest"
	"github.com/teranos/sqb/search/syntax"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	store := storage.NewTagStore(sqbtest.CreateTestDB(t))

	now := time.Now()
	require.NoError(t, store.RecordBatch(ctx, "errors", []storage.Observation{
		{Key: "browser", Value: "Chrome", SeenAt: now},
		{Key: "browser", Value: "Chrome", SeenAt: now},
		{Key: "browser", Value: "Chrome Mobile", SeenAt: now},
		{Key: "browser", Value: "Firefox", SeenAt: now},
		{Key: "level", Value: "error", SeenAt: now},
	}))

	tags, err := store.TagKeys(ctx, "")
	require.NoError(t, err)
	holder := keys.NewHolder(keys.Build(tags, keys.DefaultEventFields(), nil))

	values := suggest.New(holder, store.Sources([]string{"errors"}, 0), suggest.Options{})
	return NewService(holder, values, syntax.Options{})
}

func labels(items []CompletionItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Label
	}
	return out
}

func TestParse_ValidQuery(t *testing.T) {
	svc := setupService(t)

	resp, err := svc.Parse(context.Background(), "level:error   foo", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Tokens)
	assert.Empty(t, resp.Diagnostics)
	assert.True(t, resp.ParseState.Valid)
	assert.Equal(t, 1, resp.ParseState.Filters)
	assert.Equal(t, "level:error foo", resp.Canonical)
}

func TestParse_Diagnostics(t *testing.T) {
	svc := setupService(t)

	resp, err := svc.Parse(context.Background(), "unknownkey:x timestamp:yesterday", 0)
	require.NoError(t, err)
	require.Len(t, resp.Diagnostics, 2)

	assert.Equal(t, "warning", resp.Diagnostics[0].Severity)
	assert.Equal(t, syntax.KindUnknownKey, resp.Diagnostics[0].Kind)
	assert.Equal(t, "error", resp.Diagnostics[1].Severity)
	assert.Equal(t, syntax.KindInvalidValue, resp.Diagnostics[1].Kind)
	assert.False(t, resp.ParseState.Valid)
}

func TestParse_CancelledContext(t *testing.T) {
	svc := setupService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Parse(ctx, "level:error", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseState(t *testing.T) {
	svc := setupService(t)

	tests := []struct {
		name    string
		query   string
		cursor  int
		context string
		key     string
		prefix  string
		negated bool
		index   int
	}{
		{"empty query", "", 0, ContextKey, "", "", false, -1},
		{"typing a key", "lev", 3, ContextKey, "", "lev", false, 0},
		{"typing a value", "browser:chr", 11, ContextValue, "browser", "chr", false, 0},
		{"value after operator", "timestamp:>-1", 13, ContextValue, "timestamp", "-1", false, 0},
		{"empty value", "level:", 6, ContextValue, "level", "", false, 0},
		{"quoted value", `browser:"Chr`, 12, ContextValue, "browser", "Chr", false, 0},
		{"negated key", "foo !bro", 8, ContextKey, "", "bro", true, 0},
		{"between tokens", "level:error  foo", 12, ContextKey, "", "", false, -1},
		{"inside group", "(level:error OR browser:fi)", 26, ContextValue, "browser", "fi", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Parse(context.Background(), tt.query, tt.cursor)
			require.NoError(t, err)
			state := resp.ParseState
			assert.Equal(t, tt.context, state.Context)
			assert.Equal(t, tt.key, state.Key)
			assert.Equal(t, tt.prefix, state.Prefix)
			assert.Equal(t, tt.negated, state.Negated)
			assert.Equal(t, tt.index, state.TokenIndex)
		})
	}
}

func TestGetCompletions_Keys(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	items, err := svc.GetCompletions(ctx, CompletionRequest{Query: "tim", Cursor: 3})
	require.NoError(t, err)
	require.Equal(t, []string{"timestamp"}, labels(items))
	assert.Equal(t, "timestamp:", items[0].InsertText)
	assert.Equal(t, CompletionKey, items[0].Kind)

	items, err = svc.GetCompletions(ctx, CompletionRequest{Query: "", Cursor: 0})
	require.NoError(t, err)
	assert.Len(t, items, len(keys.DefaultEventFields())+2, "all keys, no operators at the start")
	assert.Equal(t, "device.battery_level", items[0].Label, "event fields sort first")
	assert.Less(t, items[0].SortText, items[len(items)-1].SortText)
	assert.Equal(t, "browser", items[len(items)-2].Label, "tags by value count")
}

func TestGetCompletions_AliasMatches(t *testing.T) {
	svc := setupService(t)

	items, err := svc.GetCompletions(context.Background(), CompletionRequest{Query: "event.ti", Cursor: 8})
	require.NoError(t, err)
	assert.Equal(t, []string{"timestamp"}, labels(items))
}

func TestGetCompletions_NegatedKeys(t *testing.T) {
	svc := setupService(t)

	items, err := svc.GetCompletions(context.Background(), CompletionRequest{Query: "!i", Cursor: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, labels(items), "is cannot be negated")
	assert.Equal(t, "!id:", items[0].InsertText)
}

func TestGetCompletions_Values(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	items, err := svc.GetCompletions(ctx, CompletionRequest{Query: "browser:chr", Cursor: 11})
	require.NoError(t, err)
	require.Equal(t, []string{"Chrome", "Chrome Mobile"}, labels(items))
	assert.Equal(t, `"Chrome Mobile"`, items[1].InsertText)
	assert.Equal(t, "0000", items[0].SortText)

	items, err = svc.GetCompletions(ctx, CompletionRequest{Query: "is:un", Cursor: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"unresolved", "unassigned", "unlinked"}, labels(items))

	items, err = svc.GetCompletions(ctx, CompletionRequest{Query: "error.handled:", Cursor: 14})
	require.NoError(t, err)
	assert.Equal(t, []string{"true", "false"}, labels(items))
}

func TestGetCompletions_Operators(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	items, err := svc.GetCompletions(ctx, CompletionRequest{Query: "level:error A", Cursor: 13})
	require.NoError(t, err)
	assert.Contains(t, labels(items), "AND")
	assert.NotContains(t, labels(items), "OR")

	items, err = svc.GetCompletions(ctx, CompletionRequest{Query: "level:error AND ", Cursor: 16})
	require.NoError(t, err)
	assert.NotContains(t, labels(items), "AND")
	assert.NotContains(t, labels(items), "OR")

	items, err = svc.GetCompletions(ctx, CompletionRequest{Query: "level:error ", Cursor: 12})
	require.NoError(t, err)
	assert.Contains(t, labels(items), "OR")
}

func TestHover(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	h, err := svc.Hover(ctx, "timestamp:>-1h", 3)
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Contains(t, h.Contents, "**timestamp** · event field · date")
	assert.Contains(t, h.Contents, "After `")

	h, err = svc.Hover(ctx, "event.timestamp:2026-01-02", 3)
	require.NoError(t, err)
	assert.Contains(t, h.Contents, "(alias event.timestamp)")
	assert.Contains(t, h.Contents, "`2026-01-02T00:00:00Z`")

	h, err = svc.Hover(ctx, "transaction.duration:>1.5s", 0)
	require.NoError(t, err)
	assert.Contains(t, h.Contents, "Duration `>1.5s`")

	h, err = svc.Hover(ctx, "nope:1", 1)
	require.NoError(t, err)
	assert.Contains(t, h.Contents, "unknown filter key")

	h, err = svc.Hover(ctx, "count:abc", 1)
	require.NoError(t, err)
	assert.Contains(t, h.Contents, "unknown filter key")

	h, err = svc.Hover(ctx, "a OR b", 3)
	require.NoError(t, err)
	assert.Contains(t, h.Contents, "**OR**")

	h, err = svc.Hover(ctx, "level:error  foo", 12)
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestHover_InvalidValue(t *testing.T) {
	svc := setupService(t)

	h, err := svc.Hover(context.Background(), "device.battery_level:lots", 0)
	require.NoError(t, err)
	assert.Contains(t, h.Contents, "percentage")
	assert.Contains(t, h.Contents, syntax.ReasonMessage(syntax.Parse("device.battery_level:lots", svc.Registry(), syntax.Options{}).Filters()[0]))
}

func TestSemanticTypeIndex(t *testing.T) {
	assert.Equal(t, TokenTypeProperty, SemanticTypeIndex(syntax.SemanticKey))
	assert.Equal(t, TokenTypeOperator, SemanticTypeIndex(syntax.SemanticNegation))
	assert.Equal(t, TokenTypeString, SemanticTypeIndex(syntax.SemanticValue))
	assert.Equal(t, TokenTypeKeyword, SemanticTypeIndex(syntax.SemanticBoolean))
	assert.Equal(t, TokenTypeVariable, SemanticTypeIndex(syntax.SemanticFreeText))
	assert.Len(t, TokenTypeLegend, int(TokenTypeKeyword)+1)
}

func TestExtractPrefix(t *testing.T) {
	assert.Equal(t, "wor", extractPrefix("hello wor", 9))
	assert.Equal(t, "", extractPrefix("hello ", 6))
	assert.Equal(t, "lev", extractPrefix("(lev", 4))
	assert.Equal(t, "hello", extractPrefix("hello", 99))
}
