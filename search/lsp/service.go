// Package lsp provides Language Server Protocol-inspired language intelligence
// for search queries: semantic tokens, diagnostics, completions and hover.
// The server package adapts it to the LSP wire protocol over WebSocket.
package lsp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/suggest"
	"github.com/teranos/sqb/search/syntax"
)

// Service provides language intelligence for search queries
type Service struct {
	keys   *keys.Holder
	values *suggest.Orchestrator
	opts   syntax.Options
}

// NewService creates a language service over the published key registry.
// values may be nil, in which case no value completions are offered.
func NewService(holder *keys.Holder, values *suggest.Orchestrator, opts syntax.Options) *Service {
	return &Service{
		keys:   holder,
		values: values,
		opts:   opts,
	}
}

// Registry returns the registry the service currently parses against
func (s *Service) Registry() *keys.Registry {
	return s.keys.Load()
}

// Parse analyzes a query and returns semantic tokens with diagnostics.
// cursor is a byte offset; out-of-range values are clamped.
func (s *Service) Parse(ctx context.Context, query string, cursor int) (*ParseResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := syntax.Parse(query, s.keys.Load(), s.opts)

	diagnostics := []Diagnostic{}
	for _, d := range syntax.Diagnose(result) {
		diagnostics = append(diagnostics, Diagnostic{
			Range:       d.Range,
			Severity:    string(d.Severity),
			Kind:        d.Kind,
			Reason:      d.Reason,
			Message:     d.Message,
			Suggestions: d.Suggestions,
		})
	}

	tokens := syntax.SemanticTokens(result)
	if tokens == nil {
		tokens = []syntax.SemanticToken{}
	}

	return &ParseResponse{
		Tokens:      tokens,
		Diagnostics: diagnostics,
		ParseState:  parseState(result, cursor),
		Canonical:   result.Serialize(),
	}, nil
}

// parseState locates the cursor within the parsed query
func parseState(result *syntax.ParseResult, cursor int) *ParseState {
	query := result.Source
	cursor = min(max(cursor, 0), len(query))

	state := &ParseState{
		Context:    ContextKey,
		TokenIndex: -1,
		Filters:    len(result.Filters()),
		Valid:      result.Valid(),
	}

	tok, index := tokenAt(result.Tokens, cursor)
	state.TokenIndex = index

	if f, ok := tok.(*syntax.Filter); ok && cursor > f.KeyRange.End.Offset {
		state.Context = ContextValue
		state.Key = f.Key
		state.Negated = f.Negated
		if cursor >= f.ValueRange.Start.Offset {
			state.Prefix = strings.TrimPrefix(query[f.ValueRange.Start.Offset:cursor], `"`)
		}
		return state
	}

	prefix := extractPrefix(query, cursor)
	if strings.HasPrefix(prefix, "!") {
		state.Negated = true
		prefix = prefix[1:]
	}
	state.Prefix = prefix
	return state
}

// tokenAt returns the innermost token touching cursor and the index of the
// top-level token containing it, or nil and -1 between tokens.
func tokenAt(tokens []syntax.Token, cursor int) (syntax.Token, int) {
	for i, tok := range tokens {
		if !tok.Span().Contains(cursor) {
			continue
		}
		inner := tok
		for {
			g, ok := inner.(*syntax.LogicGroup)
			if !ok {
				break
			}
			child, ci := tokenAt(g.Children, cursor)
			if ci < 0 {
				break
			}
			inner = child
		}
		return inner, i
	}
	return nil, -1
}

// GetCompletions returns context-aware completions: values of the filter
// under the cursor, or keys and AND/OR between tokens.
func (s *Service) GetCompletions(ctx context.Context, req CompletionRequest) ([]CompletionItem, error) {
	parseResp, err := s.Parse(ctx, req.Query, req.Cursor)
	if err != nil {
		return nil, err
	}
	state := parseResp.ParseState

	if state.Context == ContextValue {
		return s.valueCompletions(ctx, state.Key, state.Prefix), nil
	}

	items := s.keyCompletions(state.Prefix, state.Negated)
	if !state.Negated && s.acceptsBoolean(req.Query, req.Cursor, state.Prefix) {
		items = append(items, keywordCompletions(state.Prefix)...)
	}
	return items, nil
}

func (s *Service) keyCompletions(prefix string, negated bool) []CompletionItem {
	reg := s.keys.Load()
	lower := strings.ToLower(prefix)
	items := []CompletionItem{}

	for si, section := range reg.Sections() {
		for ki, key := range section.Children {
			meta, ok := reg.Lookup(key)
			if !ok || (negated && meta.DisallowNegation) || !matchesKey(meta, lower) {
				continue
			}
			insert := key + ":"
			if negated {
				insert = "!" + insert
			}
			items = append(items, CompletionItem{
				Label:         key,
				Kind:          CompletionKey,
				InsertText:    insert,
				Detail:        fmt.Sprintf("%s · %s", section.Label, meta.ValueType),
				Documentation: meta.Description,
				SortText:      fmt.Sprintf("%d%04d", si, ki),
			})
		}
	}
	return items
}

func matchesKey(meta keys.KeyMeta, lowerPrefix string) bool {
	if strings.HasPrefix(strings.ToLower(meta.Key), lowerPrefix) ||
		strings.HasPrefix(strings.ToLower(meta.Name), lowerPrefix) {
		return true
	}
	for _, alias := range meta.Aliases {
		if strings.HasPrefix(strings.ToLower(alias), lowerPrefix) {
			return true
		}
	}
	return false
}

func (s *Service) valueCompletions(ctx context.Context, key, prefix string) []CompletionItem {
	items := []CompletionItem{}
	if s.values == nil {
		return items
	}
	for value := range s.values.GetValues(ctx, key, prefix) {
		items = append(items, CompletionItem{
			Label:      value,
			Kind:       CompletionValue,
			InsertText: syntax.Quote(value),
			Detail:     key,
			SortText:   fmt.Sprintf("%04d", len(items)),
		})
	}
	return items
}

// acceptsBoolean reports whether an operator may be typed at the cursor:
// there is an operand before the current word and it is not already an operator.
func (s *Service) acceptsBoolean(query string, cursor int, prefix string) bool {
	cursor = min(max(cursor, 0), len(query))
	wordStart := cursor - len(prefix)
	before := syntax.Parse(query[:max(wordStart, 0)], nil, syntax.Options{})
	if len(before.Tokens) == 0 {
		return false
	}
	last := before.Tokens[len(before.Tokens)-1]
	if last.Kind() == syntax.KindBoolean {
		return false
	}
	// a trailing AND/OR is free text until something follows it
	if ft, ok := last.(*syntax.FreeText); ok {
		fields := strings.Fields(ft.Text)
		if len(fields) > 0 && isOperatorWord(fields[len(fields)-1]) {
			return false
		}
	}
	return true
}

func isOperatorWord(w string) bool {
	return strings.EqualFold(w, string(syntax.OpAnd)) || strings.EqualFold(w, string(syntax.OpOr))
}

func keywordCompletions(prefix string) []CompletionItem {
	keywords := []struct {
		op   syntax.BooleanOp
		desc string
	}{
		{syntax.OpAnd, "Both sides must match"},
		{syntax.OpOr, "Either side may match"},
	}

	var items []CompletionItem
	upper := strings.ToUpper(prefix)
	for i, kw := range keywords {
		if strings.HasPrefix(string(kw.op), upper) {
			items = append(items, CompletionItem{
				Label:         string(kw.op),
				Kind:          CompletionKeyword,
				InsertText:    string(kw.op),
				Detail:        kw.desc,
				Documentation: fmt.Sprintf("Search operator: %s", kw.desc),
				SortText:      fmt.Sprintf("9%04d", i),
			})
		}
	}
	return items
}

// Hover describes the token under the cursor, or returns nil between tokens
func (s *Service) Hover(ctx context.Context, query string, cursor int) (*Hover, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := syntax.Parse(query, s.keys.Load(), s.opts)
	tok, _ := tokenAt(result.Tokens, min(max(cursor, 0), len(query)))

	switch t := tok.(type) {
	case *syntax.Filter:
		return &Hover{Contents: s.filterHover(t), Range: t.Range}, nil
	case *syntax.FreeText:
		text := fmt.Sprintf("Free text search for `%s`", t.Text)
		if t.Invalid {
			text += "\n\nFree text is not allowed in this search"
		}
		return &Hover{Contents: text, Range: t.Range}, nil
	case *syntax.LogicBoolean:
		desc := "Both sides must match"
		if t.Op == syntax.OpOr {
			desc = "Either side may match"
		}
		return &Hover{Contents: fmt.Sprintf("**%s** · %s", t.Op, desc), Range: t.Range}, nil
	case *syntax.LogicGroup:
		return &Hover{Contents: fmt.Sprintf("Group of %d terms", len(t.Children)), Range: t.Range}, nil
	}
	return nil, nil
}

func (s *Service) filterHover(f *syntax.Filter) string {
	meta, ok := s.keys.Lookup(f.Key)
	if !ok {
		return fmt.Sprintf("**%s** · unknown filter key", f.Key)
	}

	kind := "tag"
	if meta.Kind == keys.FieldKindEventField {
		kind = "event field"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**%s** · %s · %s", meta.Key, kind, meta.ValueType)
	if meta.Key != f.Key {
		fmt.Fprintf(&b, " (alias %s)", f.Key)
	}
	if meta.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", meta.Description)
	}

	if !f.Valid() {
		fmt.Fprintf(&b, "\n\n%s", syntax.ReasonMessage(f))
		return b.String()
	}
	switch meta.ValueType {
	case keys.ValueDate:
		if at, err := syntax.ResolveDate(f.Value); err == nil {
			fmt.Fprintf(&b, "\n\n%s `%s`", comparisonPhrase(f.Operator), at.UTC().Format(time.RFC3339))
		}
	case keys.ValueDuration:
		if d, err := syntax.ResolveDuration(f.Value); err == nil {
			fmt.Fprintf(&b, "\n\nDuration `%s%s`", f.Operator, d)
		}
	}
	return b.String()
}

func comparisonPhrase(op string) string {
	switch op {
	case ">":
		return "After"
	case ">=":
		return "At or after"
	case "<":
		return "Before"
	case "<=":
		return "At or before"
	}
	return "Equal to"
}

// extractPrefix gets the word being typed at cursor position
func extractPrefix(query string, cursor int) string {
	if cursor > len(query) {
		cursor = len(query)
	}

	start := cursor
	for start > 0 && !isWhitespace(query[start-1]) && query[start-1] != '(' {
		start--
	}

	return query[start:cursor]
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n'
}
