// Package syntax parses search queries into typed tokens.
//
// A query is a sequence of free text, key:value filters, AND/OR operators and
// parenthesized groups:
//
//	level:error !browser:Firefox (release:1.2.0 OR release:latest) "timed out"
//
// Parsing is total: every string produces a ParseResult. Malformed input
// degrades to free text or to filters marked invalid/unsupported.
package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options adjusts parsing
type Options struct {
	// DisallowFreeText marks every FreeText token invalid
	DisallowFreeText bool
}

// ParseResult is the parsed form of a query. It is never mutated after Parse
// returns; edits produce a new result.
type ParseResult struct {
	Source string  `json:"source"`
	Tokens []Token `json:"tokens"`
}

// String returns the exact source the result was parsed from
func (r *ParseResult) String() string {
	return r.Source
}

// Serialize returns the whitespace-normalized query
func (r *ParseResult) Serialize() string {
	return Serialize(r.Tokens)
}

// Filters returns every filter, including those nested in groups
func (r *ParseResult) Filters() []*Filter {
	return Filters(r.Tokens)
}

// Valid reports whether no token is invalid or unsupported
func (r *ParseResult) Valid() bool {
	valid := true
	Walk(r.Tokens, func(tok Token) bool {
		switch t := tok.(type) {
		case *Filter:
			valid = valid && t.State == StateValid
		case *FreeText:
			valid = valid && !t.Invalid
		}
		return valid
	})
	return valid
}

// Parse tokenizes and parses q against reg
func Parse(q string, reg KeyLookup, opts Options) *ParseResult {
	return ParseSpans(q, Tokenize(q), reg, opts)
}

// ParseSpans parses the spans produced by Tokenize(src).
// Parenthesized regions are parsed recursively into LogicGroups.
func ParseSpans(src string, spans []LexSpan, reg KeyLookup, opts Options) *ParseResult {
	p := &parser{src: src, spans: spans, reg: reg, opts: opts}
	return &ParseResult{Source: src, Tokens: p.sequence(0, len(spans))}
}

type parser struct {
	src   string
	spans []LexSpan
	reg   KeyLookup
	opts  Options
}

// item is a token before boolean resolution and free-text merging
type item struct {
	tok       Token
	candidate bool // AND/OR not yet confirmed as an operator
	span      LexSpan
}

func (p *parser) sequence(lo, hi int) []Token {
	var items []item
	for i := lo; i < hi; i++ {
		span := p.spans[i]
		switch span.Kind {
		case SpanOpenParen:
			end := span.Match
			if end <= i || end >= hi {
				// Pairing always nests; treat anything else as text
				items = append(items, item{tok: p.freeText(span), span: span})
				continue
			}
			closing := p.spans[end]
			rng := Range{Start: span.Range.Start, End: closing.Range.End}
			items = append(items, item{tok: &LogicGroup{
				Children: p.sequence(i+1, end),
				Raw:      p.src[rng.Start.Offset:rng.End.Offset],
				Range:    rng,
			}, span: span})
			i = end

		case SpanBoolean:
			items = append(items, item{tok: p.freeText(span), candidate: true, span: span})

		case SpanWord, SpanQuotedWord:
			if f := p.filter(span); f != nil {
				items = append(items, item{tok: f, span: span})
				continue
			}
			items = append(items, item{tok: p.freeText(span), span: span})

		default:
			// A close paren reached here has no partner inside this region
			items = append(items, item{tok: p.freeText(span), span: span})
		}
	}

	return p.mergeFreeText(p.resolveBooleans(items))
}

// resolveBooleans confirms AND/OR candidates that sit between two
// non-candidate operands. The rest stay free text.
func (p *parser) resolveBooleans(items []item) []item {
	for i := range items {
		if !items[i].candidate {
			continue
		}
		if i == 0 || i == len(items)-1 || items[i-1].candidate || items[i+1].candidate {
			continue
		}
		span := items[i].span
		op := OpAnd
		if strings.EqualFold(span.Raw, string(OpOr)) {
			op = OpOr
		}
		items[i].tok = &LogicBoolean{Op: op, Raw: span.Raw, Range: span.Range}
	}
	return items
}

// mergeFreeText joins runs of adjacent FreeText into one token
func (p *parser) mergeFreeText(items []item) []Token {
	tokens := make([]Token, 0, len(items))
	for _, it := range items {
		ft, ok := it.tok.(*FreeText)
		if !ok {
			tokens = append(tokens, it.tok)
			continue
		}
		if n := len(tokens); n > 0 {
			if prev, ok := tokens[n-1].(*FreeText); ok {
				tokens[n-1] = p.joinFreeText(prev, ft)
				continue
			}
		}
		tokens = append(tokens, ft)
	}
	return tokens
}

func (p *parser) joinFreeText(a, b *FreeText) *FreeText {
	sep := ""
	if b.Range.Start.Offset > a.Range.End.Offset {
		sep = " "
	}
	rng := Range{Start: a.Range.Start, End: b.Range.End}
	return &FreeText{
		Text:    a.Text + sep + b.Text,
		Raw:     p.src[rng.Start.Offset:rng.End.Offset],
		Quoted:  a.Quoted || b.Quoted,
		Invalid: a.Invalid || b.Invalid,
		Reason:  a.Reason,
		Range:   rng,
	}
}

func (p *parser) freeText(span LexSpan) *FreeText {
	ft := &FreeText{
		Text:   span.Raw,
		Raw:    span.Raw,
		Quoted: span.Kind == SpanQuotedWord,
		Range:  span.Range,
	}
	if p.opts.DisallowFreeText {
		ft.Invalid = true
		ft.Reason = ReasonFreeTextNotAllowed
	}
	return ft
}

// filter returns a classified Filter when span is filter-shaped, nil otherwise
func (p *parser) filter(span LexSpan) *Filter {
	raw := span.Raw
	colon := filterColon(raw)
	if colon < 0 {
		return nil
	}

	keyPart := raw[:colon]
	negated := strings.HasPrefix(keyPart, "!")
	key := strings.TrimPrefix(keyPart, "!")
	if !IsKeyName(key) {
		return nil
	}

	keyStart := span.Range.Start
	if negated {
		keyStart = keyStart.Advance("!")
	}
	keyEnd := keyStart.Advance(key)

	rest := raw[colon+1:]
	var op string
	if !strings.HasPrefix(rest, `"`) {
		op = operatorPrefix(rest)
	}
	valueRaw := rest[len(op):]
	valueStart := keyEnd.Advance(":" + op)

	f := &Filter{
		Key:        key,
		Operator:   op,
		Negated:    negated,
		KeyRange:   Range{Start: keyStart, End: keyEnd},
		ValueRange: Range{Start: valueStart, End: span.Range.End},
		Range:      span.Range,
		Raw:        raw,
	}

	switch {
	case isWholeQuoted(valueRaw):
		f.Quoted = true
		f.Value = Unquote(valueRaw)
	case isListValue(valueRaw):
		f.Value = valueRaw
		f.Values = splitList(valueRaw[1 : len(valueRaw)-1])
	default:
		f.Value = Unquote(valueRaw)
		f.Wildcard = strings.Contains(valueRaw, "*")
	}

	return Classify(f, p.reg)
}

// filterColon returns the offset of the first colon outside quotes and not
// escaped with a backslash, or -1
func filterColon(raw string) int {
	inQuote := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			i++
		case '"':
			if inQuote || closingQuote(raw, i+1) >= 0 {
				inQuote = !inQuote
			}
		case ':':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

// IsKeyName reports whether s can be a filter key: a letter, digit or
// underscore followed by letters, digits and _ . - [ ] @
func IsKeyName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r >= utf8.RuneSelf {
			return false
		}
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		case i > 0 && strings.ContainsRune(".-[]@", r):
		default:
			return false
		}
	}
	return true
}

// operatorPrefix returns the comparison operator value starts with, if any
func operatorPrefix(value string) string {
	for _, op := range []string{">=", "<=", ">", "<"} {
		if strings.HasPrefix(value, op) {
			return op
		}
	}
	return ""
}

// isWholeQuoted reports whether s is exactly one terminated quoted segment
func isWholeQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && closingQuote(s, 1) == len(s)-1
}
