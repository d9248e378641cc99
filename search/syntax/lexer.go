package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SpanKind tags a lexical span
type SpanKind int

const (
	SpanWord       SpanKind = iota // bare word, or anything malformed
	SpanQuotedWord                 // word containing a terminated "quoted" segment
	SpanOpenParen                  // ( with a matching )
	SpanCloseParen                 // ) with a matching (
	SpanBoolean                    // AND / OR in any case
)

func (k SpanKind) String() string {
	switch k {
	case SpanWord:
		return "word"
	case SpanQuotedWord:
		return "quotedWord"
	case SpanOpenParen:
		return "openParen"
	case SpanCloseParen:
		return "closeParen"
	case SpanBoolean:
		return "booleanOperatorCandidate"
	}
	return "unknown"
}

// LexSpan is one lexical unit of a query
type LexSpan struct {
	Kind  SpanKind
	Raw   string // exact source text
	Value string // Raw with quote marks removed and \" \\ unescaped inside quotes
	Range Range
	Match int // index of the partner paren for SpanOpenParen/SpanCloseParen, -1 otherwise
}

// Tokenize splits raw into lexical spans. It never fails: anything malformed
// (unterminated quotes, unbalanced parens) degrades to SpanWord.
func Tokenize(raw string) []LexSpan {
	var spans []LexSpan
	tracker := NewPositionTracker(raw)

	i := 0
	for i < len(raw) {
		r, size := utf8.DecodeRuneInString(raw[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		start := tracker.AdvanceTo(i)
		switch r {
		case '(':
			i++
			spans = append(spans, LexSpan{Kind: SpanOpenParen, Raw: "(", Value: "(", Range: Range{start, tracker.AdvanceTo(i)}, Match: -1})
			continue
		case ')':
			i++
			spans = append(spans, LexSpan{Kind: SpanCloseParen, Raw: ")", Value: ")", Range: Range{start, tracker.AdvanceTo(i)}, Match: -1})
			continue
		}

		end, quoted := scanWord(raw, i)
		text := raw[i:end]
		kind := SpanWord
		switch {
		case quoted:
			kind = SpanQuotedWord
		case isBooleanWord(text):
			kind = SpanBoolean
		}
		spans = append(spans, LexSpan{
			Kind:  kind,
			Raw:   text,
			Value: Unquote(text),
			Range: Range{start, tracker.AdvanceTo(end)},
			Match: -1,
		})
		i = end
	}

	pairParens(spans)
	return spans
}

// scanWord returns the end offset of the word starting at i and whether it
// contains a terminated quoted segment
func scanWord(raw string, i int) (end int, quoted bool) {
	inQuote := false
	for i < len(raw) {
		c := raw[i]
		if inQuote {
			switch c {
			case '\\':
				if i+1 < len(raw) && (raw[i+1] == '"' || raw[i+1] == '\\') {
					i += 2
					continue
				}
			case '"':
				inQuote = false
				quoted = true
			}
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(raw[i:])
		if unicode.IsSpace(r) || r == '(' || r == ')' {
			return i, quoted
		}
		switch {
		case c == '\\' && i+1 < len(raw) && (raw[i+1] == '"' || raw[i+1] == '\\'):
			i += 2
			continue
		case c == '"' && closingQuote(raw, i+1) >= 0:
			inQuote = true
		}
		i += size
	}
	return i, quoted
}

// closingQuote returns the offset of the next unescaped quote at or after i, or -1
func closingQuote(raw string, i int) int {
	for i < len(raw) {
		switch raw[i] {
		case '\\':
			if i+1 < len(raw) && (raw[i+1] == '"' || raw[i+1] == '\\') {
				i += 2
				continue
			}
		case '"':
			return i
		}
		i++
	}
	return -1
}

// Unquote removes the quote marks of every terminated quoted segment in word
// and unescapes \" and \\. Unterminated quotes are kept literally.
func Unquote(word string) string {
	if !strings.ContainsAny(word, `"\`) {
		return word
	}
	var b strings.Builder
	b.Grow(len(word))
	inQuote := false
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c == '\\' && i+1 < len(word) && (word[i+1] == '"' || word[i+1] == '\\') {
			b.WriteByte(word[i+1])
			i++
			continue
		}
		if c == '"' {
			if inQuote {
				inQuote = false
				continue
			}
			if closingQuote(word, i+1) >= 0 {
				inQuote = true
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Quote makes value safe to use as a filter value: values that are empty or
// contain whitespace, quotes, backslashes or parens are wrapped in quotes.
func Quote(value string) string {
	if value != "" && strings.IndexFunc(value, unicode.IsSpace) < 0 && !strings.ContainsAny(value, `"\()`) {
		return value
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(value); i++ {
		if value[i] == '"' || value[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(value[i])
	}
	b.WriteByte('"')
	return b.String()
}

func isBooleanWord(s string) bool {
	return strings.EqualFold(s, "AND") || strings.EqualFold(s, "OR")
}

// pairParens matches parens with a depth stack. Strays on either side become words.
func pairParens(spans []LexSpan) {
	var stack []int
	for i := range spans {
		switch spans[i].Kind {
		case SpanOpenParen:
			stack = append(stack, i)
		case SpanCloseParen:
			if len(stack) == 0 {
				spans[i].Kind = SpanWord
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			spans[open].Match = i
			spans[i].Match = open
		}
	}
	for _, open := range stack {
		spans[open].Kind = SpanWord
	}
}
