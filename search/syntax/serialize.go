package syntax

import "strings"

// Serialize renders tokens as a whitespace-normalized query: token texts
// joined by one space, groups wrapped in parens without inner padding.
func Serialize(tokens []Token) string {
	var b strings.Builder
	s := serializer{b: &b}
	for i, tok := range tokens {
		if i > 0 {
			b.WriteByte(' ')
		}
		tok.Accept(s)
	}
	return b.String()
}

// Canonical returns the normalized text of a single token
func Canonical(tok Token) string {
	return Serialize([]Token{tok})
}

type serializer struct {
	b *strings.Builder
}

func (s serializer) VisitFreeText(t *FreeText)    { s.b.WriteString(t.Text) }
func (s serializer) VisitFilter(t *Filter)        { s.b.WriteString(t.Raw) }
func (s serializer) VisitBoolean(t *LogicBoolean) { s.b.WriteString(t.Raw) }
func (s serializer) VisitGroup(t *LogicGroup) {
	s.b.WriteByte('(')
	s.b.WriteString(Serialize(t.Children))
	s.b.WriteByte(')')
}

// Equivalent reports whether a and b have the same structure: the same
// kinds in the same order, with equal canonical text and filter state.
func Equivalent(a, b []Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !SameToken(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SameToken reports whether two tokens are structurally equal
func SameToken(a, b Token) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *LogicGroup:
		return Equivalent(x.Children, b.(*LogicGroup).Children)
	case *Filter:
		y := b.(*Filter)
		return x.Raw == y.Raw && x.State == y.State && x.Reason == y.Reason
	}
	return Canonical(a) == Canonical(b)
}
