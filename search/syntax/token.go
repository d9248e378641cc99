package syntax

import "github.com/teranos/sqb/search/keys"

// TokenKind names the four token variants
type TokenKind string

const (
	KindFreeText TokenKind = "free_text"
	KindFilter   TokenKind = "filter"
	KindBoolean  TokenKind = "boolean"
	KindGroup    TokenKind = "group"
)

// Token is a parsed query element. The set of implementations is closed:
// *FreeText, *Filter, *LogicBoolean and *LogicGroup.
type Token interface {
	Kind() TokenKind
	Span() Range
	Source() string
	// Accept calls the Visitor method matching the concrete token type
	Accept(v Visitor)
	sealed()
}

// Visitor handles every token variant. Adding a variant adds a method here,
// which breaks every implementation until it handles the new case.
type Visitor interface {
	VisitFreeText(t *FreeText)
	VisitFilter(t *Filter)
	VisitBoolean(t *LogicBoolean)
	VisitGroup(t *LogicGroup)
}

// FilterState is the classifier's verdict on a filter
type FilterState string

const (
	StateValid       FilterState = "valid"
	StateInvalid     FilterState = "invalid"
	StateUnsupported FilterState = "unsupported"
)

// FreeText is unstructured search text. Adjacent words merge into one token.
type FreeText struct {
	Text    string      `json:"text"` // words joined by single spaces
	Raw     string      `json:"raw"`
	Quoted  bool        `json:"quoted,omitempty"`
	Invalid bool        `json:"invalid,omitempty"`
	Reason  InvalidCode `json:"reason,omitempty"`
	Range   Range       `json:"range"`
}

// Filter is a key:value clause
type Filter struct {
	Key        string         `json:"key"`
	Operator   string         `json:"operator,omitempty"` // one of > >= < <=, or empty
	Value      string         `json:"value"`              // unquoted value after the operator
	Values     []string       `json:"values,omitempty"`   // elements of a [a,b] list value
	Quoted     bool           `json:"quoted,omitempty"`
	Wildcard   bool           `json:"wildcard,omitempty"`
	Negated    bool           `json:"negated,omitempty"`
	ValueType  keys.ValueType `json:"value_type,omitempty"`
	FieldKind  keys.FieldKind `json:"field_kind,omitempty"`
	State      FilterState    `json:"state"`
	Reason     InvalidCode    `json:"reason,omitempty"`
	KeyRange   Range          `json:"key_range"`
	ValueRange Range          `json:"value_range"` // excludes the operator
	Range      Range          `json:"range"`
	Raw        string         `json:"raw"`
}

// BooleanOp is AND or OR
type BooleanOp string

const (
	OpAnd BooleanOp = "AND"
	OpOr  BooleanOp = "OR"
)

// LogicBoolean is an AND/OR between two operands
type LogicBoolean struct {
	Op    BooleanOp `json:"op"`
	Raw   string    `json:"raw"`
	Range Range     `json:"range"`
}

// LogicGroup is a parenthesized sub-expression
type LogicGroup struct {
	Children []Token `json:"children"`
	Raw      string  `json:"raw"`
	Range    Range   `json:"range"`
}

func (t *FreeText) Kind() TokenKind     { return KindFreeText }
func (t *Filter) Kind() TokenKind       { return KindFilter }
func (t *LogicBoolean) Kind() TokenKind { return KindBoolean }
func (t *LogicGroup) Kind() TokenKind   { return KindGroup }

func (t *FreeText) Span() Range     { return t.Range }
func (t *Filter) Span() Range       { return t.Range }
func (t *LogicBoolean) Span() Range { return t.Range }
func (t *LogicGroup) Span() Range   { return t.Range }

func (t *FreeText) Source() string     { return t.Raw }
func (t *Filter) Source() string       { return t.Raw }
func (t *LogicBoolean) Source() string { return t.Raw }
func (t *LogicGroup) Source() string   { return t.Raw }

func (t *FreeText) Accept(v Visitor)     { v.VisitFreeText(t) }
func (t *Filter) Accept(v Visitor)       { v.VisitFilter(t) }
func (t *LogicBoolean) Accept(v Visitor) { v.VisitBoolean(t) }
func (t *LogicGroup) Accept(v Visitor)   { v.VisitGroup(t) }

func (*FreeText) sealed()     {}
func (*Filter) sealed()       {}
func (*LogicBoolean) sealed() {}
func (*LogicGroup) sealed()   {}

// Valid reports whether the filter passed classification
func (t *Filter) Valid() bool {
	return t.State == StateValid
}

// OperatorRange returns the source range of the comparison operator, empty when there is none
func (t *Filter) OperatorRange() Range {
	start := t.ValueRange.Start
	start.Offset -= len(t.Operator)
	start.Character -= len(t.Operator) // operators are ASCII
	return Range{Start: start, End: t.ValueRange.Start}
}

// Walk visits tokens depth-first in source order. Returning false from fn
// skips the children of a group.
func Walk(tokens []Token, fn func(Token) bool) {
	for _, tok := range tokens {
		if !fn(tok) {
			continue
		}
		if g, ok := tok.(*LogicGroup); ok {
			Walk(g.Children, fn)
		}
	}
}

// Filters returns every filter in tokens, including those nested in groups
func Filters(tokens []Token) []*Filter {
	var out []*Filter
	Walk(tokens, func(tok Token) bool {
		if f, ok := tok.(*Filter); ok {
			out = append(out, f)
		}
		return true
	})
	return out
}
