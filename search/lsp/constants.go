package lsp

import "github.com/teranos/sqb/search/syntax"

// LSP Semantic Token Type indices
// Must match the order in TokenTypeLegend
const (
	TokenTypeProperty uint32 = 0 // filter key
	TokenTypeOperator uint32 = 1 // comparison operator, negation, parens
	TokenTypeString   uint32 = 2 // filter value
	TokenTypeVariable uint32 = 3 // free text
	TokenTypeKeyword  uint32 = 4 // AND, OR
)

// TokenTypeLegend is advertised in the semantic tokens capability
var TokenTypeLegend = []string{"property", "operator", "string", "variable", "keyword"}

// TokenModifierInvalid marks tokens that fail classification
const TokenModifierInvalid uint32 = 1 << 0

// TokenModifierLegend is advertised in the semantic tokens capability
var TokenModifierLegend = []string{"invalid"}

// SemanticTypeIndex maps a query token type to its legend index
func SemanticTypeIndex(t syntax.SemanticTokenType) uint32 {
	switch t {
	case syntax.SemanticKey:
		return TokenTypeProperty
	case syntax.SemanticOperator, syntax.SemanticNegation, syntax.SemanticParen:
		return TokenTypeOperator
	case syntax.SemanticValue:
		return TokenTypeString
	case syntax.SemanticBoolean:
		return TokenTypeKeyword
	default:
		return TokenTypeVariable
	}
}

// Completion item kinds
const (
	CompletionKey     = "key"
	CompletionValue   = "value"
	CompletionKeyword = "keyword"
)

// Cursor contexts reported in ParseState.Context
const (
	ContextKey   = "key"   // typing a key or free text
	ContextValue = "value" // inside a filter value
)
