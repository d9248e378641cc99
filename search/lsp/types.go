package lsp

import "github.com/teranos/sqb/search/syntax"

// CompletionItem represents an autocomplete suggestion
type CompletionItem struct {
	Label         string `json:"label"`
	Kind          string `json:"kind"` // key, value, keyword
	InsertText    string `json:"insert_text"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	SortText      string `json:"sort_text"` // For ranking
}

// ParseResponse contains semantic tokens, diagnostics, and parse state
type ParseResponse struct {
	Tokens      []syntax.SemanticToken `json:"tokens"`
	Diagnostics []Diagnostic           `json:"diagnostics"`
	ParseState  *ParseState            `json:"parse_state"`
	Canonical   string                 `json:"canonical"`
}

// ParseState describes the query around the cursor for autocomplete
type ParseState struct {
	Context    string `json:"context"`       // key or value
	Key        string `json:"key,omitempty"` // filter key when Context is value
	Prefix     string `json:"prefix"`        // text typed before the cursor in the current word
	Negated    bool   `json:"negated,omitempty"`
	TokenIndex int    `json:"token_index"` // top-level token under the cursor, -1 between tokens
	Filters    int    `json:"filters"`
	Valid      bool   `json:"valid"`
}

// Diagnostic represents an invalid or unsupported token
type Diagnostic struct {
	Range       syntax.Range          `json:"range"`
	Severity    string                `json:"severity"` // error, warning
	Kind        syntax.DiagnosticKind `json:"kind"`
	Reason      syntax.InvalidCode    `json:"reason,omitempty"`
	Message     string                `json:"message"`
	Suggestions []string              `json:"suggestions,omitempty"`
}

// Hover is the markdown shown for the token under the cursor
type Hover struct {
	Contents string       `json:"contents"`
	Range    syntax.Range `json:"range"`
}

// CompletionRequest represents a completion request
type CompletionRequest struct {
	Query   string
	Cursor  int    // byte offset
	Trigger string // "manual", "auto", "character"
}
