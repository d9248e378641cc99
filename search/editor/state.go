// Package editor is the interactive query editing state machine.
//
// Reduce is a pure function from (State, Action) to a new State. Every edit
// that changes the query text is spliced into the canonical serialization,
// re-parsed, and only accepted when the re-parse keeps the structure the edit
// implies. Session wraps Reduce for a single editing session and fires the
// search callback on commit.
package editor

import (
	"fmt"

	"github.com/teranos/sqb/search/syntax"
)

// Mode is the editor's current activity
type Mode int

const (
	ModeIdle         Mode = iota // nothing focused, query equals the committed query unless edited
	ModeEditingToken             // a token is focused for editing
	ModeInsertingAt              // the cursor sits between tokens
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeEditingToken:
		return "editing_token"
	case ModeInsertingAt:
		return "inserting_at"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Focus locates the cursor. Index addresses a top-level token in
// ModeEditingToken; Position is an insert slot in [0, len(tokens)] in
// ModeInsertingAt. Cursor is the offset within the focused token.
type Focus struct {
	Mode     Mode `json:"mode"`
	Index    int  `json:"index"`
	Position int  `json:"position"`
	Cursor   int  `json:"cursor"`
}

// State is one immutable snapshot of an editing session
type State struct {
	Query  string              `json:"query"`
	Parsed *syntax.ParseResult `json:"parsed"`
	Focus  Focus               `json:"focus"`

	// Last committed pair, restored by Cancel
	CommittedQuery  string              `json:"committed_query"`
	CommittedParsed *syntax.ParseResult `json:"-"`
}

// Env carries what Reduce needs besides the state: the key registry and parse options
type Env struct {
	Keys    syntax.KeyLookup
	Options syntax.Options
}

// NewState parses initial and commits it
func NewState(env Env, initial string) State {
	parsed := syntax.Parse(initial, env.Keys, env.Options)
	return State{
		Query:           initial,
		Parsed:          parsed,
		Focus:           Focus{Mode: ModeIdle},
		CommittedQuery:  initial,
		CommittedParsed: parsed,
	}
}

// Dirty reports whether the query differs from the committed query
func (s State) Dirty() bool {
	return s.Query != s.CommittedQuery
}

// Tokens returns the top-level tokens of the current query
func (s State) Tokens() []syntax.Token {
	if s.Parsed == nil {
		return nil
	}
	return s.Parsed.Tokens
}

func editingToken(index, cursor int) Focus {
	return Focus{Mode: ModeEditingToken, Index: index, Cursor: cursor}
}

func insertingAt(position int) Focus {
	return Focus{Mode: ModeInsertingAt, Position: position}
}
