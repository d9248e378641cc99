package editor

import "fmt"

// Action is an editor input. The set is closed; see Reduce.
type Action interface {
	fmt.Stringer
	action()
}

// FocusToken moves the cursor onto a token without changing the query
type FocusToken struct {
	Index  int
	Cursor int
}

// ReplaceToken substitutes the token at Index with Text. Empty text deletes it.
type ReplaceToken struct {
	Index int
	Text  string
}

// InsertToken inserts Text before the token at Position (len(tokens) appends)
type InsertToken struct {
	Position int
	Text     string
}

// DeleteToken removes the token at Index
type DeleteToken struct {
	Index int
}

// Commit finishes editing and fires the search
type Commit struct{}

// Cancel discards edits since the last commit
type Cancel struct{}

// UpdateQuery replaces the whole query text
type UpdateQuery struct {
	Query string
}

// Clear empties the query and commits
type Clear struct{}

// Reclassify re-parses the current and committed queries, used after the key registry changes
type Reclassify struct{}

func (a FocusToken) String() string   { return fmt.Sprintf("focus token %d", a.Index) }
func (a ReplaceToken) String() string { return fmt.Sprintf("replace token %d", a.Index) }
func (a InsertToken) String() string  { return fmt.Sprintf("insert at %d", a.Position) }
func (a DeleteToken) String() string  { return fmt.Sprintf("delete token %d", a.Index) }
func (Commit) String() string         { return "commit" }
func (Cancel) String() string         { return "cancel" }
func (UpdateQuery) String() string    { return "update query" }
func (Clear) String() string          { return "clear" }
func (Reclassify) String() string     { return "reclassify" }

func (FocusToken) action()   {}
func (ReplaceToken) action() {}
func (InsertToken) action()  {}
func (DeleteToken) action()  {}
func (Commit) action()       {}
func (Cancel) action()       {}
func (UpdateQuery) action()  {}
func (Clear) action()        {}
func (Reclassify) action()   {}
