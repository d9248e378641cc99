package editor

import (
	"strings"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/search/syntax"
)

// Outcome is the result of one Reduce step. On error State is the input state.
type Outcome struct {
	State State
	// Searched is set when the step committed a query; Search holds it
	Searched bool
	Search   string
	Err      error
}

// Reduce applies a to s. It never mutates s or its ParseResults.
func Reduce(env Env, s State, a Action) Outcome {
	if s.Parsed == nil {
		s.Parsed = syntax.Parse(s.Query, env.Keys, env.Options)
	}
	if s.CommittedParsed == nil {
		s.CommittedParsed = syntax.Parse(s.CommittedQuery, env.Keys, env.Options)
	}

	switch a := a.(type) {
	case FocusToken:
		return focusToken(s, a)
	case ReplaceToken:
		if strings.TrimSpace(a.Text) == "" {
			return deleteToken(env, s, DeleteToken{Index: a.Index})
		}
		return replaceToken(env, s, a)
	case InsertToken:
		return insertToken(env, s, a)
	case DeleteToken:
		return deleteToken(env, s, a)
	case Commit:
		if s.Focus.Mode == ModeIdle {
			return Outcome{State: s}
		}
		next := s
		next.CommittedQuery = s.Query
		next.CommittedParsed = s.Parsed
		next.Focus = Focus{Mode: ModeIdle}
		return Outcome{State: next, Searched: true, Search: next.Query}
	case Cancel:
		next := s
		next.Query = s.CommittedQuery
		next.Parsed = s.CommittedParsed
		next.Focus = Focus{Mode: ModeIdle}
		return Outcome{State: next}
	case UpdateQuery:
		next := s
		next.Query = a.Query
		next.Parsed = syntax.Parse(a.Query, env.Keys, env.Options)
		next.Focus = insertingAt(len(next.Parsed.Tokens))
		return Outcome{State: next}
	case Clear:
		empty := syntax.Parse("", env.Keys, env.Options)
		next := State{
			Query:           "",
			Parsed:          empty,
			Focus:           Focus{Mode: ModeIdle},
			CommittedQuery:  "",
			CommittedParsed: empty,
		}
		return Outcome{State: next, Searched: true, Search: ""}
	case Reclassify:
		next := s
		next.Parsed = syntax.Parse(s.Query, env.Keys, env.Options)
		next.CommittedParsed = syntax.Parse(s.CommittedQuery, env.Keys, env.Options)
		return Outcome{State: next}
	case nil:
		return Outcome{State: s, Err: errors.NewInvalidRequestError("nil action")}
	}
	return Outcome{State: s, Err: errors.NewInvalidRequestError("unknown action %T", a)}
}

func focusToken(s State, a FocusToken) Outcome {
	tokens := s.Tokens()
	if a.Index < 0 || a.Index >= len(tokens) {
		return Outcome{State: s, Err: indexError(a, a.Index, len(tokens))}
	}
	cursor := min(max(a.Cursor, 0), len(syntax.Canonical(tokens[a.Index])))
	next := s
	next.Focus = editingToken(a.Index, cursor)
	return Outcome{State: next}
}

func replaceToken(env Env, s State, a ReplaceToken) Outcome {
	tokens := s.Tokens()
	if a.Index < 0 || a.Index >= len(tokens) {
		return Outcome{State: s, Err: indexError(a, a.Index, len(tokens))}
	}
	text := strings.TrimSpace(a.Text)
	return apply(env, s, a, splice{start: a.Index, end: a.Index + 1, text: text}, func(n int) Focus {
		if n == 0 {
			return insertingAt(0)
		}
		idx := min(a.Index, n-1)
		return editingToken(idx, 0)
	})
}

func insertToken(env Env, s State, a InsertToken) Outcome {
	tokens := s.Tokens()
	if a.Position < 0 || a.Position > len(tokens) {
		return Outcome{State: s, Err: indexError(a, a.Position, len(tokens)+1)}
	}
	text := strings.TrimSpace(a.Text)
	if text == "" {
		return Outcome{State: s, Err: errors.Wrapf(errors.ErrEmptyEdit, "%s", a)}
	}
	return apply(env, s, a, splice{start: a.Position, end: a.Position, text: text}, func(n int) Focus {
		return insertingAt(min(a.Position+1, n))
	})
}

func deleteToken(env Env, s State, a DeleteToken) Outcome {
	tokens := s.Tokens()
	if a.Index < 0 || a.Index >= len(tokens) {
		return Outcome{State: s, Err: indexError(a, a.Index, len(tokens))}
	}
	return apply(env, s, a, splice{start: a.Index, end: a.Index + 1}, func(n int) Focus {
		return insertingAt(min(a.Index, n))
	})
}

var errOutsideSplice = errors.New("the edit changed tokens outside the edited position")

// splice replaces tokens[start:end] with text
type splice struct {
	start, end int
	text       string
}

// render joins the canonical text of the kept tokens around the spliced text
func (sp splice) render(tokens []syntax.Token) string {
	parts := make([]string, 0, len(tokens)+1)
	for _, tok := range tokens[:sp.start] {
		parts = append(parts, syntax.Canonical(tok))
	}
	if sp.text != "" {
		parts = append(parts, sp.text)
	}
	for _, tok := range tokens[sp.end:] {
		parts = append(parts, syntax.Canonical(tok))
	}
	return strings.Join(parts, " ")
}

func apply(env Env, s State, a Action, sp splice, focus func(n int) Focus) Outcome {
	prev := s.Tokens()
	query := sp.render(prev)
	parsed := syntax.Parse(query, env.Keys, env.Options)
	if err := confirm(env, prev, parsed.Tokens, sp); err != nil {
		return Outcome{State: s, Err: errors.RejectEdit(a.String(), err.Error())}
	}
	next := s
	next.Query = query
	next.Parsed = parsed
	next.Focus = focus(len(parsed.Tokens))
	return Outcome{State: next}
}

// confirm checks that next is the structure the splice implies: no more
// tokens lost than the splice removed plus the free-text merges at its edges,
// the token on each side of the splice unchanged unless it is free text that
// merged, and every token further away unchanged and in order.
func confirm(env Env, prev, next []syntax.Token, sp splice) error {
	removed := sp.end - sp.start
	merges := boundaryMerges(env, prev, sp)
	if len(next) < len(prev)-removed-merges {
		return errors.Newf("the edit collapsed %d tokens into %d", len(prev), len(next))
	}

	prefix := prev[:max(sp.start-1, 0)]
	suffix := prev[min(sp.end+1, len(prev)):]
	if len(prefix)+len(suffix) > len(next) {
		return errOutsideSplice
	}
	if !syntax.Equivalent(prefix, next[:len(prefix)]) ||
		!syntax.Equivalent(suffix, next[len(next)-len(suffix):]) {
		return errOutsideSplice
	}

	left := sp.start - 1
	if left >= 0 {
		if err := keepNeighbour(prev[left], next, left); err != nil {
			return err
		}
	}
	if sp.end < len(prev) {
		right := len(next) - len(suffix) - 1
		if left >= 0 && right <= left && !(isFreeText(prev[left]) && isFreeText(prev[sp.end])) {
			return errOutsideSplice
		}
		if err := keepNeighbour(prev[sp.end], next, right); err != nil {
			return err
		}
	}
	return nil
}

// keepNeighbour checks the token adjacent to a splice, now at next[at].
// Free text may absorb the edited text; any other token must stay as it was.
func keepNeighbour(tok syntax.Token, next []syntax.Token, at int) error {
	if at < 0 || at >= len(next) {
		return errOutsideSplice
	}
	if isFreeText(tok) {
		if !isFreeText(next[at]) {
			return errors.Newf("the edit turned free text %q into a %s", syntax.Canonical(tok), next[at].Kind())
		}
		return nil
	}
	if !syntax.SameToken(tok, next[at]) {
		return errors.Newf("the edit changed the neighbouring %s %s", tok.Kind(), syntax.Canonical(tok))
	}
	return nil
}

// boundaryMerges counts splice edges where free text meets free text
func boundaryMerges(env Env, prev []syntax.Token, sp splice) int {
	var left, right syntax.Token
	if sp.start > 0 {
		left = prev[sp.start-1]
	}
	if sp.end < len(prev) {
		right = prev[sp.end]
	}

	if sp.text == "" {
		if isFreeText(left) && isFreeText(right) {
			return 1
		}
		return 0
	}

	inserted := syntax.Parse(sp.text, env.Keys, env.Options).Tokens
	if len(inserted) == 0 {
		return 0
	}
	merges := 0
	if isFreeText(left) && isFreeText(inserted[0]) {
		merges++
	}
	if isFreeText(inserted[len(inserted)-1]) && isFreeText(right) {
		merges++
	}
	return merges
}

func isFreeText(tok syntax.Token) bool {
	return tok != nil && tok.Kind() == syntax.KindFreeText
}

func indexError(a Action, index, limit int) error {
	return errors.WithDetailf(errors.Wrapf(errors.ErrInvalidIndex, "%s", a),
		"index %d outside [0, %d)", index, limit)
}
