package editor

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
	"github.com/teranos/sqb/search/syntax"
)

// SearchFunc receives the committed query
type SearchFunc func(query string)

// Session owns the editing state of one query builder instance.
// Dispatch swaps the whole State; callers only ever see snapshots.
type Session struct {
	ID string

	mu       sync.Mutex
	env      Env
	state    State
	onSearch SearchFunc
	log      *zap.SugaredLogger
}

// NewSession starts a session with initial committed. onSearch may be nil.
func NewSession(initial string, env Env, onSearch SearchFunc) *Session {
	id := uuid.New().String()
	return &Session{
		ID:       id,
		env:      env,
		state:    NewState(env, initial),
		onSearch: onSearch,
		log:      logger.ComponentLogger("search.editor").With(logger.FieldSession, id),
	}
}

// Dispatch reduces a into the session state. A rejected edit leaves the
// state untouched and returns an error wrapping errors.ErrEditRejected.
// onSearch runs after the state swap, outside the session lock.
func (s *Session) Dispatch(a Action) (State, error) {
	s.mu.Lock()
	out := Reduce(s.env, s.state, a)
	if out.Err == nil {
		s.state = out.State
	}
	onSearch := s.onSearch
	s.mu.Unlock()

	if out.Err != nil {
		if errors.IsEditRejected(out.Err) {
			s.log.Debugw("edit rejected",
				logger.FieldAction, a.String(),
				logger.FieldReason, errors.FlattenHints(out.Err))
		} else {
			s.log.Debugw("action failed", logger.FieldAction, describe(a), logger.FieldError, out.Err)
		}
		return out.State, out.Err
	}

	s.log.Debugw("action applied",
		logger.FieldAction, a.String(),
		logger.FieldMode, out.State.Focus.Mode.String(),
		logger.FieldTokenCount, len(out.State.Tokens()))

	if out.Searched {
		s.log.Infow("search committed", logger.FieldQuery, out.Search)
		if onSearch != nil {
			onSearch(out.Search)
		}
	}
	return out.State, nil
}

// State returns the current snapshot
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetKeys swaps the key registry and reclassifies the current and committed queries
func (s *Session) SetKeys(reg syntax.KeyLookup) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.env.Keys = reg
	s.state = Reduce(s.env, s.state, Reclassify{}).State
	return s.state
}

func describe(a Action) string {
	if a == nil {
		return "<nil>"
	}
	return a.String()
}
