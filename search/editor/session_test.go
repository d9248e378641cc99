package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/search/keys"
	"github.com/teranos/sqb/search/syntax"
)

func TestSessionFiresSearchOncePerCommit(t *testing.T) {
	var searches []string
	s := NewSession("level:error", testEnv(), func(q string) {
		searches = append(searches, q)
	})
	assert.NotEmpty(t, s.ID)

	_, err := s.Dispatch(InsertToken{Position: 1, Text: "f"})
	require.NoError(t, err)
	_, err = s.Dispatch(ReplaceToken{Index: 1, Text: "fo"})
	require.NoError(t, err)
	_, err = s.Dispatch(ReplaceToken{Index: 1, Text: "foo"})
	require.NoError(t, err)
	assert.Empty(t, searches, "intermediate edits never search")

	_, err = s.Dispatch(Commit{})
	require.NoError(t, err)
	_, err = s.Dispatch(Commit{})
	require.NoError(t, err)

	assert.Equal(t, []string{"level:error foo"}, searches)
}

func TestSessionKeepsStateOnRejection(t *testing.T) {
	s := NewSession("level:a level:b level:c )", testEnv(), nil)
	before := s.State()

	_, err := s.Dispatch(ReplaceToken{Index: 0, Text: "("})
	require.Error(t, err)
	assert.True(t, errors.IsEditRejected(err))
	assert.Equal(t, before, s.State())
}

func TestSessionSetKeys(t *testing.T) {
	s := NewSession("custom:x", Env{}, nil)
	require.Equal(t, syntax.StateUnsupported, s.State().Tokens()[0].(*syntax.Filter).State)

	state := s.SetKeys(keys.New([]keys.KeyMeta{{Key: "custom"}}))
	assert.Equal(t, syntax.StateValid, state.Tokens()[0].(*syntax.Filter).State)
	assert.Equal(t, state, s.State())
}

func TestSessionClearSearchesEmpty(t *testing.T) {
	var searches []string
	s := NewSession("level:error", testEnv(), func(q string) { searches = append(searches, q) })

	_, err := s.Dispatch(Clear{})
	require.NoError(t, err)
	assert.Equal(t, []string{""}, searches)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		words []string
		want  Action
	}{
		{[]string{"focus", "2"}, FocusToken{Index: 2}},
		{[]string{"focus", "2", "4"}, FocusToken{Index: 2, Cursor: 4}},
		{[]string{"replace", "1", "level:error"}, ReplaceToken{Index: 1, Text: "level:error"}},
		{[]string{"insert", "0", "timed", "out"}, InsertToken{Position: 0, Text: "timed out"}},
		{[]string{"delete", "3"}, DeleteToken{Index: 3}},
		{[]string{"update", "a", "b"}, UpdateQuery{Query: "a b"}},
		{[]string{"commit"}, Commit{}},
		{[]string{"CANCEL"}, Cancel{}},
		{[]string{"clear"}, Clear{}},
	}
	for _, tt := range tests {
		got, err := ParseCommand(tt.words)
		require.NoError(t, err, "%v", tt.words)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range [][]string{nil, {"replace"}, {"delete", "x"}, {"jump", "1"}} {
		_, err := ParseCommand(bad)
		assert.True(t, errors.IsInvalidRequestError(err), "%v", bad)
	}
}
