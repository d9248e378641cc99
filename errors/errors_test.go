package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestWithHint(t *testing.T) {
	err := WithHint(New("error"), "try this fix")

	hints := GetAllHints(err)
	require.Len(t, hints, 1)
	assert.Equal(t, "try this fix", hints[0])
}

func TestWithDetail(t *testing.T) {
	err := WithDetail(New("error"), "detailed information")

	details := GetAllDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "detailed information", details[0])
}

func TestNilHandling(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
	assert.Nil(t, WithHint(nil, "hint"))
	assert.False(t, IsEditRejected(nil))
	assert.False(t, IsInvalidRequestError(nil))
}

func TestRejectEdit(t *testing.T) {
	err := RejectEdit("replace token 1", "the replacement merged with a group")

	assert.True(t, IsEditRejected(err))
	assert.Contains(t, err.Error(), "replace token 1")
	assert.Contains(t, GetAllHints(err), "the replacement merged with a group")
}

func TestInvalidRequest(t *testing.T) {
	err := NewInvalidRequestError("missing %s", "key")
	assert.True(t, IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "missing key")

	wrapped := WrapInvalidRequest(New("bad json"), "decode body")
	assert.True(t, IsInvalidRequestError(wrapped))
	assert.Contains(t, wrapped.Error(), "decode body")
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrEditRejected, ErrInvalidIndex, ErrEmptyEdit, ErrUnknownKey,
		ErrInvalidValue, ErrSuggestionFetchFailed, ErrStaleResponse,
		ErrNotFound, ErrInvalidRequest,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j {
				assert.False(t, Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func ExampleRejectEdit() {
	err := RejectEdit("delete token 3", "index out of range")
	fmt.Println(err)
	// Output: delete token 3: edit rejected
}
