package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionTracker(t *testing.T) {
	source := "ab\ncd é"
	tracker := NewPositionTracker(source)
	assert.Equal(t, Position{Line: 1}, tracker.Mark())

	assert.Equal(t, Position{Line: 1, Character: 2, Offset: 2}, tracker.AdvanceTo(2))
	assert.Equal(t, Position{Line: 2, Character: 0, Offset: 3}, tracker.AdvanceTo(3))
	assert.Equal(t, Position{Line: 2, Character: 4, Offset: 8}, tracker.AdvanceTo(100), "clamped to end")

	// Moving backwards is a no-op
	assert.Equal(t, Position{Line: 2, Character: 4, Offset: 8}, tracker.AdvanceTo(1))
}

func TestPositionAdvanceInvalidUTF8(t *testing.T) {
	p := Position{Line: 1}.Advance("\xff\xfea")
	assert.Equal(t, Position{Line: 1, Character: 3, Offset: 3}, p)
}

func TestRange(t *testing.T) {
	r := Range{Start: Position{Offset: 2}, End: Position{Offset: 5}}
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(6))
	assert.False(t, r.Contains(1))
}

func TestPositionAt(t *testing.T) {
	assert.Equal(t, Position{Line: 2, Character: 1, Offset: 3}, PositionAt("x\n\té", 3))
	assert.Equal(t, Position{Line: 2, Character: 2, Offset: 5}, PositionAt("x\n\té", 5))
}
