package syntax

import "unicode/utf8"

// Position represents a line/column position in query text
// Uses LSP conventions: 1-based line numbers, 0-based character offsets
type Position struct {
	Line      int `json:"line"`      // 1-based line number
	Character int `json:"character"` // 0-based rune offset within line
	Offset    int `json:"offset"`    // 0-based byte offset in entire source
}

// Range represents a half-open source span [Start, End)
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Len returns the byte length of the range
func (r Range) Len() int {
	return r.End.Offset - r.Start.Offset
}

// Contains reports whether byte offset lies within [Start, End]
// The end is inclusive so a cursor right after a token still touches it.
func (r Range) Contains(offset int) bool {
	return offset >= r.Start.Offset && offset <= r.End.Offset
}

// Advance returns the position reached after consuming text from p
func (p Position) Advance(text string) Position {
	for len(text) > 0 {
		ch, size := utf8.DecodeRuneInString(text)
		if ch == '\n' {
			p.Line++
			p.Character = 0
		} else {
			p.Character++
		}
		p.Offset += size // invalid bytes count as one character each
		text = text[size:]
	}
	return p
}

// PositionTracker maintains line/column/offset state while scanning source
type PositionTracker struct {
	source string
	pos    Position
}

// NewPositionTracker creates a tracker starting at beginning of source
func NewPositionTracker(source string) *PositionTracker {
	return &PositionTracker{
		source: source,
		pos:    Position{Line: 1},
	}
}

// AdvanceTo moves the tracker forward to byte offset, decoding runes on the way.
// Offsets behind the current position or past the end are clamped.
func (pt *PositionTracker) AdvanceTo(offset int) Position {
	if offset > len(pt.source) {
		offset = len(pt.source)
	}
	if offset > pt.pos.Offset {
		pt.pos = pt.pos.Advance(pt.source[pt.pos.Offset:offset])
	}
	return pt.pos
}

// Mark returns the current position snapshot
func (pt *PositionTracker) Mark() Position {
	return pt.pos
}

// PositionAt returns the position of byte offset in source
func PositionAt(source string, offset int) Position {
	return NewPositionTracker(source).AdvanceTo(offset)
}
