package editor

import "fmt"

// Selection is a range of positions. Anchor is the fixed side and Head
// the side that moves. A collapsed selection is a cursor.
type Selection struct {
	Anchor int
	Head   int
}

// Cursor creates a collapsed selection.
func Cursor(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// Range creates a selection between two positions.
func Range(anchor, head int) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// From returns the start of the selected range.
func (s Selection) From() int {
	return min(s.Anchor, s.Head)
}

// To returns the end of the selected range.
func (s Selection) To() int {
	return max(s.Anchor, s.Head)
}

// Empty returns true for a collapsed selection.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

func (s Selection) String() string {
	if s.Empty() {
		return fmt.Sprintf("cursor(%d)", s.Head)
	}
	return fmt.Sprintf("range(%d,%d)", s.Anchor, s.Head)
}

// clamp ensures the selection is inside a document of the given size.
func (s Selection) clamp(size int) Selection {
	return Selection{
		Anchor: clampPosition(s.Anchor, size),
		Head:   clampPosition(s.Head, size),
	}
}
