package text

import (
	"strings"
)

// Line is a single line of a text.
type Line struct {
	Text   string
	Number int // 1-based
}

// Null Object pattern.
// Useful to check it.Peek().IsBlank() => true even at the end of the text
var MissingLine = Line{
	Text:   "",
	Number: -1,
}

func (l Line) IsBlank() bool {
	return IsBlank(l.Text)
}

// LineIterator implements the Iterator pattern to iterate over text lines.
type LineIterator struct {
	index int
	lines []Line
}

func (l *LineIterator) HasNext() bool {
	return l.index < len(l.lines)
}

// Peek is the same as Next but does not move the iterator.
func (l *LineIterator) Peek() Line {
	if l.HasNext() {
		return l.lines[l.index]
	}
	return MissingLine
}

func (l *LineIterator) Next() Line {
	if l.HasNext() {
		line := l.lines[l.index]
		l.index++
		return line
	}
	return MissingLine
}

// SkipBlankLines moves the iterator to the next non-blank line (or the end of text).
func (l *LineIterator) SkipBlankLines() {
	for l.HasNext() && l.Peek().IsBlank() {
		l.Next()
	}
}

func NewLineIteratorFromText(text string) *LineIterator {
	rawLines := strings.Split(text, "\n")

	lines := make([]Line, 0, len(rawLines))
	for i, line := range rawLines {
		lines = append(lines, Line{
			Number: i + 1,
			Text:   line,
		})
	}

	return &LineIterator{
		index: 0,
		lines: lines,
	}
}
