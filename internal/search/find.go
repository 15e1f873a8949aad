package search

import (
	"fmt"
	"unicode"

	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

// Options controls how a query matches the text.
// The same options are used to count, navigate, highlight, and replace.
type Options struct {
	CaseSensitive bool
	WholeWord     bool
}

// DefaultOptions returns case-insensitive whole-word matching.
func DefaultOptions() Options {
	return Options{
		CaseSensitive: false,
		WholeWord:     true,
	}
}

// Match is an occurrence of the query expressed in rune offsets.
// End is exclusive.
type Match struct {
	Start int
	End   int
}

// Len returns the number of runes in the match.
func (m Match) Len() int {
	return m.End - m.Start
}

// Contains returns true if the offset is inside the match.
func (m Match) Contains(offset int) bool {
	return offset >= m.Start && offset < m.End
}

func (m Match) String() string {
	return fmt.Sprintf("[%d,%d)", m.Start, m.End)
}

// FindAll returns the non-overlapping occurrences of the query, in order.
func FindAll(txt string, query string, opts Options) []Match {
	if query == "" {
		return nil
	}
	haystack := []rune(txt)
	needle := []rune(query)
	if !opts.CaseSensitive {
		// Simple case mapping preserves rune offsets
		lower(haystack)
		lower(needle)
	}

	var matches []Match
	for i := 0; i+len(needle) <= len(haystack); {
		if !hasPrefix(haystack[i:], needle) {
			i++
			continue
		}
		end := i + len(needle)
		if opts.WholeWord && !isWordBoundary(haystack, i, end) {
			i++
			continue
		}
		matches = append(matches, Match{Start: i, End: end})
		i = end
	}
	return matches
}

// Count returns the number of occurrences of the query.
func Count(txt string, query string, opts Options) int {
	return len(FindAll(txt, query, opts))
}

func lower(runes []rune) {
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
}

func hasPrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

func isWordBoundary(runes []rune, start, end int) bool {
	if start > 0 && text.IsWordRune(runes[start-1]) {
		return false
	}
	if end < len(runes) && text.IsWordRune(runes[end]) {
		return false
	}
	return true
}
