package search

import (
	"errors"
	"fmt"

	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
)

// ErrNoMatch is returned when replacing without any match.
var ErrNoMatch = errors.New("no match")

// Surface is the part of the editor the search engine works with.
type Surface interface {
	Text() string
	HTML() string
	SetContent(html string) error
	Focus()
}

// Engine implements find and replace over a surface.
// Matches are derived from the surface text and the query. They are
// recomputed every time the query, the options, or the content change.
type Engine struct {
	surface     Surface
	query       string
	replacement string
	options     Options

	matches []Match
	current int
}

// NewEngine creates an engine using the default options.
func NewEngine(surface Surface) *Engine {
	return &Engine{
		surface: surface,
		options: DefaultOptions(),
	}
}

// Query returns the current query.
func (e *Engine) Query() string {
	return e.query
}

// Replacement returns the current replacement.
func (e *Engine) Replacement() string {
	return e.replacement
}

// Options returns the current options.
func (e *Engine) Options() Options {
	return e.options
}

// SetQuery changes the query and returns the number of matches.
// The current match is reset to the first one.
func (e *Engine) SetQuery(query string) int {
	e.query = query
	e.current = 0
	return e.Refresh()
}

// SetReplacement changes the replacement text.
func (e *Engine) SetReplacement(replacement string) {
	e.replacement = replacement
}

// SetOptions changes how the query matches and returns the number of matches.
func (e *Engine) SetOptions(options Options) int {
	e.options = options
	e.current = 0
	return e.Refresh()
}

// Refresh recomputes the matches after a content change.
// The current index is kept when still valid, reset to 0 otherwise.
func (e *Engine) Refresh() int {
	e.matches = FindAll(e.surface.Text(), e.query, e.options)
	if e.current >= len(e.matches) || e.current < 0 {
		e.current = 0
	}
	return len(e.matches)
}

// Count returns the number of matches.
func (e *Engine) Count() int {
	return len(e.matches)
}

// Matches returns the matches in document order.
func (e *Engine) Matches() []Match {
	return e.matches
}

// Current returns the index of the current match.
func (e *Engine) Current() int {
	return e.current
}

// CurrentMatch returns the current match if any.
func (e *Engine) CurrentMatch() (Match, bool) {
	if len(e.matches) == 0 {
		return Match{}, false
	}
	return e.matches[e.current], true
}

// Next moves to the next match, wrapping after the last one.
func (e *Engine) Next() int {
	if len(e.matches) > 0 {
		e.current = (e.current + 1) % len(e.matches)
	}
	return e.current
}

// Previous moves to the previous match, wrapping before the first one.
func (e *Engine) Previous() int {
	if len(e.matches) > 0 {
		e.current = (e.current - 1 + len(e.matches)) % len(e.matches)
	}
	return e.current
}

// ReplaceOne replaces the current match and recomputes the matches.
func (e *Engine) ReplaceOne() error {
	match, ok := e.CurrentMatch()
	if !ok {
		return ErrNoMatch
	}
	if err := e.replace([]Match{match}); err != nil {
		return err
	}
	e.Refresh()
	logging.CurrentLogger().Debug("Replaced match", "query", e.query, "match", match.String(), "remaining", len(e.matches))
	return nil
}

// ReplaceAll replaces every match in a single content update and returns
// the number of replacements. The matches are cleared until the next
// query change or refresh.
func (e *Engine) ReplaceAll() (int, error) {
	e.Refresh()
	if len(e.matches) == 0 {
		return 0, ErrNoMatch
	}
	count := len(e.matches)
	if err := e.replace(e.matches); err != nil {
		return 0, err
	}
	e.matches = nil
	e.current = 0
	logging.CurrentLogger().Debug("Replaced all matches", "query", e.query, "count", count)
	return count, nil
}

func (e *Engine) replace(matches []Match) error {
	result, err := replaceMatches(e.surface.HTML(), e.surface.Text(), matches, e.replacement)
	if err != nil {
		return fmt.Errorf("unable to replace %q: %w", e.query, err)
	}
	if err := e.surface.SetContent(result); err != nil {
		return fmt.Errorf("unable to replace %q: %w", e.query, err)
	}
	e.surface.Focus()
	return nil
}

// Highlight returns the surface HTML with the matches highlighted.
// The surface content is left untouched.
func (e *Engine) Highlight() (string, error) {
	return Highlight(e.surface.HTML(), e.surface.Text(), e.matches, e.current)
}

// Clear resets the query and the matches.
func (e *Engine) Clear() {
	e.query = ""
	e.replacement = ""
	e.matches = nil
	e.current = 0
}
