package slash

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
	"github.com/julien-sobczak/the-lessonwriter/internal/logging"
)

// Menu geometry (in pixels)
const (
	MenuWidth     = 280
	MenuMaxHeight = 300
	MenuMinHeight = 200
	MenuMargin    = 40
)

// Special keys
const (
	KeyEscape    = "Escape"
	KeyEnter     = "Enter"
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
	KeyBackspace = "Backspace"
)

// DefaultTrigger opens the menu.
const DefaultTrigger = "/"

type State int

const (
	Idle State = iota
	MenuOpen
)

func (s State) String() string {
	if s == MenuOpen {
		return "menu-open"
	}
	return "idle"
}

// KeyEvent is a key pressed in the editor. Key is either a special key
// name or the typed character.
type KeyEvent struct {
	Key string
}

// CursorRect is the position of the cursor in the viewport.
type CursorRect struct {
	Top    float64
	Bottom float64
	Left   float64
}

type Viewport struct {
	Width  float64
	Height float64
}

// Menu is the position of the open menu.
type Menu struct {
	Top       float64
	Left      float64
	Width     float64
	MaxHeight float64
}

// PlaceMenu computes the menu position so that it stays inside the viewport.
func PlaceMenu(cursor CursorRect, viewport Viewport) Menu {
	maxHeight := min(MenuMaxHeight, max(MenuMinHeight, viewport.Height-cursor.Top-MenuMargin))
	left := max(0, min(cursor.Left, viewport.Width-MenuWidth))
	top := max(0, min(cursor.Bottom, viewport.Height-maxHeight))
	return Menu{
		Top:       top,
		Left:      left,
		Width:     MenuWidth,
		MaxHeight: maxHeight,
	}
}

// Target is the editor receiving templates.
type Target interface {
	Exec(ctx context.Context, cmd editor.Command) error
}

// Engine is the slash command state machine.
type Engine struct {
	target    Target
	trigger   string
	templates []Template

	state       State
	menu        Menu
	filter      string
	highlighted int
}

type Option func(*Engine)

// WithTrigger changes the key opening the menu.
func WithTrigger(trigger string) Option {
	return func(e *Engine) {
		if trigger != "" {
			e.trigger = trigger
		}
	}
}

// WithTemplates replaces the default templates.
func WithTemplates(templates []Template) Option {
	return func(e *Engine) {
		e.templates = templates
	}
}

// NewEngine creates an engine inserting templates into the target.
func NewEngine(target Target, opts ...Option) *Engine {
	e := &Engine{
		target:    target,
		trigger:   DefaultTrigger,
		templates: DefaultTemplates(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) State() State {
	return e.state
}

// Menu returns the position of the open menu.
func (e *Engine) Menu() Menu {
	return e.menu
}

func (e *Engine) Filter() string {
	return e.filter
}

// Highlighted returns the index of the highlighted entry in Items().
func (e *Engine) Highlighted() int {
	return e.highlighted
}

// Templates returns all available templates.
func (e *Engine) Templates() []Template {
	return e.templates
}

// Items returns the templates matching the current filter.
func (e *Engine) Items() []Template {
	var result []Template
	for _, t := range e.templates {
		if t.Matches(e.filter) {
			result = append(result, t)
		}
	}
	return result
}

// HandleKey processes a key pressed in the editor. It returns true when the
// key was consumed and its default behavior must be prevented.
func (e *Engine) HandleKey(ctx context.Context, event KeyEvent, cursor CursorRect, viewport Viewport) (bool, error) {
	if e.state == Idle {
		if event.Key != e.trigger {
			return false, nil
		}
		e.open(cursor, viewport)
		return true, nil
	}

	items := e.Items()
	switch event.Key {
	case KeyEscape:
		e.Cancel()
		return true, nil
	case KeyArrowDown:
		if len(items) > 0 {
			e.highlighted = (e.highlighted + 1) % len(items)
		}
		return true, nil
	case KeyArrowUp:
		if len(items) > 0 {
			e.highlighted = (e.highlighted - 1 + len(items)) % len(items)
		}
		return true, nil
	case KeyEnter:
		if len(items) == 0 {
			return true, nil
		}
		return true, e.Select(ctx, e.highlighted)
	case KeyBackspace:
		if e.filter == "" {
			// The trigger was never inserted so there is nothing left to delete
			e.Cancel()
			return true, nil
		}
		_, size := utf8.DecodeLastRuneInString(e.filter)
		e.filter = e.filter[:len(e.filter)-size]
		e.highlighted = 0
		return true, nil
	}

	if utf8.RuneCountInString(event.Key) == 1 {
		e.filter += event.Key
		e.highlighted = 0
		return true, nil
	}

	// Any other key (Tab, ArrowLeft, ...) closes the menu
	e.Cancel()
	return false, nil
}

func (e *Engine) open(cursor CursorRect, viewport Viewport) {
	e.state = MenuOpen
	e.menu = PlaceMenu(cursor, viewport)
	e.filter = ""
	e.highlighted = 0
	logging.CurrentLogger().Trace("Slash menu opened", "top", e.menu.Top, "left", e.menu.Left)
}

// Select inserts the template at the given index of Items() and closes the menu.
func (e *Engine) Select(ctx context.Context, index int) error {
	items := e.Items()
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: index %d", ErrUnknownTemplate, index)
	}
	return e.insert(ctx, items[index])
}

// SelectID inserts the template with the given ID and closes the menu.
func (e *Engine) SelectID(ctx context.Context, id string) error {
	for _, t := range e.templates {
		if t.ID == id {
			return e.insert(ctx, t)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
}

func (e *Engine) insert(ctx context.Context, t Template) error {
	e.close()
	logging.CurrentLogger().Debug("Inserting template", "id", t.ID)
	if err := e.target.Exec(ctx, editor.InsertContent{Fragment: editor.HTMLFragment(t.HTML())}); err != nil {
		return fmt.Errorf("insert template %q: %w", t.ID, err)
	}
	return nil
}

// Cancel closes the menu without inserting anything.
func (e *Engine) Cancel() {
	e.close()
}

// Blur closes the menu when the editor loses the focus.
func (e *Engine) Blur() {
	e.close()
}

func (e *Engine) close() {
	e.state = Idle
	e.filter = ""
	e.highlighted = 0
	e.menu = Menu{}
}
