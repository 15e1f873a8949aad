package editor

import (
	"context"
)

// DefaultHistoryDepth is the default number of undoable mutations.
const DefaultHistoryDepth = 100

// Undo reverts the last mutation when executed by an Editor.
type Undo struct{}

func (Undo) Apply(ctx context.Context, s State) (State, error) {
	// Only meaningful on an Editor holding a history
	return s, nil
}

// Redo reapplies the last reverted mutation when executed by an Editor.
type Redo struct{}

func (Redo) Apply(ctx context.Context, s State) (State, error) {
	return s, nil
}

// Editor holds an editable state with a linear undo history.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	state    State
	undo     []State
	redo     []State
	depth    int
	prompter Prompter
	focused  bool
	onUpdate func(Document)
}

type Option func(*Editor)

// WithHistoryDepth bounds the number of undoable mutations.
func WithHistoryDepth(depth int) Option {
	return func(e *Editor) {
		if depth > 0 {
			e.depth = depth
		}
	}
}

// WithPrompter sets the prompter used by commands requesting user input.
func WithPrompter(prompter Prompter) Option {
	return func(e *Editor) {
		e.prompter = prompter
	}
}

// WithContent initializes the document from HTML.
func WithContent(html string) Option {
	return func(e *Editor) {
		e.state = NewState(ParseHTML(html))
	}
}

// WithOnUpdate registers a callback invoked after each document change.
func WithOnUpdate(fn func(Document)) Option {
	return func(e *Editor) {
		e.onUpdate = fn
	}
}

// New creates an editor containing an empty document.
func New(opts ...Option) *Editor {
	e := &Editor{
		state: NewState(EmptyDocument()),
		depth: DefaultHistoryDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exec runs a command. A command changing the document is recorded as a
// single history entry and clears the redo history.
func (e *Editor) Exec(ctx context.Context, cmd Command) error {
	switch c := cmd.(type) {
	case Undo:
		e.Undo()
		return nil
	case Redo:
		e.Redo()
		return nil
	case InsertLink:
		if c.Prompter == nil {
			c.Prompter = e.prompter
		}
		cmd = c
	}

	newState, err := Apply(ctx, e.state, cmd)
	if err != nil {
		return err
	}
	e.commit(newState)
	return nil
}

func (e *Editor) commit(newState State) {
	changed := newState.Doc.HTML() != e.state.Doc.HTML()
	if changed {
		e.undo = append(e.undo, e.state)
		if len(e.undo) > e.depth {
			e.undo = e.undo[len(e.undo)-e.depth:]
		}
		e.redo = nil
	}
	e.state = newState
	if changed && e.onUpdate != nil {
		e.onUpdate(e.state.Doc)
	}
}

// Undo reverts the last mutation. It returns false when there is nothing to undo.
func (e *Editor) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	previous := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, e.state)
	e.state = previous
	if e.onUpdate != nil {
		e.onUpdate(e.state.Doc)
	}
	return true
}

// Redo reapplies the last reverted mutation. It returns false when there is nothing to redo.
func (e *Editor) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	next := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, e.state)
	e.state = next
	if e.onUpdate != nil {
		e.onUpdate(e.state.Doc)
	}
	return true
}

func (e *Editor) CanUndo() bool {
	return len(e.undo) > 0
}

func (e *Editor) CanRedo() bool {
	return len(e.redo) > 0
}

// State returns the current state.
func (e *Editor) State() State {
	return e.state
}

// Document returns the current document.
func (e *Editor) Document() Document {
	return e.state.Doc
}

// Selection returns the current selection.
func (e *Editor) Selection() Selection {
	return e.state.Selection
}

// Select moves the selection. Positions outside the document are clamped.
func (e *Editor) Select(anchor, head int) {
	size := e.state.Doc.Size()
	e.state.Selection = Range(clampPosition(anchor, size), clampPosition(head, size))
	e.state = e.state.clearStoredMarks()
}

// SelectAll selects the whole document.
func (e *Editor) SelectAll() {
	e.Select(0, e.state.Doc.Size())
}

// Text returns the plain text of the document.
func (e *Editor) Text() string {
	return e.state.Doc.Text()
}

// HTML returns the serialized document.
func (e *Editor) HTML() string {
	return e.state.Doc.HTML()
}

// IsEmpty returns true when the document has no content.
func (e *Editor) IsEmpty() bool {
	return e.state.Doc.IsEmpty()
}

// SetContent replaces the document. The change can be undone.
func (e *Editor) SetContent(html string) error {
	return e.Exec(context.Background(), SetContent{HTML: html})
}

// Focus gives the focus to the editor.
func (e *Editor) Focus() {
	e.focused = true
}

// Blur removes the focus from the editor.
func (e *Editor) Blur() {
	e.focused = false
}

// Focused returns true when the editor has the focus.
func (e *Editor) Focused() bool {
	return e.focused
}
