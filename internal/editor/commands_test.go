package editor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
)

// exec applies commands on a new editor and returns it.
func exec(t *testing.T, html string, selection editor.Selection, cmds ...editor.Command) *editor.Editor {
	t.Helper()
	e := editor.New(editor.WithContent(html))
	e.Select(selection.Anchor, selection.Head)
	for _, cmd := range cmds {
		require.NoError(t, e.Exec(context.Background(), cmd))
	}
	return e
}

func TestToggleMark(t *testing.T) {
	bold := editor.ToggleMark{Type: editor.BoldMark}

	t.Run("Apply and remove", func(t *testing.T) {
		e := exec(t, `<p>hello world</p>`, editor.Range(0, 5), bold)
		assert.Equal(t, `<p><strong>hello</strong> world</p>`, e.HTML())
		require.NoError(t, e.Exec(context.Background(), bold))
		assert.Equal(t, `<p>hello world</p>`, e.HTML())
	})

	t.Run("Partially active mark is extended", func(t *testing.T) {
		e := exec(t, `<p><strong>hello</strong> world</p>`, editor.Range(11, 0), bold)
		assert.Equal(t, `<p><strong>hello world</strong></p>`, e.HTML())
	})

	t.Run("Across blocks", func(t *testing.T) {
		e := exec(t, `<p>ab</p><p>cd</p>`, editor.Range(1, 4), editor.ToggleMark{Type: editor.ItalicMark})
		assert.Equal(t, `<p>a<em>b</em></p><p><em>c</em>d</p>`, e.HTML())
	})

	t.Run("Stored mark", func(t *testing.T) {
		e := exec(t, `<p>ab</p>`, editor.Cursor(1), bold)
		assert.Equal(t, `<p>ab</p>`, e.HTML())
		assert.False(t, e.CanUndo())
		marks, ok := e.State().StoredMarks()
		assert.True(t, ok)
		assert.Len(t, marks, 1)

		require.NoError(t, e.Exec(context.Background(), editor.InsertContent{Fragment: editor.TextFragment("X")}))
		assert.Equal(t, `<p>a<strong>X</strong>b</p>`, e.HTML())
		assert.Equal(t, editor.Cursor(2), e.Selection())
		_, ok = e.State().StoredMarks()
		assert.False(t, ok)
	})

	t.Run("Link requires href", func(t *testing.T) {
		e := exec(t, `<p>ab</p>`, editor.Range(0, 2))
		err := e.Exec(context.Background(), editor.ToggleMark{Type: editor.LinkMark})
		assert.ErrorIs(t, err, editor.ErrMissingHref)
		assert.Equal(t, `<p>ab</p>`, e.HTML())
	})

	t.Run("Highlight", func(t *testing.T) {
		e := exec(t, `<p>ab</p>`, editor.Range(0, 1), editor.ToggleMark{Type: editor.HighlightMark, Attrs: map[string]string{"color": "yellow"}})
		assert.Equal(t, `<p><mark data-color="yellow">a</mark>b</p>`, e.HTML())
	})

	t.Run("Unknown mark", func(t *testing.T) {
		e := exec(t, `<p>ab</p>`, editor.Range(0, 1))
		err := e.Exec(context.Background(), editor.ToggleMark{Type: "blink"})
		assert.ErrorIs(t, err, editor.ErrUnknownMark)
	})
}

func TestReplaceText(t *testing.T) {
	var tests = []struct {
		name     string
		html     string
		cmd      editor.ReplaceText
		expected string
	}{
		{
			name:     "Inside a block",
			html:     `<p>hello world</p>`,
			cmd:      editor.ReplaceText{From: 6, To: 11, Text: "there"},
			expected: `<p>hello there</p>`,
		},
		{
			name:     "Across blocks",
			html:     `<p>ab</p><p>cd</p>`,
			cmd:      editor.ReplaceText{From: 1, To: 4, Text: "X"},
			expected: `<p>aXd</p>`,
		},
		{
			name:     "Newline splits the block",
			html:     `<p>ab</p>`,
			cmd:      editor.ReplaceText{From: 1, To: 1, Text: "\n"},
			expected: `<p>a</p><p>b</p>`,
		},
		{
			name:     "Heading split",
			html:     `<h2>Title</h2>`,
			cmd:      editor.ReplaceText{From: 5, To: 5, Text: "\nbody"},
			expected: `<h2>Title</h2><p>body</p>`,
		},
		{
			name:     "List item split",
			html:     `<ul><li>a</li></ul>`,
			cmd:      editor.ReplaceText{From: 1, To: 1, Text: "\nb"},
			expected: `<ul><li><p>a</p></li><li><p>b</p></li></ul>`,
		},
		{
			name:     "Newline in code block",
			html:     `<pre><code>a</code></pre>`,
			cmd:      editor.ReplaceText{From: 1, To: 1, Text: "\nb"},
			expected: `<pre><code>a
b</code></pre>`,
		},
		{
			name:     "Marks are inherited",
			html:     `<p><strong>ab</strong></p>`,
			cmd:      editor.ReplaceText{From: 2, To: 2, Text: "c"},
			expected: `<p><strong>abc</strong></p>`,
		},
		{
			name:     "Links are not inherited",
			html:     `<p><a href="u">ab</a></p>`,
			cmd:      editor.ReplaceText{From: 2, To: 2, Text: "c"},
			expected: `<p><a href="u">ab</a>c</p>`,
		},
		{
			name:     "Reversed positions",
			html:     `<p>abc</p>`,
			cmd:      editor.ReplaceText{From: 2, To: 1, Text: ""},
			expected: `<p>ac</p>`,
		},
		{
			name:     "Out of range positions are clamped",
			html:     `<p>abc</p>`,
			cmd:      editor.ReplaceText{From: -5, To: 100, Text: "x"},
			expected: `<p>x</p>`,
		},
		{
			name:     "Delete a whole list",
			html:     `<p>a</p><ul><li>b</li></ul><p>c</p>`,
			cmd:      editor.ReplaceText{From: 1, To: 4, Text: ""},
			expected: `<p>ac</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := exec(t, tt.html, editor.Cursor(0), tt.cmd)
			assert.Equal(t, tt.expected, e.HTML())
		})
	}

	t.Run("Text is spliced", func(t *testing.T) {
		html := `<h1>Title</h1><p>Some <em>text</em></p><ul><li>one</li><li>two</li></ul>`
		original := editor.ParseHTML(html).Text()
		for from := 0; from <= len([]rune(original)); from++ {
			for to := from; to <= len([]rune(original)); to++ {
				e := exec(t, html, editor.Cursor(0), editor.ReplaceText{From: from, To: to, Text: "X"})
				expected := string([]rune(original)[:from]) + "X" + string([]rune(original)[to:])
				assert.Equal(t, expected, e.Text(), "replace [%d,%d)", from, to)
				assert.Equal(t, editor.Cursor(from+1), e.Selection())
			}
		}
	})

	t.Run("Strict mode", func(t *testing.T) {
		editor.Strict = true
		defer func() { editor.Strict = false }()

		e := editor.New(editor.WithContent(`<p>abc</p>`))
		assert.Panics(t, func() {
			_ = e.Exec(context.Background(), editor.ReplaceText{From: 0, To: 100})
		})
		assert.Panics(t, func() {
			e.Select(0, 100)
		})
	})
}

func TestSetBlockType(t *testing.T) {
	var tests = []struct {
		name      string
		html      string
		selection editor.Selection
		cmd       editor.SetBlockType
		expected  string
	}{
		{
			name:      "Headings",
			html:      `<p>a</p><p>b</p>`,
			selection: editor.Range(0, 2),
			cmd:       editor.SetBlockType{Type: editor.HeadingType, Level: 2},
			expected:  `<h2>a</h2><h2>b</h2>`,
		},
		{
			name:      "Heading level is clamped",
			html:      `<p>a</p>`,
			selection: editor.Cursor(0),
			cmd:       editor.SetBlockType{Type: editor.HeadingType},
			expected:  `<h1>a</h1>`,
		},
		{
			name:      "Paragraph",
			html:      `<h3>a</h3>`,
			selection: editor.Cursor(1),
			cmd:       editor.SetBlockType{Type: editor.ParagraphType},
			expected:  `<p>a</p>`,
		},
		{
			name:      "Code block drops marks",
			html:      `<p><strong>x</strong></p>`,
			selection: editor.Cursor(0),
			cmd:       editor.SetBlockType{Type: editor.CodeBlockType, Language: "go"},
			expected:  `<pre><code class="language-go">x</code></pre>`,
		},
		{
			name:      "Wrap in a bullet list",
			html:      `<p>a</p><p>b</p><p>c</p>`,
			selection: editor.Range(0, 2),
			cmd:       editor.SetBlockType{Type: editor.BulletListType},
			expected:  `<ul><li><p>a</p></li><li><p>b</p></li></ul><p>c</p>`,
		},
		{
			name:      "Unwrap a bullet list",
			html:      `<ul><li><p>a</p></li><li><p>b</p></li></ul><p>c</p>`,
			selection: editor.Cursor(0),
			cmd:       editor.SetBlockType{Type: editor.BulletListType},
			expected:  `<p>a</p><p>b</p><p>c</p>`,
		},
		{
			name:      "Switch list type",
			html:      `<ul><li><p>a</p></li></ul>`,
			selection: editor.Cursor(0),
			cmd:       editor.SetBlockType{Type: editor.OrderedListType},
			expected:  `<ol><li><p>a</p></li></ol>`,
		},
		{
			name:      "Merge into a list",
			html:      `<ul><li><p>a</p></li></ul><p>b</p>`,
			selection: editor.Range(0, 2),
			cmd:       editor.SetBlockType{Type: editor.OrderedListType},
			expected:  `<ol><li><p>a</p></li><li><p>b</p></li></ol>`,
		},
		{
			name:      "Wrap in a blockquote",
			html:      `<p>a</p>`,
			selection: editor.Cursor(0),
			cmd:       editor.SetBlockType{Type: editor.BlockquoteType},
			expected:  `<blockquote><p>a</p></blockquote>`,
		},
		{
			name:      "Unwrap a blockquote",
			html:      `<blockquote><p>a</p></blockquote>`,
			selection: editor.Cursor(0),
			cmd:       editor.SetBlockType{Type: editor.BlockquoteType},
			expected:  `<p>a</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := exec(t, tt.html, tt.selection, tt.cmd)
			assert.Equal(t, tt.expected, e.HTML())
		})
	}

	t.Run("Unsupported", func(t *testing.T) {
		e := editor.New()
		err := e.Exec(context.Background(), editor.SetBlockType{Type: editor.ImageType})
		assert.ErrorIs(t, err, editor.ErrUnsupportedBlockType)
	})
}

func TestInsertContent(t *testing.T) {

	t.Run("Blocks split the current paragraph", func(t *testing.T) {
		e := exec(t, `<p>ab</p>`, editor.Cursor(1),
			editor.InsertContent{Fragment: editor.HTMLFragment(`<h2>T</h2><ul><li>x</li></ul>`)})
		assert.Equal(t, `<p>a</p><h2>T</h2><ul><li><p>x</p></li></ul><p>b</p>`, e.HTML())
		assert.Equal(t, editor.Cursor(5), e.Selection())
	})

	t.Run("Blocks replace an empty paragraph", func(t *testing.T) {
		e := exec(t, `<p></p>`, editor.Cursor(0),
			editor.InsertContent{Fragment: editor.HTMLFragment(`<h2>T</h2><ul><li>x</li></ul>`)})
		assert.Equal(t, `<h2>T</h2><ul><li><p>x</p></li></ul>`, e.HTML())
	})

	t.Run("Blocks are inserted after a list", func(t *testing.T) {
		e := exec(t, `<ul><li>a</li></ul><p>z</p>`, editor.Cursor(1),
			editor.InsertContent{Fragment: editor.HTMLFragment(`<h2>T</h2><p>u</p>`)})
		assert.Equal(t, `<ul><li><p>a</p></li></ul><h2>T</h2><p>u</p><p>z</p>`, e.HTML())
	})

	t.Run("Single paragraph is inserted inline", func(t *testing.T) {
		e := exec(t, `<p>ab</p>`, editor.Cursor(1),
			editor.InsertContent{Fragment: editor.HTMLFragment(`<p><em>X</em></p>`)})
		assert.Equal(t, `<p>a<em>X</em>b</p>`, e.HTML())
	})

	t.Run("Selection is replaced", func(t *testing.T) {
		e := exec(t, `<p>hello</p>`, editor.Range(0, 5),
			editor.InsertContent{Fragment: editor.TextFragment("bye")})
		assert.Equal(t, `<p>bye</p>`, e.HTML())
	})

	t.Run("One history entry", func(t *testing.T) {
		e := exec(t, `<p>hello</p>`, editor.Range(0, 5),
			editor.InsertContent{Fragment: editor.HTMLFragment(`<h1>A</h1><p>B</p>`)})
		assert.True(t, e.Undo())
		assert.Equal(t, `<p>hello</p>`, e.HTML())
		assert.False(t, e.CanUndo())
	})
}

func TestInsertLink(t *testing.T) {

	t.Run("Prompt for URL", func(t *testing.T) {
		var question string
		prompter := editor.PrompterFunc(func(ctx context.Context, q string) (string, error) {
			question = q
			return "https://x.io", nil
		})
		e := editor.New(editor.WithContent(`<p>hello world</p>`), editor.WithPrompter(prompter))
		e.Select(0, 5)
		require.NoError(t, e.Exec(context.Background(), editor.InsertLink{}))
		assert.Equal(t, `<p><a href="https://x.io">hello</a> world</p>`, e.HTML())
		assert.NotEmpty(t, question)
	})

	t.Run("Empty answer cancels", func(t *testing.T) {
		prompter := editor.PrompterFunc(func(ctx context.Context, q string) (string, error) {
			return " ", nil
		})
		e := exec(t, `<p>hello</p>`, editor.Range(0, 5), editor.InsertLink{Prompter: prompter})
		assert.Equal(t, `<p>hello</p>`, e.HTML())
	})

	t.Run("Insert linked text", func(t *testing.T) {
		e := exec(t, `<p>ab</p>`, editor.Cursor(1), editor.InsertLink{Href: "u", Text: "L"})
		assert.Equal(t, `<p>a<a href="u">L</a>b</p>`, e.HTML())
	})

	t.Run("No prompter", func(t *testing.T) {
		e := editor.New(editor.WithContent(`<p>ab</p>`))
		err := e.Exec(context.Background(), editor.InsertLink{})
		assert.ErrorIs(t, err, editor.ErrNoPrompter)
	})

	t.Run("Prompter error", func(t *testing.T) {
		errCanceled := errors.New("canceled")
		prompter := editor.PrompterFunc(func(ctx context.Context, q string) (string, error) {
			return "", errCanceled
		})
		e := editor.New(editor.WithContent(`<p>ab</p>`), editor.WithPrompter(prompter))
		err := e.Exec(context.Background(), editor.InsertLink{})
		assert.ErrorIs(t, err, errCanceled)
	})
}

func TestApply(t *testing.T) {
	state := editor.NewState(editor.ParseHTML(`<p>abc</p>`))
	state.Selection = editor.Range(0, 1)

	newState, err := editor.Apply(context.Background(), state, editor.ToggleMark{Type: editor.UnderlineMark})
	require.NoError(t, err)
	assert.Equal(t, `<p><u>a</u>bc</p>`, newState.Doc.HTML())
	// Original state is not modified
	assert.Equal(t, `<p>abc</p>`, state.Doc.HTML())
}
