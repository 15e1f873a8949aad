package search_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
	"github.com/julien-sobczak/the-lessonwriter/internal/search"
)

var _ search.Surface = (*editor.Editor)(nil)

func TestEngineNavigation(t *testing.T) {
	ed := editor.New(editor.WithContent("<p>one cat, two cats, three cat and a cat</p>"))
	engine := search.NewEngine(ed)

	require.Equal(t, 3, engine.SetQuery("cat"))
	assert.Equal(t, 0, engine.Current())

	// Cyclic in both directions
	engine.Next()
	engine.Next()
	assert.Equal(t, 0, engine.Next())
	assert.Equal(t, 2, engine.Previous())
	assert.Equal(t, 1, engine.Previous())

	match, ok := engine.CurrentMatch()
	require.True(t, ok)
	assert.Equal(t, search.Match{Start: 25, End: 28}, match)

	// Changing the query resets the current match
	assert.Equal(t, 0, engine.SetQuery("dog"))
	assert.Equal(t, 0, engine.Next())
	assert.Equal(t, 0, engine.Previous())
	_, ok = engine.CurrentMatch()
	assert.False(t, ok)
}

func TestEngineReplaceOne(t *testing.T) {
	ed := editor.New(editor.WithContent("<p>cat and cat</p>"))
	engine := search.NewEngine(ed)
	engine.SetQuery("cat")
	engine.SetReplacement("dog")
	engine.Next()

	require.NoError(t, engine.ReplaceOne())
	assert.Equal(t, "cat and dog", ed.Text())
	assert.Equal(t, 1, engine.Count())
	assert.Equal(t, 0, engine.Current())
	assert.True(t, ed.Focused())

	require.NoError(t, engine.ReplaceOne())
	assert.Equal(t, "dog and dog", ed.Text())
	assert.Equal(t, 0, engine.Count())
	assert.ErrorIs(t, engine.ReplaceOne(), search.ErrNoMatch)
}

func TestEngineReplaceAll(t *testing.T) {
	ed := editor.New(editor.WithContent("<p>foo and foo</p><ul><li><p>a <strong>foo</strong></p></li></ul><p>food</p>"))
	engine := search.NewEngine(ed)
	require.Equal(t, 3, engine.SetQuery("foo"))
	engine.SetReplacement("bar")
	engine.Next()

	count, err := engine.ReplaceAll()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 0, engine.Count())
	assert.Equal(t, 0, engine.Current())
	assert.Equal(t, 0, search.Count(ed.Text(), "foo", search.DefaultOptions()))
	assert.Equal(t, 3, strings.Count(ed.Text(), "bar"))
	assert.Contains(t, ed.HTML(), "<strong>bar</strong>")
	assert.Contains(t, ed.Text(), "food")

	// A single content update
	require.True(t, ed.Undo())
	assert.Equal(t, "foo and foo\na foo\nfood", ed.Text())

	_, err = engine.ReplaceAll()
	require.NoError(t, err)
	_, err = engine.ReplaceAll()
	assert.ErrorIs(t, err, search.ErrNoMatch)
}

func TestEngineReplaceAcrossMarks(t *testing.T) {
	ed := editor.New(editor.WithContent("<p>c<strong>at</strong> food</p>"))
	engine := search.NewEngine(ed)
	require.Equal(t, 1, engine.SetQuery("cat"))
	engine.SetReplacement("dog")

	_, err := engine.ReplaceAll()
	require.NoError(t, err)
	assert.Equal(t, "dog food", ed.Text())
}

func TestHighlight(t *testing.T) {
	ed := editor.New(editor.WithContent("<p>the cat sat on the cat mat</p>"))
	engine := search.NewEngine(ed)
	engine.SetQuery("cat")
	engine.Next()

	highlighted, err := engine.Highlight()
	require.NoError(t, err)
	assert.Equal(t, `<p>the <mark data-search="match">cat</mark> sat on the <mark data-search="current">cat</mark> mat</p>`, highlighted)

	// Highlights are transient
	assert.Equal(t, "<p>the cat sat on the cat mat</p>", ed.HTML())

	stripped, err := search.StripHighlights(highlighted)
	require.NoError(t, err)
	assert.Equal(t, ed.HTML(), stripped)
}

func TestHighlightAcrossBlocksAndMarks(t *testing.T) {
	src := "<p>c<strong>at</strong> food</p><p>cat</p>"
	txt := "cat food\ncat"
	matches := search.FindAll(txt, "cat", search.DefaultOptions())
	require.Len(t, matches, 2)

	highlighted, err := search.Highlight(src, txt, matches, 0)
	require.NoError(t, err)
	assert.Equal(t,
		`<p><mark data-search="current">c</mark><strong><mark data-search="current">at</mark></strong> food</p>`+
			`<p><mark data-search="match">cat</mark></p>`,
		highlighted)

	stripped, err := search.StripHighlights(highlighted)
	require.NoError(t, err)
	assert.Equal(t, src, stripped)
}

func TestStripHighlights(t *testing.T) {
	var tests = []struct {
		name     string // name
		html     string // input
		expected string // output
	}{
		{
			name:     "Nothing to strip",
			html:     "<p>a &amp; b</p>",
			expected: "<p>a &amp; b</p>",
		},
		{
			name:     "Color marks are kept",
			html:     `<p><mark data-color="yellow">x</mark> <mark data-search="match">y</mark></p>`,
			expected: `<p><mark data-color="yellow">x</mark> y</p>`,
		},
		{
			name:     "Nested",
			html:     `<p><em><mark data-search="current">y</mark>z</em></p>`,
			expected: `<p><em>yz</em></p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := search.StripHighlights(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, actual)
		})
	}
}
