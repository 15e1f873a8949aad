package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/editor"
)

func TestNodeClone(t *testing.T) {
	link := editor.Mark{Type: editor.LinkMark, Attrs: map[string]string{"href": "https://x.io"}}
	original := editor.NewParagraph(
		editor.NewText("site", link, editor.Mark{Type: editor.BoldMark}),
		editor.NewText(" end"),
	)
	original.Attrs = map[string]string{"id": "p1"}

	clone := original.Clone()
	require.NotSame(t, original, clone)
	require.Len(t, clone.Content, 2)
	assert.Equal(t, editor.ParagraphType, clone.Type)
	assert.Equal(t, "p1", clone.Attrs["id"])
	assert.True(t, clone.Content[0].HasMark(editor.LinkMark))
	assert.True(t, clone.Content[0].HasMark(editor.BoldMark))

	// Changes to the clone must not leak into the original
	clone.Attrs["id"] = "p2"
	clone.Content[0].Marks[0].Attrs["href"] = "https://y.io"
	clone.Content[1].Text = " changed"
	clone.Content = append(clone.Content, editor.NewText("!"))

	assert.Equal(t, "p1", original.Attrs["id"])
	assert.Equal(t, "https://x.io", original.Content[0].Marks[0].Attrs["href"])
	assert.Equal(t, " end", original.Content[1].Text)
	assert.Len(t, original.Content, 2)

	var missing *editor.Node
	assert.Nil(t, missing.Clone())
}
