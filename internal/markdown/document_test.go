package markdown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julien-sobczak/the-lessonwriter/internal/markdown"
)

func TestDocument(t *testing.T) {
	doc := markdown.Document("\n# Title\n\n\n\nText\n")

	assert.Equal(t, []string{"", "# Title", "", "", "", "Text", ""}, doc.Lines())
	assert.Equal(t, markdown.Document("# Title\n\nText"), doc.ToCleanMarkdown())
	assert.Equal(t, "<h1>Title</h1><p>Text</p>", doc.ToHTML())

	iterator := doc.Iterator()
	iterator.SkipBlankLines()
	line := iterator.Next()
	assert.Equal(t, "# Title", line.Text)
	assert.Equal(t, 2, line.Number)
}

func TestIsHeading(t *testing.T) {
	var tests = []struct {
		line  string
		ok    bool
		title string
		level int
	}{
		{"# Title", true, "Title", 1},
		{"### Step 1: Start ", true, "Step 1: Start", 3},
		{"#Title", false, "", 0},
		{"####### Too deep", false, "", 0},
		{"Text", false, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ok, title, level := markdown.IsHeading(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "intro-variables", markdown.Slug("Intro", "**Variables**"))
	assert.Equal(t, "lesson-1-hello-world", markdown.Slug("Lesson 1: Hello World!"))
	assert.Equal(t, "only", markdown.Slug("", "Only"))
}

func TestTransformers(t *testing.T) {

	t.Run("ReplaceCharacters", func(t *testing.T) {
		doc := markdown.Document("a -> b `c -> d`\n```\ne -> f\n```")
		actual, err := doc.Transform(markdown.ReplaceCharacters(map[string]string{"->": "→"}))
		require.NoError(t, err)
		assert.Equal(t, markdown.Document("a → b `c -> d`\n```\ne -> f\n```"), actual)
	})

	t.Run("StripHTMLComments", func(t *testing.T) {
		doc := markdown.Document("a<!-- hidden\ncomment -->b")
		assert.Equal(t, markdown.Document("ab"), doc.MustTransform(markdown.StripHTMLComments()))
	})

	t.Run("StripEmphasis", func(t *testing.T) {
		doc := markdown.Document("**bold** *it* _it_ ~~s~~ `code`")
		assert.Equal(t, markdown.Document("bold it it s code"), doc.MustTransform(markdown.StripEmphasis()))
	})

	t.Run("CollapseNewlines", func(t *testing.T) {
		doc := markdown.Document("a\n\n\n\nb")
		assert.Equal(t, markdown.Document("a\n\nb"), doc.MustTransform(markdown.CollapseNewlines()))
	})

	t.Run("StripCodeBlocks", func(t *testing.T) {
		doc := markdown.Document("a\n```\ncode\n```\nb")
		assert.Equal(t, markdown.Document("a\n\n\n\nb"), doc.MustTransform(markdown.StripCodeBlocks()))
	})
}

func TestExtractCodeBlocks(t *testing.T) {
	doc := markdown.Document("Intro\n\n```go\nfmt.Println(1)\n```\n\n```\nplain\n```\n")
	blocks := doc.ExtractCodeBlocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, 3, blocks[0].Line)
	assert.Equal(t, "go", blocks[0].Language)
	assert.Equal(t, "fmt.Println(1)\n", blocks[0].Source)
	assert.Equal(t, "", blocks[1].Language)
	assert.Equal(t, "plain\n", blocks[1].Source)
}

func TestLinks(t *testing.T) {
	doc := markdown.Document("See [site](https://x.io) and ![img](a.png)\n```\n[not](a)\n```\n[empty]()")

	links := doc.Links()
	require.Len(t, links, 2)
	assert.Equal(t, "site", links[0].Text)
	assert.Equal(t, "https://x.io", links[0].URL)
	assert.Equal(t, 1, links[0].Line)
	assert.True(t, links[0].External())
	assert.False(t, links[0].Blank())
	assert.Equal(t, "empty", links[1].Text)
	assert.Equal(t, 5, links[1].Line)
	assert.True(t, links[1].Blank())

	images := doc.Images()
	require.Len(t, images, 1)
	assert.Equal(t, "a.png", images[0].URL)
	assert.False(t, images[0].External())
	assert.Equal(t, "[img](a.png)", images[0].String())
}
