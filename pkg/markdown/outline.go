package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// Heading is an entry of a lesson outline.
type Heading struct {
	Level int
	Title string
	Line  int // 1-based
}

// Outline returns the headings of a Markdown document in order.
// Headings inside code blocks are ignored.
func Outline(md string) []Heading {
	source := []byte(md)
	root := goldmark.DefaultParser().Parse(gmtext.NewReader(source))

	var result []Heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		line := 0
		if heading.Lines().Len() > 0 {
			start := heading.Lines().At(0).Start
			line = bytes.Count(source[:start], []byte("\n")) + 1
		}
		result = append(result, Heading{
			Level: heading.Level,
			Title: strings.TrimSpace(inlineText(heading, source)),
			Line:  line,
		})
		return ast.WalkSkipChildren, nil
	})
	return result
}

func inlineText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() {
				sb.WriteRune(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		default:
			sb.WriteString(inlineText(c, source))
		}
	}
	return sb.String()
}
