package markdown

import (
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Policy applied to every rendered preview
var previewPolicy = newPreviewPolicy()

func newPreviewPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	// Keep syntax highlighting hints on code blocks
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w+-]+$`)).OnElements("code")
	policy.AllowAttrs("data-color").OnElements("mark")
	policy.AllowElements("mark", "u", "s")
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}

// ToHTML renders Markdown for preview. The result is sanitized and safe to
// display even when the Markdown embeds raw HTML.
func ToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	// No typographic substitutions: the preview shows the text as typed
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{})
	html := markdown.ToHTML([]byte(md), p, renderer)
	return strings.TrimSpace(Sanitize(string(html)))
}

// Sanitize removes elements and attributes unsafe to display.
func Sanitize(html string) string {
	return previewPolicy.Sanitize(html)
}
