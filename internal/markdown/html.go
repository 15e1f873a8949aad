package markdown

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"

	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

var (
	reNewlineRun      = regexp.MustCompile(`\s*\n\s*`)
	reTrailingSpaces  = regexp.MustCompile(`[ \t]+\n`)
	htmlConverter     *converter.Converter
	htmlConverterOnce sync.Once
)

// HTMLToMarkdown converts editor HTML to Markdown.
//
// The conversion is lossy (underline is dropped, unknown elements are
// reduced to their text) and never fails. Characters that would otherwise
// be read back as Markdown syntax are backslash-escaped.
func HTMLToMarkdown(src string) string {
	md, err := getHTMLConverter().ConvertString(src)
	if err != nil {
		return strings.TrimSpace(src)
	}
	md = reTrailingSpaces.ReplaceAllString(md, "\n")
	md = text.CollapseNewlines(md)
	return strings.TrimSpace(md)
}

func getHTMLConverter() *converter.Converter {
	htmlConverterOnce.Do(func() {
		htmlConverter = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		)
		for _, tagName := range []string{"ul", "ol"} {
			htmlConverter.Register.RendererFor(tagName, converter.TagTypeBlock, renderList, converter.PriorityEarly)
		}
		htmlConverter.Register.RendererFor("br", converter.TagTypeInline, renderBreak, converter.PriorityEarly)
		htmlConverter.Register.RendererFor("u", converter.TagTypeInline, renderUnwrapped, converter.PriorityEarly)
		for _, tagName := range []string{"s", "del", "strike"} {
			htmlConverter.Register.RendererFor(tagName, converter.TagTypeInline, renderStrike, converter.PriorityEarly)
		}
	})
	return htmlConverter
}

/*
 * Renderers
 */

// renderList emits tight lists. Ordered items are numbered by position and
// nested lists are indented by two spaces.
func renderList(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	ordered := dom.NodeName(n) == "ol"

	var sb strings.Builder
	position := 0
	for item := n.FirstChild; item != nil; item = item.NextSibling {
		if dom.NodeName(item) != "li" {
			continue
		}
		position++

		marker := "- "
		if ordered {
			marker = strconv.Itoa(position) + ". "
		}

		var content strings.Builder
		var nested []string
		for child := item.FirstChild; child != nil; child = child.NextSibling {
			switch dom.NodeName(child) {
			case "ul", "ol":
				var buf strings.Builder
				ctx.RenderNodes(ctx, &buf, child)
				nested = append(nested, strings.TrimSpace(buf.String()))
			default:
				ctx.RenderNodes(ctx, &content, child)
			}
		}

		sb.WriteString(marker)
		sb.WriteString(reNewlineRun.ReplaceAllString(strings.TrimSpace(content.String()), " "))
		sb.WriteString("\n")
		for _, list := range nested {
			for _, line := range strings.Split(list, "\n") {
				if strings.TrimSpace(line) == "" {
					continue
				}
				sb.WriteString("  " + line + "\n")
			}
		}
	}

	if sb.Len() == 0 {
		return converter.RenderSuccess
	}
	w.WriteString("\n\n")
	w.WriteString(strings.TrimRight(sb.String(), "\n"))
	w.WriteString("\n\n")
	return converter.RenderSuccess
}

func renderBreak(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	w.WriteString("\n")
	return converter.RenderSuccess
}

// renderUnwrapped keeps the content of elements Markdown has no syntax for.
func renderUnwrapped(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	ctx.RenderChildNodes(ctx, w, n)
	return converter.RenderSuccess
}

func renderStrike(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
	var buf strings.Builder
	ctx.RenderChildNodes(ctx, &buf, n)
	w.WriteString(wrapInline(buf.String(), "~~"))
	return converter.RenderSuccess
}

// wrapInline surrounds the content with the delimiter, moving leading and
// trailing whitespace outside.
func wrapInline(content, delimiter string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return content
	}
	leading := content[:len(content)-len(strings.TrimLeft(content, " \t\n"))]
	trailing := content[len(strings.TrimRight(content, " \t\n")):]
	return leading + delimiter + trimmed + delimiter + trailing
}
