package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/julien-sobczak/the-lessonwriter/pkg/text"
)

var (
	reHeading      = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	reBulletItem   = regexp.MustCompile(`^\s*[-*+]\s+(.*)$`)
	reNumberedItem = regexp.MustCompile(`^\s*\d+\.\s+(.*)$`)
	reQuoteLine    = regexp.MustCompile(`^\s*>\s?(.*)$`)

	reImage        = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]*)\)`)
	reLink         = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	reBoldItalic   = regexp.MustCompile(`\*\*\*([^*]+?)\*\*\*`)
	reBold         = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)
	reItalic       = regexp.MustCompile(`\*([^*\s](?:[^*]*[^*\s])?)\*`)
	reItalicUnder  = regexp.MustCompile(`(^|[^\p{L}\p{N}_])_([^_\s](?:[^_]*[^_\s])?)_($|[^\p{L}\p{N}_])`)
	reStrike       = regexp.MustCompile(`~~(.+?)~~`)
	rePlaceholder  = regexp.MustCompile("\x00(\\d+)\x00")
	reEscaped      = regexp.MustCompile("\\\\([!-/:-@\\[-`{-~])")
	reEscapedMark  = regexp.MustCompile("\x01(\\d+)\x01")
	textEscaper    = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper    = strings.NewReplacer(`"`, "&quot;")
	placeholderFmt = "\x00%d\x00"
)

// MarkdownToHTML converts lesson Markdown to editor HTML.
//
// Supported syntax: ATX headings, bullet and numbered lists (flat), fenced
// code blocks, quote lines, and inline bold, italic, strike, code, links and
// images. Anything else becomes a literal paragraph. The conversion is best
// effort (not CommonMark) and never fails.
func MarkdownToHTML(md string) string {
	r := &htmlRenderer{}
	for _, line := range strings.Split(text.NormalizeLineEndings(md), "\n") {
		r.writeLine(line)
	}
	r.close()
	return r.sb.String()
}

type htmlRenderer struct {
	sb strings.Builder

	// Current open list ("", "ul", "ol")
	list string
	// Inside a <blockquote>?
	quote bool
	// Inside a fenced code block?
	code      bool
	codeLines []string
	codeLang  string
}

func (r *htmlRenderer) writeLine(line string) {
	trimmed := strings.TrimSpace(line)

	if r.code {
		if strings.HasPrefix(trimmed, "```") {
			r.closeCode()
			return
		}
		r.codeLines = append(r.codeLines, line)
		return
	}

	if strings.HasPrefix(trimmed, "```") {
		r.closeList()
		r.closeQuote()
		r.code = true
		r.codeLines = nil
		r.codeLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		return
	}

	if trimmed == "" {
		r.closeList()
		r.closeQuote()
		return
	}

	if match := reHeading.FindStringSubmatch(trimmed); match != nil {
		r.closeList()
		r.closeQuote()
		level := len(match[1])
		fmt.Fprintf(&r.sb, "<h%d>%s</h%d>", level, renderMarkdownInline(strings.TrimSpace(match[2])), level)
		return
	}

	if match := reBulletItem.FindStringSubmatch(line); match != nil {
		r.closeQuote()
		r.openList("ul")
		r.sb.WriteString("<li>" + renderMarkdownInline(strings.TrimSpace(match[1])) + "</li>")
		return
	}

	if match := reNumberedItem.FindStringSubmatch(line); match != nil {
		r.closeQuote()
		r.openList("ol")
		r.sb.WriteString("<li>" + renderMarkdownInline(strings.TrimSpace(match[1])) + "</li>")
		return
	}

	if match := reQuoteLine.FindStringSubmatch(line); match != nil {
		r.closeList()
		if !r.quote {
			r.sb.WriteString("<blockquote>")
			r.quote = true
		}
		if content := strings.TrimSpace(match[1]); content != "" {
			r.sb.WriteString("<p>" + renderMarkdownInline(content) + "</p>")
		}
		return
	}

	r.closeList()
	r.closeQuote()
	r.sb.WriteString("<p>" + renderMarkdownInline(trimmed) + "</p>")
}

func (r *htmlRenderer) openList(kind string) {
	if r.list == kind {
		return
	}
	r.closeList()
	r.sb.WriteString("<" + kind + ">")
	r.list = kind
}

func (r *htmlRenderer) closeList() {
	if r.list == "" {
		return
	}
	r.sb.WriteString("</" + r.list + ">")
	r.list = ""
}

func (r *htmlRenderer) closeQuote() {
	if !r.quote {
		return
	}
	r.sb.WriteString("</blockquote>")
	r.quote = false
}

func (r *htmlRenderer) closeCode() {
	if r.codeLang != "" {
		r.sb.WriteString(`<pre><code class="language-` + attrEscaper.Replace(textEscaper.Replace(r.codeLang)) + `">`)
	} else {
		r.sb.WriteString("<pre><code>")
	}
	r.sb.WriteString(textEscaper.Replace(strings.Join(r.codeLines, "\n")))
	r.sb.WriteString("</code></pre>")
	r.code = false
	r.codeLines = nil
	r.codeLang = ""
}

func (r *htmlRenderer) close() {
	if r.code {
		// Unterminated fence runs until the end of the document
		r.closeCode()
	}
	r.closeList()
	r.closeQuote()
}

// renderMarkdownInline converts inline Markdown syntax. Code spans are
// never formatted. A backslash before a punctuation character outputs the
// character literally, except inside code spans.
func renderMarkdownInline(s string) string {
	var escaped []string
	s = reEscaped.ReplaceAllStringFunc(s, func(m string) string {
		escaped = append(escaped, m[1:])
		return "\x01" + strconv.Itoa(len(escaped)-1) + "\x01"
	})
	restore := func(s string, keepBackslash bool) string {
		return reEscapedMark.ReplaceAllStringFunc(s, func(m string) string {
			index, err := strconv.Atoi(strings.Trim(m, "\x01"))
			if err != nil || index >= len(escaped) {
				return m
			}
			if keepBackslash {
				return textEscaper.Replace("\\" + escaped[index])
			}
			return textEscaper.Replace(escaped[index])
		})
	}

	var sb strings.Builder
	parts := strings.Split(s, "`")
	for i, part := range parts {
		if i%2 == 0 {
			sb.WriteString(restore(formatInline(part), false))
			continue
		}
		if i == len(parts)-1 {
			// Unmatched backtick
			sb.WriteString(restore("`"+formatInline(part), false))
			continue
		}
		sb.WriteString("<code>" + restore(textEscaper.Replace(part), true) + "</code>")
	}
	return sb.String()
}

func formatInline(s string) string {
	// Links and images are replaced by placeholders so that their URLs
	// are not affected by emphasis rules.
	var elements []string
	s = reImage.ReplaceAllStringFunc(s, func(m string) string {
		match := reImage.FindStringSubmatch(m)
		elements = append(elements, fmt.Sprintf(`<img alt="%s" src="%s">`,
			attrEscaper.Replace(textEscaper.Replace(match[1])),
			attrEscaper.Replace(textEscaper.Replace(match[2]))))
		return fmt.Sprintf(placeholderFmt, len(elements)-1)
	})
	s = reLink.ReplaceAllStringFunc(s, func(m string) string {
		match := reLink.FindStringSubmatch(m)
		elements = append(elements, fmt.Sprintf(`<a href="%s">%s</a>`,
			attrEscaper.Replace(textEscaper.Replace(match[2])),
			formatEmphasis(textEscaper.Replace(match[1]))))
		return fmt.Sprintf(placeholderFmt, len(elements)-1)
	})

	s = formatEmphasis(textEscaper.Replace(s))

	return rePlaceholder.ReplaceAllStringFunc(s, func(m string) string {
		match := rePlaceholder.FindStringSubmatch(m)
		index, err := strconv.Atoi(match[1])
		if err != nil || index >= len(elements) {
			return m
		}
		return elements[index]
	})
}

func formatEmphasis(s string) string {
	s = reBoldItalic.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = reBold.ReplaceAllString(s, "<strong>$1$2</strong>")
	s = reStrike.ReplaceAllString(s, "<s>$1</s>")
	s = reItalic.ReplaceAllString(s, "<em>$1</em>")
	// Boundary characters are consumed by the regex, so adjacent matches need another pass
	for i := 0; i < 3; i++ {
		replaced := reItalicUnder.ReplaceAllString(s, "$1<em>$2</em>$3")
		if replaced == s {
			break
		}
		s = replaced
	}
	return s
}

// ToHTML is a transformer converting the Markdown document to HTML.
func ToHTML() Transformer {
	return func(document Document) (Document, error) {
		return Document(MarkdownToHTML(string(document))), nil
	}
}
