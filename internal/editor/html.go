package editor

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	htmlatom "golang.org/x/net/html/atom"
)

var (
	textEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	reWhitespace = regexp.MustCompile(`[ \t\r\n\f]+`)
)

/*
 * Serialization
 */

// HTML serializes the document. The output is deterministic: marks are
// nested in a fixed order and attributes are sorted by name.
func (d Document) HTML() string {
	var sb strings.Builder
	for _, block := range d.rootNode().Content {
		writeBlock(&sb, block)
	}
	return sb.String()
}

// HTML serializes a single node.
func (n *Node) HTML() string {
	var sb strings.Builder
	if n.Type.IsInline() {
		writeInline(&sb, []*Node{n})
	} else {
		writeBlock(&sb, n)
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, n *Node) {
	switch n.Type {
	case DocType:
		for _, child := range n.Content {
			writeBlock(sb, child)
		}
	case ParagraphType:
		sb.WriteString("<p>")
		writeInline(sb, n.Content)
		sb.WriteString("</p>")
	case HeadingType:
		fmt.Fprintf(sb, "<h%d>", clampLevel(n.Level))
		writeInline(sb, n.Content)
		fmt.Fprintf(sb, "</h%d>", clampLevel(n.Level))
	case CodeBlockType:
		sb.WriteString("<pre><code")
		if language := n.Attrs["language"]; language != "" {
			sb.WriteString(` class="language-` + attrEscaper.Replace(language) + `"`)
		}
		sb.WriteString(">")
		sb.WriteString(textEscaper.Replace(blockText(n)))
		sb.WriteString("</code></pre>")
	case BulletListType:
		writeContainer(sb, "ul", n)
	case OrderedListType:
		writeContainer(sb, "ol", n)
	case ListItemType:
		writeContainer(sb, "li", n)
	case BlockquoteType:
		writeContainer(sb, "blockquote", n)
	default:
		if n.Type.IsInline() {
			writeInline(sb, []*Node{n})
		}
	}
}

func writeContainer(sb *strings.Builder, tag string, n *Node) {
	sb.WriteString("<" + tag + ">")
	for _, child := range n.Content {
		writeBlock(sb, child)
	}
	sb.WriteString("</" + tag + ">")
}

// writeInline serializes inline nodes, sharing the open marks between
// adjacent nodes.
func writeInline(sb *strings.Builder, nodes []*Node) {
	var open []Mark

	for _, n := range nodes {
		marks := sortMarks(n.Marks)

		// Keep the common prefix of marks open
		keep := 0
		for keep < len(open) && keep < len(marks) && open[keep].Equal(marks[keep]) {
			keep++
		}
		for i := len(open) - 1; i >= keep; i-- {
			sb.WriteString(closeTag(open[i]))
		}
		open = open[:keep]
		for _, mark := range marks[keep:] {
			sb.WriteString(openTag(mark))
			open = append(open, mark)
		}

		switch n.Type {
		case TextType:
			sb.WriteString(textEscaper.Replace(n.Text))
		case HardBreakType:
			sb.WriteString("<br>")
		case ImageType:
			sb.WriteString("<img")
			writeAttrs(sb, n.Attrs)
			sb.WriteString(">")
		}
	}

	for i := len(open) - 1; i >= 0; i-- {
		sb.WriteString(closeTag(open[i]))
	}
}

func writeAttrs(sb *strings.Builder, attrs map[string]string) {
	for _, key := range sortedKeys(attrs) {
		sb.WriteString(" " + key + `="` + attrEscaper.Replace(attrs[key]) + `"`)
	}
}

func markTag(mark Mark) string {
	switch mark.Type {
	case LinkMark:
		return "a"
	case BoldMark:
		return "strong"
	case ItalicMark:
		return "em"
	case UnderlineMark:
		return "u"
	case StrikeMark:
		return "s"
	case CodeMark:
		return "code"
	case HighlightMark:
		return "mark"
	}
	return "span"
}

func openTag(mark Mark) string {
	var sb strings.Builder
	sb.WriteString("<" + markTag(mark))
	switch mark.Type {
	case LinkMark:
		writeAttrs(&sb, map[string]string{"href": mark.Attrs["href"]})
	case HighlightMark:
		if color := mark.Attrs["color"]; color != "" {
			writeAttrs(&sb, map[string]string{"data-color": color})
		}
	}
	sb.WriteString(">")
	return sb.String()
}

func closeTag(mark Mark) string {
	return "</" + markTag(mark) + ">"
}

/*
 * Parsing
 */

// ParseHTML builds a document from HTML. Unknown elements are unwrapped and
// stray inline content is wrapped in paragraphs. Parsing never fails.
func ParseHTML(src string) Document {
	return NewDocument(ParseFragment(src)...)
}

// ParseFragment parses HTML into a list of normalized block nodes.
func ParseFragment(src string) []*Node {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: htmlatom.Body,
	}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		// Only an I/O error can happen on a strings.Reader
		return []*Node{NewParagraph(NewText(src))}
	}
	return normalizeBlocks(parseBlocks(nodes))
}

func parseBlocks(nodes []*html.Node) []*Node {
	var result []*Node
	var run []*Node

	flush := func() {
		if !blankInline(run) {
			result = append(result, NewParagraph(trimInline(run)...))
		}
		run = nil
	}

	for _, n := range nodes {
		if !isBlockElement(n) {
			run = append(run, parseInline(n, nil)...)
			continue
		}
		flush()
		result = append(result, parseBlock(n)...)
	}
	flush()
	return result
}

func parseBlock(n *html.Node) []*Node {
	switch n.DataAtom {
	case htmlatom.P:
		return []*Node{NewParagraph(trimInline(parseChildrenInline(n, nil))...)}
	case htmlatom.H1, htmlatom.H2, htmlatom.H3, htmlatom.H4, htmlatom.H5, htmlatom.H6:
		level := int(n.Data[1] - '0')
		return []*Node{NewHeading(level, trimInline(parseChildrenInline(n, nil))...)}
	case htmlatom.Ul, htmlatom.Ol:
		list := &Node{Type: BulletListType}
		if n.DataAtom == htmlatom.Ol {
			list.Type = OrderedListType
		}
		var stray []*html.Node
		flushStray := func() {
			if blocks := parseBlocks(stray); len(blocks) > 0 {
				list.Content = append(list.Content, NewListItem(blocks...))
			}
			stray = nil
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.DataAtom == htmlatom.Li {
				flushStray()
				list.Content = append(list.Content, NewListItem(parseBlocks(childNodes(c))...))
				continue
			}
			stray = append(stray, c)
		}
		flushStray()
		if len(list.Content) == 0 {
			return nil
		}
		return []*Node{list}
	case htmlatom.Blockquote:
		return []*Node{NewBlockquote(parseBlocks(childNodes(n))...)}
	case htmlatom.Pre:
		return []*Node{NewCodeBlock(codeLanguage(n), strings.TrimSuffix(textContent(n), "\n"))}
	case htmlatom.Script, htmlatom.Style, htmlatom.Head, htmlatom.Template, htmlatom.Title, htmlatom.Meta, htmlatom.Link:
		return nil
	}
	// Unknown containers (div, section, li outside a list...) are unwrapped
	return parseBlocks(childNodes(n))
}

func parseChildrenInline(n *html.Node, marks []Mark) []*Node {
	var result []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, parseInline(c, marks)...)
	}
	return result
}

func parseInline(n *html.Node, marks []Mark) []*Node {
	switch n.Type {
	case html.TextNode:
		text := reWhitespace.ReplaceAllString(n.Data, " ")
		if text == "" {
			return nil
		}
		return []*Node{NewText(text, marks...)}
	case html.ElementNode:
		// continue below
	default:
		return nil
	}

	switch n.DataAtom {
	case htmlatom.Strong, htmlatom.B:
		return parseChildrenInline(n, addMark(marks, Mark{Type: BoldMark}))
	case htmlatom.Em, htmlatom.I:
		return parseChildrenInline(n, addMark(marks, Mark{Type: ItalicMark}))
	case htmlatom.U:
		return parseChildrenInline(n, addMark(marks, Mark{Type: UnderlineMark}))
	case htmlatom.S, htmlatom.Del, htmlatom.Strike:
		return parseChildrenInline(n, addMark(marks, Mark{Type: StrikeMark}))
	case htmlatom.Code:
		return parseChildrenInline(n, addMark(marks, Mark{Type: CodeMark}))
	case htmlatom.A:
		href := attr(n, "href")
		if href == "" {
			return parseChildrenInline(n, marks)
		}
		return parseChildrenInline(n, addMark(marks, Mark{Type: LinkMark, Attrs: map[string]string{"href": href}}))
	case htmlatom.Mark:
		var attrs map[string]string
		if color := attr(n, "data-color"); color != "" {
			attrs = map[string]string{"color": color}
		}
		return parseChildrenInline(n, addMark(marks, Mark{Type: HighlightMark, Attrs: attrs}))
	case htmlatom.Br:
		return []*Node{{Type: HardBreakType, Marks: cloneMarks(marks)}}
	case htmlatom.Img:
		image := NewImage(attr(n, "src"), attr(n, "alt"))
		image.Marks = cloneMarks(marks)
		return []*Node{image}
	case htmlatom.Script, htmlatom.Style, htmlatom.Template:
		return nil
	}
	// span, unknown elements, and blocks nested in inline content keep their content
	return parseChildrenInline(n, marks)
}

// blankInline returns true when a run of inline nodes has no visible content.
func blankInline(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Type != TextType || strings.TrimSpace(n.Text) != "" {
			return false
		}
	}
	return true
}

// trimInline removes leading and trailing whitespace of a textblock content.
func trimInline(nodes []*Node) []*Node {
	for len(nodes) > 0 && nodes[0].Type == TextType {
		nodes[0].Text = strings.TrimLeft(nodes[0].Text, " ")
		if nodes[0].Text != "" {
			break
		}
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && nodes[len(nodes)-1].Type == TextType {
		last := nodes[len(nodes)-1]
		last.Text = strings.TrimRight(last.Text, " ")
		if last.Text != "" {
			break
		}
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}

func isBlockElement(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case htmlatom.P, htmlatom.H1, htmlatom.H2, htmlatom.H3, htmlatom.H4, htmlatom.H5, htmlatom.H6,
		htmlatom.Ul, htmlatom.Ol, htmlatom.Li, htmlatom.Blockquote, htmlatom.Pre,
		htmlatom.Div, htmlatom.Section, htmlatom.Article, htmlatom.Header, htmlatom.Footer, htmlatom.Main, htmlatom.Aside, htmlatom.Nav,
		htmlatom.Table, htmlatom.Tbody, htmlatom.Thead, htmlatom.Tr, htmlatom.Td, htmlatom.Th, htmlatom.Hr,
		htmlatom.Script, htmlatom.Style, htmlatom.Head, htmlatom.Template, htmlatom.Title, htmlatom.Meta, htmlatom.Link:
		return true
	}
	return false
}

func childNodes(n *html.Node) []*html.Node {
	var result []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		result = append(result, c)
	}
	return result
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == htmlatom.Br {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != htmlatom.Code {
			continue
		}
		for _, class := range strings.Fields(attr(c, "class")) {
			if language, ok := strings.CutPrefix(class, "language-"); ok {
				return language
			}
		}
	}
	return ""
}
