package search

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Attribute identifying the marks added by Highlight
const HighlightAttr = "data-search"

// Values of HighlightAttr
const (
	HighlightMatch   = "match"
	HighlightCurrent = "current"
)

// Runes present in the plain text but absent from HTML text nodes
const (
	blockSeparator    = '\n'
	objectReplacement = '\uFFFC'
)

var bodyContext = &html.Node{
	Type:     html.ElementNode,
	Data:     "body",
	DataAtom: atom.Body,
}

// segment is a text node with the plain text offset of each of its runes
// (-1 when the rune could not be aligned).
type segment struct {
	node    *html.Node
	runes   []rune
	offsets []int
}

// parseFragment parses the HTML under a detached container node.
func parseFragment(src string) (*html.Node, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), bodyContext)
	if err != nil {
		return nil, err
	}
	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

func render(container *html.Node) (string, error) {
	var sb strings.Builder
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func textNodes(n *html.Node) []*html.Node {
	var result []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			result = append(result, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return result
}

// align maps every rune of the text nodes to its offset in the plain text.
// The plain text contains the same runes plus block separators and
// placeholders for images, which are skipped.
func align(nodes []*html.Node, txt string) []segment {
	plain := []rune(txt)
	pos := 0
	var segments []segment
	for _, n := range nodes {
		seg := segment{node: n, runes: []rune(n.Data)}
		for _, r := range seg.runes {
			for pos < len(plain) && plain[pos] != r && (plain[pos] == blockSeparator || plain[pos] == objectReplacement) {
				pos++
			}
			if pos < len(plain) && plain[pos] == r {
				seg.offsets = append(seg.offsets, pos)
				pos++
				continue
			}
			seg.offsets = append(seg.offsets, -1)
		}
		segments = append(segments, seg)
	}
	return segments
}

// matchAt returns the index of the match containing the offset, or -1.
func matchAt(matches []Match, offset int) int {
	if offset < 0 {
		return -1
	}
	// Matches are sorted and few, a linear scan is enough
	for i, m := range matches {
		if m.Contains(offset) {
			return i
		}
		if m.Start > offset {
			break
		}
	}
	return -1
}

// Highlight wraps every match in a <mark data-search="match"> element.
// The current match uses the value "current". A match spanning several
// text nodes is wrapped piece by piece.
func Highlight(src string, txt string, matches []Match, current int) (string, error) {
	if len(matches) == 0 {
		return src, nil
	}
	container, err := parseFragment(src)
	if err != nil {
		return "", err
	}
	for _, seg := range align(textNodes(container), txt) {
		highlightSegment(seg, matches, current)
	}
	return render(container)
}

func highlightSegment(seg segment, matches []Match, current int) {
	parent := seg.node.Parent
	if parent == nil {
		return
	}
	start := 0
	for start < len(seg.runes) {
		index := matchAt(matches, seg.offsets[start])
		end := start + 1
		for end < len(seg.runes) && matchAt(matches, seg.offsets[end]) == index {
			end++
		}
		piece := &html.Node{Type: html.TextNode, Data: string(seg.runes[start:end])}
		if index < 0 {
			parent.InsertBefore(piece, seg.node)
		} else {
			value := HighlightMatch
			if index == current {
				value = HighlightCurrent
			}
			mark := &html.Node{
				Type:     html.ElementNode,
				Data:     "mark",
				DataAtom: atom.Mark,
				Attr:     []html.Attribute{{Key: HighlightAttr, Val: value}},
			}
			mark.AppendChild(piece)
			parent.InsertBefore(mark, seg.node)
		}
		start = end
	}
	parent.RemoveChild(seg.node)
}

// StripHighlights removes the marks added by Highlight, keeping their content.
// Other <mark> elements are preserved.
func StripHighlights(src string) (string, error) {
	if !strings.Contains(src, HighlightAttr) {
		return src, nil
	}
	container, err := parseFragment(src)
	if err != nil {
		return "", err
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			walk(c)
			if c.Type == html.ElementNode && c.DataAtom == atom.Mark && hasAttr(c, HighlightAttr) {
				for gc := c.FirstChild; gc != nil; {
					gcNext := gc.NextSibling
					c.RemoveChild(gc)
					n.InsertBefore(gc, c)
					gc = gcNext
				}
				n.RemoveChild(c)
			}
			c = next
		}
	}
	walk(container)
	return render(container)
}

// replaceMatches substitutes the replacement to the given matches.
// The replacement is inserted in the text node containing the first rune
// of a match; the other runes of the match are removed.
func replaceMatches(src string, txt string, matches []Match, replacement string) (string, error) {
	container, err := parseFragment(src)
	if err != nil {
		return "", err
	}
	inserted := make([]bool, len(matches))
	for _, seg := range align(textNodes(container), txt) {
		var sb strings.Builder
		for i, r := range seg.runes {
			index := matchAt(matches, seg.offsets[i])
			if index < 0 {
				sb.WriteRune(r)
				continue
			}
			if !inserted[index] {
				sb.WriteString(replacement)
				inserted[index] = true
			}
		}
		seg.node.Data = sb.String()
	}
	return render(container)
}

func hasAttr(n *html.Node, key string) bool {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return true
		}
	}
	return false
}
