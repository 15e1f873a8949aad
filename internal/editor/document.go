package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ObjectReplacementChar represents an image in the plain text of a document.
const ObjectReplacementChar = '￼'

// Strict makes invalid positions panic instead of being clamped.
// Useful in development to detect bugs early.
var Strict = false

// Document is an immutable tree of nodes rooted at a doc node.
//
// Positions are rune offsets into Text(). Textblocks are separated by
// a single newline, a hard break counts as a newline, and an image
// counts as one character.
type Document struct {
	root *Node
}

// NewDocument creates a document from a list of blocks.
func NewDocument(blocks ...*Node) Document {
	root := &Node{Type: DocType}
	for _, block := range blocks {
		root.Content = append(root.Content, block.Clone())
	}
	normalizeTree(root)
	return Document{root: root}
}

// EmptyDocument returns a document with a single empty paragraph.
func EmptyDocument() Document {
	return NewDocument()
}

// Root returns a copy of the root node.
func (d Document) Root() *Node {
	return d.rootNode().Clone()
}

// Blocks returns copies of the top-level blocks.
func (d Document) Blocks() []*Node {
	return d.Root().Content
}

func (d Document) rootNode() *Node {
	if d.root == nil {
		return &Node{Type: DocType, Content: []*Node{NewParagraph()}}
	}
	return d.root
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return Document{root: d.rootNode().Clone()}
}

// Text returns the plain text of the document.
func (d Document) Text() string {
	var lines []string
	for _, ref := range textblocks(d.rootNode()) {
		lines = append(lines, blockText(ref.node))
	}
	return strings.Join(lines, "\n")
}

// Size returns the number of positions in the document.
func (d Document) Size() int {
	return utf8.RuneCountInString(d.Text())
}

// IsEmpty returns true when the document is a single empty paragraph.
// Whitespace and empty list items are content.
func (d Document) IsEmpty() bool {
	return d.Equal(EmptyDocument())
}

// Equal compares two documents using their HTML representation.
func (d Document) Equal(other Document) bool {
	return d.HTML() == other.HTML()
}

func (d Document) String() string {
	return d.HTML()
}

func blockText(block *Node) string {
	var sb strings.Builder
	for _, a := range inlineAtoms(block) {
		sb.WriteRune(a.r)
	}
	return sb.String()
}

/*
 * Textblocks
 */

// blockRef references a textblock with its ancestors (root first).
type blockRef struct {
	node      *Node
	ancestors []*Node
}

func (r blockRef) parent() *Node {
	return r.ancestors[len(r.ancestors)-1]
}

// top returns the ancestor that is a direct child of the root (or the block itself).
func (r blockRef) top() *Node {
	if len(r.ancestors) > 1 {
		return r.ancestors[1]
	}
	return r.node
}

// textblocks returns all textblocks in document order.
func textblocks(root *Node) []blockRef {
	var refs []blockRef
	var walk func(n *Node, ancestors []*Node)
	walk = func(n *Node, ancestors []*Node) {
		if n.Type.IsTextblock() {
			path := make([]*Node, len(ancestors))
			copy(path, ancestors)
			refs = append(refs, blockRef{node: n, ancestors: path})
			return
		}
		for _, child := range n.Content {
			walk(child, append(ancestors, n))
		}
	}
	walk(root, nil)
	return refs
}

// locate returns the index of the textblock containing the position and the
// offset inside this block.
func locate(refs []blockRef, pos int) (int, int) {
	start := 0
	for i, ref := range refs {
		length := len(inlineAtoms(ref.node))
		if pos <= start+length {
			return i, pos - start
		}
		start += length + 1
	}
	last := len(refs) - 1
	return last, len(inlineAtoms(refs[last].node))
}

// blockStart returns the position of the first character of a textblock.
func blockStart(refs []blockRef, node *Node) (int, bool) {
	start := 0
	for _, ref := range refs {
		if ref.node == node {
			return start, true
		}
		start += len(inlineAtoms(ref.node)) + 1
	}
	return 0, false
}

// clampPosition ensures a position is inside the document.
func clampPosition(pos, size int) int {
	if pos >= 0 && pos <= size {
		return pos
	}
	if Strict {
		panic(fmt.Sprintf("position %d out of range [0,%d]", pos, size))
	}
	if pos < 0 {
		return 0
	}
	return size
}

/*
 * Atoms
 */

// atom is a single position inside a textblock.
type atom struct {
	r     rune
	kind  NodeType // text, hardBreak, or image
	attrs map[string]string
	marks []Mark
	split bool // newline splitting the textblock (insertions only)
}

func inlineAtoms(block *Node) []atom {
	var atoms []atom
	for _, child := range block.Content {
		switch child.Type {
		case TextType:
			for _, r := range child.Text {
				atoms = append(atoms, atom{r: r, kind: TextType, marks: child.Marks})
			}
		case HardBreakType:
			atoms = append(atoms, atom{r: '\n', kind: HardBreakType, marks: child.Marks})
		case ImageType:
			atoms = append(atoms, atom{r: ObjectReplacementChar, kind: ImageType, attrs: child.Attrs, marks: child.Marks})
		}
	}
	return atoms
}

// textAtoms converts a text to atoms. Newlines split textblocks, except
// inside code blocks.
func textAtoms(text string, marks []Mark, code bool) []atom {
	var atoms []atom
	for _, r := range text {
		if r == '\n' && !code {
			atoms = append(atoms, atom{r: '\n', split: true})
			continue
		}
		atoms = append(atoms, atom{r: r, kind: TextType, marks: marks})
	}
	return atoms
}

// buildInline converts atoms back to inline nodes, merging adjacent text
// with identical marks.
func buildInline(atoms []atom, code bool) []*Node {
	var nodes []*Node
	var sb strings.Builder
	var current *Node

	flush := func() {
		if current != nil {
			current.Text = sb.String()
			nodes = append(nodes, current)
			current = nil
			sb.Reset()
		}
	}

	for _, a := range atoms {
		kind := a.kind
		marks := a.marks
		if code {
			// Code blocks only contain raw text
			marks = nil
			switch kind {
			case ImageType:
				continue
			case HardBreakType:
				kind = TextType
			}
		} else if kind == TextType && a.r == '\n' {
			kind = HardBreakType
		}

		if kind != TextType {
			flush()
			node := &Node{Type: kind, Marks: cloneMarks(marks)}
			if a.attrs != nil {
				node.Attrs = make(map[string]string, len(a.attrs))
				for k, v := range a.attrs {
					node.Attrs[k] = v
				}
			}
			nodes = append(nodes, node)
			continue
		}

		if current == nil || !sameMarks(current.Marks, marks) {
			flush()
			current = &Node{Type: TextType, Marks: cloneMarks(marks)}
		}
		sb.WriteRune(a.r)
	}
	flush()
	return nodes
}

// splitAtoms splits atoms on split markers.
func splitAtoms(atoms []atom) [][]atom {
	segments := [][]atom{nil}
	for _, a := range atoms {
		if a.split {
			segments = append(segments, nil)
			continue
		}
		segments[len(segments)-1] = append(segments[len(segments)-1], a)
	}
	return segments
}

/*
 * Normalization
 */

// normalizeTree enforces the tree invariants in place:
// lists only contain list items, containers are never empty, heading
// levels are valid, adjacent text nodes with identical marks are merged,
// and an empty document contains one empty paragraph.
func normalizeTree(root *Node) {
	root.Type = DocType
	root.Content = normalizeBlocks(root.Content)
	if len(root.Content) == 0 {
		root.Content = []*Node{NewParagraph()}
	}
}

func normalizeBlocks(nodes []*Node) []*Node {
	var result []*Node
	var inline []*Node

	flush := func() {
		if len(inline) > 0 {
			result = append(result, normalizeBlock(NewParagraph(inline...)))
			inline = nil
		}
	}

	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Type.IsInline() {
			inline = append(inline, n)
			continue
		}
		flush()
		if n.Type == DocType {
			result = append(result, normalizeBlocks(n.Content)...)
			continue
		}
		if block := normalizeBlock(n); block != nil {
			result = append(result, block)
		}
	}
	flush()
	return result
}

func normalizeBlock(n *Node) *Node {
	switch {
	case n.Type.IsTextblock():
		if n.Type == HeadingType {
			n.Level = clampLevel(n.Level)
		} else {
			n.Level = 0
		}
		code := n.Type == CodeBlockType
		var atoms []atom
		for _, child := range n.Content {
			if child.Type.IsInline() {
				atoms = append(atoms, inlineAtoms(&Node{Content: []*Node{child}})...)
			} else {
				// Blocks nested in a textblock are flattened to their text
				atoms = append(atoms, textAtoms(blockText(child), nil, true)...)
			}
		}
		n.Content = buildInline(atoms, code)
		return n
	case n.Type.IsList():
		var items []*Node
		for _, child := range n.Content {
			if child.Type != ListItemType {
				child = NewListItem(child)
			}
			items = append(items, normalizeBlock(child))
		}
		if len(items) == 0 {
			return nil
		}
		n.Content = items
		return n
	case n.Type == ListItemType, n.Type == BlockquoteType:
		n.Content = normalizeBlocks(n.Content)
		if len(n.Content) == 0 {
			n.Content = []*Node{NewParagraph()}
		}
		return n
	}
	return nil
}
