package editor

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"golang.org/x/exp/slices"
)

// NodeType is the type of a node in the document tree.
type NodeType string

const (
	DocType         NodeType = "doc"
	ParagraphType   NodeType = "paragraph"
	HeadingType     NodeType = "heading"
	BulletListType  NodeType = "bulletList"
	OrderedListType NodeType = "orderedList"
	ListItemType    NodeType = "listItem"
	BlockquoteType  NodeType = "blockquote"
	CodeBlockType   NodeType = "codeBlock"
	ImageType       NodeType = "image"
	HardBreakType   NodeType = "hardBreak"
	TextType        NodeType = "text"
)

// IsTextblock returns true for blocks containing inline content.
func (t NodeType) IsTextblock() bool {
	return t == ParagraphType || t == HeadingType || t == CodeBlockType
}

// IsInline returns true for nodes found inside textblocks.
func (t NodeType) IsInline() bool {
	return t == TextType || t == ImageType || t == HardBreakType
}

// IsList returns true for bullet and ordered lists.
func (t NodeType) IsList() bool {
	return t == BulletListType || t == OrderedListType
}

// MarkType is the type of a character-level style.
type MarkType string

const (
	LinkMark      MarkType = "link"
	BoldMark      MarkType = "bold"
	ItalicMark    MarkType = "italic"
	UnderlineMark MarkType = "underline"
	StrikeMark    MarkType = "strike"
	CodeMark      MarkType = "code"
	HighlightMark MarkType = "highlight"
)

// Marks are nested in this order when serialized.
var markOrder = map[MarkType]int{
	LinkMark:      0,
	BoldMark:      1,
	ItalicMark:    2,
	UnderlineMark: 3,
	StrikeMark:    4,
	CodeMark:      5,
	HighlightMark: 6,
}

// Valid returns true for supported mark types.
func (t MarkType) Valid() bool {
	_, ok := markOrder[t]
	return ok
}

// Mark is a style applied to a text node.
type Mark struct {
	Type  MarkType
	Attrs map[string]string // link: href, highlight: color
}

func (m Mark) Equal(other Mark) bool {
	if m.Type != other.Type || len(m.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range m.Attrs {
		if other.Attrs[k] != v {
			return false
		}
	}
	return true
}

func (m Mark) String() string {
	if len(m.Attrs) == 0 {
		return string(m.Type)
	}
	var sb strings.Builder
	sb.WriteString(string(m.Type))
	sb.WriteString("(")
	for i, key := range sortedKeys(m.Attrs) {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(key + "=" + m.Attrs[key])
	}
	sb.WriteString(")")
	return sb.String()
}

// Node is an element of the document tree.
type Node struct {
	Type NodeType
	// Heading level (1..6)
	Level int
	// Image: src, alt. Code block: language.
	Attrs map[string]string
	// Text nodes only
	Text  string
	Marks []Mark

	// Cloned recursively by Clone
	Content []*Node `copier:"-"`
}

// NewText creates a text node.
func NewText(text string, marks ...Mark) *Node {
	return &Node{Type: TextType, Text: text, Marks: sortMarks(marks)}
}

// NewParagraph creates a paragraph.
func NewParagraph(content ...*Node) *Node {
	return &Node{Type: ParagraphType, Content: content}
}

// NewHeading creates a heading. The level is clamped to [1,6].
func NewHeading(level int, content ...*Node) *Node {
	return &Node{Type: HeadingType, Level: clampLevel(level), Content: content}
}

// NewCodeBlock creates a code block with an optional language.
func NewCodeBlock(language, code string) *Node {
	node := &Node{Type: CodeBlockType}
	if language != "" {
		node.Attrs = map[string]string{"language": language}
	}
	if code != "" {
		node.Content = []*Node{NewText(code)}
	}
	return node
}

// NewBulletList creates a bullet list whose items wrap the given blocks.
func NewBulletList(items ...*Node) *Node {
	return &Node{Type: BulletListType, Content: wrapListItems(items)}
}

// NewOrderedList creates an ordered list whose items wrap the given blocks.
func NewOrderedList(items ...*Node) *Node {
	return &Node{Type: OrderedListType, Content: wrapListItems(items)}
}

// NewListItem creates a list item.
func NewListItem(content ...*Node) *Node {
	return &Node{Type: ListItemType, Content: content}
}

// NewBlockquote creates a blockquote.
func NewBlockquote(content ...*Node) *Node {
	return &Node{Type: BlockquoteType, Content: content}
}

// NewImage creates an image.
func NewImage(src, alt string) *Node {
	return &Node{Type: ImageType, Attrs: map[string]string{"src": src, "alt": alt}}
}

// NewHardBreak creates a line break.
func NewHardBreak() *Node {
	return &Node{Type: HardBreakType}
}

func wrapListItems(items []*Node) []*Node {
	var result []*Node
	for _, item := range items {
		if item.Type == ListItemType {
			result = append(result, item)
			continue
		}
		result = append(result, NewListItem(item))
	}
	return result
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := new(Node)
	deepCopy(clone, n)
	for _, child := range n.Content {
		clone.Content = append(clone.Content, child.Clone())
	}
	return clone
}

// HasMark returns true if the node carries a mark of the given type.
func (n *Node) HasMark(markType MarkType) bool {
	return hasMark(n.Marks, markType)
}

/*
 * Marks
 */

func hasMark(marks []Mark, markType MarkType) bool {
	for _, mark := range marks {
		if mark.Type == markType {
			return true
		}
	}
	return false
}

// addMark adds or replaces a mark.
func addMark(marks []Mark, mark Mark) []Mark {
	result := removeMark(marks, mark.Type)
	result = append(result, mark)
	return sortMarks(result)
}

func removeMark(marks []Mark, markType MarkType) []Mark {
	var result []Mark
	for _, mark := range marks {
		if mark.Type != markType {
			result = append(result, mark)
		}
	}
	return result
}

func sortMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	result := cloneMarks(marks)
	slices.SortStableFunc(result, func(a, b Mark) int {
		return markOrder[a.Type] - markOrder[b.Type]
	})
	return result
}

func cloneMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	var result []Mark
	deepCopy(&result, marks)
	return result
}

// deepCopy copies maps and slices instead of sharing them.
func deepCopy(to, from any) {
	if err := copier.CopyWithOption(to, from, copier.Option{DeepCopy: true}); err != nil {
		// Only mismatched types are rejected
		panic(fmt.Sprintf("unable to copy %T: %v", from, err))
	}
}

func sameMarks(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
