package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownMark          = errors.New("unknown mark")
	ErrUnsupportedBlockType = errors.New("unsupported block type")
	ErrMissingHref          = errors.New("missing link href")
	ErrNoPrompter           = errors.New("no prompter available")
)

// State is the editable state: a document, a selection, and the marks
// applied to the next inserted text.
type State struct {
	Doc       Document
	Selection Selection

	storedMarks []Mark
	stored      bool
}

// NewState creates a state with a cursor at the start of the document.
func NewState(doc Document) State {
	return State{Doc: doc}
}

// StoredMarks returns the marks applied to the next inserted text, if any.
func (s State) StoredMarks() ([]Mark, bool) {
	return cloneMarks(s.storedMarks), s.stored
}

// ActiveMarks returns the marks applying at the cursor.
func (s State) ActiveMarks() []Mark {
	if s.stored {
		return cloneMarks(s.storedMarks)
	}
	return marksAt(s.Doc, s.Selection.From())
}

func (s State) clearStoredMarks() State {
	s.storedMarks = nil
	s.stored = false
	return s
}

// Command is an operation on the editable state.
type Command interface {
	Apply(ctx context.Context, state State) (State, error)
}

// Apply executes a command. The state is returned unchanged on error.
func Apply(ctx context.Context, state State, cmd Command) (State, error) {
	state.Selection = state.Selection.clamp(state.Doc.Size())
	newState, err := cmd.Apply(ctx, state)
	if err != nil {
		return state, err
	}
	return newState, nil
}

// Prompter asks the user for a value.
type Prompter interface {
	Prompt(ctx context.Context, question string) (string, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, question string) (string, error)

func (f PrompterFunc) Prompt(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

/*
 * ToggleMark
 */

// ToggleMark adds or removes a mark on the selection. When the mark is
// active on the entire selection, it is removed, otherwise it is applied
// to the entire selection. On a collapsed selection, the mark is stored
// for the next inserted text.
type ToggleMark struct {
	Type  MarkType
	Attrs map[string]string
}

func (c ToggleMark) Apply(ctx context.Context, s State) (State, error) {
	if !c.Type.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownMark, c.Type)
	}
	mark := Mark{Type: c.Type, Attrs: c.Attrs}

	if s.Selection.Empty() {
		active := s.ActiveMarks()
		if hasMark(active, c.Type) {
			s.storedMarks = removeMark(active, c.Type)
		} else {
			if c.Type == LinkMark && c.Attrs["href"] == "" {
				return s, ErrMissingHref
			}
			s.storedMarks = addMark(active, mark)
		}
		s.stored = true
		return s, nil
	}

	doc, added := markRange(s.Doc, s.Selection.From(), s.Selection.To(), mark, markToggle)
	if added && c.Type == LinkMark && c.Attrs["href"] == "" {
		return s, ErrMissingHref
	}
	s.Doc = doc
	return s, nil
}

type markMode int

const (
	markToggle markMode = iota
	markAdd
)

// markRange applies a mark to the text between two positions.
// It returns true when the mark was added, false when removed or when no
// text was found.
func markRange(doc Document, from, to int, mark Mark, mode markMode) (Document, bool) {
	root := doc.rootNode().Clone()

	type span struct {
		ref        blockRef
		atoms      []atom
		start, end int
	}

	var spans []span
	found := false
	all := true
	start := 0
	for _, ref := range textblocks(root) {
		atoms := inlineAtoms(ref.node)
		s := max(from, start) - start
		e := min(to, start+len(atoms)) - start
		if ref.node.Type != CodeBlockType && s < e {
			for k := s; k < e; k++ {
				if atoms[k].kind != TextType {
					continue
				}
				found = true
				if !hasMark(atoms[k].marks, mark.Type) {
					all = false
				}
			}
			spans = append(spans, span{ref: ref, atoms: atoms, start: s, end: e})
		}
		start += len(atoms) + 1
	}
	if !found {
		return doc, false
	}

	remove := mode == markToggle && all
	for _, sp := range spans {
		for k := sp.start; k < sp.end; k++ {
			if sp.atoms[k].kind != TextType {
				continue
			}
			if remove {
				sp.atoms[k].marks = removeMark(sp.atoms[k].marks, mark.Type)
			} else {
				sp.atoms[k].marks = addMark(sp.atoms[k].marks, mark)
			}
		}
		sp.ref.node.Content = buildInline(sp.atoms, false)
	}

	normalizeTree(root)
	return Document{root: root}, !remove
}

// marksAt returns the marks inherited by text inserted at a position.
// Links are not inherited.
func marksAt(doc Document, pos int) []Mark {
	refs := textblocks(doc.rootNode())
	i, offset := locate(refs, pos)
	if refs[i].node.Type == CodeBlockType || offset == 0 {
		return nil
	}
	before := inlineAtoms(refs[i].node)[offset-1]
	if before.kind != TextType {
		return nil
	}
	return removeMark(before.marks, LinkMark)
}

func (s State) insertionMarks(pos int) []Mark {
	if s.stored {
		return cloneMarks(s.storedMarks)
	}
	return marksAt(s.Doc, pos)
}

/*
 * ReplaceText
 */

// ReplaceText replaces the text between two positions. Newlines in the
// text split the textblock (except in code blocks).
type ReplaceText struct {
	From int
	To   int
	Text string
}

func (c ReplaceText) Apply(ctx context.Context, s State) (State, error) {
	size := s.Doc.Size()
	from := clampPosition(c.From, size)
	to := clampPosition(c.To, size)
	if from > to {
		from, to = to, from
	}
	atoms := textAtoms(c.Text, s.insertionMarks(from), false)
	doc, cursor := replaceRange(s.Doc, from, to, atoms)
	s.Doc = doc
	s.Selection = Cursor(cursor)
	return s.clearStoredMarks(), nil
}

// replaceRange replaces the positions [from,to) by the given atoms. It
// returns the new document and the position following the insertion.
func replaceRange(doc Document, from, to int, inserted []atom) (Document, int) {
	root := doc.rootNode().Clone()
	refs := textblocks(root)

	bi, oi := locate(refs, from)
	bj, oj := locate(refs, to)
	first := refs[bi]
	code := first.node.Type == CodeBlockType

	if code {
		// Newlines are part of the code
		for k, a := range inserted {
			if a.split {
				inserted[k] = atom{r: '\n', kind: TextType}
			}
		}
	}

	head := inlineAtoms(first.node)[:oi]
	tail := inlineAtoms(refs[bj].node)[oj:]

	segments := splitAtoms(inserted)
	segments[0] = append(head, segments[0]...)
	last := len(segments) - 1
	segments[last] = append(segments[last], tail...)

	for k := bj; k > bi; k-- {
		removeBlock(refs[k])
	}

	first.node.Content = buildInline(segments[0], code)
	var extra []*Node
	for _, segment := range segments[1:] {
		block := &Node{Type: first.node.Type, Level: first.node.Level}
		if block.Type == HeadingType {
			block.Type = ParagraphType
			block.Level = 0
		}
		block.Content = buildInline(segment, code)
		extra = append(extra, block)
	}
	insertBlocksAfter(first, extra)

	normalizeTree(root)
	return Document{root: root}, from + len(inserted)
}

// removeBlock removes a textblock and its ancestors left empty.
func removeBlock(ref blockRef) {
	child := ref.node
	for i := len(ref.ancestors) - 1; i >= 0; i-- {
		parent := ref.ancestors[i]
		parent.Content = removeChild(parent.Content, child)
		if len(parent.Content) > 0 || parent.Type == DocType {
			return
		}
		child = parent
	}
}

// insertBlocksAfter inserts blocks after a textblock. Inside a list item,
// each block becomes a new list item.
func insertBlocksAfter(ref blockRef, blocks []*Node) {
	if len(blocks) == 0 {
		return
	}
	parent := ref.parent()
	if parent.Type == ListItemType && len(ref.ancestors) >= 2 {
		list := ref.ancestors[len(ref.ancestors)-2]
		var items []*Node
		for _, block := range blocks {
			items = append(items, NewListItem(block))
		}
		list.Content = insertChildren(list.Content, parent, items)
		return
	}
	parent.Content = insertChildren(parent.Content, ref.node, blocks)
}

func removeChild(content []*Node, child *Node) []*Node {
	var result []*Node
	for _, n := range content {
		if n != child {
			result = append(result, n)
		}
	}
	return result
}

func insertChildren(content []*Node, after *Node, nodes []*Node) []*Node {
	var result []*Node
	for _, n := range content {
		result = append(result, n)
		if n == after {
			result = append(result, nodes...)
		}
	}
	return result
}

func replaceChild(content []*Node, old *Node, nodes []*Node) []*Node {
	var result []*Node
	for _, n := range content {
		if n == old {
			result = append(result, nodes...)
			continue
		}
		result = append(result, n)
	}
	return result
}

/*
 * InsertContent
 */

// Fragment is a detached list of nodes, either inline nodes or blocks.
type Fragment struct {
	Nodes []*Node
}

// TextFragment creates an inline fragment from plain text.
func TextFragment(text string) Fragment {
	return Fragment{Nodes: []*Node{NewText(text)}}
}

// HTMLFragment parses HTML into a fragment. A single paragraph is inserted
// inline.
func HTMLFragment(src string) Fragment {
	nodes := ParseFragment(src)
	if len(nodes) == 1 && nodes[0].Type == ParagraphType {
		return Fragment{Nodes: nodes[0].Content}
	}
	return Fragment{Nodes: nodes}
}

// Inline returns true when the fragment only contains inline nodes.
func (f Fragment) Inline() bool {
	for _, n := range f.Nodes {
		if !n.Type.IsInline() {
			return false
		}
	}
	return true
}

// IsEmpty returns true when the fragment contains nothing to insert.
func (f Fragment) IsEmpty() bool {
	return len(f.Nodes) == 0
}

// HTML serializes the fragment.
func (f Fragment) HTML() string {
	var sb strings.Builder
	if f.Inline() {
		writeInline(&sb, f.Nodes)
		return sb.String()
	}
	for _, n := range f.Nodes {
		writeBlock(&sb, n)
	}
	return sb.String()
}

// InsertContent inserts a fragment at the cursor, replacing the selection.
//
// Blocks are inserted by splitting the top-level textblock at the cursor.
// When the cursor is inside a nested block (a list item, a quote), the
// blocks are inserted after the top-level block.
type InsertContent struct {
	Fragment Fragment
}

func (c InsertContent) Apply(ctx context.Context, s State) (State, error) {
	from, to := s.Selection.From(), s.Selection.To()

	if c.Fragment.Inline() {
		marks := s.insertionMarks(from)
		var atoms []atom
		for _, n := range c.Fragment.Nodes {
			switch n.Type {
			case TextType:
				nodeMarks := n.Marks
				if len(nodeMarks) == 0 {
					nodeMarks = marks
				}
				atoms = append(atoms, textAtoms(n.Text, nodeMarks, false)...)
			case HardBreakType:
				atoms = append(atoms, atom{r: '\n', kind: HardBreakType, marks: n.Marks})
			case ImageType:
				atoms = append(atoms, atom{r: ObjectReplacementChar, kind: ImageType, attrs: n.Attrs, marks: n.Marks})
			}
		}
		doc, cursor := replaceRange(s.Doc, from, to, atoms)
		s.Doc = doc
		s.Selection = Cursor(cursor)
		return s.clearStoredMarks(), nil
	}

	doc, _ := replaceRange(s.Doc, from, to, nil)
	root := doc.rootNode().Clone()
	refs := textblocks(root)
	bi, offset := locate(refs, from)
	ref := refs[bi]

	var blocks []*Node
	for _, n := range c.Fragment.Nodes {
		blocks = append(blocks, n.Clone())
	}
	blocks = normalizeBlocks(blocks)
	lastBlock := lastTextblock(blocks)

	if ref.parent() == root {
		atoms := inlineAtoms(ref.node)
		head, tail := atoms[:offset], atoms[offset:]
		code := ref.node.Type == CodeBlockType

		var replacement []*Node
		if len(head) > 0 {
			ref.node.Content = buildInline(head, code)
			replacement = append(replacement, ref.node)
		}
		replacement = append(replacement, blocks...)
		if len(tail) > 0 {
			after := &Node{Type: ref.node.Type, Level: ref.node.Level}
			if ref.node.Attrs != nil {
				after.Attrs = map[string]string{}
				for k, v := range ref.node.Attrs {
					after.Attrs[k] = v
				}
			}
			after.Content = buildInline(tail, code)
			replacement = append(replacement, after)
		}
		root.Content = replaceChild(root.Content, ref.node, replacement)
	} else {
		root.Content = insertChildren(root.Content, ref.top(), blocks)
	}

	normalizeTree(root)
	s.Doc = Document{root: root}

	cursor := from
	if lastBlock != nil {
		newRefs := textblocks(root)
		if start, ok := blockStart(newRefs, lastBlock); ok {
			cursor = start + len(inlineAtoms(lastBlock))
		}
	}
	s.Selection = Cursor(fit(cursor, s.Doc.Size()))
	return s.clearStoredMarks(), nil
}

func lastTextblock(nodes []*Node) *Node {
	for i := len(nodes) - 1; i >= 0; i-- {
		refs := textblocks(&Node{Type: DocType, Content: []*Node{nodes[i]}})
		if len(refs) > 0 {
			return refs[len(refs)-1].node
		}
	}
	return nil
}

/*
 * SetBlockType
 */

// SetBlockType converts every textblock touched by the selection.
// Paragraph, heading, and code block change the textblock itself. Lists and
// blockquote wrap the touched top-level blocks, or unwrap them when they
// are already wrapped in a node of the same type.
type SetBlockType struct {
	Type     NodeType
	Level    int    // heading
	Language string // code block
}

func (c SetBlockType) Apply(ctx context.Context, s State) (State, error) {
	root := s.Doc.rootNode().Clone()
	touched := touchedTextblocks(root, s.Selection.From(), s.Selection.To())

	switch c.Type {
	case ParagraphType, HeadingType, CodeBlockType:
		for _, ref := range touched {
			atoms := inlineAtoms(ref.node)
			ref.node.Type = c.Type
			ref.node.Level = 0
			ref.node.Attrs = nil
			if c.Type == HeadingType {
				ref.node.Level = clampLevel(c.Level)
			}
			if c.Type == CodeBlockType && c.Language != "" {
				ref.node.Attrs = map[string]string{"language": c.Language}
			}
			ref.node.Content = buildInline(atoms, c.Type == CodeBlockType)
		}
	case BulletListType, OrderedListType, BlockquoteType:
		lo, hi := topLevelRange(root, touched)
		if lo < 0 {
			return s, nil
		}
		nodes := append([]*Node(nil), root.Content[lo:hi+1]...)
		var replacement []*Node
		if c.Type == BlockquoteType {
			replacement = wrapBlockquote(nodes)
		} else {
			replacement = wrapList(nodes, c.Type)
		}
		root.Content = append(append(append([]*Node(nil), root.Content[:lo]...), replacement...), root.Content[hi+1:]...)
	default:
		return s, fmt.Errorf("%w: %q", ErrUnsupportedBlockType, c.Type)
	}

	normalizeTree(root)
	s.Doc = Document{root: root}
	s.Selection = Range(fit(s.Selection.Anchor, s.Doc.Size()), fit(s.Selection.Head, s.Doc.Size()))
	return s, nil
}

// touchedTextblocks returns the textblocks intersecting [from,to].
func touchedTextblocks(root *Node, from, to int) []blockRef {
	var result []blockRef
	start := 0
	for _, ref := range textblocks(root) {
		length := len(inlineAtoms(ref.node))
		if start <= to && from <= start+length {
			result = append(result, ref)
		}
		start += length + 1
	}
	return result
}

func topLevelRange(root *Node, refs []blockRef) (int, int) {
	lo, hi := -1, -1
	for _, ref := range refs {
		for i, child := range root.Content {
			if child != ref.top() {
				continue
			}
			if lo < 0 || i < lo {
				lo = i
			}
			if i > hi {
				hi = i
			}
		}
	}
	return lo, hi
}

func wrapList(nodes []*Node, listType NodeType) []*Node {
	allTarget := true
	allLists := true
	for _, n := range nodes {
		if n.Type != listType {
			allTarget = false
		}
		if !n.Type.IsList() {
			allLists = false
		}
	}

	if allTarget {
		// Unwrap
		var lifted []*Node
		for _, list := range nodes {
			for _, item := range list.Content {
				lifted = append(lifted, item.Content...)
			}
		}
		return lifted
	}

	if allLists {
		for _, list := range nodes {
			list.Type = listType
		}
		return nodes
	}

	list := &Node{Type: listType}
	for _, n := range nodes {
		if n.Type.IsList() {
			list.Content = append(list.Content, n.Content...)
			continue
		}
		list.Content = append(list.Content, NewListItem(n))
	}
	return []*Node{list}
}

func wrapBlockquote(nodes []*Node) []*Node {
	allQuotes := true
	for _, n := range nodes {
		if n.Type != BlockquoteType {
			allQuotes = false
		}
	}

	if allQuotes {
		var lifted []*Node
		for _, quote := range nodes {
			lifted = append(lifted, quote.Content...)
		}
		return lifted
	}

	quote := &Node{Type: BlockquoteType}
	for _, n := range nodes {
		if n.Type == BlockquoteType {
			quote.Content = append(quote.Content, n.Content...)
			continue
		}
		quote.Content = append(quote.Content, n)
	}
	return []*Node{quote}
}

/*
 * SetContent
 */

// SetContent replaces the whole document with parsed HTML.
type SetContent struct {
	HTML string
}

func (c SetContent) Apply(ctx context.Context, s State) (State, error) {
	s.Doc = ParseHTML(c.HTML)
	size := s.Doc.Size()
	s.Selection = Range(fit(s.Selection.Anchor, size), fit(s.Selection.Head, size))
	return s.clearStoredMarks(), nil
}

/*
 * InsertLink
 */

// InsertLink applies a link on the selection, or inserts a linked text at
// the cursor. The prompter is asked for the URL when Href is empty and an
// empty answer cancels the command.
type InsertLink struct {
	Href     string
	Text     string
	Prompter Prompter
}

func (c InsertLink) Apply(ctx context.Context, s State) (State, error) {
	href := strings.TrimSpace(c.Href)
	if href == "" {
		if c.Prompter == nil {
			return s, ErrNoPrompter
		}
		answer, err := c.Prompter.Prompt(ctx, "Enter URL")
		if err != nil {
			return s, fmt.Errorf("prompt link URL: %w", err)
		}
		href = strings.TrimSpace(answer)
		if href == "" {
			return s, nil
		}
	}
	mark := Mark{Type: LinkMark, Attrs: map[string]string{"href": href}}

	if s.Selection.Empty() {
		label := c.Text
		if label == "" {
			label = href
		}
		from := s.Selection.From()
		atoms := textAtoms(label, addMark(s.insertionMarks(from), mark), false)
		doc, cursor := replaceRange(s.Doc, from, from, atoms)
		s.Doc = doc
		s.Selection = Cursor(cursor)
		return s.clearStoredMarks(), nil
	}

	s.Doc, _ = markRange(s.Doc, s.Selection.From(), s.Selection.To(), mark, markAdd)
	return s, nil
}

// fit clamps a position without failing in strict mode.
func fit(pos, size int) int {
	return max(0, min(pos, size))
}
