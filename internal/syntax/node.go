// Package syntax holds the language-neutral tree model every rule is written
// against: an immutable Tree of Nodes lowered from a concrete parser, the
// abstract Category vocabulary, and traversal and equivalence helpers.
package syntax

import (
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"
)

// Position is a 1-based line and column pair.
type Position struct {
	Line   int
	Column int
}

// Span is the extent of a node in its source, both as byte offsets and as
// line/column positions.
type Span struct {
	StartByte int
	EndByte   int
	Start     Position
	End       Position
}

// Location pins a span to a file.
type Location struct {
	Path string
	Span Span
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Span.Start.Line, l.Span.Start.Column)
}

// Node is one node of a Tree. Kind is the concrete grammar kind ("assignment_expression"),
// Field the grammar field name under the parent ("left"), if any.
type Node struct {
	Kind  string
	Field string
	Named bool
	Span  Span

	tree     *Tree
	parent   *Node
	children []*Node
	index    int

	// token is only set on builder-made leaves until the tree is laid out.
	token string
}

// NewNode creates a detached node. Children are attached in order.
func NewNode(kind string, named bool, span Span, children ...*Node) *Node {
	n := &Node{Kind: kind, Named: named, Span: span}
	n.children = children
	return n
}

// Tree returns the tree owning the node.
func (n *Node) Tree() *Tree { return n.tree }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns all children, named and anonymous, in document order.
// The returned slice must not be modified.
func (n *Node) Children() []*Node { return n.children }

// Index is the position of n among its parent's children.
func (n *Node) Index() int { return n.index }

// NamedChildren returns the named children in document order.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.Named {
			out = append(out, c)
		}
	}
	return out
}

// ChildByField returns the first child carrying the given grammar field name.
func (n *Node) ChildByField(field string) *Node {
	for _, c := range n.children {
		if c.Field == field {
			return c
		}
	}
	return nil
}

// FirstChildOfKind returns the first direct child with the given concrete kind.
func (n *Node) FirstChildOfKind(kinds ...string) *Node {
	for _, c := range n.children {
		for _, k := range kinds {
			if c.Kind == k {
				return c
			}
		}
	}
	return nil
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// Text returns the source text covered by the node.
func (n *Node) Text() string {
	if n.tree == nil {
		return n.token
	}
	src := n.tree.Source
	if n.Span.StartByte < 0 || n.Span.EndByte > len(src) || n.Span.StartByte > n.Span.EndByte {
		return ""
	}
	return string(src[n.Span.StartByte:n.Span.EndByte])
}

// Location returns the node's location in its file.
func (n *Node) Location() Location {
	var path string
	if n.tree != nil {
		path = n.tree.Path
	}
	return Location{Path: path, Span: n.Span}
}

// Tree is an immutable parsed compilation unit.
type Tree struct {
	Path     string
	Language string
	Source   []byte
	Root     *Node

	size      int
	linesOnce sync.Once
	lineStart []int
}

// NewTree links root and all its descendants to a new Tree. The nodes must not
// be shared with another tree.
func NewTree(path, language string, source []byte, root *Node) *Tree {
	t := &Tree{Path: path, Language: language, Source: source, Root: root}
	if root != nil {
		t.link(root, nil, 0)
	}
	return t
}

func (t *Tree) link(n, parent *Node, index int) {
	n.tree = t
	n.parent = parent
	n.index = index
	t.size++
	for i, c := range n.children {
		t.link(c, n, i)
	}
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return t.size }

// LineCount returns the number of lines in the source.
func (t *Tree) LineCount() int {
	if len(t.Source) == 0 {
		return 0
	}
	lines := 1
	for _, b := range t.Source {
		if b == '\n' {
			lines++
		}
	}
	if t.Source[len(t.Source)-1] == '\n' {
		lines--
	}
	return lines
}

// Line returns the text of the 1-based line n without its terminator, or ""
// when n is out of range.
func (t *Tree) Line(n int) string {
	t.linesOnce.Do(t.indexLines)
	if n < 1 || n > len(t.lineStart) {
		return ""
	}
	start := t.lineStart[n-1]
	end := len(t.Source)
	if n < len(t.lineStart) {
		end = t.lineStart[n] - 1
	}
	line := t.Source[start:end]
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return string(line)
}

// LineOf returns the 1-based line containing byte offset off.
func (t *Tree) LineOf(off int) int {
	t.linesOnce.Do(t.indexLines)
	return sort.Search(len(t.lineStart), func(i int) bool { return t.lineStart[i] > off })
}

// PositionOf converts byte offset off into a 1-based line and rune column.
// Offsets past the end clamp to the end of the source.
func (t *Tree) PositionOf(off int) Position {
	t.linesOnce.Do(t.indexLines)
	if off < 0 {
		off = 0
	}
	if off > len(t.Source) {
		off = len(t.Source)
	}
	line := t.LineOf(off)
	if line < 1 {
		line = 1
	}
	start := t.lineStart[line-1]
	return Position{Line: line, Column: utf8.RuneCount(t.Source[start:off]) + 1}
}

// SpanOf returns the span covering bytes [start, end).
func (t *Tree) SpanOf(start, end int) Span {
	if end < start {
		end = start
	}
	return Span{StartByte: start, EndByte: end, Start: t.PositionOf(start), End: t.PositionOf(end)}
}

func (t *Tree) indexLines() {
	t.lineStart = []int{0}
	for i, b := range t.Source {
		if b == '\n' && i+1 < len(t.Source) {
			t.lineStart = append(t.lineStart, i+1)
		}
	}
}
