package syntax

import "strings"

// The helpers below assemble trees by hand, without a parser. They are used by
// tests and by callers that already hold a tree in some other form.

// N builds an interior named node.
func N(kind string, children ...*Node) *Node {
	return &Node{Kind: kind, Named: true, children: children}
}

// T builds a named leaf token.
func T(kind, text string) *Node {
	return &Node{Kind: kind, Named: true, token: text}
}

// Tok builds an anonymous leaf token such as punctuation or a keyword.
func Tok(text string) *Node {
	return &Node{Kind: text, token: text}
}

// F sets the grammar field name of n and returns it.
func F(field string, n *Node) *Node {
	n.Field = field
	return n
}

// Build lays out the leaf tokens of root as source text, assigning spans to
// every node, and returns the linked Tree. Tokens are separated by one space;
// leading newlines on a token start it on a fresh line.
func Build(path, language string, root *Node) *Tree {
	var b layout
	b.line, b.col = 1, 1
	b.place(root)
	return NewTree(path, language, []byte(b.src.String()), root)
}

type layout struct {
	src       strings.Builder
	line, col int
	started   bool
}

func (b *layout) pos() Position { return Position{Line: b.line, Column: b.col} }

func (b *layout) write(s string) {
	b.src.WriteString(s)
	for _, r := range s {
		if r == '\n' {
			b.line++
			b.col = 1
		} else {
			b.col++
		}
	}
}

func (b *layout) place(n *Node) {
	if n.IsLeaf() {
		tok := n.token
		if trimmed := strings.TrimLeft(tok, "\n"); trimmed != tok {
			b.write(tok[:len(tok)-len(trimmed)])
			tok = trimmed
		} else if b.started {
			b.write(" ")
		}
		b.started = true
		n.Span.StartByte = b.src.Len()
		n.Span.Start = b.pos()
		b.write(tok)
		n.Span.EndByte = b.src.Len()
		n.Span.End = b.pos()
		return
	}
	first := true
	for _, c := range n.children {
		b.place(c)
		if first {
			n.Span.StartByte = c.Span.StartByte
			n.Span.Start = c.Span.Start
			first = false
		}
		n.Span.EndByte = c.Span.EndByte
		n.Span.End = c.Span.End
	}
}
