package syntax

// WalkAction tells Walk how to continue after visiting a node.
type WalkAction int

const (
	// Continue descends into the node's children.
	Continue WalkAction = iota
	// SkipChildren moves on to the next sibling without descending.
	SkipChildren
	// Stop ends the walk.
	Stop
)

// Walk visits n and its descendants pre-order, in document order.
// It returns false if a visit returned Stop.
func Walk(n *Node, visit func(*Node) WalkAction) bool {
	if n == nil {
		return true
	}
	switch visit(n) {
	case Stop:
		return false
	case SkipChildren:
		return true
	}
	for _, c := range n.children {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}

// FirstAncestor returns the nearest proper ancestor of n satisfying pred.
func FirstAncestor(n *Node, pred func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	for p := n.parent; p != nil; p = p.parent {
		if pred(p) {
			return p
		}
	}
	return nil
}

// FirstAncestorOrSelf is FirstAncestor including n itself.
func FirstAncestorOrSelf(n *Node, pred func(*Node) bool) *Node {
	if n != nil && pred(n) {
		return n
	}
	return FirstAncestor(n, pred)
}

// Contains reports whether outer's span encloses inner's.
func Contains(outer, inner *Node) bool {
	return outer.Span.StartByte <= inner.Span.StartByte && inner.Span.EndByte <= outer.Span.EndByte
}
