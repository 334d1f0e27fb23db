package syntax

// Equivalent reports whether a and b are structurally equivalent: same kind,
// and pairwise equivalent children once trivia is skipped. Leaves compare by
// token text. Formatting never matters because whitespace is not part of the
// tree; trivia (comments) is whatever the trivia predicate says it is.
//
// Recursion depth is bounded by the depth of the shallower tree.
func Equivalent(a, b *Node, trivia func(*Node) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.IsLeaf() && b.IsLeaf() {
		return a.Text() == b.Text()
	}

	i, j := 0, 0
	for {
		i = nextSignificant(a.children, i, trivia)
		j = nextSignificant(b.children, j, trivia)
		if i == len(a.children) || j == len(b.children) {
			return i == len(a.children) && j == len(b.children)
		}
		if !Equivalent(a.children[i], b.children[j], trivia) {
			return false
		}
		i++
		j++
	}
}

func nextSignificant(children []*Node, from int, trivia func(*Node) bool) int {
	for from < len(children) && trivia != nil && trivia(children[from]) {
		from++
	}
	return from
}
