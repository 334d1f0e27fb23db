package lang

import "github.com/jward/lintel/internal/syntax"

// base carries the table-driven parts shared by every facade.
type base struct {
	name       string
	table      kindTable
	assignKind string
	coalesce   bool
	trivia     map[string]bool
	params     map[string]bool
	strings    map[string]bool
}

func (b *base) Name() string { return b.name }

func (b *base) CategoryOf(n *syntax.Node) syntax.Category {
	if n == nil {
		return syntax.Unknown
	}
	if n.Kind == b.assignKind {
		return assignmentCategory(n)
	}
	return b.table[n.Kind]
}

func (b *base) Kinds(c syntax.Category) []string {
	switch c {
	case syntax.Assignment, syntax.CompoundAssignment:
		return b.table.kinds(c, b.assignKind)
	case syntax.CoalesceAssignment:
		if b.coalesce {
			return b.table.kinds(c, b.assignKind)
		}
	}
	return b.table.kinds(c)
}

func (b *base) IsTrivia(n *syntax.Node) bool { return n != nil && b.trivia[n.Kind] }

func (b *base) AreEquivalent(a, c *syntax.Node) bool {
	return syntax.Equivalent(a, c, b.IsTrivia)
}

func (b *base) FindEnclosing(n *syntax.Node, pred func(*syntax.Node) bool) *syntax.Node {
	return syntax.FirstAncestor(n, pred)
}

func (b *base) Parameters(decl *syntax.Node) []*syntax.Node {
	if decl == nil {
		return nil
	}
	list := decl.ChildByField("parameters")
	if list == nil {
		for _, c := range decl.Children() {
			if b.CategoryOf(c) == syntax.ParameterList {
				list = c
				break
			}
		}
	}
	if list == nil {
		return nil
	}
	var out []*syntax.Node
	for _, c := range list.Children() {
		if b.params[c.Kind] {
			out = append(out, c)
		}
	}
	return out
}

func (b *base) IsStringLiteral(n *syntax.Node) bool { return n != nil && b.strings[n.Kind] }

func (b *base) IsPubliclyVisible(sym *Symbol) bool { return isPubliclyVisible(sym) }

func (b *base) HasAttribute(sym *Symbol, name string) bool { return hasAttribute(sym, name) }

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
