package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isComment(n *Node) bool { return n.Kind == "comment" }

// assign builds `left = right;` with member access on the left when dotted.
func assign(left, right *Node) *Node {
	return N("expression_statement",
		N("assignment_expression", F("left", left), Tok("="), F("right", right)),
		Tok(";"),
	)
}

func member(obj, name string) *Node {
	return N("member_access_expression", F("expression", T("identifier", obj)), Tok("."), F("name", T("identifier", name)))
}

func TestBuild_SpansAndText(t *testing.T) {
	tree := Build("a.cs", "csharp", N("compilation_unit", assign(T("identifier", "x"), T("identifier", "y"))))

	assert.Equal(t, "x = y ;", string(tree.Source))
	assert.Equal(t, 7, tree.Len())

	stmt := tree.Root.Children()[0]
	as := stmt.Children()[0]
	assert.Equal(t, "x = y", as.Text())
	assert.Equal(t, "y", as.ChildByField("right").Text())
	assert.Equal(t, Position{Line: 1, Column: 5}, as.ChildByField("right").Span.Start)
	assert.Same(t, stmt, as.Parent())
	assert.Same(t, tree, as.Tree())
	assert.Equal(t, "a.cs:1:1", as.Location().String())
}

func TestBuild_LeadingNewlineStartsNewLine(t *testing.T) {
	tree := Build("a.cs", "csharp", N("block", Tok("{"), T("identifier", "\nx"), Tok("}")))

	x := tree.Root.Children()[1]
	assert.Equal(t, "x", x.Text())
	assert.Equal(t, 2, x.Span.Start.Line)
	assert.Equal(t, 1, x.Span.Start.Column)
	assert.Equal(t, 2, tree.LineCount())
}

func TestEquivalent_Reflexive(t *testing.T) {
	tree := Build("a.cs", "csharp", N("compilation_unit",
		assign(member("this", "x"), member("this", "x")),
	))
	as := tree.Root.Children()[0].Children()[0]

	assert.True(t, Equivalent(as, as, isComment))
	assert.True(t, Equivalent(as.ChildByField("left"), as.ChildByField("right"), isComment))
}

func TestEquivalent_SensitiveToSingleDifference(t *testing.T) {
	tests := []struct {
		name        string
		left, right *Node
	}{
		{"leaf text", T("identifier", "x"), T("identifier", "y")},
		{"kind", T("identifier", "x"), T("integer_literal", "x")},
		{"nested leaf", member("this", "x"), member("this", "y")},
		{"nested receiver", member("a", "x"), member("b", "x")},
		{"child count", member("a", "x"), N("member_access_expression", F("expression", T("identifier", "a")), Tok("."))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := Build("a.cs", "csharp", N("compilation_unit", assign(tt.left, tt.right)))
			as := tree.Root.Children()[0].Children()[0]
			assert.False(t, Equivalent(as.ChildByField("left"), as.ChildByField("right"), isComment))
		})
	}
}

func TestEquivalent_IgnoresTrivia(t *testing.T) {
	withComment := N("member_access_expression",
		F("expression", T("identifier", "a")), T("comment", "/* c */"), Tok("."), F("name", T("identifier", "x")))
	tree := Build("a.cs", "csharp", N("compilation_unit", assign(withComment, member("a", "x"))))
	as := tree.Root.Children()[0].Children()[0]

	assert.True(t, Equivalent(as.ChildByField("left"), as.ChildByField("right"), isComment))
	assert.False(t, Equivalent(as.ChildByField("left"), as.ChildByField("right"), nil))
}

func TestEquivalent_Nil(t *testing.T) {
	assert.True(t, Equivalent(nil, nil, nil))
	assert.False(t, Equivalent(T("identifier", "x"), nil, nil))
}

func TestWalk_PreOrderWithSkipAndStop(t *testing.T) {
	tree := Build("a.cs", "csharp", N("root",
		N("a", T("a1", "1"), T("a2", "2")),
		N("b", T("b1", "3")),
		N("c", T("c1", "4")),
	))

	var seen []string
	Walk(tree.Root, func(n *Node) WalkAction {
		seen = append(seen, n.Kind)
		if n.Kind == "b" {
			return SkipChildren
		}
		return Continue
	})
	assert.Equal(t, []string{"root", "a", "a1", "a2", "b", "c", "c1"}, seen)

	seen = nil
	completed := Walk(tree.Root, func(n *Node) WalkAction {
		seen = append(seen, n.Kind)
		if n.Kind == "a2" {
			return Stop
		}
		return Continue
	})
	assert.False(t, completed)
	assert.Equal(t, []string{"root", "a", "a1", "a2"}, seen)
}

func TestFirstAncestor(t *testing.T) {
	tree := Build("a.cs", "csharp", N("root", N("class", N("method", T("identifier", "m")))))
	leaf := tree.Root.Children()[0].Children()[0].Children()[0]

	got := FirstAncestor(leaf, func(n *Node) bool { return n.Kind == "class" })
	require.NotNil(t, got)
	assert.Equal(t, "class", got.Kind)
	assert.Nil(t, FirstAncestor(leaf, func(n *Node) bool { return n.Kind == "interface" }))
	assert.Same(t, leaf, FirstAncestorOrSelf(leaf, func(n *Node) bool { return n.Kind == "identifier" }))
	assert.True(t, Contains(tree.Root, leaf))
}

func TestCategoryFromName(t *testing.T) {
	c, ok := CategoryFromName("FinallyClause")
	require.True(t, ok)
	assert.Equal(t, FinallyClause, c)
	assert.Equal(t, "FinallyClause", c.String())

	_, ok = CategoryFromName("NoSuchThing")
	assert.False(t, ok)
	assert.Equal(t, "Unknown", Category(999).String())
	assert.NotContains(t, Categories(), Unknown)
}

func TestTreeLines(t *testing.T) {
	tree := NewTree("a.cs", "csharp", []byte("first\r\nsecond\nthird\n"), nil)

	assert.Equal(t, 3, tree.LineCount())
	assert.Equal(t, "first", tree.Line(1))
	assert.Equal(t, "second", tree.Line(2))
	assert.Equal(t, "third", tree.Line(3))
	assert.Equal(t, "", tree.Line(0))
	assert.Equal(t, "", tree.Line(4))

	assert.Equal(t, 1, tree.LineOf(0))
	assert.Equal(t, 2, tree.LineOf(7))
	assert.Equal(t, 3, tree.LineOf(14))

	assert.Equal(t, Position{Line: 2, Column: 3}, tree.PositionOf(9))
	assert.Equal(t, Position{Line: 1, Column: 1}, tree.PositionOf(-4))

	span := tree.SpanOf(7, 13)
	assert.Equal(t, Position{Line: 2, Column: 1}, span.Start)
	assert.Equal(t, Position{Line: 2, Column: 7}, span.End)
}

func TestTreePositionOfRunes(t *testing.T) {
	tree := NewTree("a.cs", "csharp", []byte("// é TODO\n"), nil)
	// "é" is two bytes but one column.
	assert.Equal(t, Position{Line: 1, Column: 6}, tree.PositionOf(6))
}
