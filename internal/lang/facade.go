// Package lang binds concrete grammars to the language-neutral syntax model.
// Each supported language provides a stateless Facade that rules query for
// categories, symbols and language-specific nuance.
package lang

import (
	"errors"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/lintel/internal/syntax"
)

// ErrUnsupportedLanguage is returned for a language or file extension no
// facade handles.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Facade answers language-specific questions about a syntax tree. Facades are
// stateless and safe for concurrent use.
type Facade interface {
	// Name is the canonical language name, e.g. "csharp".
	Name() string

	// CategoryOf maps a concrete node to its abstract category.
	CategoryOf(n *syntax.Node) syntax.Category
	// Kinds lists the concrete kinds that map to c, sorted.
	Kinds(c syntax.Category) []string
	// IsTrivia reports nodes ignored by equivalence, such as comments.
	IsTrivia(n *syntax.Node) bool
	// AreEquivalent reports structural equivalence ignoring trivia.
	AreEquivalent(a, b *syntax.Node) bool

	// AssignmentPairs splits an assignment into its left/right operand pairs.
	AssignmentPairs(n *syntax.Node) []AssignmentPair
	// InInitializer reports an assignment that is a member of an object or
	// collection initializer.
	InInitializer(n *syntax.Node) bool

	DeclaredSymbol(n *syntax.Node) (*Symbol, bool)
	IsPubliclyVisible(sym *Symbol) bool
	HasAttribute(sym *Symbol, name string) bool

	FindEnclosing(n *syntax.Node, pred func(*syntax.Node) bool) *syntax.Node
	// Parameters returns the parameter nodes of a method or constructor.
	Parameters(decl *syntax.Node) []*syntax.Node

	IsStringLiteral(n *syntax.Node) bool
	// StringValue returns the unquoted, unescaped value of a string literal.
	StringValue(n *syntax.Node) (string, bool)
}

// AssignmentPair is one target/value pair of an assignment.
type AssignmentPair struct {
	Left  *syntax.Node
	Right *syntax.Node
}

var registry = map[string]Facade{
	csharpName: CSharp,
	javaName:   Java,
}

var extToLanguage = map[string]string{
	".cs":   csharpName,
	".java": javaName,
}

// ForLanguage returns the facade for a canonical language name.
func ForLanguage(name string) (Facade, bool) {
	f, ok := registry[name]
	return f, ok
}

// ForFile returns the facade for a file path based on its extension.
func ForFile(path string) (Facade, bool) {
	name, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, false
	}
	return ForLanguage(name)
}

// Languages returns the supported language names, sorted.
func Languages() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// kindTable is the static part of a facade's category mapping.
type kindTable map[string]syntax.Category

func (kt kindTable) kinds(c syntax.Category, extra ...string) []string {
	var out []string
	for k, cat := range kt {
		if cat == c {
			out = append(out, k)
		}
	}
	out = append(out, extra...)
	sort.Strings(out)
	return out
}

// assignmentCategory classifies an assignment by its operator token, which
// sits between the left and right operands.
func assignmentCategory(n *syntax.Node) syntax.Category {
	switch assignmentOperator(n) {
	case "=":
		return syntax.Assignment
	case "??=":
		return syntax.CoalesceAssignment
	default:
		return syntax.CompoundAssignment
	}
}

func assignmentOperator(n *syntax.Node) string {
	if op := n.ChildByField("operator"); op != nil {
		return op.Text()
	}
	left, right := n.ChildByField("left"), n.ChildByField("right")
	if left == nil || right == nil || n.Tree() == nil {
		return ""
	}
	src := n.Tree().Source
	if left.Span.EndByte > right.Span.StartByte || right.Span.StartByte > len(src) {
		return ""
	}
	return strings.TrimSpace(string(src[left.Span.EndByte:right.Span.StartByte]))
}

// unquote strips the delimiters of a quoted literal and resolves the common
// backslash escapes. Unknown escapes are kept verbatim.
func unquote(text string) (string, bool) {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return "", false
	}
	body := text[1 : len(text)-1]
	if !strings.Contains(body, `\`) {
		return body, true
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case '\\', '"', '\'':
			b.WriteByte(body[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String(), true
}
