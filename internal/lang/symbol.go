package lang

import (
	"strings"

	"github.com/jward/lintel/internal/syntax"
)

// Visibility is a declared or effective accessibility level.
type Visibility int

const (
	Private Visibility = iota
	PrivateProtected
	Internal
	Protected
	ProtectedInternal
	Public
)

func (v Visibility) String() string {
	switch v {
	case Private:
		return "private"
	case PrivateProtected:
		return "private protected"
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case ProtectedInternal:
		return "protected internal"
	case Public:
		return "public"
	default:
		return "unknown"
	}
}

// restrict returns the most restrictive combination of a member's visibility
// and its container's. Protected and internal intersect to private protected.
func restrict(a, b Visibility) Visibility {
	if (a == Protected && b == Internal) || (a == Internal && b == Protected) {
		return PrivateProtected
	}
	if a < b {
		return a
	}
	return b
}

// Symbol is the syntactic view of a declaration: enough of a semantic model
// for visibility and modifier checks without a type checker.
type Symbol struct {
	Name string
	// Kind is the declaration kind: "class", "method", "constructor", ...
	Kind string

	Declared  Visibility
	Effective Visibility

	Modifiers  []string
	Attributes []string

	Decl       *syntax.Node
	Identifier *syntax.Node
	Container  *Symbol
}

// HasModifier reports whether the declaration carries the modifier keyword.
func (s *Symbol) HasModifier(mod string) bool {
	for _, m := range s.Modifiers {
		if m == mod {
			return true
		}
	}
	return false
}

// hasAttribute matches attribute names ignoring qualification and a trailing
// "Attribute" suffix, so DllImport matches System.Runtime.InteropServices.DllImportAttribute.
func hasAttribute(sym *Symbol, name string) bool {
	if sym == nil {
		return false
	}
	want := normalizeAttribute(name)
	for _, a := range sym.Attributes {
		if normalizeAttribute(a) == want {
			return true
		}
	}
	return false
}

func normalizeAttribute(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "@")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.IndexAny(name, "<("); i >= 0 {
		name = name[:i]
	}
	if name != "Attribute" {
		name = strings.TrimSuffix(name, "Attribute")
	}
	return name
}

// isPubliclyVisible is true for anything reachable from outside its own type.
func isPubliclyVisible(sym *Symbol) bool {
	if sym == nil {
		return false
	}
	switch sym.Effective {
	case Public, Protected, Internal, ProtectedInternal:
		return true
	default:
		return false
	}
}
