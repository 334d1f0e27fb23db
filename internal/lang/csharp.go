package lang

import (
	"strings"

	"github.com/jward/lintel/internal/syntax"
)

const csharpName = "csharp"

// CSharp is the facade for the tree-sitter C# grammar.
var CSharp Facade = &csharpFacade{base: base{
	name: csharpName,
	table: kindTable{
		"compilation_unit":            syntax.CompilationUnit,
		"class_declaration":           syntax.ClassDeclaration,
		"struct_declaration":          syntax.ClassDeclaration,
		"record_declaration":          syntax.ClassDeclaration,
		"record_struct_declaration":   syntax.ClassDeclaration,
		"interface_declaration":       syntax.ClassDeclaration,
		"method_declaration":          syntax.MethodDeclaration,
		"local_function_statement":    syntax.MethodDeclaration,
		"constructor_declaration":     syntax.ConstructorDeclaration,
		"parameter_list":              syntax.ParameterList,
		"bracketed_parameter_list":    syntax.ParameterList,
		"parameter":                   syntax.Parameter,
		"parameter_array":             syntax.Parameter,
		"block":                       syntax.Block,
		"try_statement":               syntax.TryStatement,
		"catch_clause":                syntax.CatchClause,
		"finally_clause":              syntax.FinallyClause,
		"throw_statement":             syntax.ThrowStatement,
		"throw_expression":            syntax.ThrowExpression,
		"initializer_expression":      syntax.Initializer,
		"invocation_expression":       syntax.Invocation,
		"string_literal":              syntax.StringLiteral,
		"verbatim_string_literal":     syntax.StringLiteral,
		"raw_string_literal":          syntax.StringLiteral,
		"integer_literal":             syntax.Literal,
		"real_literal":                syntax.Literal,
		"boolean_literal":             syntax.Literal,
		"null_literal":                syntax.Literal,
		"character_literal":           syntax.Literal,
		"identifier":                  syntax.Identifier,
		"member_access_expression":    syntax.MemberAccess,
		"attribute":                   syntax.Attribute,
		"modifier":                    syntax.Modifier,
		"variable_declarator":         syntax.VariableDeclarator,
		"return_statement":            syntax.ReturnStatement,
		"comment":                     syntax.Comment,
		"lambda_expression":           syntax.Lambda,
		"anonymous_method_expression": syntax.Lambda,
	},
	assignKind: "assignment_expression",
	coalesce:   true,
	trivia:     set("comment", "preproc_region", "preproc_endregion", "preproc_pragma", "preproc_nullable"),
	params:     set("parameter", "parameter_array"),
	strings:    set("string_literal", "verbatim_string_literal", "raw_string_literal"),
}}

var csharpTypeKinds = map[string]string{
	"class_declaration":         "class",
	"struct_declaration":        "struct",
	"record_declaration":        "record",
	"record_struct_declaration": "record",
	"interface_declaration":     "interface",
	"enum_declaration":          "enum",
}

var csharpMemberKinds = map[string]string{
	"method_declaration":      "method",
	"constructor_declaration": "constructor",
}

var csharpModifiers = set(
	"public", "private", "protected", "internal", "static", "extern", "abstract",
	"virtual", "override", "sealed", "readonly", "unsafe", "async", "partial",
	"new", "const", "volatile", "file", "required",
)

type csharpFacade struct {
	base
}

func (f *csharpFacade) InInitializer(n *syntax.Node) bool {
	return n != nil && n.Parent() != nil && n.Parent().Kind == "initializer_expression"
}

// AssignmentPairs pairs tuple deconstruction element-wise:
// (a, b) = (b, a) yields a/b and b/a.
func (f *csharpFacade) AssignmentPairs(n *syntax.Node) []AssignmentPair {
	if n == nil || n.Kind != f.assignKind {
		return nil
	}
	left, right := n.ChildByField("left"), n.ChildByField("right")
	if left == nil || right == nil {
		return nil
	}
	if left.Kind == "tuple_expression" && right.Kind == "tuple_expression" {
		l, r := tupleElements(left), tupleElements(right)
		if len(l) == len(r) && len(l) > 0 {
			pairs := make([]AssignmentPair, len(l))
			for i := range l {
				pairs[i] = AssignmentPair{Left: l[i], Right: r[i]}
			}
			return pairs
		}
	}
	return []AssignmentPair{{Left: left, Right: right}}
}

func tupleElements(tuple *syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	for _, arg := range tuple.NamedChildren() {
		if arg.Kind != "argument" {
			continue
		}
		named := arg.NamedChildren()
		if len(named) == 0 {
			out = append(out, arg)
			continue
		}
		out = append(out, named[len(named)-1])
	}
	return out
}

func (f *csharpFacade) StringValue(n *syntax.Node) (string, bool) {
	if !f.IsStringLiteral(n) {
		return "", false
	}
	text := n.Text()
	switch n.Kind {
	case "verbatim_string_literal":
		text = strings.TrimPrefix(text, "@")
		if len(text) < 2 {
			return "", false
		}
		return strings.ReplaceAll(text[1:len(text)-1], `""`, `"`), true
	case "raw_string_literal":
		trimmed := strings.Trim(text, `"`)
		return strings.TrimSpace(trimmed), true
	default:
		return unquote(text)
	}
}

func (f *csharpFacade) DeclaredSymbol(n *syntax.Node) (*Symbol, bool) {
	if n == nil {
		return nil, false
	}
	kind, ok := csharpTypeKinds[n.Kind]
	if !ok {
		kind, ok = csharpMemberKinds[n.Kind]
	}
	if !ok {
		return nil, false
	}

	sym := &Symbol{
		Kind:       kind,
		Decl:       n,
		Identifier: n.ChildByField("name"),
		Modifiers:  csharpModifierList(n),
		Attributes: csharpAttributes(n),
	}
	if sym.Identifier != nil {
		sym.Name = sym.Identifier.Text()
	}

	if outer := syntax.FirstAncestor(n, func(p *syntax.Node) bool {
		_, isType := csharpTypeKinds[p.Kind]
		return isType
	}); outer != nil {
		sym.Container, _ = f.DeclaredSymbol(outer)
	}

	sym.Declared = csharpDeclaredVisibility(sym)
	sym.Effective = sym.Declared
	if sym.Container != nil {
		sym.Effective = restrict(sym.Declared, sym.Container.Effective)
	}
	return sym, true
}

func csharpDeclaredVisibility(sym *Symbol) Visibility {
	switch {
	case sym.HasModifier("public"):
		return Public
	case sym.HasModifier("protected") && sym.HasModifier("internal"):
		return ProtectedInternal
	case sym.HasModifier("private") && sym.HasModifier("protected"):
		return PrivateProtected
	case sym.HasModifier("protected"):
		return Protected
	case sym.HasModifier("internal"):
		return Internal
	case sym.HasModifier("private"):
		return Private
	}
	switch {
	case sym.Container == nil:
		return Internal
	case sym.Container.Kind == "interface":
		return Public
	default:
		return Private
	}
}

// csharpModifierList collects modifier keywords preceding the declaration
// name, whether the grammar wraps them in modifier nodes or not.
func csharpModifierList(n *syntax.Node) []string {
	var mods []string
	for _, c := range n.Children() {
		if c.Field == "name" {
			break
		}
		switch {
		case c.Kind == "modifier":
			mods = append(mods, strings.TrimSpace(c.Text()))
		case !c.Named && csharpModifiers[c.Kind]:
			mods = append(mods, c.Kind)
		}
	}
	return mods
}

func csharpAttributes(n *syntax.Node) []string {
	var attrs []string
	for _, list := range n.Children() {
		if list.Kind != "attribute_list" {
			continue
		}
		for _, a := range list.NamedChildren() {
			if a.Kind != "attribute" {
				continue
			}
			name := a.ChildByField("name")
			if name == nil {
				if named := a.NamedChildren(); len(named) > 0 {
					name = named[0]
				}
			}
			if name != nil {
				attrs = append(attrs, name.Text())
			}
		}
	}
	return attrs
}
