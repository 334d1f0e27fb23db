package lang

import (
	"strings"

	"github.com/jward/lintel/internal/syntax"
)

const javaName = "java"

// Java is the facade for the tree-sitter Java grammar.
var Java Facade = &javaFacade{base: base{
	name: javaName,
	table: kindTable{
		"program":                         syntax.CompilationUnit,
		"class_declaration":               syntax.ClassDeclaration,
		"interface_declaration":           syntax.ClassDeclaration,
		"enum_declaration":                syntax.ClassDeclaration,
		"record_declaration":              syntax.ClassDeclaration,
		"method_declaration":              syntax.MethodDeclaration,
		"constructor_declaration":         syntax.ConstructorDeclaration,
		"compact_constructor_declaration": syntax.ConstructorDeclaration,
		"formal_parameters":               syntax.ParameterList,
		"formal_parameter":                syntax.Parameter,
		"spread_parameter":                syntax.Parameter,
		"block":                           syntax.Block,
		"constructor_body":                syntax.Block,
		"try_statement":                   syntax.TryStatement,
		"try_with_resources_statement":    syntax.TryStatement,
		"catch_clause":                    syntax.CatchClause,
		"finally_clause":                  syntax.FinallyClause,
		"throw_statement":                 syntax.ThrowStatement,
		"array_initializer":               syntax.Initializer,
		"method_invocation":               syntax.Invocation,
		"string_literal":                  syntax.StringLiteral,
		"text_block":                      syntax.StringLiteral,
		"decimal_integer_literal":         syntax.Literal,
		"hex_integer_literal":             syntax.Literal,
		"octal_integer_literal":           syntax.Literal,
		"binary_integer_literal":          syntax.Literal,
		"decimal_floating_point_literal":  syntax.Literal,
		"hex_floating_point_literal":      syntax.Literal,
		"character_literal":               syntax.Literal,
		"null_literal":                    syntax.Literal,
		"true":                            syntax.Literal,
		"false":                           syntax.Literal,
		"identifier":                      syntax.Identifier,
		"field_access":                    syntax.MemberAccess,
		"annotation":                      syntax.Attribute,
		"marker_annotation":               syntax.Attribute,
		"modifiers":                       syntax.Modifier,
		"variable_declarator":             syntax.VariableDeclarator,
		"return_statement":                syntax.ReturnStatement,
		"line_comment":                    syntax.Comment,
		"block_comment":                   syntax.Comment,
		"comment":                         syntax.Comment,
		"lambda_expression":               syntax.Lambda,
	},
	assignKind: "assignment_expression",
	trivia:     set("line_comment", "block_comment", "comment"),
	params:     set("formal_parameter", "spread_parameter"),
	strings:    set("string_literal", "text_block"),
}}

var javaTypeKinds = map[string]string{
	"class_declaration":           "class",
	"interface_declaration":       "interface",
	"enum_declaration":            "enum",
	"record_declaration":          "record",
	"annotation_type_declaration": "interface",
}

var javaMemberKinds = map[string]string{
	"method_declaration":      "method",
	"constructor_declaration": "constructor",
}

type javaFacade struct {
	base
}

// InInitializer is always false: Java has no member initializer assignments.
func (f *javaFacade) InInitializer(*syntax.Node) bool { return false }

func (f *javaFacade) AssignmentPairs(n *syntax.Node) []AssignmentPair {
	if n == nil || n.Kind != f.assignKind {
		return nil
	}
	left, right := n.ChildByField("left"), n.ChildByField("right")
	if left == nil || right == nil {
		return nil
	}
	return []AssignmentPair{{Left: left, Right: right}}
}

func (f *javaFacade) StringValue(n *syntax.Node) (string, bool) {
	if !f.IsStringLiteral(n) {
		return "", false
	}
	if n.Kind == "text_block" {
		text := strings.TrimSuffix(strings.TrimPrefix(n.Text(), `"""`), `"""`)
		return strings.TrimSpace(text), true
	}
	return unquote(n.Text())
}

func (f *javaFacade) DeclaredSymbol(n *syntax.Node) (*Symbol, bool) {
	if n == nil {
		return nil, false
	}
	kind, ok := javaTypeKinds[n.Kind]
	if !ok {
		kind, ok = javaMemberKinds[n.Kind]
	}
	if !ok {
		return nil, false
	}

	sym := &Symbol{Kind: kind, Decl: n, Identifier: n.ChildByField("name")}
	if sym.Identifier != nil {
		sym.Name = sym.Identifier.Text()
	}
	if mods := n.FirstChildOfKind("modifiers"); mods != nil {
		for _, c := range mods.Children() {
			switch c.Kind {
			case "annotation", "marker_annotation":
				if name := c.ChildByField("name"); name != nil {
					sym.Attributes = append(sym.Attributes, name.Text())
				}
			default:
				if !c.Named {
					sym.Modifiers = append(sym.Modifiers, c.Kind)
				}
			}
		}
	}

	if outer := syntax.FirstAncestor(n, func(p *syntax.Node) bool {
		_, isType := javaTypeKinds[p.Kind]
		return isType
	}); outer != nil {
		sym.Container, _ = f.DeclaredSymbol(outer)
	}

	switch {
	case sym.HasModifier("public"):
		sym.Declared = Public
	case sym.HasModifier("protected"):
		sym.Declared = Protected
	case sym.HasModifier("private"):
		sym.Declared = Private
	case sym.Container != nil && sym.Container.Kind == "interface":
		sym.Declared = Public
	default:
		// package-private
		sym.Declared = Internal
	}
	sym.Effective = sym.Declared
	if sym.Container != nil && sym.Container.Effective < sym.Effective {
		sym.Effective = sym.Container.Effective
	}
	return sym, true
}
