package syntax

// Category is the abstract, language-neutral classification of a node. Every
// facade maps its grammar's concrete kinds onto these values.
type Category int

const (
	Unknown Category = iota
	CompilationUnit
	ClassDeclaration
	MethodDeclaration
	ConstructorDeclaration
	ParameterList
	Parameter
	Block
	TryStatement
	CatchClause
	FinallyClause
	ThrowStatement
	ThrowExpression
	Assignment
	CompoundAssignment
	CoalesceAssignment
	Initializer
	Invocation
	StringLiteral
	Literal
	Identifier
	MemberAccess
	Attribute
	Modifier
	VariableDeclarator
	ReturnStatement
	Comment
	Lambda

	categoryCount
)

var categoryNames = [categoryCount]string{
	Unknown:                "Unknown",
	CompilationUnit:        "CompilationUnit",
	ClassDeclaration:       "ClassDeclaration",
	MethodDeclaration:      "MethodDeclaration",
	ConstructorDeclaration: "ConstructorDeclaration",
	ParameterList:          "ParameterList",
	Parameter:              "Parameter",
	Block:                  "Block",
	TryStatement:           "TryStatement",
	CatchClause:            "CatchClause",
	FinallyClause:          "FinallyClause",
	ThrowStatement:         "ThrowStatement",
	ThrowExpression:        "ThrowExpression",
	Assignment:             "Assignment",
	CompoundAssignment:     "CompoundAssignment",
	CoalesceAssignment:     "CoalesceAssignment",
	Initializer:            "Initializer",
	Invocation:             "Invocation",
	StringLiteral:          "StringLiteral",
	Literal:                "Literal",
	Identifier:             "Identifier",
	MemberAccess:           "MemberAccess",
	Attribute:              "Attribute",
	Modifier:               "Modifier",
	VariableDeclarator:     "VariableDeclarator",
	ReturnStatement:        "ReturnStatement",
	Comment:                "Comment",
	Lambda:                 "Lambda",
}

func (c Category) String() string {
	if c < 0 || c >= categoryCount {
		return "Unknown"
	}
	return categoryNames[c]
}

// CategoryFromName maps a category name back to its value.
// Returns (Unknown, false) for unrecognized names.
func CategoryFromName(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return Unknown, false
}

// Categories returns every defined category except Unknown.
func Categories() []Category {
	out := make([]Category, 0, categoryCount-1)
	for c := Category(1); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}
