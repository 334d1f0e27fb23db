package lang

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/jward/lintel/internal/syntax"
)

// langToGrammar maps language names to tree-sitter grammars.
// Lazily initialized on first call via sync.Once.
var (
	langToGrammar map[string]*sitter.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*sitter.Language{
			csharpName: csharp.GetLanguage(),
			javaName:   java.GetLanguage(),
		}
	})
}

// Grammar returns the tree-sitter grammar for a language name.
func Grammar(name string) (*sitter.Language, bool) {
	initGrammars()
	l, ok := langToGrammar[name]
	return l, ok
}

// Parse parses src with the grammar chosen by the path's extension and
// lowers the result into a syntax.Tree.
func Parse(ctx context.Context, path string, src []byte) (*syntax.Tree, Facade, error) {
	f, ok := ForFile(path)
	if !ok {
		return nil, nil, fmt.Errorf("parse %s: %w", path, ErrUnsupportedLanguage)
	}
	tree, err := ParseLanguage(ctx, f.Name(), path, src)
	if err != nil {
		return nil, nil, err
	}
	return tree, f, nil
}

// ParseLanguage is Parse with an explicit language name.
func ParseLanguage(ctx context.Context, language, path string, src []byte) (*syntax.Tree, error) {
	grammar, ok := Grammar(language)
	if !ok {
		return nil, fmt.Errorf("parse %s: %q: %w", path, language, ErrUnsupportedLanguage)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tsTree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tsTree.Close()

	root := lower(tsTree.RootNode(), src)
	return syntax.NewTree(path, language, src, root), nil
}

// lower copies a tree-sitter subtree into detached syntax nodes. Error and
// missing nodes are kept so rules can still see the surrounding structure.
func lower(n *sitter.Node, src []byte) *syntax.Node {
	count := int(n.ChildCount())
	children := make([]*syntax.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c == nil {
			continue
		}
		child := lower(c, src)
		child.Field = n.FieldNameForChild(i)
		children = append(children, child)
	}
	return syntax.NewNode(n.Type(), n.IsNamed(), spanOf(n, src), children...)
}

// spanOf converts tree-sitter's 0-based rows and byte columns into 1-based
// line and rune columns.
func spanOf(n *sitter.Node, src []byte) syntax.Span {
	start, end := int(n.StartByte()), int(n.EndByte())
	return syntax.Span{
		StartByte: start,
		EndByte:   end,
		Start:     position(n.StartPoint(), start, src),
		End:       position(n.EndPoint(), end, src),
	}
}

func position(p sitter.Point, offset int, src []byte) syntax.Position {
	lineStart := offset - int(p.Column)
	col := int(p.Column)
	if lineStart >= 0 && offset <= len(src) {
		col = len([]rune(string(src[lineStart:offset])))
	}
	return syntax.Position{Line: int(p.Row) + 1, Column: col + 1}
}
