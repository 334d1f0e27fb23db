package runtime

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/risor-io/risor/object"
	"go.uber.org/zap"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/syntax"
)

// invocation is the state behind the host functions of one script run.
type invocation struct {
	rule    *ScriptRule
	ac      actionContext
	node    *syntax.Node
	pending []analysis.Diagnostic
}

// globals builds the names a scripted rule sees:
//
//	node                  the current node as a map (kind, category, text, start, end, line, column, end_line, end_column)
//	path, language        the unit being analyzed
//	report(args...)       report at the current node
//	report_at(s, e, ...)  report at byte offsets [s, e) of the file
//	nodes(category)       every node of a category in the tree
//	param(name, default)  a configured rule parameter
//	word_offsets(t, w)    offsets of w in t as a whole word, ignoring case
//	log                   info/warn/error routed to the engine logger
func (inv *invocation) globals() map[string]any {
	tree := inv.ac.Tree()
	return map[string]any{
		"node":         inv.nodeObject(inv.node),
		"path":         tree.Path,
		"language":     inv.ac.Facade().Name(),
		"report":       inv.makeReportFn(),
		"report_at":    inv.makeReportAtFn(),
		"nodes":        inv.makeNodesFn(),
		"param":        inv.makeParamFn(),
		"word_offsets": makeWordOffsetsFn(),
		"log": mustProxy(&logObject{logger: inv.rule.rt.logger.With(
			zap.String("rule", inv.rule.spec.ID),
			zap.String("path", tree.Path),
		)}),
	}
}

func (inv *invocation) nodeObject(n *syntax.Node) object.Object {
	if n == nil {
		return object.Nil
	}
	span := n.Span
	return object.NewMap(map[string]object.Object{
		"kind":       object.NewString(n.Kind),
		"category":   object.NewString(inv.ac.Facade().CategoryOf(n).String()),
		"text":       object.NewString(n.Text()),
		"start":      object.NewInt(int64(span.StartByte)),
		"end":        object.NewInt(int64(span.EndByte)),
		"line":       object.NewInt(int64(span.Start.Line)),
		"column":     object.NewInt(int64(span.Start.Column)),
		"end_line":   object.NewInt(int64(span.End.Line)),
		"end_column": object.NewInt(int64(span.End.Column)),
	})
}

// makeReportFn creates the "report" host function.
//
// report(args...) → nil
func (inv *invocation) makeReportFn() *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		d := analysis.NewDiagnostic(inv.rule.rule, inv.node, toGoArgs(args)...)
		inv.pending = append(inv.pending, d)
		return object.Nil
	})
}

// makeReportAtFn creates the "report_at" host function.
//
// report_at(start, end, args...) → nil
func (inv *invocation) makeReportAtFn() *object.Builtin {
	return object.NewBuiltin("report_at", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 2 {
			return object.NewArgsError("report_at", 2, len(args))
		}
		start, ok := args[0].(*object.Int)
		if !ok {
			return object.Errorf("report_at: start must be an int, got %s", args[0].Type())
		}
		end, ok := args[1].(*object.Int)
		if !ok {
			return object.Errorf("report_at: end must be an int, got %s", args[1].Type())
		}
		tree := inv.ac.Tree()
		s, e := int(start.Value()), int(end.Value())
		if s < 0 || e < s || e > len(tree.Source) {
			return object.Errorf("report_at: range [%d, %d) outside source of %d bytes", s, e, len(tree.Source))
		}
		loc := syntax.Location{Path: tree.Path, Span: tree.SpanOf(s, e)}
		inv.pending = append(inv.pending, analysis.NewDiagnosticAt(inv.rule.rule, loc, toGoArgs(args[2:])...))
		return object.Nil
	})
}

// makeNodesFn creates the "nodes" host function.
//
// nodes(category) → []map
func (inv *invocation) makeNodesFn() *object.Builtin {
	return object.NewBuiltin("nodes", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("nodes", 1, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("nodes: category must be a string, got %s", args[0].Type())
		}
		cat, ok := syntax.CategoryFromName(name.Value())
		if !ok {
			return object.Errorf("nodes: unknown category %q", name.Value())
		}

		f := inv.ac.Facade()
		results := []object.Object{}
		syntax.Walk(inv.ac.Tree().Root, func(n *syntax.Node) syntax.WalkAction {
			if ctx.Err() != nil {
				return syntax.Stop
			}
			if f.CategoryOf(n) == cat {
				results = append(results, inv.nodeObject(n))
			}
			return syntax.Continue
		})
		if err := ctx.Err(); err != nil {
			return object.Errorf("nodes: %v", err)
		}
		return object.NewList(results)
	})
}

// makeParamFn creates the "param" host function.
//
// param(name, default?) → string or default
func (inv *invocation) makeParamFn() *object.Builtin {
	return object.NewBuiltin("param", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.NewArgsError("param", 1, len(args))
		}
		name, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("param: name must be a string, got %s", args[0].Type())
		}
		if v, ok := inv.ac.Param(name.Value()); ok {
			return object.NewString(v)
		}
		if len(args) == 2 {
			return args[1]
		}
		return object.Nil
	})
}

// makeWordOffsetsFn creates the "word_offsets" host function.
//
// word_offsets(text, word) → []int
func makeWordOffsetsFn() *object.Builtin {
	return object.NewBuiltin("word_offsets", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("word_offsets", 2, len(args))
		}
		text, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("word_offsets: text must be a string, got %s", args[0].Type())
		}
		word, ok := args[1].(*object.String)
		if !ok {
			return object.Errorf("word_offsets: word must be a string, got %s", args[1].Type())
		}
		offsets := wordOffsets(text.Value(), word.Value())
		results := make([]object.Object, len(offsets))
		for i, off := range offsets {
			results[i] = object.NewInt(int64(off))
		}
		return object.NewList(results)
	})
}

// wordOffsets returns the byte offsets of case-insensitive occurrences of word
// in text that are not directly preceded or followed by a letter.
func wordOffsets(text, word string) []int {
	var out []int
	if word == "" {
		return out
	}
	n := len(word)
	for i := 0; i+n <= len(text); i++ {
		if !strings.EqualFold(text[i:i+n], word) {
			continue
		}
		if before, _ := utf8.DecodeLastRuneInString(text[:i]); i > 0 && unicode.IsLetter(before) {
			continue
		}
		if after, _ := utf8.DecodeRuneInString(text[i+n:]); i+n < len(text) && unicode.IsLetter(after) {
			continue
		}
		out = append(out, i)
		i += n - 1
	}
	return out
}

func toGoArgs(args []object.Object) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case *object.String:
			out[i] = v.Value()
		case *object.Int:
			out[i] = v.Value()
		case *object.Float:
			out[i] = v.Value()
		case *object.Bool:
			out[i] = v.Value()
		default:
			out[i] = a.Inspect()
		}
	}
	return out
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger *zap.Logger
}

func (l *logObject) Info(msg string) { l.logger.Info(msg) }

func (l *logObject) Warn(msg string) { l.logger.Warn(msg) }

func (l *logObject) Error(msg string) { l.logger.Error(msg) }
