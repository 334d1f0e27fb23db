package rules

import (
	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// NoExceptionsInFinally flags throw statements inside finally blocks. Each
// finally clause is searched by its own sub-walk that stops at nested finally
// clauses, which are dispatched separately.
type NoExceptionsInFinally struct {
	rule *descriptor.Descriptor
}

func NewNoExceptionsInFinally(b *descriptor.Builder) (analysis.Rule, error) {
	d, err := b.Rule("S1163", "Refactor this code to not throw exceptions in finally blocks.")
	if err != nil {
		return nil, err
	}
	return &NoExceptionsInFinally{rule: d}, nil
}

func (r *NoExceptionsInFinally) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{r.rule}
}

func (r *NoExceptionsInFinally) Initialize(c *analysis.Context) {
	c.RegisterNodeAction(func(nc *analysis.NodeContext) {
		f := nc.Facade()
		for _, child := range nc.Node().Children() {
			syntax.Walk(child, func(n *syntax.Node) syntax.WalkAction {
				switch f.CategoryOf(n) {
				case syntax.FinallyClause:
					return syntax.SkipChildren
				case syntax.ThrowStatement:
					nc.ReportIssue(analysis.NewDiagnostic(r.rule, n))
				}
				return syntax.Continue
			})
		}
	}, syntax.FinallyClause)
}
