package rules

import (
	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// SelfAssignment flags assignments whose target and value are the same
// expression, including coalescing assignments and each element of a tuple
// deconstruction. Assignments inside object and collection initializers are
// exempt: there the left side names a member of the new object and the right
// side a variable in scope.
type SelfAssignment struct {
	rule *descriptor.Descriptor
}

func NewSelfAssignment(b *descriptor.Builder) (analysis.Rule, error) {
	d, err := b.Rule("S1656", "Remove or correct this useless self-assignment.")
	if err != nil {
		return nil, err
	}
	return &SelfAssignment{rule: d}, nil
}

func (r *SelfAssignment) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{r.rule}
}

func (r *SelfAssignment) Initialize(c *analysis.Context) {
	c.RegisterNodeAction(func(nc *analysis.NodeContext) {
		f := nc.Facade()
		if f.InInitializer(nc.Node()) {
			return
		}
		for _, p := range f.AssignmentPairs(nc.Node()) {
			if f.AreEquivalent(p.Left, p.Right) {
				nc.ReportIssue(analysis.NewDiagnostic(r.rule, p.Left).WithAdditional(p.Right))
			}
		}
	}, syntax.Assignment, syntax.CoalesceAssignment)
}
