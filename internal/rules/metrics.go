package rules

import (
	"strconv"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// MetricsID identifies the file metrics utility diagnostic.
const MetricsID = "S9999-metrics"

// FileMetrics reports one utility diagnostic per file carrying size metrics
// as properties. It only runs when utility diagnostics are enabled.
type FileMetrics struct {
	rule *descriptor.Descriptor
}

func NewFileMetrics(b *descriptor.Builder) (analysis.Rule, error) {
	d, err := b.Utility(MetricsID, "File metrics")
	if err != nil {
		return nil, err
	}
	return &FileMetrics{rule: d}, nil
}

func (r *FileMetrics) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{r.rule}
}

func (r *FileMetrics) Initialize(c *analysis.Context) {
	c.RegisterTreeAction(func(tc *analysis.TreeContext) {
		f := tc.Facade()
		tree := tc.Tree()
		counts := map[syntax.Category]int{}
		syntax.Walk(tree.Root, func(n *syntax.Node) syntax.WalkAction {
			counts[f.CategoryOf(n)]++
			return syntax.Continue
		})

		diag := analysis.NewDiagnosticAt(r.rule, syntax.Location{Path: tree.Path}).
			WithProperty("lines", strconv.Itoa(tree.LineCount())).
			WithProperty("nodes", strconv.Itoa(tree.Len())).
			WithProperty("classes", strconv.Itoa(counts[syntax.ClassDeclaration])).
			WithProperty("methods", strconv.Itoa(counts[syntax.MethodDeclaration]+counts[syntax.ConstructorDeclaration])).
			WithProperty("comments", strconv.Itoa(counts[syntax.Comment]))
		tc.ReportIssue(diag)
	})
}
