package rules

import (
	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// PInvokesShouldNotBeVisible flags static extern methods carrying DllImport
// that are reachable from outside their own type: anything whose effective
// visibility is public, protected or internal.
type PInvokesShouldNotBeVisible struct {
	rule *descriptor.Descriptor
}

func NewPInvokesShouldNotBeVisible(b *descriptor.Builder) (analysis.Rule, error) {
	d, err := b.Rule("S4214", "Make this 'P/Invoke' method private.")
	if err != nil {
		return nil, err
	}
	return &PInvokesShouldNotBeVisible{rule: d}, nil
}

func (r *PInvokesShouldNotBeVisible) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{r.rule}
}

func (r *PInvokesShouldNotBeVisible) Initialize(c *analysis.Context) {
	c.RegisterNodeAction(func(nc *analysis.NodeContext) {
		f := nc.Facade()
		sym, ok := f.DeclaredSymbol(nc.Node())
		if !ok || sym.Identifier == nil {
			return
		}
		if sym.HasModifier("extern") &&
			sym.HasModifier("static") &&
			f.IsPubliclyVisible(sym) &&
			f.HasAttribute(sym, "System.Runtime.InteropServices.DllImportAttribute") {
			nc.ReportIssue(analysis.NewDiagnostic(r.rule, sym.Identifier))
		}
	}, syntax.MethodDeclaration)
}
