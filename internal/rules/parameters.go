package rules

import (
	"fmt"
	"strconv"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// DefaultMaxParameters is the parameter limit when none is configured.
const DefaultMaxParameters = 7

// TooManyParameters flags methods and constructors declaring more than Max
// parameters. Overrides and extern methods are skipped: their signatures are
// dictated elsewhere.
type TooManyParameters struct {
	rule *descriptor.Descriptor
	Max  int
}

func NewTooManyParameters(b *descriptor.Builder) (analysis.Rule, error) {
	d, err := b.Rule("S107", "%s has %d parameters, which is greater than the %d authorized.")
	if err != nil {
		return nil, err
	}
	return &TooManyParameters{rule: d, Max: DefaultMaxParameters}, nil
}

func (r *TooManyParameters) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{r.rule}
}

// Configure reads the "max" parameter.
func (r *TooManyParameters) Configure(params map[string]string) error {
	raw, ok := params["max"]
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("max: %w", err)
	}
	if v < 1 {
		return fmt.Errorf("max: must be positive, got %d", v)
	}
	r.Max = v
	return nil
}

func (r *TooManyParameters) Initialize(c *analysis.Context) {
	c.RegisterNodeAction(func(nc *analysis.NodeContext) {
		f := nc.Facade()
		decl := nc.Node()
		params := f.Parameters(decl)
		if len(params) <= r.Max {
			return
		}
		kind := "Method"
		if sym, ok := f.DeclaredSymbol(decl); ok {
			if sym.HasModifier("override") || sym.HasModifier("extern") || sym.HasModifier("native") || f.HasAttribute(sym, "Override") {
				return
			}
			if sym.Kind == "constructor" {
				kind = "Constructor"
			}
		}
		at := decl.ChildByField("parameters")
		if at == nil {
			at = decl
		}
		nc.ReportIssue(analysis.NewDiagnostic(r.rule, at, kind, len(params), r.Max))
	}, syntax.MethodDeclaration, syntax.ConstructorDeclaration)
}
