// Package analysis is the rule runtime: rules register callbacks against node
// categories, a Dispatcher walks each tree once and fans nodes out to the
// subscribed callbacks, and every callback runs behind a fault-isolation
// boundary.
package analysis

import (
	"fmt"

	"github.com/jward/lintel/internal/descriptor"
)

// Rule is one independent check. Initialize is called once per dispatcher and
// must only register actions; all reporting happens from the callbacks.
type Rule interface {
	SupportedDiagnostics() []*descriptor.Descriptor
	Initialize(c *Context)
}

// Configurable is implemented by rules that accept per-rule parameters.
// Configure runs before Initialize.
type Configurable interface {
	Configure(params map[string]string) error
}

// Identified lets a rule name itself for logs and parameter lookup. Rules
// without it are known by their first supported descriptor.
type Identified interface {
	ID() string
}

// RuleID returns the identifier used for r in logs, faults and configuration.
func RuleID(r Rule) string {
	if id, ok := r.(Identified); ok {
		return id.ID()
	}
	if ds := r.SupportedDiagnostics(); len(ds) > 0 && ds[0] != nil {
		return ds[0].ID
	}
	return fmt.Sprintf("%T", r)
}

type (
	NodeAction        func(c *NodeContext)
	TreeAction        func(c *TreeContext)
	CompilationAction func(c *CompilationContext)
	SymbolAction      func(c *SymbolContext)
)

// ruleState is a rule's per-dispatcher bookkeeping.
type ruleState struct {
	rule      Rule
	id        string
	supported map[string]*descriptor.Descriptor
	params    map[string]string
}

func newRuleState(r Rule, params map[string]string) *ruleState {
	rs := &ruleState{
		rule:      r,
		id:        RuleID(r),
		supported: make(map[string]*descriptor.Descriptor),
		params:    params,
	}
	for _, d := range r.SupportedDiagnostics() {
		if d != nil {
			rs.supported[d.ID] = d
		}
	}
	return rs
}

func (rs *ruleState) supports(d *descriptor.Descriptor) bool {
	if d == nil {
		return false
	}
	_, ok := rs.supported[d.ID]
	return ok
}
