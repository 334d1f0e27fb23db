package runtime

import (
	"context"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/syntax"
)

// actionContext is what node and tree callbacks have in common.
type actionContext interface {
	Context() context.Context
	Tree() *syntax.Tree
	Facade() lang.Facade
	Param(name string) (string, bool)
	ReportIssue(d analysis.Diagnostic)
}

// ScriptRule is an analysis.Rule whose body is a Risor script.
type ScriptRule struct {
	rt   *Runtime
	spec ScriptSpec
	cats []syntax.Category
	rule *descriptor.Descriptor
}

// Factory returns a rule constructor for spec. Its signature matches
// rules.Factory, so scripted rules register in the catalogue like built-in
// ones.
func (r *Runtime) Factory(spec ScriptSpec) func(*descriptor.Builder) (analysis.Rule, error) {
	return func(b *descriptor.Builder) (analysis.Rule, error) {
		cats, err := spec.categories()
		if err != nil {
			return nil, err
		}
		d, err := b.Rule(spec.ID, spec.Message)
		if err != nil {
			return nil, err
		}
		return &ScriptRule{rt: r, spec: spec, cats: cats, rule: d}, nil
	}
}

func (s *ScriptRule) ID() string { return s.spec.ID }

func (s *ScriptRule) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{s.rule}
}

func (s *ScriptRule) Initialize(c *analysis.Context) {
	if s.spec.TreeMode() {
		c.RegisterTreeAction(func(tc *analysis.TreeContext) {
			s.invoke(tc, tc.Node())
		})
		return
	}
	c.RegisterNodeAction(func(nc *analysis.NodeContext) {
		s.invoke(nc, nc.Node())
	}, s.cats...)
}

// invoke evaluates the script for one node. Diagnostics are held until the
// script finishes so a failing script reports nothing; the failure itself is
// raised as a panic and isolated by the dispatcher like any rule fault.
func (s *ScriptRule) invoke(ac actionContext, n *syntax.Node) {
	inv := &invocation{rule: s, ac: ac, node: n}
	if err := s.rt.RunScript(ac.Context(), s.spec.Script, inv.globals()); err != nil {
		panic(err)
	}
	for _, d := range inv.pending {
		ac.ReportIssue(d)
	}
}
