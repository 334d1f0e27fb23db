package analysis

import (
	"context"

	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/syntax"
)

// Context is handed to Rule.Initialize for registering actions.
type Context struct {
	d    *Dispatcher
	rule *ruleState
}

// RegisterNodeAction subscribes cb to every node of the given categories.
// Callbacks for one node run in registration order.
func (c *Context) RegisterNodeAction(cb NodeAction, categories ...syntax.Category) {
	reg := &nodeRegistration{rule: c.rule, action: cb}
	for _, cat := range categories {
		c.d.nodeActions[cat] = append(c.d.nodeActions[cat], reg)
	}
}

// RegisterTreeAction subscribes cb to the whole tree, before the node walk.
func (c *Context) RegisterTreeAction(cb TreeAction) {
	c.d.treeActions = append(c.d.treeActions, treeRegistration{rule: c.rule, action: cb})
}

// RegisterCompilationStartAction runs cb once per unit before anything else.
func (c *Context) RegisterCompilationStartAction(cb CompilationAction) {
	c.d.startActions = append(c.d.startActions, compilationRegistration{rule: c.rule, action: cb})
}

// RegisterCompilationEndAction runs cb once per unit after everything else.
func (c *Context) RegisterCompilationEndAction(cb CompilationAction) {
	c.d.endActions = append(c.d.endActions, compilationRegistration{rule: c.rule, action: cb})
}

// RegisterSymbolAction runs cb after the walk for every declaration of the
// given categories the facade resolves a symbol for.
func (c *Context) RegisterSymbolAction(cb SymbolAction, categories ...syntax.Category) {
	for _, cat := range categories {
		c.d.symbolCats[cat] = true
	}
	c.d.symbolActions = append(c.d.symbolActions, symbolRegistration{rule: c.rule, action: cb, categories: categories})
}

func (c *Context) Facade() lang.Facade { return c.d.facade }

func (c *Context) Language() string { return c.d.facade.Name() }

// Param returns the configured value of a rule parameter.
func (c *Context) Param(name string) (string, bool) {
	v, ok := c.rule.params[name]
	return v, ok
}

// actionContext is the part shared by every callback context.
type actionContext struct {
	ctx  context.Context
	run  *run
	rule *ruleState
}

func (a *actionContext) Context() context.Context { return a.ctx }

func (a *actionContext) Tree() *syntax.Tree { return a.run.tree }

func (a *actionContext) Facade() lang.Facade { return a.run.d.facade }

func (a *actionContext) Param(name string) (string, bool) {
	v, ok := a.rule.params[name]
	return v, ok
}

// ReportIssue submits a diagnostic. A descriptor the rule did not declare is a
// configuration error that aborts the unit; otherwise the policy may drop the
// diagnostic or adjust its severity before it reaches the sink.
func (a *actionContext) ReportIssue(diag Diagnostic) {
	if !a.rule.supports(diag.Descriptor) {
		id := ""
		if diag.Descriptor != nil {
			id = diag.Descriptor.ID
		}
		panic(&ConfigError{RuleID: a.rule.id, DescriptorID: id, Err: ErrUndeclaredDescriptor})
	}
	if diag.Location.Path == "" {
		diag.Location.Path = a.run.tree.Path
	}

	policy := a.run.d.policy
	if !policy.Enabled(diag.Descriptor) {
		return
	}
	if policy.Suppressed(diag.Descriptor, diag.Location, a.run.tree) {
		a.run.result.Suppressed++
		return
	}
	diag.Severity = policy.Severity(diag.Descriptor)
	a.run.sink.Accept(diag)
	a.run.result.Reported++
}

// NodeContext is passed to node actions.
type NodeContext struct {
	actionContext
	node *syntax.Node
	skip bool
}

func (c *NodeContext) Node() *syntax.Node { return c.node }

// Category is the category the node was dispatched under.
func (c *NodeContext) Category() syntax.Category { return c.run.d.facade.CategoryOf(c.node) }

// SkipDescendants stops this registration, and only this one, from seeing
// the current node's descendants.
func (c *NodeContext) SkipDescendants() { c.skip = true }

// TreeContext is passed to tree actions.
type TreeContext struct {
	actionContext
}

func (c *TreeContext) Node() *syntax.Node { return c.run.tree.Root }

// CompilationContext is passed to compilation start and end actions.
type CompilationContext struct {
	actionContext
}

func (c *CompilationContext) Node() *syntax.Node { return c.run.tree.Root }

// SymbolContext is passed to symbol actions.
type SymbolContext struct {
	actionContext
	symbol *lang.Symbol
}

func (c *SymbolContext) Node() *syntax.Node { return c.symbol.Decl }

func (c *SymbolContext) Symbol() *lang.Symbol { return c.symbol }
