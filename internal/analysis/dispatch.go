package analysis

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/syntax"
)

// Options configures a Dispatcher.
type Options struct {
	// Policy defaults to DefaultPolicy.
	Policy Policy
	// Params holds per-rule parameters keyed by rule ID.
	Params map[string]map[string]string
	// Logger defaults to a no-op logger.
	Logger       *zap.Logger
	FaultHandler FaultHandler
}

type nodeRegistration struct {
	rule   *ruleState
	action NodeAction
}

type treeRegistration struct {
	rule   *ruleState
	action TreeAction
}

type compilationRegistration struct {
	rule   *ruleState
	action CompilationAction
}

type symbolRegistration struct {
	rule       *ruleState
	action     SymbolAction
	categories []syntax.Category
}

// Dispatcher runs a fixed set of rules over trees of one language. Rules are
// initialized once, in NewDispatcher; Run may then be called for any number
// of trees, one at a time.
type Dispatcher struct {
	facade  lang.Facade
	policy  Policy
	logger  *zap.Logger
	onFault FaultHandler

	rules         []*ruleState
	nodeActions   map[syntax.Category][]*nodeRegistration
	treeActions   []treeRegistration
	startActions  []compilationRegistration
	endActions    []compilationRegistration
	symbolActions []symbolRegistration
	symbolCats    map[syntax.Category]bool
}

// NewDispatcher configures and initializes rules against facade. A rule none
// of whose descriptors the policy enables is not initialized at all.
func NewDispatcher(facade lang.Facade, rules []Rule, opts Options) (*Dispatcher, error) {
	d := &Dispatcher{
		facade:      facade,
		policy:      opts.Policy,
		logger:      opts.Logger,
		onFault:     opts.FaultHandler,
		nodeActions: make(map[syntax.Category][]*nodeRegistration),
		symbolCats:  make(map[syntax.Category]bool),
	}
	if d.policy == nil {
		d.policy = DefaultPolicy{}
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}

	for _, r := range rules {
		if !d.anyEnabled(r) {
			continue
		}
		rs := newRuleState(r, opts.Params[RuleID(r)])
		if c, ok := r.(Configurable); ok {
			if err := c.Configure(rs.params); err != nil {
				return nil, &ConfigError{RuleID: rs.id, Err: err}
			}
		}
		if err := d.initialize(rs); err != nil {
			return nil, err
		}
		d.rules = append(d.rules, rs)
	}
	return d, nil
}

func (d *Dispatcher) anyEnabled(r Rule) bool {
	for _, desc := range r.SupportedDiagnostics() {
		if desc != nil && d.policy.Enabled(desc) {
			return true
		}
	}
	return false
}

func (d *Dispatcher) initialize(rs *ruleState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*ConfigError); ok {
				err = ce
				return
			}
			err = &ConfigError{RuleID: rs.id, Err: fmt.Errorf("initialize: %v", r)}
		}
	}()
	rs.rule.Initialize(&Context{d: d, rule: rs})
	return nil
}

// Facade returns the facade the dispatcher was built for.
func (d *Dispatcher) Facade() lang.Facade { return d.facade }

// RuleIDs lists the initialized rules in registration order.
func (d *Dispatcher) RuleIDs() []string {
	ids := make([]string, len(d.rules))
	for i, rs := range d.rules {
		ids[i] = rs.id
	}
	return ids
}

// Result summarizes one Run.
type Result struct {
	Nodes       int
	Invocations int
	Reported    int
	Suppressed  int
	Faults      []RuleFault
}

// run is the state of one pass over one tree.
type run struct {
	d      *Dispatcher
	ctx    context.Context
	tree   *syntax.Tree
	sink   Sink
	result Result

	// skipping counts, per registration, the enclosing nodes at which it
	// asked to skip descendants.
	skipping map[*nodeRegistration]int
	decls    []*syntax.Node
}

// Run walks tree once. The order is compilation-start actions, tree actions,
// node actions in pre-order, symbol actions, compilation-end actions.
// Cancellation and configuration errors stop the run and are returned; every
// other callback failure is isolated and recorded in the Result.
func (d *Dispatcher) Run(ctx context.Context, tree *syntax.Tree, sink Sink) (Result, error) {
	r := &run{d: d, ctx: ctx, tree: tree, sink: sink, skipping: make(map[*nodeRegistration]int)}

	if err := r.compilation(d.startActions); err != nil {
		return r.result, err
	}
	for _, reg := range d.treeActions {
		tc := &TreeContext{actionContext{ctx: ctx, run: r, rule: reg.rule}}
		if err := r.visit(reg.rule, tree.Root, func() { reg.action(tc) }); err != nil {
			return r.result, err
		}
	}
	if tree.Root != nil {
		if err := r.walk(tree.Root); err != nil {
			return r.result, err
		}
	}
	if err := r.symbols(); err != nil {
		return r.result, err
	}
	if err := r.compilation(d.endActions); err != nil {
		return r.result, err
	}
	return r.result, nil
}

func (r *run) compilation(regs []compilationRegistration) error {
	for _, reg := range regs {
		cc := &CompilationContext{actionContext{ctx: r.ctx, run: r, rule: reg.rule}}
		if err := r.visit(reg.rule, r.tree.Root, func() { reg.action(cc) }); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) walk(n *syntax.Node) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	r.result.Nodes++

	cat := r.d.facade.CategoryOf(n)
	if r.d.symbolCats[cat] {
		r.decls = append(r.decls, n)
	}

	var skipped []*nodeRegistration
	for _, reg := range r.d.nodeActions[cat] {
		if r.skipping[reg] > 0 {
			continue
		}
		nc := &NodeContext{actionContext: actionContext{ctx: r.ctx, run: r, rule: reg.rule}, node: n}
		if err := r.visit(reg.rule, n, func() { reg.action(nc) }); err != nil {
			return err
		}
		if nc.skip {
			skipped = append(skipped, reg)
		}
	}

	for _, reg := range skipped {
		r.skipping[reg]++
	}
	for _, c := range n.Children() {
		if err := r.walk(c); err != nil {
			return err
		}
	}
	for _, reg := range skipped {
		r.skipping[reg]--
	}
	return nil
}

func (r *run) symbols() error {
	for _, n := range r.decls {
		sym, ok := r.d.facade.DeclaredSymbol(n)
		if !ok {
			continue
		}
		cat := r.d.facade.CategoryOf(n)
		for _, reg := range r.d.symbolActions {
			if !containsCategory(reg.categories, cat) {
				continue
			}
			sc := &SymbolContext{actionContext: actionContext{ctx: r.ctx, run: r, rule: reg.rule}, symbol: sym}
			if err := r.visit(reg.rule, n, func() { reg.action(sc) }); err != nil {
				return err
			}
		}
	}
	return nil
}

// visit invokes one callback through safeVisit and checks for cancellation
// once it returns.
func (r *run) visit(rs *ruleState, n *syntax.Node, fn func()) error {
	r.result.Invocations++
	if err := r.safeVisit(rs, n, fn); err != nil {
		return err
	}
	return r.ctx.Err()
}

func containsCategory(cats []syntax.Category, c syntax.Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}
