package analysis

import (
	"context"
	"errors"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// safeVisit runs fn, recovering any panic. Cancellation and configuration
// errors are returned to stop the run. Anything else becomes a RuleFault: it
// is logged, handed to the fault handler and swallowed.
func (r *run) safeVisit(rs *ruleState, n *syntax.Node, fn func()) (err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		err = r.classify(rs, n, v)
	}()
	fn()
	return nil
}

func (r *run) classify(rs *ruleState, n *syntax.Node, v any) error {
	if e, ok := v.(error); ok {
		if errors.Is(e, context.Canceled) || errors.Is(e, context.DeadlineExceeded) {
			return e
		}
		var ce *ConfigError
		if errors.As(e, &ce) {
			return ce
		}
		var de *descriptor.ConfigError
		if errors.As(e, &de) {
			return &ConfigError{RuleID: rs.id, DescriptorID: de.ID, Err: de}
		}
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}

	fault := RuleFault{RuleID: rs.id, Value: v, Stack: debug.Stack()}
	if n != nil {
		fault.Location = n.Location()
	} else {
		fault.Location = syntax.Location{Path: r.tree.Path}
	}
	r.result.Faults = append(r.result.Faults, fault)

	r.d.logger.Warn("rule faulted",
		zap.String("rule", fault.RuleID),
		zap.String("path", fault.Location.Path),
		zap.Int("line", fault.Location.Span.Start.Line),
		zap.Int("column", fault.Location.Span.Start.Column),
		zap.Any("panic", v),
	)
	if r.d.onFault != nil {
		r.d.onFault(fault)
	}
	return nil
}
