package analysis

import (
	"errors"
	"fmt"

	"github.com/jward/lintel/internal/syntax"
)

// ErrUndeclaredDescriptor is raised when a rule reports a diagnostic whose
// descriptor is not among its SupportedDiagnostics.
var ErrUndeclaredDescriptor = errors.New("descriptor not declared by rule")

// ConfigError is a rule authoring mistake. It aborts the unit being analyzed
// and is never isolated as a fault.
type ConfigError struct {
	RuleID       string
	DescriptorID string
	Err          error
}

func (e *ConfigError) Error() string {
	if e.DescriptorID == "" {
		return fmt.Sprintf("rule %s: %v", e.RuleID, e.Err)
	}
	return fmt.Sprintf("rule %s: descriptor %s: %v", e.RuleID, e.DescriptorID, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// RuleFault records a callback failure that was isolated.
type RuleFault struct {
	RuleID   string
	Location syntax.Location
	Value    any
	Stack    []byte
}

func (f *RuleFault) Error() string {
	return fmt.Sprintf("rule %s faulted at %s: %v", f.RuleID, f.Location, f.Value)
}

// FaultHandler observes isolated faults. It is called synchronously from the
// dispatching goroutine.
type FaultHandler func(RuleFault)
