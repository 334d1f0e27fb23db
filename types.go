package lintel

import (
	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/config"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/rules"
	"github.com/jward/lintel/internal/store"
	"github.com/jward/lintel/internal/syntax"
)

// Public type aliases for the internal types used by the Engine and
// QueryBuilder API. External consumers use these names; no conversion is
// needed.

type Diagnostic = analysis.Diagnostic
type RuleFault = analysis.RuleFault
type FaultHandler = analysis.FaultHandler
type Rule = analysis.Rule
type RuleFactory = rules.Factory
type Descriptor = descriptor.Descriptor
type Severity = descriptor.Severity
type Location = syntax.Location
type Config = config.Config

type Store = store.Store
type File = store.File
type StoredDiagnostic = store.Diagnostic
type StoredFault = store.Fault
type RuleCount = store.RuleCount

// Severities, re-exported.
const (
	Hidden  = descriptor.Hidden
	Info    = descriptor.Info
	Warning = descriptor.Warning
	Error   = descriptor.Error
)

// LoadConfig reads lintel.toml at path; a missing file yields the defaults.
func LoadConfig(path string) (Config, error) { return config.Load(path) }

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config { return config.Default() }

// ParseSeverity maps a severity name ("hidden", "info", "warning", "error")
// to its constant.
func ParseSeverity(name string) (Severity, error) { return descriptor.ParseSeverity(name) }
