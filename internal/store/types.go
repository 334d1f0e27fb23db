package store

import "time"

type File struct {
	ID           int64
	Path         string
	Language     string
	Hash         string
	LineCount    int
	LastAnalyzed time.Time
}

// Diagnostic is a persisted finding. Path is filled from the owning file on
// reads and ignored on writes.
type Diagnostic struct {
	ID         int64
	FileID     int64
	Path       string
	RuleID     string
	Severity   string
	Message    string
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
	StartByte  int
	EndByte    int
	Properties map[string]string
	Locations  []Location
}

// Location is a secondary location of a diagnostic.
type Location struct {
	DiagnosticID int64
	Ordinal      int
	Path         string
	StartLine    int
	StartCol     int
	EndLine      int
	EndCol       int
}

// Fault is a persisted rule fault: a rule callback panicked and the
// dispatcher isolated it.
type Fault struct {
	ID     int64
	FileID int64
	Path   string
	RuleID string
	Line   int
	Col    int
	Value  string
	Stack  string
}

// RuleCount aggregates diagnostics per rule and severity.
type RuleCount struct {
	RuleID   string
	Severity string
	Count    int
}
