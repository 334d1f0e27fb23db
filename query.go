package lintel

import (
	"errors"
	"fmt"

	"github.com/jward/lintel/internal/store"
)

// ErrNoStore is returned by queries on an Engine created without a database.
var ErrNoStore = errors.New("lintel: engine has no result store")

// QueryBuilder provides read access to stored analysis results.
type QueryBuilder struct {
	store *store.Store
}

// DiagnosticsByFile returns the stored diagnostics of the file at path in
// position order, or nil if the file was never analyzed.
func (q *QueryBuilder) DiagnosticsByFile(path string) ([]*StoredDiagnostic, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	f, err := q.store.FileByPath(path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics by file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	return q.store.DiagnosticsByFile(f.ID)
}

// DiagnosticsByRule returns every stored diagnostic raised by rule id.
func (q *QueryBuilder) DiagnosticsByRule(id string) ([]*StoredDiagnostic, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	return q.store.DiagnosticsByRule(id)
}

// DiagnosticsBySeverity returns stored diagnostics of the given severities.
func (q *QueryBuilder) DiagnosticsBySeverity(severities ...Severity) ([]*StoredDiagnostic, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	names := make([]string, len(severities))
	for i, s := range severities {
		names[i] = s.String()
	}
	return q.store.DiagnosticsBySeverity(names...)
}

// All returns every stored diagnostic.
func (q *QueryBuilder) All() ([]*StoredDiagnostic, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	return q.store.AllDiagnostics()
}

// RuleCounts summarizes stored diagnostics per rule and severity.
func (q *QueryBuilder) RuleCounts() ([]RuleCount, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	return q.store.RuleCounts()
}

// Faults returns stored rule faults, optionally restricted to rule IDs.
func (q *QueryBuilder) Faults(ruleIDs ...string) ([]*StoredFault, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	return q.store.Faults(ruleIDs...)
}

// Files returns every analyzed file.
func (q *QueryBuilder) Files() ([]*File, error) {
	if q.store == nil {
		return nil, ErrNoStore
	}
	return q.store.Files()
}

// ErrorCount returns how many stored diagnostics have error severity.
func (q *QueryBuilder) ErrorCount() (int, error) {
	if q.store == nil {
		return 0, ErrNoStore
	}
	return q.store.CountDiagnostics(Error.String())
}

// NewQueryBuilder returns a QueryBuilder over an already open store.
func NewQueryBuilder(s *Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}
