package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// InsertDiagnostic inserts d and its secondary locations, setting d.ID.
func (s *Store) InsertDiagnostic(d *Diagnostic) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic: begin: %w", err)
	}
	defer tx.Rollback()

	id, err := insertDiagnosticTx(tx, d)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert diagnostic: commit: %w", err)
	}
	d.ID = id
	return id, nil
}

// InsertFault inserts f and sets f.ID.
func (s *Store) InsertFault(f *Fault) (int64, error) {
	id, err := insertFaultTx(s.db, f)
	if err != nil {
		return 0, err
	}
	f.ID = id
	return id, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertDiagnosticTx(tx *sql.Tx, d *Diagnostic) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO diagnostics (file_id, rule_id, severity, message, start_line, start_col, end_line, end_col, start_byte, end_byte, properties)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.RuleID, d.Severity, d.Message,
		d.StartLine, d.StartCol, d.EndLine, d.EndCol, d.StartByte, d.EndByte,
		marshalProperties(d.Properties),
	)
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic %s: %w", d.RuleID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert diagnostic %s: %w", d.RuleID, err)
	}
	for i, loc := range d.Locations {
		if _, err := tx.Exec(
			`INSERT INTO diagnostic_locations (diagnostic_id, ordinal, path, start_line, start_col, end_line, end_col)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, loc.Path, loc.StartLine, loc.StartCol, loc.EndLine, loc.EndCol,
		); err != nil {
			return 0, fmt.Errorf("insert diagnostic location: %w", err)
		}
	}
	return id, nil
}

func insertFaultTx(x execer, f *Fault) (int64, error) {
	res, err := x.Exec(
		"INSERT INTO rule_faults (file_id, rule_id, line, col, value, stack) VALUES (?, ?, ?, ?, ?, ?)",
		f.FileID, f.RuleID, f.Line, f.Col, f.Value, f.Stack,
	)
	if err != nil {
		return 0, fmt.Errorf("insert fault %s: %w", f.RuleID, err)
	}
	return res.LastInsertId()
}

const diagnosticColumns = `d.id, d.file_id, f.path, d.rule_id, d.severity, d.message,
	d.start_line, d.start_col, d.end_line, d.end_col, d.start_byte, d.end_byte, d.properties`

const diagnosticOrder = " ORDER BY f.path, d.start_byte, d.rule_id"

// DiagnosticsByFile returns a file's diagnostics in document order.
func (s *Store) DiagnosticsByFile(fileID int64) ([]*Diagnostic, error) {
	return s.queryDiagnostics(
		"SELECT "+diagnosticColumns+" FROM diagnostics d JOIN files f ON f.id = d.file_id WHERE d.file_id = ?"+diagnosticOrder,
		fileID,
	)
}

// DiagnosticsByRule returns every diagnostic raised by ruleID.
func (s *Store) DiagnosticsByRule(ruleID string) ([]*Diagnostic, error) {
	return s.queryDiagnostics(
		"SELECT "+diagnosticColumns+" FROM diagnostics d JOIN files f ON f.id = d.file_id WHERE d.rule_id = ?"+diagnosticOrder,
		ruleID,
	)
}

// DiagnosticsBySeverity returns every diagnostic whose stored severity is
// one of severities.
func (s *Store) DiagnosticsBySeverity(severities ...string) ([]*Diagnostic, error) {
	if len(severities) == 0 {
		return nil, nil
	}
	args := make([]any, len(severities))
	for i, sev := range severities {
		args[i] = sev
	}
	return s.queryDiagnostics(
		"SELECT "+diagnosticColumns+" FROM diagnostics d JOIN files f ON f.id = d.file_id WHERE d.severity IN ("+
			placeholderList(len(severities))+")"+diagnosticOrder,
		args...,
	)
}

// AllDiagnostics returns every stored diagnostic.
func (s *Store) AllDiagnostics() ([]*Diagnostic, error) {
	return s.queryDiagnostics(
		"SELECT " + diagnosticColumns + " FROM diagnostics d JOIN files f ON f.id = d.file_id" + diagnosticOrder,
	)
}

func (s *Store) queryDiagnostics(query string, args ...any) ([]*Diagnostic, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	defer rows.Close()

	var diags []*Diagnostic
	byID := make(map[int64]*Diagnostic)
	for rows.Next() {
		d := &Diagnostic{}
		var props string
		if err := rows.Scan(
			&d.ID, &d.FileID, &d.Path, &d.RuleID, &d.Severity, &d.Message,
			&d.StartLine, &d.StartCol, &d.EndLine, &d.EndCol, &d.StartByte, &d.EndByte, &props,
		); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.Properties = unmarshalProperties(props)
		diags = append(diags, d)
		byID[d.ID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query diagnostics: %w", err)
	}
	if err := s.loadLocations(byID); err != nil {
		return nil, err
	}
	return diags, nil
}

func (s *Store) loadLocations(byID map[int64]*Diagnostic) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := s.db.Query(
		`SELECT diagnostic_id, ordinal, path, start_line, start_col, end_line, end_col
		 FROM diagnostic_locations WHERE diagnostic_id IN (`+placeholderList(len(ids))+`)
		 ORDER BY diagnostic_id, ordinal`,
		int64sToArgs(ids)...,
	)
	if err != nil {
		return fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.DiagnosticID, &loc.Ordinal, &loc.Path,
			&loc.StartLine, &loc.StartCol, &loc.EndLine, &loc.EndCol); err != nil {
			return fmt.Errorf("scan location: %w", err)
		}
		d := byID[loc.DiagnosticID]
		d.Locations = append(d.Locations, loc)
	}
	return rows.Err()
}

// RuleCounts aggregates diagnostics by rule and severity, most frequent first.
func (s *Store) RuleCounts() ([]RuleCount, error) {
	rows, err := s.db.Query(
		`SELECT rule_id, severity, COUNT(*) AS n FROM diagnostics
		 GROUP BY rule_id, severity ORDER BY n DESC, rule_id, severity`,
	)
	if err != nil {
		return nil, fmt.Errorf("rule counts: %w", err)
	}
	defer rows.Close()
	var counts []RuleCount
	for rows.Next() {
		var rc RuleCount
		if err := rows.Scan(&rc.RuleID, &rc.Severity, &rc.Count); err != nil {
			return nil, fmt.Errorf("rule counts: scan: %w", err)
		}
		counts = append(counts, rc)
	}
	return counts, rows.Err()
}

// Faults returns recorded rule faults, optionally restricted to ruleIDs.
func (s *Store) Faults(ruleIDs ...string) ([]*Fault, error) {
	query := `SELECT r.id, r.file_id, f.path, r.rule_id, r.line, r.col, r.value, r.stack
		FROM rule_faults r JOIN files f ON f.id = r.file_id`
	var args []any
	if len(ruleIDs) > 0 {
		query += " WHERE r.rule_id IN (" + placeholderList(len(ruleIDs)) + ")"
		for _, id := range ruleIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY f.path, r.line, r.col"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("faults: %w", err)
	}
	defer rows.Close()
	var faults []*Fault
	for rows.Next() {
		f := &Fault{}
		if err := rows.Scan(&f.ID, &f.FileID, &f.Path, &f.RuleID, &f.Line, &f.Col, &f.Value, &f.Stack); err != nil {
			return nil, fmt.Errorf("faults: scan: %w", err)
		}
		faults = append(faults, f)
	}
	return faults, rows.Err()
}

// CountDiagnostics returns the number of stored diagnostics whose severity
// is one of severities, or all of them when none are given.
func (s *Store) CountDiagnostics(severities ...string) (int, error) {
	query := "SELECT COUNT(*) FROM diagnostics"
	args := make([]any, 0, len(severities))
	if len(severities) > 0 {
		query += " WHERE severity IN (" + placeholderList(len(severities)) + ")"
		for _, sev := range severities {
			args = append(args, strings.ToLower(sev))
		}
	}
	var n int
	if err := s.db.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count diagnostics: %w", err)
	}
	return n, nil
}
