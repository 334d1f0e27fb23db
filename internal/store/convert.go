package store

import (
	"fmt"

	"github.com/jward/lintel/internal/analysis"
)

// FromDiagnostic converts an accepted diagnostic into its stored row.
func FromDiagnostic(fileID int64, d analysis.Diagnostic) Diagnostic {
	span := d.Location.Span
	row := Diagnostic{
		FileID:     fileID,
		Path:       d.Location.Path,
		RuleID:     d.RuleID(),
		Severity:   d.Severity.String(),
		Message:    d.Message,
		StartLine:  span.Start.Line,
		StartCol:   span.Start.Column,
		EndLine:    span.End.Line,
		EndCol:     span.End.Column,
		StartByte:  span.StartByte,
		EndByte:    span.EndByte,
		Properties: d.Properties,
	}
	for i, loc := range d.AdditionalLocations {
		path := loc.Path
		if path == "" {
			path = d.Location.Path
		}
		row.Locations = append(row.Locations, Location{
			Ordinal:   i,
			Path:      path,
			StartLine: loc.Span.Start.Line,
			StartCol:  loc.Span.Start.Column,
			EndLine:   loc.Span.End.Line,
			EndCol:    loc.Span.End.Column,
		})
	}
	return row
}

// FromFault converts an isolated rule fault into its stored row.
func FromFault(fileID int64, f analysis.RuleFault) Fault {
	return Fault{
		FileID: fileID,
		Path:   f.Location.Path,
		RuleID: f.RuleID,
		Line:   f.Location.Span.Start.Line,
		Col:    f.Location.Span.Start.Column,
		Value:  fmt.Sprint(f.Value),
		Stack:  string(f.Stack),
	}
}
