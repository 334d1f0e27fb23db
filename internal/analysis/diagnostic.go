package analysis

import (
	"fmt"
	"sort"

	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// Diagnostic is one finding. Rules build it with NewDiagnostic and hand it to
// ReportIssue; the severity is resolved by the policy on acceptance.
type Diagnostic struct {
	Descriptor          *descriptor.Descriptor
	Message             string
	Severity            descriptor.Severity
	Location            syntax.Location
	AdditionalLocations []syntax.Location
	Properties          map[string]string
}

// NewDiagnostic creates a diagnostic at node, formatting the descriptor's
// message with args.
func NewDiagnostic(d *descriptor.Descriptor, at *syntax.Node, args ...any) Diagnostic {
	var loc syntax.Location
	if at != nil {
		loc = at.Location()
	}
	return NewDiagnosticAt(d, loc, args...)
}

// NewDiagnosticAt is NewDiagnostic for an explicit location.
func NewDiagnosticAt(d *descriptor.Descriptor, loc syntax.Location, args ...any) Diagnostic {
	diag := Diagnostic{Descriptor: d, Location: loc}
	if d != nil {
		diag.Message = d.Message(args...)
		diag.Severity = d.DefaultSeverity
	}
	return diag
}

// WithAdditional returns a copy with the nodes' locations appended as
// secondary locations.
func (d Diagnostic) WithAdditional(nodes ...*syntax.Node) Diagnostic {
	locs := make([]syntax.Location, 0, len(d.AdditionalLocations)+len(nodes))
	locs = append(locs, d.AdditionalLocations...)
	for _, n := range nodes {
		if n != nil {
			locs = append(locs, n.Location())
		}
	}
	d.AdditionalLocations = locs
	return d
}

// WithProperty returns a copy carrying the extra key/value.
func (d Diagnostic) WithProperty(key, value string) Diagnostic {
	props := make(map[string]string, len(d.Properties)+1)
	for k, v := range d.Properties {
		props[k] = v
	}
	props[key] = value
	d.Properties = props
	return d
}

// RuleID returns the descriptor ID, or "" for a diagnostic without one.
func (d Diagnostic) RuleID() string {
	if d.Descriptor == nil {
		return ""
	}
	return d.Descriptor.ID
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Location, d.Severity, d.RuleID(), d.Message)
}

// SortDiagnostics orders diagnostics by path, position and rule ID.
func SortDiagnostics(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Location.Path != b.Location.Path {
			return a.Location.Path < b.Location.Path
		}
		if a.Location.Span.StartByte != b.Location.Span.StartByte {
			return a.Location.Span.StartByte < b.Location.Span.StartByte
		}
		return a.RuleID() < b.RuleID()
	})
}
