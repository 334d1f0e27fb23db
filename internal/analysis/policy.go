package analysis

import (
	"strings"

	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/syntax"
)

// Policy decides what happens to a reported diagnostic: whether its rule is
// enabled, its effective severity and whether its location suppresses it.
type Policy interface {
	Enabled(d *descriptor.Descriptor) bool
	Severity(d *descriptor.Descriptor) descriptor.Severity
	Suppressed(d *descriptor.Descriptor, loc syntax.Location, tree *syntax.Tree) bool
}

// DefaultPolicy applies descriptor defaults and NOSONAR suppression. Utility
// descriptors are enabled only when UtilityDiagnostics is set.
type DefaultPolicy struct {
	UtilityDiagnostics bool
}

func (p DefaultPolicy) Enabled(d *descriptor.Descriptor) bool {
	if d.Utility {
		return p.UtilityDiagnostics
	}
	return d.EnabledByDefault
}

func (DefaultPolicy) Severity(d *descriptor.Descriptor) descriptor.Severity { return d.DefaultSeverity }

func (DefaultPolicy) Suppressed(d *descriptor.Descriptor, loc syntax.Location, tree *syntax.Tree) bool {
	return !d.Utility && NoSonar(tree, loc.Span.Start.Line)
}

const noSonarMarker = "NOSONAR"

// NoSonar reports whether the given line carries a NOSONAR marker inside a
// comment.
func NoSonar(tree *syntax.Tree, line int) bool {
	if tree == nil {
		return false
	}
	text := tree.Line(line)
	idx := strings.Index(text, noSonarMarker)
	if idx < 0 {
		return false
	}
	before := text[:idx]
	if strings.Contains(before, "//") || strings.Contains(before, "/*") {
		return true
	}
	return strings.HasPrefix(strings.TrimSpace(before), "*")
}
