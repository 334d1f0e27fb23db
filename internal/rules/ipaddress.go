package rules

import (
	"net/netip"
	"strings"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/syntax"
)

// HardcodedIPAddress flags string literals holding an IP address.
type HardcodedIPAddress struct {
	rule *descriptor.Descriptor
}

// Variables whose name contains one of these hold version numbers, not
// addresses.
var ignoredVariableNames = []string{"version", "assembly"}

var documentationRanges = []netip.Prefix{
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("2001:db8::/32"),
}

var broadcast = netip.MustParseAddr("255.255.255.255")

func NewHardcodedIPAddress(b *descriptor.Builder) (analysis.Rule, error) {
	d, err := b.Rule("S1313", "Make sure using this hardcoded IP address '%s' is safe here.")
	if err != nil {
		return nil, err
	}
	return &HardcodedIPAddress{rule: d}, nil
}

func (r *HardcodedIPAddress) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{r.rule}
}

func (r *HardcodedIPAddress) Initialize(c *analysis.Context) {
	c.RegisterNodeAction(func(nc *analysis.NodeContext) {
		f := nc.Facade()
		lit := nc.Node()
		value, ok := f.StringValue(lit)
		if !ok || !sensitiveAddress(value) {
			return
		}
		if f.FindEnclosing(lit, func(n *syntax.Node) bool { return f.CategoryOf(n) == syntax.Attribute }) != nil {
			return
		}
		variable := assignedVariableName(f, lit)
		lower := strings.ToLower(variable)
		for _, ignored := range ignoredVariableNames {
			if strings.Contains(lower, ignored) {
				return
			}
		}
		diag := analysis.NewDiagnostic(r.rule, lit, value)
		if variable != "" {
			diag = diag.WithProperty("variable", variable)
		}
		nc.ReportIssue(diag)
	}, syntax.StringLiteral)
}

// sensitiveAddress reports whether s parses as an IP address that is not
// loopback, unspecified, broadcast or reserved for documentation. IPv4
// addresses must be written as four dotted parts.
func sensitiveAddress(s string) bool {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return false
	}
	if addr.Is4() && strings.Count(s, ".") != 3 {
		return false
	}
	if addr.IsLoopback() || addr.IsUnspecified() || addr == broadcast {
		return false
	}
	for _, p := range documentationRanges {
		if p.Contains(addr.Unmap()) {
			return false
		}
	}
	return true
}

// assignedVariableName returns the name of the variable, parameter or
// assignment target receiving lit, if any.
func assignedVariableName(f lang.Facade, lit *syntax.Node) string {
	holder := f.FindEnclosing(lit, func(n *syntax.Node) bool {
		switch f.CategoryOf(n) {
		case syntax.VariableDeclarator, syntax.Parameter, syntax.Assignment:
			return true
		}
		return false
	})
	if holder == nil {
		return ""
	}
	var name *syntax.Node
	switch f.CategoryOf(holder) {
	case syntax.Assignment:
		name = holder.ChildByField("left")
	default:
		name = holder.ChildByField("name")
		if name == nil {
			name = holder.FirstChildOfKind("identifier")
		}
	}
	if name == nil {
		return ""
	}
	return name.Text()
}
