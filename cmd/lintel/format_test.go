package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/lintel"
	"github.com/jward/lintel/internal/descriptor"
)

func init() {
	color.NoColor = true
}

func TestFormatDiagnosticsText(t *testing.T) {
	var buf bytes.Buffer
	formatDiagnosticsText(&buf, []CLIDiagnostic{{
		Rule: "S1656", Severity: "warning", Message: "Remove or correct this useless self-assignment.",
		File: "/src/C.cs", StartLine: 3, StartCol: 9,
		Locations: []CLILocation{{File: "/src/C.cs", StartLine: 3, StartCol: 13}},
	}})
	assert.Equal(t,
		"/src/C.cs:3:9: warning S1656: Remove or correct this useless self-assignment.\n"+
			"    see /src/C.cs:3:13\n",
		buf.String())
}

func TestFormatSummaryText(t *testing.T) {
	var buf bytes.Buffer
	formatSummaryText(&buf, CLISummary{
		Files: 2, Diagnostics: 3, Errors: 1,
		Rules: []CLIRuleCount{{Rule: "S1656", Severity: "error", Count: 1}, {Rule: "S1135", Severity: "warning", Count: 2}},
	})
	out := buf.String()
	assert.Contains(t, out, "Files: 2\n")
	assert.Contains(t, out, "Diagnostics: 3 (1 errors)\n")
	assert.Contains(t, out, "S1656")
}

func TestOutputResultText_UnsupportedType(t *testing.T) {
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Results: 42})
	assert.Error(t, err)
}

func TestSeverityColor(t *testing.T) {
	assert.Same(t, errorColor, severityColor("error"))
	assert.Same(t, warningColor, severityColor("warning"))
	assert.Same(t, infoColor, severityColor("info"))
	assert.Same(t, hiddenColor, severityColor("hidden"))
}

func TestRulesToCLI(t *testing.T) {
	d := &lintel.Descriptor{ID: "S1656", Title: "Self assignment", DefaultSeverity: descriptor.Warning, EnabledByDefault: true}
	pinvoke := &lintel.Descriptor{ID: "S4214", Title: "P/Invoke", DefaultSeverity: descriptor.Warning}
	rules := rulesToCLI(map[string][]*lintel.Descriptor{
		"java":   {d},
		"csharp": {pinvoke, d},
	})
	require.Len(t, rules, 2)
	assert.Equal(t, "S1656", rules[0].ID)
	assert.Equal(t, []string{"csharp", "java"}, rules[0].Languages)
	assert.Equal(t, "warning", rules[0].Severity)
	assert.Equal(t, []string{"csharp"}, rules[1].Languages)

	var buf bytes.Buffer
	formatRulesText(&buf, rules)
	assert.Contains(t, buf.String(), "S4214")
	assert.Contains(t, buf.String(), "off")
}
