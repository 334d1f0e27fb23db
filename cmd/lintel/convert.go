package main

import (
	"sort"

	"github.com/jward/lintel"
)

func diagnosticToCLI(d *lintel.StoredDiagnostic) CLIDiagnostic {
	out := CLIDiagnostic{
		Rule:       d.RuleID,
		Severity:   d.Severity,
		Message:    d.Message,
		File:       d.Path,
		StartLine:  d.StartLine,
		StartCol:   d.StartCol,
		EndLine:    d.EndLine,
		EndCol:     d.EndCol,
		Properties: d.Properties,
	}
	for _, loc := range d.Locations {
		out.Locations = append(out.Locations, CLILocation{
			File:      loc.Path,
			StartLine: loc.StartLine,
			StartCol:  loc.StartCol,
			EndLine:   loc.EndLine,
			EndCol:    loc.EndCol,
		})
	}
	return out
}

func diagnosticsToCLI(ds []*lintel.StoredDiagnostic) []CLIDiagnostic {
	out := make([]CLIDiagnostic, len(ds))
	for i, d := range ds {
		out[i] = diagnosticToCLI(d)
	}
	return out
}

func faultsToCLI(fs []*lintel.StoredFault) []CLIFault {
	out := make([]CLIFault, len(fs))
	for i, f := range fs {
		out[i] = CLIFault{Rule: f.RuleID, File: f.Path, Line: f.Line, Col: f.Col, Value: f.Value}
	}
	return out
}

func filesToCLI(fs []*lintel.File) []CLIFile {
	out := make([]CLIFile, len(fs))
	for i, f := range fs {
		out[i] = CLIFile{ID: f.ID, Path: f.Path, Language: f.Language, LineCount: f.LineCount}
	}
	return out
}

// rulesToCLI merges per-language descriptors into one entry per rule ID,
// sorted by ID.
func rulesToCLI(byLang map[string][]*lintel.Descriptor) []CLIRule {
	byID := make(map[string]*CLIRule)
	langs := make([]string, 0, len(byLang))
	for l := range byLang {
		langs = append(langs, l)
	}
	sort.Strings(langs)

	for _, l := range langs {
		for _, d := range byLang[l] {
			r, ok := byID[d.ID]
			if !ok {
				r = &CLIRule{
					ID:               d.ID,
					Title:            d.Title,
					Category:         d.Category,
					Severity:         d.DefaultSeverity.String(),
					EnabledByDefault: d.EnabledByDefault,
					Utility:          d.Utility,
					HelpLink:         d.HelpLink,
				}
				byID[d.ID] = r
			}
			r.Languages = append(r.Languages, l)
		}
	}

	out := make([]CLIRule, 0, len(byID))
	for _, r := range byID {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// hasErrors reports whether any diagnostic has error severity.
func hasErrors(ds []CLIDiagnostic) bool {
	for _, d := range ds {
		if d.Severity == lintel.Error.String() {
			return true
		}
	}
	return false
}
