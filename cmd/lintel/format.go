package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
	hiddenColor  = color.New(color.Faint)
	locColor     = color.New(color.Bold)
	ruleColor    = color.New(color.FgMagenta)
)

func severityColor(sev string) *color.Color {
	switch sev {
	case "error":
		return errorColor
	case "warning":
		return warningColor
	case "info":
		return infoColor
	default:
		return hiddenColor
	}
}

// formatDiagnosticsText writes one "file:line:col: severity rule: message"
// line per diagnostic, followed by its additional locations.
func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			locColor.Sprintf("%s:%d:%d", d.File, d.StartLine, d.StartCol),
			severityColor(d.Severity).Sprint(d.Severity),
			ruleColor.Sprint(d.Rule),
			d.Message,
		)
		for _, loc := range d.Locations {
			fmt.Fprintf(w, "    see %s:%d:%d\n", loc.File, loc.StartLine, loc.StartCol)
		}
	}
}

// formatRulesText formats CLIRule results as aligned columns.
func formatRulesText(w io.Writer, rules []CLIRule) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tDEFAULT\tLANGUAGES\tTITLE")
	for _, r := range rules {
		def := "on"
		if !r.EnabledByDefault {
			def = "off"
		}
		if r.Utility {
			def = "utility"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Severity, def, strings.Join(r.Languages, ","), r.Title)
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tLANGUAGE\tLINES")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", f.ID, f.Path, f.Language, f.LineCount)
	}
	tw.Flush()
}

// formatFaultsText formats CLIFault results one per line.
func formatFaultsText(w io.Writer, faults []CLIFault) {
	for _, f := range faults {
		fmt.Fprintf(w, "%s: %s faulted: %s\n",
			locColor.Sprintf("%s:%d:%d", f.File, f.Line, f.Col), ruleColor.Sprint(f.Rule), f.Value)
	}
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, s CLISummary) {
	fmt.Fprintln(w, "Analysis Summary")
	fmt.Fprintln(w, "================")
	fmt.Fprintf(w, "Files: %d\n", s.Files)
	fmt.Fprintf(w, "Diagnostics: %d (%s)\n", s.Diagnostics, errorColor.Sprintf("%d errors", s.Errors))
	fmt.Fprintf(w, "Rule faults: %d\n", s.Faults)
	if len(s.Rules) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "By Rule:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, rc := range s.Rules {
		fmt.Fprintf(tw, "  %s\t%s\t%d\n", rc.Rule, severityColor(rc.Severity).Sprint(rc.Severity), rc.Count)
	}
	tw.Flush()
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v)
	case []CLIRule:
		formatRulesText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case []CLIFault:
		formatFaultsText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes result to w in the selected format.
func outputResult(w io.Writer, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to cobra. In JSON mode the error is written to w as a
// CLIResult envelope. In text mode it goes to errW.
func outputError(w, errW io.Writer, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(errW, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
