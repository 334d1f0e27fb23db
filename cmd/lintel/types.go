package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIDiagnostic is a JSON-friendly diagnostic. Lines and columns are 1-based.
type CLIDiagnostic struct {
	Rule       string            `json:"rule"`
	Severity   string            `json:"severity"`
	Message    string            `json:"message"`
	File       string            `json:"file"`
	StartLine  int               `json:"start_line"`
	StartCol   int               `json:"start_col"`
	EndLine    int               `json:"end_line"`
	EndCol     int               `json:"end_col"`
	Properties map[string]string `json:"properties,omitempty"`
	Locations  []CLILocation     `json:"additional_locations,omitempty"`
}

// CLILocation is a secondary location of a diagnostic.
type CLILocation struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// CLIRule describes one rule across the languages it supports.
type CLIRule struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Category         string   `json:"category,omitempty"`
	Severity         string   `json:"severity"`
	EnabledByDefault bool     `json:"enabled_by_default"`
	Utility          bool     `json:"utility,omitempty"`
	Languages        []string `json:"languages"`
	HelpLink         string   `json:"help_link,omitempty"`
}

// CLIFile is a JSON-friendly analyzed file.
type CLIFile struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Language  string `json:"language"`
	LineCount int    `json:"line_count"`
}

// CLIFault is a JSON-friendly rule fault.
type CLIFault struct {
	Rule  string `json:"rule"`
	File  string `json:"file"`
	Line  int    `json:"line"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

// CLIRuleCount is one row of the per-rule summary.
type CLIRuleCount struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// CLISummary aggregates the stored results.
type CLISummary struct {
	Files       int            `json:"files"`
	Diagnostics int            `json:"diagnostics"`
	Errors      int            `json:"errors"`
	Faults      int            `json:"faults"`
	Rules       []CLIRuleCount `json:"rules"`
}
