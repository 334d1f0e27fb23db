package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/lintel"
	"github.com/jward/lintel/internal/store"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored analysis results",
	Long:  "Read diagnostics from the database written by 'lintel analyze'. All line and column numbers are 1-based.",
}

func init() {
	queryCmd.AddCommand(queryFileCmd)
	queryCmd.AddCommand(queryRuleCmd)
	queryCmd.AddCommand(querySeverityCmd)
	queryCmd.AddCommand(querySummaryCmd)
	queryCmd.AddCommand(queryFilesCmd)
	queryCmd.AddCommand(queryFaultsCmd)
}

// openStore opens the Store from the --db flag path (or default).
func openStore() (*store.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'lintel analyze' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// withQuery opens the store, hands a QueryBuilder to fn and writes the result
// it returns.
func withQuery(cmd *cobra.Command, command string, fn func(q *lintel.QueryBuilder) (CLIResult, error)) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	s, err := openStore()
	if err != nil {
		return outputError(out, errOut, command, err)
	}
	defer s.Close()

	result, err := fn(lintel.NewQueryBuilder(s))
	if err != nil {
		return outputError(out, errOut, command, err)
	}
	result.Command = command
	return outputResult(out, result)
}

func diagnosticsResult(ds []*lintel.StoredDiagnostic) CLIResult {
	total := len(ds)
	return CLIResult{Results: diagnosticsToCLI(ds), TotalCount: &total}
}

var queryFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Diagnostics of one file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "file", func(q *lintel.QueryBuilder) (CLIResult, error) {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return CLIResult{}, fmt.Errorf("resolving file path %q: %w", args[0], err)
			}
			ds, err := q.DiagnosticsByFile(path)
			if err != nil {
				return CLIResult{}, err
			}
			return diagnosticsResult(ds), nil
		})
	},
}

var queryRuleCmd = &cobra.Command{
	Use:   "rule <id>",
	Short: "Diagnostics raised by one rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "rule", func(q *lintel.QueryBuilder) (CLIResult, error) {
			ds, err := q.DiagnosticsByRule(args[0])
			if err != nil {
				return CLIResult{}, err
			}
			return diagnosticsResult(ds), nil
		})
	},
}

var querySeverityCmd = &cobra.Command{
	Use:   "severity <level>...",
	Short: "Diagnostics of the given severities (hidden, info, warning, error)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "severity", func(q *lintel.QueryBuilder) (CLIResult, error) {
			sevs, err := parseSeverities(args)
			if err != nil {
				return CLIResult{}, err
			}
			ds, err := q.DiagnosticsBySeverity(sevs...)
			if err != nil {
				return CLIResult{}, err
			}
			return diagnosticsResult(ds), nil
		})
	},
}

var querySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Diagnostic counts per rule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "summary", func(q *lintel.QueryBuilder) (CLIResult, error) {
			s, err := summarize(q)
			if err != nil {
				return CLIResult{}, err
			}
			return CLIResult{Results: s}, nil
		})
	},
}

var queryFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List analyzed files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "files", func(q *lintel.QueryBuilder) (CLIResult, error) {
			files, err := q.Files()
			if err != nil {
				return CLIResult{}, err
			}
			total := len(files)
			return CLIResult{Results: filesToCLI(files), TotalCount: &total}, nil
		})
	},
}

var queryFaultsCmd = &cobra.Command{
	Use:   "faults [rule-id...]",
	Short: "List isolated rule faults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withQuery(cmd, "faults", func(q *lintel.QueryBuilder) (CLIResult, error) {
			faults, err := q.Faults(args...)
			if err != nil {
				return CLIResult{}, err
			}
			total := len(faults)
			return CLIResult{Results: faultsToCLI(faults), TotalCount: &total}, nil
		})
	},
}

func summarize(q *lintel.QueryBuilder) (CLISummary, error) {
	var s CLISummary
	files, err := q.Files()
	if err != nil {
		return s, err
	}
	s.Files = len(files)

	counts, err := q.RuleCounts()
	if err != nil {
		return s, err
	}
	s.Rules = make([]CLIRuleCount, len(counts))
	for i, rc := range counts {
		s.Rules[i] = CLIRuleCount{Rule: rc.RuleID, Severity: rc.Severity, Count: rc.Count}
		s.Diagnostics += rc.Count
	}

	if s.Errors, err = q.ErrorCount(); err != nil {
		return s, err
	}
	faults, err := q.Faults()
	if err != nil {
		return s, err
	}
	s.Faults = len(faults)
	return s, nil
}

func parseSeverities(names []string) ([]lintel.Severity, error) {
	out := make([]lintel.Severity, 0, len(names))
	for _, n := range names {
		s, err := lintel.ParseSeverity(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
