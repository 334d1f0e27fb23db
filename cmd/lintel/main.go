package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jward/lintel"
	"github.com/jward/lintel/internal/config"
	"github.com/jward/lintel/internal/logging"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// errFindings makes the process exit 1 when error-severity diagnostics were
// reported. The diagnostics themselves are the output.
var errFindings = errors.New("error-severity diagnostics found")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled && !errors.Is(err, errFindings) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "lintel",
	Short:         "Rule-based static analysis for C# and Java",
	Long:          "Lintel parses source files with tree-sitter, runs built-in and scripted rules over them, and stores the diagnostics in a SQLite database.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .lintel/results.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "configuration file (default: lintel.toml in repo root)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-file progress")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(queryCmd)
}

var (
	flagForce      bool
	flagNoDB       bool
	flagJobs       int
	flagLanguages  string
	flagUtility    bool
	flagScriptsDir string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a file or directory",
	Long:  "Runs every enabled rule over the supported files under path and prints the diagnostics. Exits with status 1 when a diagnostic has error severity.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database and analyze every file again")
	analyzeCmd.Flags().BoolVar(&flagNoDB, "no-db", false, "keep results in memory only")
	analyzeCmd.Flags().IntVarP(&flagJobs, "jobs", "j", 0, "units analyzed concurrently (default: [analysis].jobs)")
	analyzeCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. csharp,java)")
	analyzeCmd.Flags().BoolVar(&flagUtility, "utility", false, "also report utility diagnostics such as file metrics")
	analyzeCmd.Flags().StringVar(&flagScriptsDir, "scripts-dir", "", "load scripted rules from disk instead of the embedded copy")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	start := time.Now()

	target, isDir, err := resolveTarget(args)
	if err != nil {
		return outputError(out, errOut, "analyze", err)
	}
	baseDir := target
	if !isDir {
		baseDir = filepath.Dir(target)
	}
	repoRoot := findRepoRoot(baseDir)

	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return outputError(out, errOut, "analyze", err)
	}
	if flagUtility {
		cfg.Analysis.UtilityDiagnostics = true
	}

	logger, err := newLogger()
	if err != nil {
		return outputError(out, errOut, "analyze", err)
	}
	defer logger.Sync()

	opts := []lintel.Option{lintel.WithConfig(cfg), lintel.WithLogger(logger), lintel.WithJobs(flagJobs)}
	if langs := parseLanguages(flagLanguages); len(langs) > 0 {
		opts = append(opts, lintel.WithLanguages(langs...))
	}
	if flagScriptsDir != "" {
		opts = append(opts, lintel.WithScriptsFS(os.DirFS(flagScriptsDir)))
	}

	dbPath := ""
	if !flagNoDB {
		dbPath = resolveDBPath(repoRoot)
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return outputError(out, errOut, "analyze", fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
		}
		if flagForce {
			if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
				return outputError(out, errOut, "analyze", fmt.Errorf("removing database for --force: %w", err))
			}
		}
	}

	engine, err := lintel.New(dbPath, opts...)
	if err != nil {
		return outputError(out, errOut, "analyze", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	ctx := context.Background()
	if isDir {
		err = engine.AnalyzeDirectory(ctx, target)
	} else {
		err = engine.AnalyzeFiles(ctx, []string{target})
	}
	if err != nil {
		return outputError(out, errOut, "analyze", fmt.Errorf("analyzing: %w", err))
	}

	diags, err := collectDiagnostics(engine, target)
	if err != nil {
		return outputError(out, errOut, "analyze", err)
	}
	faults := len(engine.Faults())
	logger.Info("analysis finished",
		zap.String("target", target),
		zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)),
		zap.Int("diagnostics", len(diags)),
		zap.Int("faults", faults),
	)

	total := len(diags)
	if err := outputResult(out, CLIResult{Command: "analyze", Results: diags, TotalCount: &total}); err != nil {
		return err
	}
	if flagFormat == "text" {
		fmt.Fprintf(errOut, "Analyzed %s in %s: %d diagnostics, %d rule faults\n",
			target, time.Since(start).Round(time.Millisecond), total, faults)
	}
	if hasErrors(diags) {
		return errFindings
	}
	return nil
}

// collectDiagnostics returns every stored diagnostic under target, which
// includes files skipped as unchanged. Without a store only this run's
// diagnostics exist.
func collectDiagnostics(engine *lintel.Engine, target string) ([]CLIDiagnostic, error) {
	if engine.Store() == nil {
		live := engine.Diagnostics()
		out := make([]CLIDiagnostic, len(live))
		for i, d := range live {
			out[i] = liveDiagnosticToCLI(d)
		}
		return out, nil
	}
	stored, err := engine.Query().All()
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var under []*lintel.StoredDiagnostic
	for _, d := range stored {
		if within(target, d.Path) {
			under = append(under, d)
		}
	}
	return diagnosticsToCLI(under), nil
}

func liveDiagnosticToCLI(d lintel.Diagnostic) CLIDiagnostic {
	span := d.Location.Span
	out := CLIDiagnostic{
		Rule:       d.RuleID(),
		Severity:   d.Severity.String(),
		Message:    d.Message,
		File:       d.Location.Path,
		StartLine:  span.Start.Line,
		StartCol:   span.Start.Column,
		EndLine:    span.End.Line,
		EndCol:     span.End.Column,
		Properties: d.Properties,
	}
	for _, loc := range d.AdditionalLocations {
		path := loc.Path
		if path == "" {
			path = d.Location.Path
		}
		out.Locations = append(out.Locations, CLILocation{
			File:      path,
			StartLine: loc.Span.Start.Line,
			StartCol:  loc.Span.Start.Column,
			EndLine:   loc.Span.End.Line,
			EndCol:    loc.Span.End.Column,
		})
	}
	return out
}

// within reports whether path is target or lies under it.
func within(target, path string) bool {
	return path == target || strings.HasPrefix(path, target+string(filepath.Separator))
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the available rules",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&flagLanguages, "languages", "", "comma-separated language filter (e.g. csharp,java)")
}

func runRules(cmd *cobra.Command, args []string) error {
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cwd, err := os.Getwd()
	if err != nil {
		return outputError(out, errOut, "rules", fmt.Errorf("getting cwd: %w", err))
	}
	cfg, err := loadConfig(findRepoRoot(cwd))
	if err != nil {
		return outputError(out, errOut, "rules", err)
	}

	opts := []lintel.Option{lintel.WithConfig(cfg)}
	if langs := parseLanguages(flagLanguages); len(langs) > 0 {
		opts = append(opts, lintel.WithLanguages(langs...))
	}
	engine, err := lintel.New("", opts...)
	if err != nil {
		return outputError(out, errOut, "rules", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	byLang, err := engine.Descriptors()
	if err != nil {
		return outputError(out, errOut, "rules", err)
	}
	rules := rulesToCLI(byLang)
	total := len(rules)
	return outputResult(out, CLIResult{Command: "rules", Results: rules, TotalCount: &total})
}

// resolveTarget returns the absolute path to analyze and whether it is a
// directory.
func resolveTarget(args []string) (string, bool, error) {
	p := "."
	if len(args) > 0 {
		p = args[0]
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", false, fmt.Errorf("resolving path %q: %w", p, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", false, fmt.Errorf("path not found: %s", abs)
	}
	return abs, info.IsDir(), nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".lintel", "results.db")
}

// loadConfig reads --config, or lintel.toml in repoRoot when the flag is
// unset. An explicit file must exist.
func loadConfig(repoRoot string) (lintel.Config, error) {
	if flagConfig == "" {
		return config.LoadDir(repoRoot)
	}
	if _, err := os.Stat(flagConfig); err != nil {
		return lintel.Config{}, fmt.Errorf("config: %w", err)
	}
	return config.Load(flagConfig)
}

func newLogger() (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if flagVerbose {
		lvl = zapcore.DebugLevel
	}
	return logging.Config{Level: lvl, Development: true}.New()
}

// parseLanguages splits a comma-separated language list.
func parseLanguages(s string) []string {
	var out []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
