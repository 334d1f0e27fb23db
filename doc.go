// Package lintel is a static-analysis rule engine for C# and Java. Source
// files are parsed with tree-sitter and lowered into a language-neutral
// syntax tree; independent rules subscribe to abstract node categories and
// report diagnostics described by metadata-driven descriptors.
//
// # Pipeline
//
// For each compilation unit the engine:
//
//  1. Parses the file and picks the language facade for it.
//  2. Creates fresh rule instances and initializes those the configuration
//     enables. Each rule registers node, tree, symbol or compilation
//     actions.
//  3. Walks the tree once, invoking every subscribed action. A panicking
//     rule is isolated: the fault is logged and the walk continues.
//  4. Filters diagnostics through the policy (activation, NOSONAR
//     suppression, severity overrides) and hands them to the sink.
//
// Units run in parallel; a single writer commits each unit's results to
// SQLite, and unchanged files are skipped on the next run.
//
// # Usage
//
//	cfg, err := lintel.LoadConfig("lintel.toml")
//	if err != nil { ... }
//	e, err := lintel.New(".lintel/results.db", lintel.WithConfig(cfg))
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.AnalyzeDirectory(ctx, "path/to/project")
//	for _, d := range e.Diagnostics() {
//		fmt.Println(d)
//	}
//
//	counts, err := e.Query().RuleCounts()
//
// # Rules
//
// Built-in rules live in internal/rules; rules written as Risor scripts are
// listed in scripts/rules/manifest.yaml. Additional Go rules can be added
// with [WithRules].
package lintel
