package lintel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/config"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/logging"
	"github.com/jward/lintel/internal/store"
	"github.com/jward/lintel/internal/syntax"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	e, err := New(dbPath, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func writeFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func rulesOf(ds []Diagnostic) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.RuleID())
	}
	return out
}

// commentRule is a Go rule registered through WithRules. It reports every
// comment and panics on comments containing "boom".
type commentRule struct {
	d *descriptor.Descriptor
}

func newCommentRule(b *descriptor.Builder) (analysis.Rule, error) {
	d, err := b.Rule("S1135", "Complete the task associated to this 'TODO' comment.")
	if err != nil {
		return nil, err
	}
	return &commentRule{d: d}, nil
}

func (r *commentRule) SupportedDiagnostics() []*descriptor.Descriptor {
	return []*descriptor.Descriptor{r.d}
}

func (r *commentRule) Initialize(c *analysis.Context) {
	c.RegisterNodeAction(func(nc *analysis.NodeContext) {
		if strings.Contains(nc.Node().Text(), "boom") {
			panic("comment exploded")
		}
		nc.ReportIssue(analysis.NewDiagnostic(r.d, nc.Node()))
	}, syntax.Comment)
}

const selfAssign = `class C {
    void M(int x) {
        x = x;
    }
}
`

func TestNew_CreatesStoreAndCatalog(t *testing.T) {
	e := newTestEngine(t)

	require.NotNil(t, e.Store())
	assert.Contains(t, e.catalog.IDs(), "S1656")
	assert.Contains(t, e.catalog.IDs(), "S1135", "scripted rules are registered")

	_, err := e.Store().InsertFile(&store.File{Path: "/tmp/A.cs", Language: "csharp"})
	require.NoError(t, err, "migration ran")
}

func TestNew_InMemory(t *testing.T) {
	e, err := New("")
	require.NoError(t, err)
	defer e.Close()

	assert.Nil(t, e.Store())
	_, err = e.Query().RuleCounts()
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/dir/db.sqlite")
	require.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Mode = "fast"
	_, err := New("", WithConfig(cfg))
	require.Error(t, err)
}

func TestNew_RuleWithoutResourcesFails(t *testing.T) {
	factory := func(b *descriptor.Builder) (analysis.Rule, error) {
		d, err := b.Rule("X0001", "never")
		if err != nil {
			return nil, err
		}
		return &commentRule{d: d}, nil
	}
	_, err := New("", WithRules(RuleSpec{ID: "X0001", Factory: factory}))
	require.Error(t, err)
	var cfgErr *descriptor.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, descriptor.ErrMissingResource)
}

func TestNew_RuleSpecNeedsFactory(t *testing.T) {
	_, err := New("", WithRules(RuleSpec{ID: "S1656"}))
	require.Error(t, err)
}

func TestNew_InvalidManifest(t *testing.T) {
	fsys := fstest.MapFS{
		"rules/manifest.yaml": {Data: []byte("rules:\n  - id: S1135\n")},
	}
	_, err := New("", WithScriptsFS(fsys))
	require.Error(t, err)
}

func TestWithLanguages(t *testing.T) {
	e := newTestEngine(t, WithLanguages("java"))

	assert.True(t, e.languageEnabled("java"))
	assert.False(t, e.languageEnabled("csharp"))
	assert.Equal(t, []string{"java"}, e.languageList())

	diags, err := e.AnalyzeSource(context.Background(), "C.cs", []byte(selfAssign))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestWithLanguages_OverridesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.Languages = []string{"java"}
	e := newTestEngine(t, WithConfig(cfg), WithLanguages("csharp"))
	assert.True(t, e.languageEnabled("csharp"))
	assert.False(t, e.languageEnabled("java"))
}

func TestWithJobs(t *testing.T) {
	assert.Equal(t, 3, newTestEngine(t, WithJobs(3)).jobs)

	cfg := config.Default()
	cfg.Analysis.Jobs = 2
	assert.Equal(t, 2, newTestEngine(t, WithConfig(cfg)).jobs)
}

func TestDescriptors(t *testing.T) {
	e := newTestEngine(t)
	byLang, err := e.Descriptors()
	require.NoError(t, err)

	ids := func(ds []*Descriptor) []string {
		var out []string
		for _, d := range ds {
			out = append(out, d.ID)
		}
		return out
	}
	assert.Contains(t, ids(byLang["csharp"]), "S4214")
	assert.Contains(t, ids(byLang["csharp"]), "S1134")
	assert.NotContains(t, ids(byLang["java"]), "S4214")
}

func TestAnalyzeSource(t *testing.T) {
	e := newTestEngine(t)
	diags, err := e.AnalyzeSource(context.Background(), "C.cs", []byte(selfAssign))
	require.NoError(t, err)

	require.Equal(t, []string{"S1656"}, rulesOf(diags))
	assert.Equal(t, 3, diags[0].Location.Span.Start.Line)
	assert.Equal(t, Warning, diags[0].Severity)

	files, err := e.Query().Files()
	require.NoError(t, err)
	assert.Empty(t, files, "AnalyzeSource does not store results")
	assert.Len(t, e.Diagnostics(), 1)
}

func TestAnalyzeSource_Unsupported(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.AnalyzeSource(context.Background(), "notes.txt", []byte("x = x"))
	assert.ErrorIs(t, err, lang.ErrUnsupportedLanguage)
}

func TestAnalyzeSource_Policy(t *testing.T) {
	cfg, err := config.Parse(`
[rules]
disable = ["S1656"]
enable = ["S1135"]
`)
	require.NoError(t, err)
	e := newTestEngine(t, WithConfig(cfg))

	src := "class C {\n    void M(int x) { x = x; } // TODO later\n}\n"
	diags, err := e.AnalyzeSource(context.Background(), "C.cs", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"S1135"}, rulesOf(diags))
}

func TestAnalyzeFiles_StoresResults(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "C.cs", selfAssign)

	require.NoError(t, e.AnalyzeFiles(context.Background(), []string{path}))

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "csharp", f.Language)
	assert.Equal(t, store.ContentHash([]byte(selfAssign)), f.Hash)
	assert.Equal(t, 5, f.LineCount)
	assert.False(t, f.LastAnalyzed.IsZero())

	stored, err := e.Query().DiagnosticsByFile(path)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "S1656", stored[0].RuleID)
	assert.Equal(t, "warning", stored[0].Severity)
	assert.Equal(t, 3, stored[0].StartLine)
	assert.Positive(t, stored[0].ID, "batch IDs are replaced on commit")
	require.Len(t, stored[0].Locations, 1)
	assert.Equal(t, path, stored[0].Locations[0].Path)
}

func TestAnalyzeFiles_SkipsUnsupportedExtensions(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, t.TempDir(), "readme.txt", "x = x")

	require.NoError(t, e.AnalyzeFiles(context.Background(), []string{path}))

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestAnalyzeFiles_SkipsUnchanged(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "C.cs", selfAssign)

	require.NoError(t, e.AnalyzeFiles(ctx, []string{path}))
	require.Len(t, e.Diagnostics(), 1)

	require.NoError(t, e.AnalyzeFiles(ctx, []string{path}))
	assert.Len(t, e.Diagnostics(), 1, "unchanged file is not analyzed again")

	stored, err := e.Query().All()
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAnalyzeFiles_ReanalyzesChanged(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "C.cs", selfAssign)
	require.NoError(t, e.AnalyzeFiles(ctx, []string{path}))

	fixed := strings.Replace(selfAssign, "x = x;", "x = 1;", 1)
	require.NoError(t, os.WriteFile(path, []byte(fixed), 0o644))
	require.NoError(t, e.AnalyzeFiles(ctx, []string{path}))

	stored, err := e.Query().DiagnosticsByFile(path)
	require.NoError(t, err)
	assert.Empty(t, stored, "old diagnostics are replaced")

	f, err := e.Store().FileByPath(path)
	require.NoError(t, err)
	assert.Equal(t, store.ContentHash([]byte(fixed)), f.Hash)
}

func TestAnalyzeFiles_ContinuesPastFileErrors(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	good := writeFile(t, dir, "C.cs", selfAssign)
	missing := filepath.Join(dir, "Missing.cs")

	err := e.AnalyzeFiles(context.Background(), []string{missing, good})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing.cs")

	stored, err := e.Query().DiagnosticsByFile(good)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestAnalyzeFiles_Cancelled(t *testing.T) {
	e := newTestEngine(t)
	path := writeFile(t, t.TempDir(), "C.cs", selfAssign)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.AnalyzeFiles(ctx, []string{path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeFiles_Parallel(t *testing.T) {
	e := newTestEngine(t, WithJobs(4))
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"A.cs", "B.cs", "C.cs", "D.cs", "E.cs", "F.cs", "G.cs", "H.cs"} {
		paths = append(paths, writeFile(t, dir, name, selfAssign))
	}

	require.NoError(t, e.AnalyzeFiles(context.Background(), paths))

	diags := e.Diagnostics()
	require.Len(t, diags, len(paths))
	for i := range paths {
		assert.Equal(t, paths[i], diags[i].Location.Path, "sorted by path")
	}
	n, err := e.Query().ErrorCount()
	require.NoError(t, err)
	assert.Zero(t, n)
	counts, err := e.Query().RuleCounts()
	require.NoError(t, err)
	assert.Equal(t, []RuleCount{{RuleID: "S1656", Severity: "warning", Count: len(paths)}}, counts)
}

func TestAnalyzeFiles_FaultIsolated(t *testing.T) {
	var (
		mu     sync.Mutex
		caught []RuleFault
	)
	logger, logs := logging.TestObserved(t, zapcore.WarnLevel)
	e := newTestEngine(t,
		WithScriptsFS(fstest.MapFS{}),
		WithRules(RuleSpec{ID: "S1135", Factory: newCommentRule, Languages: []string{"csharp"}}),
		WithLogger(logger),
		WithFaultHandler(func(f RuleFault) {
			mu.Lock()
			caught = append(caught, f)
			mu.Unlock()
		}),
	)
	src := "class C {\n    // boom\n    void M(int x) { x = x; } // fine\n}\n"
	path := writeFile(t, t.TempDir(), "C.cs", src)

	require.NoError(t, e.AnalyzeFiles(context.Background(), []string{path}))

	assert.ElementsMatch(t, []string{"S1656", "S1135"}, rulesOf(e.Diagnostics()))
	require.Len(t, caught, 1)
	assert.Equal(t, "S1135", caught[0].RuleID)
	assert.Equal(t, 2, caught[0].Location.Span.Start.Line)
	assert.Len(t, e.Faults(), 1)
	assert.Equal(t, 1, logs.FilterMessage("rule faulted").Len())

	faults, err := e.Query().Faults("S1135")
	require.NoError(t, err)
	require.Len(t, faults, 1)
	assert.Equal(t, path, faults[0].Path)
	assert.Equal(t, "comment exploded", faults[0].Value)
	assert.NotEmpty(t, faults[0].Stack)
}

func TestFingerprint_ChangeForcesReanalysis(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "results.db")
	path := writeFile(t, t.TempDir(), "C.cs", selfAssign)

	first, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.AnalyzeFiles(ctx, []string{path}))
	fp := first.Fingerprint()
	require.NoError(t, first.Close())

	same, err := New(dbPath)
	require.NoError(t, err)
	assert.Equal(t, fp, same.Fingerprint())
	require.NoError(t, same.AnalyzeFiles(ctx, []string{path}))
	assert.Empty(t, same.Diagnostics(), "same rule set reuses stored results")
	require.NoError(t, same.Close())

	cfg := config.Default()
	cfg.Rules.Severity = map[string]string{"S1656": "error"}
	changed, err := New(dbPath, WithConfig(cfg))
	require.NoError(t, err)
	defer changed.Close()
	assert.NotEqual(t, fp, changed.Fingerprint())

	require.NoError(t, changed.AnalyzeFiles(ctx, []string{path}))
	require.Len(t, changed.Diagnostics(), 1)
	assert.Equal(t, Error, changed.Diagnostics()[0].Severity)

	n, err := changed.Query().ErrorCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFingerprint_IgnoresJobs(t *testing.T) {
	a := newTestEngine(t, WithJobs(1))
	cfg := config.Default()
	cfg.Analysis.Jobs = 16
	b := newTestEngine(t, WithConfig(cfg))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, isFatal(context.Canceled))
	assert.True(t, isFatal(context.DeadlineExceeded))
	assert.True(t, isFatal(&descriptor.ConfigError{ID: "S1", Err: descriptor.ErrMissingResource}))
	assert.False(t, isFatal(errors.New("parse failed")))
	assert.False(t, isFatal(os.ErrNotExist))
}
