package runtime

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/logging"
	"github.com/jward/lintel/internal/rules"
	"github.com/jward/lintel/scripts"
)

// newTestCatalog returns the built-in catalogue plus every scripted rule
// from the runtime's filesystem.
func newTestCatalog(t *testing.T, rt *Runtime) *rules.Catalog {
	t.Helper()
	res, err := rules.LoadResources()
	require.NoError(t, err)
	c := rules.NewCatalog(res, descriptor.ModeRelease)

	m, err := LoadManifest(rt.fsys)
	require.NoError(t, err)
	for _, spec := range m.Rules {
		c.Register(spec.ID, rt.Factory(spec), spec.Languages...)
	}
	return c
}

func analyzeWith(t *testing.T, rt *Runtime, path, src string, opts analysis.Options) ([]analysis.Diagnostic, analysis.Result) {
	t.Helper()
	ctx := context.Background()
	tree, f, err := lang.Parse(ctx, path, []byte(src))
	require.NoError(t, err)

	rs, err := newTestCatalog(t, rt).Rules(f.Name())
	require.NoError(t, err)
	d, err := analysis.NewDispatcher(f, rs, opts)
	require.NoError(t, err)

	sink := &analysis.MemorySink{}
	res, err := d.Run(ctx, tree, sink)
	require.NoError(t, err)

	diags := sink.Diagnostics()
	analysis.SortDiagnostics(diags)
	return diags, res
}

func byRule(ds []analysis.Diagnostic, id string) []analysis.Diagnostic {
	var out []analysis.Diagnostic
	for _, d := range ds {
		if d.RuleID() == id {
			out = append(out, d)
		}
	}
	return out
}

func testScriptsFS(script string) fstest.MapFS {
	return fstest.MapFS{
		"rules/manifest.yaml": {Data: []byte(`rules:
  - id: S1135
    script: rules/custom.risor
    message: Complete the task associated to this 'TODO' comment.
    languages: [csharp]
    categories: [Comment]
`)},
		"rules/custom.risor": {Data: []byte(script)},
	}
}

func TestWordOffsets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		word string
		want []int
	}{
		{"// TODO: fix", "TODO", []int{3}},
		{"// todo and Todo", "TODO", []int{3, 12}},
		{"// mastodon", "TODO", nil},
		{"// TODOs", "TODO", nil},
		{"//TODO", "TODO", []int{2}},
		{"TODO_later", "TODO", []int{0}},
		{"// é TODO", "TODO", []int{6}},
		{"anything", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, wordOffsets(tt.text, tt.word))
		})
	}
}

func TestLoadManifest_Embedded(t *testing.T) {
	t.Parallel()

	m, err := LoadManifest(scripts.FS)
	require.NoError(t, err)
	require.Len(t, m.Rules, 2)

	todo := m.Rules[0]
	assert.Equal(t, "S1135", todo.ID)
	assert.False(t, todo.TreeMode())
	assert.Equal(t, []string{"csharp", "java"}, todo.Languages)

	fixme := m.Rules[1]
	assert.Equal(t, "S1134", fixme.ID)
	assert.True(t, fixme.TreeMode())
}

func TestLoadManifest_Absent(t *testing.T) {
	t.Parallel()

	m, err := LoadManifest(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, m.Rules)
}

func TestLoadManifest_Invalid(t *testing.T) {
	t.Parallel()

	script := &fstest.MapFile{Data: []byte(`report()`)}
	tests := []struct {
		name     string
		manifest string
	}{
		{"missing id", "rules:\n  - script: rules/a.risor\n    message: m\n"},
		{"duplicate", "rules:\n  - {id: S1, script: rules/a.risor, message: m}\n  - {id: S1, script: rules/a.risor, message: m}\n"},
		{"missing script", "rules:\n  - {id: S1, message: m}\n"},
		{"script not found", "rules:\n  - {id: S1, script: rules/b.risor, message: m}\n"},
		{"missing message", "rules:\n  - {id: S1, script: rules/a.risor}\n"},
		{"unknown category", "rules:\n  - {id: S1, script: rules/a.risor, message: m, categories: [Nope]}\n"},
		{"unknown language", "rules:\n  - {id: S1, script: rules/a.risor, message: m, languages: [cobol]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadManifest(fstest.MapFS{
				ManifestPath:    {Data: []byte(tt.manifest)},
				"rules/a.risor": script,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}

	_, err := LoadManifest(fstest.MapFS{ManifestPath: {Data: []byte("rules: [")}})
	assert.Error(t, err)
}

func TestRunSource(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(nil)

	err := rt.RunSource(context.Background(), `
offsets := word_offsets(text, "todo")
assert(len(offsets) == 1, 'expected 1 offset, got {len(offsets)}')
assert(offsets[0] == 3, 'expected offset 3, got {offsets[0]}')
`, map[string]any{
		"text":         "// TODO",
		"word_offsets": makeWordOffsetsFn(),
	})
	require.NoError(t, err)

	err = rt.RunSource(context.Background(), `word_offsets(1, 2)`, map[string]any{
		"word_offsets": makeWordOffsetsFn(),
	})
	assert.Error(t, err)
}

func TestLoadScript_Caches(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"rules/a.risor": {Data: []byte("one")}}
	rt := NewRuntime(fsys)

	src, err := rt.LoadScript("/rules/a.risor")
	require.NoError(t, err)
	assert.Equal(t, "one", src)

	fsys["rules/a.risor"] = &fstest.MapFile{Data: []byte("two")}
	src, err = rt.LoadScript("rules/a.risor")
	require.NoError(t, err)
	assert.Equal(t, "one", src)

	_, err = rt.LoadScript("rules/missing.risor")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestScriptsHash(t *testing.T) {
	t.Parallel()
	a := NewRuntime(fstest.MapFS{"rules/a.risor": {Data: []byte("one")}, "notes.txt": {Data: []byte("x")}})
	b := NewRuntime(fstest.MapFS{"rules/a.risor": {Data: []byte("one")}})
	c := NewRuntime(fstest.MapFS{"rules/a.risor": {Data: []byte("two")}})

	assert.Equal(t, a.ScriptsHash(), b.ScriptsHash(), "only scripts and manifests count")
	assert.NotEqual(t, b.ScriptsHash(), c.ScriptsHash())
}

func TestScriptRules_TodoAndFixme(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(scripts.FS)

	src := `// TODO: first
class C {
    /* FIXME later; todo too */
    void M() { } // mastodon is not a tag
}`
	diags, res := analyzeWith(t, rt, "C.cs", src, analysis.Options{})
	assert.Empty(t, res.Faults)

	todos := byRule(diags, "S1135")
	require.Len(t, todos, 2)
	assert.Equal(t, "Complete the task associated to this 'TODO' comment.", todos[0].Message)
	assert.Equal(t, "C.cs", todos[0].Location.Path)
	assert.Equal(t, 1, todos[0].Location.Span.Start.Line)
	assert.Equal(t, 4, todos[0].Location.Span.Start.Column)
	assert.Equal(t, 8, todos[0].Location.Span.End.Column)
	assert.Equal(t, 3, todos[1].Location.Span.Start.Line)
	assert.Equal(t, 21, todos[1].Location.Span.Start.Column)

	fixmes := byRule(diags, "S1134")
	require.Len(t, fixmes, 1)
	assert.Equal(t, 3, fixmes[0].Location.Span.Start.Line)
	assert.Equal(t, 8, fixmes[0].Location.Span.Start.Column)
	assert.Equal(t, descriptor.Warning, fixmes[0].Severity)
}

func TestScriptRules_Java(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(scripts.FS)

	src := `class A {
    // TODO remove
    void m() {}
}`
	diags, _ := analyzeWith(t, rt, "A.java", src, analysis.Options{})
	todos := byRule(diags, "S1135")
	require.Len(t, todos, 1)
	assert.Equal(t, 2, todos[0].Location.Span.Start.Line)
	assert.Equal(t, 8, todos[0].Location.Span.Start.Column)
}

func TestScriptRules_NoSonarSuppresses(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(scripts.FS)

	diags, res := analyzeWith(t, rt, "C.cs", "class C {} // TODO NOSONAR\n", analysis.Options{})
	assert.Empty(t, byRule(diags, "S1135"))
	assert.Equal(t, 1, res.Suppressed)
}

func TestScriptRule_Params(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(testScriptsFS(`
word := param("word", "TODO")
offsets := word_offsets(node["text"], word)
for i := 0; i < len(offsets); i++ {
    report()
}
`))

	src := "class C {} // HACK and TODO\n"
	diags, _ := analyzeWith(t, rt, "C.cs", src, analysis.Options{})
	require.Len(t, byRule(diags, "S1135"), 1, "default parameter")

	diags, _ = analyzeWith(t, rt, "C.cs", src, analysis.Options{
		Params: map[string]map[string]string{"S1135": {"word": "HACK"}},
	})
	hacks := byRule(diags, "S1135")
	require.Len(t, hacks, 1)
	assert.Equal(t, 12, hacks[0].Location.Span.Start.Column, "report() uses the comment node")
}

func TestScriptRule_FaultIsolated(t *testing.T) {
	t.Parallel()
	logger, logs := logging.TestObserved(t, zapcore.WarnLevel)
	rt := NewRuntime(testScriptsFS(`
report()
no_such_function()
`), WithLogger(logger))

	src := `class C {
    void M() { var x = 1; x = x; } // TODO
}`
	diags, res := analyzeWith(t, rt, "C.cs", src, analysis.Options{Logger: logger})

	assert.Empty(t, byRule(diags, "S1135"), "a failing script reports nothing")
	assert.Len(t, byRule(diags, "S1656"), 1, "other rules keep running")
	require.Len(t, res.Faults, 1)
	assert.Equal(t, "S1135", res.Faults[0].RuleID)
	assert.Equal(t, 2, res.Faults[0].Location.Span.Start.Line)
	assert.Equal(t, 1, logs.FilterMessage("rule faulted").Len())
}

func TestScriptRule_ReportAtOutOfRange(t *testing.T) {
	t.Parallel()
	rt := NewRuntime(testScriptsFS(`report_at(0, 100000)`))

	diags, res := analyzeWith(t, rt, "C.cs", "class C {} // TODO\n", analysis.Options{})
	assert.Empty(t, byRule(diags, "S1135"))
	require.Len(t, res.Faults, 1)
}

func TestScriptRule_Log(t *testing.T) {
	t.Parallel()
	logger, logs := logging.TestObserved(t, zapcore.InfoLevel)
	rt := NewRuntime(testScriptsFS(`
kind := node["kind"]
log.Info('saw {kind} in {path} ({language})')
`), WithLogger(logger))

	analyzeWith(t, rt, "C.cs", "class C {} // TODO\n", analysis.Options{})

	entries := logs.FilterMessage("saw comment in C.cs (csharp)").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "S1135", entries[0].ContextMap()["rule"])
}
