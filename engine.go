package lintel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/config"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/rules"
	"github.com/jward/lintel/internal/runtime"
	"github.com/jward/lintel/internal/store"
	"github.com/jward/lintel/scripts"
)

// fingerprintKey is the metadata entry holding the rule set fingerprint of
// the results in the database.
const fingerprintKey = "fingerprint"

// Engine orchestrates a lintel run: file discovery, change detection,
// per-unit rule dispatch and result storage.
type Engine struct {
	store     *store.Store // nil keeps results in memory only
	cfg       config.Config
	logger    *zap.Logger
	catalog   *rules.Catalog
	runtime   *runtime.Runtime
	scriptsFS fs.FS
	languages map[string]bool // nil means all languages
	jobs      int
	extra     []RuleSpec
	onFault   FaultHandler

	mu     sync.Mutex
	diags  []Diagnostic
	faults []RuleFault
}

// RuleSpec registers a rule implemented outside lintel.
type RuleSpec struct {
	ID        string
	Factory   RuleFactory
	Languages []string // empty means every language
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the analysis configuration. Without it the engine runs
// with config.Default.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger for engine progress, rule faults and script
// logs.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLanguages restricts which languages the Engine will process. It takes
// precedence over the configured languages.
func WithLanguages(languages ...string) Option {
	return func(e *Engine) {
		e.languages = make(map[string]bool, len(languages))
		for _, l := range languages {
			e.languages[l] = true
		}
	}
}

// WithJobs caps the number of units analyzed concurrently. Values below one
// fall back to the configured job count.
func WithJobs(n int) Option {
	return func(e *Engine) {
		e.jobs = n
	}
}

// WithRules adds rules to the built-in catalogue.
func WithRules(specs ...RuleSpec) Option {
	return func(e *Engine) {
		e.extra = append(e.extra, specs...)
	}
}

// WithScriptsFS loads scripted rules from fsys instead of the embedded
// scripts.
func WithScriptsFS(fsys fs.FS) Option {
	return func(e *Engine) {
		e.scriptsFS = fsys
	}
}

// WithFaultHandler is called for every isolated rule fault, in addition to
// the fault being logged and recorded.
func WithFaultHandler(h FaultHandler) Option {
	return func(e *Engine) {
		e.onFault = h
	}
}

// New creates an Engine. Results are stored in a SQLite database at dbPath;
// an empty dbPath keeps them in memory only. Descriptor resources and
// scripted rules are loaded and checked here, so configuration errors
// surface before any file is analyzed.
func New(dbPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:       config.Default(),
		logger:    zap.NewNop(),
		scriptsFS: scripts.FS,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("lintel: config: %w", err)
	}
	if e.jobs < 1 {
		e.jobs = e.cfg.Analysis.Jobs
	}
	if e.jobs < 1 {
		e.jobs = goruntime.NumCPU()
	}

	res, err := rules.LoadResources()
	if err != nil {
		return nil, fmt.Errorf("lintel: load resources: %w", err)
	}
	e.catalog = rules.NewCatalog(res, e.cfg.BuildMode())

	e.runtime = runtime.NewRuntime(e.scriptsFS, runtime.WithLogger(e.logger.Named("script")))
	manifest, err := runtime.LoadManifest(e.scriptsFS)
	if err != nil {
		return nil, fmt.Errorf("lintel: %w", err)
	}
	for _, spec := range manifest.Rules {
		e.catalog.Register(spec.ID, e.runtime.Factory(spec), spec.Languages...)
	}
	for _, spec := range e.extra {
		if spec.ID == "" || spec.Factory == nil {
			return nil, fmt.Errorf("lintel: rule spec needs an ID and a factory")
		}
		e.catalog.Register(spec.ID, spec.Factory, spec.Languages...)
	}

	// Build every rule once per language: a missing resource or a
	// conflicting descriptor is fatal now rather than per file.
	if _, err := e.catalog.Descriptors(e.languageList()...); err != nil {
		return nil, fmt.Errorf("lintel: %w", err)
	}

	if dbPath != "" {
		if err := e.openStore(dbPath); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) openStore(dbPath string) error {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("lintel: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return fmt.Errorf("lintel: migrate: %w", err)
	}
	e.store = s

	// Stored results are only reusable under the same rule set and
	// configuration; otherwise every file is analyzed again.
	current := e.Fingerprint()
	stored, err := s.GetMetadata(fingerprintKey)
	if err != nil {
		s.Close()
		return fmt.Errorf("lintel: %w", err)
	}
	if stored != current {
		if stored != "" {
			e.logger.Info("rule set changed, re-analyzing all files")
		}
		if err := s.ResetHashes(); err != nil {
			s.Close()
			return fmt.Errorf("lintel: %w", err)
		}
		if err := s.SetMetadata(fingerprintKey, current); err != nil {
			s.Close()
			return fmt.Errorf("lintel: %w", err)
		}
	}
	return nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Store returns the underlying Store, or nil for an in-memory engine.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a QueryBuilder over the stored results.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Fingerprint identifies the rule set, scripts and configuration results
// were produced with.
func (e *Engine) Fingerprint() string {
	return store.FingerprintHash(map[string]string{
		"rules":   strings.Join(e.catalog.IDs(), ","),
		"scripts": e.runtime.ScriptsHash(),
		"config":  e.cfg.Fingerprint(),
	})
}

// Descriptors returns every descriptor of the enabled languages, keyed by
// language.
func (e *Engine) Descriptors() (map[string][]*Descriptor, error) {
	return e.catalog.Descriptors(e.languageList()...)
}

// Diagnostics returns the diagnostics produced by this Engine's runs, in
// path and position order. Files skipped as unchanged contribute nothing;
// use Query for everything stored.
func (e *Engine) Diagnostics() []Diagnostic {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Diagnostic, len(e.diags))
	copy(out, e.diags)
	analysis.SortDiagnostics(out)
	return out
}

// Faults returns the rule faults isolated during this Engine's runs.
func (e *Engine) Faults() []RuleFault {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RuleFault, len(e.faults))
	copy(out, e.faults)
	return out
}

// languageEnabled applies WithLanguages, or the configuration when the
// option was not given.
func (e *Engine) languageEnabled(name string) bool {
	if e.languages != nil {
		return e.languages[name]
	}
	return e.cfg.LanguageEnabled(name)
}

func (e *Engine) languageList() []string {
	var out []string
	for _, l := range lang.Languages() {
		if e.languageEnabled(l) {
			out = append(out, l)
		}
	}
	return out
}

// newDispatcher creates fresh rule instances for language and initializes
// them. Rules hold per-unit state, so every unit gets its own dispatcher.
func (e *Engine) newDispatcher(facade lang.Facade, onFault FaultHandler) (*analysis.Dispatcher, error) {
	rs, err := e.catalog.Rules(facade.Name())
	if err != nil {
		return nil, err
	}
	return analysis.NewDispatcher(facade, rs, analysis.Options{
		Policy:       e.cfg.Policy(),
		Params:       e.cfg.Params(),
		Logger:       e.logger,
		FaultHandler: onFault,
	})
}

// record keeps a unit's results for Diagnostics and Faults.
func (e *Engine) record(diags []Diagnostic, faults []RuleFault) {
	e.mu.Lock()
	e.diags = append(e.diags, diags...)
	e.faults = append(e.faults, faults...)
	e.mu.Unlock()
}

// AnalyzeSource analyzes one in-memory unit and returns its diagnostics in
// position order. Nothing is written to the store.
func (e *Engine) AnalyzeSource(ctx context.Context, path string, src []byte) ([]Diagnostic, error) {
	facade, ok := lang.ForFile(path)
	if !ok {
		return nil, fmt.Errorf("lintel: %s: %w", path, lang.ErrUnsupportedLanguage)
	}
	if !e.languageEnabled(facade.Name()) {
		return nil, nil
	}
	out, err := e.analyzeUnit(ctx, path, src, nil)
	if err != nil {
		return nil, err
	}
	analysis.SortDiagnostics(out.diags)
	return out.diags, nil
}

// unitResult is what one analyzed unit produced.
type unitResult struct {
	diags  []Diagnostic
	faults []RuleFault
	lines  int
	stats  analysis.Result
}

// analyzeUnit parses and dispatches one unit, feeding batch as well when it
// is non-nil.
func (e *Engine) analyzeUnit(ctx context.Context, path string, src []byte, batch *store.BatchedStore) (unitResult, error) {
	tree, facade, err := lang.Parse(ctx, path, src)
	if err != nil {
		return unitResult{}, err
	}

	onFault := func(f RuleFault) {
		if batch != nil {
			batch.AcceptFault(f)
		}
		if e.onFault != nil {
			e.onFault(f)
		}
	}
	d, err := e.newDispatcher(facade, onFault)
	if err != nil {
		return unitResult{}, err
	}

	mem := &analysis.MemorySink{}
	var sink analysis.Sink = mem
	if batch != nil {
		sink = analysis.SinkFunc(func(diag Diagnostic) {
			mem.Accept(diag)
			batch.Accept(diag)
		})
	}
	stats, err := d.Run(ctx, tree, sink)
	if err != nil {
		return unitResult{}, err
	}

	out := unitResult{diags: mem.Diagnostics(), faults: stats.Faults, lines: tree.LineCount(), stats: stats}
	e.record(out.diags, out.faults)
	e.logger.Debug("analyzed unit",
		zap.String("path", path),
		zap.String("language", facade.Name()),
		zap.Int("nodes", stats.Nodes),
		zap.Int("reported", stats.Reported),
		zap.Int("suppressed", stats.Suppressed),
		zap.Int("faults", len(stats.Faults)),
	)
	return out, nil
}

// AnalyzeFiles analyzes the given file paths. Units are dispatched in
// parallel up to the configured job count; a single writer commits each
// unit's results to the store. Unchanged files (same content hash) are
// skipped when a store is configured.
//
// Errors reading or parsing an individual file are collected and processing
// continues. Configuration errors and cancellation stop the run.
func (e *Engine) AnalyzeFiles(ctx context.Context, paths []string) error {
	return e.analyzeFilesParallel(ctx, paths)
}

// skipDirs are excluded from directory walks.
var skipDirs = map[string]bool{
	"bin":          true,
	"obj":          true,
	"target":       true,
	"node_modules": true,
	"vendor":       true,
}

// AnalyzeDirectory walks root and analyzes all files of enabled languages
// that the configuration does not exclude. If root is inside a git
// repository, uses git ls-files to respect .gitignore. Falls back to a
// filesystem walk (skipping hidden and build directories) if git is
// unavailable. Stored results of files under root that no longer exist are
// removed.
func (e *Engine) AnalyzeDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}

	var kept []string
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			rel = p
		}
		if e.cfg.Excluded(rel) {
			e.logger.Debug("excluded", zap.String("path", p))
			continue
		}
		kept = append(kept, p)
	}

	if err := e.AnalyzeFiles(ctx, kept); err != nil {
		return err
	}
	return e.prune(root, kept)
}

// prune deletes stored files under root that were not discovered.
func (e *Engine) prune(root string, discovered []string) error {
	if e.store == nil {
		return nil
	}
	seen := make(map[string]bool, len(discovered))
	for _, p := range discovered {
		seen[p] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("lintel: prune: %w", err)
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	for _, f := range files {
		if seen[f.Path] || !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("lintel: prune %s: %w", f.Path, err)
		}
		e.logger.Debug("pruned", zap.String("path", f.Path))
	}
	return nil
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to enabled languages.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		p := filepath.Join(root, line)
		if e.supported(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if p != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.supported(p) {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}

func (e *Engine) supported(p string) bool {
	f, ok := lang.ForFile(p)
	return ok && e.languageEnabled(f.Name())
}

// readSource reads a unit. Directories and missing files are reported as
// per-file errors by the caller.
func readSource(p string) ([]byte, error) {
	content, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return content, nil
}

// isFatal reports whether err must stop the whole run.
func isFatal(err error) bool {
	var ce *analysis.ConfigError
	var de *descriptor.ConfigError
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &ce) ||
		errors.As(err, &de)
}
