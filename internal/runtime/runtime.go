// Package runtime runs rules written as Risor scripts. A manifest in the
// scripts filesystem names each scripted rule, its descriptor message, the
// languages it applies to and the node categories it subscribes to; the
// runtime turns every entry into an analysis.Rule.
package runtime

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"
	"github.com/risor-io/risor/object"
	"go.uber.org/zap"
)

// Runtime loads Risor scripts from an fs.FS and evaluates them with the
// host functions scripted rules are given.
type Runtime struct {
	fsys   fs.FS
	logger *zap.Logger

	mu      sync.RWMutex
	scripts map[string]string
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithLogger routes the scripts' log object to logger.
func WithLogger(logger *zap.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// NewRuntime creates a Runtime reading scripts from fsys.
func NewRuntime(fsys fs.FS, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		fsys:    fsys,
		logger:  zap.NewNop(),
		scripts: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LoadScript returns the source of the script at p, caching it for later
// calls.
func (r *Runtime) LoadScript(p string) (string, error) {
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")

	r.mu.RLock()
	src, ok := r.scripts[p]
	r.mu.RUnlock()
	if ok {
		return src, nil
	}

	data, err := fs.ReadFile(r.fsys, p)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", p, err)
	}
	src = string(data)

	r.mu.Lock()
	r.scripts[p] = src
	r.mu.Unlock()
	return src, nil
}

// RunScript loads and evaluates the script at p with the given globals.
func (r *Runtime) RunScript(ctx context.Context, p string, globals map[string]any) error {
	src, err := r.LoadScript(p)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, p, globals)
}

// RunSource evaluates Risor source directly. Useful for testing without
// script files.
func (r *Runtime) RunSource(ctx context.Context, source string, globals map[string]any) error {
	return r.eval(ctx, source, "<inline>", globals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, globals map[string]any) error {
	opts := make([]risor.Option, 0, len(globals)+1)
	names := make([]string, 0, len(globals))
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
		names = append(names, name)
	}
	sort.Strings(names)

	// Scripts may import shared helpers from the same filesystem.
	if r.fsys != nil {
		opts = append(opts, risor.WithImporter(importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: names,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})))
	}

	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// ScriptsHash returns a SHA-256 over every script and manifest in the
// filesystem, so callers can tell when the scripted rule set changed.
func (r *Runtime) ScriptsHash() string {
	var paths []string
	if r.fsys != nil {
		fs.WalkDir(r.fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && (strings.HasSuffix(p, ".risor") || strings.HasSuffix(p, ".yaml")) {
				paths = append(paths, p)
			}
			return nil
		})
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		data, err := fs.ReadFile(r.fsys, p)
		if err != nil {
			continue
		}
		h.Write([]byte(p))
		h.Write(data)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
