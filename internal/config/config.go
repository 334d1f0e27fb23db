// Package config loads lintel.toml and turns it into the analysis policy and
// per-rule parameters used during a run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/syntax"
)

// FileName is the configuration file looked up in the analyzed root.
const FileName = "lintel.toml"

// Config is the analysis configuration. It is read-only once loaded.
type Config struct {
	Analysis Analysis `toml:"analysis"`
	Rules    Rules    `toml:"rules"`
}

type Analysis struct {
	// Mode is "release" or "debug"; it controls utility descriptor tagging.
	Mode               string   `toml:"mode"`
	Jobs               int      `toml:"jobs"`
	Languages          []string `toml:"languages"`
	UtilityDiagnostics bool     `toml:"utility_diagnostics"`
	// Exclude holds path globs, relative to the analyzed root, to skip.
	Exclude []string `toml:"exclude"`
}

type Rules struct {
	Enable   []string                     `toml:"enable"`
	Disable  []string                     `toml:"disable"`
	Severity map[string]string            `toml:"severity"`
	Params   map[string]map[string]string `toml:"-"`
}

// rawConfig mirrors Config but accepts any TOML scalar as a parameter value.
type rawConfig struct {
	Analysis Analysis `toml:"analysis"`
	Rules    struct {
		Enable   []string                  `toml:"enable"`
		Disable  []string                  `toml:"disable"`
		Severity map[string]string         `toml:"severity"`
		Params   map[string]map[string]any `toml:"params"`
	} `toml:"rules"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{Analysis: Analysis{Mode: "release", Jobs: runtime.NumCPU()}}
}

// Load reads path. A missing file yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads FileName from dir.
func LoadDir(dir string) (Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Parse decodes and validates a TOML document.
func Parse(data string) (Config, error) {
	var raw rawConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown key %s", undecoded[0])
	}

	cfg := Default()
	cfg.Analysis.UtilityDiagnostics = raw.Analysis.UtilityDiagnostics
	cfg.Analysis.Languages = raw.Analysis.Languages
	cfg.Analysis.Exclude = raw.Analysis.Exclude
	if meta.IsDefined("analysis", "mode") {
		cfg.Analysis.Mode = raw.Analysis.Mode
	}
	if meta.IsDefined("analysis", "jobs") {
		cfg.Analysis.Jobs = raw.Analysis.Jobs
	}
	cfg.Rules.Enable = raw.Rules.Enable
	cfg.Rules.Disable = raw.Rules.Disable
	cfg.Rules.Severity = raw.Rules.Severity
	if len(raw.Rules.Params) > 0 {
		cfg.Rules.Params = make(map[string]map[string]string, len(raw.Rules.Params))
		for id, params := range raw.Rules.Params {
			out := make(map[string]string, len(params))
			for k, v := range params {
				out[k] = fmt.Sprint(v)
			}
			cfg.Rules.Params[id] = out
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that decoding alone cannot.
func (c Config) Validate() error {
	if _, err := descriptor.ParseMode(c.Analysis.Mode); err != nil {
		return fmt.Errorf("[analysis].mode: %w", err)
	}
	if c.Analysis.Jobs < 0 {
		return fmt.Errorf("[analysis].jobs: must not be negative, got %d", c.Analysis.Jobs)
	}
	for _, l := range c.Analysis.Languages {
		if _, ok := lang.ForLanguage(l); !ok {
			return fmt.Errorf("[analysis].languages: %q: %w", l, lang.ErrUnsupportedLanguage)
		}
	}
	for _, pattern := range c.Analysis.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("[analysis].exclude: %q: %w", pattern, err)
		}
	}
	for _, id := range c.Rules.Enable {
		for _, other := range c.Rules.Disable {
			if id == other {
				return fmt.Errorf("[rules]: %s is both enabled and disabled", id)
			}
		}
	}
	for _, id := range sortedKeys(c.Rules.Severity) {
		if _, err := descriptor.ParseSeverity(c.Rules.Severity[id]); err != nil {
			return fmt.Errorf("[rules.severity].%s: %w", id, err)
		}
	}
	return nil
}

// BuildMode returns the descriptor build mode.
func (c Config) BuildMode() descriptor.Mode {
	m, _ := descriptor.ParseMode(c.Analysis.Mode)
	return m
}

// LanguageEnabled reports whether files of the language should be analyzed.
func (c Config) LanguageEnabled(name string) bool {
	if len(c.Analysis.Languages) == 0 {
		return true
	}
	for _, l := range c.Analysis.Languages {
		if strings.EqualFold(l, name) {
			return true
		}
	}
	return false
}

// Excluded reports whether rel, a slash-separated path relative to the
// analyzed root, matches an exclude glob. Globs match either the full path
// or any single element.
func (c Config) Excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.Analysis.Exclude {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		for _, elem := range strings.Split(rel, "/") {
			if ok, _ := filepath.Match(pattern, elem); ok {
				return true
			}
		}
	}
	return false
}

// Fingerprint returns a stable text form of every setting that can change
// analysis results. Jobs is left out.
func (c Config) Fingerprint() string {
	c.Analysis.Jobs = 0
	var buf bytes.Buffer
	_ = toml.NewEncoder(&buf).Encode(c)
	fmt.Fprintf(&buf, "params = %v\n", c.Rules.Params)
	return buf.String()
}

// Params returns per-rule parameters keyed by rule ID.
func (c Config) Params() map[string]map[string]string { return c.Rules.Params }

// Policy returns the suppression and severity policy described by c.
func (c Config) Policy() analysis.Policy {
	p := &policy{
		utility:  c.Analysis.UtilityDiagnostics,
		enable:   make(map[string]bool),
		disable:  make(map[string]bool),
		severity: make(map[string]descriptor.Severity),
	}
	for _, id := range c.Rules.Enable {
		p.enable[id] = true
	}
	for _, id := range c.Rules.Disable {
		p.disable[id] = true
	}
	for id, name := range c.Rules.Severity {
		if s, err := descriptor.ParseSeverity(name); err == nil {
			p.severity[id] = s
		}
	}
	return p
}

type policy struct {
	utility  bool
	enable   map[string]bool
	disable  map[string]bool
	severity map[string]descriptor.Severity
}

func (p *policy) Enabled(d *descriptor.Descriptor) bool {
	switch {
	case d.Utility:
		return p.utility
	case p.disable[d.ID]:
		return false
	case p.enable[d.ID]:
		return true
	default:
		return d.EnabledByDefault
	}
}

func (p *policy) Severity(d *descriptor.Descriptor) descriptor.Severity {
	if s, ok := p.severity[d.ID]; ok && d.Configurable() {
		return s
	}
	return d.DefaultSeverity
}

func (p *policy) Suppressed(d *descriptor.Descriptor, loc syntax.Location, tree *syntax.Tree) bool {
	return !d.Utility && analysis.NoSonar(tree, loc.Span.Start.Line)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
