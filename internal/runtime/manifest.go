package runtime

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/jward/lintel/internal/lang"
	"github.com/jward/lintel/internal/syntax"
)

// ManifestPath is where the scripted rule manifest lives in a scripts
// filesystem.
const ManifestPath = "rules/manifest.yaml"

// ErrInvalidManifest wraps every manifest validation failure.
var ErrInvalidManifest = errors.New("invalid script manifest")

// Manifest lists the scripted rules.
type Manifest struct {
	Rules []ScriptSpec `yaml:"rules"`
}

// ScriptSpec describes one scripted rule. A spec without categories runs
// once per tree instead of once per matching node.
type ScriptSpec struct {
	ID         string   `yaml:"id"`
	Script     string   `yaml:"script"`
	Message    string   `yaml:"message"`
	Languages  []string `yaml:"languages"`
	Categories []string `yaml:"categories"`
}

// TreeMode reports whether the rule runs once per tree.
func (s ScriptSpec) TreeMode() bool { return len(s.Categories) == 0 }

func (s ScriptSpec) categories() ([]syntax.Category, error) {
	cats := make([]syntax.Category, 0, len(s.Categories))
	for _, name := range s.Categories {
		c, ok := syntax.CategoryFromName(name)
		if !ok {
			return nil, fmt.Errorf("%w: rule %s: unknown category %q", ErrInvalidManifest, s.ID, name)
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// LoadManifest reads and validates the manifest at ManifestPath in fsys. A
// filesystem without a manifest has no scripted rules.
func LoadManifest(fsys fs.FS) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, ManifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("runtime: read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("runtime: parse manifest: %w", err)
	}
	if err := m.validate(fsys); err != nil {
		return nil, fmt.Errorf("runtime: %w", err)
	}
	return &m, nil
}

func (m *Manifest) validate(fsys fs.FS) error {
	seen := make(map[string]bool, len(m.Rules))
	for _, spec := range m.Rules {
		switch {
		case spec.ID == "":
			return fmt.Errorf("%w: rule without id", ErrInvalidManifest)
		case seen[spec.ID]:
			return fmt.Errorf("%w: duplicate rule %s", ErrInvalidManifest, spec.ID)
		case spec.Script == "":
			return fmt.Errorf("%w: rule %s: missing script", ErrInvalidManifest, spec.ID)
		case spec.Message == "":
			return fmt.Errorf("%w: rule %s: missing message", ErrInvalidManifest, spec.ID)
		}
		seen[spec.ID] = true

		if _, err := fs.Stat(fsys, spec.Script); err != nil {
			return fmt.Errorf("%w: rule %s: script %s: %v", ErrInvalidManifest, spec.ID, spec.Script, err)
		}
		for _, l := range spec.Languages {
			if _, ok := lang.ForLanguage(l); !ok {
				return fmt.Errorf("%w: rule %s: %w %q", ErrInvalidManifest, spec.ID, lang.ErrUnsupportedLanguage, l)
			}
		}
		if _, err := spec.categories(); err != nil {
			return err
		}
	}
	return nil
}
