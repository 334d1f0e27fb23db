package descriptor

import (
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resource keys shared by every rule.
const (
	KeyHelpLinkFormat = "HelpLinkFormat"
	KeyLanguage       = "Language"
)

// Resources is a key-value source of descriptor metadata. Per-rule keys follow
// the "{id}_{field}" convention, e.g. "S1656_Title".
type Resources interface {
	String(key string) (string, bool)
}

// Bundle is an in-memory Resources.
type Bundle map[string]string

func (b Bundle) String(key string) (string, bool) {
	v, ok := b[key]
	return v, ok
}

// ForLanguage returns a view of b whose Language key is lang.
func (b Bundle) ForLanguage(lang string) Resources {
	return overlay{base: b, extra: Bundle{KeyLanguage: lang}}
}

type overlay struct {
	base  Resources
	extra Bundle
}

func (o overlay) String(key string) (string, bool) {
	if v, ok := o.extra[key]; ok {
		return v, true
	}
	return o.base.String(key)
}

// yamlBundle is the YAML-serialized form of a resource file.
type yamlBundle struct {
	HelpLinkFormat string              `yaml:"help_link_format"`
	Rules          map[string]yamlRule `yaml:"rules"`
}

type yamlRule struct {
	Title              string `yaml:"title"`
	Category           string `yaml:"category"`
	Description        string `yaml:"description"`
	ActivatedByDefault *bool  `yaml:"activated_by_default"`
}

// LoadBundle reads every .yaml file in dir and flattens it into "{id}_{field}"
// keys. Files load in name order; a rule ID defined twice is an error.
func LoadBundle(fsys fs.FS, dir string) (Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read resources dir %q: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	b := Bundle{}
	seen := make(map[string]string) // id → source file
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := dir + "/" + entry.Name()
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var yb yamlBundle
		if err := yaml.Unmarshal(data, &yb); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if yb.HelpLinkFormat != "" {
			if prev, ok := b[KeyHelpLinkFormat]; ok && prev != yb.HelpLinkFormat {
				return nil, fmt.Errorf("%s: help_link_format redefined", entry.Name())
			}
			b[KeyHelpLinkFormat] = yb.HelpLinkFormat
		}
		for id, r := range yb.Rules {
			if prev, ok := seen[id]; ok {
				return nil, fmt.Errorf("duplicate rule ID %q (first in %s, again in %s)", id, prev, entry.Name())
			}
			seen[id] = entry.Name()
			b[id+"_Title"] = r.Title
			b[id+"_Category"] = r.Category
			b[id+"_Description"] = r.Description
			if r.ActivatedByDefault != nil {
				b[id+"_IsActivatedByDefault"] = strconv.FormatBool(*r.ActivatedByDefault)
			}
		}
	}
	return b, nil
}
