// Package rules is the built-in rule catalogue. Rules are created fresh for
// every compilation unit; their descriptors are built once per language and
// shared.
package rules

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"github.com/jward/lintel/internal/analysis"
	"github.com/jward/lintel/internal/descriptor"
)

//go:embed resources/*.yaml
var resourceFS embed.FS

// LoadResources returns the descriptor metadata bundled with the binary.
func LoadResources() (descriptor.Bundle, error) {
	return descriptor.LoadBundle(resourceFS, "resources")
}

// Factory creates a rule instance using descriptors from b.
type Factory func(b *descriptor.Builder) (analysis.Rule, error)

type entry struct {
	id        string
	languages []string
	factory   Factory
}

func (e entry) supports(lang string) bool {
	if len(e.languages) == 0 {
		return true
	}
	for _, l := range e.languages {
		if l == lang {
			return true
		}
	}
	return false
}

// Catalog holds rule factories and one descriptor builder per language.
type Catalog struct {
	res  descriptor.Bundle
	mode descriptor.Mode

	mu       sync.Mutex
	entries  []entry
	builders map[string]*descriptor.Builder
}

// NewCatalog returns a catalogue holding the built-in rules.
func NewCatalog(res descriptor.Bundle, mode descriptor.Mode) *Catalog {
	c := &Catalog{res: res, mode: mode, builders: make(map[string]*descriptor.Builder)}
	c.Register("S1656", NewSelfAssignment, "csharp", "java")
	c.Register("S1163", NewNoExceptionsInFinally, "csharp", "java")
	c.Register("S4214", NewPInvokesShouldNotBeVisible, "csharp")
	c.Register("S107", NewTooManyParameters, "csharp", "java")
	c.Register("S1313", NewHardcodedIPAddress, "csharp", "java")
	c.Register(MetricsID, NewFileMetrics)
	return c
}

// Register adds a rule factory for the given languages, or for every language
// when none are named.
func (c *Catalog) Register(id string, f Factory, languages ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry{id: id, languages: languages, factory: f})
}

// Builder returns the descriptor builder for lang.
func (c *Catalog) Builder(lang string) *descriptor.Builder {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.builders[lang]
	if !ok {
		b = descriptor.NewBuilder(c.res.ForLanguage(lang), c.mode)
		c.builders[lang] = b
	}
	return b
}

// Rules creates new instances of every rule registered for lang.
func (c *Catalog) Rules(lang string) ([]analysis.Rule, error) {
	b := c.Builder(lang)
	c.mu.Lock()
	entries := append([]entry(nil), c.entries...)
	c.mu.Unlock()

	var out []analysis.Rule
	for _, e := range entries {
		if !e.supports(lang) {
			continue
		}
		r, err := e.factory(b)
		if err != nil {
			return nil, fmt.Errorf("rule %s (%s): %w", e.id, lang, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// IDs lists the registered rule IDs, sorted.
func (c *Catalog) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		ids = append(ids, e.id)
	}
	sort.Strings(ids)
	return ids
}

// Descriptors builds the rules of each language once and returns every
// descriptor, grouped by language.
func (c *Catalog) Descriptors(languages ...string) (map[string][]*descriptor.Descriptor, error) {
	out := make(map[string][]*descriptor.Descriptor, len(languages))
	for _, lang := range languages {
		if _, err := c.Rules(lang); err != nil {
			return nil, err
		}
		out[lang] = c.Builder(lang).Cache().All()
	}
	return out, nil
}
