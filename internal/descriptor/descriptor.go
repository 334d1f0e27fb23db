// Package descriptor builds the immutable metadata records that identify and
// document each kind of diagnostic. Rule descriptors are resource driven and
// user facing; utility descriptors carry internal bookkeeping diagnostics.
package descriptor

import (
	"errors"
	"fmt"
	"slices"
)

// Well-known custom tags.
const (
	// DefaultProfileTag marks rules that are active in the default quality profile.
	DefaultProfileTag = "DefaultProfile"
	// NotConfigurableTag marks descriptors end users cannot enable, disable or re-rate.
	NotConfigurableTag = "NotConfigurable"
)

var (
	ErrMissingResource       = errors.New("missing resource")
	ErrInvalidResource       = errors.New("invalid resource value")
	ErrConflictingDescriptor = errors.New("conflicting descriptor")
)

// ConfigError is an authoring or packaging mistake detected while building a
// descriptor. It is fatal at startup.
type ConfigError struct {
	ID  string
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("descriptor %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("descriptor %s: %s: %v", e.ID, e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Descriptor identifies and documents one diagnostic kind.
type Descriptor struct {
	ID               string
	Title            string
	MessageFormat    string
	Category         string
	Description      string
	DefaultSeverity  Severity
	EnabledByDefault bool
	HelpLink         string
	CustomTags       []string
	Utility          bool
}

// HasTag reports whether tag is among the descriptor's custom tags.
func (d *Descriptor) HasTag(tag string) bool {
	return slices.Contains(d.CustomTags, tag)
}

// Configurable reports whether end-user configuration may change the descriptor's
// activation or severity.
func (d *Descriptor) Configurable() bool {
	return !d.HasTag(NotConfigurableTag)
}

// Message renders the message format with args. A format without args is
// returned verbatim so literal percent signs survive.
func (d *Descriptor) Message(args ...any) string {
	if len(args) == 0 {
		return d.MessageFormat
	}
	return fmt.Sprintf(d.MessageFormat, args...)
}

func (d *Descriptor) String() string { return d.ID }
