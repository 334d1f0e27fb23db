package descriptor

import (
	"fmt"
	"strconv"
)

// Mode selects how utility descriptors are tagged.
type Mode int

const (
	// ModeRelease tags utility descriptors as not configurable.
	ModeRelease Mode = iota
	// ModeDebug leaves utility descriptors configurable so test tooling can
	// surface them selectively.
	ModeDebug
)

// ParseMode maps "debug" and "release" to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "release":
		return ModeRelease, nil
	case "debug":
		return ModeDebug, nil
	default:
		return ModeRelease, fmt.Errorf("unknown build mode %q", s)
	}
}

// Builder turns rule identifiers into descriptors. Each Builder owns a Cache,
// so a descriptor is built at most once per identifier.
type Builder struct {
	res   Resources
	mode  Mode
	cache *Cache
}

// NewBuilder returns a Builder reading metadata from res.
func NewBuilder(res Resources, mode Mode) *Builder {
	return &Builder{res: res, mode: mode, cache: NewCache()}
}

// Cache exposes the descriptors built so far.
func (b *Builder) Cache() *Cache { return b.cache }

// Mode returns the builder's build mode.
func (b *Builder) Mode() Mode { return b.mode }

type ruleOptions struct {
	enabled *bool
}

// RuleOption adjusts a rule descriptor.
type RuleOption func(*ruleOptions)

// WithEnabledByDefault overrides the resource-driven default activation.
func WithEnabledByDefault(enabled bool) RuleOption {
	return func(o *ruleOptions) { o.enabled = &enabled }
}

// Rule returns the descriptor for a user-facing rule. Title, category,
// description and default activation come from the resources; the severity
// is always Warning.
func (b *Builder) Rule(id, messageFormat string, opts ...RuleOption) (*Descriptor, error) {
	var o ruleOptions
	for _, opt := range opts {
		opt(&o)
	}
	in := buildInputs{kind: "rule", messageFormat: messageFormat}
	if o.enabled != nil {
		in.enabled = strconv.FormatBool(*o.enabled)
	}
	return b.cache.getOrBuild(id, in, func() (*Descriptor, error) {
		return b.buildRule(id, messageFormat, o)
	})
}

// MustRule is Rule that panics on a configuration error. Intended for rule
// catalogues built from embedded resources.
func (b *Builder) MustRule(id, messageFormat string, opts ...RuleOption) *Descriptor {
	d, err := b.Rule(id, messageFormat, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func (b *Builder) buildRule(id, messageFormat string, o ruleOptions) (*Descriptor, error) {
	title, err := b.require(id, id+"_Title")
	if err != nil {
		return nil, err
	}
	category, err := b.require(id, id+"_Category")
	if err != nil {
		return nil, err
	}
	description, err := b.require(id, id+"_Description")
	if err != nil {
		return nil, err
	}
	activated, err := b.activatedByDefault(id)
	if err != nil {
		return nil, err
	}
	link, err := b.HelpLink(id)
	if err != nil {
		return nil, err
	}
	lang, err := b.require(id, KeyLanguage)
	if err != nil {
		return nil, err
	}

	enabled := activated
	if o.enabled != nil {
		enabled = *o.enabled
	}

	var tags []string
	if activated {
		tags = append(tags, DefaultProfileTag)
	}
	tags = append(tags, lang)

	return &Descriptor{
		ID:               id,
		Title:            title,
		MessageFormat:    messageFormat,
		Category:         category,
		Description:      description,
		DefaultSeverity:  Warning,
		EnabledByDefault: enabled,
		HelpLink:         link,
		CustomTags:       tags,
	}, nil
}

// Utility returns the descriptor for an internal bookkeeping diagnostic. No
// resources are consulted.
func (b *Builder) Utility(id, title string) (*Descriptor, error) {
	in := buildInputs{kind: "utility", title: title}
	return b.cache.getOrBuild(id, in, func() (*Descriptor, error) {
		var tags []string
		if b.mode == ModeRelease {
			tags = []string{NotConfigurableTag}
		}
		return &Descriptor{
			ID:               id,
			Title:            title,
			DefaultSeverity:  Warning,
			EnabledByDefault: true,
			CustomTags:       tags,
			Utility:          true,
		}, nil
	})
}

// HelpLink formats the help link template with the identifier minus its
// leading character ("S1656" → "1656").
func (b *Builder) HelpLink(id string) (string, error) {
	format, err := b.require(id, KeyHelpLinkFormat)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &ConfigError{ID: id, Err: fmt.Errorf("%w: empty identifier", ErrInvalidResource)}
	}
	return fmt.Sprintf(format, id[1:]), nil
}

func (b *Builder) activatedByDefault(id string) (bool, error) {
	key := id + "_IsActivatedByDefault"
	raw, err := b.require(id, key)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &ConfigError{ID: id, Key: key, Err: fmt.Errorf("%w: %q", ErrInvalidResource, raw)}
	}
	return v, nil
}

func (b *Builder) require(id, key string) (string, error) {
	if b.res == nil {
		return "", &ConfigError{ID: id, Key: key, Err: ErrMissingResource}
	}
	v, ok := b.res.String(key)
	if !ok {
		return "", &ConfigError{ID: id, Key: key, Err: ErrMissingResource}
	}
	return v, nil
}
