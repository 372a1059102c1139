package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
)

// Validate checks a finalized configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Author) == "" {
		return foundationerrors.ValidationError("author is required").
			WithContext("field", "author").
			Build()
	}
	if strings.TrimSpace(c.PluginName) == "" {
		return foundationerrors.ValidationError("plugin_name is required").
			WithContext("field", "plugin_name").
			Build()
	}
	for _, name := range []string{c.Author, c.PluginName} {
		if strings.ContainsAny(name, `/\ `) {
			return foundationerrors.ValidationError("author and plugin_name must not contain slashes or spaces").
				WithContext("value", name).
				Build()
		}
	}
	if err := validateToolOptions("serve_options", c.ServeOptions); err != nil {
		return err
	}
	if c.Build.Concurrency <= 0 {
		return foundationerrors.ValidationError("build.concurrency must be positive").
			WithContext("value", c.Build.Concurrency).
			Build()
	}
	return c.Sources.Validate()
}

func validateToolOptions(field string, opts []string) error {
	for _, opt := range opts {
		if k, _, ok := strings.Cut(opt, "="); !ok || k == "" {
			return foundationerrors.ValidationError("tool options must be key=value").
				WithContext("field", field).
				WithContext("value", opt).
				Build()
		}
	}
	return nil
}

// Validate rejects empty or malformed patterns and patterns shared between kinds.
func (s SourceSet) Validate() error {
	seen := make(map[string]Kind, len(Kinds()))
	for _, k := range Kinds() {
		p := s.Pattern(k)
		if p == "" {
			return foundationerrors.ValidationError("source pattern is empty").
				WithContext("kind", string(k)).
				Build()
		}
		if !doublestar.ValidatePattern(p) {
			return foundationerrors.ValidationError("invalid source pattern").
				WithContext("kind", string(k)).
				WithContext("pattern", p).
				Build()
		}
		if other, dup := seen[p]; dup {
			return foundationerrors.ValidationError("source pattern used by more than one kind").
				WithContext("kind", string(k)).
				WithContext("other", string(other)).
				WithContext("pattern", p).
				Build()
		}
		seen[p] = k
	}
	if s.Output == "" {
		return foundationerrors.ValidationError("output directory is empty").Build()
	}
	return nil
}
