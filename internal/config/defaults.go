package config

import (
	"fmt"
	"time"
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// CompositeDefaultApplier applies defaults across all configuration domains.
type CompositeDefaultApplier struct {
	appliers []DefaultApplier
}

// NewDefaultApplier creates a composite applier with every domain applier in order.
// Paths come first because the source defaults are derived from them.
func NewDefaultApplier() *CompositeDefaultApplier {
	return &CompositeDefaultApplier{
		appliers: []DefaultApplier{
			&PathsDefaultApplier{},
			&SourcesDefaultApplier{},
			&ToolsDefaultApplier{},
			&WatchDefaultApplier{},
			&BuildDefaultApplier{},
			&MetricsDefaultApplier{},
			&LoggingDefaultApplier{},
		},
	}
}

// ApplyDefaults applies defaults for all configuration domains.
func (c *CompositeDefaultApplier) ApplyDefaults(cfg *Config) error {
	for _, applier := range c.appliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("applying defaults for %s: %w", applier.Domain(), err)
		}
	}
	return nil
}

// GetApplierByDomain returns a specific domain applier.
func (c *CompositeDefaultApplier) GetApplierByDomain(domain string) DefaultApplier {
	for _, applier := range c.appliers {
		if applier.Domain() == domain {
			return applier
		}
	}
	return nil
}

// PathsDefaultApplier fills source, output and wiki directories.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.SourceDir == "" {
		cfg.SourceDir = "./src"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./plugins"
	}
	if cfg.WikiDir == "" {
		cfg.WikiDir = "./"
	}
	return nil
}

// SourcesDefaultApplier merges configured patterns over the default SourceSet.
type SourcesDefaultApplier struct{}

func (s *SourcesDefaultApplier) Domain() string { return "sources" }

func (s *SourcesDefaultApplier) ApplyDefaults(cfg *Config) error {
	defaults := DefaultSources(cfg.SourceDir, cfg.OutputDir, cfg.Author, cfg.PluginName)
	cfg.Sources = MergeSources(defaults, cfg.Sources)
	return nil
}

// ToolsDefaultApplier fills external tool commands and their options.
type ToolsDefaultApplier struct{}

func (t *ToolsDefaultApplier) Domain() string { return "tools" }

func (t *ToolsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.TiddlyWiki.Command) == 0 {
		cfg.TiddlyWiki.Command = []string{"tiddlywiki"}
	}
	if len(cfg.Sass.Command) == 0 {
		cfg.Sass.Command = []string{"sass"}
	}
	if len(cfg.ServeOptions) == 0 {
		cfg.ServeOptions = []string{"port=8087"}
	}
	if len(cfg.BuildOptions) == 0 {
		cfg.BuildOptions = []string{"index"}
	}
	return nil
}

// WatchDefaultApplier sets the change debounce window.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = 300 * time.Millisecond
	}
	return nil
}

// BuildDefaultApplier bounds per-record processing.
type BuildDefaultApplier struct{}

func (b *BuildDefaultApplier) Domain() string { return "build" }

func (b *BuildDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = 8
	}
	if cfg.Build.RecordTimeout < 0 {
		cfg.Build.RecordTimeout = 0
	}
	return nil
}

// MetricsDefaultApplier sets the metrics listen address.
type MetricsDefaultApplier struct{}

func (m *MetricsDefaultApplier) Domain() string { return "metrics" }

func (m *MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9108"
	}
	return nil
}

// LoggingDefaultApplier normalizes level and format.
type LoggingDefaultApplier struct{}

func (l *LoggingDefaultApplier) Domain() string { return "logging" }

func (l *LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}
