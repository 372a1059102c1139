package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file looked up when no path is given.
const DefaultConfigFile = "twbuilder.yaml"

// Config is the complete twbuilder configuration.
type Config struct {
	Author       string        `yaml:"author"`
	PluginName   string        `yaml:"plugin_name"`
	SourceDir    string        `yaml:"source_dir,omitempty"`
	OutputDir    string        `yaml:"output_dir,omitempty"`
	WikiDir      string        `yaml:"wiki_dir,omitempty"`
	Sources      SourceSet     `yaml:"sources,omitempty"`
	ServeOptions []string      `yaml:"serve_options,omitempty"`
	BuildOptions []string      `yaml:"build_options,omitempty"`
	TiddlyWiki   ToolConfig    `yaml:"tiddlywiki,omitempty"`
	Sass         ToolConfig    `yaml:"sass,omitempty"`
	Watch        WatchConfig   `yaml:"watch,omitempty"`
	Build        BuildConfig   `yaml:"build,omitempty"`
	Metrics      MetricsConfig `yaml:"metrics,omitempty"`
	Logging      LoggingConfig `yaml:"logging,omitempty"`

	// root is the directory relative paths were resolved against.
	root string
}

// ToolConfig names the command line of an external tool. The first element is the
// executable, the rest are prepended to every invocation.
type ToolConfig struct {
	Command []string `yaml:"command,omitempty"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// BuildConfig controls per-record processing.
type BuildConfig struct {
	// StampCommit records the HEAD commit of the source repository in plugin.info.
	StampCommit bool `yaml:"stamp_commit,omitempty"`
	// RecordTimeout bounds a single stage invocation for one file. Zero disables it.
	RecordTimeout time.Duration `yaml:"record_timeout,omitempty"`
	// Concurrency bounds how many records of one task are processed at once.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// MetricsConfig exposes Prometheus metrics while watching.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Address string `yaml:"address,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Root returns the directory the configuration was resolved against.
func (c *Config) Root() string { return c.root }

// Read parses a configuration file without applying defaults.
// Environment variables in the file are expanded after .env files next to it are loaded.
func Read(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, foundationerrors.NewError(foundationerrors.CategoryNotFound, "configuration file not found").
			WithContext("path", path).
			Build()
	}
	if err := loadEnvFiles(filepath.Dir(path)); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, foundationerrors.ConfigError("failed to parse config file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return &cfg, nil
}

// Load reads the file at path and finalizes it relative to the file's directory.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to resolve config directory").Build()
	}
	if err := cfg.Finalize(abs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies environment overrides and defaults, resolves every relative path
// against root and validates the result.
func (c *Config) Finalize(root string) error {
	c.root = root
	applyEnvOverrides(c)
	if err := NewDefaultApplier().ApplyDefaults(c); err != nil {
		return foundationerrors.ConfigError("failed to apply defaults").WithCause(err).Build()
	}
	c.resolvePaths()
	return c.Validate()
}

func (c *Config) resolvePaths() {
	abs := func(p string) string {
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(c.root, p)
	}
	c.SourceDir = abs(c.SourceDir)
	c.OutputDir = abs(c.OutputDir)
	c.WikiDir = abs(c.WikiDir)
	c.Sources = c.Sources.Resolve(c.root)
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return foundationerrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Config{
		Author:       "yourname",
		PluginName:   "yourplugin",
		SourceDir:    "./src",
		OutputDir:    "./plugins",
		WikiDir:      "./",
		ServeOptions: []string{"port=8087"},
		BuildOptions: []string{"index"},
		Watch:        WatchConfig{Debounce: 300 * time.Millisecond},
		Build:        BuildConfig{StampCommit: true, Concurrency: 8},
		Logging:      LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return foundationerrors.InternalError("failed to marshal example config").WithCause(err).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}

// String is a short description used in diagnostics.
func (c *Config) String() string {
	return fmt.Sprintf("%s/%s", c.Author, c.PluginName)
}
