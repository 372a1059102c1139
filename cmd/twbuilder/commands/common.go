// Package commands implements the twbuilder command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/twbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/metrics"
	"git.home.luguber.info/inful/twbuilder/internal/taskgraph"
	"git.home.luguber.info/inful/twbuilder/internal/tasks"
	"git.home.luguber.info/inful/twbuilder/internal/tiddlywiki"
)

// Global is shared with every command.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"twbuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`
	Author  string           `help:"Plugin author (overrides the configuration file)"`
	Plugin  string           `help:"Plugin name (overrides the configuration file)"`

	Build     BuildCmd     `cmd:"" help:"Build the plugin (all kinds, then originCopy)"`
	Assemble  AssembleCmd  `cmd:"" help:"Build the plugin and assemble the wiki with TiddlyWiki"`
	Default   DefaultCmd   `cmd:"" help:"Run every kind task in parallel"`
	Task      TaskCmd      `cmd:"" help:"Run a single task or graph by name"`
	Watch     WatchCmd     `cmd:"" help:"Rebuild on change and restart the development server"`
	Serve     ServeCmd     `cmd:"" help:"Start the TiddlyWiki development server"`
	Init      InitCmd      `cmd:"" help:"Initialize a new configuration file"`
	Visualize VisualizeCmd `cmd:"" help:"Visualize a task graph (text, mermaid, dot, json)"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, config.LogFormatText, level)
	slog.SetDefault(g.Logger)
	return nil
}

func newLogger(w io.Writer, format config.LogFormat, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadConfig reads the configuration file and applies the --author and --plugin flags.
// A missing file is accepted when both flags are given.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Read(c.Config)
	switch {
	case err == nil:
	case foundationerrors.HasCategory(err, foundationerrors.CategoryNotFound) && c.Author != "" && c.Plugin != "":
		cfg = &config.Config{}
	default:
		return nil, err
	}
	if c.Author != "" {
		cfg.Author = c.Author
	}
	if c.Plugin != "" {
		cfg.PluginName = c.Plugin
	}

	root, err := filepath.Abs(filepath.Dir(c.Config))
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to resolve config directory").Build()
	}
	if err := cfg.Finalize(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogging applies the logging section unless --verbose already asked for debug.
func (c *CLI) configureLogging(g *Global, cfg *config.Config) {
	level := cfg.Logging.Level.SlogLevel()
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = newLogger(os.Stderr, cfg.Logging.Format, level)
	slog.SetDefault(g.Logger)
}

// env bundles everything a command needs to run graphs.
type env struct {
	cfg      *config.Config
	builder  *tasks.Builder
	server   *tiddlywiki.Server
	executor *taskgraph.Executor
	logger   *slog.Logger
}

// setup loads the configuration and wires the task builder. With check set, source
// kinds that match the same file are rejected before anything is written.
func (c *CLI) setup(ctx context.Context, g *Global, recorder metrics.Recorder, check bool) (*env, error) {
	cfg, err := c.LoadConfig()
	if err != nil {
		return nil, err
	}
	c.configureLogging(g, cfg)
	logger := g.Logger.With(logfields.Plugin(cfg.String()))

	twOpts := tiddlywiki.Options{
		WikiDir:      cfg.WikiDir,
		ServeOptions: cfg.ServeOptions,
		BuildOptions: cfg.BuildOptions,
		Command:      cfg.TiddlyWiki.Command,
		Logger:       logger,
	}
	server := tiddlywiki.NewServer(twOpts)
	b, err := tasks.New(cfg, tasks.Deps{
		Server:    server,
		Assembler: tiddlywiki.NewAssembler(twOpts),
		Logger:    logger,
		Recorder:  recorder,
	})
	if err != nil {
		return nil, err
	}
	if check {
		if err := b.CheckDisjoint(ctx); err != nil {
			return nil, err
		}
	}
	return &env{
		cfg:      cfg,
		builder:  b,
		server:   server,
		executor: taskgraph.NewExecutor(logger, recorder),
		logger:   logger,
	}, nil
}

// run executes node and converts a failure into a task error for the exit code.
func (e *env) run(ctx context.Context, node *taskgraph.Node) error {
	if err := e.executor.Run(ctx, node); err != nil {
		return foundationerrors.TaskError("task failed").
			WithCause(err).
			WithContext("task", node.Name).
			Build()
	}
	e.logger.Info("Task completed", logfields.Task(node.Name))
	return nil
}
