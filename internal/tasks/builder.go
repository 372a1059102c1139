// Package tasks defines the per-kind build tasks and composes them into the build,
// default and watch graphs.
package tasks

import (
	"context"
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"git.home.luguber.info/inful/twbuilder/internal/annotate"
	"git.home.luguber.info/inful/twbuilder/internal/config"
	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/manifest"
	"git.home.luguber.info/inful/twbuilder/internal/metabundle"
	"git.home.luguber.info/inful/twbuilder/internal/metrics"
	"git.home.luguber.info/inful/twbuilder/internal/stream"
	"git.home.luguber.info/inful/twbuilder/internal/stylec"
)

// Server is the development server handle restarted by the watch graph.
type Server interface {
	Serve(ctx context.Context) error
	StopAnyRunningServer(ctx context.Context) error
}

// Assembler builds the wiki after the plugin was written.
type Assembler interface {
	Build(ctx context.Context) error
}

// CompilerFactory returns a style compiler for an output style.
type CompilerFactory func(style stylec.OutputStyle) stylec.Compiler

// Deps are the collaborators of a Builder. Zero values select production defaults
// where one exists.
type Deps struct {
	// FS is read and written with absolute paths. Defaults to the OS filesystem.
	FS        billy.Filesystem
	Compilers CompilerFactory
	Server    Server
	Assembler Assembler
	Logger    *slog.Logger
	Recorder  metrics.Recorder
	// Commit overrides the source commit stamped into the manifest.
	Commit string
}

// Builder closes every task over one immutable configuration.
type Builder struct {
	cfg      config.Config
	id       annotate.Identity
	fs       billy.Filesystem
	compiler CompilerFactory
	server   Server
	assemble Assembler
	logger   *slog.Logger
	recorder metrics.Recorder
	commit   string
	bundler  *metabundle.Bundler
}

// New captures cfg and wires the task dependencies. cfg must be finalized.
func New(cfg *config.Config, deps Deps) (*Builder, error) {
	if cfg == nil {
		return nil, foundationerrors.InternalError("tasks: nil config").Build()
	}
	b := &Builder{
		cfg:      *cfg,
		id:       annotate.Identity{Author: cfg.Author, PluginName: cfg.PluginName},
		fs:       deps.FS,
		compiler: deps.Compilers,
		server:   deps.Server,
		assemble: deps.Assembler,
		logger:   deps.Logger,
		recorder: metrics.OrNoop(deps.Recorder),
		commit:   deps.Commit,
	}
	if b.fs == nil {
		b.fs = osfs.New("/")
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.compiler == nil {
		command := cfg.Sass.Command
		b.compiler = func(style stylec.OutputStyle) stylec.Compiler {
			return stylec.NewSassCLI(command, style)
		}
	}
	if b.commit == "" && cfg.Build.StampCommit {
		commit, err := manifest.SourceCommit(cfg.SourceDir)
		if err != nil {
			b.logger.Warn("Could not resolve source commit", logfields.Path(cfg.SourceDir), logfields.Error(err))
		}
		b.commit = commit
	}
	b.bundler = metabundle.New(b.fs, b.logger)

	b.logger.Info("Using following source configurations",
		logfields.Plugin(b.id.Root()),
		slog.Any("sources", b.cfg.Sources))
	return b, nil
}

// Identity returns the plugin identity every task annotates with.
func (b *Builder) Identity() annotate.Identity { return b.id }

// Sources returns the merged source set.
func (b *Builder) Sources() config.SourceSet { return b.cfg.Sources }

func (b *Builder) options(task string) stream.Options {
	return stream.Options{
		Task:          task,
		Concurrency:   b.cfg.Build.Concurrency,
		RecordTimeout: b.cfg.Build.RecordTimeout,
		Logger:        b.logger,
		Recorder:      b.recorder,
	}
}

func (b *Builder) pipeline(name string, kind config.Kind, stages ...stream.Stage) stream.Pipeline {
	return stream.Pipeline{
		Name:    name,
		Pattern: b.cfg.Sources.Pattern(kind),
		Stages:  stages,
		Output:  b.cfg.Sources.Output,
	}
}
