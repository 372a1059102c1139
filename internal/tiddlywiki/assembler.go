package tiddlywiki

import (
	"context"
	"log/slog"
	"os/exec"
	"time"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
)

// Assembler builds the wiki edition that includes the packaged plugin.
type Assembler struct {
	opts Options
}

// NewAssembler returns an Assembler for opts.
func NewAssembler(opts Options) *Assembler {
	return &Assembler{opts: opts.withDefaults()}
}

// Args returns the arguments passed after the command when building.
func (a *Assembler) Args() []string {
	return a.opts.args("--build", a.opts.BuildOptions)
}

// Build runs the TiddlyWiki build targets to completion.
func (a *Assembler) Build(ctx context.Context) error {
	start := time.Now()
	cmd := exec.CommandContext(ctx, a.opts.Command[0], a.Args()...) //nolint:gosec // command comes from configuration
	stdout, stderr := a.opts.Stdout, a.opts.Stderr
	if stdout == nil {
		l := newLineLogger(a.opts.Logger, slog.LevelInfo, slog.String("stream", "stdout"))
		defer l.Flush()
		stdout = l
	}
	if stderr == nil {
		l := newLineLogger(a.opts.Logger, slog.LevelWarn, slog.String("stream", "stderr"))
		defer l.Flush()
		stderr = l
	}
	cmd.Stdout, cmd.Stderr = stdout, stderr

	a.opts.Logger.Info("Building wiki", logfields.Path(a.opts.WikiDir), slog.Any("targets", a.opts.BuildOptions))
	if err := cmd.Run(); err != nil {
		return foundationerrors.NewError(foundationerrors.CategoryRuntime, "tiddlywiki build failed").
			WithCause(err).
			WithContext("wiki_dir", a.opts.WikiDir).
			Build()
	}
	a.opts.Logger.Info("Built wiki", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return nil
}
