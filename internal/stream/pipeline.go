package stream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
)

// Pipeline is glob, then stages, then write.
type Pipeline struct {
	Name    string
	Pattern string
	Stages  []Stage
	Output  string
}

// Run executes the pipeline on fsys. Records that pass every stage are written even
// when some of their siblings failed; the failures are then returned together.
func (p Pipeline) Run(ctx context.Context, fsys billy.Filesystem, opts Options) error {
	if opts.Task == "" {
		opts.Task = p.Name
	}
	log := opts.logger()
	start := time.Now()

	records, err := Glob(fsys, p.Pattern)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to glob sources").
			WithContext("task", p.Name).
			WithContext("pattern", p.Pattern).
			Build()
	}

	out, applyErr := Apply(ctx, records, p.Stages, opts)

	if err := Dest(fsys, p.Output, out.Passed); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write output").
			WithContext("task", p.Name).
			WithContext("output", p.Output).
			Build()
	}

	log.Debug("Pipeline finished",
		logfields.Task(p.Name),
		slog.Int("matched", len(records)),
		slog.Int("written", len(out.Passed)),
		slog.Int("dropped", out.Dropped),
		slog.Int("failed", out.Failed),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	if applyErr != nil {
		return foundationerrors.WrapError(applyErr, foundationerrors.CategoryTransform, "transform failed").
			WithContext("task", p.Name).
			WithContext("failed", out.Failed).
			Build()
	}
	return nil
}

// RecordErrors extracts every RecordError from err, looking through joined and wrapped errors.
func RecordErrors(err error) []*RecordError {
	var out []*RecordError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if r, ok := e.(*RecordError); ok {
			out = append(out, r)
			return
		}
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range j.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
