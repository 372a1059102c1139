package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/metrics"
)

// Options tunes Apply.
type Options struct {
	// Task labels log lines and metrics.
	Task string
	// Concurrency bounds records processed at once. Values below 1 mean unbounded.
	Concurrency int
	// RecordTimeout bounds one stage call for one record. Zero disables the guard.
	RecordTimeout time.Duration
	Logger        *slog.Logger
	Recorder      metrics.Recorder
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Outcome summarizes one Apply call.
type Outcome struct {
	// Passed holds the records that made it through every stage.
	Passed  []*FileRecord
	Dropped int
	Failed  int
}

// Apply runs every record through stages in order. Records are processed concurrently
// and independently: a failing or dropped record is removed from the stream while the
// others carry on. The returned error joins every RecordError.
func Apply(ctx context.Context, records []*FileRecord, stages []Stage, opts Options) (Outcome, error) {
	log := opts.logger()
	rec := metrics.OrNoop(opts.Recorder)

	var (
		mu   sync.Mutex
		out  Outcome
		errs []error
	)

	// Record failures are collected, never returned to the group, so siblings keep running.
	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for _, r := range records {
		g.Go(func() error {
			final, res, stage := runStages(ctx, r, stages, opts.RecordTimeout)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case res.Err != nil:
				out.Failed++
				errs = append(errs, &RecordError{Stage: stage, RelativePath: r.RelativePath, Err: res.Err})
				rec.IncFileOutcome(opts.Task, metrics.FileFailed)
				log.Debug("Record failed", logfields.Task(opts.Task), logfields.Stage(stage), logfields.File(r.RelativePath), logfields.Error(res.Err))
			case res.Dropped:
				out.Dropped++
				rec.IncFileOutcome(opts.Task, metrics.FileDropped)
				log.Debug("Record dropped", logfields.Task(opts.Task), logfields.Stage(stage), logfields.File(r.RelativePath), logfields.Reason(res.Reason))
			default:
				out.Passed = append(out.Passed, final)
				rec.IncFileOutcome(opts.Task, metrics.FileOK)
			}
			return nil
		})
	}
	_ = g.Wait()

	return out, errors.Join(errs...)
}

// runStages applies stages to r and returns the record that survived, the last result
// and the name of the stage that produced it.
func runStages(ctx context.Context, r *FileRecord, stages []Stage, timeout time.Duration) (*FileRecord, Result, string) {
	cur := r
	res := Ok(r.Content)
	for _, s := range stages {
		var next *FileRecord
		next, res = runStage(ctx, s, cur, timeout)
		if res.Err != nil || res.Dropped {
			return nil, res, s.Name
		}
		next.Content = res.Content
		cur = next
	}
	return cur, res, ""
}

func runStage(ctx context.Context, s Stage, r *FileRecord, timeout time.Duration) (*FileRecord, Result) {
	if timeout <= 0 {
		return r, s.Fn(ctx, r.Content, r)
	}

	// The stage works on a private copy. If it hangs, the goroutine is abandoned and
	// whatever it does later cannot leak into the output. Its context is cancelled so
	// child processes started with it are killed.
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	work := r.Clone()
	done := make(chan Result, 1)
	go func() { done <- s.Fn(stageCtx, work.Content, work) }()

	select {
	case res := <-done:
		if res.Err != nil && stageCtx.Err() != nil && ctx.Err() == nil {
			return r, Fail(ErrRecordTimeout)
		}
		return work, res
	case <-stageCtx.Done():
		if err := ctx.Err(); err != nil {
			return r, Fail(err)
		}
		return r, Fail(ErrRecordTimeout)
	}
}
