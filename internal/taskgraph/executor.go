package taskgraph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/metrics"
)

// Observer is notified around every leaf.
type Observer interface {
	OnTaskStart(task string)
	OnTaskComplete(task string, err error, d time.Duration)
}

// Executor walks task graphs.
type Executor struct {
	logger   *slog.Logger
	recorder metrics.Recorder
	observer Observer
}

// NewExecutor returns an Executor. A nil logger uses slog.Default and a nil recorder
// records nothing.
func NewExecutor(logger *slog.Logger, recorder metrics.Recorder) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{logger: logger, recorder: metrics.OrNoop(recorder)}
}

// WithObserver returns a copy of e notifying o.
func (e *Executor) WithObserver(o Observer) *Executor {
	c := *e
	c.observer = o
	return &c
}

// Run executes n and returns its failure, if any.
//
// Parallel members are started together and never cancelled because a sibling failed.
// Series members start only after the previous one succeeded.
func (e *Executor) Run(ctx context.Context, n *Node) error {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case KindLeaf:
		return e.runLeaf(ctx, n)
	case KindParallel:
		return e.runParallel(ctx, n)
	case KindSeries:
		return e.runSeries(ctx, n)
	default:
		return fmt.Errorf("node %s: unknown kind %d", n.Name, n.Kind)
	}
}

func (e *Executor) runLeaf(ctx context.Context, n *Node) error {
	if e.observer != nil {
		e.observer.OnTaskStart(n.Name)
	}
	e.logger.Info("Starting task", logfields.Task(n.Name))
	start := time.Now()

	var err error
	if n.Fn != nil {
		err = n.Fn(ctx)
	}

	d := time.Since(start)
	e.recorder.ObserveTaskDuration(n.Name, d)
	if err != nil {
		e.recorder.IncTaskResult(n.Name, metrics.ResultFailed)
		e.logger.Error("Task failed", logfields.Task(n.Name), logfields.DurationMS(float64(d.Milliseconds())), logfields.Error(err))
		err = &TaskError{Task: n.Name, Err: err}
	} else {
		e.recorder.IncTaskResult(n.Name, metrics.ResultSuccess)
		e.logger.Info("Finished task", logfields.Task(n.Name), logfields.DurationMS(float64(d.Milliseconds())))
	}
	if e.observer != nil {
		e.observer.OnTaskComplete(n.Name, err, d)
	}
	return err
}

func (e *Executor) runParallel(ctx context.Context, n *Node) error {
	errs := make([]error, len(n.Children))
	// A plain Group: a failing member must not cancel its siblings.
	var g errgroup.Group
	for i, child := range n.Children {
		g.Go(func() error {
			errs[i] = e.Run(ctx, child)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		return &GroupError{Group: n.Name, Errors: failed}
	}
	return nil
}

func (e *Executor) runSeries(ctx context.Context, n *Node) error {
	for i, child := range n.Children {
		err := ctx.Err()
		if err == nil {
			err = e.Run(ctx, child)
		}
		if err != nil {
			skipped := make([]string, 0, len(n.Children)-i-1)
			for _, rest := range n.Children[i+1:] {
				skipped = append(skipped, rest.Name)
			}
			e.logger.Debug("Series aborted", logfields.Node(n.Name), logfields.Task(child.Name), slog.Any("skipped", skipped))
			return &SeriesAbortError{Chain: n.Name, Step: child.Name, Skipped: skipped, Err: err}
		}
	}
	return nil
}
