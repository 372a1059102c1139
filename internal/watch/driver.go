// Package watch re-runs the watch graph whenever the source tree changes.
//
// The first run starts immediately. Runs never overlap: changes that arrive during a
// run are coalesced into exactly one follow-up run. A failed run is reported and the
// driver keeps waiting for the next change.
package watch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/twbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/twbuilder/internal/logfields"
	"git.home.luguber.info/inful/twbuilder/internal/metrics"
	"git.home.luguber.info/inful/twbuilder/internal/taskgraph"
)

// State is the driver's run state.
type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// RunReport describes one finished run.
type RunReport struct {
	ID       string
	Err      error
	Duration time.Duration
}

// Stopper stops the development server on shutdown.
type Stopper interface {
	StopAnyRunningServer(ctx context.Context) error
}

// Options configure a Driver.
type Options struct {
	// Root is watched when Source is nil.
	Root     string
	Graph    *taskgraph.Node
	Executor *taskgraph.Executor
	// Server is stopped when the driver shuts down. Optional.
	Server   Stopper
	Debounce time.Duration
	Source   EventSource
	Logger   *slog.Logger
	Recorder metrics.Recorder
	// OnRun receives every report. It runs on the worker goroutine.
	OnRun func(RunReport)
	// ShutdownTimeout bounds stopping the server on exit.
	ShutdownTimeout time.Duration
}

// Driver binds change notifications to graph runs.
type Driver struct {
	opts Options

	mu    sync.Mutex
	state State
}

// New returns a Driver. Nothing runs until Run is called.
func New(opts Options) *Driver {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Executor == nil {
		opts.Executor = taskgraph.NewExecutor(opts.Logger, opts.Recorder)
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Driver{opts: opts}
}

// State reports whether a run is in progress.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Driver) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Run watches until ctx is cancelled. On exit it waits for the current run and stops
// the server.
func (d *Driver) Run(ctx context.Context) error {
	log := d.opts.Logger
	src := d.opts.Source
	if src == nil {
		s, err := NewFSSource(d.opts.Root, log)
		if err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to watch sources").
				WithContext("root", d.opts.Root).
				Build()
		}
		src = s
	}
	defer func() { _ = src.Close() }()

	pending := make(chan struct{}, 1)
	request := func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		d.worker(ctx, stop, pending)
	}()

	var timerMu sync.Mutex
	var timer *time.Timer
	trigger := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d.opts.Debounce, request)
	}

	log.Info("Watching for changes", logfields.Path(d.opts.Root), slog.Duration("debounce", d.opts.Debounce))
	request()

	events, errs := src.Events(), src.Errors()
	for {
		select {
		case <-ctx.Done():
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timerMu.Unlock()
			close(stop)
			wg.Wait()
			return d.shutdown()
		case name, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			log.Debug("Change queued", logfields.Path(name))
			trigger()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (d *Driver) worker(ctx context.Context, stop <-chan struct{}, pending <-chan struct{}) {
	// Runs outlive cancellation so a shutdown never leaves a half written output tree.
	runCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-stop:
			return
		case <-pending:
			select {
			case <-stop:
				return
			default:
			}
			d.runOnce(runCtx)
		}
	}
}

func (d *Driver) runOnce(ctx context.Context) {
	id := uuid.NewString()
	log := d.opts.Logger.With(logfields.RunID(id))

	d.setState(StateRunning)
	log.Info("Change detected; running watch graph", logfields.Node(nodeName(d.opts.Graph)))
	start := time.Now()
	err := d.opts.Executor.Run(ctx, d.opts.Graph)
	dur := time.Since(start)
	d.setState(StateIdle)

	d.opts.Recorder.ObserveRunDuration(dur)
	switch {
	case err == nil:
		d.opts.Recorder.IncRunOutcome(metrics.RunSuccess)
		log.Info("Run finished", logfields.DurationMS(float64(dur.Milliseconds())))
	case foundationerrors.HasCategory(err, foundationerrors.CategoryServer):
		d.opts.Recorder.IncRunOutcome(metrics.RunFailed)
		log.Error("Server restart failed; waiting for changes", logfields.Error(err))
	default:
		d.opts.Recorder.IncRunOutcome(metrics.RunFailed)
		log.Error("Run failed; waiting for changes", logfields.Error(err))
	}

	if d.opts.OnRun != nil {
		d.opts.OnRun(RunReport{ID: id, Err: err, Duration: dur})
	}
}

func (d *Driver) shutdown() error {
	d.opts.Logger.Info("Shutting down watcher...")
	if d.opts.Server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.opts.ShutdownTimeout)
	defer cancel()
	if err := d.opts.Server.StopAnyRunningServer(ctx); err != nil {
		return foundationerrors.ServerError("failed to stop server").WithCause(err).Build()
	}
	return nil
}

func nodeName(n *taskgraph.Node) string {
	if n == nil {
		return ""
	}
	return n.Name
}
