package taskgraph

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/twbuilder/internal/metrics"
)

type trace struct {
	mu    sync.Mutex
	calls []string
}

func (tr *trace) leaf(name string, err error) *Node {
	return Leaf(name, func(context.Context) error {
		tr.mu.Lock()
		tr.calls = append(tr.calls, name)
		tr.mu.Unlock()
		return err
	})
}

func (tr *trace) names() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.calls...)
}

func TestSeries_ShortCircuits(t *testing.T) {
	tr := &trace{}
	boom := errors.New("boom")
	g := Series("chain", tr.leaf("A", nil), tr.leaf("B", boom), tr.leaf("C", nil))

	err := NewExecutor(nil, nil).Run(context.Background(), g)
	require.Error(t, err)
	assert.Equal(t, []string{"A", "B"}, tr.names())

	var abort *SeriesAbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, "chain", abort.Chain)
	assert.Equal(t, "B", abort.Step)
	assert.Equal(t, []string{"C"}, abort.Skipped)
	assert.ErrorIs(t, err, boom)

	var te *TaskError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "B", te.Task)
}

func TestSeries_OrderIsStrict(t *testing.T) {
	var running atomic.Int32
	var overlap atomic.Bool
	step := func(name string) *Node {
		return Leaf(name, func(context.Context) error {
			if running.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}
	g := Series("s", step("a"), step("b"), step("c"))
	require.NoError(t, NewExecutor(nil, nil).Run(context.Background(), g))
	assert.False(t, overlap.Load())
}

func TestParallel_Isolation(t *testing.T) {
	release := make(chan struct{})
	var yDone atomic.Bool
	x := Leaf("X", func(context.Context) error {
		close(release)
		return errors.New("x failed")
	})
	y := Leaf("Y", func(ctx context.Context) error {
		<-release
		time.Sleep(20 * time.Millisecond)
		assert.NoError(t, ctx.Err())
		yDone.Store(true)
		return nil
	})

	err := NewExecutor(nil, nil).Run(context.Background(), Parallel("group", x, y))
	require.Error(t, err)
	assert.True(t, yDone.Load(), "sibling must run to completion")

	var ge *GroupError
	require.ErrorAs(t, err, &ge)
	require.Len(t, ge.Errors, 1)
	assert.Contains(t, ge.Errors[0].Error(), "X")
}

func TestParallel_CollectsAllFailures(t *testing.T) {
	tr := &trace{}
	g := Parallel("group", tr.leaf("a", errors.New("1")), tr.leaf("b", nil), tr.leaf("c", errors.New("2")))
	err := NewExecutor(nil, nil).Run(context.Background(), g)

	var ge *GroupError
	require.ErrorAs(t, err, &ge)
	assert.Len(t, ge.Errors, 2)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, tr.names())
}

func TestSeries_StopsOnGroupFailure(t *testing.T) {
	tr := &trace{}
	g := Series("build",
		Parallel("default", tr.leaf("x", errors.New("bad")), tr.leaf("y", nil)),
		tr.leaf("originCopy", nil),
	)
	err := NewExecutor(nil, nil).Run(context.Background(), g)
	require.Error(t, err)
	assert.NotContains(t, tr.names(), "originCopy")

	var ge *GroupError
	assert.ErrorAs(t, err, &ge)
}

func TestSeries_CancelledContextSkipsRemaining(t *testing.T) {
	tr := &trace{}
	ctx, cancel := context.WithCancel(context.Background())
	g := Series("s",
		Leaf("cancel", func(context.Context) error { cancel(); return nil }),
		tr.leaf("after", nil),
	)
	err := NewExecutor(nil, nil).Run(ctx, g)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, tr.names())
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	complete map[string]error
}

func (o *recordingObserver) OnTaskStart(task string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, task)
}

func (o *recordingObserver) OnTaskComplete(task string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.complete == nil {
		o.complete = map[string]error{}
	}
	o.complete[task] = err
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[string]metrics.ResultLabel
}

func (c *countingRecorder) IncTaskResult(task string, r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[string]metrics.ResultLabel{}
	}
	c.results[task] = r
}

func TestExecutor_ObserverAndMetrics(t *testing.T) {
	tr := &trace{}
	obs := &recordingObserver{}
	rec := &countingRecorder{}
	ex := NewExecutor(nil, rec).WithObserver(obs)

	_ = ex.Run(context.Background(), Series("s", tr.leaf("ok", nil), tr.leaf("bad", errors.New("x"))))

	assert.Equal(t, []string{"ok", "bad"}, obs.started)
	assert.NoError(t, obs.complete["ok"])
	assert.Error(t, obs.complete["bad"])
	assert.Equal(t, metrics.ResultSuccess, rec.results["ok"])
	assert.Equal(t, metrics.ResultFailed, rec.results["bad"])
}

func TestNode_LeavesAndFind(t *testing.T) {
	g := Series("build", Parallel("default", Leaf("a", nil), Leaf("b", nil)), Leaf("c", nil))
	assert.Equal(t, []string{"a", "b", "c"}, g.Leaves())
	require.NotNil(t, g.Find("default"))
	assert.Equal(t, KindParallel, g.Find("default").Kind)
	assert.Nil(t, g.Find("missing"))
	require.NoError(t, NewExecutor(nil, nil).Run(context.Background(), g))
}
