package btr

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTreeAbortPropagation covers S5: Par(A, Seq(B, C)); abort is called
// on the root while A and B are Running. A, B, C, the inner Sequence and
// the root must all reach Aborted, with on_terminate observed for every
// node Abort actually touched.
func TestTreeAbortPropagation(t *testing.T) {
	a := newScriptedAction(scriptedResult{status: Running})
	b := newScriptedAction(scriptedResult{status: Running})
	c := newScriptedAction(scriptedResult{status: Running})

	spec, err := Compile(Config{
		ID:            "root",
		Kind:          Parallel,
		TickPeriodMS:  1,
		SuccessPolicy: "all",
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
			{
				ID:           "seq",
				Kind:         Sequence,
				TickPeriodMS: 1,
				Children: []Config{
					{ID: "b", Kind: Action, ActionRef: "b", TickPeriodMS: 1},
					{ID: "c", Kind: Action, ActionRef: "c", TickPeriodMS: 1},
				},
			},
		},
	}, MapRegistry{"a": a, "b": b, "c": c})
	require.NoError(t, err)

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{Clock: clock})

	assert.Equal(t, Running, handle.Tick())
	// c is never reached: the inner Sequence's cursor is still on b.
	assert.Equal(t, 0, c.initCount())

	handle.Abort()

	assert.Equal(t, Aborted, handle.Status())
	assert.Equal(t, Aborted, handle.root.children[0].StatusNow()) // a
	assert.Equal(t, Aborted, handle.root.children[1].StatusNow()) // seq
	assert.Equal(t, Aborted, handle.root.children[1].children[0].StatusNow()) // b
	assert.Equal(t, Aborted, handle.root.children[1].children[1].StatusNow()) // c

	assert.Equal(t, 1, a.termCount())
	assert.Equal(t, 1, b.termCount())
	// c is aborted even though it was never activated: Abort recurses
	// into every non-terminal descendant regardless of whether it had
	// already started.
	assert.Equal(t, 1, c.termCount())
	assert.Equal(t, 0, c.initCount())

	// idempotent: a second abort is a no-op.
	handle.Abort()
	assert.Equal(t, 1, a.termCount())
}

// TestTreeReset covers §6 reset: a terminal tree returns to Fresh and can
// be driven through its lifecycle again from scratch.
func TestTreeReset(t *testing.T) {
	a := succeedAfter(1)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Sequence,
		TickPeriodMS: 1,
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
		},
	}, MapRegistry{"a": a})
	require.NoError(t, err)

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{Clock: clock})

	assert.Equal(t, Success, handle.Tick())
	assert.Equal(t, 1, a.initCount())

	// reset is a no-op on an already-Fresh node and a real reset on a
	// terminal one.
	handle.Reset()
	assert.Equal(t, Fresh, handle.Status())

	clock.Advance(testTick)
	assert.Equal(t, Success, handle.Tick())
	assert.Equal(t, 2, a.initCount())
}

// TestTreeRunStopsOnTerminal covers the ambient Run loop: it drives Tick
// on a schedule and stops itself once the tree reaches a terminal status.
func TestTreeRunStopsOnTerminal(t *testing.T) {
	a := succeedAfter(2)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Sequence,
		TickPeriodMS: 1,
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
		},
	}, MapRegistry{"a": a})
	require.NoError(t, err)

	handle := Spawn(spec, nil, Sinks{})
	stop := handle.Run(2 * time.Millisecond)
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if handle.Status().Terminal() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	assert.Equal(t, Success, handle.Status())
}

// blockingLeaf never returns from its first Update call, modeling a
// runaway leaf whose goroutine cannot be cooperatively cancelled. It
// exists to drive TreeHandle.Run's stop() past ShutdownDeadlines.ForceMS,
// the whole-tree half of §4.5's two-phase shutdown.
type blockingLeaf struct {
	unblock chan struct{}
}

func (a *blockingLeaf) OnInit(Context) error { return nil }

func (a *blockingLeaf) Update(Context) (Status, error) {
	<-a.unblock
	return Success, nil
}

func (a *blockingLeaf) OnTerminate(Status) {}

// TestTreeRunStopForceDeadline covers §4.5's whole-tree shutdown deadline:
// when the tick goroutine is stuck inside a leaf's Update and never
// observes cancellation, stop() must not block forever on wg.Wait() —
// it has to give up at ShutdownDeadlines.ForceMS and surface a fatal
// ShutdownDeadlineExceeded fault.
func TestTreeRunStopForceDeadline(t *testing.T) {
	a := &blockingLeaf{unblock: make(chan struct{})}
	defer close(a.unblock)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Action,
		ActionRef:    "a",
		TickPeriodMS: 1,
	}, MapRegistry{"a": a})
	require.NoError(t, err)

	var (
		mu     sync.Mutex
		faults []*Fault
	)
	sink := ErrorSinkFunc(func(f *Fault) {
		mu.Lock()
		defer mu.Unlock()
		faults = append(faults, f)
	})

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{
		Clock:             clock,
		ErrorSink:         sink,
		ShutdownDeadlines: ShutdownDeadlines{ChildAckMS: 50, ForceMS: 5},
	})

	stop := handle.Run(time.Millisecond)
	clock.Advance(time.Millisecond) // deliver the first tick; Update blocks forever.

	// Give the Run goroutine a moment to actually enter the blocked
	// Update call before we ask it to stop.
	time.Sleep(20 * time.Millisecond)

	errCh := make(chan error, 1)
	go func() { errCh <- stop() }()

	// stop() is now blocked choosing between <-done and
	// <-Clock.After(ForceMS); give it a moment to register the latter
	// before advancing past it.
	time.Sleep(20 * time.Millisecond)
	clock.Advance(5 * time.Millisecond)

	select {
	case err := <-errCh:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stop() did not return after ForceMS expired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, faults)
	assert.Equal(t, ShutdownDeadlineExceeded, faults[len(faults)-1].Kind)
}
