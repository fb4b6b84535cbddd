package btr

import (
	gocontext "context"
	"sync"
	"time"
)

// TreeHandle is the external control surface over one spawned tree (§6):
// tick, status, abort, reset, plus an optional ambient Run loop.
type TreeHandle struct {
	root *worker
	env  *env

	mu      sync.Mutex
	running bool
	cancel  gocontext.CancelFunc
	wg      sync.WaitGroup
}

// Spawn builds a live worker tree from a compiled NodeSpec (§6 spawn).
// userCtx is the opaque value handed to every Action callback; sinks wires
// the tree's collaborators (event/error sinks, clock, restart policy,
// shutdown deadlines, logger, trace context), falling back to documented
// defaults for anything left zero-valued.
func Spawn(spec *NodeSpec, userCtx Context, sinks Sinks) *TreeHandle {
	e := newEnv(sinks, userCtx)
	return &TreeHandle{root: newWorker(spec, e), env: e}
}

// Tick advances the whole tree by one logical step, synchronously (§6
// tick). Composite nodes recurse into their children as part of their own
// update; the only place real concurrency is introduced is Parallel
// (parallel.go's fork-join).
func (h *TreeHandle) Tick() Status {
	return h.root.Tick(h.env.sinks.Clock.Now())
}

// Status reports the tree's current status without ticking it (§6 status).
func (h *TreeHandle) Status() Status { return h.root.StatusNow() }

// Abort forces the tree to Aborted, synchronously and recursively (§6 abort).
func (h *TreeHandle) Abort() { h.root.Abort(h.env.sinks.Clock.Now()) }

// Reset returns a terminal tree to Fresh, recursively (§6 reset). It is a
// no-op unless the root is already terminal.
func (h *TreeHandle) Reset() { h.root.Reset() }

// Run starts an ambient goroutine that calls Tick every period until the
// returned stop func is invoked or the tree reaches a terminal status.
// Generalizes littlealbert's run.go tick-rate loop (one root span per
// tick) to use the per-node span instrumentation of tracing.go. Tick
// itself is always synchronous and callable directly; Run is a
// convenience for trees driven on a wall-clock schedule rather than by an
// external scheduler.
//
// The returned stop func enforces the second, whole-tree deadline of
// §4.5's two-phase shutdown (shutdown_deadlines.force_ms): if the tick
// goroutine hasn't acknowledged cancellation within ForceMS — on top of
// whatever per-child ChildAckMS budget safeTerminate already gives each
// leaf — stop returns a non-nil error and raises a fatal
// ShutdownDeadlineExceeded fault (§7: "fatal; surface to caller") instead
// of blocking forever.
func (h *TreeHandle) Run(period time.Duration) (stop func() error) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return func() error { return nil }
	}
	h.running = true
	ch, stopTicker := h.env.sinks.Clock.NewTicker(period)
	gctx, cancel := gocontext.WithCancel(h.env.gctx)
	h.cancel = cancel
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer stopTicker()
		for {
			select {
			case <-gctx.Done():
				return
			case <-ch:
				span, spanCtx := startTickSpan(gctx, h.root.spec.ID, h.root.spec.Kind)
				status := h.Tick()
				finishTickSpan(span, status, nil)
				_ = spanCtx
				if status.Terminal() {
					return
				}
			}
		}
	}()

	return func() error {
		h.mu.Lock()
		if h.cancel != nil {
			h.cancel()
		}
		h.running = false
		h.mu.Unlock()

		done := make(chan struct{})
		go func() {
			h.wg.Wait()
			close(done)
		}()

		forceMS := h.env.sinks.ShutdownDeadlines.ForceMS
		select {
		case <-done:
			return nil
		case <-h.env.sinks.Clock.After(time.Duration(forceMS) * time.Millisecond):
			deadline := time.Duration(forceMS) * time.Millisecond
			err := errShutdownDeadlineExceeded(h.root.spec.ID, deadline)
			h.env.fault(faultErr(h.root.spec.ID, ShutdownDeadlineExceeded, err))
			return err
		}
	}
}
