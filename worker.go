package btr

import (
	"sync"
	"time"
)

// worker is the live, per-node runtime state of §3's NodeState: one
// worker exists per node in a spawned tree, for both leaf and composite
// kinds. Per §5 ("one worker per node, running concurrently with other
// workers"), every worker may be ticked independently; this implementation
// uses a cooperative scheduler (ticks are plain synchronous calls driven
// by the parent, recursively from the root) with real goroutine fan-out
// only where the spec requires simultaneous execution (Parallel's
// children, see parallel.go) — one of the two strategies §5 explicitly
// sanctions ("a pure cooperative single-threaded implementation is also
// valid provided the priority-inversion / starvation properties ... are
// maintained"). See DESIGN.md for the full rationale.
type worker struct {
	spec *NodeSpec
	env  *env

	mu             sync.Mutex
	status         Status
	initialized    bool
	lastTickAt     time.Time
	controlCounter uint64
	tickViolations int
	lastFault      *Fault

	// composite-only.
	children   []*worker
	cursor     int
	order      []int
	perChild   map[string]Status
	supervisor *supervisor

	// leaf-only.
	action Action
}

func newWorker(spec *NodeSpec, e *env) *worker {
	w := &worker{spec: spec, env: e, status: Fresh}
	if spec.leaf() {
		w.action = spec.action
		return w
	}
	w.supervisor = newSupervisor(e.sinks.RestartPolicy)
	w.perChild = make(map[string]Status, len(spec.Children))
	for _, childSpec := range spec.Children {
		w.children = append(w.children, newWorker(childSpec, e))
	}
	return w
}

// StatusNow returns the worker's current status without ticking it.
func (w *worker) StatusNow() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// LastFault returns and clears the fault (if any) produced by the most
// recent Tick, so a supervising parent can consume it exactly once.
func (w *worker) LastFault() *Fault {
	w.mu.Lock()
	defer w.mu.Unlock()
	f := w.lastFault
	w.lastFault = nil
	return f
}

// due reports whether enough time on the tree's Clock has passed since the
// last activation to honor this node's own tick_period_ms (§4.4.5: "children
// still honor their own tick_period_ms between successive updates").
func (w *worker) due(now time.Time) bool {
	if w.lastTickAt.IsZero() {
		return true
	}
	period := time.Duration(w.spec.TickPeriodMS) * time.Millisecond
	return !now.Before(w.lastTickAt.Add(period))
}

// Tick advances the node by one logical step (§4.2's `update`). It is a
// no-op returning the cached status if the node is already terminal
// (leaf runtime step 1) or not yet due per its own tick_period_ms.
func (w *worker) Tick(now time.Time) Status {
	w.mu.Lock()
	if w.status.Terminal() {
		status := w.status
		w.mu.Unlock()
		return status
	}
	if !w.due(now) {
		status := w.status
		w.mu.Unlock()
		return status
	}
	w.mu.Unlock()
	return w.activate(now)
}

func (w *worker) activate(now time.Time) Status {
	w.mu.Lock()
	firstActivation := !w.initialized
	if firstActivation {
		w.initialized = true
	}
	w.lastTickAt = now
	w.controlCounter++
	w.mu.Unlock()

	if firstActivation {
		prevStatus := w.StatusNow()
		w.setStatus(Running)
		w.env.emit(EventStarted, w.spec.ID, prevStatus, Running, "")
		if w.spec.leaf() {
			if err := w.safeInit(); err != nil {
				return w.failWith(faultErr(w.spec.ID, FaultInUpdate, err))
			}
		} else {
			compositeDispatch[w.spec.Kind].onEnter(w)
		}
	}

	span, _ := startTickSpan(w.env.gctx, w.spec.ID, w.spec.Kind)
	start := time.Now()
	status, fault := w.runUpdate(now)
	elapsed := time.Since(start)
	if fault != nil {
		finishTickSpan(span, status, fault)
	} else {
		finishTickSpan(span, status, nil)
	}
	if w.checkTickPeriod(elapsed) {
		// escalated to FaultInUpdate and already settled to Aborted by
		// checkTickPeriod's own failWith call; status/fault above are now
		// stale and must not be passed to settle/failWith a second time.
		return Aborted
	}

	if fault != nil {
		return w.failWith(fault)
	}
	w.settle(status)
	return status
}

// runUpdate invokes the kind-specific update logic, converting any panic
// into a Fault rather than propagating it (§4.3 step 5, §7 FaultInUpdate).
func (w *worker) runUpdate(now time.Time) (status Status, fault *Fault) {
	defer func() {
		if r := recover(); r != nil {
			fault = recoverToFault(w.spec.ID, r)
			status = Aborted
		}
	}()
	var err error
	if w.spec.leaf() {
		status, err = w.action.Update(w.env.userCtx)
	} else {
		status, err = compositeDispatch[w.spec.Kind].onTick(w, now)
	}
	if err != nil {
		fault = faultErr(w.spec.ID, FaultInUpdate, err)
		status = Aborted
	}
	return
}

func (w *worker) safeInit() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverToFault(w.spec.ID, r).Err
		}
	}()
	return w.action.OnInit(w.env.userCtx)
}

// checkTickPeriod implements §4.5/§7's TickPeriodViolation rule: an
// update that overran tick_period_ms * leniency is logged, and three
// consecutive violations escalate to FaultInUpdate. Reports whether this
// call escalated, so the caller (activate) can short-circuit rather than
// settle the worker a second time against a status that is now stale —
// checkTickPeriod's own failWith call has already moved the worker to
// Aborted and fired on_terminate.
func (w *worker) checkTickPeriod(elapsed time.Duration) bool {
	if elapsed <= w.env.leniencyDeadline(w.spec.TickPeriodMS) {
		w.mu.Lock()
		w.tickViolations = 0
		w.mu.Unlock()
		return false
	}
	w.mu.Lock()
	w.tickViolations++
	violations := w.tickViolations
	w.mu.Unlock()
	w.env.fault(faultErr(w.spec.ID, TickPeriodViolation, errTickPeriodViolation(elapsed, w.spec.TickPeriodMS)))
	if violations >= 3 {
		w.mu.Lock()
		w.tickViolations = 0
		w.mu.Unlock()
		w.failWith(faultErr(w.spec.ID, FaultInUpdate, errTickPeriodEscalated()))
		return true
	}
	return false
}

// settle finalizes a non-faulted update: validates the transition,
// stores the new status, and fires on_terminate exactly once when the
// node reaches a terminal state.
func (w *worker) settle(status Status) {
	prev := w.StatusNow()
	if !validTransition(prev, status) {
		w.failWith(faultErr(w.spec.ID, InvariantBreached, errInvariantBreached(prev, status)))
		return
	}
	w.setStatus(status)
	if status != prev {
		w.env.emit(EventStatusChange, w.spec.ID, prev, status, "")
	}
	if status.Terminal() {
		w.terminate(status)
	}
}

// failWith converts the node to Aborted due to a runtime fault (as
// opposed to an explicit Abort() call), records the fault for the
// supervising parent, fires on_terminate once, and emits the
// corresponding events.
func (w *worker) failWith(f *Fault) Status {
	prev := w.StatusNow()
	w.mu.Lock()
	w.lastFault = f
	w.mu.Unlock()
	w.setStatus(Aborted)
	w.env.fault(f)
	if prev != Aborted {
		w.env.emit(EventAborted, w.spec.ID, prev, Aborted, f.Error())
	}
	if prev != Aborted {
		w.terminate(Aborted)
	}
	return Aborted
}

func (w *worker) terminate(status Status) {
	if w.spec.leaf() {
		w.safeTerminate(status)
		return
	}
	for _, c := range w.children {
		if !c.StatusNow().Terminal() {
			c.Abort(time.Now())
		}
	}
}

// safeTerminate calls the leaf's on_terminate under the two-phase shutdown
// deadline of §4.5/§5: if on_terminate hasn't acknowledged within
// shutdown_deadlines.child_ack_ms, the worker moves on without waiting
// further (force-terminate) and raises ShutdownDeadlineExceeded, which §7
// names fatal. The callback goroutine is left to finish on its own time;
// a second call into user code that never returns is exactly the
// condition this deadline exists to bound the damage of.
func (w *worker) safeTerminate(status Status) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = recover() }()
		w.action.OnTerminate(status)
	}()

	deadline := time.Duration(w.env.sinks.ShutdownDeadlines.ChildAckMS) * time.Millisecond
	select {
	case <-done:
	case <-time.After(deadline):
		w.env.fault(faultErr(w.spec.ID, ShutdownDeadlineExceeded, errShutdownDeadlineExceeded(w.spec.ID, deadline)))
	}
}

func (w *worker) setStatus(s Status) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

// Abort forces the node, and recursively its non-terminal descendants,
// to Aborted (§4.2, §4.5 abort propagation, §5 synchronous abort).
func (w *worker) Abort(now time.Time) {
	prev := w.StatusNow()
	if prev == Aborted {
		// idempotent: two aborts in a row are equivalent to one (§8).
		return
	}
	if !w.spec.leaf() {
		for _, c := range w.children {
			if !c.StatusNow().Terminal() {
				c.Abort(now)
			}
		}
	}
	w.setStatus(Aborted)
	if prev != Fresh {
		w.env.emit(EventAborted, w.spec.ID, prev, Aborted, "abort")
	}
	if w.spec.leaf() {
		w.safeTerminate(Aborted)
	}
}

// Reset returns a terminal node to Fresh, recursively for composites
// (§4.2 reset; §8 property 5 — this implementation requires reset only
// from a terminal status and is a no-op otherwise, the documented choice
// for the Open Question in §8).
func (w *worker) Reset() {
	w.mu.Lock()
	if !w.status.Terminal() {
		w.mu.Unlock()
		return
	}
	w.status = Fresh
	w.initialized = false
	w.lastTickAt = time.Time{}
	w.controlCounter = 0
	w.tickViolations = 0
	w.lastFault = nil
	w.mu.Unlock()
	if !w.spec.leaf() {
		w.cursor = 0
		w.order = nil
		for k := range w.perChild {
			delete(w.perChild, k)
		}
		for _, c := range w.children {
			w.supervisor.forget(c.spec.ID)
			c.Reset()
		}
	}
}
