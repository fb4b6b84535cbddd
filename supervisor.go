package btr

import (
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// restartWindow is the sliding-window restart ledger for one child,
// grounded in capataz's one-for-one tolerance window (reset-on-quiescence:
// entries older than the window are pruned on every check rather than the
// whole counter being reset on a timer).
type restartWindow struct {
	mu    sync.Mutex
	times []time.Time
}

// supervisor owns one composite's restart bookkeeping. Restart windows are
// kept in a lock-free concurrent map rather than behind the composite's own
// mutex, since Parallel composites fan children out onto real goroutines
// (parallel.go) and would otherwise serialize restart decisions for
// siblings that have nothing to do with one another.
type supervisor struct {
	policy  RestartPolicy
	windows *xsync.MapOf[string, *restartWindow]
}

func newSupervisor(policy RestartPolicy) *supervisor {
	return &supervisor{policy: policy, windows: xsync.NewMapOf[string, *restartWindow]()}
}

// allow records an attempted restart of childID at now and reports whether
// the restart is within MaxRestarts over the trailing WithinMS window. A
// restart that is allowed counts against the budget; one that is refused
// does not (the child is no longer going to restart, so it shouldn't keep
// being charged for trying).
func (s *supervisor) allow(childID string, now time.Time) bool {
	w, _ := s.windows.LoadOrStore(childID, &restartWindow{})
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := now.Add(-time.Duration(s.policy.WithinMS) * time.Millisecond)
	live := w.times[:0]
	for _, t := range w.times {
		if t.After(cutoff) {
			live = append(live, t)
		}
	}
	w.times = live

	if len(w.times) >= s.policy.MaxRestarts {
		return false
	}
	w.times = append(w.times, now)
	return true
}

// forget drops childID's restart ledger, used when the child is Reset
// externally and should start with a clean budget.
func (s *supervisor) forget(childID string) {
	s.windows.Delete(childID)
}

// superviseChild ticks c and, if it has just faulted (Aborted for a reason
// other than an explicit external Abort), applies the one-for-one bounded
// restart policy: restart within budget, or report the child as
// persistently Failure for this activation once the budget is exhausted
// (§4.5, §7 RestartBudgetExceeded). The child's own exposed Status() is
// left untouched when the budget is exhausted — it remains genuinely
// Aborted — only the parent's view of the child's contribution becomes
// Failure, per §7: "the parent composite treats the child as persistently
// failed for this activation."
func superviseChild(parent *worker, c *worker, now time.Time) Status {
	status := c.Tick(now)
	if status != Aborted {
		return status
	}
	fault := c.LastFault()
	if fault == nil {
		// externally aborted, not a fault: propagate as-is.
		return Aborted
	}
	if parent.supervisor.allow(c.spec.ID, now) {
		c.Reset()
		parent.env.emit(EventRestarted, c.spec.ID, Aborted, Fresh, fault.Error())
		return Running
	}
	parent.env.fault(faultErr(c.spec.ID, RestartBudgetExceeded, errRestartBudgetExceeded(c.spec.ID)))
	return Failure
}
