package btr

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// ConfigErrorKind distinguishes the ways a declarative configuration can
// fail validation during compile (§4.1).
type ConfigErrorKind int

const (
	// UnknownKind means kind is not one of Sequence, Selector, Parallel,
	// Priority or Action.
	UnknownKind ConfigErrorKind = iota
	// LeafWithChildren means an Action node declared children.
	LeafWithChildren
	// CompositeWithoutChildren means a composite declared zero children.
	CompositeWithoutChildren
	// ActionMissing means action_ref did not resolve against the registry
	// passed to Compile.
	ActionMissing
	// TickPeriodTooLow means tick_period_ms < 1.
	TickPeriodTooLow
	// DuplicateId means two nodes in the same tree share an id. Compile
	// also reports an empty id under this kind.
	DuplicateId
	// InvalidSuccessPolicy means a Parallel node's success_policy did not
	// specify k in [1, n] or "all"/"any".
	InvalidSuccessPolicy
)

func (k ConfigErrorKind) String() string {
	switch k {
	case UnknownKind:
		return "unknown_kind"
	case LeafWithChildren:
		return "leaf_with_children"
	case CompositeWithoutChildren:
		return "composite_without_children"
	case ActionMissing:
		return "action_missing"
	case TickPeriodTooLow:
		return "tick_period_too_low"
	case DuplicateId:
		return "duplicate_id"
	case InvalidSuccessPolicy:
		return "invalid_success_policy"
	default:
		return "unknown"
	}
}

// ConfigError is returned by Compile for any validation failure. NodeID
// identifies the offending config entry, where available.
type ConfigError struct {
	Kind   ConfigErrorKind
	NodeID string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("btr: config error (%s) at node %q: %s", e.Kind, e.NodeID, e.Detail)
	}
	return fmt.Sprintf("btr: config error (%s): %s", e.Kind, e.Detail)
}

func configErr(kind ConfigErrorKind, nodeID, detail string) error {
	return errors.WithStack(&ConfigError{Kind: kind, NodeID: nodeID, Detail: detail})
}

// FaultKind distinguishes runtime (post-compile) failure modes, per §7.
type FaultKind int

const (
	// FaultInUpdate is a panic/error surfaced by a node's update.
	FaultInUpdate FaultKind = iota
	// TickPeriodViolation is an update that overran tick_period_ms times
	// tick_leniency_factor.
	TickPeriodViolation
	// RestartBudgetExceeded is a child that exhausted its restart budget.
	RestartBudgetExceeded
	// ShutdownDeadlineExceeded is a teardown that missed its deadline.
	ShutdownDeadlineExceeded
	// InvariantBreached is an impossible status transition.
	InvariantBreached
)

func (k FaultKind) String() string {
	switch k {
	case FaultInUpdate:
		return "fault_in_update"
	case TickPeriodViolation:
		return "tick_period_violation"
	case RestartBudgetExceeded:
		return "restart_budget_exceeded"
	case ShutdownDeadlineExceeded:
		return "shutdown_deadline_exceeded"
	case InvariantBreached:
		return "invariant_breached"
	default:
		return "unknown"
	}
}

// Fault is a structured runtime fault, delivered to the configured
// ErrorSink (§6).
type Fault struct {
	NodeID string
	Kind   FaultKind
	Err    error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("btr: fault (%s) at node %q: %v", f.Kind, f.NodeID, f.Err)
}

func faultErr(nodeID string, kind FaultKind, cause error) *Fault {
	return &Fault{NodeID: nodeID, Kind: kind, Err: errors.WithStack(cause)}
}

// recoverToFault converts a panic (the user-fault path of §4.3 step 5)
// into a Fault of kind FaultInUpdate, suitable for handing to an ErrorSink
// and for driving the node to Aborted.
func recoverToFault(nodeID string, r interface{}) *Fault {
	var err error
	switch v := r.(type) {
	case error:
		err = v
	default:
		err = fmt.Errorf("%v", v)
	}
	return faultErr(nodeID, FaultInUpdate, err)
}

func errTickPeriodViolation(elapsed time.Duration, periodMS int) error {
	return fmt.Errorf("update took %s, over tick_period_ms=%d with leniency", elapsed, periodMS)
}

func errTickPeriodEscalated() error {
	return fmt.Errorf("3 consecutive tick_period_ms violations")
}

func errInvariantBreached(from, to Status) error {
	return fmt.Errorf("illegal status transition %s -> %s", from, to)
}

func errRestartBudgetExceeded(childID string) error {
	return fmt.Errorf("child %q exceeded its restart budget", childID)
}

func errShutdownDeadlineExceeded(nodeID string, deadline time.Duration) error {
	return fmt.Errorf("node %q did not acknowledge termination within %s", nodeID, deadline)
}
