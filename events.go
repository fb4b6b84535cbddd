package btr

import (
	"time"

	"github.com/google/uuid"
)

// EventKind enumerates the lifecycle events a node may emit (§6).
type EventKind string

const (
	EventStatusChange EventKind = "status_change"
	EventStarted      EventKind = "started"
	EventAborted      EventKind = "aborted"
	EventRestarted    EventKind = "restarted"
	EventFault        EventKind = "fault"
)

// Event is the stable data layout for lifecycle event consumers (§6).
type Event struct {
	ID     string
	NodeID string
	TSMS   int64
	Kind   EventKind
	From   Status
	To     Status
	Reason string
}

func newEvent(nodeID string, ts time.Time, kind EventKind, from, to Status, reason string) Event {
	return Event{
		ID:     uuid.NewString(),
		NodeID: nodeID,
		TSMS:   ts.UnixMilli(),
		Kind:   kind,
		From:   from,
		To:     to,
		Reason: reason,
	}
}

// EventSink receives lifecycle events from every worker in a tree (§6).
// Implementations must be safe for concurrent emission from many workers.
type EventSink interface {
	Emit(Event)
}

// ErrorSink receives structured faults (§6, §7).
type ErrorSink interface {
	Error(*Fault)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

// ErrorSinkFunc adapts a function to ErrorSink.
type ErrorSinkFunc func(*Fault)

func (f ErrorSinkFunc) Error(flt *Fault) { f(flt) }

// NopEventSink discards every event.
var NopEventSink EventSink = EventSinkFunc(func(Event) {})

// NopErrorSink discards every fault.
var NopErrorSink ErrorSink = ErrorSinkFunc(func(*Fault) {})

// RestartPolicy bounds supervisor-driven restarts of a child: at most
// MaxRestarts within a rolling window of WithinMS (§4.5, §6).
type RestartPolicy struct {
	MaxRestarts int
	WithinMS    int64
}

// DefaultRestartPolicy matches the defaults named in §4.5: 3 restarts
// within a 5 second rolling window.
func DefaultRestartPolicy() RestartPolicy {
	return RestartPolicy{MaxRestarts: 3, WithinMS: 5000}
}

// ShutdownDeadlines bounds the two-phase teardown of §4.5/§5: children are
// given ChildAckMS to acknowledge termination before the supervisor force-
// terminates, and the whole tree is given ForceMS to be gone entirely.
type ShutdownDeadlines struct {
	ChildAckMS int64
	ForceMS    int64
}

// DefaultShutdownDeadlines matches §5's stated defaults of 1s/10s.
func DefaultShutdownDeadlines() ShutdownDeadlines {
	return ShutdownDeadlines{ChildAckMS: 1000, ForceMS: 10000}
}
