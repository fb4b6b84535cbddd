package btr

import (
	gocontext "context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sinks configures a spawned tree's collaborators (§6 spawn). Zero values
// fall back to no-op sinks, the real clock, and the documented defaults
// for restart policy, shutdown deadlines and tick leniency.
type Sinks struct {
	EventSink          EventSink
	ErrorSink          ErrorSink
	Clock              Clock
	RestartPolicy      RestartPolicy
	ShutdownDeadlines  ShutdownDeadlines
	TickLeniencyFactor float64
	Logger             *logrus.Logger
	// TraceContext seeds tracing for the whole tree; a span started here
	// (or its absence) determines the Tracer resolved by tracer() for
	// every node (tracing.go).
	TraceContext gocontext.Context
}

func (s Sinks) withDefaults() Sinks {
	if s.EventSink == nil {
		s.EventSink = NopEventSink
	}
	if s.ErrorSink == nil {
		s.ErrorSink = NopErrorSink
	}
	if s.Clock == nil {
		s.Clock = RealClock
	}
	if s.RestartPolicy.MaxRestarts == 0 && s.RestartPolicy.WithinMS == 0 {
		s.RestartPolicy = DefaultRestartPolicy()
	}
	if s.ShutdownDeadlines.ChildAckMS == 0 && s.ShutdownDeadlines.ForceMS == 0 {
		s.ShutdownDeadlines = DefaultShutdownDeadlines()
	} else {
		defaults := DefaultShutdownDeadlines()
		if s.ShutdownDeadlines.ChildAckMS == 0 {
			s.ShutdownDeadlines.ChildAckMS = defaults.ChildAckMS
		}
		if s.ShutdownDeadlines.ForceMS == 0 {
			s.ShutdownDeadlines.ForceMS = defaults.ForceMS
		}
	}
	if s.TickLeniencyFactor == 0 {
		s.TickLeniencyFactor = 2.0
	}
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}
	if s.TraceContext == nil {
		s.TraceContext = gocontext.Background()
	}
	return s
}

// env is the shared, read-only environment threaded through every worker
// in one spawned tree: sinks, clock, policy defaults and the logger/trace
// scaffolding. It is distinct from btr.Context (the opaque, user-facing
// carrier passed to Action callbacks) — env is purely the runtime's own
// bookkeeping and is never exposed to user code (§9 Global/ambient state:
// "Ambient state belongs to the collaborator layer"; env is the runtime's
// own plumbing, not ambient state smuggled into Action).
type env struct {
	sinks  Sinks
	userCtx Context
	gctx   gocontext.Context
	log    *logrus.Entry
}

func newEnv(sinks Sinks, userCtx Context) *env {
	sinks = sinks.withDefaults()
	return &env{
		sinks:   sinks,
		userCtx: userCtx,
		gctx:    sinks.TraceContext,
		log:     logrus.NewEntry(sinks.Logger),
	}
}

func (e *env) emit(kind EventKind, nodeID string, from, to Status, reason string) {
	e.sinks.EventSink.Emit(newEvent(nodeID, e.sinks.Clock.Now(), kind, from, to, reason))
}

func (e *env) fault(f *Fault) {
	e.sinks.ErrorSink.Error(f)
	e.log.WithFields(logrus.Fields{
		"node_id": f.NodeID,
		"kind":    f.Kind.String(),
	}).WithError(f.Err).Warn("btr: fault")
}

func (e *env) leniencyDeadline(tickPeriodMS int) time.Duration {
	return time.Duration(float64(tickPeriodMS) * e.sinks.TickLeniencyFactor * float64(time.Millisecond))
}
