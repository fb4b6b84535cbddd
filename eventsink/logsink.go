// Package eventsink provides concrete btr.EventSink/ErrorSink adapters:
// the runtime core only defines the interfaces (§6); these are the
// pluggable collaborators SPEC_FULL.md's domain stack wires them to.
package eventsink

import (
	"github.com/sirupsen/logrus"

	"github.com/upstarter/automata-sub005"
)

// LogSink emits every lifecycle event as a structured logrus entry.
// Grounded in littlealbert's own logrus usage — this is the simplest
// adapter in this package; the other sinks do not use it.
type LogSink struct {
	log *logrus.Entry
}

// NewLogSink wraps logger (or logrus.StandardLogger() if nil) as an
// EventSink.
func NewLogSink(logger *logrus.Logger) *LogSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogSink{log: logrus.NewEntry(logger)}
}

func (s *LogSink) Emit(e btr.Event) {
	s.log.WithFields(logrus.Fields{
		"node_id": e.NodeID,
		"kind":    string(e.Kind),
		"from":    e.From.String(),
		"to":      e.To.String(),
		"ts_ms":   e.TSMS,
	}).Info("btr: event")
}

// LogErrorSink emits every fault as a structured logrus warning.
type LogErrorSink struct {
	log *logrus.Entry
}

func NewLogErrorSink(logger *logrus.Logger) *LogErrorSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogErrorSink{log: logrus.NewEntry(logger)}
}

func (s *LogErrorSink) Error(f *btr.Fault) {
	s.log.WithFields(logrus.Fields{
		"node_id": f.NodeID,
		"kind":    f.Kind.String(),
	}).WithError(f.Err).Warn("btr: fault")
}
