package btr

import "time"

// compositeOps bundles a composite kind's activation-entry hook and its
// per-tick update logic (sequence.go, selector.go, parallel.go,
// priority.go).
type compositeOps struct {
	onEnter func(w *worker)
	onTick  func(w *worker, now time.Time) (Status, error)
}

var compositeDispatch = map[NodeKind]compositeOps{
	Sequence: {onEnter: seqSelOnEnter, onTick: sequenceTick},
	Selector: {onEnter: seqSelOnEnter, onTick: selectorTick},
	Parallel: {onEnter: parallelOnEnter, onTick: parallelTick},
	Priority: {onEnter: priorityOnEnter, onTick: priorityTick},
}
