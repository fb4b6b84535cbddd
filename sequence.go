package btr

import "time"

// seqSelOnEnter resets the shared cursor both Sequence and Selector use to
// track which child is currently active (§4.4.1/§4.4.2, entered on a fresh
// activation).
func seqSelOnEnter(w *worker) {
	w.cursor = 0
}

// sequenceTick implements §4.4.1: only the child at cursor is ticked per
// composite tick. Success advances the cursor (and yields Success
// immediately if that was the last child); Failure stops the composite at
// Failure without ticking further children this activation; Aborted stops
// the composite at Aborted (§4.4.1's explicit fourth transition — distinct
// from Failure); Running holds the cursor in place for the next composite
// tick.
func sequenceTick(w *worker, now time.Time) (Status, error) {
	if w.cursor >= len(w.children) {
		return Success, nil
	}
	child := w.children[w.cursor]
	status := superviseChild(w, child, now)
	switch status {
	case Success:
		w.cursor++
		if w.cursor >= len(w.children) {
			return Success, nil
		}
		return Running, nil
	case Failure:
		return Failure, nil
	case Aborted:
		return Aborted, nil
	default:
		return Running, nil
	}
}
