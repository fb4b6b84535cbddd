package btr

import "time"

// selectorTick implements §4.4.2: only the child at cursor is ticked per
// composite tick (roles of Success/Failure swapped from Sequence). Failure
// advances the cursor (yielding Failure immediately if that was the last
// child); Success stops the composite at Success; Aborted stops the
// composite at Aborted, mirroring Sequence's unconditional Aborted ->
// Aborted transition (§4.4.1/§4.4.2); Running holds the cursor in place
// for the next composite tick.
func selectorTick(w *worker, now time.Time) (Status, error) {
	if w.cursor >= len(w.children) {
		return Failure, nil
	}
	child := w.children[w.cursor]
	status := superviseChild(w, child, now)
	switch status {
	case Failure:
		w.cursor++
		if w.cursor >= len(w.children) {
			return Failure, nil
		}
		return Running, nil
	case Success:
		return Success, nil
	case Aborted:
		return Aborted, nil
	default:
		return Running, nil
	}
}
