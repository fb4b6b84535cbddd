package btr

// Status is the finite set of states a node may occupy at any moment, per
// the automaton in §4.2: Fresh -> Running -> {Success, Failure, Aborted},
// with reset returning any terminal state to Fresh.
type Status int

const (
	// Fresh means the node has never been ticked, or has been reset.
	Fresh Status = iota
	// Running means the node is in progress: a leaf has yielded without
	// finishing, or a composite has at least one relevant child running.
	Running
	// Success is a terminal status for the current activation.
	Success
	// Failure is a terminal status for the current activation.
	Failure
	// Aborted is a terminal status reached via external abort or an
	// unrecoverable fault.
	Aborted
)

func (s Status) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Running:
		return "running"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of Success, Failure or Aborted.
func (s Status) Terminal() bool {
	return s == Success || s == Failure || s == Aborted
}

// validTransition reports whether moving from `from` to `to` is a legal
// edge in the status automaton of §4.2. It is used defensively by workers
// to catch structural invariant violations (§7 InvariantBreached).
func validTransition(from, to Status) bool {
	if from == to {
		// update may re-report Running while still in progress.
		return to == Running
	}
	switch from {
	case Fresh:
		return to == Running
	case Running:
		return to == Success || to == Failure || to == Aborted
	case Success, Failure, Aborted:
		// Success or Failure may still move to Aborted. Aborted -> Aborted is
		// rejected by the same-status check above; a repeated abort is
		// absorbed by worker.Abort itself. Returning to Fresh goes through
		// reset, which is modeled as a distinct operation, not a
		// status-automaton edge.
		return to == Aborted
	default:
		return false
	}
}
