package btr

// NodeKind enumerates the five node kinds of §3: the four composite kinds
// and the single leaf kind, Action.
type NodeKind int

const (
	Sequence NodeKind = iota
	Selector
	Parallel
	Priority
	Action
)

func (k NodeKind) String() string {
	switch k {
	case Sequence:
		return "sequence"
	case Selector:
		return "selector"
	case Parallel:
		return "parallel"
	case Priority:
		return "priority"
	case Action:
		return "action"
	default:
		return "unknown"
	}
}

func (k NodeKind) composite() bool { return k != Action }

// SuccessPolicyKind distinguishes Parallel's three termination rules
// (§4.4.3).
type SuccessPolicyKind int

const (
	// PolicyAll requires every child to succeed.
	PolicyAll SuccessPolicyKind = iota
	// PolicyAny requires at least one child to succeed.
	PolicyAny
	// PolicyK requires at least K children to succeed.
	PolicyK
)

// SuccessPolicy configures a Parallel node's termination rule. K is the
// number of child successes the node needs, for every Kind: Compile sets it
// to N for PolicyAll and to 1 for PolicyAny, and parallelTick reads only K,
// so K == N behaves as PolicyAll and K == 1 as PolicyAny (§8 boundary
// behaviors).
type SuccessPolicy struct {
	Kind SuccessPolicyKind
	K    int
}

// Context is the opaque, runtime-agnostic carrier of collaborator state
// (blackboard access, effectors, an ambient clock) handed to every
// Action's lifecycle callback. The runtime never inspects it; any
// internal locking is the collaborator's own concern (§3 Ownership, §9
// Global/ambient state).
type Context interface{}

// Action is the user-supplied leaf behavior (§4.3). The state an Action
// closes over is owned exclusively by the leaf worker hosting it; no
// other component may read or mutate it concurrently.
type Action interface {
	// OnInit is called exactly once on the Fresh -> Running transition. It
	// may populate or reset any state the Action closes over.
	OnInit(ctx Context) error
	// Update is called on each tick while the leaf is non-terminal. It must
	// return promptly: long-running work is represented by returning
	// Running and persisting progress in the Action's own closed-over
	// state, or via a side channel reached through ctx.
	Update(ctx Context) (Status, error)
	// OnTerminate is called exactly once on the transition to Success,
	// Failure or Aborted.
	OnTerminate(status Status)
}

// PriorityFunc computes, for a Priority node, the traversal order of its
// children as a permutation of [0, n) (§4.4.4). When it is nil or returns
// something other than a permutation, the order comes from PriorityExpr if
// set, else index order; the node keeps Selector's Success/Failure roles
// but may tick several children within one composite tick.
type PriorityFunc func(ctx Context, n int) []int

// NodeSpec is the immutable, compiled representation of one configured
// node (§3). A NodeSpec tree is produced by Compile and shared freely
// (read-only) across every worker goroutine spawned from it.
type NodeSpec struct {
	ID           string
	Name         string
	Kind         NodeKind
	TickPeriodMS int
	Children     []*NodeSpec

	// Action-only fields.
	ActionRef string
	action    Action

	// Parallel-only field.
	SuccessPolicy SuccessPolicy

	// Priority-only fields; at most one need be set. PriorityExpr is
	// compiled and cached by priorityExprCache (exprcache.go) and evaluated
	// once per child, with Params in scope.
	PriorityFunc PriorityFunc
	PriorityExpr string

	Params map[string]interface{}
}

// leaf reports whether n is an Action node.
func (n *NodeSpec) leaf() bool { return n.Kind == Action }
