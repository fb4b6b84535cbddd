package btr

import (
	"fmt"
	"sort"
	"time"

	"github.com/expr-lang/expr"
)

// priorityOnEnter seeds the traversal order on activation; priorityTick
// recomputes it at the start of every update call, including the first, so
// this seeded value is overwritten before it is read.
func priorityOnEnter(w *worker) {
	w.order = computePriorityOrder(w, time.Time{})
}

// priorityTick implements §4.4.4: children are walked, in an order
// recomputed every tick (either PriorityFunc or the compiled
// PriorityExpr), falling through Failure children within the same
// composite tick exactly as S6 demonstrates ("if C returns Failure, A is
// ticked next" — in the same tick, unlike Sequence/Selector which tick
// only their cursor child per composite tick; this is the documented
// exception, see DESIGN.md). The first child to report Running or Success
// stops the walk at that status; an Aborted child stops the walk at
// Aborted, mirroring Selector's unconditional Aborted -> Aborted
// transition (§4.4.1/§4.4.2, "thereafter identical to Selector"). A child
// already terminal this activation is skipped without being re-ticked
// (§4.4.5). A child left Running from a prior tick is never reset or
// preempted, so it is simply resumed — with whatever internal state it
// already had — whenever the freshly computed order reaches it again.
func priorityTick(w *worker, now time.Time) (Status, error) {
	w.order = computePriorityOrder(w, now)
	for _, idx := range w.order {
		child := w.children[idx]
		if w.perChild[child.spec.ID] == Failure {
			// latched Failure this activation (including a child whose
			// restart budget is exhausted): fall through without re-ticking.
			continue
		}
		status := superviseChild(w, child, now)
		switch status {
		case Running, Success:
			return status, nil
		case Aborted:
			return Aborted, nil
		case Failure:
			w.perChild[child.spec.ID] = Failure
		}
	}
	return Failure, nil
}

func computePriorityOrder(w *worker, now time.Time) []int {
	n := len(w.children)
	if w.spec.PriorityFunc != nil {
		if order := w.spec.PriorityFunc(w.env.userCtx, n); isPermutation(order, n) {
			return order
		}
	}
	if w.spec.PriorityExpr != "" {
		order, err := evalPriorityExpr(w, now)
		if err == nil {
			return order
		}
		w.env.fault(faultErr(w.spec.ID, FaultInUpdate, err))
	}
	return identityOrder(n)
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// evalPriorityExpr scores each child by evaluating PriorityExpr with that
// child's index, current status and the node's params in scope, then
// returns children sorted by descending score. Grounded in mbflow's
// dag_executor.go expr.Run(program, env) usage, with the per-item map env
// pattern from its ConditionCache callers.
func evalPriorityExpr(w *worker, now time.Time) ([]int, error) {
	program, err := priorityExprCache.compileAndCache(w.spec.ID, w.spec.PriorityExpr)
	if err != nil {
		return nil, err
	}
	n := len(w.children)
	scores := make([]float64, n)
	for i, c := range w.children {
		env := map[string]interface{}{
			"index":  i,
			"id":     c.spec.ID,
			"status": c.StatusNow().String(),
			"params": w.spec.Params,
			"now_ms": now.UnixMilli(),
		}
		out, err := expr.Run(program, env)
		if err != nil {
			return nil, err
		}
		score, err := toFloat64(out)
		if err != nil {
			return nil, fmt.Errorf("priority_expr for %q: %w", w.spec.ID, err)
		}
		scores[i] = score
	}
	order := identityOrder(n)
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	return order, nil
}

func toFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
