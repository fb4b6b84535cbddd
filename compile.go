package btr

import "fmt"

// Config is the nested declarative configuration Compile consumes (§4.1).
// Each entry has a Kind, an optional TickPeriodMS (default 50), and either
// Children (composite) or ActionRef (leaf).
type Config struct {
	ID           string
	Name         string
	Kind         NodeKind
	TickPeriodMS int
	Children     []Config

	ActionRef string

	SuccessPolicy string // "all", "any", or "k=<N>" for Parallel nodes
	PriorityFunc  PriorityFunc
	PriorityExpr  string

	Params map[string]interface{}
}

const defaultTickPeriodMS = 50

// ActionRegistry resolves an ActionRef string to a concrete Action, the
// "action_ref does not resolve" check of §4.1 (ActionMissing).
type ActionRegistry interface {
	Resolve(ref string) (Action, bool)
}

// ActionRegistryFunc adapts a function to ActionRegistry.
type ActionRegistryFunc func(ref string) (Action, bool)

func (f ActionRegistryFunc) Resolve(ref string) (Action, bool) { return f(ref) }

// MapRegistry is the common case: a static map of ref -> Action.
type MapRegistry map[string]Action

func (m MapRegistry) Resolve(ref string) (Action, bool) { a, ok := m[ref]; return a, ok }

// Compile validates cfg and produces an immutable NodeSpec tree (§4.1).
// The compiler is pure: no side effects, no allocation of workers. Every
// distinct validation failure is returned as a *ConfigError (possibly
// wrapped for stack context); no tree is constructed on error.
func Compile(cfg Config, registry ActionRegistry) (*NodeSpec, error) {
	seen := make(map[string]struct{})
	return compileNode(cfg, registry, seen)
}

func compileNode(cfg Config, registry ActionRegistry, seen map[string]struct{}) (*NodeSpec, error) {
	if cfg.ID == "" {
		return nil, configErr(DuplicateId, cfg.ID, "node id must not be empty")
	}
	if _, dup := seen[cfg.ID]; dup {
		return nil, configErr(DuplicateId, cfg.ID, "duplicate node id")
	}
	seen[cfg.ID] = struct{}{}

	switch cfg.Kind {
	case Sequence, Selector, Parallel, Priority, Action:
	default:
		return nil, configErr(UnknownKind, cfg.ID, fmt.Sprintf("kind %v is not recognized", cfg.Kind))
	}

	period := cfg.TickPeriodMS
	if period == 0 {
		period = defaultTickPeriodMS
	}
	if period < 1 {
		return nil, configErr(TickPeriodTooLow, cfg.ID, "tick_period_ms must be >= 1")
	}

	spec := &NodeSpec{
		ID:           cfg.ID,
		Name:         cfg.Name,
		Kind:         cfg.Kind,
		TickPeriodMS: period,
		ActionRef:    cfg.ActionRef,
		Params:       cfg.Params,
		PriorityFunc: cfg.PriorityFunc,
		PriorityExpr: cfg.PriorityExpr,
	}

	if cfg.Kind == Action {
		if len(cfg.Children) != 0 {
			return nil, configErr(LeafWithChildren, cfg.ID, "action nodes must not have children")
		}
		action, ok := registry.Resolve(cfg.ActionRef)
		if !ok {
			return nil, configErr(ActionMissing, cfg.ID, fmt.Sprintf("action_ref %q does not resolve", cfg.ActionRef))
		}
		spec.action = action
		return spec, nil
	}

	if len(cfg.Children) == 0 {
		return nil, configErr(CompositeWithoutChildren, cfg.ID, "composite nodes must have at least one child")
	}
	for _, childCfg := range cfg.Children {
		child, err := compileNode(childCfg, registry, seen)
		if err != nil {
			return nil, err
		}
		spec.Children = append(spec.Children, child)
	}

	if cfg.Kind == Parallel {
		policy, err := parseSuccessPolicy(cfg.SuccessPolicy, len(spec.Children))
		if err != nil {
			return nil, configErr(InvalidSuccessPolicy, cfg.ID, err.Error())
		}
		spec.SuccessPolicy = policy
	}

	return spec, nil
}

func parseSuccessPolicy(raw string, n int) (SuccessPolicy, error) {
	switch raw {
	case "", "all":
		return SuccessPolicy{Kind: PolicyAll, K: n}, nil
	case "any":
		return SuccessPolicy{Kind: PolicyAny, K: 1}, nil
	default:
		var k int
		if _, err := fmt.Sscanf(raw, "k=%d", &k); err != nil {
			return SuccessPolicy{}, fmt.Errorf("success_policy %q must be \"all\", \"any\" or \"k=<N>\"", raw)
		}
		if k < 1 || k > n {
			return SuccessPolicy{}, fmt.Errorf("success_policy k=%d must be in [1, %d]", k, n)
		}
		return SuccessPolicy{Kind: PolicyK, K: k}, nil
	}
}
