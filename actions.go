package btr

// ActionFunc adapts plain functions into the Action interface (§4.3),
// generalizing littlealbert's Conditional/Task function adapters to the
// three-callback lifecycle this runtime requires. Any of the three fields
// may be nil: a nil Init/OnTerminate is a no-op, and a nil Update always
// reports Success.
type ActionFunc struct {
	Init     func(ctx Context) error
	UpdateFn func(ctx Context) (Status, error)
	OnTermFn func(status Status)
}

func (a ActionFunc) OnInit(ctx Context) error {
	if a.Init == nil {
		return nil
	}
	return a.Init(ctx)
}

func (a ActionFunc) Update(ctx Context) (Status, error) {
	if a.UpdateFn == nil {
		return Success, nil
	}
	return a.UpdateFn(ctx)
}

func (a ActionFunc) OnTerminate(status Status) {
	if a.OnTermFn != nil {
		a.OnTermFn(status)
	}
}

// AlwaysSucceed is an Action that succeeds on its first update, useful as
// a placeholder leaf and in tests.
var AlwaysSucceed Action = ActionFunc{UpdateFn: func(Context) (Status, error) { return Success, nil }}

// AlwaysFail is an Action that fails on its first update.
var AlwaysFail Action = ActionFunc{UpdateFn: func(Context) (Status, error) { return Failure, nil }}

// Invert wraps an Action, swapping Success and Failure results while
// passing Running through unchanged. Mirrors littlealbert's decorator of
// the same name (constructs.go), generalized to the three-callback
// contract.
func Invert(child Action) Action {
	return ActionFunc{
		Init: child.OnInit,
		UpdateFn: func(ctx Context) (Status, error) {
			status, err := child.Update(ctx)
			if err != nil {
				return status, err
			}
			switch status {
			case Success:
				return Failure, nil
			case Failure:
				return Success, nil
			default:
				return status, nil
			}
		},
		OnTermFn: child.OnTerminate,
	}
}

// RunUntilSuccess wraps an Action so that any non-Success result is
// reported as Running, effectively retrying the child every tick until it
// succeeds. Mirrors littlealbert's RunUntilSuccess decorator.
func RunUntilSuccess(child Action) Action {
	return ActionFunc{
		Init: child.OnInit,
		UpdateFn: func(ctx Context) (Status, error) {
			status, err := child.Update(ctx)
			if err != nil {
				return status, err
			}
			if status == Success {
				return Success, nil
			}
			return Running, nil
		},
		OnTermFn: child.OnTerminate,
	}
}
