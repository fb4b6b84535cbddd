package btr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSelectorFirstSuccess covers S2: Sel(A, B); A fails on its 1st
// update, B succeeds on its 1st. A's on_terminate(Failure) must be
// observed before B's on_init.
func TestSelectorFirstSuccess(t *testing.T) {
	a := failAfter(1)
	b := succeedAfter(1)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Selector,
		TickPeriodMS: 1,
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
			{ID: "b", Kind: Action, ActionRef: "b", TickPeriodMS: 1},
		},
	}, MapRegistry{"a": a, "b": b})
	require.NoError(t, err)

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{Clock: clock})

	// a is ticked and terminates this composite tick; b is not touched
	// until the composite's next tick (only the cursor child is ticked
	// per composite tick, §4.4.1/§4.4.2).
	assert.Equal(t, Running, handle.Tick())
	assert.Equal(t, Failure, a.lastTerm)
	assert.Equal(t, 1, a.termCount())
	assert.Equal(t, 0, b.initCount())
	clock.Advance(testTick)

	assert.Equal(t, Success, handle.Tick())
	assert.Equal(t, 1, b.initCount())
}

func TestSelectorAllFail(t *testing.T) {
	a := failAfter(1)
	b := failAfter(1)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Selector,
		TickPeriodMS: 1,
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
			{ID: "b", Kind: Action, ActionRef: "b", TickPeriodMS: 1},
		},
	}, MapRegistry{"a": a, "b": b})
	require.NoError(t, err)

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{Clock: clock})

	assert.Equal(t, Running, handle.Tick())
	clock.Advance(testTick)
	assert.Equal(t, Failure, handle.Tick())
}
