package btr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSequenceSuccessPath covers S1: Seq(A, B, C), each succeeding on its
// 3rd update; A must fully terminate (on_terminate observed) before B
// receives its first update.
func TestSequenceSuccessPath(t *testing.T) {
	a := succeedAfter(3)
	b := succeedAfter(3)
	c := succeedAfter(3)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Sequence,
		TickPeriodMS: 1,
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
			{ID: "b", Kind: Action, ActionRef: "b", TickPeriodMS: 1},
			{ID: "c", Kind: Action, ActionRef: "c", TickPeriodMS: 1},
		},
	}, MapRegistry{"a": a, "b": b, "c": c})
	require.NoError(t, err)

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{Clock: clock})

	for i := 0; i < 2; i++ {
		status := handle.Tick()
		assert.Equal(t, Running, status)
		clock.Advance(testTick)
	}
	// A's 3rd update should succeed this tick; B has not been touched yet.
	assert.Equal(t, Running, handle.Tick())
	assert.Equal(t, 0, b.initCount())
	assert.Equal(t, 1, a.termCount())
	clock.Advance(testTick)

	for i := 0; i < 2; i++ {
		assert.Equal(t, Running, handle.Tick())
		clock.Advance(testTick)
	}
	assert.Equal(t, Running, handle.Tick())
	assert.Equal(t, 0, c.initCount())
	clock.Advance(testTick)

	for i := 0; i < 2; i++ {
		assert.Equal(t, Running, handle.Tick())
		clock.Advance(testTick)
	}
	assert.Equal(t, Success, handle.Tick())

	assert.Equal(t, 1, a.initCount())
	assert.Equal(t, 1, b.initCount())
	assert.Equal(t, 1, c.initCount())
	assert.Equal(t, 1, a.termCount())
	assert.Equal(t, 1, b.termCount())
	assert.Equal(t, 1, c.termCount())
}

func TestSequenceFailureHaltsTraversal(t *testing.T) {
	a := failAfter(1)
	b := succeedAfter(1)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Sequence,
		TickPeriodMS: 1,
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
			{ID: "b", Kind: Action, ActionRef: "b", TickPeriodMS: 1},
		},
	}, MapRegistry{"a": a, "b": b})
	require.NoError(t, err)

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{Clock: clock})

	assert.Equal(t, Failure, handle.Tick())
	assert.Equal(t, 0, b.initCount())
}

// TestSequenceAbortedChildPropagatesAborted covers §4.4.1's explicit
// fourth transition (Aborted -> composite Aborted), distinct from Failure:
// a child that is genuinely aborted (not merely out of restart budget)
// carries the whole Sequence straight to Aborted.
func TestSequenceAbortedChildPropagatesAborted(t *testing.T) {
	a := succeedAfter(1)
	b := succeedAfter(1)

	spec, err := Compile(Config{
		ID:           "root",
		Kind:         Sequence,
		TickPeriodMS: 1,
		Children: []Config{
			{ID: "a", Kind: Action, ActionRef: "a", TickPeriodMS: 1},
			{ID: "b", Kind: Action, ActionRef: "b", TickPeriodMS: 1},
		},
	}, MapRegistry{"a": a, "b": b})
	require.NoError(t, err)

	clock := NewVirtualClock(fixedNow)
	handle := Spawn(spec, nil, Sinks{Clock: clock})

	handle.root.children[0].Abort(clock.Now())
	assert.Equal(t, Aborted, handle.Tick())
	assert.Equal(t, 0, b.initCount())
}

var fixedNow = mustParseTime("2026-01-01T00:00:00Z")
