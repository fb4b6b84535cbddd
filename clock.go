package btr

import (
	"sync"
	"time"
)

// Clock abstracts monotonic time so tests can drive tick schedules
// deterministically instead of racing a real timer (§6 spawn option
// `clock`).
type Clock interface {
	Now() time.Time
	// NewTicker returns a channel that receives a tick every d, plus a stop
	// function. Mirrors time.NewTicker's shape so realClock can delegate to
	// it directly.
	NewTicker(d time.Duration) (<-chan time.Time, func())
	// After returns a channel that fires once after d.
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// RealClock is the default Clock, backed by the standard library.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// VirtualClock is a manually-advanced Clock for deterministic tests. Calls
// to Advance deliver ticks to every outstanding ticker/after channel whose
// deadline has elapsed.
type VirtualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*virtualTicker
	waiters []*virtualWaiter
}

type virtualTicker struct {
	period time.Duration
	next   time.Time
	ch     chan time.Time
	stopped bool
}

type virtualWaiter struct {
	deadline time.Time
	ch       chan time.Time
	fired    bool
}

// NewVirtualClock constructs a VirtualClock starting at the given time.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{now: start}
}

func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *VirtualClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &virtualTicker{period: d, next: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t.ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		t.stopped = true
	}
}

func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := &virtualWaiter{deadline: c.now.Add(d), ch: make(chan time.Time, 1)}
	c.waiters = append(c.waiters, w)
	return w.ch
}

// Advance moves the virtual clock forward by d, delivering any tickers or
// after-channels whose deadline falls within the new window. Delivery is
// non-blocking: a ticker whose consumer hasn't drained the previous tick
// is skipped for this advance, matching real time.Ticker's drop-on-stall
// semantics.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.tickers {
		if t.stopped {
			continue
		}
		for !t.next.After(c.now) {
			select {
			case t.ch <- t.next:
			default:
			}
			t.next = t.next.Add(t.period)
		}
	}
	live := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.fired && !w.deadline.After(c.now) {
			w.fired = true
			select {
			case w.ch <- c.now:
			default:
			}
			continue
		}
		if !w.fired {
			live = append(live, w)
		}
	}
	c.waiters = live
}
