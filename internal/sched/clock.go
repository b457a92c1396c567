package sched

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock time so timer-driven components can be tested
// against a deterministic virtual clock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
	Sleep(d time.Duration)
}

// Ticker delivers ticks on a channel until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewRealClock returns a Clock backed by the system clock
func NewRealClock() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

type realTicker struct{ t *time.Ticker }

func (rt *realTicker) C() <-chan time.Time { return rt.t.C }
func (rt *realTicker) Stop()               { rt.t.Stop() }

// ManualClock is a virtual clock advanced explicitly by tests. Sleep
// advances the clock without blocking, and Advance fires any tickers whose
// interval has elapsed.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManualClock creates a manual clock starting at the given instant
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current virtual time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances virtual time by d without blocking the caller
func (c *ManualClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// NewTicker registers a virtual ticker fired by Advance
func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	mt := &manualTicker{
		clock:    c,
		interval: d,
		next:     c.now.Add(d),
		ch:       make(chan time.Time, 1),
	}
	c.tickers = append(c.tickers, mt)
	return mt
}

// Advance moves virtual time forward by d, firing due tickers in order
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.now.Add(d)
	c.now = target

	for _, mt := range c.tickers {
		if mt.stopped {
			continue
		}
		for !mt.next.After(target) {
			// Non-blocking send mirrors time.Ticker's drop-on-slow-receiver
			// behavior.
			select {
			case mt.ch <- mt.next:
			default:
			}
			mt.next = mt.next.Add(mt.interval)
		}
	}
}

type manualTicker struct {
	clock    *ManualClock
	interval time.Duration
	next     time.Time
	ch       chan time.Time
	stopped  bool
}

func (mt *manualTicker) C() <-chan time.Time { return mt.ch }

func (mt *manualTicker) Stop() {
	mt.clock.mu.Lock()
	defer mt.clock.mu.Unlock()
	mt.stopped = true
}
