package segno

import (
	"sync"
	"time"
)

// Clock schedules one-shot deferred callbacks. The transport uses it for
// its periodic frame tick and for sub-frame dispatch offsets. The real
// clock wraps time.AfterFunc; tests and offline rendering drive a
// ManualClock so playback is deterministic and faster than real time.
type Clock interface {
	// AfterMs arranges for f to run once after ms milliseconds and
	// returns a cancel function. Cancel after firing is a no-op.
	AfterMs(ms float64, f func()) (cancel func())
}

type realClock struct{}

func (realClock) AfterMs(ms float64, f func()) func() {
	t := time.AfterFunc(time.Duration(ms*float64(time.Millisecond)), f)
	return func() { t.Stop() }
}

// ManualClock is a Clock driven explicitly by Advance. Timers fire in
// deadline order, including timers scheduled by callbacks that run during
// the same Advance call, with insertion order breaking ties.
type ManualClock struct {
	mu     sync.Mutex
	nowMs  float64
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	at   float64
	seq  int
	f    func()
	done bool
}

func NewManualClock() *ManualClock { return &ManualClock{} }

// NowMs returns the clock's current position.
func (c *ManualClock) NowMs() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nowMs
}

func (c *ManualClock) AfterMs(ms float64, f func()) func() {
	c.mu.Lock()
	t := &manualTimer{at: c.nowMs + ms, seq: c.seq, f: f}
	c.seq++
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		t.done = true
		c.mu.Unlock()
	}
}

// Advance moves the clock forward by ms, firing every due timer at its own
// deadline. Callbacks run without the clock lock held, so they may
// schedule further timers.
func (c *ManualClock) Advance(ms float64) {
	c.mu.Lock()
	target := c.nowMs + ms
	for {
		var next *manualTimer
		for _, t := range c.timers {
			if t.done || t.at > target {
				continue
			}
			if next == nil || t.at < next.at || (t.at == next.at && t.seq < next.seq) {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.done = true
		c.nowMs = next.at
		f := next.f
		c.mu.Unlock()
		f()
		c.mu.Lock()
	}
	c.nowMs = target
	kept := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			kept = append(kept, t)
		}
	}
	c.timers = kept
	c.mu.Unlock()
}
