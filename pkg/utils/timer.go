package utils

import (
	"sync"
	"time"
)

// Timer runs fn once after d unless stopped first.
// Stop and Reset are safe to call from any goroutine, including fn itself.
type Timer struct {
	mu      sync.Mutex
	timer   *time.Timer
	fn      func()
	gen     uint64
	stopped bool
}

func NewTimer(d time.Duration, fn func()) *Timer {
	t := &Timer{fn: fn}
	t.arm(d)
	return t
}

// arm must be called with mu held or before the timer is shared.
func (t *Timer) arm(d time.Duration) {
	t.gen++
	gen := t.gen
	t.stopped = false
	t.timer = time.AfterFunc(d, func() { t.fire(gen) })
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()
	t.fn()
}

// Stop cancels the timer. It reports whether the callback was prevented.
func (t *Timer) Stop() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

// Reset rearms the timer to fire after d, even if it already fired.
func (t *Timer) Reset(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer.Stop()
	t.arm(d)
}

func (t *Timer) Active() bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.stopped
}
