package answerstore

import (
	"strconv"
	"sync"
	"time"
)

// Clock returns the current time. Tests inject a fixed sequence.
type Clock func() time.Time

// Timer measures the time a participant spends between the start and stop
// hooks. Starting a running timer and stopping a stopped one are no-ops.
type Timer struct {
	mu      sync.Mutex
	clock   Clock
	started time.Time
	elapsed time.Duration
	running bool
	used    bool
}

// NewTimer creates a stopped timer. A nil clock uses time.Now.
func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = time.Now
	}
	return &Timer{clock: clock}
}

// Start starts the timer and reports whether it was stopped before.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return false
	}
	t.started = t.clock()
	t.running, t.used = true, true
	return true
}

// Stop stops the timer and reports whether it was running.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return false
	}
	t.elapsed += t.clock().Sub(t.started)
	t.running = false
	return true
}

// Running reports whether the timer runs.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Elapsed returns the measured time, including the current run.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return t.elapsed + t.clock().Sub(t.started)
	}
	return t.elapsed
}

// Value is the timer column: elapsed seconds, or "" when the timer never ran.
func (t *Timer) Value() string {
	t.mu.Lock()
	used := t.used
	t.mu.Unlock()
	if !used {
		return ""
	}
	return strconv.FormatFloat(t.Elapsed().Seconds(), 'f', -1, 64)
}
