// Package debounce coalesces bursts of calls into a single trailing call.
package debounce

import (
	"sync"
	"time"

	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/clock"
)

// Debouncer delays calls to a handler until no new call has arrived for the
// configured delay. Each Call restarts the window; only the last value of a
// burst reaches the handler.
type Debouncer[T any] struct {
	mu        sync.Mutex
	delay     time.Duration
	scheduler clock.Scheduler
	handler   func(T)
	timer     clock.Timer
	gen       uint64
}

// New creates a Debouncer. A nil scheduler uses the wall clock.
func New[T any](delay time.Duration, scheduler clock.Scheduler, handler func(T)) *Debouncer[T] {
	if scheduler == nil {
		scheduler = clock.New()
	}
	return &Debouncer[T]{
		delay:     delay,
		scheduler: scheduler,
		handler:   handler,
	}
}

// Call records v as the latest value and restarts the window.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.scheduler.AfterFunc(d.delay, func() {
		d.fire(gen, v)
	})
}

// fire runs the handler unless a later Call or Cancel superseded this timer.
// The generation check covers a wall-clock timer that fired concurrently
// with Stop.
func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.handler(v)
}

// Cancel drops any pending call.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Pending reports whether a call is waiting for its window to close.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
