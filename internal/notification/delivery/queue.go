// Package delivery throttles OS notification scheduling to one dispatch per
// interval. Some platforms silently drop rapid-fire schedule calls, so
// deciding to notify is decoupled from physically scheduling.
package delivery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/clock"
)

// DefaultInterval is the spacing between two dispatches.
const DefaultInterval = time.Second

// Dispatcher hands one payload to the OS.
type Dispatcher func(ctx context.Context, payload models.NotificationPayload) error

// Observer is told about dispatch outcomes and queue depth.
type Observer interface {
	RecordError(op string, err error)
	IncrementScheduled()
	SetQueueDepth(depth int)
}

// Queue is an unbounded FIFO drained by a self-rescheduling tick. Failed
// dispatches are dropped, not retried: the ledger already guarantees the
// orchestrator will not regenerate the same event.
type Queue struct {
	mu       sync.Mutex
	items    []models.QueuedDelivery
	timer    clock.Timer
	running  bool
	inflight atomic.Bool

	interval   time.Duration
	dispatch   Dispatcher
	scheduler  clock.Scheduler
	observer   Observer
	logger     *slog.Logger
	ctx        context.Context
	cancelTick context.CancelFunc
}

type Option func(*Queue)

func WithInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.interval = d
		}
	}
}

func WithScheduler(s clock.Scheduler) Option {
	return func(q *Queue) {
		q.scheduler = s
	}
}

func WithObserver(o Observer) Option {
	return func(q *Queue) {
		q.observer = o
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

func New(dispatch Dispatcher, opts ...Option) (*Queue, error) {
	if dispatch == nil {
		return nil, errors.New("dispatcher is required")
	}
	q := &Queue{
		interval:  DefaultInterval,
		dispatch:  dispatch,
		scheduler: clock.New(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Enqueue appends payload. It never blocks and never fails.
func (q *Queue) Enqueue(payload models.NotificationPayload) {
	q.mu.Lock()
	q.items = append(q.items, models.QueuedDelivery{
		Payload:    payload,
		EnqueuedAt: q.scheduler.Now(),
	})
	depth := len(q.items)
	q.mu.Unlock()

	q.reportDepth(depth)
}

// Start begins ticking. Dispatches use a context derived from ctx; Stop or
// cancelling ctx ends them. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.running = true
	q.ctx, q.cancelTick = context.WithCancel(ctx)
	q.timer = q.scheduler.AfterFunc(q.interval, q.tick)
}

// Stop halts ticking. Queued items stay queued.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	q.running = false
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.cancelTick()
}

// Len returns the number of queued payloads.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) tick() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	if q.ctx.Err() != nil {
		q.running = false
		q.timer = nil
		q.mu.Unlock()
		return
	}
	q.timer = q.scheduler.AfterFunc(q.interval, q.tick)
	ctx := q.ctx
	q.mu.Unlock()

	q.dispatchNext(ctx)
}

// dispatchNext sends at most one payload. A dispatch still in flight from an
// earlier tick makes this tick a no-op.
func (q *Queue) dispatchNext(ctx context.Context) {
	if !q.inflight.CompareAndSwap(false, true) {
		return
	}
	defer q.inflight.Store(false)

	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return
	}
	next := q.items[0]
	q.items[0] = models.QueuedDelivery{}
	q.items = q.items[1:]
	depth := len(q.items)
	q.mu.Unlock()

	q.reportDepth(depth)

	if err := q.dispatch(ctx, next.Payload); err != nil {
		q.logger.WarnContext(ctx, "local notification dispatch failed",
			"notification_id", next.Payload.NotificationID,
			"profile_id", next.Payload.ProfileID,
			"queued_for", q.scheduler.Now().Sub(next.EnqueuedAt),
			"error", err,
		)
		if q.observer != nil {
			q.observer.RecordError("schedule", err)
		}
		return
	}
	if q.observer != nil {
		q.observer.IncrementScheduled()
	}
}

func (q *Queue) reportDepth(depth int) {
	if q.observer != nil {
		q.observer.SetQueueDepth(depth)
	}
}
