package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/metrics"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func payload(id string) models.NotificationPayload {
	return models.NotificationPayload{NotificationID: id, ProfileID: "p1", Title: "t", Body: "b"}
}

func newQueue(t *testing.T, dispatch Dispatcher) (*Queue, *clock.Fake, *metrics.Metrics) {
	t.Helper()
	fake := clock.NewFake(epoch)
	m := metrics.New(nil)
	q, err := New(dispatch, WithScheduler(fake), WithObserver(m))
	require.NoError(t, err)
	return q, fake, m
}

func TestQueue_OnePerTickInFIFOOrder(t *testing.T) {
	var sent []string
	q, fake, m := newQueue(t, func(_ context.Context, p models.NotificationPayload) error {
		sent = append(sent, p.NotificationID)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue(payload("a"))
	q.Enqueue(payload("b"))
	q.Enqueue(payload("c"))

	fake.Advance(999 * time.Millisecond)
	assert.Empty(t, sent)

	fake.Advance(time.Millisecond)
	assert.Equal(t, []string{"a"}, sent)
	assert.Equal(t, 2, q.Len())

	fake.Advance(time.Second)
	assert.Equal(t, []string{"a", "b"}, sent)

	fake.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, sent)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, int64(3), m.Snapshot().TotalScheduled)
}

func TestQueue_FailedDispatchIsDroppedAndRecorded(t *testing.T) {
	var attempts []string
	q, fake, m := newQueue(t, func(_ context.Context, p models.NotificationPayload) error {
		attempts = append(attempts, p.NotificationID)
		if p.NotificationID == "bad" {
			return errors.New("os refused")
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue(payload("bad"))
	q.Enqueue(payload("good"))
	fake.Advance(5 * time.Second)

	assert.Equal(t, []string{"bad", "good"}, attempts, "failed payloads are not retried")
	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalScheduled)
	assert.Equal(t, "schedule: os refused", snap.LastError)
}

func TestQueue_NoOverlappingDispatch(t *testing.T) {
	var q *Queue
	var sent []string
	nested := false
	q, fake, _ := newQueue(t, func(ctx context.Context, p models.NotificationPayload) error {
		sent = append(sent, p.NotificationID)
		if !nested {
			nested = true
			// A tick landing while this dispatch is still outstanding.
			q.dispatchNext(ctx)
		}
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	q.Enqueue(payload("a"))
	q.Enqueue(payload("b"))
	fake.Advance(time.Second)

	assert.Equal(t, []string{"a"}, sent)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_StopHaltsDispatch(t *testing.T) {
	calls := 0
	q, fake, _ := newQueue(t, func(context.Context, models.NotificationPayload) error {
		calls++
		return nil
	})
	q.Start(context.Background())
	q.Start(context.Background())
	q.Enqueue(payload("a"))

	q.Stop()
	q.Stop()
	fake.Advance(10 * time.Second)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 0, fake.Pending())
}

func TestQueue_CancelledContextStopsTicking(t *testing.T) {
	calls := 0
	q, fake, _ := newQueue(t, func(context.Context, models.NotificationPayload) error {
		calls++
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	q.Start(ctx)
	q.Enqueue(payload("a"))

	cancel()
	fake.Advance(3 * time.Second)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, fake.Pending())
}

func TestNew_RequiresDispatcher(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
