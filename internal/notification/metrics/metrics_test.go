package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("snapshot mirrors prometheus counters", func(t *testing.T) {
		m := New(prometheus.NewRegistry())

		m.IncrementScheduled()
		m.IncrementScheduled()
		m.IncrementTapped()

		snap := m.Snapshot()
		assert.Equal(t, int64(2), snap.TotalScheduled)
		assert.Equal(t, int64(1), snap.TotalTapped)
		assert.Empty(t, snap.LastError)
		assert.Equal(t, float64(2), testutil.ToFloat64(m.NotificationsScheduled))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsTapped))
	})

	t.Run("record error keeps the latest and counts per op", func(t *testing.T) {
		m := New(nil)

		m.RecordError("schedule", errors.New("os busy"))
		m.RecordError("ledger_save", errors.New("disk full"))
		m.RecordError("ignored", nil)

		assert.Equal(t, "ledger_save: disk full", m.Snapshot().LastError)
		assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationErrors.WithLabelValues("schedule")))
		assert.Equal(t, float64(0), testutil.ToFloat64(m.NotificationErrors.WithLabelValues("ignored")))
	})

	t.Run("instances on separate registries do not collide", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		require.NotPanics(t, func() {
			New(reg)
			New(prometheus.NewRegistry())
		})
	})
}
