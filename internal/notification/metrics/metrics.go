package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
)

// Metrics tracks notification counters both as a snapshot for the host and
// as Prometheus series. Counters are never reset.
type Metrics struct {
	NotificationsScheduled  prometheus.Counter
	NotificationsTapped     prometheus.Counter
	NotificationsSuppressed *prometheus.CounterVec
	NotificationErrors      *prometheus.CounterVec
	DeliveryQueueDepth      prometheus.Gauge

	scheduled atomic.Int64
	tapped    atomic.Int64

	mu        sync.RWMutex
	lastError string
}

// New creates the metrics and registers them with reg. A nil registerer
// leaves them unregistered, which keeps tests free of global state.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		NotificationsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridian_notifications_scheduled_total",
			Help: "Total number of local notifications handed to the OS",
		}),
		NotificationsTapped: factory.NewCounter(prometheus.CounterOpts{
			Name: "veridian_notifications_tapped_total",
			Help: "Total number of local notification taps processed",
		}),
		NotificationsSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridian_notifications_suppressed_total",
			Help: "Notifications not surfaced, by reason",
		}, []string{"reason"}),
		NotificationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridian_notification_errors_total",
			Help: "Swallowed notification failures, by operation",
		}, []string{"op"}),
		DeliveryQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "veridian_notification_delivery_queue_depth",
			Help: "Payloads waiting in the delivery queue",
		}),
	}
}

func (m *Metrics) IncrementScheduled() {
	m.scheduled.Add(1)
	m.NotificationsScheduled.Inc()
}

func (m *Metrics) IncrementTapped() {
	m.tapped.Add(1)
	m.NotificationsTapped.Inc()
}

func (m *Metrics) IncrementSuppressed(reason string) {
	m.NotificationsSuppressed.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetQueueDepth(depth int) {
	m.DeliveryQueueDepth.Set(float64(depth))
}

// RecordError stores err as the last error and counts it under op.
func (m *Metrics) RecordError(op string, err error) {
	if err == nil {
		return
	}
	m.NotificationErrors.WithLabelValues(op).Inc()

	m.mu.Lock()
	m.lastError = fmt.Sprintf("%s: %v", op, err)
	m.mu.Unlock()
}

// Snapshot returns the host-facing counters.
func (m *Metrics) Snapshot() models.MetricsSnapshot {
	m.mu.RLock()
	lastError := m.lastError
	m.mu.RUnlock()

	return models.MetricsSnapshot{
		TotalScheduled: m.scheduled.Load(),
		TotalTapped:    m.tapped.Load(),
		LastError:      lastError,
	}
}
