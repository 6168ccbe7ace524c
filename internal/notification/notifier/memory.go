// Package notifier provides an in-process implementation of the OS local
// notification surface. The daemon uses it to simulate a device tray and
// tests use it to observe scheduling.
package notifier

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/ports"
)

type Memory struct {
	mu         sync.Mutex
	logger     *slog.Logger
	permission models.PermissionState
	grantOnAsk bool
	holdAll    bool

	pending   []models.LocalNotification
	delivered []models.LocalNotification
	scheduled []models.LocalNotification
	channels  map[string]models.ChannelConfig

	listeners map[int]ports.TapListener
	nextID    int

	errs map[string]error
}

type Option func(*Memory)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Memory) {
		m.logger = logger
	}
}

// WithPermission sets the initial permission state.
func WithPermission(state models.PermissionState) Option {
	return func(m *Memory) {
		m.permission = state
	}
}

// WithDenyOnRequest makes RequestPermission answer denied.
func WithDenyOnRequest() Option {
	return func(m *Memory) {
		m.grantOnAsk = false
	}
}

// WithHoldPending keeps scheduled notifications pending until Display.
func WithHoldPending() Option {
	return func(m *Memory) {
		m.holdAll = true
	}
}

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		logger:     slog.Default(),
		permission: models.PermissionPrompt,
		grantOnAsk: true,
		channels:   make(map[string]models.ChannelConfig),
		listeners:  make(map[int]ports.TapListener),
		errs:       make(map[string]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Operation names accepted by FailWith.
const (
	OpRequestPermission  = "request_permission"
	OpCheckPermission    = "check_permission"
	OpSchedule           = "schedule"
	OpCancel             = "cancel"
	OpGetDelivered       = "get_delivered"
	OpGetPending         = "get_pending"
	OpRemoveDelivered    = "remove_delivered"
	OpRemoveAllDelivered = "remove_all_delivered"
	OpCreateChannel      = "create_channel"
)

// FailWith makes op return err until cleared with a nil err.
func (m *Memory) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

func (m *Memory) RequestPermission(_ context.Context) (models.PermissionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpRequestPermission]; err != nil {
		return models.PermissionDenied, err
	}
	if m.permission == models.PermissionPrompt {
		if m.grantOnAsk {
			m.permission = models.PermissionGranted
		} else {
			m.permission = models.PermissionDenied
		}
	}
	return m.permission, nil
}

func (m *Memory) CheckPermission(_ context.Context) (models.PermissionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpCheckPermission]; err != nil {
		return models.PermissionDenied, err
	}
	return m.permission, nil
}

func (m *Memory) Schedule(ctx context.Context, notifications []models.LocalNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpSchedule]; err != nil {
		return err
	}
	for _, n := range notifications {
		m.scheduled = append(m.scheduled, n)
		if m.holdAll {
			m.pending = append(m.pending, n)
			continue
		}
		m.delivered = append(m.delivered, n)
		m.logger.InfoContext(ctx, "local notification displayed",
			"id", n.ID,
			"title", n.Title,
			"body", n.Body,
			"profile_id", n.ProfileID(),
		)
	}
	return nil
}

func (m *Memory) Cancel(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpCancel]; err != nil {
		return err
	}
	m.pending = without(m.pending, ids)
	return nil
}

func (m *Memory) GetDelivered(_ context.Context) ([]models.LocalNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpGetDelivered]; err != nil {
		return nil, err
	}
	return slices.Clone(m.delivered), nil
}

func (m *Memory) GetPending(_ context.Context) ([]models.LocalNotification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpGetPending]; err != nil {
		return nil, err
	}
	return slices.Clone(m.pending), nil
}

func (m *Memory) RemoveDelivered(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpRemoveDelivered]; err != nil {
		return err
	}
	m.delivered = without(m.delivered, ids)
	return nil
}

func (m *Memory) RemoveAllDelivered(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpRemoveAllDelivered]; err != nil {
		return err
	}
	m.delivered = nil
	return nil
}

func (m *Memory) AddTapListener(listener ports.TapListener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners[id] = listener
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *Memory) CreateChannel(_ context.Context, cfg models.ChannelConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.errs[OpCreateChannel]; err != nil {
		return err
	}
	m.channels[cfg.ID] = cfg
	return nil
}

// Display moves a held notification from pending to delivered.
func (m *Memory) Display(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.pending {
		if n.ID == id {
			m.pending = slices.Delete(m.pending, i, i+1)
			m.delivered = append(m.delivered, n)
			return true
		}
	}
	return false
}

// Tap simulates the user tapping a notification. Listeners run on the
// calling goroutine.
func (m *Memory) Tap(event models.TapEvent) {
	m.mu.Lock()
	listeners := make([]ports.TapListener, 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// Scheduled returns every notification passed to Schedule, in order.
func (m *Memory) Scheduled() []models.LocalNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.scheduled)
}

// Channel returns a created channel.
func (m *Memory) Channel(id string) (models.ChannelConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cfg, ok := m.channels[id]
	return cfg, ok
}

// SetPermission overrides the permission state.
func (m *Memory) SetPermission(state models.PermissionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.permission = state
}

// Listeners reports the number of registered tap listeners.
func (m *Memory) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

func without(list []models.LocalNotification, ids []string) []models.LocalNotification {
	return slices.DeleteFunc(list, func(n models.LocalNotification) bool {
		return slices.Contains(ids, n.ID)
	})
}

var _ ports.LocalNotifier = (*Memory)(nil)
