// Package coldstart routes notification taps to the right profile and screen,
// holding a tap that arrives before the host has wired its routing callbacks
// (the app was launched by the tap) until both callbacks are registered.
package coldstart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/clock"
)

const (
	// DefaultWarmNavigationDelay lets the profile switch transition finish.
	DefaultWarmNavigationDelay = 500 * time.Millisecond
	// DefaultColdNavigationDelay is longer because boot work competes for
	// the main thread.
	DefaultColdNavigationDelay = time.Second
	// DefaultNotificationsRoute is where taps land.
	DefaultNotificationsRoute = "/tabs/notifications"
)

// ProfileSwitcher makes profileID the active profile in the host UI.
type ProfileSwitcher func(profileID string)

// Navigator moves the host UI to path, highlighting notificationID.
type Navigator func(path, notificationID string) error

// ProfileCleaner clears tray entries that belong to a profile.
type ProfileCleaner interface {
	ClearDeliveredNotificationsForProfile(ctx context.Context, profileID string)
}

// Observer counts taps and swallowed failures.
type Observer interface {
	IncrementTapped()
	RecordError(op string, err error)
}

type Router struct {
	mu        sync.Mutex
	state     models.ColdStartState
	pending   *models.PendingColdStartTarget
	switcher  ProfileSwitcher
	navigator Navigator

	fallback           func(path string)
	cleaner            ProfileCleaner
	scheduler          clock.Scheduler
	observer           Observer
	logger             *slog.Logger
	notificationsRoute string
	warmDelay          time.Duration
	coldDelay          time.Duration
}

type Option func(*Router)

func WithScheduler(s clock.Scheduler) Option {
	return func(r *Router) {
		r.scheduler = s
	}
}

func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithFallbackNavigator sets the direct location change used when the
// registered navigator fails.
func WithFallbackNavigator(fn func(path string)) Option {
	return func(r *Router) {
		r.fallback = fn
	}
}

func WithNotificationsRoute(route string) Option {
	return func(r *Router) {
		if route != "" {
			r.notificationsRoute = route
		}
	}
}

func WithNavigationDelays(warm, cold time.Duration) Option {
	return func(r *Router) {
		r.warmDelay = warm
		r.coldDelay = cold
	}
}

func New(cleaner ProfileCleaner, opts ...Option) *Router {
	r := &Router{
		state:              models.ColdStartIdle,
		cleaner:            cleaner,
		scheduler:          clock.New(),
		logger:             slog.Default(),
		notificationsRoute: DefaultNotificationsRoute,
		warmDelay:          DefaultWarmNavigationDelay,
		coldDelay:          DefaultColdNavigationDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleTap routes a (debounced) tap. With both callbacks registered the
// profile is switched now and navigation follows after the warm delay;
// otherwise the target is held until the host wires its callbacks.
func (r *Router) HandleTap(ctx context.Context, n models.LocalNotification) {
	if r.observer != nil {
		r.observer.IncrementTapped()
	}
	target := models.PendingColdStartTarget{
		ProfileID:      n.ProfileID(),
		NotificationID: n.NotificationID(),
	}

	r.mu.Lock()
	switcher, navigator := r.switcher, r.navigator
	if switcher == nil || navigator == nil {
		r.pending = &target
		r.state = models.ColdStartProcessing
		r.mu.Unlock()

		r.logger.InfoContext(ctx, "notification tap held for cold start",
			"notification_id", target.NotificationID,
			"profile_id", target.ProfileID,
		)
		return
	}
	r.mu.Unlock()

	r.dispatch(ctx, target, switcher, navigator, r.warmDelay)
}

// SetProfileSwitcher registers the host profile switcher and flushes any held
// tap if the router is now wired.
func (r *Router) SetProfileSwitcher(ctx context.Context, fn ProfileSwitcher) {
	r.mu.Lock()
	r.switcher = fn
	r.mu.Unlock()
	r.flush(ctx)
}

// SetNavigator registers the host navigator and flushes any held tap if the
// router is now wired.
func (r *Router) SetNavigator(ctx context.Context, fn Navigator) {
	r.mu.Lock()
	r.navigator = fn
	r.mu.Unlock()
	r.flush(ctx)
}

// flush consumes the held target exactly once.
func (r *Router) flush(ctx context.Context) {
	r.mu.Lock()
	switcher, navigator := r.switcher, r.navigator
	if switcher == nil || navigator == nil || r.pending == nil {
		r.mu.Unlock()
		return
	}
	target := *r.pending
	r.pending = nil
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "flushing cold start notification tap",
		"notification_id", target.NotificationID,
		"profile_id", target.ProfileID,
	)
	r.dispatch(ctx, target, switcher, navigator, r.coldDelay)
}

func (r *Router) dispatch(ctx context.Context, target models.PendingColdStartTarget, switcher ProfileSwitcher, navigator Navigator, delay time.Duration) {
	if target.ProfileID != "" {
		switcher(target.ProfileID)
		if r.cleaner != nil {
			r.cleaner.ClearDeliveredNotificationsForProfile(ctx, target.ProfileID)
		}
	}

	// Fire-and-forget: landing on the notifications screen twice is harmless.
	r.scheduler.AfterFunc(delay, func() {
		r.navigate(ctx, navigator, target.NotificationID)
	})
}

func (r *Router) navigate(ctx context.Context, navigator Navigator, notificationID string) {
	err := callNavigator(navigator, r.notificationsRoute, notificationID)
	if err == nil {
		return
	}

	r.logger.WarnContext(ctx, "notification navigation failed, using fallback",
		"notification_id", notificationID,
		"error", err,
	)
	if r.observer != nil {
		r.observer.RecordError("navigate", err)
	}
	if r.fallback != nil {
		r.fallback(r.notificationsRoute)
	}
}

func callNavigator(navigator Navigator, path, notificationID string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("navigator panicked: %v", p)
		}
	}()
	return navigator(path, notificationID)
}

// CompleteColdStart marks initial routing as handled. The held target, if
// any, is left alone.
func (r *Router) CompleteColdStart() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == models.ColdStartProcessing {
		r.state = models.ColdStartReady
	}
}

// HasPendingColdStart is true while a tap is being held or routed.
func (r *Router) HasPendingColdStart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == models.ColdStartProcessing || r.pending != nil
}

// TargetProfileID returns the held tap's profile so the host can select it
// during boot, or "".
func (r *Router) TargetProfileID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return ""
	}
	return r.pending.ProfileID
}

func (r *Router) State() models.ColdStartState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// IsWired reports whether both routing callbacks are registered.
func (r *Router) IsWired() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.switcher != nil && r.navigator != nil
}
