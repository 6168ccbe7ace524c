// Package service is the notification orchestrator. It receives server
// notifications, decides whether they become local OS notifications, and
// routes notification taps back into the host application.
//
// Nothing here returns transient I/O failures to the caller: a notification
// subsystem must never be the reason a surrounding feature fails. Failures are
// logged and exposed through GetMetrics.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/coldstart"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/delivery"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/display"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/ledger"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/metrics"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/ports"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/clock"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/debounce"
)

const tracerName = "github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/service"

// Suppression reasons reported to metrics.
const (
	reasonBackground    = "background"
	reasonColdStart     = "cold_start"
	reasonActiveProfile = "active_profile"
	reasonDuplicate     = "duplicate"
	reasonPermission    = "permission"
)

type Service struct {
	notifier  ports.LocalNotifier
	lifecycle ports.Lifecycle
	reporter  ports.ErrorReporter
	metrics   *metrics.Metrics
	scheduler clock.Scheduler
	logger    *slog.Logger
	tracer    trace.Tracer
	config    Config
	fallback  func(path string)

	ledger *ledger.Ledger
	queue  *delivery.Queue
	router *coldstart.Router
	taps   *debounce.Debouncer[models.TapEvent]

	mu        sync.Mutex
	baseCtx   context.Context
	cancel    context.CancelFunc
	removeTap func()
	events    chan models.TapEvent
	done      chan struct{}
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithScheduler(scheduler clock.Scheduler) Option {
	return func(s *Service) {
		s.scheduler = scheduler
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithErrorReporter sets the host collaborator that shows permission
// failures to the user.
func WithErrorReporter(reporter ports.ErrorReporter) Option {
	return func(s *Service) {
		s.reporter = reporter
	}
}

// WithFallbackNavigator sets the direct location change used when the host
// navigator fails.
func WithFallbackNavigator(fn func(path string)) Option {
	return func(s *Service) {
		s.fallback = fn
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.tracer = tp.Tracer(tracerName)
	}
}

func New(store ports.RecordStore, notifier ports.LocalNotifier, lifecycle ports.Lifecycle, opts ...Option) (*Service, error) {
	if notifier == nil {
		return nil, errors.New("local notifier is required")
	}
	if lifecycle == nil {
		return nil, errors.New("lifecycle probe is required")
	}

	s := &Service{
		notifier:  notifier,
		lifecycle: lifecycle,
		scheduler: clock.New(),
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
		config:    DefaultConfig(),
		baseCtx:   context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}

	l, err := ledger.New(store, notifier,
		ledger.WithLogger(s.logger),
		ledger.WithErrorRecorder(s.metrics),
		ledger.WithClock(s.scheduler),
	)
	if err != nil {
		return nil, err
	}
	s.ledger = l

	q, err := delivery.New(s.dispatch,
		delivery.WithInterval(s.config.DeliveryInterval),
		delivery.WithScheduler(s.scheduler),
		delivery.WithObserver(s.metrics),
		delivery.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	s.queue = q

	s.router = coldstart.New(s,
		coldstart.WithScheduler(s.scheduler),
		coldstart.WithObserver(s.metrics),
		coldstart.WithLogger(s.logger),
		coldstart.WithFallbackNavigator(s.fallback),
		coldstart.WithNotificationsRoute(s.config.NotificationsRoute),
		coldstart.WithNavigationDelays(s.config.WarmNavigationDelay, s.config.ColdNavigationDelay),
	)
	s.taps = debounce.New(s.config.TapDebounce, s.scheduler, s.processNotificationTap)

	return s, nil
}

// Start creates the notification channel, subscribes to OS taps and starts
// the delivery queue. Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.baseCtx = runCtx
	s.cancel = cancel
	s.events = make(chan models.TapEvent)
	s.done = make(chan struct{})
	events, done := s.events, s.done
	s.mu.Unlock()

	if err := s.notifier.CreateChannel(runCtx, s.config.Channel); err != nil {
		s.recordError(runCtx, "create_channel", err)
	}

	removeTap := s.notifier.AddTapListener(func(event models.TapEvent) {
		select {
		case events <- event:
		case <-runCtx.Done():
		}
	})
	s.mu.Lock()
	s.removeTap = removeTap
	s.mu.Unlock()
	s.queue.Start(runCtx)

	go s.loop(runCtx, events, done)

	s.logger.InfoContext(ctx, "notification service started",
		"delivery_interval", s.config.DeliveryInterval,
		"tap_debounce", s.config.TapDebounce,
	)
}

// Stop unsubscribes from taps, halts the queue and drops any tap still
// inside its debounce window. Pending navigation timers are left to fire.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done, removeTap := s.cancel, s.done, s.removeTap
	s.cancel = nil
	s.removeTap = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	if removeTap != nil {
		removeTap()
	}
	cancel()
	<-done
	s.queue.Stop()
	s.taps.Cancel()
}

// loop is the single consumer of OS tap messages.
func (s *Service) loop(ctx context.Context, events <-chan models.TapEvent, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			s.HandleTapEvent(event)
		}
	}
}

// HandleTapEvent feeds a raw OS tap into the debouncer. Only the last tap of
// a burst is processed.
func (s *Service) HandleTapEvent(event models.TapEvent) {
	s.taps.Call(event)
}

// TapPending reports whether a tap is waiting out its debounce window.
func (s *Service) TapPending() bool {
	return s.taps.Pending()
}

func (s *Service) processNotificationTap(event models.TapEvent) {
	ctx, span := s.tracer.Start(s.context(), "notification.tap",
		trace.WithAttributes(
			attribute.String("notification.id", event.Notification.NotificationID()),
			attribute.String("profile.id", event.Notification.ProfileID()),
		),
	)
	defer span.End()

	s.router.HandleTap(ctx, event.Notification)
}

// RequestPermissions asks the OS for notification permission. Errors and
// denials both yield false and a user-visible report.
func (s *Service) RequestPermissions(ctx context.Context) bool {
	state, err := s.notifier.RequestPermission(ctx)
	if err != nil {
		s.recordError(ctx, "request_permission", err)
		s.report(ctx, "Unable to enable notifications")
		return false
	}
	if state != models.PermissionGranted {
		s.logger.InfoContext(ctx, "notification permission not granted", "state", state)
		s.report(ctx, "Notifications are disabled for this app")
		return false
	}
	return true
}

// ScheduleNotification enqueues payload for delivery when permission is
// granted, and silently drops it otherwise.
func (s *Service) ScheduleNotification(ctx context.Context, payload models.NotificationPayload) {
	state, err := s.notifier.CheckPermission(ctx)
	if err != nil {
		s.recordError(ctx, "check_permission", err)
		s.metrics.IncrementSuppressed(reasonPermission)
		return
	}
	if state != models.PermissionGranted {
		s.metrics.IncrementSuppressed(reasonPermission)
		return
	}
	s.queue.Enqueue(payload)
}

// ShowLocalNotification is the entry point from the server notification
// sync. Each check short-circuits.
func (s *Service) ShowLocalNotification(
	ctx context.Context,
	record models.NotificationRecord,
	currentProfileID string,
	currentProfileName string,
	rc models.RelationshipContext,
) {
	ctx, span := s.tracer.Start(ctx, "notification.show",
		trace.WithAttributes(
			attribute.String("notification.id", record.ID),
			attribute.String("notification.route", string(record.Route)),
		),
	)
	defer span.End()

	logger := s.logger.With(
		"notification_id", record.ID,
		"owner_profile_id", record.OwnerProfileID,
		"current_profile_id", currentProfileID,
	)

	if !s.lifecycle.IsForeground(ctx) {
		s.suppress(ctx, span, logger, reasonBackground)
		return
	}
	if s.router.State() == models.ColdStartProcessing {
		s.suppress(ctx, span, logger, reasonColdStart)
		return
	}
	if record.OwnerProfileID == currentProfileID {
		// The in-app list already shows it; make sure it never pops up.
		s.ledger.MarkShown(ctx, record.ID)
		s.suppress(ctx, span, logger, reasonActiveProfile)
		return
	}
	if s.ledger.IsShown(ctx, record.ID) {
		s.suppress(ctx, span, logger, reasonDuplicate)
		return
	}

	payload := models.NotificationPayload{
		NotificationID: record.ID,
		ProfileID:      record.OwnerProfileID,
		Title:          display.Title(record, rc),
		Body:           display.Resolve(record, rc),
	}
	s.ScheduleNotification(ctx, payload)
	s.ledger.Add(ctx, record.ID)

	logger.DebugContext(ctx, "local notification queued",
		"route", record.Route,
		"current_profile_name", currentProfileName,
	)
}

func (s *Service) suppress(ctx context.Context, span trace.Span, logger *slog.Logger, reason string) {
	span.SetAttributes(attribute.String("notification.suppressed", reason))
	s.metrics.IncrementSuppressed(reason)
	logger.DebugContext(ctx, "local notification suppressed", "reason", reason)
}

// CancelNotification drops a pending OS notification.
func (s *Service) CancelNotification(ctx context.Context, id string) {
	if err := s.notifier.Cancel(ctx, []string{id}); err != nil {
		s.recordError(ctx, "cancel", err)
	}
}

// ClearAllDeliveredNotifications empties the OS tray.
func (s *Service) ClearAllDeliveredNotifications(ctx context.Context) {
	if err := s.notifier.RemoveAllDelivered(ctx); err != nil {
		s.recordError(ctx, "remove_all_delivered", err)
	}
}

// ClearDeliveredNotificationsForProfile removes tray entries routed to
// profileID so switching profiles leaves no stale entries behind.
func (s *Service) ClearDeliveredNotificationsForProfile(ctx context.Context, profileID string) {
	delivered, err := s.notifier.GetDelivered(ctx)
	if err != nil {
		s.recordError(ctx, "get_delivered", err)
		return
	}
	var ids []string
	for _, n := range delivered {
		if n.ProfileID() == profileID {
			ids = append(ids, n.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	if err := s.notifier.RemoveDelivered(ctx, ids); err != nil {
		s.recordError(ctx, "remove_delivered", err)
	}
}

func (s *Service) MarkAsShown(ctx context.Context, id string) {
	s.ledger.MarkShown(ctx, id)
}

func (s *Service) IsNotificationShown(ctx context.Context, id string) bool {
	return s.ledger.IsShown(ctx, id)
}

// CleanupShownNotifications prunes the ledger to currentIDs. An empty set is
// ignored.
func (s *Service) CleanupShownNotifications(ctx context.Context, currentIDs []string) {
	s.ledger.Prune(ctx, currentIDs)
}

// ClearShownNotifications deletes the ledger.
func (s *Service) ClearShownNotifications(ctx context.Context) {
	s.ledger.Clear(ctx)
}

// ShownNotifications lists ledger entries.
func (s *Service) ShownNotifications(ctx context.Context) []string {
	return s.ledger.Shown(ctx)
}

func (s *Service) SetProfileSwitcher(fn coldstart.ProfileSwitcher) {
	s.router.SetProfileSwitcher(s.context(), fn)
}

func (s *Service) SetNavigator(fn coldstart.Navigator) {
	s.router.SetNavigator(s.context(), fn)
}

func (s *Service) IsWired() bool {
	return s.router.IsWired()
}

func (s *Service) CompleteColdStart() {
	s.router.CompleteColdStart()
}

func (s *Service) HasPendingColdStart() bool {
	return s.router.HasPendingColdStart()
}

func (s *Service) GetTargetProfileIDForColdStart() string {
	return s.router.TargetProfileID()
}

func (s *Service) ColdStartState() models.ColdStartState {
	return s.router.State()
}

func (s *Service) GetMetrics() models.MetricsSnapshot {
	return s.metrics.Snapshot()
}

// QueueLength reports payloads waiting for dispatch.
func (s *Service) QueueLength() int {
	return s.queue.Len()
}

func (s *Service) dispatch(ctx context.Context, payload models.NotificationPayload) error {
	return s.notifier.Schedule(ctx, []models.LocalNotification{
		payload.ToLocalNotification(s.config.Channel.ID),
	})
}

func (s *Service) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}

func (s *Service) recordError(ctx context.Context, op string, err error) {
	s.logger.WarnContext(ctx, "notification operation failed",
		"op", op,
		"error", err,
	)
	s.metrics.RecordError(op, err)
}

func (s *Service) report(ctx context.Context, message string) {
	if s.reporter != nil {
		s.reporter.ReportError(ctx, message)
	}
}
