package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/host"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/platform/metrics"
	dErrors "github.com/cardano-foundation/veridian-wallet-sub003/pkg/domain-errors"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/httputil"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/middleware/auth"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/middleware/request"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/middleware/requesttime"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/requestcontext"
)

// Engine is the orchestrator surface the control API drives.
type Engine interface {
	CleanupShownNotifications(ctx context.Context, currentIDs []string)
	ClearShownNotifications(ctx context.Context)
	ShownNotifications(ctx context.Context) []string
	RequestPermissions(ctx context.Context) bool
	CompleteColdStart()
	ColdStartState() models.ColdStartState
	HasPendingColdStart() bool
	GetTargetProfileIDForColdStart() string
	IsWired() bool
	GetMetrics() models.MetricsSnapshot
	QueueLength() int
}

// Session is the host state the API edits.
type Session interface {
	SetProfile(p host.Profile)
	SetRelationships(rc models.RelationshipContext)
	SetForeground(foreground bool)
}

// Inbox accepts injected server notification records.
type Inbox interface {
	Deliver(ctx context.Context, record models.NotificationRecord)
}

// Tapper raises a tap the way the OS does, through the registered tap
// listeners.
type Tapper interface {
	Tap(event models.TapEvent)
}

// Handler serves the notifyd control API.
type Handler struct {
	engine       Engine
	session      Session
	inbox        Inbox
	tapper       Tapper
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator auth.JWTValidator
}

func New(
	engine Engine,
	session Session,
	inbox Inbox,
	tapper Tapper,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator auth.JWTValidator) *Handler {
	return &Handler{
		engine:       engine,
		session:      session,
		inbox:        inbox,
		tapper:       tapper,
		logger:       logger,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the control API routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(request.RequestID)
	api.Use(chimw.Recoverer)
	api.Use(chimw.Timeout(30 * time.Second))
	api.Use(requesttime.Middleware)
	api.Use(metrics.LatencyMiddleware(h.metrics))
	api.Use(auth.RequireAuth(h.jwtValidator, h.logger))

	api.Put("/session/profile", h.handleSetProfile)
	api.Put("/session/relationships", h.handleSetRelationships)
	api.Put("/session/foreground", h.handleSetForeground)

	api.Post("/notifications", h.handleInjectNotification)
	api.Post("/notifications/prune", h.handlePrune)
	api.Get("/notifications/shown", h.handleListShown)
	api.Delete("/notifications/shown", h.handleClearShown)

	api.Post("/taps", h.handleTap)
	api.Post("/permissions", h.handleRequestPermissions)

	api.Post("/cold-start/complete", h.handleCompleteColdStart)
	api.Get("/cold-start", h.handleGetColdStart)

	api.Get("/metrics", h.handleGetMetrics)

	r.Mount("/v1", api)
}

func (h *Handler) handleSetProfile(w http.ResponseWriter, r *http.Request) {
	var req SetProfileRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.session.SetProfile(host.Profile{ID: req.ProfileID, Name: req.DisplayName})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetRelationships(w http.ResponseWriter, r *http.Request) {
	var req models.RelationshipContext
	if !h.decode(w, r, &req) {
		return
	}
	h.session.SetRelationships(req)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetForeground(w http.ResponseWriter, r *http.Request) {
	var req SetForegroundRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.session.SetForeground(*req.Foreground)
	w.WriteHeader(http.StatusNoContent)
}

// handleInjectNotification feeds a server notification record through the
// same path as the Kafka feed.
func (h *Handler) handleInjectNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var record models.NotificationRecord
	if !h.decode(w, r, &record) {
		return
	}
	if record.Route == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "route is required"))
		return
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = requestcontext.Now(ctx)
	}

	h.logger.InfoContext(ctx, "notification injected",
		"notification_id", record.ID,
		"route", record.Route,
		"operator", requestcontext.Operator(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	h.inbox.Deliver(ctx, record)
	httputil.WriteJSON(w, http.StatusAccepted, InjectResponse{ID: record.ID})
}

func (h *Handler) handlePrune(w http.ResponseWriter, r *http.Request) {
	var req PruneRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.engine.CleanupShownNotifications(r.Context(), req.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListShown(w http.ResponseWriter, r *http.Request) {
	ids := h.engine.ShownNotifications(r.Context())
	if ids == nil {
		ids = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, ShownResponse{IDs: ids})
}

func (h *Handler) handleClearShown(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearShownNotifications(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// handleTap simulates the OS reporting a notification tap.
func (h *Handler) handleTap(w http.ResponseWriter, r *http.Request) {
	var req TapRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.tapper.Tap(req.ToEvent())
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleRequestPermissions(w http.ResponseWriter, r *http.Request) {
	granted := h.engine.RequestPermissions(r.Context())
	httputil.WriteJSON(w, http.StatusOK, PermissionResponse{Granted: granted})
}

func (h *Handler) handleCompleteColdStart(w http.ResponseWriter, r *http.Request) {
	h.engine.CompleteColdStart()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetColdStart(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ColdStartResponse{
		State:           h.engine.ColdStartState().String(),
		Pending:         h.engine.HasPendingColdStart(),
		TargetProfileID: h.engine.GetTargetProfileIDForColdStart(),
		Wired:           h.engine.IsWired(),
	})
}

func (h *Handler) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, MetricsResponse{
		MetricsSnapshot: h.engine.GetMetrics(),
		QueueLength:     h.engine.QueueLength(),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WarnContext(r.Context(), "invalid control request",
			"path", r.URL.Path,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}
