package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/cardano-foundation/veridian-wallet-sub003/internal/host"
	jwttoken "github.com/cardano-foundation/veridian-wallet-sub003/internal/jwt_token"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/models"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/notifier"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/service"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/notification/store/record"
	"github.com/cardano-foundation/veridian-wallet-sub003/internal/platform/metrics"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/platform/clock"
	"github.com/cardano-foundation/veridian-wallet-sub003/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctx     context.Context
	fake    *clock.Fake
	tray    *notifier.Memory
	session *host.Session
	engine  *service.Service
	router  chi.Router
	token   string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.fake = clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.tray = notifier.NewMemory(notifier.WithLogger(logger))
	s.session = host.NewSession(logger)

	engine, err := service.New(record.NewInMemory(), s.tray, s.session,
		service.WithScheduler(s.fake),
		service.WithLogger(logger),
	)
	s.Require().NoError(err)
	s.engine = engine
	s.engine.Start(s.ctx)

	jwtService := jwttoken.NewJWTService("test-key", "notifyd", "notifyd-control")
	s.token, err = jwtService.GenerateAccessToken("ops", time.Hour)
	s.Require().NoError(err)

	h := New(s.engine, s.session, host.NewInbox(s.session, s.engine), s.tray, logger, metrics.New(nil),
		jwttoken.NewJWTServiceAdapter(jwtService))
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.engine.Stop()
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	} else {
		req = testutil.NewRequest(s.T(), method, path)
	}
	return testutil.DoRequest(s.router, testutil.WithBearer(req, s.token))
}

func (s *HandlerSuite) TestRequiresBearerToken() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/metrics"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

func (s *HandlerSuite) TestInjectNotification_DeliversForOtherProfile() {
	rr := s.do(http.MethodPost, "/v1/permissions", nil)
	testutil.AssertStatusOK(s.T(), rr)
	s.True(testutil.UnmarshalResponse[PermissionResponse](s.T(), rr).Granted)

	s.Equal(http.StatusNoContent, s.do(http.MethodPut, "/v1/session/profile",
		SetProfileRequest{ProfileID: "p1", DisplayName: "Work"}).Code)
	s.Equal(http.StatusNoContent, s.do(http.MethodPut, "/v1/session/relationships", models.RelationshipContext{
		Connections: []models.Relationship{{ID: "c1", Label: "Acme"}},
		Profiles:    []models.Relationship{{ID: "p2", Label: "Personal"}},
	}).Code)

	rr = s.do(http.MethodPost, "/v1/notifications", models.NotificationRecord{
		OwnerProfileID: "p2",
		Route:          models.RouteIpexApply,
		Payload:        map[string]any{"connectionId": "c1", "credentialName": "Passport"},
	})
	s.Equal(http.StatusAccepted, rr.Code)
	id := testutil.UnmarshalResponse[InjectResponse](s.T(), rr).ID
	_, err := uuid.Parse(id)
	s.NoError(err, "missing ids are generated")

	s.fake.Advance(time.Second)

	scheduled := s.tray.Scheduled()
	s.Require().Len(scheduled, 1)
	s.Equal(id, scheduled[0].ID)
	s.Equal("Personal", scheduled[0].Title)
	s.Equal("Acme has requested Passport from you", scheduled[0].Body)

	rr = s.do(http.MethodGet, "/v1/metrics", nil)
	testutil.AssertStatusOK(s.T(), rr)
	m := testutil.UnmarshalResponse[MetricsResponse](s.T(), rr)
	s.Equal(int64(1), m.TotalScheduled)
	s.Equal(0, m.QueueLength)
}

func (s *HandlerSuite) TestInjectNotification_Validation() {
	rr := s.do(http.MethodPost, "/v1/notifications", models.NotificationRecord{ID: "n1"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")

	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/v1/notifications", "{")
	rr = testutil.DoRequest(s.router, testutil.WithBearer(req, s.token))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestForegroundGatesDelivery() {
	background := false
	s.Equal(http.StatusNoContent, s.do(http.MethodPut, "/v1/session/foreground",
		SetForegroundRequest{Foreground: &background}).Code)

	s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/v1/notifications",
		models.NotificationRecord{ID: "n1", OwnerProfileID: "p2", Route: models.RouteMultisigIcp}).Code)
	s.fake.Advance(5 * time.Second)

	s.Empty(s.tray.Scheduled())
	s.False(s.session.IsForeground(s.ctx))

	rr := s.do(http.MethodPut, "/v1/session/foreground", map[string]any{})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func (s *HandlerSuite) TestShownLedgerRoutes() {
	s.session.SetProfile(host.Profile{ID: "p1"})
	for _, id := range []string{"A", "B", "C"} {
		s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/v1/notifications",
			models.NotificationRecord{ID: id, OwnerProfileID: "p1", Route: models.RouteIpexGrant}).Code)
	}

	rr := s.do(http.MethodGet, "/v1/notifications/shown", nil)
	s.Equal([]string{"A", "B", "C"}, testutil.UnmarshalResponse[ShownResponse](s.T(), rr).IDs)

	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/v1/notifications/prune", PruneRequest{IDs: []string{"C"}}).Code)
	rr = s.do(http.MethodGet, "/v1/notifications/shown", nil)
	s.Equal([]string{"C"}, testutil.UnmarshalResponse[ShownResponse](s.T(), rr).IDs)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, "/v1/notifications/shown", nil).Code)
	rr = s.do(http.MethodGet, "/v1/notifications/shown", nil)
	s.Empty(testutil.UnmarshalResponse[ShownResponse](s.T(), rr).IDs)
}

func (s *HandlerSuite) TestColdStartTapFlow() {
	s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/v1/taps",
		TapRequest{NotificationID: "notif-1", ProfileID: "p1"}).Code)
	s.Require().Eventually(s.engine.TapPending, time.Second, time.Millisecond,
		"taps reach the engine through the OS tap listener")
	s.fake.Advance(service.DefaultTapDebounce)

	rr := s.do(http.MethodGet, "/v1/cold-start", nil)
	s.Equal(ColdStartResponse{State: "PROCESSING", Pending: true, TargetProfileID: "p1"},
		*testutil.UnmarshalResponse[ColdStartResponse](s.T(), rr))

	s.engine.SetProfileSwitcher(s.session.SwitchProfile)
	s.engine.SetNavigator(s.session.Navigate)
	s.fake.Advance(time.Second)

	s.Equal("p1", s.session.Profile().ID)
	s.Equal([]host.Navigation{{Path: "/tabs/notifications", NotificationID: "notif-1"}}, s.session.Navigations())

	s.Equal(http.StatusNoContent, s.do(http.MethodPost, "/v1/cold-start/complete", nil).Code)
	rr = s.do(http.MethodGet, "/v1/cold-start", nil)
	s.Equal(ColdStartResponse{State: "READY", Wired: true},
		*testutil.UnmarshalResponse[ColdStartResponse](s.T(), rr))
}

func (s *HandlerSuite) TestTapIgnoredWhileEngineStopped() {
	s.engine.Stop()
	s.Equal(0, s.tray.Listeners())

	s.Equal(http.StatusAccepted, s.do(http.MethodPost, "/v1/taps",
		TapRequest{NotificationID: "notif-1", ProfileID: "p1"}).Code)
	s.False(s.engine.TapPending())

	rr := s.do(http.MethodGet, "/v1/cold-start", nil)
	s.False(testutil.UnmarshalResponse[ColdStartResponse](s.T(), rr).Pending)
}

func (s *HandlerSuite) TestTapValidation() {
	rr := s.do(http.MethodPost, "/v1/taps", TapRequest{ProfileID: "p1"})
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
}

func TestTapRequest_ToEvent(t *testing.T) {
	event := TapRequest{NotificationID: "n1"}.ToEvent()
	if event.ActionID != "tap" || event.Notification.ProfileID() != "" || event.Notification.NotificationID() != "n1" {
		t.Fatalf("unexpected event %+v", event)
	}
}
