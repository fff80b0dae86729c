package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventreservation/internal/adapters/metrics"
	"eventreservation/internal/delivery/http/controllers"
	"eventreservation/internal/delivery/http/middleware"
	"eventreservation/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type stubEventService struct{ domain.EventService }

func (stubEventService) ListAvailableEvents(context.Context) ([]*domain.EventSummary, error) {
	return []*domain.EventSummary{}, nil
}

func (stubEventService) ListAllEvents(context.Context) ([]*domain.EventSummary, error) {
	return []*domain.EventSummary{}, nil
}

type stubReservationService struct{ domain.ReservationService }

func (stubReservationService) Scan(_ context.Context, _ int64, _ string) (*domain.CheckIn, error) {
	return &domain.CheckIn{Outcome: domain.ScanNotFound}, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, string, string) (string, error) {
	return "", domain.ErrInvalidCredentials
}

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if token == "good" {
		return "admin", nil
	}
	return "", errors.New("bad token")
}

func newTestRouter(t *testing.T, publicBurst int) (http.Handler, *metrics.Recorder) {
	t.Helper()
	recorder := metrics.NewRecorder()
	handler := NewRouter(Controllers{
		Auth:        controllers.NewAuthController(testLogger, stubAuthService{}),
		Event:       controllers.NewEventController(testLogger, stubEventService{}),
		Reservation: controllers.NewReservationController(testLogger, stubReservationService{}),
	}, RouterOptions{
		Logger:        testLogger,
		Verifier:      stubVerifier{},
		Metrics:       recorder,
		PublicLimiter: middleware.NewRateLimiter(0.001, publicBurst, testLogger),
		AdminLimiter:  middleware.NewRateLimiter(100, 100, testLogger),
		CORSOrigins:   []string{"https://reserve.example.com"},
	})
	return handler, recorder
}

func serve(h http.Handler, method, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "192.0.2.10:40000"
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Routes(t *testing.T) {
	h, _ := newTestRouter(t, 100)
	const token = "3f8e2a4b-9c1d-4e5f-a6b7-c8d9e0f1a2b3"

	tests := []struct {
		name       string
		method     string
		path       string
		bearer     string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "public events", method: http.MethodGet, path: "/events", wantStatus: http.StatusOK},
		{name: "login rejected", method: http.MethodPost, path: "/auth/login", wantStatus: http.StatusBadRequest},
		{name: "admin without token", method: http.MethodGet, path: "/admin/events/all", wantStatus: http.StatusUnauthorized},
		{name: "admin with bad token", method: http.MethodGet, path: "/admin/events/all", bearer: "bad", wantStatus: http.StatusUnauthorized},
		{name: "admin with token", method: http.MethodGet, path: "/admin/events/all", bearer: "good", wantStatus: http.StatusOK},
		{name: "auth status", method: http.MethodGet, path: "/auth/status", bearer: "good", wantStatus: http.StatusOK},
		{name: "scan unknown token", method: http.MethodPost, path: "/admin/events/1/reservations/" + token + "/scan", bearer: "good", wantStatus: http.StatusNotFound},
		{name: "scan requires auth", method: http.MethodPost, path: "/admin/events/1/reservations/" + token + "/scan", wantStatus: http.StatusUnauthorized},
		{name: "wrong method", method: http.MethodDelete, path: "/events", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, tt.method, tt.path, tt.bearer)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestRouter_PublicRateLimit(t *testing.T) {
	h, _ := newTestRouter(t, 1)

	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/events", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/events", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/health", "").Code, "health is not rate limited")
}

func TestRouter_RecordsRouteMetrics(t *testing.T) {
	h, _ := newTestRouter(t, 100)

	serve(h, http.MethodGet, "/events", "")
	serve(h, http.MethodGet, "/nope", "")

	body := serve(h, http.MethodGet, "/metrics", "").Body.String()
	assert.True(t, strings.Contains(body, `route="GET /events",status="200"`), "matched route label")
	assert.True(t, strings.Contains(body, `route="unmatched",status="404"`), "unmatched route label")
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newTestRouter(t, 100)
	req := httptest.NewRequest(http.MethodOptions, "/reservations", nil)
	req.Header.Set("Origin", "https://reserve.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://reserve.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}
