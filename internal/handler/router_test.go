package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/subpod/internal/metrics"
	"github.com/hitoshi/subpod/internal/middleware"
	"github.com/hitoshi/subpod/internal/model"
	"github.com/hitoshi/subpod/internal/pod"
)

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

func newTestRouter(t *testing.T, deps *RouterDeps) http.Handler {
	t.Helper()
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if deps.HealthChecker == nil {
		deps.HealthChecker = &mockHealthChecker{}
	}
	if deps.Pod == nil {
		deps.Pod = &mockPodService{
			readDataFn: func(ctx context.Context, caseID int64) (*model.DisplayContent, error) {
				return model.NewInfoContent(model.ItemNoSubscriptions, ""), nil
			},
			performActionFn: func(ctx context.Context, actionType string, payload json.RawMessage) (*model.ActionResult, error) {
				return model.NewActionResult(true, model.CancelSucceededMsg), nil
			},
		}
	}
	deps.PodMetadata = pod.Describe()
	return NewRouter(deps)
}

func TestNewRouter_Routes(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/pod", "", http.StatusOK},
		{http.MethodGet, "/pod/read?case_id=1", "", http.StatusOK},
		{http.MethodPost, "/pod/action", `{"action":{"type":"cancel_subs"}}`, http.StatusOK},
		{http.MethodGet, "/health", "", http.StatusOK},
		{http.MethodPost, "/pod/read?case_id=1", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/pod/action", "", http.StatusMethodNotAllowed},
		{http.MethodGet, "/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Result().StatusCode != tt.want {
				t.Errorf("status = %d, want %d", w.Result().StatusCode, tt.want)
			}
		})
	}
}

func TestNewRouter_HealthUnavailable(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{
		HealthChecker: &mockHealthChecker{err: errors.New("connection refused")},
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusServiceUnavailable)
	}
}

func TestNewRouter_HostTokenProtectsPodRoutesOnly(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{HostToken: "host-secret"})

	for _, path := range []string{"/pod", "/pod/read?case_id=1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want %d", path, w.Result().StatusCode, http.StatusUnauthorized)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/pod/read?case_id=1", nil)
	req.Header.Set("Authorization", "Token host-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("with token: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("/health: status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

func TestNewRouter_RateLimitAppliesToPodRoutes(t *testing.T) {
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{Rate: 0.01, Burst: 1, CleanupInterval: time.Minute})
	defer rl.Stop()
	router := newTestRouter(t, &RouterDeps{RateLimiter: rl})

	send := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Result().StatusCode
	}

	if got := send("/pod/read?case_id=1"); got != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", got, http.StatusOK)
	}
	if got := send("/pod/read?case_id=1"); got != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want %d", got, http.StatusTooManyRequests)
	}
	if got := send("/health"); got != http.StatusOK {
		t.Errorf("/health: status = %d, want %d", got, http.StatusOK)
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := metrics.NewCollector(reg)
	mc.RecordRead(metrics.ReadOutcomeContent)

	router := newTestRouter(t, &RouterDeps{MetricsGatherer: reg})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `subpod_reads_total{outcome="content"} 1`) {
		t.Errorf("metrics output missing read counter:\n%s", w.Body.String())
	}
}

func TestNewRouter_NoMetricsGatherer_NoEndpoint(t *testing.T) {
	router := newTestRouter(t, &RouterDeps{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusNotFound)
	}
}
