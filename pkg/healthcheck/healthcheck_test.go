package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockChecker is a configurable Checker for tests.
type mockChecker struct {
	status    Status
	message   string
	metadata  interface{}
	delay     time.Duration
	callCount int64
}

func (m *mockChecker) Check(ctx context.Context) Check {
	atomic.AddInt64(&m.callCount, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
		}
	}
	return Check{
		Status:      m.status,
		Message:     m.message,
		Metadata:    m.metadata,
		LastChecked: time.Now(),
	}
}

func (m *mockChecker) calls() int64 {
	return atomic.LoadInt64(&m.callCount)
}

func TestNew(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	assert.NotNil(t, hc)
	assert.Equal(t, "1.0.0", hc.version)
	assert.NotNil(t, hc.checkers)
	assert.Equal(t, 5*time.Second, hc.cacheTTL)
}

func TestHealthCheck_Check_NoCheckers(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())

	response := hc.Check(context.Background())

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
	assert.Empty(t, response.Checks)
}

func TestHealthCheck_Check_AggregatesStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"degraded wins over healthy", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins over degraded", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := New("1.0.0", zap.NewNop())
			for i, status := range tt.statuses {
				hc.Register(string(rune('a'+i)), &mockChecker{status: status})
			}

			response := hc.Check(context.Background())

			assert.Equal(t, tt.want, response.Status)
			assert.Len(t, response.Checks, len(tt.statuses))
		})
	}
}

func TestHealthCheck_Check_RunsConcurrently(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	delay := 50 * time.Millisecond
	hc.Register("slow1", &mockChecker{status: StatusHealthy, delay: delay})
	hc.Register("slow2", &mockChecker{status: StatusHealthy, delay: delay})
	hc.Register("slow3", &mockChecker{status: StatusHealthy, delay: delay})

	start := time.Now()
	response := hc.Check(context.Background())
	elapsed := time.Since(start)

	assert.Equal(t, StatusHealthy, response.Status)
	assert.Len(t, response.Checks, 3)
	assert.Less(t, elapsed, 3*delay, "checks should run concurrently")
}

func TestHealthCheck_Check_Caching(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.SetCacheTTL(time.Hour)
	checker := &mockChecker{status: StatusHealthy}
	hc.Register("test", checker)

	first := hc.Check(context.Background())
	second := hc.Check(context.Background())

	assert.Equal(t, first.Timestamp, second.Timestamp, "response should be cached")
	assert.Equal(t, int64(1), checker.calls())
}

func TestHealthCheck_Check_CacheExpiry(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.SetCacheTTL(20 * time.Millisecond)
	checker := &mockChecker{status: StatusHealthy}
	hc.Register("test", checker)

	hc.Check(context.Background())
	time.Sleep(40 * time.Millisecond)
	hc.Check(context.Background())

	assert.Equal(t, int64(2), checker.calls())
}

func TestHealthCheck_Handler(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("test", &mockChecker{status: StatusHealthy, message: "OK"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	hc.Handler()(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))

	var response Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, StatusHealthy, response.Status)
	assert.Equal(t, "1.0.0", response.Version)
}

func TestHealthCheck_Handler_Unhealthy(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	hc.Register("test", &mockChecker{status: StatusUnhealthy, message: "connection refused"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp := httptest.NewRecorder()
	hc.Handler()(resp, req)

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var response Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, StatusUnhealthy, response.Status)
}

func TestHealthCheck_LivenessHandler(t *testing.T) {
	hc := New("1.0.0", zap.NewNop())
	// A failing checker must not affect liveness.
	hc.Register("test", &mockChecker{status: StatusUnhealthy})

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	hc.LivenessHandler()(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, "alive", body["status"])
	assert.Contains(t, body, "timestamp")
}

func TestHealthCheck_ReadinessHandler(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("test", &mockChecker{status: StatusHealthy})

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		resp := httptest.NewRecorder()
		hc.ReadinessHandler()(resp, req)

		assert.Equal(t, http.StatusOK, resp.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("not ready when degraded", func(t *testing.T) {
		hc := New("1.0.0", zap.NewNop())
		hc.Register("test", &mockChecker{status: StatusDegraded, message: "high latency"})

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		resp := httptest.NewRecorder()
		hc.ReadinessHandler()(resp, req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "not_ready", body["status"])
		assert.Contains(t, body, "checks")
	})
}

func TestCheck_MarshalJSON(t *testing.T) {
	check := Check{
		Name:        "test",
		Status:      StatusHealthy,
		Message:     "OK",
		LastChecked: time.Now(),
		Duration:    100 * time.Millisecond,
	}

	data, err := json.Marshal(check)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "test", decoded["name"])
	assert.Equal(t, "healthy", decoded["status"])
	assert.Equal(t, float64(100), decoded["duration_ms"])
}

func TestResponse_MarshalJSON(t *testing.T) {
	response := Response{
		Status:        StatusHealthy,
		Version:       "1.0.0",
		Timestamp:     time.Now(),
		TotalDuration: 250 * time.Millisecond,
		Checks:        []Check{},
	}

	data, err := json.Marshal(response)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "healthy", decoded["status"])
	assert.Equal(t, float64(250), decoded["total_duration_ms"])
}

func TestCustomChecker(t *testing.T) {
	checker := NewCustomChecker("queue", func(ctx context.Context) (Status, string, interface{}) {
		return StatusDegraded, "backlog growing", map[string]interface{}{"depth": 42}
	})

	check := checker.Check(context.Background())

	assert.Equal(t, "queue", check.Name)
	assert.Equal(t, StatusDegraded, check.Status)
	assert.Equal(t, "backlog growing", check.Message)
}
