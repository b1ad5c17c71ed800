package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/menulens/menulens/internal/live"
	"github.com/menulens/menulens/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type staticStatuses []live.Status

func (s staticStatuses) Statuses() []live.Status { return s }

func get(s *Server, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	s.Engine.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestHealthHandler_Healthy(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	s := New(":0", "release",
		WithHealthCheck("database", ok),
		WithHealthCheck("redis", ok),
		WithSessions(staticStatuses{{WindowDays: 7, State: "live"}}),
	)

	resp := get(s, "/health")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
		Sessions     []live.Status     `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "healthy", body.Status)
	require.Equal(t, map[string]string{"database": "connected", "redis": "connected"}, body.Dependencies)
	require.Len(t, body.Sessions, 1)
	require.Equal(t, "live", body.Sessions[0].State)
}

func TestHealthHandler_UnreachableDependency(t *testing.T) {
	s := New(":0", "release",
		WithHealthCheck("database", pingFunc(func(context.Context) error { return nil })),
		WithHealthCheck("redis", pingFunc(func(context.Context) error { return errors.New("dial tcp: connection refused") })),
	)

	resp := get(s, "/health")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "unhealthy", body["status"])
	require.Equal(t, "unreachable", body["dependencies"].(map[string]interface{})["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	metrics.EventsAppliedTotal.WithLabelValues("7d").Add(3)

	s := New(":0", "release", WithMetrics(reg))

	resp := get(s, "/metrics")
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, strings.Contains(resp.Body.String(), `menulens_events_applied_total{window="7d"} 3`), resp.Body.String())
}
