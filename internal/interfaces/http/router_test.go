package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BodyMap-Insight/internal/application/quiz"
	"github.com/turtacn/BodyMap-Insight/internal/domain/anatomy"
	"github.com/turtacn/BodyMap-Insight/internal/domain/session"
	"github.com/turtacn/BodyMap-Insight/internal/domain/snapshot"
	"github.com/turtacn/BodyMap-Insight/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/BodyMap-Insight/internal/interfaces/http/handlers"
	"github.com/turtacn/BodyMap-Insight/internal/interfaces/http/middleware"
)

type testAPI struct {
	t         *testing.T
	server    *httptest.Server
	collector prometheus.MetricsCollector
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	layouts := anatomy.MustDefaultRegistry()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "router", Subsystem: "test"}, nil)
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)

	svc := quiz.NewService(layouts, session.NewMemoryRepository(time.Hour, nil), snapshot.NewMemoryStore(), nil,
		quiz.WithMetrics(metrics))
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = []string{"https://embed.example.com"}

	handler := NewRouter(RouterConfig{
		QuizHandler:      handlers.NewQuizHandler(svc, layouts, nil),
		HealthHandler:    handlers.NewHealthHandler("test"),
		CORS:             &cors,
		Logging:          middleware.DefaultLoggingConfig(),
		Metrics:          metrics,
		MetricsCollector: collector,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testAPI{t: t, server: srv, collector: collector}
}

func (a *testAPI) do(method, path, body string, out interface{}) *http.Response {
	a.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(a.t, err)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}
	resp, err := client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestRouter_Probes(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/readyz", "", nil).StatusCode)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/metrics", "", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v2/layouts", "", nil).StatusCode)
}

func TestRouter_Layouts(t *testing.T) {
	api := newTestAPI(t)

	var layouts []quiz.LayoutSummary
	resp := api.do(http.MethodGet, "/api/v1/layouts", "", &layouts)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, layouts, 2)

	var c quiz.Classification
	resp = api.do(http.MethodGet, "/api/v1/layouts/detailed/classify?x=0.1&y=0.05", "", &c)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "head", c.Region.ID)
	assert.Equal(t, anatomy.SideCentral, c.Side)
}

func TestRouter_SessionFlow(t *testing.T) {
	api := newTestAPI(t)

	var view quiz.SessionView
	resp := api.do(http.MethodPost, "/api/v1/sessions", `{"layout":"detailed"}`, &view)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	base := "/api/v1/sessions/" + view.ID

	var placed quiz.CommandResult
	resp = api.do(http.MethodPost, base+"/markers", `{"x":0.5,"y":0.1}`, &placed)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotNil(t, placed.Marker)
	assert.Equal(t, "head", placed.Marker.Region.ID)

	var toggled quiz.CommandResult
	optionID := placed.Marker.Options[0].ID
	resp = api.do(http.MethodPost, base+"/markers/"+placed.Marker.ID+"/options/"+optionID+"/toggle", "", &toggled)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, toggled.Applied)

	var a quiz.Analysis
	resp = api.do(http.MethodPost, base+"/analyze", "", &a)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, a.Themes)

	var snap snapshot.Snapshot
	resp = api.do(http.MethodGet, base+"/snapshot", "", &snap)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, snap.SavedAt)

	resp = api.do(http.MethodGet, base+"/continue", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), quiz.DefaultRedirectBaseURL+"?data="))

	resp = api.do(http.MethodGet, base+"/diagram.svg", "", nil)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	resp = api.do(http.MethodGet, base+"/insight.html", "", nil)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))

	resp = api.do(http.MethodDelete, base, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = api.do(http.MethodGet, base, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_CORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	req, err := http.NewRequest(http.MethodOptions, api.server.URL+"/api/v1/sessions", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://embed.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://embed.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_RequestMetricsByPattern(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodGet, "/api/v1/sessions/unknown-1/themes", "", nil)
	api.do(http.MethodGet, "/api/v1/sessions/unknown-2/themes", "", nil)

	rec := httptest.NewRecorder()
	api.collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `router_test_http_requests_total{method="GET",path="/api/v1/sessions/{sessionID}/themes",status_code="404"} 2`)
}

func TestRouter_NilHandlers(t *testing.T) {
	h := NewRouter(RouterConfig{})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/layouts", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
