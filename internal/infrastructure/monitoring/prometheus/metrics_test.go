package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	require.NotNil(t, m)
	return m, c
}

func TestNewAppMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.SessionsCreatedTotal)
	assert.NotNil(t, m.MarkersPlacedTotal)
	assert.NotNil(t, m.AnalysesTotal)
	assert.NotNil(t, m.SnapshotOpsTotal)
	assert.NotNil(t, m.EventsPublishedTotal)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestNewAppMetrics_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	m1 := NewAppMetrics(c)
	m2 := NewAppMetrics(c)

	RecordSessionCreated(m1, "detailed")
	RecordSessionCreated(m2, "detailed")

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_sessions_created_total{layout="detailed"} 2`)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, "POST", "/api/v1/sessions", 201, 20*time.Millisecond)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_http_requests_total{method="POST",path="/api/v1/sessions",status_code="201"} 1`)
	assert.Contains(t, output, `test_unit_http_request_duration_seconds_count{method="POST",path="/api/v1/sessions"} 1`)
}

func TestRecordMarkerPlacedAndCommands(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordMarkerPlaced(m, "detailed", "knees")
	RecordCommand(m, "toggle_option", true)
	RecordCommand(m, "toggle_option", false)
	RecordCommand(m, "toggle_option", false)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_markers_placed_total{layout="detailed",region="knees"} 1`)
	assert.Contains(t, output, `test_unit_marker_commands_total{command="toggle_option",result="applied"} 1`)
	assert.Contains(t, output, `test_unit_marker_commands_total{command="toggle_option",result="ignored"} 2`)
}

func TestSetActiveSessions(t *testing.T) {
	m, c := newTestAppMetrics(t)
	SetActiveSessions(m, "memory", 3)
	SetActiveSessions(m, "memory", 2)

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_sessions_active{repository="memory"} 2`)
}

func TestRecordAnalysis_CountsThemes(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordAnalysis(m, "themes", time.Millisecond, "joints", "gut")
	RecordAnalysis(m, "themes", time.Millisecond, "joints")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_analyses_total{mode="themes"} 2`)
	assert.Contains(t, output, `test_unit_themes_resolved_total{theme="joints"} 2`)
	assert.Contains(t, output, `test_unit_themes_resolved_total{theme="gut"} 1`)
}

func TestRecordSnapshotOp_Status(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordSnapshotOp(m, "redis", "save", time.Millisecond, nil)
	RecordSnapshotOp(m, "redis", "save", time.Millisecond, errors.New("down"))

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_snapshot_operations_total{backend="redis",operation="save",status="success"} 1`)
	assert.Contains(t, output, `test_unit_snapshot_operations_total{backend="redis",operation="save",status="failure"} 1`)
}

func TestRecordEventPublishAndReload(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordEventPublish(m, "insight.analyzed", nil)
	RecordLayoutReload(m, errors.New("bad yaml"))
	RecordError(m, "http", "QUIZ_001")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_events_published_total{status="success",topic="insight.analyzed"} 1`)
	assert.Contains(t, output, `test_unit_layout_reloads_total{status="failure"} 1`)
	assert.Contains(t, output, `test_unit_errors_total{component="http",error_code="QUIZ_001"} 1`)
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest(nil, "GET", "/", 200, time.Second)
		RecordSessionCreated(nil, "detailed")
		SetActiveSessions(nil, "memory", 1)
		RecordMarkerPlaced(nil, "detailed", "chest")
		RecordCommand(nil, "remove", true)
		RecordAnalysis(nil, "rule", time.Second, "x")
		RecordSnapshotOp(nil, "memory", "load", time.Second, nil)
		RecordEventPublish(nil, "t", nil)
		RecordLayoutReload(nil, nil)
		RecordError(nil, "c", "e")
	})
}
