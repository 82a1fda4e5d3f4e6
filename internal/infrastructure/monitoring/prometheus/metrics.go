package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics groups every metric exported by the body-map service.
type AppMetrics struct {
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	SessionsCreatedTotal CounterVec
	SessionsActive       GaugeVec
	MarkersPlacedTotal   CounterVec
	MarkerCommandsTotal  CounterVec

	AnalysesTotal       CounterVec
	AnalyzeDuration     HistogramVec
	ThemesResolvedTotal CounterVec

	SnapshotOpsTotal      CounterVec
	SnapshotStoreDuration HistogramVec
	EventsPublishedTotal  CounterVec
	LayoutReloadsTotal    CounterVec

	ErrorsTotal CounterVec
}

var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultAnalyzeDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}
	DefaultStoreDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers the service metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	m.SessionsCreatedTotal = collector.RegisterCounter("sessions_created_total", "Quiz sessions created", "layout")
	m.SessionsActive = collector.RegisterGauge("sessions_active", "Sessions created minus deleted on this replica; repository TTL expiry is not counted", "repository")
	m.MarkersPlacedTotal = collector.RegisterCounter("markers_placed_total", "Markers placed on the body map", "layout", "region")
	m.MarkerCommandsTotal = collector.RegisterCounter("marker_commands_total", "Marker commands by outcome", "command", "result")

	m.AnalysesTotal = collector.RegisterCounter("analyses_total", "Completed analyses", "mode")
	m.AnalyzeDuration = collector.RegisterHistogram("analyze_duration_seconds", "Time spent producing an analysis", DefaultAnalyzeDurationBuckets, "mode")
	m.ThemesResolvedTotal = collector.RegisterCounter("themes_resolved_total", "Themes produced by the summarizer", "theme")

	m.SnapshotOpsTotal = collector.RegisterCounter("snapshot_operations_total", "Snapshot store operations", "backend", "operation", "status")
	m.SnapshotStoreDuration = collector.RegisterHistogram("snapshot_store_duration_seconds", "Snapshot store latency", DefaultStoreDurationBuckets, "backend", "operation")
	m.EventsPublishedTotal = collector.RegisterCounter("events_published_total", "Insight events published", "topic", "status")
	m.LayoutReloadsTotal = collector.RegisterCounter("layout_reloads_total", "Layout registry reloads", "status")

	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_code")

	return m
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordHTTPRequest is a no-op on a nil receiver, as are the other Record helpers.
func RecordHTTPRequest(metrics *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordSessionCreated(metrics *AppMetrics, layout string) {
	if metrics == nil {
		return
	}
	metrics.SessionsCreatedTotal.WithLabelValues(layout).Inc()
}

// SetActiveSessions publishes the per-replica created-minus-deleted count.
func SetActiveSessions(metrics *AppMetrics, repository string, n int) {
	if metrics == nil {
		return
	}
	metrics.SessionsActive.WithLabelValues(repository).Set(float64(n))
}

func RecordMarkerPlaced(metrics *AppMetrics, layout, region string) {
	if metrics == nil {
		return
	}
	metrics.MarkersPlacedTotal.WithLabelValues(layout, region).Inc()
}

// RecordCommand counts a marker command; ignored commands are the silent
// no-ops of the marker model (unknown id, last selected option).
func RecordCommand(metrics *AppMetrics, command string, applied bool) {
	if metrics == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "ignored"
	}
	metrics.MarkerCommandsTotal.WithLabelValues(command, result).Inc()
}

func RecordAnalysis(metrics *AppMetrics, mode string, duration time.Duration, themeIDs ...string) {
	if metrics == nil {
		return
	}
	metrics.AnalysesTotal.WithLabelValues(mode).Inc()
	metrics.AnalyzeDuration.WithLabelValues(mode).Observe(duration.Seconds())
	for _, id := range themeIDs {
		metrics.ThemesResolvedTotal.WithLabelValues(id).Inc()
	}
}

func RecordSnapshotOp(metrics *AppMetrics, backend, operation string, duration time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.SnapshotOpsTotal.WithLabelValues(backend, operation, status(err)).Inc()
	metrics.SnapshotStoreDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

func RecordEventPublish(metrics *AppMetrics, topic string, err error) {
	if metrics == nil {
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(topic, status(err)).Inc()
}

func RecordLayoutReload(metrics *AppMetrics, err error) {
	if metrics == nil {
		return
	}
	metrics.LayoutReloadsTotal.WithLabelValues(status(err)).Inc()
}

func RecordError(metrics *AppMetrics, component, errorCode string) {
	if metrics == nil {
		return
	}
	metrics.ErrorsTotal.WithLabelValues(component, errorCode).Inc()
}
