package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okCheck(name string) HealthChecker {
	return NewCheck(name, func(context.Context) error { return nil })
}

func TestHealthHandler_Liveness(t *testing.T) {
	h := NewHealthHandler("1.2.3", NewCheck("broken", func(context.Context) error { return fmt.Errorf("down") }))
	rec := httptest.NewRecorder()

	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestHealthHandler_Readiness(t *testing.T) {
	t.Run("no checkers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler("v").Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})

	t.Run("all healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler("v", okCheck("snapshots"), okCheck("sessions")).Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Len(t, resp.Components, 2)
		assert.Equal(t, "healthy", resp.Components["sessions"].Status)
	})

	t.Run("one unhealthy", func(t *testing.T) {
		failing := NewCheck("kafka", func(context.Context) error { return fmt.Errorf("no brokers") })
		rec := httptest.NewRecorder()
		NewHealthHandler("v", okCheck("snapshots"), failing).Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "unhealthy", resp.Components["kafka"].Status)
		assert.Equal(t, "no brokers", resp.Components["kafka"].Error)
	})
}

func TestHealthHandler_DetailedDegraded(t *testing.T) {
	failing := NewCheck("redis", func(context.Context) error { return fmt.Errorf("timeout") })
	rec := httptest.NewRecorder()

	NewHealthHandler("v9", failing).Detailed(rec, httptest.NewRequest(http.MethodGet, "/healthz/detail", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "v9", resp.Version)
}

func TestHealthHandler_ChecksSeeDeadline(t *testing.T) {
	var hasDeadline bool
	check := NewCheck("db", func(ctx context.Context) error {
		_, hasDeadline = ctx.Deadline()
		return nil
	})
	NewHealthHandler("v", check).Readiness(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.True(t, hasDeadline)
}
