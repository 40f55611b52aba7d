package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twostepahead/twostepahead/internal/api/handler"
	"github.com/twostepahead/twostepahead/internal/api/models"
	"github.com/twostepahead/twostepahead/internal/provider/resilience"
)

func TestOpsHandler_HealthCheck(t *testing.T) {
	h := handler.NewOpsHandler("1.2.0", "2024-06-01T00:00:00Z", nil)

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/ops/health", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	var health models.Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.Equal(t, "1.2.0", health.Details["version"])
}

func TestOpsHandler_ReadinessCheck(t *testing.T) {
	registry := resilience.NewRegistry()

	h := handler.NewOpsHandler("dev", "", registry)
	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/ops/ready", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	cfg := resilience.DefaultClientConfig("open-meteo")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	rec = httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/ops/ready", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOpsHandler_SystemStatus(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"open-meteo", "nominatim"} {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}
	registry.RecordSuccess("open-meteo")
	registry.RecordFailure("nominatim", errors.New("unexpected status code: 403"))

	h := handler.NewOpsHandler("1.2.0", "", registry,
		handler.Feature{Name: "geospatial", Enabled: true},
		handler.Feature{Name: "report", Enabled: false},
	)

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/api/ops/status", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))

	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	assert.Equal(t, "1.2.0", status.Version)

	require.Len(t, status.Subsystems, 2)
	assert.Equal(t, models.HealthStatusOK, status.Subsystems[0].Status)
	assert.Equal(t, models.HealthStatusDegraded, status.Subsystems[1].Status)
	require.NotNil(t, status.Subsystems[1].Detail)
	assert.Equal(t, "not configured", *status.Subsystems[1].Detail)

	require.Len(t, status.Providers, 2)
	assert.Equal(t, "nominatim", status.Providers[0].Provider)
	assert.Equal(t, "closed", status.Providers[0].CircuitState)
	require.NotNil(t, status.Providers[0].Message)
	assert.Equal(t, "unexpected status code: 403", *status.Providers[0].Message)
	assert.NotNil(t, status.Providers[0].LastFailureAt)

	assert.Equal(t, "open-meteo", status.Providers[1].Provider)
	assert.NotNil(t, status.Providers[1].LastSuccessAt)
	assert.Nil(t, status.Providers[1].LastFailureAt)
}
