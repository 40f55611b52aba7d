package handler

import (
	"net/http"
	"time"

	"github.com/twostepahead/twostepahead/internal/api/models"
	"github.com/twostepahead/twostepahead/internal/api/response"
	"github.com/twostepahead/twostepahead/internal/provider/resilience"
)

// Feature is an optional gateway capability that depends on configuration.
type Feature struct {
	Name    string
	Enabled bool
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
	features  []Feature
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry, features ...Feature) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
		features:  features,
	}
}

// HealthCheck handles GET /api/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /api/ops/ready - readiness check.
// The gateway holds no state, so it is ready once its clients are registered.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	providers := 0
	if h.registry != nil {
		providers = h.registry.ProviderCount()
	}

	health := models.Health{
		Status:  models.HealthStatusOK,
		Time:    models.Timestamp(time.Now()),
		Details: map[string]any{"providers": providers},
	}
	if providers == 0 {
		health.Status = models.HealthStatusFail
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /api/ops/status - provider and subsystem status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Version:    h.version,
		Subsystems: make([]models.SubsystemStatus, 0, len(h.features)),
		Providers:  []models.ProviderStatus{},
	}

	for _, f := range h.features {
		sub := models.SubsystemStatus{Name: f.Name, Status: models.HealthStatusOK}
		if !f.Enabled {
			detail := "not configured"
			sub.Status = models.HealthStatusDegraded
			sub.Detail = &detail
		}
		status.Subsystems = append(status.Subsystems, sub)
		status.Status = worst(status.Status, sub.Status)
	}

	if h.registry != nil {
		for _, ph := range h.registry.GetAllHealth() {
			ps := providerStatus(ph)
			status.Providers = append(status.Providers, ps)
			status.Status = worst(status.Status, ps.Status)
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:      ph.Name,
		Status:        models.HealthStatusOK,
		CircuitState:  ph.CircuitState.String(),
		LastSuccessAt: models.TimestampPtr(ph.LastSuccessAt),
		LastFailureAt: models.TimestampPtr(ph.LastFailureAt),
	}

	switch {
	case ph.IsUnhealthy():
		ps.Status = models.HealthStatusFail
	case ph.IsDegraded():
		ps.Status = models.HealthStatusDegraded
	}

	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}

var statusRank = map[models.HealthStatus]int{
	models.HealthStatusOK:       0,
	models.HealthStatusDegraded: 1,
	models.HealthStatusFail:     2,
}

func worst(a, b models.HealthStatus) models.HealthStatus {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}
