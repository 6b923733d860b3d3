// Package handler provides HTTP handlers for the SkyCast API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/skycast/skycast/internal/api/models"
	"github.com/skycast/skycast/internal/api/response"
	"github.com/skycast/skycast/internal/provider/resilience"
)

// readyTimeout bounds the dependency checks of the readiness probe.
const readyTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderLister exposes the weather fallback chain.
type ProviderLister interface {
	ProviderNames() []string
}

// OpsConfig holds the dependencies of the ops endpoints.
type OpsConfig struct {
	Version   string
	BuildTime string

	// Registry reports upstream circuit breaker health. Optional.
	Registry *resilience.Registry

	// Providers lists the fallback order. Optional.
	Providers ProviderLister

	// CacheName labels the cache subsystem ("memory" or "redis").
	CacheName string

	// Cache is pinged by readiness and status when set.
	Cache Pinger
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	cfg OpsConfig
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	if cfg.CacheName == "" {
		cfg.CacheName = "cache"
	}
	return &OpsHandler{cfg: cfg}
}

// HealthCheck handles GET /ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.cfg.Version,
			"buildTime": h.cfg.BuildTime,
		},
	})
}

// ReadinessCheck handles GET /ops/ready. A shared cache that cannot be
// reached makes the instance not ready.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}

	if err := h.pingCache(r.Context()); err != nil {
		health.Status = models.HealthStatusFail
		health.Details = map[string]interface{}{h.cfg.CacheName: err.Error()}
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}

	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /ops/status - cache and provider status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:        models.HealthStatusOK,
		Time:          models.Timestamp(time.Now()),
		Subsystems:    []models.SubsystemStatus{h.cacheStatus(r.Context())},
		Providers:     h.providerStatuses(),
		FallbackOrder: []string{},
	}
	if h.cfg.Providers != nil {
		status.FallbackOrder = h.cfg.Providers.ProviderNames()
	}

	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
		}
	}
	if status.Subsystems[0].Status == models.HealthStatusFail {
		status.Status = models.HealthStatusDegraded
	}
	// Lookups fail only once every forecast provider is open.
	if h.cfg.Registry != nil && h.cfg.Registry.RoleDown(resilience.RoleForecast) {
		status.Status = models.HealthStatusFail
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) pingCache(ctx context.Context) error {
	if h.cfg.Cache == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return h.cfg.Cache.Ping(ctx)
}

func (h *OpsHandler) cacheStatus(ctx context.Context) models.SubsystemStatus {
	s := models.SubsystemStatus{Name: h.cfg.CacheName, Status: models.HealthStatusOK}
	if err := h.pingCache(ctx); err != nil {
		detail := err.Error()
		s.Status = models.HealthStatusFail
		s.Detail = &detail
	}
	return s
}

func (h *OpsHandler) providerStatuses() []models.ProviderStatus {
	if h.cfg.Registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.cfg.Registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:            ph.Name,
			Role:                string(ph.Role),
			Status:              circuitHealth(ph.CircuitState),
			CircuitState:        ph.CircuitState.String(),
			Requests:            ph.Counts.Requests,
			ConsecutiveFailures: ph.Counts.ConsecutiveFailures,
			LastSuccessAt:       timestampPtr(ph.LastSuccessAt),
			LastFailureAt:       timestampPtr(ph.LastFailureAt),
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

func circuitHealth(state gobreaker.State) models.HealthStatus {
	switch state {
	case gobreaker.StateOpen:
		return models.HealthStatusFail
	case gobreaker.StateHalfOpen:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusOK
	}
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
