package resilience_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast/skycast/internal/provider/resilience"
)

func TestRegistry_RegisterAndGetHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("test-provider", resilience.RoleForecast)
	cfg.Registry = registry

	client := resilience.NewClient(cfg)

	assert.Equal(t, []string{"test-provider"}, registry.GetProviderNames())

	health := registry.GetHealth("test-provider")
	require.NotNil(t, health)
	assert.Equal(t, "test-provider", health.Name)
	assert.Equal(t, resilience.RoleForecast, health.Role)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.Available())

	// Verify client name
	assert.Equal(t, "test-provider", client.Name())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	registry := resilience.NewRegistry()

	first := resilience.DefaultClientConfig("openrouter", resilience.RoleForecast)
	first.Registry = registry
	_ = resilience.NewClient(first)

	second := resilience.DefaultClientConfig("openrouter", resilience.RoleSummary)
	second.Registry = registry
	_ = resilience.NewClient(second)

	assert.Equal(t, []string{"openrouter"}, registry.GetProviderNames())
	health := registry.GetHealth("openrouter")
	require.NotNil(t, health)
	assert.Equal(t, resilience.RoleSummary, health.Role)
}

func TestRegistry_RecordSuccess(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("test-provider", resilience.RoleForecast)
	cfg.Registry = registry

	_ = resilience.NewClient(cfg)

	// Before recording success
	health := registry.GetHealth("test-provider")
	require.NotNil(t, health)
	assert.Nil(t, health.LastSuccessAt)

	// Record success
	registry.RecordSuccess("test-provider")

	// After recording success
	health = registry.GetHealth("test-provider")
	require.NotNil(t, health)
	require.NotNil(t, health.LastSuccessAt)
	assert.WithinDuration(t, time.Now(), *health.LastSuccessAt, time.Second)
}

func TestRegistry_RecordFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("test-provider", resilience.RoleForecast)
	cfg.Registry = registry

	_ = resilience.NewClient(cfg)

	// Before recording failure
	health := registry.GetHealth("test-provider")
	require.NotNil(t, health)
	assert.Nil(t, health.LastFailureAt)
	assert.Empty(t, health.LastError)

	// Record failure
	registry.RecordFailure("test-provider", assert.AnError)

	// After recording failure
	health = registry.GetHealth("test-provider")
	require.NotNil(t, health)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_GetAllHealth(t *testing.T) {
	registry := resilience.NewRegistry()

	// Register multiple providers
	for _, name := range []string{"provider-c", "provider-a", "provider-b"} {
		cfg := resilience.DefaultClientConfig(name, resilience.RoleForecast)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}

	healthList := registry.GetAllHealth()
	require.Len(t, healthList, 3)

	for _, h := range healthList {
		assert.Equal(t, gobreaker.StateClosed, h.CircuitState)
	}

	assert.Equal(t, "provider-a", healthList[0].Name)
	assert.Equal(t, "provider-b", healthList[1].Name)
	assert.Equal(t, "provider-c", healthList[2].Name)
}

func TestRegistry_GetProviderNames(t *testing.T) {
	registry := resilience.NewRegistry()

	// Empty registry
	names := registry.GetProviderNames()
	assert.Empty(t, names)

	// Add providers
	for _, name := range []string{"provider-a", "provider-b"} {
		cfg := resilience.DefaultClientConfig(name, resilience.RoleForecast)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}

	names = registry.GetProviderNames()
	assert.Len(t, names, 2)
	assert.Contains(t, names, "provider-a")
	assert.Contains(t, names, "provider-b")
}

func TestRegistry_GetHealthNotFound(t *testing.T) {
	registry := resilience.NewRegistry()

	health := registry.GetHealth("nonexistent")
	assert.Nil(t, health)
}

func TestRegistry_RecordSuccessNotFound(t *testing.T) {
	registry := resilience.NewRegistry()

	// Should not panic
	registry.RecordSuccess("nonexistent")
}

func TestRegistry_RecordFailureNotFound(t *testing.T) {
	registry := resilience.NewRegistry()

	// Should not panic
	registry.RecordFailure("nonexistent", assert.AnError)
}

func TestRegistry_ClientRecordsOutcomes(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("open-meteo", resilience.RoleForecast)
	cfg.MaxRetries = 0
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	health := registry.GetHealth("open-meteo")
	require.NotNil(t, health)
	require.NotNil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)

	fail.Store(true)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	health = registry.GetHealth("open-meteo")
	require.NotNil(t, health.LastFailureAt)
	assert.Contains(t, health.LastError, "Bad Gateway")
}

func TestProviderHealth_Available(t *testing.T) {
	tests := []struct {
		state     gobreaker.State
		available bool
	}{
		{gobreaker.StateClosed, true},
		{gobreaker.StateHalfOpen, true},
		{gobreaker.StateOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.available, h.Available())
		})
	}
}

// failingUpstream registers a client of role whose breaker is open.
func failingUpstream(t *testing.T, registry *resilience.Registry, url, name string, role resilience.Role) {
	t.Helper()

	cb := resilience.BreakerFor(name, role)
	cb.ReadyToTrip = resilience.ConsecutiveFailures(1)

	cfg := resilience.DefaultClientConfig(name, role)
	cfg.MaxRetries = 0
	cfg.CircuitBreaker = &cb
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())
}

func TestRegistry_RoleDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	assert.False(t, registry.RoleDown(resilience.RoleForecast))

	failingUpstream(t, registry, server.URL, "open-meteo-geocoding", resilience.RoleGeocoding)
	failingUpstream(t, registry, server.URL, "open-meteo", resilience.RoleForecast)

	healthy := resilience.DefaultClientConfig("accuweather", resilience.RoleForecast)
	healthy.Registry = registry
	_ = resilience.NewClient(healthy)

	assert.True(t, registry.RoleDown(resilience.RoleGeocoding))
	assert.False(t, registry.RoleDown(resilience.RoleForecast))
	assert.False(t, registry.RoleDown(resilience.RoleSummary))

	failingUpstream(t, registry, server.URL, "accuweather", resilience.RoleForecast)
	assert.True(t, registry.RoleDown(resilience.RoleForecast))

	byName := map[string]*resilience.ProviderHealth{}
	for _, h := range registry.GetAllHealth() {
		byName[h.Name] = h
	}
	assert.Equal(t, resilience.RoleGeocoding, byName["open-meteo-geocoding"].Role)
	assert.False(t, byName["open-meteo"].Available())
}
