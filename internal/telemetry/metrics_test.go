package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/skycast/skycast/internal/telemetry"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestWeatherMetrics_Records(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := telemetry.NewWeatherMetrics(mp.Meter("test"))
	require.NoError(t, err)

	m.RecordRequest("open-meteo", "current", 120*time.Millisecond, nil)
	m.RecordRequest("accuweather", "resolve", 80*time.Millisecond, errors.New("boom"))
	m.RecordCacheHit("cache", "weather")
	m.RecordCacheMiss("cache", "weather")
	m.RecordCacheMiss("cache", "weather")
	m.RecordSummary("fallback", time.Millisecond)

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["provider.request.total"]))
	assert.Equal(t, int64(1), sumOf(t, data["provider.cache.hit"]))
	assert.Equal(t, int64(2), sumOf(t, data["provider.cache.miss"]))
	assert.Equal(t, int64(1), sumOf(t, data["summary.total"]))

	_, ok := data["provider.request.duration"].(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestWeatherMetrics_GlobalMeter(t *testing.T) {
	m, err := telemetry.NewWeatherMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestWeatherMetrics_NilSafe(t *testing.T) {
	var m *telemetry.WeatherMetrics

	assert.NotPanics(t, func() {
		m.RecordRequest("p", "op", time.Second, nil)
		m.RecordCacheHit("p", "op")
		m.RecordCacheMiss("p", "op")
		m.RecordSummary("llm", time.Second)
	})
}
