package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/skycast/skycast/internal/telemetry"

// WeatherMetrics records upstream calls, cache lookups and summary paths.
// A nil *WeatherMetrics is a no-op.
type WeatherMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	summaryDuration metric.Float64Histogram
	summaryTotal    metric.Int64Counter
}

// NewWeatherMetrics creates the instruments on meter, or on the global
// meter provider when meter is nil.
func NewWeatherMetrics(meter metric.Meter) (*WeatherMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	requestDuration, err := meter.Float64Histogram(
		"provider.request.duration",
		metric.WithDescription("Duration of provider requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"provider.request.total",
		metric.WithDescription("Total number of provider requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"provider.cache.hit",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"provider.cache.miss",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	summaryDuration, err := meter.Float64Histogram(
		"summary.duration",
		metric.WithDescription("Duration of summary generation in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	summaryTotal, err := meter.Int64Counter(
		"summary.total",
		metric.WithDescription("Summaries generated, by source"),
		metric.WithUnit("{summary}"),
	)
	if err != nil {
		return nil, err
	}

	return &WeatherMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		summaryDuration: summaryDuration,
		summaryTotal:    summaryTotal,
	}, nil
}

// RecordRequest records one upstream call.
func (m *WeatherMetrics) RecordRequest(provider, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Metrics outlive the request context.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit.
func (m *WeatherMetrics) RecordCacheHit(provider, operation string) {
	if m == nil {
		return
	}
	m.cacheHits.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	))
}

// RecordCacheMiss records a cache miss.
func (m *WeatherMetrics) RecordCacheMiss(provider, operation string) {
	if m == nil {
		return
	}
	m.cacheMisses.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("provider.name", provider),
		attribute.String("provider.operation", operation),
	))
}

// RecordSummary records which path produced a summary.
func (m *WeatherMetrics) RecordSummary(source string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("summary.source", source))
	m.summaryDuration.Record(context.Background(), duration.Seconds(), attrs)
	m.summaryTotal.Add(context.Background(), 1, attrs)
}
