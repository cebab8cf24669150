package ai

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type extractionMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
}

var (
	extractionMetricsOnce sync.Once
	extractionMetricsInst *extractionMetrics
)

func ensureExtractionMetrics() *extractionMetrics {
	extractionMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/johnquangdev/handoff-assistant/pkg/ai")

		requestCount, err := meter.Int64Counter(
			"ai.extraction.request.count",
			metric.WithDescription("Number of extraction requests"),
		)
		if err != nil {
			return
		}
		requestDuration, err := meter.Float64Histogram(
			"ai.extraction.request.duration",
			metric.WithDescription("Extraction request duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return
		}
		requestErrors, err := meter.Int64Counter(
			"ai.extraction.request.errors",
			metric.WithDescription("Number of failed extraction requests"),
		)
		if err != nil {
			return
		}

		extractionMetricsInst = &extractionMetrics{
			requestCount:    requestCount,
			requestDuration: requestDuration,
			requestErrors:   requestErrors,
		}
	})
	return extractionMetricsInst
}

func recordExtractionMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	m := ensureExtractionMetrics()
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
