package handoff

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/johnquangdev/handoff-assistant/internal/domain/entities"
)

type pipelineMetrics struct {
	runs     metric.Int64Counter
	degraded metric.Int64Counter
	score    metric.Int64Histogram
}

var (
	pipelineMetricsOnce sync.Once
	pipelineMetricsInst *pipelineMetrics
)

func ensurePipelineMetrics() *pipelineMetrics {
	pipelineMetricsOnce.Do(func() {
		meter := otel.Meter("github.com/johnquangdev/handoff-assistant/internal/usecase/handoff")

		runs, err := meter.Int64Counter(
			"handoff.pipeline.runs",
			metric.WithDescription("Number of completed handoff analyses"),
		)
		if err != nil {
			return
		}
		degraded, err := meter.Int64Counter(
			"handoff.pipeline.degraded",
			metric.WithDescription("Number of degraded handoff analyses by reason"),
		)
		if err != nil {
			return
		}
		score, err := meter.Int64Histogram(
			"handoff.pipeline.risk_score",
			metric.WithDescription("Distribution of computed risk scores"),
		)
		if err != nil {
			return
		}

		pipelineMetricsInst = &pipelineMetrics{runs: runs, degraded: degraded, score: score}
	})
	return pipelineMetricsInst
}

func recordPipelineRun(ctx context.Context, result *entities.HandoffAnalysisResult) {
	m := ensurePipelineMetrics()
	if m == nil || result == nil {
		return
	}

	risk := metric.WithAttributes(attribute.String("overall_risk", string(result.Risk.OverallRisk)))
	m.runs.Add(ctx, 1, risk)
	m.score.Record(ctx, int64(result.Risk.RiskScore), risk)
	for _, reason := range result.DegradedReasons {
		m.degraded.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}
