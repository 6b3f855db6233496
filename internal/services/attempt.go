package services

import (
	"context"
	"fmt"
	"log/slog"

	"geolens/internal/metrics"
)

// Pipeline stage names used in logs, metrics and Metadata.DegradedStages.
const (
	StageCrawl           = "crawl"
	StageAnalysis        = "analysis"
	StageCompetitors     = "competitors"
	StageRecommendations = "recommendations"
)

// attempt runs one generative stage and substitutes fallback's value when
// run fails or panics. The second result reports whether the fallback was
// used.
func attempt[T any](
	ctx context.Context,
	logger *slog.Logger,
	stage string,
	run func(context.Context) (T, error),
	fallback func(error) T,
) (out T, degraded bool) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%s stage panicked: %v", stage, r)
			logger.Error("stage failed, using fallback", "stage", stage, "error", err)
			metrics.RecordStage(stage, metrics.OutcomeFallback)
			out, degraded = fallback(err), true
		}
	}()

	v, err := run(ctx)
	if err != nil {
		logger.Warn("stage failed, using fallback", "stage", stage, "error", err)
		metrics.RecordStage(stage, metrics.OutcomeFallback)
		return fallback(err), true
	}
	metrics.RecordStage(stage, metrics.OutcomeOK)
	return v, false
}
