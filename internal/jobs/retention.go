package jobs

import (
	"context"
	"log/slog"
	"time"

	"geolens/internal/config"
	"geolens/internal/metrics"
)

// AnalysisPruner deletes stored analyses created before a cutoff.
type AnalysisPruner interface {
	DeleteExpiredAnalyses(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionStats captures the number of records deleted by TTL cleanup.
type RetentionStats struct {
	AnalysesDeleted int64 `json:"analysesDeleted"`
}

// CleanupExpiredData deletes analyses older than retention.analysisDays so
// that the history table does not grow without bound.
func CleanupExpiredData(ctx context.Context, cfg *config.Config, st AnalysisPruner, now time.Time) (RetentionStats, error) {
	var stats RetentionStats
	if cfg.Retention.AnalysisDays <= 0 {
		return stats, nil
	}

	cutoff := now.UTC().AddDate(0, 0, -cfg.Retention.AnalysisDays)
	n, err := st.DeleteExpiredAnalyses(ctx, cutoff)
	if err != nil {
		return stats, err
	}
	if n > 0 {
		stats.AnalysesDeleted = n
		metrics.RecordRetentionAnalyses(n)
	}
	return stats, nil
}

// RunRetention runs CleanupExpiredData immediately and then every
// retention.cleanupIntervalMinutes until ctx is cancelled.
func RunRetention(ctx context.Context, cfg *config.Config, st AnalysisPruner, logger *slog.Logger) {
	if !cfg.Retention.Enabled {
		return
	}
	interval := time.Duration(cfg.Retention.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		stats, err := CleanupExpiredData(ctx, cfg, st, time.Now())
		if err != nil {
			logger.Warn("retention cleanup failed", "error", err)
		} else if stats.AnalysesDeleted > 0 {
			logger.Info("retention cleanup", "analyses_deleted", stats.AnalysesDeleted)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
