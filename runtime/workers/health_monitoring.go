package workers

import (
	"context"
	"dm-relay/observability"
	"log/slog"
	"time"
)

type StatsSource interface {
	Snapshot() observability.Stats
}

// HealthMonitoringWorker periodically logs a snapshot of the relay's state and process usage.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	source         StatsSource
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(log *slog.Logger, source StatsSource, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{log: log, source: source, metricInterval: metricInterval}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			stats := w.source.Snapshot()
			w.log.Info("Relay health",
				"connected_users", stats.ConnectedUsers,
				"conversations", stats.Conversations,
				"pending_commands", stats.PendingCommands,
				"goroutines", stats.Goroutines,
				"rss_mb", stats.RSSMb,
				"cpu_percent", stats.CPUPercent,
			)
		}
	}
}
