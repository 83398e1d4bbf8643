package workers

import (
	"context"
	"log/slog"
	"time"
)

// Gauge exposes the fill level of a buffered queue.
type Gauge interface {
	Pending() int
	Capacity() int
}

type NamedGauge struct {
	Name  string
	Gauge Gauge
}

// ChannelCapacityWorker periodically samples queue fill levels and warns when one
// reaches thresholdPercent. Sampling len and cap is non-blocking.
type ChannelCapacityWorker struct {
	log              *slog.Logger
	gauges           []NamedGauge
	thresholdPercent int
	metricInterval   time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, gauges []NamedGauge,
	thresholdPercent int, metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:              log,
		gauges:           gauges,
		thresholdPercent: thresholdPercent,
		metricInterval:   metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping capacity sampling")
			return nil
		case <-ticker.C:
			for _, ng := range w.gauges {
				w.sample(ng)
			}
		}
	}
}

// sample returns the fill level in percent, 0 for unbuffered queues.
func (w *ChannelCapacityWorker) sample(ng NamedGauge) int {
	capacity := ng.Gauge.Capacity()
	if capacity == 0 {
		return 0
	}
	length := ng.Gauge.Pending()
	percent := length * 100 / capacity
	if percent >= w.thresholdPercent {
		w.log.Warn("Queue under pressure", "name", ng.Name, "length", length, "capacity", capacity, "percent", percent)
	} else {
		w.log.Debug("Queue capacity", "name", ng.Name, "length", length, "capacity", capacity)
	}
	return percent
}
