package workers

import (
	"context"
	"dm-relay/observability"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingSource struct {
	calls atomic.Int32
}

func (s *countingSource) Snapshot() observability.Stats {
	s.calls.Add(1)
	return observability.Stats{ConnectedUsers: 2}
}

func TestHealthMonitoringWorker_SnapshotsOnEveryTick(t *testing.T) {
	req := require.New(t)
	source := &countingSource{}
	worker := NewHealthMonitoringWorker(slog.Default(), source, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// When the worker runs until its context expires
	err := worker.Run(ctx)

	// Then it stopped cleanly after several snapshots
	req.NoError(err)
	req.GreaterOrEqual(source.calls.Load(), int32(2))
}
