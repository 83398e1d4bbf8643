// Package observability exposes runtime statistics of the relay and a gRPC health service.
package observability

import (
	"dm-relay/contract"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// Stats is the snapshot served on the debug endpoint and logged by the health worker.
type Stats struct {
	ConnectedUsers  int     `json:"connected_users"`
	Conversations   int     `json:"conversations"`
	PendingCommands int     `json:"pending_commands"`
	Goroutines      int     `json:"goroutines"`
	AllocMemMb      uint64  `json:"alloc_mem_mb"`
	NumGC           uint32  `json:"num_gc"`
	RSSMb           uint64  `json:"rss_mb"`
	CPUPercent      float64 `json:"cpu_percent"`
	Uptime          string  `json:"uptime"`
}

type Monitor struct {
	log       *slog.Logger
	registry  contract.IPresenceRegistry
	store     contract.IConversationStore
	pending   func() int
	process   *process.Process
	startedAt time.Time
}

// NewMonitor samples registry, store and queue depth. pending may be nil.
func NewMonitor(log *slog.Logger, registry contract.IPresenceRegistry,
	store contract.IConversationStore, pending func() int) *Monitor {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Process metrics unavailable", "error", err)
		proc = nil
	}
	return &Monitor{
		log:       log,
		registry:  registry,
		store:     store,
		pending:   pending,
		process:   proc,
		startedAt: time.Now(),
	}
}

func (m *Monitor) Snapshot() Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		ConnectedUsers: m.registry.Len(),
		Conversations:  m.store.Conversations(),
		Goroutines:     runtime.NumGoroutine(),
		AllocMemMb:     mem.Alloc / 1024 / 1024,
		NumGC:          mem.NumGC,
		Uptime:         time.Since(m.startedAt).Truncate(time.Second).String(),
	}
	if m.pending != nil {
		stats.PendingCommands = m.pending()
	}

	if m.process != nil {
		if info, err := m.process.MemoryInfo(); err == nil {
			stats.RSSMb = info.RSS / 1024 / 1024
		} else {
			m.log.Debug("Error while finding process ram usage", "err", err)
		}
		if cpu, err := m.process.CPUPercent(); err == nil {
			stats.CPUPercent = cpu
		} else {
			m.log.Debug("Error while finding process cpu usage", "err", err)
		}
	}
	return stats
}
