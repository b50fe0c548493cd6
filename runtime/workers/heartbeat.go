package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"dm-relay/contract"
	"dm-relay/observability"
)

// HeartbeatWorker periodically logs relay counters together with the
// process's own resource usage (RSS, CPU). It is pure observability; the
// delivery core never depends on it.
type HeartbeatWorker struct {
	log      *slog.Logger
	presence contract.IPresence
	monitor  *observability.Monitor
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, presence contract.IPresence,
	monitor *observability.Monitor, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, presence: presence, monitor: monitor, interval: interval}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := getSelfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}

			stats := w.monitor.Snapshot()
			w.log.Info("Relay heartbeat",
				"online", len(w.presence.Online()),
				"sent", stats.Sent,
				"delivered", stats.Delivered,
				"replayed", stats.Replayed,
				"read_acks", stats.ReadAcks,
				"dropped_pushes", stats.DroppedPushes,
				"ram_bytes", rss,
				"cpu_percent", cpu)
		}
	}
}

// getSelfStats retrieves memory and CPU usage for the given process.
func getSelfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}
