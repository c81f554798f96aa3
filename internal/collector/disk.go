package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gopsutildisk "github.com/shirou/gopsutil/v4/disk"
)

const diskUsageInterval = 60 * time.Second

// DiskCollector aggregates usage across all fixed drives via gopsutil/v4.
type DiskCollector struct {
	log zerolog.Logger

	mu         sync.RWMutex
	totalGB    float64
	usedGB     float64
	percent    float64
}

// NewDiskCollector constructs a DiskCollector.
func NewDiskCollector(log zerolog.Logger) *DiskCollector {
	return &DiskCollector{log: log}
}

// Run samples every 60s until ctx is cancelled.
func (d *DiskCollector) Run(ctx context.Context) {
	runTicker(ctx, diskUsageInterval, d.sample)
}

func (d *DiskCollector) sample(_ context.Context) {
	partitions, err := gopsutildisk.Partitions(false)
	if err != nil {
		d.log.Debug().Err(err).Msg("disk partitions probe failed")
		return
	}

	var totalBytes, usedBytes uint64
	seen := make(map[string]struct{})
	for _, p := range partitions {
		if _, dup := seen[p.Device]; dup {
			continue
		}
		seen[p.Device] = struct{}{}
		usage, err := gopsutildisk.Usage(p.Mountpoint)
		if err != nil {
			continue
		}
		totalBytes += usage.Total
		usedBytes += usage.Used
	}
	if totalBytes == 0 {
		return
	}

	d.mu.Lock()
	d.totalGB = float64(totalBytes) / (1 << 30)
	d.usedGB = float64(usedBytes) / (1 << 30)
	d.percent = float64(usedBytes) / float64(totalBytes) * 100
	d.mu.Unlock()
}

// Snapshot returns the last cached disk-usage reading.
func (d *DiskCollector) Snapshot() (totalGB, usedGB, percent float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.totalGB, d.usedGB, d.percent
}
