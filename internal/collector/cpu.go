package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gopsutilcpu "github.com/shirou/gopsutil/v4/cpu"
	gopsutilhost "github.com/shirou/gopsutil/v4/host"
)

const cpuInterval = 2 * time.Second

// CPUCollector samples instantaneous CPU usage and static identity (model,
// core count) via the gopsutil cpu package.
type CPUCollector struct {
	log zerolog.Logger

	mu      sync.RWMutex
	percent float64
	model   string
	cores   int
	uptime  uint64
}

// NewCPUCollector constructs a CPUCollector; model/core count are resolved
// lazily on first sample since they never change during the process lifetime.
func NewCPUCollector(log zerolog.Logger) *CPUCollector {
	return &CPUCollector{log: log}
}

// Run samples every 2s until ctx is cancelled.
func (c *CPUCollector) Run(ctx context.Context) {
	c.sampleIdentity()
	runTicker(ctx, cpuInterval, c.sample)
}

func (c *CPUCollector) sampleIdentity() {
	infos, err := gopsutilcpu.Info()
	if err != nil || len(infos) == 0 {
		c.log.Debug().Err(err).Msg("cpu identity probe failed")
		return
	}
	c.mu.Lock()
	c.model = infos[0].ModelName
	c.cores = len(infos)
	c.mu.Unlock()
}

func (c *CPUCollector) sample(_ context.Context) {
	// gopsutilcpu.Percent(0, false) reports the delta of idle vs total
	// ticks since the last call, so each read is instant.
	percents, err := gopsutilcpu.Percent(0, false)
	if err != nil || len(percents) == 0 {
		c.log.Debug().Err(err).Msg("cpu percent probe failed")
		return
	}
	uptime, err := gopsutilhost.Uptime()
	if err != nil {
		c.log.Debug().Err(err).Msg("uptime probe failed")
	}

	c.mu.Lock()
	c.percent = percents[0]
	if err == nil {
		c.uptime = uptime
	}
	c.mu.Unlock()
}

// Snapshot returns the last cached CPU reading.
func (c *CPUCollector) Snapshot() (percent float64, model string, cores int, uptimeSeconds uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.percent, c.model, c.cores, c.uptime
}
