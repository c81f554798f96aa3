package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gopsutilmem "github.com/shirou/gopsutil/v4/mem"
)

const memInterval = 2 * time.Second

// MemoryCollector samples RAM usage alongside CPU, at the same 2s cadence,
// via gopsutil/v4's cross-platform virtual-memory query.
type MemoryCollector struct {
	log zerolog.Logger

	mu         sync.RWMutex
	totalMB    uint64
	usedMB     uint64
	percent    float64
}

// NewMemoryCollector constructs a MemoryCollector.
func NewMemoryCollector(log zerolog.Logger) *MemoryCollector {
	return &MemoryCollector{log: log}
}

// Run samples every 2s until ctx is cancelled.
func (m *MemoryCollector) Run(ctx context.Context) {
	runTicker(ctx, memInterval, m.sample)
}

func (m *MemoryCollector) sample(_ context.Context) {
	stat, err := gopsutilmem.VirtualMemory()
	if err != nil {
		m.log.Debug().Err(err).Msg("memory probe failed")
		return
	}
	m.mu.Lock()
	m.totalMB = stat.Total / (1 << 20)
	m.usedMB = stat.Used / (1 << 20)
	m.percent = stat.UsedPercent
	m.mu.Unlock()
}

// Snapshot returns the last cached memory reading.
func (m *MemoryCollector) Snapshot() (totalMB, usedMB uint64, percent float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalMB, m.usedMB, m.percent
}
