package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gopsutildisk "github.com/shirou/gopsutil/v4/disk"
)

const diskIOInterval = 5 * time.Second

// DiskIOCollector derives read/write MB/s from successive gopsutil
// IOCounters samples.
type DiskIOCollector struct {
	log zerolog.Logger

	mu       sync.RWMutex
	readMBs  float64
	writeMBs float64

	lastSample time.Time
	lastRead   uint64
	lastWrite  uint64
	haveLast   bool
}

// NewDiskIOCollector constructs a DiskIOCollector.
func NewDiskIOCollector(log zerolog.Logger) *DiskIOCollector {
	return &DiskIOCollector{log: log}
}

// Run samples every 5s until ctx is cancelled.
func (d *DiskIOCollector) Run(ctx context.Context) {
	runTicker(ctx, diskIOInterval, d.sample)
}

func (d *DiskIOCollector) sample(_ context.Context) {
	counters, err := gopsutildisk.IOCounters()
	if err != nil || len(counters) == 0 {
		d.log.Debug().Err(err).Msg("disk io counters probe failed")
		return
	}

	var readBytes, writeBytes uint64
	for _, c := range counters {
		readBytes += c.ReadBytes
		writeBytes += c.WriteBytes
	}
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.haveLast {
		d.lastSample, d.lastRead, d.lastWrite, d.haveLast = now, readBytes, writeBytes, true
		return
	}

	elapsed := now.Sub(d.lastSample).Seconds()
	if elapsed <= 0 {
		return
	}
	if readBytes >= d.lastRead {
		d.readMBs = float64(readBytes-d.lastRead) / (1 << 20) / elapsed
	}
	if writeBytes >= d.lastWrite {
		d.writeMBs = float64(writeBytes-d.lastWrite) / (1 << 20) / elapsed
	}
	d.lastSample, d.lastRead, d.lastWrite = now, readBytes, writeBytes
}

// Snapshot returns the last cached MB/s reading.
func (d *DiskIOCollector) Snapshot() (readMBs, writeMBs float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.readMBs, d.writeMBs
}
