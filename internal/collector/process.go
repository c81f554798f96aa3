package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gopsutilprocess "github.com/shirou/gopsutil/v4/process"
)

const processInterval = 5 * time.Second

// ProcessSnapshot is the per-tick view of one monitored process.
type ProcessSnapshot struct {
	Running  bool
	PID      int32
	MemoryMB float64
	Version  string
}

// ProcessCollector tracks the target application process and its supporting
// server process by executable name, via gopsutil/v4's cross-platform
// process enumeration.
type ProcessCollector struct {
	targetName string
	serverName string
	log        zerolog.Logger

	mu     sync.RWMutex
	target ProcessSnapshot
	server ProcessSnapshot
}

// NewProcessCollector constructs a ProcessCollector matching on executable name.
func NewProcessCollector(targetName, serverName string, log zerolog.Logger) *ProcessCollector {
	return &ProcessCollector{targetName: targetName, serverName: serverName, log: log}
}

// Run samples every 5s until ctx is cancelled.
func (p *ProcessCollector) Run(ctx context.Context) {
	runTicker(ctx, processInterval, p.sample)
}

func (p *ProcessCollector) sample(_ context.Context) {
	procs, err := gopsutilprocess.Processes()
	if err != nil {
		p.log.Debug().Err(err).Msg("process enumeration failed")
		return
	}

	target := findByName(procs, p.targetName)
	server := findByName(procs, p.serverName)

	p.mu.Lock()
	defer p.mu.Unlock()
	if target != nil {
		memMB := 0.0
		if mem, err := target.MemoryInfo(); err == nil && mem != nil {
			memMB = float64(mem.RSS) / (1 << 20)
		}
		p.target = ProcessSnapshot{Running: true, PID: target.Pid, MemoryMB: memMB}
	} else {
		p.target = ProcessSnapshot{}
	}
	if server != nil {
		p.server = ProcessSnapshot{Running: true, PID: server.Pid}
	} else {
		p.server = ProcessSnapshot{}
	}
}

func findByName(procs []*gopsutilprocess.Process, name string) *gopsutilprocess.Process {
	if name == "" {
		return nil
	}
	for _, proc := range procs {
		n, err := proc.Name()
		if err != nil {
			continue
		}
		if n == name {
			return proc
		}
	}
	return nil
}

// Snapshot returns the last cached target/server process readings.
func (p *ProcessCollector) Snapshot() (target, server ProcessSnapshot) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target, p.server
}
