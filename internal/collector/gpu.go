package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

const gpuInterval = 5 * time.Second

// GPUProbe is a single vendor/OS-level GPU query strategy. Concrete vendor
// queries live outside this package, which only owns the first-success-wins
// ordering and caching around whatever probes are supplied.
type GPUProbe interface {
	Name() string
	Sample() (*model.GPUInfo, error)
}

// GPUCollector runs a first-success-wins strategy across an ordered probe
// list: once one probe succeeds, later polls use it exclusively.
type GPUCollector struct {
	probes []GPUProbe
	log    zerolog.Logger

	mu      sync.RWMutex
	info    *model.GPUInfo
	winner  int // index into probes once one has succeeded, -1 until then
}

// NewGPUCollector builds a GPUCollector. probe may be nil (no GPU available on
// this host); a nil probe always yields an absent GPUInfo.
func NewGPUCollector(probe GPUProbe, log zerolog.Logger) *GPUCollector {
	gc := &GPUCollector{log: log, winner: -1}
	if probe != nil {
		gc.probes = []GPUProbe{probe}
	}
	return gc
}

// WithFallback appends an additional probe tried only until one succeeds.
func (g *GPUCollector) WithFallback(probe GPUProbe) *GPUCollector {
	g.probes = append(g.probes, probe)
	return g
}

// Run samples every 5s until ctx is cancelled.
func (g *GPUCollector) Run(ctx context.Context) {
	runTicker(ctx, gpuInterval, g.sample)
}

func (g *GPUCollector) sample(_ context.Context) {
	if len(g.probes) == 0 {
		return
	}

	g.mu.RLock()
	winner := g.winner
	g.mu.RUnlock()

	if winner >= 0 {
		info, err := g.probes[winner].Sample()
		if err != nil {
			g.log.Debug().Err(err).Str("probe", g.probes[winner].Name()).Msg("gpu probe failed, keeping last snapshot")
			return
		}
		g.mu.Lock()
		g.info = info
		g.mu.Unlock()
		return
	}

	for i, probe := range g.probes {
		info, err := probe.Sample()
		if err != nil {
			continue
		}
		g.mu.Lock()
		g.info = info
		g.winner = i
		g.mu.Unlock()
		g.log.Info().Str("probe", probe.Name()).Msg("gpu probe strategy locked in")
		return
	}
}

// Snapshot returns the last cached GPU reading, or nil if no probe has
// succeeded (or none is configured).
func (g *GPUCollector) Snapshot() *model.GPUInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.info
}
