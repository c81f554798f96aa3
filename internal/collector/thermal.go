package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const thermalInterval = 10 * time.Second

// ThermalProbe reports whether the host is currently thermal-throttling.
// Concrete implementations are platform-specific (ACPI, vendor sensor APIs)
// and live outside this package; NopThermalProbe is the always-false
// default for hosts with no such sensor wired in.
type ThermalProbe interface {
	IsThrottling() (bool, error)
}

// NopThermalProbe always reports no throttling.
type NopThermalProbe struct{}

func (NopThermalProbe) IsThrottling() (bool, error) { return false, nil }

// ThermalCollector caches the last throttling read.
type ThermalCollector struct {
	probe ThermalProbe
	log   zerolog.Logger

	mu          sync.RWMutex
	throttling bool
}

// NewThermalCollector constructs a ThermalCollector with the no-op default probe.
func NewThermalCollector(log zerolog.Logger) *ThermalCollector {
	return &ThermalCollector{probe: NopThermalProbe{}, log: log}
}

// WithProbe overrides the default no-op probe.
func (t *ThermalCollector) WithProbe(probe ThermalProbe) *ThermalCollector {
	t.probe = probe
	return t
}

// Run samples every 10s until ctx is cancelled.
func (t *ThermalCollector) Run(ctx context.Context) {
	runTicker(ctx, thermalInterval, t.sample)
}

func (t *ThermalCollector) sample(_ context.Context) {
	throttling, err := t.probe.IsThrottling()
	if err != nil {
		t.log.Debug().Err(err).Msg("thermal probe failed")
		return
	}
	t.mu.Lock()
	t.throttling = throttling
	t.mu.Unlock()
}

// Snapshot returns the last cached throttling state.
func (t *ThermalCollector) Snapshot() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.throttling
}
