package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const updatesInterval = 5 * time.Minute

// UpdatesProbe counts pending OS updates. The concrete source (Windows
// Update COM API, apt/dnf metadata, ...) lives outside this package;
// NopUpdatesProbe is the always-zero default.
type UpdatesProbe interface {
	PendingCount() (int, error)
}

// NopUpdatesProbe always reports zero pending updates.
type NopUpdatesProbe struct{}

func (NopUpdatesProbe) PendingCount() (int, error) { return 0, nil }

// UpdatesCollector caches the last pending-update count.
type UpdatesCollector struct {
	probe UpdatesProbe
	log   zerolog.Logger

	mu      sync.RWMutex
	pending int
}

// NewUpdatesCollector constructs an UpdatesCollector with the no-op default probe.
func NewUpdatesCollector(log zerolog.Logger) *UpdatesCollector {
	return &UpdatesCollector{probe: NopUpdatesProbe{}, log: log}
}

// WithProbe overrides the default no-op probe.
func (u *UpdatesCollector) WithProbe(probe UpdatesProbe) *UpdatesCollector {
	u.probe = probe
	return u
}

// Run samples every 5 minutes until ctx is cancelled.
func (u *UpdatesCollector) Run(ctx context.Context) {
	runTicker(ctx, updatesInterval, u.sample)
}

func (u *UpdatesCollector) sample(_ context.Context) {
	count, err := u.probe.PendingCount()
	if err != nil {
		u.log.Debug().Err(err).Msg("pending updates probe failed")
		return
	}
	u.mu.Lock()
	u.pending = count
	u.mu.Unlock()
}

// Snapshot returns the last cached pending-update count.
func (u *UpdatesCollector) Snapshot() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.pending
}
