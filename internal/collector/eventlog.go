package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

const eventLogInterval = 60 * time.Second

// EventLogProbe reads a rolling summary of a platform error/event log
// (Windows Event Log, journald, syslog, ...); concrete readers live outside
// this package. NopEventLogProbe reports an empty log.
type EventLogProbe interface {
	Summarize() (model.EventLog, error)
}

// NopEventLogProbe always reports an empty log summary.
type NopEventLogProbe struct{}

func (NopEventLogProbe) Summarize() (model.EventLog, error) { return model.EventLog{}, nil }

// EventLogCollector caches the last platform event-log summary.
type EventLogCollector struct {
	probe EventLogProbe
	log   zerolog.Logger

	mu      sync.RWMutex
	summary model.EventLog
}

// NewEventLogCollector constructs an EventLogCollector with the no-op default probe.
func NewEventLogCollector(log zerolog.Logger) *EventLogCollector {
	return &EventLogCollector{probe: NopEventLogProbe{}, log: log}
}

// WithProbe overrides the default no-op probe.
func (e *EventLogCollector) WithProbe(probe EventLogProbe) *EventLogCollector {
	e.probe = probe
	return e
}

// Run samples every 60s until ctx is cancelled.
func (e *EventLogCollector) Run(ctx context.Context) {
	runTicker(ctx, eventLogInterval, e.sample)
}

func (e *EventLogCollector) sample(_ context.Context) {
	summary, err := e.probe.Summarize()
	if err != nil {
		e.log.Debug().Err(err).Msg("event log probe failed")
		return
	}
	e.mu.Lock()
	e.summary = summary
	e.mu.Unlock()
}

// Snapshot returns the last cached event-log summary.
func (e *EventLogCollector) Snapshot() model.EventLog {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.summary
}
