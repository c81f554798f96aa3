package orchestrator

import (
	"context"
	"time"

	"github.com/jonvt/watchdog-agent/internal/health"
	"github.com/jonvt/watchdog-agent/internal/model"
	"github.com/jonvt/watchdog-agent/internal/version"
)

// runLoop drives the 2s telemetry/health tick and the 60s retained config
// publish until ctx is cancelled.
func (o *Orchestrator) runLoop(ctx context.Context) {
	tick := time.NewTicker(tickInterval)
	defer tick.Stop()
	cfgTick := time.NewTicker(configInterval)
	defer cfgTick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			o.tick()
		case <-cfgTick.C:
			o.publishConfig()
		}
	}
}

// tick assembles telemetry, evaluates health, emits edge events, and
// publishes telemetry (QoS 0) plus the retained health summary (QoS 1),
// mirroring both to local observers.
func (o *Orchestrator) tick() {
	rec := o.assemble.Assemble()
	states := o.engine.Evaluate(&rec)
	mode := health.DeriveMode(o.shuttingDown.Load(), time.Since(o.startedAt), states, o.engine.Definitions())

	o.emitter.EvaluateConditions(states, health.SeverityFor)
	o.emitter.EvaluateMode(mode)

	active := health.ActiveIDs(states)
	if prev, ok := o.lastMode.Load().(model.OperationalMode); ok && prev != mode {
		o.log.Info().Str("from", string(prev)).Str("to", string(mode)).Msg("mode transition")
	}
	o.lastMode.Store(mode)
	o.lastConditions.Store(active)

	payload := model.HealthPayload{
		Schema:     model.HealthSchema,
		Timestamp:  rec.Timestamp,
		WallID:     o.cfg.WallID,
		Mode:       mode,
		Conditions: active,
		System: model.SystemSummary{
			CPUPercent:  rec.System.CPUPercent,
			RAMPercent:  rec.System.RAMPercent,
			DiskPercent: rec.System.DiskPercent,
		},
		Network: model.NetworkSummary{
			InternetReachable: rec.Network.InternetReachable,
			LatencyMs:         rec.Network.LatencyMs,
		},
		App: model.AppSummary{
			AppRunning:      rec.App.AppRunning,
			ServerRunning:   rec.App.ServerRunning,
			CrashCountToday: rec.App.CrashCountToday,
		},
	}

	o.bus.PublishTelemetry(rec)
	o.bus.PublishHealth(payload)
	o.hub.BroadcastJSON("telemetry", rec)
	o.hub.BroadcastJSON("health", payload)
}

// configPayload is the periodic retained config snapshot. Broker credentials
// are not echoed back onto the bus.
type configPayload struct {
	WallID       string         `json:"wallId"`
	Version      string         `json:"version"`
	LocalAPIPort int            `json:"localApiPort"`
	Brokers      []brokerSummary `json:"brokers"`
	ActiveBroker string         `json:"activeBroker,omitempty"`
}

type brokerSummary struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (o *Orchestrator) publishConfig() {
	brokers := make([]brokerSummary, 0, len(o.cfg.Brokers))
	for _, bc := range o.cfg.Brokers {
		brokers = append(brokers, brokerSummary{ID: bc.ID, Label: bc.Label})
	}
	o.bus.PublishConfig(configPayload{
		WallID:       o.cfg.WallID,
		Version:      version.String(),
		LocalAPIPort: o.cfg.LocalAPIPort,
		Brokers:      brokers,
		ActiveBroker: o.bus.Active(),
	})
}
