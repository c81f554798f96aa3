package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/jonvt/watchdog-agent/internal/command"
	"github.com/jonvt/watchdog-agent/internal/model"
)

// registerHandlers populates the command registry with the standard command
// set, binding each handler to its subsystem.
func (o *Orchestrator) registerHandlers() {
	command.RegisterStandard(o.registry, command.Deps{
		RestartVUOS: func(ctx context.Context) error {
			o.emitter.EmitLifecycle("VUOS_RESTART_REQUESTED", model.SeverityWarn, nil)
			return o.app.Restart(ctx)
		},
		StartVUOS: func(ctx context.Context) error {
			return o.app.Start(ctx)
		},
		StopVUOS: func(ctx context.Context) error {
			return o.app.Stop(ctx)
		},
		QuitWatchdog: func(ctx context.Context) error {
			o.shuttingDown.Store(true)
			// Give the terminal ack a moment to flush before tearing down.
			go func() {
				time.Sleep(500 * time.Millisecond)
				if o.shutdownFn != nil {
					o.shutdownFn()
				}
			}()
			return nil
		},
		SwitchBroker: func(ctx context.Context, brokerID string) error {
			return o.bus.SwitchBroker(brokerID, "command")
		},
		RequestTelemetry: func(ctx context.Context) (map[string]any, error) {
			rec := o.assemble.Assemble()
			o.bus.PublishTelemetry(rec)
			o.hub.BroadcastJSON("telemetry", rec)
			return map[string]any{"timestamp": rec.Timestamp}, nil
		},
		RequestConfig: func(ctx context.Context) (map[string]any, error) {
			o.publishConfig()
			return nil, nil
		},
		StartStream: func(ctx context.Context, monitor int, quality model.StreamQuality) (model.StreamingState, error) {
			state, err := o.stream.Start(ctx, monitor, quality)
			if err != nil {
				return model.StreamingState{}, err
			}
			if err := o.bridge.Start(ctx, o.cfg.WallID, state); err != nil {
				stopErr := o.stream.Stop(ctx)
				if stopErr != nil {
					o.log.Warn().Err(stopErr).Msg("stopping media engine after bridge start failure")
				}
				return model.StreamingState{}, fmt.Errorf("start signaling bridge: %w", err)
			}
			return state, nil
		},
		StopStream: func(ctx context.Context) error {
			o.bridge.Stop(ctx)
			return o.stream.Stop(ctx)
		},
		SetStreamQuality: func(ctx context.Context, quality model.StreamQuality) (model.StreamingState, error) {
			// Documented destructive path: viewers disconnect while the
			// engine restarts with the new quality; APPLIED only once the
			// new process is healthy and the bridge is back up.
			o.bridge.Stop(ctx)
			state, err := o.stream.SetQuality(ctx, quality)
			if err != nil {
				return model.StreamingState{}, err
			}
			if err := o.bridge.Start(ctx, o.cfg.WallID, state); err != nil {
				return model.StreamingState{}, fmt.Errorf("restart signaling bridge: %w", err)
			}
			return state, nil
		},
	})
}
