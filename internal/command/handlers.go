package command

import (
	"context"
	"fmt"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// Deps bundles the effectful collaborators the standard command set
// dispatches into. The command package itself owns no process, broker, or
// streaming state; every handler is a thin adapter onto functions supplied
// by the orchestrator at wiring time, keeping this package testable without
// a live subprocess or MQTT connection.
type Deps struct {
	RestartVUOS      func(ctx context.Context) error
	StartVUOS        func(ctx context.Context) error
	StopVUOS         func(ctx context.Context) error
	QuitWatchdog     func(ctx context.Context) error
	SwitchBroker     func(ctx context.Context, brokerID string) error
	RequestTelemetry func(ctx context.Context) (map[string]any, error)
	RequestConfig    func(ctx context.Context) (map[string]any, error)
	StartStream      func(ctx context.Context, monitor int, quality model.StreamQuality) (model.StreamingState, error)
	StopStream       func(ctx context.Context) error
	SetStreamQuality func(ctx context.Context, quality model.StreamQuality) (model.StreamingState, error)
}

// RegisterStandard populates the registry with the standard command set.
// REQUEST_* and streaming commands require no lease; the destructive
// commands require it, with local-origin override permitted.
func RegisterStandard(r *Registry, deps Deps) {
	r.Register(Entry{
		Type: model.CmdRestartVUOS, RequiresLease: true, LocalBypass: true,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			if err := deps.RestartVUOS(ctx); err != nil {
				return Result{}, err
			}
			return Result{Message: "VUOS restarted"}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdStartVUOS, RequiresLease: true, LocalBypass: true,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			if err := deps.StartVUOS(ctx); err != nil {
				return Result{}, err
			}
			return Result{Message: "VUOS started"}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdStopVUOS, RequiresLease: true, LocalBypass: true,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			if err := deps.StopVUOS(ctx); err != nil {
				return Result{}, err
			}
			return Result{Message: "VUOS stopped"}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdQuitWatchdog, RequiresLease: true, LocalBypass: true,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			if err := deps.QuitWatchdog(ctx); err != nil {
				return Result{}, err
			}
			return Result{Message: "watchdog shutting down"}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdSwitchBroker, RequiresLease: true, LocalBypass: true,
		NewArgs: func() any { return &SwitchBrokerArgs{} },
		Handler: func(ctx context.Context, a any) (Result, error) {
			args := a.(*SwitchBrokerArgs)
			if err := deps.SwitchBroker(ctx, args.BrokerID); err != nil {
				return Result{}, err
			}
			return Result{Message: "broker switched", Details: map[string]any{"brokerId": args.BrokerID}}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdRequestTelemetry, RequiresLease: false,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			details, err := deps.RequestTelemetry(ctx)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: "telemetry published", Details: details}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdRequestConfig, RequiresLease: false,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			details, err := deps.RequestConfig(ctx)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: "config published", Details: details}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdStartStream, RequiresLease: false,
		NewArgs: func() any { return &StartStreamArgs{} },
		Handler: func(ctx context.Context, a any) (Result, error) {
			args := a.(*StartStreamArgs)
			state, err := deps.StartStream(ctx, args.Monitor, args.Quality)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: "stream started", Details: map[string]any{
				"port": state.Port, "viewerUrl": state.ViewerURL,
			}}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdStopStream, RequiresLease: false,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			if err := deps.StopStream(ctx); err != nil {
				return Result{}, err
			}
			return Result{Message: "stream stopped"}, nil
		},
	})
	r.Register(Entry{
		Type: model.CmdSetStreamQuality, RequiresLease: false,
		NewArgs: func() any { return &SetStreamQualityArgs{} },
		Handler: func(ctx context.Context, a any) (Result, error) {
			args := a.(*SetStreamQualityArgs)
			state, err := deps.SetStreamQuality(ctx, args.Quality)
			if err != nil {
				return Result{}, err
			}
			return Result{Message: fmt.Sprintf("stream quality applied: %dx%d@%dfps", state.Quality.Width, state.Quality.Height, state.Quality.FPS)}, nil
		},
	})
}
