// Package orchestrator wires every subsystem of the agent together: it owns
// the 2-second publish loop, routes inbound bus messages to the lease
// manager, command processor, legacy shim, and signaling bridge, and
// supervises startup and graceful shutdown.
package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/appproc"
	"github.com/jonvt/watchdog-agent/internal/assembler"
	"github.com/jonvt/watchdog-agent/internal/broker"
	"github.com/jonvt/watchdog-agent/internal/collector"
	"github.com/jonvt/watchdog-agent/internal/command"
	"github.com/jonvt/watchdog-agent/internal/config"
	"github.com/jonvt/watchdog-agent/internal/event"
	"github.com/jonvt/watchdog-agent/internal/health"
	"github.com/jonvt/watchdog-agent/internal/lease"
	"github.com/jonvt/watchdog-agent/internal/localapi"
	"github.com/jonvt/watchdog-agent/internal/model"
	"github.com/jonvt/watchdog-agent/internal/signaling"
	"github.com/jonvt/watchdog-agent/internal/streaming"
)

const (
	tickInterval       = 2 * time.Second
	configInterval     = 60 * time.Second
	collectorWarmup    = 3 * time.Second
	instanceProbePause = 1 * time.Second
)

// Orchestrator holds every subsystem plus the loop state.
type Orchestrator struct {
	cfg config.Config
	log zerolog.Logger

	collectors *collector.Registry
	assemble   *assembler.Assembler
	engine     *health.Engine
	emitter    *event.Emitter
	leases     *lease.Manager
	registry   *command.Registry
	processor  *command.Processor
	bus        *broker.Client
	stream     *streaming.Supervisor
	bridge     *signaling.Bridge
	app        *appproc.Supervisor
	hub        *localapi.Hub
	local      *localapi.Server

	startedAt      time.Time
	shuttingDown   atomic.Bool
	lastMode       atomic.Value // model.OperationalMode
	lastConditions atomic.Value // []model.ConditionID
	shutdownFn     context.CancelFunc
}

// New wires all components from cfg. Nothing is started until Run.
func New(cfg config.Config, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		log:       log,
		engine:    health.NewEngine(),
		leases:    lease.New(),
		registry:  command.NewRegistry(),
		startedAt: time.Now(),
	}

	o.hub = localapi.NewHub(log.With().Str("component", "localapi").Logger())

	o.collectors = collector.NewRegistry(collector.Deps{
		TargetProcessName: cfg.App.ProcessName,
		ServerProcessName: cfg.App.ServerProcessName,
		LockFilePath:      cfg.App.LockFilePath,
		InternetProbeURL:  cfg.Probes.InternetURL,
		LocalServerURL:    cfg.App.LocalServerURL,
		GPUProbe:          collector.DefaultGPUProbe(),
	}, log.With().Str("component", "collector").Logger())

	o.assemble = assembler.New(cfg.WallID, assembler.ReadersFromRegistry(o.collectors))

	sink := &eventFanout{o: o}
	o.emitter = event.New(cfg.WallID, sink, log.With().Str("component", "event").Logger())

	o.bus = broker.New(cfg.WallID, cfg.Brokers, o.emitter, log.With().Str("component", "broker").Logger())
	o.bus.SetStatusProvider(func() broker.StatusSummary {
		return broker.StatusSummary{
			WallID: cfg.WallID,
			Stream: broker.StreamSummary{Status: string(o.streamState().Status)},
		}
	})

	o.stream = streaming.New(streaming.Config{
		BinaryPath:     cfg.MediaEngine.BinaryPath,
		STUNServer:     cfg.MediaEngine.STUNServer,
		StreamName:     cfg.WallID,
		PortCandidates: cfg.MediaEngine.PortCandidates,
	}, log.With().Str("component", "streaming").Logger())
	o.stream.OnStateChange(func(st model.StreamingState) {
		o.bus.PublishStreamStatus(st)
		o.hub.BroadcastJSON("stream", st)
	})

	o.bridge = signaling.New(o.bus, o.emitter, cfg.MediaEngine.STUNServer, nil,
		log.With().Str("component", "signaling").Logger())

	o.app = appproc.New(appproc.Config{
		BinaryPath: cfg.App.BinaryPath,
		Args:       cfg.App.Args,
		WorkDir:    cfg.App.WorkDir,
	}, log.With().Str("component", "appproc").Logger())

	acks := &ackFanout{o: o}
	o.processor = command.NewProcessor(o.registry, o.leases, acks, o.emitter,
		log.With().Str("component", "command").Logger())

	o.registerHandlers()

	o.local = localapi.New(cfg.LocalAPIPort, o.hub, o.submitLocal, o.statusSnapshot,
		log.With().Str("component", "localapi").Logger())

	o.lastMode.Store(model.ModeStarting)
	return o
}

// Run starts every subsystem and blocks in the main loop until ctx is
// cancelled. It returns an error for fatal startup conditions only.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.guardSingleInstance(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.shutdownFn = cancel

	o.collectors.Start(ctx)
	select {
	case <-time.After(collectorWarmup):
	case <-ctx.Done():
		o.collectors.Stop()
		return nil
	}

	if err := o.bus.Connect(o.dispatch); err != nil {
		o.collectors.Stop()
		return fmt.Errorf("orchestrator: initial broker connect: %w", err)
	}

	go o.processor.RunSweeper(ctx)
	go func() {
		if err := o.local.Run(ctx); err != nil {
			o.log.Error().Err(err).Msg("local API server stopped")
		}
	}()

	o.emitter.EmitLifecycle("WATCHDOG_STARTED", model.SeverityInfo, map[string]any{
		"wallId": o.cfg.WallID,
	})

	o.bus.PublishTelemetry(o.assemble.Assemble())
	o.publishConfig()

	o.runLoop(ctx)

	o.shutdown()
	return nil
}

// guardSingleInstance probes the local API port; any response means another
// agent instance already owns this host.
func (o *Orchestrator) guardSingleInstance() error {
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", o.cfg.LocalAPIPort)
	client := &http.Client{Timeout: instanceProbePause}
	resp, err := client.Get(url)
	if err != nil {
		return nil
	}
	resp.Body.Close()
	return fmt.Errorf("orchestrator: another instance is already running on port %d", o.cfg.LocalAPIPort)
}

func (o *Orchestrator) shutdown() {
	o.shuttingDown.Store(true)
	o.emitter.EmitLifecycle("WATCHDOG_STOPPING", model.SeverityInfo, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	o.bridge.Stop(ctx)
	if err := o.stream.Stop(ctx); err != nil {
		o.log.Warn().Err(err).Msg("stopping media engine during shutdown")
	}
	o.collectors.Stop()
	o.log.Info().Msg("watchdog agent stopped")
}

func (o *Orchestrator) streamState() model.StreamingState {
	return o.stream.State()
}

func (o *Orchestrator) statusSnapshot() localapi.StatusSnapshot {
	owner, expires := o.leases.Current()
	mode, _ := o.lastMode.Load().(model.OperationalMode)
	conditions, _ := o.lastConditions.Load().([]model.ConditionID)
	return localapi.StatusSnapshot{
		WallID:       o.cfg.WallID,
		Mode:         mode,
		Conditions:   conditions,
		LeaseOwner:   owner,
		LeaseExpires: expires,
		Stream:       o.streamState(),
		ActiveBroker: o.bus.Active(),
		Observers:    o.hub.ClientCount(),
	}
}

// submitLocal is the localapi CommandSubmitter: local commands carry
// isLocal=true and the synthetic local-api client id.
func (o *Orchestrator) submitLocal(ctx context.Context, env model.CommandEnvelope) {
	o.processor.Handle(ctx, env, command.LocalClientID(), true)
}

// eventFanout delivers every emitted event to the bus and mirrors it to the
// local observer hub; COMMAND_RECEIVED markers are additionally echoed on
// the realtime commands topic.
type eventFanout struct {
	o *Orchestrator
}

func (s *eventFanout) Publish(rec model.EventRecord) {
	s.o.bus.PublishEvent(rec)
	s.o.hub.BroadcastJSON("event", rec)
	if rec.Type == "COMMAND_RECEIVED" {
		s.o.bus.PublishCommandActivity(rec)
	}
}

// ackFanout publishes each ack on ack/{clientId} and mirrors it to the local
// observer hub (the out-of-band dashboard-broadcast hook).
type ackFanout struct {
	o *Orchestrator
}

func (a *ackFanout) PublishAck(clientID string, ack model.AckEnvelope) {
	a.o.bus.PublishAck(clientID, ack)
	a.o.hub.BroadcastJSON("ack", ack)
}
