package command

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/lease"
	"github.com/jonvt/watchdog-agent/internal/model"
)

// AckPublisher delivers an ack both to the wire (ack/{clientId}, QoS 1, no
// retain) and to the out-of-band dashboard-broadcast hook.
type AckPublisher interface {
	PublishAck(clientID string, ack model.AckEnvelope)
}

// LifecycleEmitter is the subset of the event Emitter the processor needs.
type LifecycleEmitter interface {
	EmitLifecycle(eventType string, severity model.EventSeverity, details map[string]any)
}

// LeaseValidator is the subset of *lease.Manager the processor needs.
type LeaseValidator interface {
	Validate(clientID string, isLocal bool, requiresLease, localBypass bool) lease.Decision
}

// Processor implements the single inbound entry point for every command
// origin: remote, legacy, and local.
type Processor struct {
	registry *Registry
	idem     *idempotencyStore
	leases   LeaseValidator
	acks     AckPublisher
	events   LifecycleEmitter
	log      zerolog.Logger
	nowFn    func() time.Time
}

// NewProcessor wires a Processor. Call RunSweeper in its own goroutine.
func NewProcessor(registry *Registry, leases LeaseValidator, acks AckPublisher, events LifecycleEmitter, log zerolog.Logger) *Processor {
	return &Processor{
		registry: registry,
		idem:     newIdempotencyStore(),
		leases:   leases,
		acks:     acks,
		events:   events,
		log:      log,
		nowFn:    time.Now,
	}
}

// RunSweeper runs the 30s idempotency TTL sweep until ctx is cancelled.
func (p *Processor) RunSweeper(ctx context.Context) {
	p.idem.runSweeper(ctx)
}

// Handle implements the full inbound command path.
func (p *Processor) Handle(ctx context.Context, payload model.CommandEnvelope, clientID string, isLocal bool) {
	// 1. lifecycle COMMAND_RECEIVED
	p.events.EmitLifecycle("COMMAND_RECEIVED", model.SeverityInfo, map[string]any{
		"type":      string(payload.Type),
		"commandId": payload.CommandID,
		"clientId":  clientID,
		"isLocal":   isLocal,
	})

	// 2. idempotency: replay stored terminal ack, no handler invocation
	if ack, ok := p.idem.get(payload.CommandID); ok {
		p.acks.PublishAck(clientID, ack)
		return
	}

	now := p.nowFn().UnixMilli()

	// 3. TTL
	if payload.Ts+payload.TTLMs < now {
		p.acks.PublishAck(clientID, p.ack(payload.CommandID, model.AckExpired, "", nil))
		return
	}

	// 4. registry lookup
	entry, ok := p.registry.Lookup(payload.Type)
	if !ok {
		p.acks.PublishAck(clientID, p.ack(payload.CommandID, model.AckRejected, "Unknown command", nil))
		return
	}

	// 5. authorization
	decision := p.leases.Validate(clientID, isLocal, entry.RequiresLease, entry.LocalBypass)
	if !decision.Allowed {
		p.acks.PublishAck(clientID, p.ack(payload.CommandID, model.AckRejected, decision.Reason, nil))
		return
	}
	if decision.LocalBypass {
		p.events.EmitLifecycle("LOCAL_OVERRIDE_USED", model.SeverityWarn, map[string]any{
			"type":      string(payload.Type),
			"commandId": payload.CommandID,
		})
	}

	// 6. ack RECEIVED
	p.acks.PublishAck(clientID, p.ack(payload.CommandID, model.AckReceived, "", nil))

	// decode + validate args, then dispatch
	args, err := p.registry.DecodeAndValidate(entry, payload.Args)
	if err != nil {
		p.acks.PublishAck(clientID, p.ack(payload.CommandID, model.AckFailed, err.Error(), nil))
		return
	}

	result, err := entry.Handler(ctx, args)
	if err != nil {
		p.log.Warn().Err(err).Str("commandId", payload.CommandID).Str("type", string(payload.Type)).Msg("command handler failed")
		p.acks.PublishAck(clientID, p.ack(payload.CommandID, model.AckFailed, err.Error(), nil))
		return
	}

	// 7. APPLIED, cached for idempotent replay
	applied := p.ack(payload.CommandID, model.AckApplied, result.Message, result.Details)
	p.idem.put(payload.CommandID, applied)
	p.acks.PublishAck(clientID, applied)
}

func (p *Processor) ack(commandID string, status model.AckStatus, message string, details map[string]any) model.AckEnvelope {
	return model.AckEnvelope{
		Schema:    model.AckSchema,
		Ts:        p.nowFn().UnixMilli(),
		CommandID: commandID,
		Status:    status,
		Message:   message,
		Details:   details,
	}
}
