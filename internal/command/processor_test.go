package command

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/lease"
	"github.com/jonvt/watchdog-agent/internal/model"
)

type fakeAckSink struct {
	acks []model.AckEnvelope
}

func (f *fakeAckSink) PublishAck(_ string, ack model.AckEnvelope) {
	f.acks = append(f.acks, ack)
}

type fakeEventSink struct {
	events []string
}

func (f *fakeEventSink) EmitLifecycle(eventType string, _ model.EventSeverity, _ map[string]any) {
	f.events = append(f.events, eventType)
}

func newTestProcessor(t *testing.T) (*Processor, *Registry, *fakeAckSink, *fakeEventSink, *lease.Manager) {
	t.Helper()
	reg := NewRegistry()
	acks := &fakeAckSink{}
	events := &fakeEventSink{}
	leases := lease.New()
	proc := NewProcessor(reg, leases, acks, events, zerolog.Nop())
	return proc, reg, acks, events, leases
}

func TestHandleIdempotentReplay(t *testing.T) {
	proc, reg, acks, _, _ := newTestProcessor(t)
	calls := 0
	reg.Register(Entry{
		Type: model.CmdRequestTelemetry, RequiresLease: false,
		Handler: func(ctx context.Context, _ any) (Result, error) {
			calls++
			return Result{Message: "ok"}, nil
		},
	})

	env := model.CommandEnvelope{Schema: model.CommandSchema, CommandID: "abc", Type: model.CmdRequestTelemetry, Ts: time.Now().UnixMilli(), TTLMs: 60000}
	proc.Handle(context.Background(), env, "c1", false)
	proc.Handle(context.Background(), env, "c1", false)

	if calls != 1 {
		t.Fatalf("expected exactly one handler invocation, got %d", calls)
	}
	var applied []model.AckEnvelope
	for _, a := range acks.acks {
		if a.Status == model.AckApplied {
			applied = append(applied, a)
		}
	}
	if len(applied) != 2 {
		t.Fatalf("expected two APPLIED acks (one live, one replayed), got %d", len(applied))
	}
	if applied[0].Message != applied[1].Message {
		t.Fatalf("replayed ack should match the original: %+v vs %+v", applied[0], applied[1])
	}
}

func TestHandleExpiredTTL(t *testing.T) {
	proc, reg, acks, _, _ := newTestProcessor(t)
	reg.Register(Entry{Type: model.CmdRequestTelemetry, Handler: func(context.Context, any) (Result, error) {
		t.Fatalf("handler must not run for an expired command")
		return Result{}, nil
	}})

	env := model.CommandEnvelope{CommandID: "old", Type: model.CmdRequestTelemetry, Ts: 0, TTLMs: 1}
	proc.Handle(context.Background(), env, "c1", false)

	if len(acks.acks) != 1 || acks.acks[0].Status != model.AckExpired {
		t.Fatalf("expected single EXPIRED ack, got %+v", acks.acks)
	}
}

func TestHandleUnknownType(t *testing.T) {
	proc, _, acks, _, _ := newTestProcessor(t)
	env := model.CommandEnvelope{CommandID: "x1", Type: "NOT_A_COMMAND", Ts: time.Now().UnixMilli(), TTLMs: 60000}
	proc.Handle(context.Background(), env, "c1", false)

	if len(acks.acks) != 1 || acks.acks[0].Status != model.AckRejected {
		t.Fatalf("expected single REJECTED ack, got %+v", acks.acks)
	}
}

func TestHandleLeaseDenial(t *testing.T) {
	proc, reg, acks, _, _ := newTestProcessor(t)
	invoked := false
	reg.Register(Entry{
		Type: model.CmdRestartVUOS, RequiresLease: true, LocalBypass: true,
		Handler: func(context.Context, any) (Result, error) {
			invoked = true
			return Result{}, nil
		},
	})

	env := model.CommandEnvelope{CommandID: "r1", Type: model.CmdRestartVUOS, Ts: time.Now().UnixMilli(), TTLMs: 60000}
	proc.Handle(context.Background(), env, "ops-42", false)

	if invoked {
		t.Fatalf("handler must not run when the lease is denied")
	}
	if len(acks.acks) != 1 || acks.acks[0].Status != model.AckRejected {
		t.Fatalf("expected single REJECTED ack, got %+v", acks.acks)
	}
}

func TestHandleLocalOverride(t *testing.T) {
	proc, reg, acks, events, _ := newTestProcessor(t)
	invoked := false
	reg.Register(Entry{
		Type: model.CmdRestartVUOS, RequiresLease: true, LocalBypass: true,
		Handler: func(context.Context, any) (Result, error) {
			invoked = true
			return Result{Message: "restarted"}, nil
		},
	})

	env := model.CommandEnvelope{CommandID: "r2", Type: model.CmdRestartVUOS, Ts: time.Now().UnixMilli(), TTLMs: 60000}
	proc.Handle(context.Background(), env, LocalClientID(), true)

	if !invoked {
		t.Fatalf("local bypass should allow the handler to run")
	}

	sawOverride := false
	for _, e := range events.events {
		if e == "LOCAL_OVERRIDE_USED" {
			sawOverride = true
		}
	}
	if !sawOverride {
		t.Fatalf("expected a LOCAL_OVERRIDE_USED lifecycle event, got %+v", events.events)
	}

	var statuses []model.AckStatus
	for _, a := range acks.acks {
		statuses = append(statuses, a.Status)
	}
	if len(statuses) != 2 || statuses[0] != model.AckReceived || statuses[1] != model.AckApplied {
		t.Fatalf("expected RECEIVED then APPLIED, got %+v", statuses)
	}
}

func TestHandleFailureNotCached(t *testing.T) {
	proc, reg, _, _, _ := newTestProcessor(t)
	attempts := 0
	reg.Register(Entry{
		Type: model.CmdRequestTelemetry,
		Handler: func(context.Context, any) (Result, error) {
			attempts++
			return Result{}, errFailing
		},
	})

	env := model.CommandEnvelope{CommandID: "f1", Type: model.CmdRequestTelemetry, Ts: time.Now().UnixMilli(), TTLMs: 60000}
	proc.Handle(context.Background(), env, "c1", false)
	proc.Handle(context.Background(), env, "c1", false)

	if attempts != 2 {
		t.Fatalf("a FAILED outcome must not be cached; expected 2 attempts, got %d", attempts)
	}
}

type failingErr struct{}

func (failingErr) Error() string { return "boom" }

var errFailing = failingErr{}
