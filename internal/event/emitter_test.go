package event

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
	"github.com/jonvt/watchdog-agent/internal/health"
)

type captureSink struct {
	events []model.EventRecord
}

func (c *captureSink) Publish(e model.EventRecord) { c.events = append(c.events, e) }

func TestConditionOnOffAlternate(t *testing.T) {
	sink := &captureSink{}
	em := New("wall-1", sink, zerolog.Nop())

	states := []model.ConditionState{{ID: model.CondDiskFull, Active: true}}
	em.EvaluateConditions(states, health.SeverityFor)
	states = []model.ConditionState{{ID: model.CondDiskFull, Active: false}}
	em.EvaluateConditions(states, health.SeverityFor)

	if len(sink.events) != 2 {
		t.Fatalf("expected ON then OFF, got %d events", len(sink.events))
	}
	if sink.events[0].Type != "DISK_FULL_ON" || sink.events[1].Type != "DISK_FULL_OFF" {
		t.Fatalf("unexpected event sequence: %+v", sink.events)
	}
}

func TestReminderFiresAfterInterval(t *testing.T) {
	sink := &captureSink{}
	em := New("wall-1", sink, zerolog.Nop())
	fakeNow := time.Now()
	em.nowFn = func() time.Time { return fakeNow }

	states := []model.ConditionState{{ID: model.CondDiskFull, Active: true}}
	em.EvaluateConditions(states, health.SeverityFor) // ON

	fakeNow = fakeNow.Add(5 * time.Minute)
	em.EvaluateConditions(states, health.SeverityFor) // no reminder yet

	fakeNow = fakeNow.Add(6 * time.Minute)
	em.EvaluateConditions(states, health.SeverityFor) // reminder (>=10m since ON)

	if len(sink.events) != 2 {
		t.Fatalf("expected ON + REMINDER, got %d: %+v", len(sink.events), sink.events)
	}
	if sink.events[1].Type != "DISK_FULL_REMINDER" {
		t.Fatalf("expected REMINDER event, got %s", sink.events[1].Type)
	}
}

func TestModeChangedOnlyOnTransition(t *testing.T) {
	sink := &captureSink{}
	em := New("wall-1", sink, zerolog.Nop())

	em.EvaluateMode(model.ModeStarting) // first observation: no event
	em.EvaluateMode(model.ModeStarting) // unchanged: no event
	em.EvaluateMode(model.ModeReady)    // transition: event

	if len(sink.events) != 1 {
		t.Fatalf("expected exactly one MODE_CHANGED, got %d", len(sink.events))
	}
	if sink.events[0].Type != "MODE_CHANGED" {
		t.Fatalf("unexpected event type %s", sink.events[0].Type)
	}
	if sink.events[0].Details["to"] != "READY" {
		t.Fatalf("unexpected details %+v", sink.events[0].Details)
	}
}
