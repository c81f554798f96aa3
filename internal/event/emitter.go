// Package event implements the edge-triggered event emitter:
// it turns successive health-condition evaluations and mode values into
// `_ON`/`_OFF`/`_REMINDER` events, mode-change events, and imperative
// lifecycle markers, deduplicating reminders within a 10-minute window.
package event

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

const reminderInterval = 10 * time.Minute

// Sink receives emitted events for downstream publication (e.g. the broker client).
type Sink interface {
	Publish(model.EventRecord)
}

// Emitter holds the per-condition edge-tracking state.
type Emitter struct {
	wallID string
	sink   Sink
	log    zerolog.Logger
	nowFn  func() time.Time

	previousActive map[model.ConditionID]bool
	lastReminder   map[model.ConditionID]time.Time
	previousMode   model.OperationalMode
	haveMode       bool
}

// New constructs an Emitter publishing to sink.
func New(wallID string, sink Sink, log zerolog.Logger) *Emitter {
	return &Emitter{
		wallID:         wallID,
		sink:           sink,
		log:            log,
		nowFn:          time.Now,
		previousActive: make(map[model.ConditionID]bool),
		lastReminder:   make(map[model.ConditionID]time.Time),
	}
}

// EvaluateConditions applies the per-condition edge-trigger algorithm
// for one tick's ConditionState set.
func (e *Emitter) EvaluateConditions(states []model.ConditionState, severityFor func(model.ConditionID) model.EventSeverity) {
	now := e.nowFn()
	for _, st := range states {
		prev := e.previousActive[st.ID]

		switch {
		case !prev && st.Active:
			e.emit(string(st.ID)+"_ON", severityFor(st.ID), nil)
			e.lastReminder[st.ID] = now
		case prev && !st.Active:
			e.emit(string(st.ID)+"_OFF", model.SeverityInfo, nil)
			delete(e.lastReminder, st.ID)
		case prev && st.Active:
			if last, ok := e.lastReminder[st.ID]; !ok || now.Sub(last) >= reminderInterval {
				e.emit(string(st.ID)+"_REMINDER", severityFor(st.ID), nil)
				e.lastReminder[st.ID] = now
			}
		}

		e.previousActive[st.ID] = st.Active
	}
}

// EvaluateMode emits MODE_CHANGED when mode differs from the previous tick's mode.
func (e *Emitter) EvaluateMode(mode model.OperationalMode) {
	if e.haveMode && e.previousMode == mode {
		return
	}
	from := e.previousMode
	e.previousMode = mode
	first := !e.haveMode
	e.haveMode = true
	if first {
		return
	}

	severity := model.SeverityInfo
	switch mode {
	case model.ModeDegraded:
		severity = model.SeverityWarn
	case model.ModeCritical:
		severity = model.SeverityCritical
	}

	e.emit("MODE_CHANGED", severity, map[string]any{"from": string(from), "to": string(mode)})
}

// EmitLifecycle publishes a one-shot lifecycle marker: startup, broker
// events, shutdown, command receipt, crash detection, explicit restarts.
func (e *Emitter) EmitLifecycle(eventType string, severity model.EventSeverity, details map[string]any) {
	e.emit(eventType, severity, details)
}

func (e *Emitter) emit(eventType string, severity model.EventSeverity, details map[string]any) {
	rec := model.EventRecord{
		Schema:   model.EventSchema,
		Ts:       e.nowFn().UnixMilli(),
		WallID:   e.wallID,
		Type:     eventType,
		Severity: severity,
		Details:  details,
	}
	e.log.Debug().Str("type", eventType).Str("severity", string(severity)).Msg("event emitted")
	e.sink.Publish(rec)
}
