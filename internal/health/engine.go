package health

import (
	"sort"
	"time"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// Engine evaluates the fixed condition set over successive telemetry
// records, maintaining per-condition debounce state. It performs no I/O.
type Engine struct {
	defs   []model.ConditionDefinition
	states map[model.ConditionID]*model.ConditionState
	nowFn  func() time.Time
}

// NewEngine constructs an Engine with the default condition set.
func NewEngine() *Engine {
	return NewEngineWithDefinitions(DefaultDefinitions())
}

// NewEngineWithDefinitions allows tests to supply a custom condition set.
func NewEngineWithDefinitions(defs []model.ConditionDefinition) *Engine {
	states := make(map[model.ConditionID]*model.ConditionState, len(defs))
	for _, d := range defs {
		states[d.ID] = &model.ConditionState{ID: d.ID}
	}
	return &Engine{defs: defs, states: states, nowFn: time.Now}
}

// Evaluate runs every condition's predicate against record and returns the
// current ConditionState values, sorted by id for stable iteration. The
// returned slice is a snapshot; the engine's internal state is mutated
// in place.
func (e *Engine) Evaluate(record *model.TelemetryRecord) []model.ConditionState {
	now := e.nowFn()
	out := make([]model.ConditionState, 0, len(e.defs))

	for _, def := range e.defs {
		st := e.states[def.ID]
		triggered := def.Predicate(record)

		switch {
		case triggered && !st.RawActive:
			st.RawActive = true
			since := now
			st.ActiveSince = &since
		case !triggered:
			st.RawActive = false
			st.Active = false
			st.ActiveSince = nil
		}

		if triggered && st.RawActive {
			if def.DebounceMs == 0 {
				st.Active = true
			} else if st.ActiveSince != nil && now.Sub(*st.ActiveSince) >= time.Duration(def.DebounceMs)*time.Millisecond {
				st.Active = true
			}
		}

		out = append(out, *st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Definitions returns the engine's fixed condition definitions, keyed for
// level lookups by callers (e.g. mode derivation).
func (e *Engine) Definitions() []model.ConditionDefinition {
	return e.defs
}

// LevelOf returns the configured level for a condition id.
func (e *Engine) LevelOf(id model.ConditionID) model.ConditionLevel {
	for _, d := range e.defs {
		if d.ID == id {
			return d.Level
		}
	}
	return model.LevelDegraded
}
