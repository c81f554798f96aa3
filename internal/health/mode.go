package health

import (
	"sort"
	"time"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// warmupWindow is the startup grace period before the mode can leave STARTING.
const warmupWindow = 5 * time.Second

// DeriveMode is a pure function of (shuttingDown, uptime, conditionStates).
// Level ordering is total: CRITICAL > DEGRADED > READY.
func DeriveMode(shuttingDown bool, uptime time.Duration, states []model.ConditionState, defs []model.ConditionDefinition) model.OperationalMode {
	if shuttingDown {
		return model.ModeShuttingDown
	}
	if uptime < warmupWindow {
		return model.ModeStarting
	}

	level := make(map[model.ConditionID]model.ConditionLevel, len(defs))
	for _, d := range defs {
		level[d.ID] = d.Level
	}

	hasCritical := false
	hasDegraded := false
	for _, st := range states {
		if !st.Active {
			continue
		}
		switch level[st.ID] {
		case model.LevelCritical:
			hasCritical = true
		case model.LevelDegraded:
			hasDegraded = true
		}
	}

	switch {
	case hasCritical:
		return model.ModeCritical
	case hasDegraded:
		return model.ModeDegraded
	default:
		return model.ModeReady
	}
}

// ActiveIDs returns the sorted list of active condition ids for HealthPayload.
func ActiveIDs(states []model.ConditionState) []model.ConditionID {
	ids := make([]model.ConditionID, 0, len(states))
	for _, st := range states {
		if st.Active {
			ids = append(ids, st.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
