package health

import "github.com/jonvt/watchdog-agent/internal/model"

// DefaultDefinitions returns the fixed condition set, CRITICAL conditions
// first and DEGRADED ones after. This order is for readability only; it is
// not the lexicographic order HealthPayload.Conditions uses, which callers
// sort explicitly (Engine.Evaluate, ActiveIDs).
func DefaultDefinitions() []model.ConditionDefinition {
	return []model.ConditionDefinition{
		{
			ID:         model.CondVUOSDown,
			Level:      model.LevelCritical,
			DebounceMs: 10_000,
			Predicate:  func(r *model.TelemetryRecord) bool { return !r.App.AppRunning },
		},
		{
			ID:         model.CondServerDown,
			Level:      model.LevelCritical,
			DebounceMs: 10_000,
			Predicate:  func(r *model.TelemetryRecord) bool { return !r.App.ServerRunning },
		},
		{
			ID:         model.CondDiskFull,
			Level:      model.LevelCritical,
			DebounceMs: 0,
			Predicate:  func(r *model.TelemetryRecord) bool { return r.System.DiskPercent >= 97 },
		},
		{
			ID:         model.CondThermalThrottling,
			Level:      model.LevelCritical,
			DebounceMs: 0,
			Predicate:  func(r *model.TelemetryRecord) bool { return r.System.ThermalThrottl },
		},
		{
			ID:         model.CondLockStale,
			Level:      model.LevelCritical,
			DebounceMs: 0,
			Predicate: func(r *model.TelemetryRecord) bool {
				if r.App.Lock == nil {
					return false
				}
				return !r.App.Lock.Healthy && r.App.Lock.HeartbeatAgeMs > 15_000
			},
		},
		{
			ID:         model.CondInternetOffline,
			Level:      model.LevelDegraded,
			DebounceMs: 30_000,
			Predicate:  func(r *model.TelemetryRecord) bool { return !r.Network.InternetReachable },
		},
		{
			ID:         model.CondLatencyHigh,
			Level:      model.LevelDegraded,
			DebounceMs: 60_000,
			Predicate: func(r *model.TelemetryRecord) bool {
				if r.Network.LatencyMs == nil {
					return false
				}
				return *r.Network.LatencyMs > 250
			},
		},
		{
			ID:         model.CondDiskHigh,
			Level:      model.LevelDegraded,
			DebounceMs: 0,
			Predicate: func(r *model.TelemetryRecord) bool {
				return r.System.DiskPercent >= 90 && r.System.DiskPercent < 97
			},
		},
		{
			ID:         model.CondGPUProbeFailed,
			Level:      model.LevelDegraded,
			DebounceMs: 60_000,
			Predicate:  func(r *model.TelemetryRecord) bool { return r.System.GPU == nil },
		},
		{
			ID:         model.CondErrorsHigh,
			Level:      model.LevelDegraded,
			DebounceMs: 0,
			Predicate:  func(r *model.TelemetryRecord) bool { return r.System.RecentEvents.RecentCount >= 5 },
		},
	}
}

// SeverityFor maps a condition id to the severity used by the event emitter's
// `_ON` events. Unknown ids default to WARN.
func SeverityFor(id model.ConditionID) model.EventSeverity {
	switch id {
	case model.CondVUOSDown, model.CondServerDown, model.CondDiskFull,
		model.CondThermalThrottling, model.CondLockStale:
		return model.SeverityCritical
	case model.CondInternetOffline, model.CondLatencyHigh, model.CondDiskHigh,
		model.CondGPUProbeFailed, model.CondErrorsHigh:
		return model.SeverityWarn
	default:
		return model.SeverityWarn
	}
}
