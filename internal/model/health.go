package model

import "time"

// ConditionLevel is the severity tier a condition belongs to.
type ConditionLevel string

const (
	LevelDegraded ConditionLevel = "DEGRADED"
	LevelCritical ConditionLevel = "CRITICAL"
)

// ConditionID enumerates the fixed condition set evaluated by the health engine.
type ConditionID string

const (
	CondVUOSDown           ConditionID = "VUOS_DOWN"
	CondServerDown         ConditionID = "SERVER_DOWN"
	CondDiskFull           ConditionID = "DISK_FULL"
	CondThermalThrottling  ConditionID = "THERMAL_THROTTLING"
	CondLockStale          ConditionID = "LOCK_STALE"
	CondInternetOffline    ConditionID = "INTERNET_OFFLINE"
	CondLatencyHigh        ConditionID = "LATENCY_HIGH"
	CondDiskHigh           ConditionID = "DISK_HIGH"
	CondGPUProbeFailed     ConditionID = "GPU_PROBE_FAILED"
	CondErrorsHigh         ConditionID = "ERRORS_HIGH"
)

// ConditionDefinition is the static shape of a health condition, fixed at startup.
type ConditionDefinition struct {
	ID         ConditionID
	Level      ConditionLevel
	DebounceMs int64
	Predicate  func(*TelemetryRecord) bool
}

// ConditionState is the mutable per-condition evaluation state.
type ConditionState struct {
	ID          ConditionID
	RawActive   bool
	Active      bool
	ActiveSince *time.Time
}

// OperationalMode is the derived, single-valued health summary.
type OperationalMode string

const (
	ModeStarting     OperationalMode = "STARTING"
	ModeReady        OperationalMode = "READY"
	ModeDegraded     OperationalMode = "DEGRADED"
	ModeCritical     OperationalMode = "CRITICAL"
	ModeShuttingDown OperationalMode = "SHUTTING_DOWN"
)

// HealthSchema is the schema tag for HealthPayload.
const HealthSchema = "vu.watchdog.health.v1"

// HealthPayload is the bounded, retained health snapshot published each tick.
type HealthPayload struct {
	Schema     string          `json:"schema"`
	Timestamp  int64           `json:"ts"`
	WallID     string          `json:"wallId"`
	Mode       OperationalMode `json:"mode"`
	Conditions []ConditionID   `json:"conditions"`
	System     SystemSummary   `json:"system"`
	Network    NetworkSummary  `json:"network"`
	App        AppSummary      `json:"app"`
}

// SystemSummary is a compact projection of SystemMetrics for retained publication.
type SystemSummary struct {
	CPUPercent  float64 `json:"cpuPercent"`
	RAMPercent  float64 `json:"ramPercent"`
	DiskPercent float64 `json:"diskPercent"`
}

// NetworkSummary is a compact projection of NetworkStats.
type NetworkSummary struct {
	InternetReachable bool     `json:"internetReachable"`
	LatencyMs         *float64 `json:"latencyMs,omitempty"`
}

// AppSummary is a compact projection of AppStats.
type AppSummary struct {
	AppRunning      bool `json:"appRunning"`
	ServerRunning   bool `json:"serverRunning"`
	CrashCountToday int  `json:"crashCountToday"`
}

// EventSchema is the schema tag for EventRecord.
const EventSchema = "vu.watchdog.event.v1"

// EventSeverity is the severity tier of an emitted event.
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "INFO"
	SeverityWarn     EventSeverity = "WARN"
	SeverityError    EventSeverity = "ERROR"
	SeverityCritical EventSeverity = "CRITICAL"
)

// EventRecord is an edge-triggered or lifecycle event.
type EventRecord struct {
	Schema   string        `json:"schema"`
	Ts       int64         `json:"ts"`
	WallID   string        `json:"wallId"`
	Type     string        `json:"type"`
	Severity EventSeverity `json:"severity"`
	Details  map[string]any `json:"details,omitempty"`
}
