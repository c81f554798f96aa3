// Package model defines the wire and in-memory data types shared across the
// watchdog agent: telemetry snapshots, health/event payloads, command and ack
// envelopes, the lease record, broker configuration, and streaming/signaling
// state.
package model

import "time"

// TelemetryRecord is an immutable snapshot produced once per assembler tick.
type TelemetryRecord struct {
	Timestamp int64         `json:"timestamp"`
	WallID    string        `json:"wallId"`
	System    SystemMetrics `json:"system"`
	Network   NetworkStats  `json:"network"`
	App       AppStats      `json:"app"`
}

// SystemMetrics carries host resource usage for a single tick.
type SystemMetrics struct {
	CPUPercent     float64  `json:"cpuPercent"`
	CPUModel       string   `json:"cpuModel"`
	CPUCores       int      `json:"cpuCores"`
	RAMTotalMB     uint64   `json:"ramTotalMb"`
	RAMUsedMB      uint64   `json:"ramUsedMb"`
	RAMPercent     float64  `json:"ramPercent"`
	GPU            *GPUInfo `json:"gpu,omitempty"`
	DiskTotalGB    float64  `json:"diskTotalGb"`
	DiskUsedGB     float64  `json:"diskUsedGb"`
	DiskPercent    float64  `json:"diskPercent"`
	DiskReadMBs    float64  `json:"diskReadMBs"`
	DiskWriteMBs   float64  `json:"diskWriteMBs"`
	ThermalThrottl bool     `json:"thermalThrottling"`
	PendingUpdates int      `json:"pendingUpdates"`
	RecentEvents   EventLog `json:"recentEvents"`
	UptimeSeconds  uint64   `json:"uptimeSeconds"`
}

// GPUInfo describes the primary GPU, when a probe strategy has succeeded.
type GPUInfo struct {
	Name        string   `json:"name"`
	UsagePct    float64  `json:"usagePercent"`
	VRAMUsedMB  uint64   `json:"vramUsedMb"`
	VRAMTotalMB uint64   `json:"vramTotalMb"`
	TempC       *float64 `json:"tempC,omitempty"`
}

// EventLog is a compact rolling summary of a platform error/event log.
type EventLog struct {
	RecentCount int       `json:"recentCount"`
	LastMessage string    `json:"lastMessage,omitempty"`
	LastTime    time.Time `json:"lastTime,omitempty"`
}

// NetworkStats carries connectivity health for a single tick.
type NetworkStats struct {
	InternetReachable    bool     `json:"internetReachable"`
	LatencyMs            *float64 `json:"latencyMs,omitempty"`
	LocalServerReachable bool     `json:"localServerReachable"`
	ConnectedPeers       int      `json:"connectedPeers"`
}

// AppStats carries the target application's health for a single tick.
type AppStats struct {
	AppRunning      bool       `json:"appRunning"`
	ServerRunning   bool       `json:"serverRunning"`
	ServerVersion   string     `json:"serverVersion,omitempty"`
	AppMemoryMB     *float64   `json:"appMemoryMb,omitempty"`
	CrashCountToday int        `json:"crashCountToday"`
	Lock            *LockState `json:"lock,omitempty"`
	Log             EventLog   `json:"log"`
}

// LockState mirrors the target application's heartbeat lock file.
type LockState struct {
	PID             int       `json:"pid"`
	StartTime       time.Time `json:"startTime"`
	LastHeartbeat   time.Time `json:"lastHeartbeat"`
	HeartbeatAgeMs  int64     `json:"heartbeatAgeMs"`
	Healthy         bool      `json:"healthy"`
}
