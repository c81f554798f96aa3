// Package assembler composes a TelemetryRecord from collector caches on a
// fixed 2s tick, performing no I/O of its own.
package assembler

import (
	"time"

	"github.com/jonvt/watchdog-agent/internal/collector"
	"github.com/jonvt/watchdog-agent/internal/model"
)

// Assembler reads every collector's cached snapshot and the crash-detection
// state to build one TelemetryRecord per tick.
type Assembler struct {
	wallID  string
	readers Readers
	crash   *crashTracker
}

// Readers exposes the individual collector snapshot accessors the Assembler
// composes from. Passed explicitly (rather than reaching into Registry
// internals) so the Assembler stays testable against fakes.
type Readers struct {
	CPU       func() (percent float64, model string, cores int, uptimeSeconds uint64)
	Memory    func() (totalMB, usedMB uint64, percent float64)
	GPU       func() *model.GPUInfo
	Disk      func() (totalGB, usedGB, percent float64)
	DiskIO    func() (readMBs, writeMBs float64)
	Thermal   func() bool
	Updates   func() int
	EventLog  func() model.EventLog
	ServerLog func() (*model.LockState, model.EventLog)
	Network   func() (reachable bool, latencyMs *float64)
	LocalSrv  func() (reachable bool, peers int)
	Target    func() collector.ProcessSnapshot
	Server    func() collector.ProcessSnapshot
}

// ReadersFromRegistry builds a Readers bound to a live collector.Registry's caches.
func ReadersFromRegistry(reg *collector.Registry) Readers {
	return Readers{
		CPU:       reg.CPU().Snapshot,
		Memory:    reg.Memory().Snapshot,
		GPU:       reg.GPU().Snapshot,
		Disk:      reg.Disk().Snapshot,
		DiskIO:    reg.DiskIO().Snapshot,
		Thermal:   reg.Thermal().Snapshot,
		Updates:   reg.Updates().Snapshot,
		EventLog:  reg.EventLog().Snapshot,
		ServerLog: reg.ServerLog().Snapshot,
		Network:   reg.Network().Snapshot,
		LocalSrv:  reg.LocalServer().Snapshot,
		Target:    func() collector.ProcessSnapshot { t, _ := reg.Process().Snapshot(); return t },
		Server:    func() collector.ProcessSnapshot { _, s := reg.Process().Snapshot(); return s },
	}
}

// New constructs an Assembler for wallID, reading from readers.
func New(wallID string, readers Readers) *Assembler {
	return &Assembler{
		wallID:  wallID,
		readers: readers,
		crash:   newCrashTracker(),
	}
}

// Assemble builds one immutable TelemetryRecord from the current collector caches.
func (a *Assembler) Assemble() model.TelemetryRecord {
	cpuPct, cpuModel, cpuCores, uptime := a.readers.CPU()
	ramTotal, ramUsed, ramPct := a.readers.Memory()
	diskTotal, diskUsed, diskPct := a.readers.Disk()
	readMBs, writeMBs := a.readers.DiskIO()
	internetUp, latency := a.readers.Network()
	localUp, peers := a.readers.LocalSrv()
	lock, errLog := a.readers.ServerLog()
	target := a.readers.Target()
	server := a.readers.Server()

	a.crash.observe(target)

	var appMem *float64
	if target.Running {
		mem := target.MemoryMB
		appMem = &mem
	}

	return model.TelemetryRecord{
		Timestamp: time.Now().UnixMilli(),
		WallID:    a.wallID,
		System: model.SystemMetrics{
			CPUPercent:     cpuPct,
			CPUModel:       cpuModel,
			CPUCores:       cpuCores,
			RAMTotalMB:     ramTotal,
			RAMUsedMB:      ramUsed,
			RAMPercent:     ramPct,
			GPU:            a.readers.GPU(),
			DiskTotalGB:    diskTotal,
			DiskUsedGB:     diskUsed,
			DiskPercent:    diskPct,
			DiskReadMBs:    readMBs,
			DiskWriteMBs:   writeMBs,
			ThermalThrottl: a.readers.Thermal(),
			PendingUpdates: a.readers.Updates(),
			RecentEvents:   a.readers.EventLog(),
			UptimeSeconds:  uptime,
		},
		Network: model.NetworkStats{
			InternetReachable:    internetUp,
			LatencyMs:            latency,
			LocalServerReachable: localUp,
			ConnectedPeers:       peers,
		},
		App: model.AppStats{
			AppRunning:      target.Running,
			ServerRunning:   server.Running,
			ServerVersion:   server.Version,
			AppMemoryMB:     appMem,
			CrashCountToday: a.crash.countToday(),
			Lock:            lock,
			Log:             errLog,
		},
	}
}
