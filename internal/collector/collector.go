// Package collector runs independent background samplers for system,
// network, and application metrics, each at its own cadence.
// Every collector writes its result to a mutable cached struct guarded by a
// mutex so the assembler always observes a coherent snapshot without
// blocking on I/O; a failed probe leaves previously cached values intact.
package collector

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry owns every collector goroutine and exposes one read accessor per
// collector, whose cached values the Assembler reads on its tick.
type Registry struct {
	log zerolog.Logger

	cpu       *CPUCollector
	mem       *MemoryCollector
	gpu       *GPUCollector
	disk      *DiskCollector
	diskIO    *DiskIOCollector
	thermal   *ThermalCollector
	updates   *UpdatesCollector
	eventLog  *EventLogCollector
	process   *ProcessCollector
	serverLog *ServerLogCollector
	network   *NetworkCollector
	localSrv  *LocalServerCollector

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Deps bundles the external collaborators every collector may consult.
// Concrete platform probe implementations are injected so the collector
// loop itself (cadence, caching, failure isolation) stays testable.
type Deps struct {
	TargetProcessName string
	ServerProcessName string
	LockFilePath      string
	InternetProbeURL  string
	LocalServerURL    string
	GPUProbe          GPUProbe
}

// NewRegistry builds a Registry with every collector wired to its cadence,
// but does not start any goroutines until Start is called.
func NewRegistry(deps Deps, log zerolog.Logger) *Registry {
	return &Registry{
		log:       log,
		cpu:       NewCPUCollector(log),
		mem:       NewMemoryCollector(log),
		gpu:       NewGPUCollector(deps.GPUProbe, log),
		disk:      NewDiskCollector(log),
		diskIO:    NewDiskIOCollector(log),
		thermal:   NewThermalCollector(log),
		updates:   NewUpdatesCollector(log),
		eventLog:  NewEventLogCollector(log),
		process:   NewProcessCollector(deps.TargetProcessName, deps.ServerProcessName, log),
		serverLog: NewServerLogCollector(deps.LockFilePath, log),
		network:   NewNetworkCollector(deps.InternetProbeURL, log),
		localSrv:  NewLocalServerCollector(deps.LocalServerURL, log),
	}
}

// Start launches every collector's background sampling loop. ctx cancellation
// (or calling Stop) terminates all of them.
func (r *Registry) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	loops := []func(context.Context){
		r.cpu.Run,
		r.mem.Run,
		r.gpu.Run,
		r.disk.Run,
		r.diskIO.Run,
		r.thermal.Run,
		r.updates.Run,
		r.eventLog.Run,
		r.process.Run,
		r.serverLog.Run,
		r.network.Run,
		r.localSrv.Run,
	}
	for _, loop := range loops {
		r.wg.Add(1)
		go func(fn func(context.Context)) {
			defer r.wg.Done()
			fn(ctx)
		}(loop)
	}
}

// CPU returns the CPU collector for read access.
func (r *Registry) CPU() *CPUCollector { return r.cpu }

// Memory returns the memory collector for read access.
func (r *Registry) Memory() *MemoryCollector { return r.mem }

// GPU returns the GPU collector for read access.
func (r *Registry) GPU() *GPUCollector { return r.gpu }

// Disk returns the disk usage collector for read access.
func (r *Registry) Disk() *DiskCollector { return r.disk }

// DiskIO returns the disk I/O collector for read access.
func (r *Registry) DiskIO() *DiskIOCollector { return r.diskIO }

// Thermal returns the thermal collector for read access.
func (r *Registry) Thermal() *ThermalCollector { return r.thermal }

// Updates returns the pending-updates collector for read access.
func (r *Registry) Updates() *UpdatesCollector { return r.updates }

// EventLog returns the system event-log collector for read access.
func (r *Registry) EventLog() *EventLogCollector { return r.eventLog }

// Process returns the process collector for read access.
func (r *Registry) Process() *ProcessCollector { return r.process }

// ServerLog returns the lock-file/error-log collector for read access.
func (r *Registry) ServerLog() *ServerLogCollector { return r.serverLog }

// Network returns the internet-reachability collector for read access.
func (r *Registry) Network() *NetworkCollector { return r.network }

// LocalServer returns the local-server-reachability collector for read access.
func (r *Registry) LocalServer() *LocalServerCollector { return r.localSrv }

// Stop cancels every collector loop and waits for them to exit.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// runTicker is the shared cadence loop every collector uses: sample once
// immediately, then on each tick, until ctx is cancelled. Sample functions
// swallow their own errors and leave the previous cached value intact.
func runTicker(ctx context.Context, interval time.Duration, sample func(context.Context)) {
	sample(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample(ctx)
		}
	}
}
