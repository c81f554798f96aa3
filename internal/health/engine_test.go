package health

import (
	"testing"
	"time"

	"github.com/jonvt/watchdog-agent/internal/model"
)

func recordWithDisk(pct float64) *model.TelemetryRecord {
	return &model.TelemetryRecord{
		App: model.AppStats{AppRunning: true, ServerRunning: true},
		System: model.SystemMetrics{
			DiskPercent: pct,
		},
		Network: model.NetworkStats{InternetReachable: true},
	}
}

func TestDiskBoundaries(t *testing.T) {
	e := NewEngine()

	states := e.Evaluate(recordWithDisk(96.9))
	if active(states, model.CondDiskHigh) != true || active(states, model.CondDiskFull) != false {
		t.Fatalf("96.9%% disk should trip DISK_HIGH only, got %+v", states)
	}

	states = e.Evaluate(recordWithDisk(97.0))
	if active(states, model.CondDiskFull) != true {
		t.Fatalf("97.0%% disk should trip DISK_FULL (>= 97), got %+v", states)
	}
	if active(states, model.CondDiskHigh) != false {
		t.Fatalf("97.0%% disk should not also report DISK_HIGH (exclusive ranges), got %+v", states)
	}
}

func TestLatencyNullTreatedAsZero(t *testing.T) {
	e := NewEngine()
	rec := recordWithDisk(0)
	rec.Network.LatencyMs = nil

	states := e.Evaluate(rec)
	if active(states, model.CondLatencyHigh) {
		t.Fatalf("nil latency must not trip LATENCY_HIGH")
	}
}

func TestDebounceRequiresSustainedTrigger(t *testing.T) {
	defs := DefaultDefinitions()
	e := NewEngineWithDefinitions(defs)
	fakeNow := time.Now()
	e.nowFn = func() time.Time { return fakeNow }

	rec := recordWithDisk(0)
	rec.Network.InternetReachable = false

	states := e.Evaluate(rec)
	if active(states, model.CondInternetOffline) {
		t.Fatalf("condition must not be active before its debounce elapses")
	}

	fakeNow = fakeNow.Add(29 * time.Second)
	states = e.Evaluate(rec)
	if active(states, model.CondInternetOffline) {
		t.Fatalf("condition must not be active before the full 30s debounce elapses")
	}

	fakeNow = fakeNow.Add(2 * time.Second)
	states = e.Evaluate(rec)
	if !active(states, model.CondInternetOffline) {
		t.Fatalf("condition must become active once debounce has fully elapsed")
	}
}

func TestModeWarmupBoundary(t *testing.T) {
	if got := DeriveMode(false, 4999*time.Millisecond, nil, nil); got != model.ModeStarting {
		t.Fatalf("expected STARTING at 4.999s uptime, got %s", got)
	}
	if got := DeriveMode(false, 5001*time.Millisecond, nil, nil); got != model.ModeReady {
		t.Fatalf("expected READY at 5.001s uptime with no active conditions, got %s", got)
	}
}

func TestModeShuttingDownTakesPriority(t *testing.T) {
	defs := DefaultDefinitions()
	states := []model.ConditionState{{ID: model.CondVUOSDown, Active: true}}
	if got := DeriveMode(true, time.Hour, states, defs); got != model.ModeShuttingDown {
		t.Fatalf("expected SHUTTING_DOWN regardless of active conditions, got %s", got)
	}
}

func TestModeStability(t *testing.T) {
	defs := DefaultDefinitions()
	states := []model.ConditionState{{ID: model.CondDiskFull, Active: true}}
	m1 := DeriveMode(false, time.Hour, states, defs)
	m2 := DeriveMode(false, time.Hour, states, defs)
	if m1 != m2 {
		t.Fatalf("mode must be stable for identical inputs: %s vs %s", m1, m2)
	}
}

func active(states []model.ConditionState, id model.ConditionID) bool {
	for _, s := range states {
		if s.ID == id {
			return s.Active
		}
	}
	return false
}
