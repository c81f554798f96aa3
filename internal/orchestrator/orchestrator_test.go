package orchestrator

import (
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/config"
	"github.com/jonvt/watchdog-agent/internal/model"
)

func testOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	cfg := config.Config{
		WallID:       "wall-test",
		LocalAPIPort: 0,
		Brokers: []model.BrokerConfig{
			{ID: "broker-1", Label: "primary", ServerURL: "tcp://127.0.0.1:1883"},
			{ID: "broker-2", Label: "backup", ServerURL: "tcp://127.0.0.1:1884"},
		},
	}
	return New(cfg, zerolog.Nop())
}

func TestDispatchLeaseUpdatesManager(t *testing.T) {
	o := testOrchestrator(t)

	expires := time.Now().Add(time.Minute).UnixMilli()
	o.dispatch("lease", "", []byte(`{"schema":"vu.watchdog.lease.v1","owner":"ops-1","expiresTs":`+
		strconv.FormatInt(expires, 10)+`}`))

	owner, got := o.leases.Current()
	if owner != "ops-1" || got != expires {
		t.Fatalf("lease not applied: owner=%q expires=%d", owner, got)
	}
	if !o.leases.IsActive() {
		t.Fatal("lease should be active")
	}
}

func TestDispatchLeaseRejectsForeignTakeover(t *testing.T) {
	o := testOrchestrator(t)

	expires := time.Now().Add(time.Minute).UnixMilli()
	o.dispatch("lease", "", []byte(`{"owner":"ops-1","expiresTs":`+strconv.FormatInt(expires, 10)+`}`))
	o.dispatch("lease", "", []byte(`{"owner":"ops-2","expiresTs":`+strconv.FormatInt(expires+60_000, 10)+`}`))

	owner, _ := o.leases.Current()
	if owner != "ops-1" {
		t.Fatalf("active lease usurped by ops-2: owner=%q", owner)
	}
}

func TestDispatchLeaseMalformedDropped(t *testing.T) {
	o := testOrchestrator(t)
	o.dispatch("lease", "", []byte(`not-json`))
	o.dispatch("lease", "", nil)
	if o.leases.IsActive() {
		t.Fatal("malformed lease payload must not activate a lease")
	}
}

func TestDispatchCommandWithoutClientIDDropped(t *testing.T) {
	o := testOrchestrator(t)
	// Must not panic or dispatch anywhere.
	o.dispatch("command", "", []byte(`{"type":"REQUEST_TELEMETRY","commandId":"x"}`))
}

func TestTickDerivesModeAndConditions(t *testing.T) {
	o := testOrchestrator(t)

	o.tick()

	mode, ok := o.lastMode.Load().(model.OperationalMode)
	if !ok {
		t.Fatal("tick did not record a mode")
	}
	// Fresh process, no warm-up elapsed in this test only if startedAt is
	// recent; New sets startedAt=now, so the first tick is STARTING.
	if mode != model.ModeStarting {
		t.Fatalf("first tick mode %q, want STARTING", mode)
	}

	snap := o.statusSnapshot()
	if snap.WallID != "wall-test" || snap.Mode != mode {
		t.Fatalf("status snapshot mismatch: %+v", snap)
	}
}

func TestTickModeLeavesStartingAfterWarmup(t *testing.T) {
	o := testOrchestrator(t)
	o.startedAt = time.Now().Add(-10 * time.Second)

	o.tick()

	mode, _ := o.lastMode.Load().(model.OperationalMode)
	if mode == model.ModeStarting {
		t.Fatal("mode still STARTING past the warm-up window")
	}
}
