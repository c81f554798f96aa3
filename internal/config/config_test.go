package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFailsWithoutBrokers(t *testing.T) {
	t.Setenv("WATCHDOG_CONFIG_FILE", "")
	t.Setenv("WATCHDOG_BROKER_1_URL", "")
	t.Setenv("WATCHDOG_BROKER_2_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error with no brokers configured")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WATCHDOG_CONFIG_FILE", "")
	t.Setenv("WATCHDOG_WALL_ID", "wall-7")
	t.Setenv("WATCHDOG_BROKER_1_URL", "tcp://broker-a:1883")
	t.Setenv("WATCHDOG_BROKER_1_USERNAME", "agent")
	t.Setenv("WATCHDOG_BROKER_1_PASSWORD", "secret")
	t.Setenv("WATCHDOG_BROKER_2_URL", "tcp://broker-b:1883")
	t.Setenv("WATCHDOG_BROKER_2_LABEL", "backup")
	t.Setenv("WATCHDOG_LOCAL_API_PORT", "9099")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WallID != "wall-7" {
		t.Fatalf("wallId %q", cfg.WallID)
	}
	if cfg.LocalAPIPort != 9099 {
		t.Fatalf("localApiPort %d", cfg.LocalAPIPort)
	}
	if len(cfg.Brokers) != 2 {
		t.Fatalf("brokers %d, want 2", len(cfg.Brokers))
	}
	if cfg.Brokers[0].ServerURL != "tcp://broker-a:1883" || cfg.Brokers[0].Username != "agent" {
		t.Fatalf("broker 1 misparsed: %+v", cfg.Brokers[0])
	}
	if cfg.Brokers[1].Label != "backup" {
		t.Fatalf("broker 2 label %q", cfg.Brokers[1].Label)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchdog.yaml")
	contents := `
wallId: wall-from-file
localApiPort: 7000
brokers:
  - id: broker-1
    label: primary
    serverUrl: tcp://file-broker:1883
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("WATCHDOG_CONFIG_FILE", path)
	t.Setenv("WATCHDOG_WALL_ID", "wall-from-env")
	t.Setenv("WATCHDOG_BROKER_1_URL", "")
	t.Setenv("WATCHDOG_BROKER_2_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WallID != "wall-from-env" {
		t.Fatalf("env must win over file: wallId %q", cfg.WallID)
	}
	if cfg.LocalAPIPort != 7000 {
		t.Fatalf("file value not applied: localApiPort %d", cfg.LocalAPIPort)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0].ServerURL != "tcp://file-broker:1883" {
		t.Fatalf("file brokers misparsed: %+v", cfg.Brokers)
	}
}

func TestDefaultsCarryProbeEndpoints(t *testing.T) {
	cfg := defaults()
	if cfg.Probes.InternetURL == "" {
		t.Fatal("no default internet probe URL")
	}
	if len(cfg.MediaEngine.PortCandidates) == 0 {
		t.Fatal("no default media engine port candidates")
	}
}
