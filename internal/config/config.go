// Package config loads the agent's host identity and transport settings
// from environment variables, optionally overlaid by a YAML file. It does
// not load the target application's own business configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// Config is the agent's startup configuration.
type Config struct {
	WallID       string               `yaml:"wallId"`
	StateDir     string               `yaml:"stateDir"`
	LocalAPIPort int                  `yaml:"localApiPort"`
	MediaEngine  MediaEngineConfig    `yaml:"mediaEngine"`
	App          AppConfig            `yaml:"app"`
	Probes       ProbeConfig          `yaml:"probes"`
	Brokers      []model.BrokerConfig `yaml:"brokers"`
}

// MediaEngineConfig describes how to launch and reach the external media engine.
type MediaEngineConfig struct {
	BinaryPath     string `yaml:"binaryPath"`
	STUNServer     string `yaml:"stunServer"`
	PortCandidates []int  `yaml:"portCandidates"`
}

// AppConfig identifies the target application and supporting server this
// agent observes and controls.
type AppConfig struct {
	ProcessName       string   `yaml:"processName"`
	ServerProcessName string   `yaml:"serverProcessName"`
	BinaryPath        string   `yaml:"binaryPath"`
	Args              []string `yaml:"args"`
	WorkDir           string   `yaml:"workDir"`
	LockFilePath      string   `yaml:"lockFilePath"`
	LocalServerURL    string   `yaml:"localServerUrl"`
}

// ProbeConfig holds the endpoints the network collectors test against.
type ProbeConfig struct {
	InternetURL string `yaml:"internetUrl"`
}

func defaults() Config {
	return Config{
		WallID:       "wall-1",
		StateDir:     defaultStateDir(),
		LocalAPIPort: 8787,
		MediaEngine: MediaEngineConfig{
			STUNServer:     "stun:stun.l.google.com:19302",
			PortCandidates: []int{8000, 8001, 8002, 8003, 8080, 8888},
		},
		App: AppConfig{
			LocalServerURL: "http://127.0.0.1:3000/api/peers",
		},
		Probes: ProbeConfig{
			InternetURL: "https://www.gstatic.com/generate_204",
		},
	}
}

func defaultStateDir() string {
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(os.TempDir(), "watchdog-agent")
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil || resolved == "" {
		resolved = exe
	}
	return filepath.Join(filepath.Dir(resolved), "state")
}

// Load builds a Config from an optional YAML file overlay plus environment
// variables, environment taking precedence.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("WATCHDOG_CONFIG_FILE"); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, fmt.Errorf("load config file %q: %w", path, err)
		}
	}

	overlayEnv(&cfg)

	if len(cfg.Brokers) == 0 {
		return Config{}, fmt.Errorf("no brokers configured: set WATCHDOG_BROKER_1_URL or provide a config file")
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("WATCHDOG_WALL_ID"); v != "" {
		cfg.WallID = v
	}
	if v := os.Getenv("WATCHDOG_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("WATCHDOG_LOCAL_API_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LocalAPIPort = n
		}
	}
	if v := os.Getenv("WATCHDOG_MEDIA_ENGINE_BINARY"); v != "" {
		cfg.MediaEngine.BinaryPath = v
	}
	if v := os.Getenv("WATCHDOG_MEDIA_ENGINE_STUN"); v != "" {
		cfg.MediaEngine.STUNServer = v
	}
	if v := os.Getenv("WATCHDOG_APP_PROCESS"); v != "" {
		cfg.App.ProcessName = v
	}
	if v := os.Getenv("WATCHDOG_SERVER_PROCESS"); v != "" {
		cfg.App.ServerProcessName = v
	}
	if v := os.Getenv("WATCHDOG_APP_BINARY"); v != "" {
		cfg.App.BinaryPath = v
	}
	if v := os.Getenv("WATCHDOG_APP_LOCK_FILE"); v != "" {
		cfg.App.LockFilePath = v
	}
	if v := os.Getenv("WATCHDOG_LOCAL_SERVER_URL"); v != "" {
		cfg.App.LocalServerURL = v
	}
	if v := os.Getenv("WATCHDOG_INTERNET_PROBE_URL"); v != "" {
		cfg.Probes.InternetURL = v
	}

	for i := 1; i <= 2; i++ {
		url := os.Getenv(fmt.Sprintf("WATCHDOG_BROKER_%d_URL", i))
		if url == "" {
			continue
		}
		bc := model.BrokerConfig{
			ID:       fmt.Sprintf("broker-%d", i),
			Label:    os.Getenv(fmt.Sprintf("WATCHDOG_BROKER_%d_LABEL", i)),
			ServerURL: url,
			Username: os.Getenv(fmt.Sprintf("WATCHDOG_BROKER_%d_USERNAME", i)),
			Password: os.Getenv(fmt.Sprintf("WATCHDOG_BROKER_%d_PASSWORD", i)),
		}
		if bc.Label == "" {
			bc.Label = bc.ID
		}
		replaceOrAppendBroker(cfg, bc)
	}
}

func replaceOrAppendBroker(cfg *Config, bc model.BrokerConfig) {
	for i, existing := range cfg.Brokers {
		if existing.ID == bc.ID {
			cfg.Brokers[i] = bc
			return
		}
	}
	cfg.Brokers = append(cfg.Brokers, bc)
}
