// Command watchdog-agent is the per-host operations agent for a display-wall
// endpoint: it samples machine and application health, publishes telemetry
// and a bounded health summary over MQTT, processes remote control commands
// under lease arbitration, and bridges WebRTC signaling for the external
// media engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonvt/watchdog-agent/internal/config"
	"github.com/jonvt/watchdog-agent/internal/logging"
	"github.com/jonvt/watchdog-agent/internal/orchestrator"
	"github.com/jonvt/watchdog-agent/internal/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "print version and exit")
	console := flag.Bool("console", false, "also log to stderr")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "watchdog-agent: %v\n", err)
		return 1
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "watchdog-agent: create state dir: %v\n", err)
		return 1
	}

	log := logging.New(logging.Options{
		FilePath: filepath.Join(cfg.StateDir, "watchdog-agent.log"),
		Console:  *console,
	})
	log.Info().Str("version", version.String()).Str("wallId", cfg.WallID).Msg("watchdog agent starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(cfg, log)
	if err := orch.Run(ctx); err != nil {
		log.Error().Err(err).Msg("fatal startup error")
		fmt.Fprintf(os.Stderr, "watchdog-agent: %v\n", err)
		return 1
	}
	return 0
}
