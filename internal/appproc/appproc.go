// Package appproc supervises the target application ("VUOS") process that
// RESTART_VUOS/START_VUOS/STOP_VUOS act on: exec.Command plus a goroutine
// blocked on Wait updating shared state. The supporting server process is
// observed only (internal/collector), never started or stopped by this
// agent.
package appproc

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/procsup"
)

// Config describes how to launch the target application.
type Config struct {
	BinaryPath string
	Args       []string
	WorkDir    string
}

// Supervisor owns the single target-application subprocess.
type Supervisor struct {
	mu  sync.Mutex
	cfg Config
	log zerolog.Logger

	cmd     *exec.Cmd
	exited  chan struct{}
	running bool
}

// New constructs a Supervisor for cfg. An empty BinaryPath makes every
// operation a no-op success, which keeps REQUEST_*-only deployments (no
// configured target app) from failing commands they never registered.
func New(cfg Config, log zerolog.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, log: log}
}

// Running reports whether the supervised process is currently alive.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the target application if it is not already running.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *Supervisor) startLocked(ctx context.Context) error {
	if s.cfg.BinaryPath == "" {
		return nil
	}
	if s.running {
		return nil
	}

	cmd := exec.CommandContext(context.Background(), s.cfg.BinaryPath, s.cfg.Args...)
	cmd.Dir = s.cfg.WorkDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	procsup.Detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("appproc: start %s: %w", s.cfg.BinaryPath, err)
	}

	s.cmd = cmd
	s.exited = make(chan struct{})
	s.running = true

	exited := s.exited
	go func() {
		err := procsup.Wait(cmd)
		if err != nil {
			s.log.Warn().Err(err).Msg("target application process exited with error")
		} else {
			s.log.Info().Msg("target application process exited")
		}
		s.mu.Lock()
		s.running = false
		s.cmd = nil
		s.mu.Unlock()
		close(exited)
	}()

	s.log.Info().Str("binary", s.cfg.BinaryPath).Int("pid", cmd.Process.Pid).Msg("target application started")
	return nil
}

// Stop terminates the target application gracefully (terminate + 5s grace +
// force kill), blocking until it has exited.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running || s.cmd == nil {
		s.mu.Unlock()
		return nil
	}
	proc := s.cmd.Process
	exited := s.exited
	s.mu.Unlock()

	procsup.Terminate(ctx, proc, exited)
	<-exited
	return nil
}

// Restart stops the target application (if running) and starts it again.
func (s *Supervisor) Restart(ctx context.Context) error {
	if err := s.Stop(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}
