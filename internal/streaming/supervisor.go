// Package streaming supervises the external WebRTC media engine subprocess.
// It owns process start/stop, the
// port-conflict dance, and the retained StreamingState the orchestrator
// publishes; it does not speak the media engine's HTTP signaling API itself
// (that belongs to internal/signaling, which treats a running Supervisor as
// a precondition for bridging viewers).
package streaming

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
	"github.com/jonvt/watchdog-agent/internal/procsup"
)

const (
	portReleaseWait   = 1500 * time.Millisecond
	healthPollTimeout = 10 * time.Second
	healthPollEvery   = 200 * time.Millisecond
)

// Config describes how to launch the media engine.
type Config struct {
	BinaryPath      string
	STUNServer      string
	StreamName      string
	TURNBindAddr    string // optional
	PortCandidates  []int
	ViewerURLFormat string // fmt string taking the bound port, e.g. "http://localhost:%d/view"
}

// StateListener is notified on every StreamingState transition so the
// orchestrator can republish the retained stream/status payload.
type StateListener func(model.StreamingState)

// Supervisor owns the single media-engine subprocess and its StreamingState.
type Supervisor struct {
	mu  sync.Mutex
	cfg Config
	log zerolog.Logger

	state  model.StreamingState
	cmd    *exec.Cmd
	exited chan struct{}

	onState StateListener
}

// New constructs a stopped Supervisor.
func New(cfg Config, log zerolog.Logger) *Supervisor {
	if len(cfg.PortCandidates) == 0 {
		cfg.PortCandidates = DefaultPortCandidates
	}
	return &Supervisor{
		cfg:   cfg,
		log:   log,
		state: model.StreamingState{Status: model.StreamStopped, Available: cfg.BinaryPath != ""},
	}
}

// OnStateChange installs the retained-publish hook.
func (s *Supervisor) OnStateChange(fn StateListener) {
	s.mu.Lock()
	s.onState = fn
	s.mu.Unlock()
}

// State returns the current StreamingState snapshot.
func (s *Supervisor) State() model.StreamingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) setState(st model.StreamingState) {
	st.Available = s.cfg.BinaryPath != ""
	s.state = st
	listener := s.onState
	if listener != nil {
		go listener(st)
	}
}

// Start stops any pre-existing instance, waits for its port to release,
// launches the media engine, and polls its HTTP control port until healthy
// or a 10s timeout.
func (s *Supervisor) Start(ctx context.Context, monitor int, quality model.StreamQuality) (model.StreamingState, error) {
	s.mu.Lock()
	alreadyRunning := s.cmd != nil
	s.mu.Unlock()
	if alreadyRunning {
		if err := s.Stop(ctx); err != nil {
			return model.StreamingState{}, err
		}
		time.Sleep(portReleaseWait)
	}

	if s.cfg.BinaryPath == "" {
		return model.StreamingState{}, fmt.Errorf("streaming: no media engine binary configured")
	}

	port, ok := pickPort(s.cfg.PortCandidates)
	if !ok {
		return model.StreamingState{}, fmt.Errorf("streaming: no free port among %v", s.cfg.PortCandidates)
	}

	s.mu.Lock()
	s.setState(model.StreamingState{Status: model.StreamStarting, Monitor: monitor, Quality: quality})
	s.mu.Unlock()

	args := []string{
		"--listen-address", fmt.Sprintf("127.0.0.1:%d", port),
		"--stun-server", s.cfg.STUNServer,
		"--stream-name", s.cfg.StreamName,
		"--capture-url", fmt.Sprintf("screen://%d", monitor),
	}
	if s.cfg.TURNBindAddr != "" {
		args = append(args, "--turn-bind", s.cfg.TURNBindAddr)
	}

	cmd := exec.Command(s.cfg.BinaryPath, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	procsup.Detach(cmd)

	if err := cmd.Start(); err != nil {
		s.mu.Lock()
		s.setState(model.StreamingState{Status: model.StreamError, Error: err.Error()})
		s.mu.Unlock()
		return model.StreamingState{}, fmt.Errorf("streaming: start media engine: %w", err)
	}

	if !waitHealthy(ctx, port, healthPollTimeout) {
		_ = cmd.Process.Kill()
		err := fmt.Errorf("streaming: media engine did not become healthy on port %d within %s", port, healthPollTimeout)
		s.mu.Lock()
		s.setState(model.StreamingState{Status: model.StreamError, Error: err.Error()})
		s.mu.Unlock()
		return model.StreamingState{}, err
	}

	viewerURL := fmt.Sprintf("http://localhost:%d/view", port)
	if s.cfg.ViewerURLFormat != "" {
		viewerURL = fmt.Sprintf(s.cfg.ViewerURLFormat, port)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.exited = make(chan struct{})
	exited := s.exited
	running := model.StreamingState{
		Status:    model.StreamRunning,
		PID:       cmd.Process.Pid,
		Port:      port,
		StartedAt: time.Now(),
		ViewerURL: viewerURL,
		Monitor:   monitor,
		Quality:   quality,
	}
	s.setState(running)
	s.mu.Unlock()

	go s.watch(cmd, exited)

	s.log.Info().Int("pid", cmd.Process.Pid).Int("port", port).Msg("media engine started")
	return running, nil
}

func (s *Supervisor) watch(cmd *exec.Cmd, exited chan struct{}) {
	err := procsup.Wait(cmd)
	if err != nil {
		s.log.Warn().Err(err).Msg("media engine process exited")
	} else {
		s.log.Info().Msg("media engine process exited")
	}
	s.mu.Lock()
	s.cmd = nil
	s.setState(model.StreamingState{Status: model.StreamStopped})
	s.mu.Unlock()
	close(exited)
}

// Stop terminates the media engine (terminate + 5s grace + force kill) and
// reverts to stopped, clearing transient fields.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cmd == nil {
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

// SetQuality applies a new quality by stopping and restarting the media
// engine. The restart is observable (viewers disconnect); callers must only
// ack once the new process is healthy, which Start enforces via waitHealthy.
func (s *Supervisor) SetQuality(ctx context.Context, quality model.StreamQuality) (model.StreamingState, error) {
	s.mu.Lock()
	monitor := s.state.Monitor
	s.mu.Unlock()
	return s.Start(ctx, monitor, quality)
}

func waitHealthy(ctx context.Context, port int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	url := "http://127.0.0.1:" + strconv.Itoa(port) + "/api/getMediaList"
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err == nil {
			resp, err := client.Do(req)
			if err == nil {
				resp.Body.Close()
				return true
			}
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(healthPollEvery):
		}
	}
	return false
}
