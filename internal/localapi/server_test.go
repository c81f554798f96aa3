package localapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

func testServer(t *testing.T) (*Server, *capturedSubmits) {
	t.Helper()
	caps := &capturedSubmits{}
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	status := func() StatusSnapshot {
		return StatusSnapshot{WallID: "wall-1", Mode: model.ModeReady}
	}
	return New(0, hub, caps.submit, status, zerolog.Nop()), caps
}

type capturedSubmits struct {
	mu   sync.Mutex
	envs []model.CommandEnvelope
	done chan struct{}
}

func (c *capturedSubmits) submit(_ context.Context, env model.CommandEnvelope) {
	c.mu.Lock()
	c.envs = append(c.envs, env)
	done := c.done
	c.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (c *capturedSubmits) expect(t *testing.T) model.CommandEnvelope {
	t.Helper()
	c.mu.Lock()
	done := make(chan struct{})
	if len(c.envs) > 0 {
		env := c.envs[0]
		c.mu.Unlock()
		return env
	}
	c.done = done
	c.mu.Unlock()
	<-done
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.envs[0]
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz status %d, want 200", w.Code)
	}
}

func TestStatusSnapshotServed(t *testing.T) {
	srv, _ := testServer(t)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"mode":"READY"`) {
		t.Fatalf("status body missing mode: %s", w.Body.String())
	}
}

func TestCommandSubmissionBuildsLocalEnvelope(t *testing.T) {
	srv, caps := testServer(t)
	body := strings.NewReader(`{"type":"REQUEST_TELEMETRY"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/command", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("command status %d, want 202: %s", w.Code, w.Body.String())
	}

	env := caps.expect(t)
	if env.Type != model.CmdRequestTelemetry {
		t.Fatalf("submitted type %q", env.Type)
	}
	if !strings.HasPrefix(env.CommandID, "local-") {
		t.Fatalf("local command id %q lacks local- prefix", env.CommandID)
	}
	if env.TTLMs != 15_000 {
		t.Fatalf("local command TTL %d, want 15000", env.TTLMs)
	}
}

func TestCommandRejectsMissingType(t *testing.T) {
	srv, caps := testServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}
	caps.mu.Lock()
	defer caps.mu.Unlock()
	if len(caps.envs) != 0 {
		t.Fatalf("invalid request still submitted a command: %+v", caps.envs)
	}
}
