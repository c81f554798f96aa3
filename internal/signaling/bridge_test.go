package signaling

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

type pubRecord struct {
	channel string
	payload []byte
	retain  bool
}

type fakePublisher struct {
	mu      sync.Mutex
	records []pubRecord
}

func (f *fakePublisher) PublishWebRTC(channel string, payload []byte, retain bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, pubRecord{channel: channel, payload: payload, retain: retain})
}

func (f *fakePublisher) byChannel(channel string) []pubRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pubRecord
	for _, r := range f.records {
		if r.channel == channel {
			out = append(out, r)
		}
	}
	return out
}

type nopEmitter struct{}

func (nopEmitter) EmitLifecycle(string, model.EventSeverity, map[string]any) {}

// fakeEngine is an httptest stand-in for the media engine's control API.
type fakeEngine struct {
	setAnswerCalls atomic.Int32
	addICECalls    atomic.Int32
	hangupCalls    atomic.Int32
	srv            *httptest.Server
}

func newFakeEngine(t *testing.T) *fakeEngine {
	t.Helper()
	fe := &fakeEngine{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/createOffer", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.SDPDescription{Type: "offer", SDP: "v=0 fake"})
	})
	mux.HandleFunc("/api/setAnswer", func(w http.ResponseWriter, r *http.Request) {
		fe.setAnswerCalls.Add(1)
	})
	mux.HandleFunc("/api/getIceCandidate", func(w http.ResponseWriter, r *http.Request) {
		// The same candidates come back on every poll; the bridge must
		// publish each exactly once per viewer.
		json.NewEncoder(w).Encode([]model.ICECandidate{
			{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host", SDPMid: "0"},
			{Candidate: "candidate:1 1 udp 1 10.0.0.1 5000 typ host", SDPMid: "0"},
			{Candidate: "candidate:2 1 udp 1 10.0.0.2 5001 typ host", SDPMid: "0"},
		})
	})
	mux.HandleFunc("/api/addIceCandidate", func(w http.ResponseWriter, r *http.Request) {
		fe.addICECalls.Add(1)
	})
	mux.HandleFunc("/api/hangup", func(w http.ResponseWriter, r *http.Request) {
		fe.hangupCalls.Add(1)
	})
	fe.srv = httptest.NewServer(mux)
	t.Cleanup(fe.srv.Close)
	return fe
}

func (fe *fakeEngine) port() int {
	return fe.srv.Listener.Addr().(*net.TCPAddr).Port
}

func runningState(port int) model.StreamingState {
	return model.StreamingState{Status: model.StreamRunning, Port: port}
}

func startedBridge(t *testing.T, fe *fakeEngine) (*Bridge, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	b := New(pub, nopEmitter{}, "stun:stun.example.org:3478", nil, zerolog.Nop())
	if err := b.Start(context.Background(), "wall-1", runningState(fe.port())); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return b, pub
}

func TestStartRequiresRunningStream(t *testing.T) {
	b := New(&fakePublisher{}, nopEmitter{}, "", nil, zerolog.Nop())
	if err := b.Start(context.Background(), "wall-1", model.StreamingState{Status: model.StreamStopped}); err == nil {
		t.Fatal("expected error starting bridge without a running stream")
	}
}

func TestStartPublishesRetainedReady(t *testing.T) {
	fe := newFakeEngine(t)
	b, pub := startedBridge(t, fe)
	defer b.Stop(context.Background())

	offers := pub.byChannel("offer")
	if len(offers) != 1 || !offers[0].retain {
		t.Fatalf("expected one retained ready publish, got %+v", offers)
	}
	var ready model.ReadyMessage
	if err := json.Unmarshal(offers[0].payload, &ready); err != nil {
		t.Fatalf("unmarshal ready: %v", err)
	}
	if ready.Type != "ready" || ready.WallID != "wall-1" || ready.From == "" {
		t.Fatalf("unexpected ready message: %+v", ready)
	}
	if len(ready.ICEServers) == 0 {
		t.Fatal("ready message carries no ICE servers")
	}
}

func TestJoinPublishesTargetedOfferAndDedupsICE(t *testing.T) {
	fe := newFakeEngine(t)
	b, pub := startedBridge(t, fe)
	defer b.Stop(context.Background())

	b.HandleJoin(context.Background(), "v1")

	offers := pub.byChannel("offer")
	if len(offers) != 2 {
		t.Fatalf("expected ready + targeted offer, got %d offer publishes", len(offers))
	}
	var offer model.OfferMessage
	if err := json.Unmarshal(offers[1].payload, &offer); err != nil {
		t.Fatalf("unmarshal offer: %v", err)
	}
	if offer.To != "v1" || offer.Description.SDP == "" {
		t.Fatalf("unexpected targeted offer: %+v", offer)
	}
	if offers[1].retain {
		t.Fatal("targeted offer must not be retained")
	}

	// Let several polling ticks elapse; the duplicated candidate stream must
	// collapse to one publish per unique candidate.
	time.Sleep(600 * time.Millisecond)
	ice := pub.byChannel("ice")
	if len(ice) != 2 {
		t.Fatalf("expected exactly 2 unique ICE publishes, got %d", len(ice))
	}
	seen := map[string]bool{}
	for _, r := range ice {
		var msg model.CandidateMessage
		if err := json.Unmarshal(r.payload, &msg); err != nil {
			t.Fatalf("unmarshal candidate: %v", err)
		}
		if msg.To != "v1" {
			t.Fatalf("candidate targeted at %q, want v1", msg.To)
		}
		if seen[msg.Candidate.Candidate] {
			t.Fatalf("candidate %q published twice", msg.Candidate.Candidate)
		}
		seen[msg.Candidate.Candidate] = true
	}
}

func TestAnswerAppliedOnceThenLatched(t *testing.T) {
	fe := newFakeEngine(t)
	b, _ := startedBridge(t, fe)
	defer b.Stop(context.Background())

	b.HandleJoin(context.Background(), "v1")

	desc := model.SDPDescription{Type: "answer", SDP: "v=0 answer"}
	b.HandleAnswer(context.Background(), "v1", desc)
	b.HandleAnswer(context.Background(), "v1", desc)

	if got := fe.setAnswerCalls.Load(); got != 1 {
		t.Fatalf("setAnswer called %d times, want 1", got)
	}
}

func TestAnswerFromUnknownViewerDropped(t *testing.T) {
	fe := newFakeEngine(t)
	b, _ := startedBridge(t, fe)
	defer b.Stop(context.Background())

	b.HandleAnswer(context.Background(), "ghost", model.SDPDescription{Type: "answer", SDP: "x"})
	if got := fe.setAnswerCalls.Load(); got != 0 {
		t.Fatalf("setAnswer called %d times for unknown viewer, want 0", got)
	}
}

func TestRemoteICEForwarded(t *testing.T) {
	fe := newFakeEngine(t)
	b, _ := startedBridge(t, fe)
	defer b.Stop(context.Background())

	b.HandleJoin(context.Background(), "v1")
	b.HandleRemoteICE(context.Background(), "v1", model.ICECandidate{Candidate: "candidate:9", SDPMid: "0"})
	if got := fe.addICECalls.Load(); got != 1 {
		t.Fatalf("addIceCandidate called %d times, want 1", got)
	}

	b.HandleRemoteICE(context.Background(), "ghost", model.ICECandidate{Candidate: "candidate:9"})
	if got := fe.addICECalls.Load(); got != 1 {
		t.Fatalf("unknown-viewer candidate must be dropped, got %d calls", got)
	}
}

func TestLeaveHangsUpAndStopsPolling(t *testing.T) {
	fe := newFakeEngine(t)
	b, pub := startedBridge(t, fe)
	defer b.Stop(context.Background())

	b.HandleJoin(context.Background(), "v1")
	time.Sleep(350 * time.Millisecond)

	b.HandleLeave(context.Background(), "v1")
	if got := fe.hangupCalls.Load(); got != 1 {
		t.Fatalf("hangup called %d times, want 1", got)
	}

	before := len(pub.byChannel("ice"))
	time.Sleep(400 * time.Millisecond)
	after := len(pub.byChannel("ice"))
	if after != before {
		t.Fatalf("ICE publishes continued after leave: %d -> %d", before, after)
	}
}

func TestStopClearsRetainedOfferAndTearsDownViewers(t *testing.T) {
	fe := newFakeEngine(t)
	b, pub := startedBridge(t, fe)

	b.HandleJoin(context.Background(), "v1")
	b.HandleJoin(context.Background(), "v2")

	b.Stop(context.Background())

	if got := fe.hangupCalls.Load(); got != 2 {
		t.Fatalf("hangup called %d times, want 2", got)
	}
	offers := pub.byChannel("offer")
	last := offers[len(offers)-1]
	if !last.retain || last.payload != nil {
		t.Fatalf("Stop must clear the retained offer with an empty retained publish, got %+v", last)
	}
	if b.ViewerCount() != 0 {
		t.Fatalf("viewers remain after Stop: %d", b.ViewerCount())
	}

	before := len(pub.byChannel("ice"))
	time.Sleep(400 * time.Millisecond)
	after := len(pub.byChannel("ice"))
	if after != before {
		t.Fatalf("ICE polling survived Stop: %d -> %d", before, after)
	}
}

func TestRapidRejoinDebounced(t *testing.T) {
	fe := newFakeEngine(t)
	b, pub := startedBridge(t, fe)
	defer b.Stop(context.Background())

	b.HandleJoin(context.Background(), "v1")
	b.HandleJoin(context.Background(), "v1")

	offers := pub.byChannel("offer")
	if len(offers) != 2 {
		t.Fatalf("rapid rejoin must be ignored: got %d offer publishes, want 2 (ready + one offer)", len(offers))
	}
}
