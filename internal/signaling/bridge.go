package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// Publisher is the subset of the broker client the bridge publishes through.
type Publisher interface {
	PublishWebRTC(channel string, payload []byte, retain bool)
}

// LifecycleEmitter is the subset of the event emitter the bridge uses for
// lifecycle markers and "log-and-drop" diagnostics.
type LifecycleEmitter interface {
	EmitLifecycle(eventType string, severity model.EventSeverity, details map[string]any)
}

// Bridge supervises per-viewer WebRTC signaling over the bus, relaying SDP
// and ICE to the media engine's HTTP control API. It treats a running
// streaming.Supervisor as a precondition, never starting or stopping the
// media engine itself.
type Bridge struct {
	mu          sync.Mutex
	wallID      string
	publisherID string
	captureURL  string
	connected   bool

	publisher    Publisher
	events       LifecycleEmitter
	log          zerolog.Logger
	iceProviders []ICEProvider
	stunServer   string

	media   *MediaClient
	viewers map[string]*viewerSession
}

// New constructs a disconnected Bridge.
func New(publisher Publisher, events LifecycleEmitter, stunServer string, providers []ICEProvider, log zerolog.Logger) *Bridge {
	return &Bridge{
		publisher:    publisher,
		events:       events,
		stunServer:   stunServer,
		iceProviders: providers,
		log:          log,
		viewers:      make(map[string]*viewerSession),
	}
}

// Start requires stream.Status == running. It records a publisher id,
// discovers ICE server configuration, and publishes the retained "ready"
// announcement. Topic subscription for join/answer/ice/leave happens once,
// at broker connect time
// (internal/broker.Client.onConnect); Start/Stop instead gate whether this
// bridge honors those already-subscribed messages.
func (b *Bridge) Start(ctx context.Context, wallID string, stream model.StreamingState) error {
	if stream.Status != model.StreamRunning {
		return fmt.Errorf("signaling: bridge start requires a running stream, got %q", stream.Status)
	}

	b.mu.Lock()
	b.wallID = wallID
	b.publisherID = newShortID("pub")
	b.captureURL = fmt.Sprintf("screen://%d", stream.Monitor)
	b.media = NewMediaClient(stream.Port)
	b.connected = true
	b.mu.Unlock()

	servers := DiscoverICEServers(ctx, b.stunServer, b.iceProviders, b.log)

	ready := model.ReadyMessage{Type: "ready", From: b.publisherID, WallID: wallID, ICEServers: servers}
	payload, err := json.Marshal(ready)
	if err != nil {
		return fmt.Errorf("signaling: marshal ready message: %w", err)
	}
	b.publisher.PublishWebRTC("offer", payload, true)

	b.log.Info().Str("publisherId", b.publisherID).Msg("signaling bridge connected")
	return nil
}

// Stop clears the retained offer with an empty retained publish, so no
// stale ready attracts new joiners after a restart, cleans up every viewer,
// and transitions to disconnected. After Stop no ICE-polling timer remains
// live.
func (b *Bridge) Stop(ctx context.Context) {
	b.mu.Lock()
	b.connected = false
	viewers := make([]*viewerSession, 0, len(b.viewers))
	for _, v := range b.viewers {
		viewers = append(viewers, v)
	}
	b.viewers = make(map[string]*viewerSession)
	media := b.media
	b.mu.Unlock()

	for _, v := range viewers {
		teardown(ctx, v, media)
	}

	b.publisher.PublishWebRTC("offer", nil, true)
	b.log.Info().Msg("signaling bridge disconnected")
}

// PublisherID returns the bridge's per-session publisher id, empty while
// disconnected. The orchestrator uses it to discard the bridge's own
// publishes echoed back on the bidirectional webrtc topics.
func (b *Bridge) PublisherID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.connected {
		return ""
	}
	return b.publisherID
}

// ViewerCount reports the number of currently tracked viewers.
func (b *Bridge) ViewerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.viewers)
}

// HandleJoin implements the Join transition: debounces rapid rejoins,
// supersedes any prior session for the same viewer, fetches an offer with
// retry, publishes it, and starts ICE polling.
func (b *Bridge) HandleJoin(ctx context.Context, viewerID string) {
	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		return
	}
	if existing, ok := b.viewers[viewerID]; ok {
		if time.Since(existing.joinedAt) < joinDebounce {
			b.mu.Unlock()
			return
		}
		delete(b.viewers, viewerID)
		media := b.media
		b.mu.Unlock()
		teardown(ctx, existing, media)
		b.mu.Lock()
	}
	media := b.media
	captureURL := b.captureURL
	publisherID := b.publisherID
	b.mu.Unlock()

	peerID := publisherID + "-" + viewerID
	desc, err := createOfferWithRetry(ctx, media, peerID, captureURL)
	if err != nil {
		b.log.Warn().Err(err).Str("viewerId", viewerID).Msg("failed to obtain offer for joining viewer")
		return
	}

	offer := model.OfferMessage{
		Type:        "offer",
		Description: desc,
		ICEServers:  DiscoverICEServers(ctx, b.stunServer, b.iceProviders, b.log),
		To:          viewerID,
		From:        publisherID,
	}
	payload, err := json.Marshal(offer)
	if err != nil {
		b.log.Error().Err(err).Msg("marshal offer message")
		return
	}

	conn := model.NewViewerConnection(viewerID, peerID)
	pollCtx, cancel := context.WithCancel(context.Background())
	sess := &viewerSession{conn: conn, state: ViewerSentOffer, joinedAt: time.Now(), pollStop: cancel}

	b.mu.Lock()
	if !b.connected {
		b.mu.Unlock()
		cancel()
		return
	}
	b.viewers[viewerID] = sess
	b.mu.Unlock()

	b.publisher.PublishWebRTC("offer", payload, false)
	go b.runICEPolling(pollCtx, viewerID, sess, media)
}

// HandleAnswer applies the first answer per viewer only; subsequent answers
// are discarded.
func (b *Bridge) HandleAnswer(ctx context.Context, viewerID string, desc model.SDPDescription) {
	b.mu.Lock()
	sess, ok := b.viewers[viewerID]
	media := b.media
	b.mu.Unlock()
	if !ok {
		b.log.Debug().Str("viewerId", viewerID).Msg("answer from unknown viewer, dropped")
		return
	}

	b.mu.Lock()
	if sess.conn.AnswerReceived {
		b.mu.Unlock()
		return
	}
	sess.conn.AnswerReceived = true
	sess.state = ViewerAnswerApplied
	b.mu.Unlock()

	if err := media.SetAnswer(ctx, sess.conn.PeerID, desc); err != nil {
		b.log.Warn().Err(err).Str("viewerId", viewerID).Msg("failed to forward answer to media engine")
	}
}

// HandleRemoteICE forwards an inbound candidate from viewerID to the media
// engine.
func (b *Bridge) HandleRemoteICE(ctx context.Context, viewerID string, c model.ICECandidate) {
	b.mu.Lock()
	sess, ok := b.viewers[viewerID]
	media := b.media
	b.mu.Unlock()
	if !ok {
		b.log.Debug().Str("viewerId", viewerID).Msg("ICE candidate from unknown viewer, dropped")
		return
	}
	if err := media.AddIceCandidate(ctx, sess.conn.PeerID, c); err != nil {
		b.log.Warn().Err(err).Str("viewerId", viewerID).Msg("failed to forward remote ICE candidate")
	}
}

// HandleLeave clears polling, calls hangup, and drops the viewer.
func (b *Bridge) HandleLeave(ctx context.Context, viewerID string) {
	b.mu.Lock()
	sess, ok := b.viewers[viewerID]
	if ok {
		delete(b.viewers, viewerID)
	}
	media := b.media
	b.mu.Unlock()
	if !ok {
		return
	}
	teardown(ctx, sess, media)
}

func teardown(ctx context.Context, v *viewerSession, media *MediaClient) {
	if v.pollStop != nil {
		v.pollStop()
	}
	if media != nil {
		_ = media.Hangup(ctx, v.conn.PeerID)
	}
}

func (b *Bridge) runICEPolling(ctx context.Context, viewerID string, sess *viewerSession, media *MediaClient) {
	ticker := time.NewTicker(icePollInterval)
	defer ticker.Stop()
	pollCap := time.NewTimer(icePollCap)
	defer pollCap.Stop()

	publisherID := b.publisherID
	for {
		select {
		case <-ctx.Done():
			return
		case <-pollCap.C:
			return
		case <-ticker.C:
			candidates, err := media.GetIceCandidates(ctx, sess.conn.PeerID)
			if err != nil {
				continue
			}
			for _, c := range candidates {
				b.mu.Lock()
				_, already := sess.conn.ICECandidatesSent[c.Candidate]
				if !already {
					sess.conn.ICECandidatesSent[c.Candidate] = struct{}{}
				}
				b.mu.Unlock()
				if already {
					continue
				}
				msg := model.CandidateMessage{Candidate: c, To: viewerID, From: publisherID}
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				b.publisher.PublishWebRTC("ice", payload, false)
			}
		}
	}
}

func createOfferWithRetry(ctx context.Context, media *MediaClient, peerID, captureURL string) (model.SDPDescription, error) {
	var lastErr error
	for attempt := 0; attempt < offerAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return model.SDPDescription{}, ctx.Err()
			case <-time.After(offerBackoff):
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, offerAttemptTimeout)
		desc, err := media.CreateOffer(attemptCtx, peerID, captureURL)
		cancel()
		if err == nil {
			return desc, nil
		}
		lastErr = err
	}
	return model.SDPDescription{}, fmt.Errorf("signaling: createOffer failed after %d attempts: %w", offerAttempts, lastErr)
}

func newShortID(prefix string) string {
	id := uuid.NewString()
	return prefix + "-" + id[:8]
}
