// Package signaling bridges WebRTC SDP/ICE exchange between the message
// bus and the external media engine's local HTTP control API, maintaining
// one viewer state machine per joined viewer. It consumes a
// running internal/streaming.Supervisor; it never launches or stops the
// media engine process itself.
package signaling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// MediaClient wraps the media engine's local HTTP control surface:
// getMediaList, createOffer, setAnswer, getIceCandidate, addIceCandidate,
// hangup.
type MediaClient struct {
	baseURL string
	http    *http.Client
}

// NewMediaClient builds a client against the engine listening on port.
func NewMediaClient(port int) *MediaClient {
	return &MediaClient{
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// CreateOffer requests a fresh SDP offer for peerID against captureURL
// (e.g. "screen://0"), per-attempt timeout applied via ctx.
func (m *MediaClient) CreateOffer(ctx context.Context, peerID, captureURL string) (model.SDPDescription, error) {
	q := url.Values{"peerid": {peerID}, "url": {captureURL}}
	var out model.SDPDescription
	err := m.getJSON(ctx, "/api/createOffer?"+q.Encode(), &out)
	return out, err
}

// SetAnswer forwards a viewer's SDP answer to the media engine.
func (m *MediaClient) SetAnswer(ctx context.Context, peerID string, desc model.SDPDescription) error {
	return m.postJSON(ctx, "/api/setAnswer?peerid="+url.QueryEscape(peerID), desc)
}

// GetIceCandidates polls the media engine for newly gathered local candidates.
func (m *MediaClient) GetIceCandidates(ctx context.Context, peerID string) ([]model.ICECandidate, error) {
	var out []model.ICECandidate
	err := m.getJSON(ctx, "/api/getIceCandidate?peerid="+url.QueryEscape(peerID), &out)
	return out, err
}

// AddIceCandidate forwards a remote (viewer-originated) candidate.
func (m *MediaClient) AddIceCandidate(ctx context.Context, peerID string, c model.ICECandidate) error {
	return m.postJSON(ctx, "/api/addIceCandidate?peerid="+url.QueryEscape(peerID), c)
}

// Hangup tears down the media engine's session for peerID.
func (m *MediaClient) Hangup(ctx context.Context, peerID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/hangup?peerid="+url.QueryEscape(peerID), nil)
	if err != nil {
		return err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (m *MediaClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("signaling: media engine %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (m *MediaClient) postJSON(ctx context.Context, path string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("signaling: media engine %s: status %d", path, resp.StatusCode)
	}
	return nil
}
