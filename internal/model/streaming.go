package model

import "time"

// BrokerConfig is one entry in the static, ordered list of configured brokers.
type BrokerConfig struct {
	ID       string `json:"id" yaml:"id"`
	Label    string `json:"label" yaml:"label"`
	ServerURL string `json:"serverUrl" yaml:"serverUrl"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
}

// StreamStatus enumerates the lifecycle states of the streaming subprocess.
type StreamStatus string

const (
	StreamStopped StreamStatus = "stopped"
	StreamStarting StreamStatus = "starting"
	StreamRunning StreamStatus = "running"
	StreamError   StreamStatus = "error"
)

// StreamQuality describes the requested capture/encode parameters.
type StreamQuality struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	FPS     int `json:"fps"`
	Bitrate int `json:"bitrate"`
}

// StreamingState is the mutable, singleton record of the media engine subprocess.
type StreamingState struct {
	Status    StreamStatus  `json:"status"`
	PID       int           `json:"pid,omitempty"`
	Port      int           `json:"port,omitempty"`
	StartedAt time.Time     `json:"startedAt,omitempty"`
	ViewerURL string        `json:"viewerUrl,omitempty"`
	Error     string        `json:"error,omitempty"`
	Monitor   int           `json:"monitor"`
	Quality   StreamQuality `json:"quality"`
	Available bool          `json:"available"`
}

// ViewerConnection tracks one active WebRTC viewer's signaling progress.
type ViewerConnection struct {
	ViewerID          string
	PeerID            string
	ConnectedAt       time.Time
	AnswerReceived    bool
	ICECandidatesSent map[string]struct{}
}

// NewViewerConnection creates a fresh per-viewer tracking record.
func NewViewerConnection(viewerID, peerID string) *ViewerConnection {
	return &ViewerConnection{
		ViewerID:          viewerID,
		PeerID:            peerID,
		ConnectedAt:       time.Now(),
		ICECandidatesSent: make(map[string]struct{}),
	}
}
