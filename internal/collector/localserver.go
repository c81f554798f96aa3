package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const localServerInterval = 3 * time.Second
const localServerProbeTimeout = 2 * time.Second

// LocalServerCollector probes a local HTTP endpoint for reachability and
// derives the connected-peer count from the length of its JSON array
// response.
type LocalServerCollector struct {
	probeURL string
	client   *http.Client
	log      zerolog.Logger

	mu        sync.RWMutex
	reachable bool
	peers     int
}

// NewLocalServerCollector constructs a LocalServerCollector probing probeURL.
func NewLocalServerCollector(probeURL string, log zerolog.Logger) *LocalServerCollector {
	return &LocalServerCollector{
		probeURL: probeURL,
		client:   &http.Client{Timeout: localServerProbeTimeout},
		log:      log,
	}
}

// Run samples every 3s until ctx is cancelled.
func (l *LocalServerCollector) Run(ctx context.Context) {
	runTicker(ctx, localServerInterval, l.sample)
}

func (l *LocalServerCollector) sample(ctx context.Context) {
	if l.probeURL == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.probeURL, nil)
	if err != nil {
		l.log.Debug().Err(err).Msg("local server probe request build failed")
		return
	}

	resp, err := l.client.Do(req)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.reachable = false
		l.peers = 0
		return
	}
	defer resp.Body.Close()

	var peers []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&peers); err != nil {
		l.reachable = true
		l.peers = 0
		return
	}
	l.reachable = true
	l.peers = len(peers)
}

// Snapshot returns the last cached reachability/peer-count reading.
func (l *LocalServerCollector) Snapshot() (reachable bool, peers int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reachable, l.peers
}
