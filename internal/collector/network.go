package collector

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const networkInterval = 10 * time.Second
const networkProbeTimeout = 3 * time.Second

// NetworkCollector times a HEAD request against a well-known internet
// endpoint.
type NetworkCollector struct {
	probeURL string
	client   *http.Client
	log      zerolog.Logger

	mu        sync.RWMutex
	reachable bool
	latencyMs *float64
}

// NewNetworkCollector constructs a NetworkCollector probing probeURL.
func NewNetworkCollector(probeURL string, log zerolog.Logger) *NetworkCollector {
	return &NetworkCollector{
		probeURL: probeURL,
		client:   &http.Client{Timeout: networkProbeTimeout},
		log:      log,
	}
}

// Run samples every 10s until ctx is cancelled.
func (n *NetworkCollector) Run(ctx context.Context) {
	runTicker(ctx, networkInterval, n.sample)
}

func (n *NetworkCollector) sample(ctx context.Context) {
	if n.probeURL == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, n.probeURL, nil)
	if err != nil {
		n.log.Debug().Err(err).Msg("network probe request build failed")
		return
	}

	start := time.Now()
	resp, err := n.client.Do(req)
	elapsed := time.Since(start).Seconds() * 1000

	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		n.reachable = false
		n.latencyMs = nil
		return
	}
	resp.Body.Close()
	n.reachable = true
	latency := elapsed
	n.latencyMs = &latency
}

// Snapshot returns the last cached reachability/latency reading.
func (n *NetworkCollector) Snapshot() (reachable bool, latencyMs *float64) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.reachable, n.latencyMs
}
