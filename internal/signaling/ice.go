package signaling

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	natlib "github.com/libp2p/go-nat"
	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

const turnFetchTimeout = 5 * time.Second

// publicRelayFallback is embedded when every configured TURN credential
// provider fails.
var publicRelayFallback = model.ICEServer{URLs: []string{"stun:stun.l.google.com:19302"}}

// ICEProvider is one short-lived TURN credential source.
type ICEProvider struct {
	Name string
	URL  string // returns {urls, username, credential} JSON
}

// DiscoverICEServers fetches short-lived TURN credentials from primary then
// fallback, each bounded by a 5s timeout, falling back to a public STUN
// relay on total failure. The STUN server already configured
// for the media engine itself is always included first.
func DiscoverICEServers(ctx context.Context, stunServer string, providers []ICEProvider, log zerolog.Logger) []model.ICEServer {
	servers := []model.ICEServer{}
	if stunServer != "" {
		servers = append(servers, model.ICEServer{URLs: []string{stunServer}})
	}

	for _, p := range providers {
		turn, err := fetchTURNCredentials(ctx, p)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name).Msg("TURN credential fetch failed")
			continue
		}
		servers = append(servers, turn)
		annotateExternalIP(ctx, log)
		return servers
	}

	log.Warn().Msg("all TURN credential providers failed, falling back to public relay")
	servers = append(servers, publicRelayFallback)
	return servers
}

func fetchTURNCredentials(ctx context.Context, p ICEProvider) (model.ICEServer, error) {
	ctx, cancel := context.WithTimeout(ctx, turnFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return model.ICEServer{}, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return model.ICEServer{}, err
	}
	defer resp.Body.Close()

	var out model.ICEServer
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.ICEServer{}, err
	}
	return out, nil
}

// annotateExternalIP best-effort discovers the host's external IP via
// UPnP/NAT-PMP for diagnostic logging alongside the TURN relay choice. This
// agent never requests a port mapping here: the whole point of bridging
// signaling over the bus is that viewers attach without port forwarding.
func annotateExternalIP(ctx context.Context, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	n, err := natlib.DiscoverGateway(ctx)
	if err != nil || n == nil {
		return
	}
	ip, err := n.GetExternalAddress()
	if err != nil {
		return
	}
	log.Debug().Str("externalIp", ip.String()).Msg("discovered external IP via NAT gateway")
}
