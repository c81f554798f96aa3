package streaming

import (
	"net"
	"strconv"
)

// DefaultPortCandidates is the static list probed to find a free HTTP
// control port for the media engine.
var DefaultPortCandidates = []int{8000, 8001, 8002, 8003, 8080, 8888}

// pickPort probes each candidate with an ephemeral listen attempt and
// returns the first that is currently free.
func pickPort(candidates []int) (int, bool) {
	for _, port := range candidates {
		if portFree(port) {
			return port, true
		}
	}
	return 0, false
}

func portFree(port int) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
