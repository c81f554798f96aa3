package command

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jonvt/watchdog-agent/internal/model"
)

const (
	localClientID  = "local-api"
	localCommandTTL = 15000
)

var idSeq atomic.Int64

// NewLocalEnvelope constructs a local-origin CommandEnvelope with a
// synthetic commandId of the form `local-{monotonic}-{random-suffix}` and a
// 15s TTL. Callers pass the result straight into Processor.Handle with the
// local-api client id.
func NewLocalEnvelope(cmdType model.CommandType, args map[string]any) model.CommandEnvelope {
	return model.CommandEnvelope{
		Schema:    model.CommandSchema,
		Ts:        time.Now().UnixMilli(),
		CommandID: newSyntheticID("local"),
		TTLMs:     localCommandTTL,
		Type:      cmdType,
		Args:      args,
	}
}

// LocalClientID identifies commands entered through the local API.
func LocalClientID() string { return localClientID }

func newSyntheticID(prefix string) string {
	n := idSeq.Add(1)
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])
	return prefix + "-" + strconv.FormatInt(n, 10) + "-" + hex.EncodeToString(suffix[:])
}
