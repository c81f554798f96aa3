package model

// CommandSchema is the schema tag for CommandEnvelope.
const CommandSchema = "vu.watchdog.command.v1"

// CommandType enumerates the standard command set.
type CommandType string

const (
	CmdRestartVUOS       CommandType = "RESTART_VUOS"
	CmdStartVUOS         CommandType = "START_VUOS"
	CmdStopVUOS          CommandType = "STOP_VUOS"
	CmdQuitWatchdog      CommandType = "QUIT_WATCHDOG"
	CmdSwitchBroker      CommandType = "SWITCH_BROKER"
	CmdRequestTelemetry  CommandType = "REQUEST_TELEMETRY"
	CmdRequestConfig     CommandType = "REQUEST_CONFIG"
	CmdStartStream       CommandType = "START_STREAM"
	CmdStopStream        CommandType = "STOP_STREAM"
	CmdSetStreamQuality  CommandType = "SET_STREAM_QUALITY"
)

// CommandEnvelope is the inbound command wire format.
type CommandEnvelope struct {
	Schema    string         `json:"schema"`
	Ts        int64          `json:"ts"`
	CommandID string         `json:"commandId"`
	TTLMs     int64          `json:"ttlMs"`
	Type      CommandType    `json:"type"`
	Args      map[string]any `json:"args,omitempty"`
}

// LegacyEnvelope is the transitional `control` topic format.
type LegacyEnvelope struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// AckSchema is the schema tag for AckEnvelope.
const AckSchema = "vu.watchdog.ack.v1"

// AckStatus enumerates the terminal/non-terminal ack states.
type AckStatus string

const (
	AckReceived AckStatus = "RECEIVED"
	AckAccepted AckStatus = "ACCEPTED"
	AckApplied  AckStatus = "APPLIED"
	AckRejected AckStatus = "REJECTED"
	AckFailed   AckStatus = "FAILED"
	AckExpired  AckStatus = "EXPIRED"
)

// AckEnvelope is the outbound command-acknowledgement wire format.
type AckEnvelope struct {
	Schema    string         `json:"schema"`
	Ts        int64          `json:"ts"`
	CommandID string         `json:"commandId"`
	Status    AckStatus      `json:"status"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// LeaseSchema is the schema tag for the lease payload.
const LeaseSchema = "vu.watchdog.lease.v1"

// Lease is the single retained (owner, expiry) record arbitrating exclusive control.
type Lease struct {
	Schema    string `json:"schema"`
	Ts        int64  `json:"ts"`
	Owner     string `json:"owner"`
	ExpiresTs int64  `json:"expiresTs"`
}

// IsActive reports whether the lease currently grants its owner exclusive control.
func (l Lease) IsActive(nowMs int64) bool {
	return l.Owner != "" && l.ExpiresTs > nowMs
}
