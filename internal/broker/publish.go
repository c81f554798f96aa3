package broker

import (
	"encoding/json"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// PublishTelemetry sends the 2s telemetry tick: QoS 0, not retained.
func (c *Client) PublishTelemetry(rec model.TelemetryRecord) {
	c.publishJSON(suffixTelemetry, rec, 0, false)
}

// PublishHealth sends the per-tick health summary: QoS 1, retained.
func (c *Client) PublishHealth(payload model.HealthPayload) {
	c.publishJSON(suffixHealth, payload, 1, true)
}

// PublishConfig sends the periodic retained config snapshot: QoS 0, retained.
func (c *Client) PublishConfig(cfg any) {
	c.publishJSON(suffixConfig, cfg, 0, true)
}

// PublishEvent sends one event record: QoS 1, not retained. The event.Sink
// handed to the emitter is the orchestrator's fan-out, which calls this.
func (c *Client) PublishEvent(rec model.EventRecord) {
	c.publishJSON(suffixEvent, rec, 1, false)
}

// PublishCommandActivity mirrors realtime command activity on the outbound
// commands topic: QoS 0, not retained.
func (c *Client) PublishCommandActivity(rec model.EventRecord) {
	c.publishJSON(suffixCommands, rec, 0, false)
}

// PublishStreamStatus sends the retained streaming subsystem status.
func (c *Client) PublishStreamStatus(state model.StreamingState) {
	b, err := json.Marshal(state)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal stream status")
		return
	}
	c.PublishSub(suffixStream, "status", b, 1, true)
}

func (c *Client) publishJSON(suffix string, v any, qos byte, retain bool) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Error().Err(err).Str("topic", suffix).Msg("marshal publish payload")
		return
	}
	c.Publish(suffix, b, qos, retain)
}
