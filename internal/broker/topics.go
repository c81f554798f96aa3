// Package broker wraps a single paho MQTT connection with the agent's
// topic conventions, per-topic QoS/retain rules, and Last-Will semantics.
package broker

import "fmt"

// topic suffixes under watchdog/{wallId}/...
const (
	suffixTelemetry = "telemetry"
	suffixHealth    = "health"
	suffixStatus    = "status"
	suffixConfig    = "config"
	suffixEvent     = "event"
	suffixCommands  = "commands"
	suffixControl   = "control"
	suffixCommand   = "command"
	suffixAck       = "ack"
	suffixLease     = "lease"
	suffixWebRTC    = "webrtc"
	suffixStream    = "stream"
)

func (c *Client) topic(suffix string) string {
	return fmt.Sprintf("watchdog/%s/%s", c.wallID, suffix)
}

func (c *Client) topicWith(suffix, sub string) string {
	return fmt.Sprintf("watchdog/%s/%s/%s", c.wallID, suffix, sub)
}

// commandTopicFilter is the subscription pattern for inbound per-client commands.
func (c *Client) commandTopicFilter() string {
	return c.topicWith(suffixCommand, "+")
}

func (c *Client) ackTopic(clientID string) string {
	return c.topicWith(suffixAck, clientID)
}

func (c *Client) webrtcTopic(channel string) string {
	return c.topicWith(suffixWebRTC, channel)
}
