package broker

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/jonvt/watchdog-agent/internal/model"
)

// MessageHandler is invoked for every inbound message on a subscribed topic,
// with the topic suffix relative to watchdog/{wallId}/ and the raw payload.
type MessageHandler func(suffix string, clientOrChannel string, payload []byte)

// LifecycleSink receives BROKER_SWITCHED and similar broker-level events.
type LifecycleSink interface {
	EmitLifecycle(eventType string, severity model.EventSeverity, details map[string]any)
}

// StatusSummary is published retained on the status topic and as the LWT payload.
type StatusSummary struct {
	WallID    string        `json:"wallId"`
	Status    string        `json:"status"`
	Timestamp int64         `json:"timestamp"`
	Stream    StreamSummary `json:"stream"`
}

// StreamSummary is the stream block nested in the status payload.
type StreamSummary struct {
	Status string `json:"status"`
}

// Client owns a single active MQTT connection, switchable across a static
// list of configured brokers.
type Client struct {
	mu      sync.RWMutex
	wallID  string
	configs []model.BrokerConfig
	active  string // broker id currently connected
	conn    mqtt.Client
	onMsg   MessageHandler
	events  LifecycleSink
	log     zerolog.Logger

	statusFn func() StatusSummary
}

// New constructs a disconnected Client. Call Connect to establish the first connection.
func New(wallID string, configs []model.BrokerConfig, events LifecycleSink, log zerolog.Logger) *Client {
	return &Client{
		wallID:  wallID,
		configs: configs,
		events:  events,
		log:     log,
	}
}

// SetStatusProvider installs the callback used to build the retained status/LWT payload.
func (c *Client) SetStatusProvider(fn func() StatusSummary) {
	c.statusFn = fn
}

func (c *Client) findConfig(id string) (model.BrokerConfig, bool) {
	for _, bc := range c.configs {
		if bc.ID == id {
			return bc, true
		}
	}
	return model.BrokerConfig{}, false
}

// Connect establishes the initial connection to the first configured broker
// and installs the inbound message handler.
func (c *Client) Connect(onMsg MessageHandler) error {
	if len(c.configs) == 0 {
		return fmt.Errorf("broker: no configured brokers")
	}
	c.onMsg = onMsg
	return c.connectTo(c.configs[0].ID)
}

func (c *Client) connectTo(brokerID string) error {
	bc, ok := c.findConfig(brokerID)
	if !ok {
		return fmt.Errorf("broker: unknown broker id %q", brokerID)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(bc.ServerURL).
		SetClientID(fmt.Sprintf("watchdog-%s", c.wallID)).
		SetUsername(bc.Username).
		SetPassword(bc.Password).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(conn mqtt.Client) {
			c.log.Info().Str("broker", bc.ID).Msg("mqtt connected")
			c.onConnect(conn)
			if c.events != nil {
				c.events.EmitLifecycle("BROKER_CONNECTED", model.SeverityInfo, map[string]any{
					"broker": bc.ID,
				})
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.log.Warn().Err(err).Str("broker", bc.ID).Msg("mqtt connection lost, reconnecting")
		})

	lwt := c.statusPayload("offline")
	opts.SetBinaryWill(c.topic(suffixStatus), lwt, 1, true)

	conn := mqtt.NewClient(opts)
	tok := conn.Connect()
	if tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("broker: connect %s: %w", bc.ID, tok.Error())
	}

	c.mu.Lock()
	c.conn = conn
	c.active = bc.ID
	c.mu.Unlock()
	return nil
}

func (c *Client) onConnect(conn mqtt.Client) {
	c.publishRaw(conn, c.topic(suffixStatus), c.statusPayload("online"), 1, true)

	subscribe := func(topic string, qos byte) {
		conn.Subscribe(topic, qos, c.dispatch)
	}
	subscribe(c.commandTopicFilter(), 1)
	subscribe(c.topic(suffixLease), 1)
	subscribe(c.topic(suffixControl), 1)
	for _, ch := range []string{"offer", "answer", "ice", "join", "leave"} {
		subscribe(c.webrtcTopic(ch), 1)
	}
}

func (c *Client) dispatch(_ mqtt.Client, msg mqtt.Message) {
	if c.onMsg == nil {
		return
	}
	suffix, sub := splitTopic(c.wallID, msg.Topic())
	c.onMsg(suffix, sub, msg.Payload())
}

func (c *Client) statusPayload(status string) []byte {
	summary := StatusSummary{WallID: c.wallID, Status: status}
	if c.statusFn != nil && status == "online" {
		summary = c.statusFn()
		summary.Status = status
	}
	summary.Timestamp = time.Now().UnixMilli()
	b, _ := json.Marshal(summary)
	return b
}

// Active returns the id of the currently connected broker, empty before the
// first connect.
func (c *Client) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// SwitchBroker disconnects from the active broker (no synthetic offline
// publish; LWT covers the abrupt case) and connects to the named alternate.
func (c *Client) SwitchBroker(id, reason string) error {
	c.mu.RLock()
	from := c.active
	c.mu.RUnlock()

	if id == from {
		return nil
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn != nil && conn.IsConnected() {
		conn.Disconnect(250)
	}

	if err := c.connectTo(id); err != nil {
		return err
	}

	if c.events != nil {
		c.events.EmitLifecycle("BROKER_SWITCHED", model.SeverityWarn, map[string]any{
			"from": from, "to": id, "reason": reason,
		})
	}
	return nil
}

// Publish sends a payload on the given topic suffix. Publishes while
// disconnected are silent no-ops, preventing tight-loop error fanout.
func (c *Client) Publish(suffix string, payload []byte, qos byte, retain bool) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return
	}
	c.publishRaw(conn, c.topic(suffix), payload, qos, retain)
}

// PublishSub sends a payload on a {suffix}/{sub} topic, e.g. ack/{clientId}.
func (c *Client) PublishSub(suffix, sub string, payload []byte, qos byte, retain bool) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return
	}
	c.publishRaw(conn, c.topicWith(suffix, sub), payload, qos, retain)
}

func (c *Client) publishRaw(conn mqtt.Client, topic string, payload []byte, qos byte, retain bool) {
	conn.Publish(topic, qos, retain, payload)
}

// PublishAck implements command.AckPublisher.
func (c *Client) PublishAck(clientID string, ack model.AckEnvelope) {
	b, err := json.Marshal(ack)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal ack")
		return
	}
	c.PublishSub(suffixAck, clientID, b, 1, false)
}

func splitTopic(wallID, topic string) (suffix, sub string) {
	prefix := "watchdog/" + wallID + "/"
	rest := topic
	if len(topic) > len(prefix) && topic[:len(prefix)] == prefix {
		rest = topic[len(prefix):]
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] == '/' {
			return rest[:i], rest[i+1:]
		}
	}
	return rest, ""
}
