package broker

// PublishWebRTC implements signaling.Publisher: publishes to
// webrtc/{offer,answer,ice,join,leave}. Only the offer channel is retained;
// a nil payload with retain=true clears a stale retained offer.
func (c *Client) PublishWebRTC(channel string, payload []byte, retain bool) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil || !conn.IsConnected() {
		return
	}
	c.publishRaw(conn, c.webrtcTopic(channel), payload, 1, retain)
}
