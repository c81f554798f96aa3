package localapi

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The server only binds to loopback; cross-origin browser pages on
		// the same host are the expected dashboard clients.
		return true
	},
}

// Hub fans every broadcast payload out to all connected WebSocket observers.
// It is the out-of-band delivery channel for acks, events, telemetry, and
// health alongside their bus publication.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	log        zerolog.Logger
}

// NewHub constructs an empty Hub. Call Run in its own goroutine.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		log:        log,
	}
}

// Run services register/unregister/broadcast until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.register:
			h.mutex.Lock()
			h.clients[conn] = true
			h.mutex.Unlock()
			h.log.Debug().Msg("websocket observer connected")

		case conn := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()
			h.log.Debug().Msg("websocket observer disconnected")

		case message := <-h.broadcast:
			h.mutex.RLock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					h.log.Debug().Err(err).Msg("websocket write failed, dropping observer")
					delete(h.clients, conn)
					conn.Close()
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// Broadcast queues a raw payload for delivery to every observer. Never
// blocks the caller: when the queue is full the payload is dropped, since
// local observers are best-effort mirrors of the bus.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}

// BroadcastJSON marshals v and broadcasts it under a {kind, data} wrapper so
// observers can demultiplex telemetry, health, events, and acks on one socket.
func (h *Hub) BroadcastJSON(kind string, v any) {
	b, err := json.Marshal(map[string]any{"kind": kind, "data": v})
	if err != nil {
		h.log.Error().Err(err).Str("kind", kind).Msg("marshal broadcast payload")
		return
	}
	h.Broadcast(b)
}

// ClientCount reports the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and parks the connection in the hub.
// Observer sockets are write-only from the hub's perspective; inbound frames
// are read and discarded to keep the connection's control frames serviced.
func (h *Hub) HandleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		h.register <- conn
		defer func() {
			h.unregister <- conn
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.log.Debug().Err(err).Msg("websocket read error")
				}
				break
			}
		}
	}
}
