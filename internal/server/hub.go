package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobmcallan/marketview/internal/common"
)

// Event types pushed to dashboard clients.
const (
	EventState = "state"
	EventFrame = "frame"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// Event is one message on the dashboard stream.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans store notifications and rendered frames out to WebSocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *common.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	closed  bool

	// latest per event type, replayed to new clients
	latest   map[string][]byte
	versions map[string]uint64
}

type hubClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewHub creates a hub. checkOrigin may be nil to accept any origin.
func NewHub(logger *common.Logger, checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin,
		},
		logger:  logger,
		clients: make(map[*hubClient]struct{}),
		latest:   make(map[string][]byte),
		versions: make(map[string]uint64),
	}
}

// Broadcast sends an event to every connected client. Clients whose buffer
// is full are disconnected rather than blocking the publisher.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	h.broadcast(eventType, 0, false, data)
}

// BroadcastVersion is Broadcast for events carrying a monotonic version.
// An event older than the last one sent for its type is dropped.
func (h *Hub) BroadcastVersion(eventType string, version uint64, data interface{}) {
	h.broadcast(eventType, version, true, data)
}

func (h *Hub) broadcast(eventType string, version uint64, versioned bool, data interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Warn().Err(err).Str("type", eventType).Msg("Failed to marshal dashboard event")
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	if versioned {
		if last, ok := h.versions[eventType]; ok && version < last {
			h.mu.Unlock()
			h.logger.Debug().Str("type", eventType).Uint64("version", version).Uint64("latest", last).Msg("Out-of-order event dropped")
			return
		}
		h.versions[eventType] = version
	}
	h.latest[eventType] = msg
	var slow []*hubClient
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.removeLocked(c)
	}
	h.mu.Unlock()

	if len(slow) > 0 {
		h.logger.Warn().Int("dropped", len(slow)).Msg("WebSocket clients too slow, disconnected")
	}
}

// ServeWS upgrades an HTTP connection to WebSocket and registers the client.
// The latest state and frame are sent immediately.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	c := &hubClient{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	for _, t := range []string{EventState, EventFrame} {
		if msg, ok := h.latest[t]; ok {
			c.send <- msg
		}
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug().Int("clients", count).Msg("WebSocket client connected")

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	h.removeLocked(c)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug().Int("clients", count).Msg("WebSocket client disconnected")
}

func (h *Hub) removeLocked(c *hubClient) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.once.Do(func() { close(c.send) })
}

// writePump sends messages from the send channel to the WebSocket connection.
func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads messages from the WebSocket connection (mainly to detect close).
func (c *hubClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
