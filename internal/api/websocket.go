package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nerrad567/irhvac-core/internal/hvac"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/config"
	"github.com/nerrad567/irhvac-core/internal/infrastructure/logging"
)

// WSMessage is the envelope for all WebSocket messages.
type WSMessage struct {
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WebSocket message types.
const (
	WSTypeEvent = "event"
	WSTypePing  = "ping"
	WSTypePong  = "pong"
)

// EventDeviceState is the event type for device state changes.
const EventDeviceState = "device.state_changed"

// Hub manages all connected WebSocket clients and broadcasts state
// changes to them.
//
// Every connected client receives every device state event; there is
// no per-device subscription filtering. The hub implements
// hvac.Notifier so it can be registered with the command engine's
// notification fan-out.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[string]*WSClient
}

// NewHub creates a WebSocket hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[string]*WSClient),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client to the hub.
func (h *Hub) Register(client *WSClient) {
	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "client_id", client.id, "total", count)
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(client *WSClient) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; ok {
		delete(h.clients, client.id)
		client.closeSend()
	}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client disconnected", "client_id", client.id, "total", count)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NotifyState broadcasts a device state snapshot to every connected
// client. The origin session identifier is ignored: WebSocket clients
// are observers, not command sessions, so they always receive the event.
func (h *Hub) NotifyState(snapshot hvac.Snapshot, _ string) {
	h.Broadcast(WSMessage{
		Type:      WSTypeEvent,
		EventType: EventDeviceState,
		Payload:   snapshot,
	})
}

// Broadcast sends a message to all connected clients.
//
// Clients whose send buffers are full are skipped; a slow consumer
// never blocks the engine.
func (h *Hub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for _, client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.trySend(data)
	}
}

// closeAll disconnects every client.
func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*WSClient, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[string]*WSClient)
	h.mu.Unlock()

	for _, client := range clients {
		client.closeSend()
		//nolint:errcheck // Best-effort close during shutdown
		client.conn.Close()
	}
}

// sendBufferSize is the per-client outbound message buffer.
const sendBufferSize = 32

// WSClient represents a single WebSocket connection.
type WSClient struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	send      chan []byte
	closeOnce sync.Once
}

// trySend queues a message for delivery without blocking.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		// Send on a closed channel during teardown is harmless.
		_ = recover()
	}()

	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("websocket send buffer full, dropping message", "client_id", c.id)
	}
}

// closeSend closes the outbound channel exactly once.
func (c *WSClient) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// readPump reads messages from the client until the connection drops.
//
// Inbound traffic is limited to ping requests; anything else is ignored.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		//nolint:errcheck // Connection teardown
		c.conn.Close()
	}()

	maxSize := int64(c.hub.cfg.MaxMessageSize)
	if maxSize <= 0 {
		maxSize = 4096
	}
	c.conn.SetReadLimit(maxSize)

	pongTimeout := time.Duration(c.hub.cfg.PongTimeout) * time.Second
	if pongTimeout <= 0 {
		pongTimeout = 60 * time.Second
	}
	//nolint:errcheck // Deadline set on a live connection
	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}
		c.handleMessage(data)
	}
}

// handleMessage processes an inbound message from the client.
func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	if msg.Type == WSTypePing {
		reply, err := json.Marshal(WSMessage{Type: WSTypePong})
		if err != nil {
			return
		}
		c.trySend(reply)
	}
}

// writePump delivers queued messages and periodic pings to the client.
func (c *WSClient) writePump() {
	pingInterval := time.Duration(c.hub.cfg.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		//nolint:errcheck // Connection teardown
		c.conn.Close()
	}()

	writeWait := 10 * time.Second

	for {
		select {
		case data, ok := <-c.send:
			//nolint:errcheck // Deadline set on a live connection
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				//nolint:errcheck // Best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Deadline set on a live connection
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// upgrader upgrades HTTP connections to WebSocket.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin filtering is handled by the CORS middleware; the state
		// feed itself is read-only.
		return true
	},
}

// handleWebSocket upgrades the connection and attaches it to the hub.
//
// On connect the client immediately receives a state event for every
// registered device, so it never has to poll for the initial picture.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		id:   uuid.New().String(),
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	s.hub.Register(client)

	go client.writePump()
	go client.readPump()

	// Eager state push for every device, in registration order.
	for _, snapshot := range s.engine.Snapshots() {
		data, err := json.Marshal(WSMessage{
			Type:      WSTypeEvent,
			EventType: EventDeviceState,
			Payload:   snapshot,
		})
		if err != nil {
			continue
		}
		client.trySend(data)
	}
}
