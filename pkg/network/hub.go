package network

import (
	"fmt"
	"sync"

	"multiworld/pkg/identity"
	"multiworld/pkg/messages"

	"github.com/gorilla/websocket"
)

// client wraps a WebSocket connection with a write lock, since the
// broadcast paths and the per-connection reply path write concurrently.
type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) send(msg *messages.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}
	return nil
}

// Hub tracks live WebSocket connections by connection id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{
		id:   identity.New(),
		conn: conn,
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	return c
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connID)
}

func (h *Hub) get(connID string) (*client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	return c, ok
}

// Send delivers a message to a single connection. Delivery to a
// closed connection is not an error; the read loop tears it down.
func (h *Hub) Send(connID string, msg *messages.Message) {
	if c, ok := h.get(connID); ok {
		_ = c.send(msg)
	}
}

// SendTo delivers a message to each of the given connections.
func (h *Hub) SendTo(connIDs []string, msg *messages.Message) {
	for _, connID := range connIDs {
		h.Send(connID, msg)
	}
}

// CloseConnections closes the given connections, unblocking their read
// loops.
func (h *Hub) CloseConnections(connIDs []string) {
	for _, connID := range connIDs {
		if c, ok := h.get(connID); ok {
			c.conn.Close()
		}
	}
}
