// internal/handler/websocket_types.go
package handler

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"epl2-service/internal/model"
)

// Client types
const (
	ClientTypeEvents = "events"
	ClientTypeDecode = "decode"
)

// Client represents a WebSocket client
type Client struct {
	ID          string          `json:"id"`
	Connection  *websocket.Conn `json:"-"`
	Send        chan []byte     `json:"-"`
	Type        string          `json:"type"` // events, decode
	UserAgent   string          `json:"user_agent"`
	RemoteAddr  string          `json:"remote_addr"`
	ConnectedAt time.Time       `json:"connected_at"`

	closed        chan struct{}
	closeOnce     sync.Once
	mu            sync.RWMutex
	subscriptions map[model.EventType]bool
}

func newClient(conn *websocket.Conn, id, clientType, userAgent, remoteAddr string) *Client {
	return &Client{
		ID:          id,
		Connection:  conn,
		Send:        make(chan []byte, 256),
		Type:        clientType,
		UserAgent:   userAgent,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		closed:      make(chan struct{}),
	}
}

// Wants reports whether the client receives events of type t. A client with
// no subscriptions receives everything.
func (c *Client) Wants(t model.EventType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subscriptions) == 0 || c.subscriptions[t]
}

// Subscribe adds or removes event types
func (c *Client) Subscribe(types []model.EventType, on bool) []model.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscriptions == nil {
		c.subscriptions = make(map[model.EventType]bool)
	}
	for _, t := range types {
		if on {
			c.subscriptions[t] = true
		} else {
			delete(c.subscriptions, t)
		}
	}

	current := make([]model.EventType, 0, len(c.subscriptions))
	for t := range c.subscriptions {
		current = append(current, t)
	}
	return current
}

// queue blocks until msg is accepted or the writer has stopped
func (c *Client) queue(msg []byte) bool {
	select {
	case c.Send <- msg:
		return true
	case <-c.closed:
		return false
	}
}

func (c *Client) markClosed() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ConnectionManager tracks connected clients
type ConnectionManager struct {
	clients map[string]*Client
	mutex   sync.RWMutex
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{clients: make(map[string]*Client)}
}

// Register registers a new client
func (cm *ConnectionManager) Register(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.clients[client.ID] = client
}

// Unregister removes a client and closes its send queue
func (cm *ConnectionManager) Unregister(client *Client) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	if _, ok := cm.clients[client.ID]; ok {
		delete(cm.clients, client.ID)
		close(client.Send)
	}
}

// Broadcast offers msg to every client of clientType accepted by filter.
// Clients with a full queue miss the message.
func (cm *ConnectionManager) Broadcast(clientType string, msg []byte, filter func(*Client) bool) int {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	sent := 0
	for _, client := range cm.clients {
		if client.Type != clientType || (filter != nil && !filter(client)) {
			continue
		}
		select {
		case client.Send <- msg:
			sent++
		default:
		}
	}
	return sent
}

// GetStats returns connection statistics
func (cm *ConnectionManager) GetStats() *ConnectionStats {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	stats := &ConnectionStats{
		TotalConnections: len(cm.clients),
		ByType:           make(map[string]int),
		Clients:          make([]*Client, 0, len(cm.clients)),
	}

	for _, client := range cm.clients {
		stats.ByType[client.Type]++
		stats.Clients = append(stats.Clients, client)
	}

	return stats
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ByType           map[string]int `json:"by_type"`
	Clients          []*Client      `json:"clients"`
}
