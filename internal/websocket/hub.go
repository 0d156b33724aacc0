package websocket

import (
	"context"
	"sync"

	"SafeHerAPI/internal/logger"
)

// Broadcast message types pushed to connected clients.
const (
	TypeSession  = "SESSION"
	TypeAlert    = "ALERT"
	TypeContact  = "CONTACT"
	TypeReport   = "REPORT"
	TypeZone     = "ZONE"
	TypeLocation = "LOCATION"
	TypeChannel  = "CHANNEL"
)

// Message defines the generic structure for WS communication
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	log        *logger.Logger
	mu         sync.RWMutex
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// Run starts the hub logic in a goroutine. It listens for context cancellation for clean shutdown.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	h.log.Info("WebSocket Hub started")
	for {
		select {
		case <-ctx.Done():
			h.log.Info("WebSocket Hub shutting down...")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Info("New WS Client connected. Total: %d", len(h.clients))
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to all connected clients. Session snapshots
// and new records all flow through here so every open page stays in
// sync with the single alert session. Once the hub has shut down the
// message is dropped; late broadcasts from in-flight dispatches must
// not block.
func (h *Hub) Broadcast(msgType string, payload interface{}) {
	select {
	case h.broadcast <- Message{Type: msgType, Payload: payload}:
	case <-h.done:
	}
}
