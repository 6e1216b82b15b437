package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"hearth/pkg/domain"
)

// Hub maintains the set of active WebSocket clients. A user may hold several
// connections (phone and laptop); private sends reach all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byUser  map[domain.UserID]map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[domain.UserID]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.byUser[c.userID] == nil {
		h.byUser[c.userID] = make(map[*Client]struct{})
	}
	h.byUser[c.userID][c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		delete(h.byUser[c.userID], c)
		if len(h.byUser[c.userID]) == 0 {
			delete(h.byUser, c.userID)
		}
		close(c.send)
	}
	h.mu.Unlock()
}

// SendToUser delivers a message to every connection of one user.
func (h *Hub) SendToUser(userID domain.UserID, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal private message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.byUser[userID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// Publish routes a message by its channel. It satisfies the dispatcher's
// publisher interface for single-instance deployments without Redis; with
// Redis configured the bridge publisher takes that place and feeds hubs via
// Listen.
func (h *Hub) Publish(_ context.Context, msg Message) error {
	h.route(msg)
	return nil
}

func (h *Hub) route(msg Message) {
	switch msg.Channel {
	case ChannelPrivate:
		userID, err := domain.ParseUserID(msg.UserID)
		if err != nil {
			h.logger.Error("private message with invalid user id", "user_id", msg.UserID)
			return
		}
		h.SendToUser(userID, msg)
	case ChannelBroadcast:
		h.Broadcast(msg)
	default:
		h.logger.Error("unknown realtime channel", "channel", string(msg.Channel))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnectionCount returns how many connections a user currently holds.
func (h *Hub) UserConnectionCount(userID domain.UserID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}
