package websocket

import (
	"fmt"
	"sync"

	"github.com/aidbridge/backend/domain"
	"github.com/aidbridge/backend/utils/log"
)

// Hub tracks connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	log.WithCtx(client.ctx).Debug("New client registered")
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if ok {
		client.Close()
		log.WithCtx(client.ctx).Debug("Client unregistered")
	}
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}

// BroadcastToRole sends message to authenticated clients of the given role.
func (h *Hub) BroadcastToRole(role domain.Role, message []byte) int {
	sent := 0
	for _, client := range h.snapshot() {
		if client.role != role || client.IsClosed() {
			continue
		}
		if client.SendMessage(message) == nil {
			sent++
		}
	}
	return sent
}

// SendToUser sends message to every connection of the given user.
func (h *Hub) SendToUser(uid string, message []byte) error {
	found := false
	for _, client := range h.snapshot() {
		if client.uid == uid && !client.IsClosed() {
			found = true
			client.SendMessage(message)
		}
	}
	if !found {
		return fmt.Errorf("client with user ID %s not found", uid)
	}
	return nil
}

func (h *Hub) IsUserConnected(uid string) bool {
	for _, client := range h.snapshot() {
		if client.uid == uid && !client.IsClosed() {
			return true
		}
	}
	return false
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client.
func (h *Hub) CloseAll() {
	for _, client := range h.snapshot() {
		h.Unregister(client)
	}
}
