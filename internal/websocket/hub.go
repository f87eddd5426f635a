package websocket

import (
	"encoding/json"
	"sync"
)

// StatusUpdate is pushed to the student and tutor of an application when
// its lifecycle status changes.
type StatusUpdate struct {
	ApplicationID string `json:"application_id"`
	TuitionID     string `json:"tuition_id"`
	Status        string `json:"status"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(email string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[email] == nil {
		h.clients[email] = make(map[*Client]struct{})
	}
	h.clients[email][client] = struct{}{}
}

func (h *Hub) Unregister(email string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[email] == nil {
		return
	}
	delete(h.clients[email], client)
	if len(h.clients[email]) == 0 {
		delete(h.clients, email)
	}
}

func (h *Hub) BroadcastStatus(email string, update StatusUpdate) {
	payload, _ := json.Marshal(update)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[email] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
