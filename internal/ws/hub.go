package ws

import (
	"encoding/json"
	"sync"
	"time"

	"health-concierge/backend/pkg/logger"
)

// Event is a session-scoped notification pushed to connected clients
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Event types
const (
	EventMessage         = "message"
	EventPlanCreated     = "plan_created"
	EventPlanDeactivated = "plan_deactivated"
	EventTasksMarked     = "tasks_marked"
)

// Hub fans session events out to the WebSocket clients subscribed to
// that session. Publishing never blocks: slow clients are dropped.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]struct{}
	log      *logger.Logger
}

// NewHub creates an event hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]map[*client]struct{}),
		log:      log,
	}
}

// Publish sends an event to every client of the event's session
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("Failed to encode event", "type", event.Type, "error", err.Error())
		return
	}

	h.mu.RLock()
	clients := h.sessions[event.SessionID]
	targets := make([]*client, 0, len(clients))
	for c := range clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			h.log.Warn("Dropping slow websocket client", "session_id", event.SessionID)
			h.remove(c)
			c.close()
		}
	}
}

// SubscriberCount returns the number of clients on a session
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// ActiveConnections returns the total number of connected clients
func (h *Hub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, clients := range h.sessions {
		total += len(clients)
	}
	return total
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[c.sessionID]
	if !ok {
		clients = make(map[*client]struct{})
		h.sessions[c.sessionID] = clients
	}
	clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.sessions[c.sessionID]
	if !ok {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.sessions, c.sessionID)
	}
}
