package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// roleEvent is an internal struct for routing events to role rooms.
// An empty Role means every connected client.
type roleEvent struct {
	Role  string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by staff role
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *roleEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roleEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.role] == nil {
				h.rooms[client.role] = make(map[*Client]bool)
			}
			h.rooms[client.role][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.role]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					// Clean up empty rooms
					if len(clients) == 0 {
						delete(h.rooms, client.role)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			if event.Role == "" {
				for role := range h.rooms {
					h.sendToRoomLocked(role, message)
				}
			} else {
				h.sendToRoomLocked(event.Role, message)
			}
			h.mu.Unlock()
		}
	}
}

// sendToRoomLocked delivers a marshaled message to every client in a room.
// Callers must hold h.mu.
func (h *Hub) sendToRoomLocked(role string, message []byte) {
	for client := range h.rooms[role] {
		select {
		case client.send <- message:
		default:
			// Client's send buffer is full, close and unregister
			close(client.send)
			delete(h.rooms[role], client)
			if len(h.rooms[role]) == 0 {
				delete(h.rooms, role)
			}
		}
	}
}

// BroadcastToRole sends an event to all clients connected with a specific role
func (h *Hub) BroadcastToRole(role string, event Event) {
	h.broadcast <- &roleEvent{Role: role, Event: event}
}

// BroadcastEvent marshals the payload and sends the event to every
// connected client regardless of role. This is the public API for handlers
// to push order events.
func (h *Hub) BroadcastEvent(eventType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: marshal ws payload for %s: %v", eventType, err)
		return
	}
	h.broadcast <- &roleEvent{Event: Event{Type: eventType, Payload: raw}}
}
