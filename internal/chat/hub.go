package chat

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	EventMessage = "message"
	EventSession = "session_update"
)

// MessagePayload mirrors a persisted chat message on the wire.
type MessagePayload struct {
	Id         uuid.UUID `json:"id"`
	SenderType string    `json:"sender_type"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Event is the envelope delivered to websocket clients. Message events carry a
// payload; session events carry the new session status.
type Event struct {
	Type      string          `json:"type"`
	SessionId uuid.UUID       `json:"session_id"`
	Message   *MessagePayload `json:"message,omitempty"`
	Status    string          `json:"status,omitempty"`
}

// Hub fans chat events out to the clients watching each session and to the
// admin feed. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	rooms      map[uuid.UUID]map[*Client]struct{}
	adminFeed  map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		adminFeed:  make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if client.admin {
				h.adminFeed[client] = struct{}{}
				continue
			}
			room, ok := h.rooms[client.sessionId]
			if !ok {
				room = make(map[*Client]struct{})
				h.rooms[client.sessionId] = room
			}
			room[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast delivers an event to the session's room and the admin feed.
func (h *Hub) Broadcast(event Event) {
	h.broadcast <- event
}

func (h *Hub) drop(client *Client) {
	if client.admin {
		if _, exists := h.adminFeed[client]; exists {
			delete(h.adminFeed, client)
			close(client.send)
		}
		return
	}

	room, ok := h.rooms[client.sessionId]
	if !ok {
		return
	}
	if _, exists := room[client]; exists {
		delete(room, client)
		close(client.send)
	}
	if len(room) == 0 {
		delete(h.rooms, client.sessionId)
	}
}

func (h *Hub) deliver(event Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode chat event", "error", err)
		return
	}

	for client := range h.rooms[event.SessionId] {
		h.send(client, event, encoded)
	}
	for client := range h.adminFeed {
		h.send(client, event, encoded)
	}
}

// send skips message events the client has already received. Reconnects replay
// recent history, so the same message id can reach the hub more than once.
func (h *Hub) send(client *Client, event Event, encoded []byte) {
	if event.Message != nil {
		if _, dup := client.seen[event.Message.Id]; dup {
			return
		}
		client.seen[event.Message.Id] = struct{}{}
	}

	select {
	case client.send <- encoded:
	default:
		h.drop(client)
	}
}
