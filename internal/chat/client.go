package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"transcripto-backend/internal/database"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// MessageSender persists a chat message and fans it out. Implemented by the
// chat service; declared here so clients do not depend on the http layer.
type MessageSender interface {
	SendMessage(ctx context.Context, sessionId uuid.UUID, senderType, content string) (database.ChatMessage, error)
}

type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	writeMu   sync.Mutex
	sessionId uuid.UUID
	admin     bool
	send      chan []byte
	seen      map[uuid.UUID]struct{}
}

// NewSessionClient watches a single chat session.
func NewSessionClient(hub *Hub, conn *websocket.Conn, sessionId uuid.UUID) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		sessionId: sessionId,
		send:      make(chan []byte, 32),
		seen:      make(map[uuid.UUID]struct{}),
	}
}

// NewAdminClient receives events for every session.
func NewAdminClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		admin: true,
		send:  make(chan []byte, 32),
		seen:  make(map[uuid.UUID]struct{}),
	}
}

type incomingMessage struct {
	Type      string    `json:"type"`
	SessionId uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

func (c *Client) ReadPump(service MessageSender) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("unexpected websocket close", "error", err)
			}
			return
		}

		var incoming incomingMessage
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError("invalid message payload")
			continue
		}
		if incoming.Type != EventMessage || incoming.Message == "" {
			c.writeError("unsupported message type")
			continue
		}

		sessionId := c.sessionId
		senderType := database.SenderUser
		if c.admin {
			sessionId = incoming.SessionId
			senderType = database.SenderAdmin
		}
		if sessionId == uuid.Nil {
			c.writeError("missing session id")
			continue
		}

		// The service persists and broadcasts, so no direct hub write here.
		if _, err := service.SendMessage(context.Background(), sessionId, senderType, incoming.Message); err != nil {
			slog.Error("failed to send chat message", "session_id", sessionId, "error", err)
			c.writeError("failed to send message")
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write serializes connection writes between the pump and the read side.
func (c *Client) write(messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// writeError reports a bad inbound frame directly on the connection. The send
// channel belongs to the hub, which may already have dropped this client and
// closed it, so the read side never touches it.
func (c *Client) writeError(message string) {
	payload, err := json.Marshal(map[string]string{"type": "error", "message": message})
	if err != nil {
		return
	}
	_ = c.write(websocket.TextMessage, payload)
}
