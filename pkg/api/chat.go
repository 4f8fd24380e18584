package api

import (
	"time"

	"github.com/google/uuid"
)

type StartChatRequest struct {
	Email string `json:"email"`
}

type ChatMessage struct {
	Id          uuid.UUID `json:"id"`
	SessionId   uuid.UUID `json:"session_id"`
	SenderType  string    `json:"sender_type"`
	Message     string    `json:"message"`
	ReadByAdmin bool      `json:"read_by_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatSession struct {
	Id        uuid.UUID `json:"id"`
	UserEmail string    `json:"user_email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type StartChatResponse struct {
	Session  ChatSession   `json:"session"`
	Messages []ChatMessage `json:"messages"`
	Resumed  bool          `json:"resumed"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type ChatMessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
}

type AdminChatSession struct {
	ChatSession
	UnreadCount int64 `json:"unread_count"`
}

type AdminChatsResponse struct {
	Sessions []AdminChatSession `json:"sessions"`
}
