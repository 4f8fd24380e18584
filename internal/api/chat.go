package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"transcripto-backend/internal/chat"
	"transcripto-backend/internal/database"
	"transcripto-backend/pkg/api"
)

const welcomeMessage = "Hello! Welcome to our support chat. How can I help you today?"

// ChatService owns chat persistence and fan-out. Every message, whether it
// arrives over HTTP or a websocket, goes through SendMessage so the hub is the
// single source of delivery.
type ChatService struct {
	db        *gorm.DB
	hub       *chat.Hub
	responder *chat.DemoResponder
}

var _ chat.MessageSender = (*ChatService)(nil)

func NewChatService(db *gorm.DB, hub *chat.Hub) *ChatService {
	return &ChatService{db: db, hub: hub}
}

// EnableDemoMode answers every user message with a canned admin reply.
func (c *ChatService) EnableDemoMode() {
	c.responder = chat.NewDemoResponder(c)
}

func (c *ChatService) SendMessage(ctx context.Context, sessionId uuid.UUID, senderType, content string) (database.ChatMessage, error) {
	session, err := chat.GetSession(c.db.WithContext(ctx), sessionId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return database.ChatMessage{}, CodedErrorf(http.StatusNotFound, "chat session not found")
		}
		slog.Error("error getting chat session", "session_id", sessionId, "error", err)
		return database.ChatMessage{}, CodedErrorf(http.StatusInternalServerError, "error retrieving chat session")
	}
	if session.Status != database.ChatActive {
		return database.ChatMessage{}, CodedErrorf(http.StatusConflict, "chat session is closed")
	}

	message := database.ChatMessage{
		Id:         uuid.New(),
		SessionId:  sessionId,
		SenderType: senderType,
		Message:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := chat.SaveMessage(c.db.WithContext(ctx), &message); err != nil {
		slog.Error("error saving chat message", "session_id", sessionId, "error", err)
		return database.ChatMessage{}, CodedErrorf(http.StatusInternalServerError, "failed to send message")
	}

	c.hub.Broadcast(chat.Event{
		Type:      chat.EventMessage,
		SessionId: sessionId,
		Message: &chat.MessagePayload{
			Id:         message.Id,
			SenderType: message.SenderType,
			Message:    message.Message,
			CreatedAt:  message.CreatedAt,
		},
	})

	if senderType == database.SenderUser && c.responder != nil {
		c.responder.OnUserMessage(sessionId)
	}

	return message, nil
}

func toApiChatSession(session database.ChatSession) api.ChatSession {
	return api.ChatSession{
		Id:        session.Id,
		UserEmail: session.UserEmail,
		Status:    session.Status,
		CreatedAt: session.CreatedAt,
	}
}

func toApiChatMessage(message database.ChatMessage) api.ChatMessage {
	return api.ChatMessage{
		Id:          message.Id,
		SessionId:   message.SessionId,
		SenderType:  message.SenderType,
		Message:     message.Message,
		ReadByAdmin: message.ReadByAdmin,
		CreatedAt:   message.CreatedAt,
	}
}

func toApiChatMessages(messages []database.ChatMessage) []api.ChatMessage {
	out := make([]api.ChatMessage, 0, len(messages))
	for _, message := range messages {
		out = append(out, toApiChatMessage(message))
	}
	return out
}

func (s *BackendService) requireChat() (*ChatService, error) {
	if s.chat == nil {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "live chat is currently unavailable")
	}
	return s.chat, nil
}

// StartChat opens a support conversation for an email address. A visitor with
// an active session is dropped back into it instead of getting a new one.
func (s *BackendService) StartChat(r *http.Request) (any, error) {
	chatService, err := s.requireChat()
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.StartChatRequest](r)
	if err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}

	ctx := r.Context()

	existing, err := chat.FindActiveSessionByEmail(chatService.db.WithContext(ctx), req.Email)
	if err == nil {
		messages, err := chat.GetMessages(chatService.db.WithContext(ctx), existing.Id)
		if err != nil {
			slog.Error("error loading chat messages", "session_id", existing.Id, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving chat history")
		}
		return api.StartChatResponse{
			Session:  toApiChatSession(existing),
			Messages: toApiChatMessages(messages),
			Resumed:  true,
		}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Error("error looking up chat session", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to start chat")
	}

	session := database.ChatSession{
		Id:        uuid.New(),
		UserEmail: req.Email,
		Status:    database.ChatActive,
		CreatedAt: time.Now().UTC(),
	}
	welcome := database.ChatMessage{
		Id:         uuid.New(),
		SessionId:  session.Id,
		SenderType: database.SenderAdmin,
		Message:    welcomeMessage,
		CreatedAt:  session.CreatedAt,
	}

	if err := chat.CreateSession(chatService.db.WithContext(ctx), &session, &welcome); err != nil {
		slog.Error("error creating chat session", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to start chat")
	}

	chatService.hub.Broadcast(chat.Event{
		Type:      chat.EventSession,
		SessionId: session.Id,
		Status:    database.ChatActive,
	})

	slog.Info("chat session started", "session_id", session.Id)
	return api.StartChatResponse{
		Session:  toApiChatSession(session),
		Messages: []api.ChatMessage{toApiChatMessage(welcome)},
	}, nil
}

func (s *BackendService) GetChatMessages(r *http.Request) (any, error) {
	chatService, err := s.requireChat()
	if err != nil {
		return nil, err
	}

	sessionId, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	if _, err := chat.GetSession(chatService.db.WithContext(r.Context()), sessionId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "chat session not found")
		}
		slog.Error("error getting chat session", "session_id", sessionId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving chat session")
	}

	messages, err := chat.GetMessages(chatService.db.WithContext(r.Context()), sessionId)
	if err != nil {
		slog.Error("error loading chat messages", "session_id", sessionId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving chat history")
	}

	return api.ChatMessagesResponse{Messages: toApiChatMessages(messages)}, nil
}

func (s *BackendService) sendChatMessage(r *http.Request, senderType string) (any, error) {
	chatService, err := s.requireChat()
	if err != nil {
		return nil, err
	}

	sessionId, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SendMessageRequest](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message is required")
	}

	message, err := chatService.SendMessage(r.Context(), sessionId, senderType, req.Message)
	if err != nil {
		return nil, err
	}

	return toApiChatMessage(message), nil
}

func (s *BackendService) SendChatMessage(r *http.Request) (any, error) {
	return s.sendChatMessage(r, database.SenderUser)
}

func (s *BackendService) AdminSendChatMessage(r *http.Request) (any, error) {
	return s.sendChatMessage(r, database.SenderAdmin)
}

func (s *BackendService) CloseChat(r *http.Request) (any, error) {
	chatService, err := s.requireChat()
	if err != nil {
		return nil, err
	}

	sessionId, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	if err := chat.CloseSession(chatService.db.WithContext(r.Context()), sessionId); err != nil {
		slog.Error("error closing chat session", "session_id", sessionId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to close chat session")
	}

	chatService.hub.Broadcast(chat.Event{
		Type:      chat.EventSession,
		SessionId: sessionId,
		Status:    database.ChatClosed,
	})

	return nil, nil
}

func (s *BackendService) AdminListChats(r *http.Request) (any, error) {
	chatService, err := s.requireChat()
	if err != nil {
		return nil, err
	}

	summaries, err := chat.GetActiveSessions(chatService.db.WithContext(r.Context()))
	if err != nil {
		slog.Error("error listing chat sessions", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving chat sessions")
	}

	sessions := make([]api.AdminChatSession, 0, len(summaries))
	for _, summary := range summaries {
		sessions = append(sessions, api.AdminChatSession{
			ChatSession: toApiChatSession(summary.ChatSession),
			UnreadCount: summary.UnreadCount,
		})
	}

	return api.AdminChatsResponse{Sessions: sessions}, nil
}

func (s *BackendService) AdminMarkChatRead(r *http.Request) (any, error) {
	chatService, err := s.requireChat()
	if err != nil {
		return nil, err
	}

	sessionId, err := URLParamUUID(r, "session_id")
	if err != nil {
		return nil, err
	}

	if err := chat.MarkSessionRead(chatService.db.WithContext(r.Context()), sessionId); err != nil {
		slog.Error("error marking chat session read", "session_id", sessionId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to mark chat session read")
	}

	return nil, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is already CORS-gated, so the upgrade itself accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *BackendService) ChatWebsocket(w http.ResponseWriter, r *http.Request) {
	chatService, err := s.requireChat()
	if err != nil {
		http.Error(w, "live chat is currently unavailable", http.StatusServiceUnavailable)
		return
	}

	sessionId, err := URLParamUUID(r, "session_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := chat.GetSession(chatService.db.WithContext(r.Context()), sessionId); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "chat session not found", http.StatusNotFound)
			return
		}
		slog.Error("error getting chat session", "session_id", sessionId, "error", err)
		http.Error(w, "error retrieving chat session", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := chat.NewSessionClient(chatService.hub, conn, sessionId)
	chatService.hub.Register(client)
	go client.WritePump()
	go client.ReadPump(chatService)
}

func (s *BackendService) AdminChatWebsocket(w http.ResponseWriter, r *http.Request) {
	chatService, err := s.requireChat()
	if err != nil {
		http.Error(w, "live chat is currently unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := chat.NewAdminClient(chatService.hub, conn)
	chatService.hub.Register(client)
	go client.WritePump()
	go client.ReadPump(chatService)
}
