package chat

import (
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"transcripto-backend/internal/database"
)

// SQLite only supports one writer at a time, so we need a lock
// whenever we write to the database
var dbMutex sync.Mutex

// CreateSession opens a session together with its greeting message, so both
// land or neither does.
func CreateSession(db *gorm.DB, session *database.ChatSession, welcome *database.ChatMessage) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Transaction(func(txn *gorm.DB) error {
		if err := txn.Create(session).Error; err != nil {
			return err
		}
		return txn.Create(welcome).Error
	})
}

func GetSession(db *gorm.DB, sessionId uuid.UUID) (database.ChatSession, error) {
	var session database.ChatSession
	err := db.First(&session, "id = ?", sessionId).Error
	return session, err
}

// FindActiveSessionByEmail returns the most recent active session for the
// email, so a returning visitor lands back in their open conversation.
func FindActiveSessionByEmail(db *gorm.DB, email string) (database.ChatSession, error) {
	var session database.ChatSession
	err := db.Where("user_email = ? AND status = ?", email, database.ChatActive).
		Order("created_at DESC").
		First(&session).Error
	return session, err
}

func GetMessages(db *gorm.DB, sessionId uuid.UUID) ([]database.ChatMessage, error) {
	var messages []database.ChatMessage
	err := db.Where("session_id = ?", sessionId).Order("created_at ASC").Find(&messages).Error
	return messages, err
}

func SaveMessage(db *gorm.DB, message *database.ChatMessage) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Create(message).Error
}

// SessionSummary is a session with its count of user messages the admin has
// not read yet.
type SessionSummary struct {
	database.ChatSession
	UnreadCount int64
}

func GetActiveSessions(db *gorm.DB) ([]SessionSummary, error) {
	var sessions []database.ChatSession
	if err := db.Where("status = ?", database.ChatActive).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		var unread int64
		err := db.Model(&database.ChatMessage{}).
			Where("session_id = ? AND sender_type = ? AND read_by_admin = ?", session.Id, database.SenderUser, false).
			Count(&unread).Error
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, SessionSummary{ChatSession: session, UnreadCount: unread})
	}
	return summaries, nil
}

// MarkSessionRead flags every unread user message in the session as read.
func MarkSessionRead(db *gorm.DB, sessionId uuid.UUID) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Model(&database.ChatMessage{}).
		Where("session_id = ? AND sender_type = ? AND read_by_admin = ?", sessionId, database.SenderUser, false).
		Update("read_by_admin", true).Error
}

// CloseSession is idempotent: closing an already closed session is a no-op.
func CloseSession(db *gorm.DB, sessionId uuid.UUID) error {
	dbMutex.Lock()
	defer dbMutex.Unlock()
	return db.Model(&database.ChatSession{}).
		Where("id = ?", sessionId).
		Update("status", database.ChatClosed).Error
}
