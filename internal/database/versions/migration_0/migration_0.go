package migration_0

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Initial schema: auth profiles, transcription history, and the live chat
// table pair. Site configuration tables were added in migration_1.

type Profile struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email        string `gorm:"uniqueIndex;not null"`
	FullName     string
	PasswordHash string `gorm:"not null"`
	IsAdmin      bool   `gorm:"default:false"`

	CreatedAt time.Time
}

type HistoryRecord struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserId uuid.UUID `gorm:"type:uuid;index;not null"`
	User   *Profile  `gorm:"foreignKey:UserId"`

	TranscriptionText string
	AudioUrl          sql.NullString
	FileName          sql.NullString
	FileSize          sql.NullInt64
	DurationSeconds   sql.NullInt64

	SourceType string `gorm:"size:20;not null;default:recording"`
	Status     string `gorm:"size:20;not null"`

	CreatedAt time.Time `gorm:"index"`
}

type ChatSession struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserEmail string `gorm:"index;not null"`
	Status    string `gorm:"size:20;not null"`

	CreatedAt time.Time
}

type ChatMessage struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	SessionId uuid.UUID `gorm:"type:uuid;index;not null"`
	Session   *ChatSession `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`

	SenderType  string `gorm:"size:10;not null"`
	Message     string `gorm:"not null"`
	ReadByAdmin bool   `gorm:"default:false"`

	CreatedAt time.Time
}

func (HistoryRecord) TableName() string {
	return "user_history"
}

func (ChatSession) TableName() string {
	return "live_chats"
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Profile{}, &HistoryRecord{}, &ChatSession{}, &ChatMessage{}); err != nil {
		return fmt.Errorf("error creating initial tables: %w", err)
	}
	return nil
}
