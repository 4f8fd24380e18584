package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Profile struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Email        string `gorm:"uniqueIndex;not null"`
	FullName     string
	PasswordHash string `gorm:"not null"`
	IsAdmin      bool   `gorm:"default:false"`

	CreatedAt time.Time
}

const (
	HistoryProcessing string = "processing"
	HistoryCompleted  string = "completed"
	HistoryFailed     string = "failed"
)

const (
	SourceRecording string = "recording"
	SourceUpload    string = "upload"
	SourceDictation string = "dictation"
	SourceManual    string = "manual"
)

// HistoryRecord is one persisted transcription outcome. Audio metadata is
// nullable: dictation and manual entries have no file, and an upload whose
// storage write failed keeps a null audio URL.
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

// Table names follow the hosted-database era of the product.
func (HistoryRecord) TableName() string {
	return "user_history"
}

func (ChatSession) TableName() string {
	return "live_chats"
}

const (
	ChatActive string = "active"
	ChatClosed string = "closed"
)

const (
	SenderUser  string = "user"
	SenderAdmin string = "admin"
)

type ChatSession struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserEmail string `gorm:"index;not null"`
	Status    string `gorm:"size:20;not null"`

	CreatedAt time.Time

	Messages []ChatMessage `gorm:"foreignKey:SessionId;constraint:OnDelete:CASCADE"`
}

type ChatMessage struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	SessionId uuid.UUID `gorm:"type:uuid;index;not null"`

	SenderType  string `gorm:"size:10;not null"`
	Message     string `gorm:"not null"`
	ReadByAdmin bool   `gorm:"default:false"`

	CreatedAt time.Time
}

type AdminSetting struct {
	SettingKey   string `gorm:"primaryKey"`
	SettingValue string
	SettingType  string `gorm:"size:10;not null;default:string"`

	UpdatedAt time.Time
}

type SystemNotification struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Title    string `gorm:"not null"`
	Message  string
	Type     string `gorm:"size:10;not null;default:info"`
	IsActive bool   `gorm:"default:true"`

	CreatedAt time.Time
}

type Faq struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Question   string `gorm:"not null"`
	Answer     string
	Category   string `gorm:"size:50;not null;default:general"`
	OrderIndex int    `gorm:"default:0"`
	IsActive   bool   `gorm:"default:true"`

	CreatedAt time.Time
}

type PricingPlan struct {
	Id uuid.UUID `gorm:"type:uuid;primaryKey"`

	Name           string         `gorm:"not null"`
	Price          float64        `gorm:"not null;default:0"`
	DurationMonths int            `gorm:"default:1"`
	Features       datatypes.JSON `gorm:"type:jsonb"` // ["feature", ...]
	IsActive       bool           `gorm:"default:true"`

	CreatedAt time.Time
}
