package api

import (
	"time"

	"github.com/google/uuid"
)

type AdminListHistoryParams struct {
	Page      int    `schema:"page"`
	Limit     int    `schema:"limit"`
	UserEmail string `schema:"user_email"`
	Search    string `schema:"search"`
}

type AdminHistoryRecord struct {
	HistoryRecord
	UserEmail string `json:"user_email"`
}

type AdminListHistoryResponse struct {
	Records    []AdminHistoryRecord `json:"records"`
	TotalCount int64                `json:"total_count"`
	TotalPages int64                `json:"total_pages"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
}

type AdminStats struct {
	TotalUsers          int64   `json:"total_users"`
	TotalTranscriptions int64   `json:"total_transcriptions"`
	ActiveChats         int64   `json:"active_chats"`
	TotalDurationSecs   int64   `json:"total_duration_seconds"`
	AvgDurationSecs     float64 `json:"avg_duration_seconds"`
}

type AdminSetting struct {
	SettingKey   string    `json:"setting_key"`
	SettingValue string    `json:"setting_value"`
	SettingType  string    `json:"setting_type"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type UpdateSettingsRequest struct {
	Settings []AdminSetting `json:"settings"`
}

type SystemNotification struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type SaveNotificationRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	Type     string `json:"type"`
	IsActive *bool  `json:"is_active,omitempty"`
}

type Faq struct {
	Id         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Category   string    `json:"category"`
	OrderIndex int       `json:"order_index"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type SaveFaqRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   string `json:"category"`
	OrderIndex int    `json:"order_index"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

type PricingPlan struct {
	Id             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Price          float64   `json:"price"`
	DurationMonths int       `json:"duration_months"`
	Features       []string  `json:"features"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type SavePricingPlanRequest struct {
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	DurationMonths int      `json:"duration_months"`
	Features       []string `json:"features"`
	IsActive       *bool    `json:"is_active,omitempty"`
}
