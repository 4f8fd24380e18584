package api

import (
	"time"

	"github.com/google/uuid"
)

type HistoryRecord struct {
	Id                uuid.UUID `json:"id"`
	UserId            uuid.UUID `json:"user_id"`
	TranscriptionText string    `json:"transcription_text"`
	AudioUrl          *string   `json:"audio_url"`
	FileName          *string   `json:"file_name"`
	FileSize          *int64    `json:"file_size"`
	DurationSeconds   *int64    `json:"duration_seconds"`
	SourceType        string    `json:"source_type"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

type SaveHistoryRequest struct {
	TranscriptionText string  `json:"transcription_text"`
	SourceType        string  `json:"source_type"`
	DurationSeconds   *int64  `json:"duration_seconds,omitempty"`
	FileName          *string `json:"file_name,omitempty"`
}

type ListHistoryParams struct {
	Page       int    `schema:"page"`
	Limit      int    `schema:"limit"`
	Search     string `schema:"search"`
	SourceType string `schema:"source_type"`
	Status     string `schema:"status"`
}

type ListHistoryResponse struct {
	Records    []HistoryRecord `json:"records"`
	TotalCount int64           `json:"total_count"`
	TotalPages int64           `json:"total_pages"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}

type UpdateHistoryRequest struct {
	TranscriptionText string `json:"transcription_text"`
}

type BulkDeleteRequest struct {
	Ids []uuid.UUID `json:"ids"`
}

type BulkDeleteResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

type SourceTypeCount struct {
	SourceType string `json:"source_type"`
	Count      int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type HistoryStats struct {
	TotalCount         int64             `json:"total_count"`
	CompletedCount     int64             `json:"completed_count"`
	TotalDurationSecs  int64             `json:"total_duration_seconds"`
	AvgDurationSecs    float64           `json:"avg_duration_seconds"`
	CountsBySourceType []SourceTypeCount `json:"counts_by_source_type"`
	DailyCounts        []DailyCount      `json:"daily_counts"`
}
