package api

import "github.com/google/uuid"

type TranscriptionResponse struct {
	Record        HistoryRecord `json:"record"`
	Transcription string        `json:"transcription"`
}

type TranscriptionJobResponse struct {
	Message  string    `json:"message"`
	RecordId uuid.UUID `json:"record_id"`
}
