package database

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func UpdateHistoryStatus(ctx context.Context, txn *gorm.DB, recordId uuid.UUID, status string) error {
	if err := txn.WithContext(ctx).Model(&HistoryRecord{Id: recordId}).Update("status", status).Error; err != nil {
		slog.Error("error updating history record status", "record_id", recordId, "status", status, "error", err)
		return err
	}
	return nil
}

// CompleteHistoryRecord stores the transcription text produced by a worker and
// flips the record to completed in one update.
func CompleteHistoryRecord(ctx context.Context, txn *gorm.DB, recordId uuid.UUID, text string) error {
	updates := map[string]any{
		"transcription_text": text,
		"status":             HistoryCompleted,
	}
	if err := txn.WithContext(ctx).Model(&HistoryRecord{Id: recordId}).Updates(updates).Error; err != nil {
		slog.Error("error completing history record", "record_id", recordId, "error", err)
		return err
	}
	return nil
}
