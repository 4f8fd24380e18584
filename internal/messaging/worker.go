package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"transcripto-backend/internal/database"
	"transcripto-backend/internal/storage"
	"transcripto-backend/internal/transcriber"
)

// TranscriptionWorker consumes transcription tasks, pulls the audio from the
// object store, runs it through the transcriber, and writes the result back
// onto the history record.
type TranscriptionWorker struct {
	DB          *gorm.DB
	Store       storage.ObjectStore
	Transcriber transcriber.Transcriber

	wg sync.WaitGroup
}

func NewTranscriptionWorker(db *gorm.DB, store storage.ObjectStore, t transcriber.Transcriber) *TranscriptionWorker {
	return &TranscriptionWorker{DB: db, Store: store, Transcriber: t}
}

// Start launches concurrency goroutines draining the receiver. The goroutines
// exit when the receiver's task channel is closed.
func (w *TranscriptionWorker) Start(receiver Receiver, concurrency int) {
	if concurrency <= 0 {
		concurrency = 1
	}

	slog.Info("starting transcription workers", "concurrency", concurrency)

	w.wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(id int) {
			defer w.wg.Done()
			for task := range receiver.Tasks() {
				w.processTask(task)
			}
			slog.Info("transcription worker stopped", "worker", id)
		}(i)
	}
}

// Wait blocks until all worker goroutines have exited.
func (w *TranscriptionWorker) Wait() {
	w.wg.Wait()
}

func (w *TranscriptionWorker) processTask(task Task) {
	ctx := context.Background()

	if task.Type() != TranscribeQueue {
		slog.Error("received task from unknown queue, discarding", "queue", task.Type())
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting task", "error", err)
		}
		return
	}

	var payload TranscribeTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Error("error unmarshalling transcribe task, discarding", "error", err)
		if err := task.Reject(); err != nil {
			slog.Error("error rejecting task", "error", err)
		}
		return
	}

	if err := w.handleTranscribeTask(ctx, payload); err != nil {
		slog.Error("error processing transcribe task", "record_id", payload.RecordId, "error", err)
		if err := task.Nack(); err != nil {
			slog.Error("error nacking task", "error", err)
		}
		return
	}

	if err := task.Ack(); err != nil {
		slog.Error("error acking task", "error", err)
	}
}

func (w *TranscriptionWorker) handleTranscribeTask(ctx context.Context, payload TranscribeTaskPayload) error {
	slog.Info("handling transcribe task", "record_id", payload.RecordId, "object_key", payload.ObjectKey)

	audio, err := w.Store.GetObject(ctx, payload.ObjectKey)
	if err != nil {
		if dbErr := database.UpdateHistoryStatus(ctx, w.DB, payload.RecordId, database.HistoryFailed); dbErr != nil {
			slog.Error("failed to mark record as failed", "record_id", payload.RecordId, "error", dbErr)
		}
		return err
	}
	defer audio.Close()

	text, err := w.Transcriber.Transcribe(ctx, payload.FileName, audio)
	if err != nil {
		if dbErr := database.UpdateHistoryStatus(ctx, w.DB, payload.RecordId, database.HistoryFailed); dbErr != nil {
			slog.Error("failed to mark record as failed", "record_id", payload.RecordId, "error", dbErr)
		}
		return err
	}

	if err := database.CompleteHistoryRecord(ctx, w.DB, payload.RecordId, text); err != nil {
		return err
	}

	slog.Info("transcribe task complete", "record_id", payload.RecordId)
	return nil
}
