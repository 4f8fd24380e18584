package messaging_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcripto-backend/internal/database"
	"transcripto-backend/internal/messaging"
	"transcripto-backend/internal/storage"
	"transcripto-backend/internal/transcriber"
)

func setupWorkerTest(t *testing.T) (*messaging.TranscriptionWorker, *messaging.InMemoryQueue, *storage.LocalObjectStore, uuid.UUID) {
	db, err := database.NewDatabase("file::memory:")
	require.NoError(t, err)

	store, err := storage.NewLocalObjectStore(t.TempDir(), "http://localhost:8001/audio")
	require.NoError(t, err)

	user := database.Profile{Id: uuid.New(), Email: "worker@test.com", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	record := database.HistoryRecord{
		Id:         uuid.New(),
		UserId:     user.Id,
		SourceType: database.SourceUpload,
		Status:     database.HistoryProcessing,
	}
	require.NoError(t, db.Create(&record).Error)

	worker := messaging.NewTranscriptionWorker(db, store, &transcriber.Static{Text: "transcribed text"})

	return worker, messaging.NewInMemoryQueue(), store, record.Id
}

func TestWorkerCompletesRecord(t *testing.T) {
	worker, queue, store, recordId := setupWorkerTest(t)

	ctx := context.Background()

	require.NoError(t, store.PutObject(ctx, "obj-key", strings.NewReader("audio-bytes")))

	require.NoError(t, queue.PublishTranscribeTask(ctx, messaging.TranscribeTaskPayload{
		RecordId:  recordId,
		ObjectKey: "obj-key",
		FileName:  "clip.wav",
	}))
	queue.Close()

	worker.Start(queue, 2)
	worker.Wait()

	var record database.HistoryRecord
	require.NoError(t, worker.DB.First(&record, "id = ?", recordId).Error)
	assert.Equal(t, database.HistoryCompleted, record.Status)
	assert.Equal(t, "transcribed text", record.TranscriptionText)
}

func TestWorkerMarksRecordFailed(t *testing.T) {
	worker, queue, _, recordId := setupWorkerTest(t)

	ctx := context.Background()

	// No object at this key, so the task fails.
	require.NoError(t, queue.PublishTranscribeTask(ctx, messaging.TranscribeTaskPayload{
		RecordId:  recordId,
		ObjectKey: "missing-key",
		FileName:  "clip.wav",
	}))
	queue.Close()

	worker.Start(queue, 1)
	worker.Wait()

	var record database.HistoryRecord
	require.NoError(t, worker.DB.First(&record, "id = ?", recordId).Error)
	assert.Equal(t, database.HistoryFailed, record.Status)
	assert.Empty(t, record.TranscriptionText)
}
