package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"transcripto-backend/internal/database"
	"transcripto-backend/internal/messaging"
	"transcripto-backend/pkg/api"
)

const maxUploadBytes = 50 << 20

type audioUpload struct {
	data            []byte
	fileName        string
	sourceType      string
	durationSeconds *int64
}

func parseAudioUpload(r *http.Request) (audioUpload, error) {
	var upload audioUpload

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return upload, CodedErrorf(http.StatusBadRequest, "unable to parse multipart upload")
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		return upload, CodedErrorf(http.StatusBadRequest, "missing audio file in upload")
	}
	defer file.Close()

	upload.data, err = io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		slog.Error("error reading uploaded audio", "error", err)
		return upload, CodedErrorf(http.StatusInternalServerError, "error reading uploaded audio")
	}
	if len(upload.data) > maxUploadBytes {
		return upload, CodedErrorf(http.StatusRequestEntityTooLarge, "audio file exceeds the %d MB limit", maxUploadBytes>>20)
	}
	if len(upload.data) == 0 {
		return upload, CodedErrorf(http.StatusBadRequest, "uploaded audio file is empty")
	}

	upload.fileName = header.Filename

	upload.sourceType = r.FormValue("source_type")
	if upload.sourceType == "" {
		upload.sourceType = database.SourceUpload
	}
	if upload.sourceType != database.SourceUpload && upload.sourceType != database.SourceRecording {
		return upload, CodedErrorf(http.StatusBadRequest, "invalid source_type '%s' provided", upload.sourceType)
	}

	if raw := r.FormValue("duration_seconds"); raw != "" {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || seconds < 0 {
			return upload, CodedErrorf(http.StatusBadRequest, "invalid duration_seconds '%s' provided", raw)
		}
		upload.durationSeconds = &seconds
	}

	return upload, nil
}

func objectKey(userId uuid.UUID, sourceType, fileName string) string {
	return fmt.Sprintf("%s_%s_%d_%s", userId, sourceType, time.Now().UnixNano(), fileName)
}

// storeAudio uploads the audio and returns its public URL. A storage failure
// is logged and reported as a missing URL rather than failing the request:
// the transcription is worth keeping even if the audio copy is lost.
func (s *BackendService) storeAudio(r *http.Request, upload audioUpload, key string) sql.NullString {
	if err := s.store.PutObject(r.Context(), key, bytes.NewReader(upload.data)); err != nil {
		slog.Warn("failed to store uploaded audio, continuing without it", "key", key, "error", err)
		return sql.NullString{}
	}
	return sql.NullString{String: s.store.PublicURL(key), Valid: true}
}

func (s *BackendService) newUploadRecord(user database.Profile, upload audioUpload, audioUrl sql.NullString) database.HistoryRecord {
	record := database.HistoryRecord{
		Id:         uuid.New(),
		UserId:     user.Id,
		AudioUrl:   audioUrl,
		FileName:   sql.NullString{String: upload.fileName, Valid: upload.fileName != ""},
		FileSize:   sql.NullInt64{Int64: int64(len(upload.data)), Valid: true},
		SourceType: upload.sourceType,
		Status:     database.HistoryProcessing,
		CreatedAt:  time.Now().UTC(),
	}
	if upload.durationSeconds != nil {
		record.DurationSeconds = sql.NullInt64{Int64: *upload.durationSeconds, Valid: true}
	}
	return record
}

// TranscribeUpload runs the whole pipeline in one request: store the audio,
// transcribe it, and return the finished record.
func (s *BackendService) TranscribeUpload(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	upload, err := parseAudioUpload(r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	key := objectKey(user.Id, upload.sourceType, upload.fileName)
	audioUrl := s.storeAudio(r, upload, key)

	record := s.newUploadRecord(user, upload, audioUrl)
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error creating history record", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save transcription record")
	}

	text, err := s.transcriber.Transcribe(ctx, upload.fileName, bytes.NewReader(upload.data))
	if err != nil {
		slog.Error("transcription failed", "record_id", record.Id, "error", err)
		if dbErr := database.UpdateHistoryStatus(ctx, s.db, record.Id, database.HistoryFailed); dbErr != nil {
			slog.Error("failed to mark record as failed", "record_id", record.Id, "error", dbErr)
		}
		return nil, CodedErrorf(http.StatusBadGateway, "transcription failed: %v", err)
	}

	if err := database.CompleteHistoryRecord(ctx, s.db, record.Id, text); err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save transcription")
	}

	record.TranscriptionText = text
	record.Status = database.HistoryCompleted

	return api.TranscriptionResponse{Record: toApiHistoryRecord(record), Transcription: text}, nil
}

// SubmitTranscriptionJob queues the transcription for a worker instead of
// running it inline. Unlike the sync path, the audio upload must succeed here
// since the worker reads it back from the object store.
func (s *BackendService) SubmitTranscriptionJob(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	upload, err := parseAudioUpload(r)
	if err != nil {
		return nil, err
	}

	ctx := r.Context()

	key := objectKey(user.Id, upload.sourceType, upload.fileName)
	if err := s.store.PutObject(ctx, key, bytes.NewReader(upload.data)); err != nil {
		slog.Error("failed to store uploaded audio", "key", key, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to store uploaded audio")
	}

	record := s.newUploadRecord(user, upload, sql.NullString{String: s.store.PublicURL(key), Valid: true})
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error creating history record", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to save transcription record")
	}

	payload := messaging.TranscribeTaskPayload{
		RecordId:  record.Id,
		ObjectKey: key,
		FileName:  upload.fileName,
	}
	if err := s.publisher.PublishTranscribeTask(ctx, payload); err != nil {
		slog.Error("error publishing transcribe task", "record_id", record.Id, "error", err)
		if dbErr := database.UpdateHistoryStatus(ctx, s.db, record.Id, database.HistoryFailed); dbErr != nil {
			slog.Error("failed to mark record as failed", "record_id", record.Id, "error", dbErr)
		}
		return nil, CodedErrorf(http.StatusInternalServerError, "failed to queue transcription")
	}

	slog.Info("submitted transcription job", "record_id", record.Id)
	return api.TranscriptionJobResponse{Message: "Transcription job submitted", RecordId: record.Id}, nil
}

func (s *BackendService) GetTranscriptionJob(r *http.Request) (any, error) {
	user, err := s.currentUser(r)
	if err != nil {
		return nil, err
	}

	recordId, err := URLParamUUID(r, "record_id")
	if err != nil {
		return nil, err
	}

	var record database.HistoryRecord
	err = s.db.WithContext(r.Context()).First(&record, "id = ? AND user_id = ?", recordId, user.Id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "transcription not found")
		}
		slog.Error("error getting history record", "record_id", recordId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving transcription record")
	}

	return toApiHistoryRecord(record), nil
}
