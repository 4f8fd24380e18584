package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transcripto-backend/internal/messaging"
	pkgapi "transcripto-backend/pkg/api"
)

type failingStore struct{}

func (failingStore) PutObject(ctx context.Context, key string, data io.Reader) error {
	return errors.New("storage offline")
}

func (failingStore) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	return nil, errors.New("storage offline")
}

func (failingStore) DeleteObject(ctx context.Context, key string) error {
	return errors.New("storage offline")
}

func (failingStore) PublicURL(key string) string {
	return "http://localhost:8001/audio/" + key
}

func uploadAudio(t *testing.T, env *testEnv, path, token, fileName, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestTranscribeUpload(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	rec := uploadAudio(t, env, "/transcriptions/upload", token, "meeting.wav", "audio-bytes", map[string]string{
		"duration_seconds": "42",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeResponse[pkgapi.TranscriptionResponse](t, rec)
	assert.Equal(t, "test transcription", resp.Transcription)
	assert.Equal(t, "completed", resp.Record.Status)
	assert.Equal(t, "upload", resp.Record.SourceType)
	require.NotNil(t, resp.Record.AudioUrl)
	assert.Contains(t, *resp.Record.AudioUrl, "meeting.wav")
	require.NotNil(t, resp.Record.FileSize)
	assert.EqualValues(t, len("audio-bytes"), *resp.Record.FileSize)
	require.NotNil(t, resp.Record.DurationSeconds)
	assert.EqualValues(t, 42, *resp.Record.DurationSeconds)
}

func TestTranscribeUploadSurvivesStorageFailure(t *testing.T) {
	env := newTestEnvWithStore(t, failingStore{})
	token := env.signup(t, "user@test.com", "password123").Token

	rec := uploadAudio(t, env, "/transcriptions/upload", token, "meeting.wav", "audio-bytes", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The transcription is kept even though the audio copy was lost.
	resp := decodeResponse[pkgapi.TranscriptionResponse](t, rec)
	assert.Equal(t, "test transcription", resp.Transcription)
	assert.Equal(t, "completed", resp.Record.Status)
	assert.Nil(t, resp.Record.AudioUrl)
	require.NotNil(t, resp.Record.FileSize)
	assert.EqualValues(t, len("audio-bytes"), *resp.Record.FileSize)
}

func TestTranscriptionJobFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	rec := uploadAudio(t, env, "/transcriptions/jobs", token, "long-recording.wav", "audio-bytes", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	job := decodeResponse[pkgapi.TranscriptionJobResponse](t, rec)

	rec = env.request(t, http.MethodGet, "/transcriptions/jobs/"+job.RecordId.String(), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "processing", decodeResponse[pkgapi.HistoryRecord](t, rec).Status)

	// Drain the queue with an inline worker, then the job is complete.
	worker := messaging.NewTranscriptionWorker(env.db, env.store, env.service.transcriber)
	env.queue.Close()
	worker.Start(env.queue, 1)
	worker.Wait()

	rec = env.request(t, http.MethodGet, "/transcriptions/jobs/"+job.RecordId.String(), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	record := decodeResponse[pkgapi.HistoryRecord](t, rec)
	assert.Equal(t, "completed", record.Status)
	assert.Equal(t, "test transcription", record.TranscriptionText)
}

func TestTranscriptionJobRequiresStorage(t *testing.T) {
	env := newTestEnvWithStore(t, failingStore{})
	token := env.signup(t, "user@test.com", "password123").Token

	// The async path cannot tolerate a failed upload: the worker reads the
	// audio back from the store.
	rec := uploadAudio(t, env, "/transcriptions/jobs", token, "meeting.wav", "audio-bytes", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "user@test.com", "password123").Token

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("source_type", "upload"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/transcriptions/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
