package transcriber

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// WhisperClient calls the hosted Whisper transcription endpoint. The endpoint
// accepts a multipart upload under the "audio" field and replies with JSON.
// A non-JSON reply means the request never reached the transcription service
// (proxy error pages and the like), which is reported as a hard failure.
type WhisperClient struct {
	client *resty.Client
}

var _ Transcriber = (*WhisperClient)(nil)

type whisperResponse struct {
	Transcription string `json:"transcription"`
	Message       string `json:"message"`
}

func NewWhisperClient(baseURL, apiKey string) *WhisperClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(5 * time.Minute).
		SetHeader("Accept", "application/json")

	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &WhisperClient{client: client}
}

func (w *WhisperClient) Transcribe(ctx context.Context, fileName string, audio io.Reader) (string, error) {
	var result whisperResponse

	resp, err := w.client.R().
		SetContext(ctx).
		SetFileReader("audio", fileName, audio).
		SetResult(&result).
		SetError(&result).
		Post("/api/transcriptions/whisper")
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	if !strings.Contains(resp.Header().Get("Content-Type"), "application/json") {
		slog.Error("transcription service returned non-json response", "status", resp.StatusCode(), "content_type", resp.Header().Get("Content-Type"))
		return "", fmt.Errorf("transcription service returned unexpected content type %q", resp.Header().Get("Content-Type"))
	}

	if resp.IsError() {
		msg := result.Message
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("transcription service error: %s", msg)
	}

	if result.Transcription == "" {
		return "", fmt.Errorf("transcription service returned an empty transcription")
	}

	return result.Transcription, nil
}
