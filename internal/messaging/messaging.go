package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TranscribeQueue = "transcription_queue"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// TranscribeTaskPayload points a worker at an uploaded audio object and the
// processing history record awaiting its text.
type TranscribeTaskPayload struct {
	RecordId  uuid.UUID
	ObjectKey string
	FileName  string
}

type Publisher interface {
	PublishTranscribeTask(ctx context.Context, payload TranscribeTaskPayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
