package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// InMemoryQueue is a Publisher and Receiver backed by a channel. It is used by
// cmd/local to run the transcription worker in process without RabbitMQ.
type InMemoryQueue struct {
	tasks      chan Task
	destructor sync.Once
}

var _ Publisher = (*InMemoryQueue)(nil)
var _ Receiver = (*InMemoryQueue)(nil)

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		tasks: make(chan Task, 100),
	}
}

type inMemoryTask struct {
	taskType string
	payload  []byte
}

func (t *inMemoryTask) Type() string {
	return t.taskType
}

func (t *inMemoryTask) Payload() []byte {
	return t.payload
}

func (t *inMemoryTask) Ack() error {
	return nil
}

func (t *inMemoryTask) Nack() error {
	return nil
}

func (t *inMemoryTask) Reject() error {
	return nil
}

func (q *InMemoryQueue) publishTask(taskType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	q.tasks <- &inMemoryTask{taskType: taskType, payload: body}

	return nil
}

func (q *InMemoryQueue) PublishTranscribeTask(ctx context.Context, payload TranscribeTaskPayload) error {
	return q.publishTask(TranscribeQueue, payload)
}

func (q *InMemoryQueue) Tasks() <-chan Task {
	return q.tasks
}

func (q *InMemoryQueue) Close() {
	q.destructor.Do(func() {
		close(q.tasks)
	})
}
