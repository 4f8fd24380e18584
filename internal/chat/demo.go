package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"transcripto-backend/internal/database"
)

const demoReply = "Thank you for your message! This is a demo mode. In the real system, an admin would respond to your inquiry."

// DemoResponder answers every user message with a canned admin reply after a
// short delay. Wired in by cmd/local so the chat widget can be exercised
// without a human on the other end.
type DemoResponder struct {
	Sender MessageSender
	Delay  time.Duration
}

func NewDemoResponder(sender MessageSender) *DemoResponder {
	return &DemoResponder{Sender: sender, Delay: 2 * time.Second}
}

func (d *DemoResponder) OnUserMessage(sessionId uuid.UUID) {
	go func() {
		time.Sleep(d.Delay)
		if _, err := d.Sender.SendMessage(context.Background(), sessionId, database.SenderAdmin, demoReply); err != nil {
			slog.Error("demo responder failed to reply", "session_id", sessionId, "error", err)
		}
	}()
}
