package messaging

import (
	"context"
	"time"

	"lawchat-backend/pkg/api"

	"github.com/google/uuid"
)

const (
	PostProcessQueue = "chat_postprocess_queue"
	RetryDelay       = 5 * time.Second
	MaxConnectRetry  = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// PostProcessPayload carries everything the post-response bookkeeping needs:
// title extraction, transcript persistence, and keyword aggregation. It is
// dispatched after the final chunk of an exchange has been delivered, so
// processing it can never delay the response stream.
type PostProcessPayload struct {
	RoomId           uuid.UUID
	UserMessage      string
	AssistantMessage string

	Precedents []api.CitedCase
	Laws       []api.CitedLaw

	// Degraded marks exchanges that ended in the apology message. They are
	// persisted without citations and skip title/keyword extraction.
	Degraded bool
}

type Publisher interface {
	PublishPostProcessTask(ctx context.Context, payload PostProcessPayload) error

	Close()
}

type Receiver interface {
	Tasks() <-chan Task

	Close()
}
