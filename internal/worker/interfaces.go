package worker

import (
	"context"
	"time"

	"prodplex.app/relay/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Claim(ctx context.Context, minIdle time.Duration, start string, count int64) ([]queue.Message, string, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Processor runs one dispatch message. A returned error means the message
// should be retried; Fail is called once retries are exhausted.
type Processor interface {
	Process(ctx context.Context, msg queue.Message) error
	Fail(ctx context.Context, msg queue.Message, cause error)
}
