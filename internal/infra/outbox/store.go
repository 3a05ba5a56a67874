package outbox

import (
	"context"
	"time"
)

// Message is an outbox record as seen by the relay worker.
type Message struct {
	ID          string
	Name        string
	Payload     []byte
	OccurredAt  time.Time
	Aggregate   string
	Headers     map[string]string
	Attempts    int
	NextAttempt time.Time
	LastError   string
}

// Store is the durable side of the outbox. Claim returns nil when nothing is due.
type Store interface {
	Claim(ctx context.Context, workerID string) (*Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}
