package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "elaview/internal/app/outbox"
	infraoutbox "elaview/internal/infra/outbox"
)

const (
	stateNew     = "new"
	stateClaimed = "claimed"
	stateSent    = "sent"
	stateFailed  = "failed"
)

type outboxEntry struct {
	msg   infraoutbox.Message
	state string
}

// Outbox is both the command-side outbox and the relay's store.
type Outbox struct {
	mu      sync.Mutex
	entries []*outboxEntry
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, &outboxEntry{
		state: stateNew,
		msg: infraoutbox.Message{
			ID:          record.ID,
			Name:        record.Name,
			Payload:     record.Payload,
			OccurredAt:  record.OccurredAt,
			Aggregate:   record.Aggregate,
			Headers:     record.Headers,
			NextAttempt: o.now().UTC(),
		},
	})
	return nil
}

// Flush is a no-op: records become claimable as soon as they are added.
func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, e := range o.entries {
		if (e.state == stateNew || e.state == stateFailed) && !e.msg.NextAttempt.After(now) {
			e.state = stateClaimed
			msg := e.msg
			return &msg, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	return o.update(id, func(e *outboxEntry) { e.state = stateSent })
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	return o.update(id, func(e *outboxEntry) {
		e.state = stateFailed
		e.msg.Attempts++
		e.msg.NextAttempt = next
		e.msg.LastError = errMsg
	})
}

// Pending lists records that have not been delivered yet.
func (o *Outbox) Pending() []infraoutbox.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.Message, 0)
	for _, e := range o.entries {
		if e.state != stateSent {
			out = append(out, e.msg)
		}
	}
	return out
}

func (o *Outbox) update(id string, fn func(*outboxEntry)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.msg.ID == id {
			fn(e)
			return nil
		}
	}
	return nil
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
