package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	queue  []*Message
	sent   []string
	failed map[string]time.Time
}

func (s *fakeStore) Claim(ctx context.Context, workerID string) (*Message, error) {
	if len(s.queue) == 0 {
		return nil, nil
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	if s.failed == nil {
		s.failed = map[string]time.Time{}
	}
	s.failed[id] = next
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type fakeProducer struct {
	out  []published
	fail bool
}

func (p *fakeProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.out = append(p.out, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

var now = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func message(id, name string) *Message {
	return &Message{
		ID:         id,
		Name:       name,
		Payload:    []byte(`{"BookingID":"b-1"}`),
		OccurredAt: now,
		Aggregate:  "b-1",
		Headers:    map[string]string{"traceparent": "00-abc-def-01"},
	}
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	store := &fakeStore{queue: []*Message{message("e-1", "booking.requested"), message("e-2", "booking.confirmed")}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "dev.", Now: func() time.Time { return now }}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e-1", "e-2"}, store.sent)

	require.Len(t, producer.out, 2)
	first := producer.out[0]
	assert.Equal(t, "dev.booking.events.v1", first.topic)
	assert.Equal(t, "b-1", first.key)
	assert.Equal(t, "application/cloudevents+json", first.headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(first.payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "e-1", evt["id"])
	assert.Equal(t, "booking.requested.v1", evt["type"])
	assert.Equal(t, "app://elaview", evt["source"])
	assert.Equal(t, "00-abc-def-01", evt["traceparent"])
	assert.Equal(t, map[string]any{"BookingID": "b-1"}, evt["data"])
}

func TestFailedPublishBacksOff(t *testing.T) {
	first := message("e-1", "booking.requested")
	retried := message("e-2", "booking.requested")
	retried.Attempts = 5
	store := &fakeStore{queue: []*Message{first, retried}}
	w := &Worker{
		Store:    store,
		Producer: &fakeProducer{fail: true},
		Backoff:  []time.Duration{time.Second, time.Minute},
		Now:      func() time.Time { return now },
	}

	n, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, now.Add(time.Second), store.failed["e-1"])

	_, err = w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Minute), store.failed["e-2"], "attempts past the schedule reuse the last step")
	assert.Empty(t, store.sent)
}

func TestMalformedPayloadIsMarkedFailed(t *testing.T) {
	msg := message("e-1", "booking.requested")
	msg.Payload = []byte("not json")
	store := &fakeStore{queue: []*Message{msg}}
	producer := &fakeProducer{}
	w := &Worker{Store: store, Producer: producer, Now: func() time.Time { return now }}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Contains(t, store.failed, "e-1")
	assert.Empty(t, producer.out)
}

func TestRunRequiresDependencies(t *testing.T) {
	err := (&Worker{}).Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}
