package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigIsIdempotent(t *testing.T) {
	cfg := NewConfig("elaview-test")
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Producer.Idempotent)
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.Equal(t, 1, cfg.Net.MaxOpenRequests)
}

func TestPublish(t *testing.T) {
	sync := mocks.NewSyncProducer(t, nil)
	sync.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"e-1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	sync.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	p := NewProducerFrom(sync)

	err := p.Publish(context.Background(), "booking.events.v1", "b-1", []byte(`{"id":"e-1"}`), map[string]string{"content-type": "application/cloudevents+json"})
	require.NoError(t, err)

	err = p.Publish(context.Background(), "booking.events.v1", "b-1", []byte(`{}`), nil)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.NoError(t, p.Close())
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	p := NewProducerFrom(mocks.NewSyncProducer(t, nil))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, "t", "k", nil, nil), context.Canceled)
	require.NoError(t, p.Close())
}
