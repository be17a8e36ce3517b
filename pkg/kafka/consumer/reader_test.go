package consumer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockMessageReader struct {
	readMessageFunc func(timeout time.Duration) (*kafka.Message, error)
}

func (m *mockMessageReader) ReadMessage(timeout time.Duration) (*kafka.Message, error) {
	if m.readMessageFunc != nil {
		return m.readMessageFunc(timeout)
	}
	return nil, kafka.NewError(kafka.ErrTimedOut, "timeout", false)
}

func newMockReader(consumer messageReader, messages chan *kafka.Message) *reader {
	return &reader{
		consumer: consumer,
		topic:    "sipeat.contact.events",
		messages: messages,
		log:      zap.NewNop(),
	}
}

func TestReaderStopsOnContextCancel(t *testing.T) {
	r := newMockReader(&mockMessageReader{}, make(chan *kafka.Message, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop on context cancel")
	}
}

func TestReaderForwardsMessages(t *testing.T) {
	topic := "sipeat.contact.events"
	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Offset: 42},
		Key:            []byte("key"),
		Value:          []byte("value"),
	}

	delivered := false
	consumer := &mockMessageReader{
		readMessageFunc: func(timeout time.Duration) (*kafka.Message, error) {
			if delivered {
				return nil, kafka.NewError(kafka.ErrTimedOut, "timeout", false)
			}
			delivered = true
			return message, nil
		},
	}

	messages := make(chan *kafka.Message, 1)
	r := newMockReader(consumer, messages)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	select {
	case got := <-messages:
		assert.Equal(t, message, got)
	case <-time.After(time.Second):
		t.Fatal("message was not forwarded")
	}
}

func TestReaderReturnsOnFatalError(t *testing.T) {
	fatalErr := kafka.NewError(kafka.ErrAllBrokersDown, "all brokers down", true)
	consumer := &mockMessageReader{
		readMessageFunc: func(timeout time.Duration) (*kafka.Message, error) {
			return nil, fatalErr
		},
	}

	r := newMockReader(consumer, make(chan *kafka.Message, 1))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("reader did not stop on fatal error")
	}
}

func TestHandleReadErrorClassification(t *testing.T) {
	r := newMockReader(&mockMessageReader{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // keeps the retry sleeps instant

	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{name: "poll timeout", err: kafka.NewError(kafka.ErrTimedOut, "timeout", false)},
		{name: "fatal error", err: kafka.NewError(kafka.ErrFail, "broken", true), fatal: true},
		{name: "unknown topic", err: kafka.NewError(kafka.ErrUnknownTopicOrPart, "no topic", false)},
		{name: "transport", err: kafka.NewError(kafka.ErrTransport, "transport", false)},
		{name: "all brokers down", err: kafka.NewError(kafka.ErrAllBrokersDown, "down", false)},
		{name: "leader not available", err: kafka.NewError(kafka.ErrLeaderNotAvailable, "leader", false)},
		{name: "plain error", err: errors.New("something else")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.handleReadError(ctx, tt.err)
			if tt.fatal {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
