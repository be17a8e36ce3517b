// Package producer owns the single outbound bus connection of the process.
//
// Every publish funnels through one Publisher instance provided by the
// composition root; components receive it by reference instead of reaching
// for a process-global connection.
package producer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sipeat/sipeat-events/pkg/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// PublishError wraps a failed publish attempt. The bus client itself never
// retries; retry policy belongs to the calling workflow.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish to topic %s: %v", e.Topic, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher sends event envelopes to the bus.
type Publisher interface {
	// Publish resolves the logical topic, serializes the envelope and waits
	// for the broker's delivery report.
	Publish(ctx context.Context, topic events.Topic, envelope events.Envelope) error
	Close()
}

type publisher struct {
	producer *kafka.Producer
	topics   *events.Topics
	log      *zap.Logger
}

func newPublisher(brokers string, topics *events.Topics, log *zap.Logger) (*publisher, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return &publisher{producer: p, topics: topics, log: log}, nil
}

func (p *publisher) Publish(ctx context.Context, topic events.Topic, envelope events.Envelope) error {
	name, err := p.topics.Resolve(topic)
	if err != nil {
		return err
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return &PublishError{Topic: name, Err: fmt.Errorf("failed to serialize envelope: %w", err)}
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &name, Partition: kafka.PartitionAny},
		Key:            []byte(envelope.ID),
		Value:          value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(envelope.Type)},
			{Key: "timestamp", Value: []byte(envelope.Timestamp)},
		},
	}
	injectTraceContext(ctx, message)

	deliveryChan := make(chan kafka.Event, 1)
	if err := p.producer.Produce(message, deliveryChan); err != nil {
		return &PublishError{Topic: name, Err: err}
	}

	select {
	case <-ctx.Done():
		return &PublishError{Topic: name, Err: ctx.Err()}
	case e := <-deliveryChan:
		m, ok := e.(*kafka.Message)
		if !ok {
			return &PublishError{Topic: name, Err: fmt.Errorf("unexpected delivery event: %v", e)}
		}
		if m.TopicPartition.Error != nil {
			return &PublishError{Topic: name, Err: m.TopicPartition.Error}
		}
	}

	p.log.Debug("published event",
		zap.String("topic", name),
		zap.String("event_type", envelope.Type.String()),
		zap.String("event_id", envelope.ID))
	return nil
}

func (p *publisher) Close() {
	p.producer.Close()
}

func injectTraceContext(ctx context.Context, message *kafka.Message) {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for key, value := range carrier {
		message.Headers = append(message.Headers, kafka.Header{Key: key, Value: []byte(value)})
	}
}
