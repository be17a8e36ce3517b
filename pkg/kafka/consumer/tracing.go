package consumer

import (
	"context"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// MessageTracer handles OpenTelemetry tracing for consumed messages.
type MessageTracer interface {
	// ExtractContext pulls the trace context out of the message headers.
	ExtractContext(ctx context.Context, message *kafka.Message) context.Context
	// StartConsumerSpan opens a span covering one message's dispatch.
	StartConsumerSpan(ctx context.Context, message *kafka.Message) (context.Context, trace.Span)
}

type messageTracer struct {
	tracer trace.Tracer
}

func newMessageTracer(tp trace.TracerProvider) MessageTracer {
	return &messageTracer{tracer: tp.Tracer("kafka-consumer")}
}

func (t *messageTracer) ExtractContext(ctx context.Context, message *kafka.Message) context.Context {
	if len(message.Headers) == 0 {
		return ctx
	}

	headersMap := make(map[string]string, len(message.Headers))
	for _, header := range message.Headers {
		headersMap[header.Key] = string(header.Value)
	}

	carrier := propagation.MapCarrier(headersMap)
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

func (t *messageTracer) StartConsumerSpan(ctx context.Context, message *kafka.Message) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", *message.TopicPartition.Topic),
			attribute.Int("messaging.partition", int(message.TopicPartition.Partition)),
			attribute.Int64("messaging.offset", int64(message.TopicPartition.Offset)),
			attribute.String("messaging.message.key", string(message.Key)),
		),
	)
}
