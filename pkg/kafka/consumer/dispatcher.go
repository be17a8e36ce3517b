package consumer

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sipeat/sipeat-events/pkg/events"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// offsetStorer stores processed message offsets for the auto-committer.
type offsetStorer interface {
	StoreMessage(m *kafka.Message) (storedOffsets []kafka.TopicPartition, err error)
}

// dispatcher decodes envelopes and invokes every handler registered for the
// event kind.
//
// Delivery policy: the dispatcher drains per message — all handlers of a
// message are joined before the next message is read. Handlers of a single
// message still run concurrently with no ordering between them. Handler
// execution is bounded by the consumer's processing timeout so a hung
// handler cannot stall the group forever.
//
// Malformed messages are logged and dropped (at-most-once on malformed
// input); a handler error is caught and logged per handler and never
// prevents sibling handlers from completing.
type dispatcher struct {
	messages          <-chan *kafka.Message
	handlers          map[events.Kind][]Handler
	offsets           offsetStorer
	log               *zap.Logger
	tracer            MessageTracer
	processingTimeout time.Duration
}

func newDispatcher(
	messages <-chan *kafka.Message,
	offsets offsetStorer,
	log *zap.Logger,
	tracer MessageTracer,
	processingTimeout time.Duration,
) *dispatcher {
	return &dispatcher{
		messages:          messages,
		handlers:          make(map[events.Kind][]Handler),
		offsets:           offsets,
		log:               log,
		tracer:            tracer,
		processingTimeout: processingTimeout,
	}
}

// register appends a handler to its kind's list. Called during wiring only;
// the table is read-only once the loop runs.
func (d *dispatcher) register(h Handler) {
	d.handlers[h.Kind()] = append(d.handlers[h.Kind()], h)
}

func (d *dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.messages:
			if ctx.Err() != nil {
				return nil
			}
			d.dispatch(ctx, msg)
		}
	}
}

func (d *dispatcher) dispatch(ctx context.Context, message *kafka.Message) {
	defer d.storeOffset(message)

	ctx = d.tracer.ExtractContext(ctx, message)
	ctx, span := d.tracer.StartConsumerSpan(ctx, message)
	defer span.End()

	envelope, err := events.Unmarshal(message.Value)
	if err != nil {
		span.SetStatus(codes.Error, "malformed message dropped")
		d.log.Error("dropping malformed message",
			zap.String("key", string(message.Key)),
			zap.Int32("partition", message.TopicPartition.Partition),
			zap.Int64("offset", int64(message.TopicPartition.Offset)),
			zap.Error(err))
		return
	}

	handlers := d.handlers[envelope.Type]
	if len(handlers) == 0 {
		span.SetStatus(codes.Ok, "no handlers registered")
		d.log.Warn("no handlers registered for event type",
			zap.String("event_type", envelope.Type.String()),
			zap.String("event_id", envelope.ID))
		return
	}

	hctx := ctx
	if d.processingTimeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, d.processingTimeout)
		defer cancel()
	}

	var failed atomic.Int32
	var wg sync.WaitGroup
	for _, handler := range handlers {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			if err := d.invoke(hctx, h, envelope); err != nil {
				failed.Add(1)
				d.log.Error("handler failed",
					zap.String("event_type", envelope.Type.String()),
					zap.String("event_id", envelope.ID),
					zap.Error(err))
			}
		}(handler)
	}
	wg.Wait()

	if n := failed.Load(); n > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d handlers failed", n, len(handlers)))
		return
	}
	span.SetStatus(codes.Ok, "message processed successfully")
}

// invoke runs a single handler with panic recovery so one handler's bug
// never takes out its siblings or the loop.
func (d *dispatcher) invoke(ctx context.Context, h Handler, envelope events.Envelope) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return h.Handle(ctx, envelope)
}

func (d *dispatcher) storeOffset(message *kafka.Message) {
	if _, err := d.offsets.StoreMessage(message); err != nil {
		d.log.Error("failed to store offset",
			zap.String("key", string(message.Key)),
			zap.Int32("partition", message.TopicPartition.Partition),
			zap.Int64("offset", int64(message.TopicPartition.Offset)),
			zap.Error(err))
	}
}
