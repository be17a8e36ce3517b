package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// messageReader is the subset of the consumer the read loop needs.
type messageReader interface {
	ReadMessage(timeout time.Duration) (*kafka.Message, error)
}

// reader pulls raw messages off the broker and feeds the dispatcher's
// channel. Message-level errors never end the loop; only fatal connection
// errors propagate, which terminates the process.
type reader struct {
	consumer messageReader
	topic    string
	messages chan<- *kafka.Message
	log      *zap.Logger
}

func newReader(consumer *kafka.Consumer, topic deployedTopic, messages chan *kafka.Message, log *zap.Logger) *reader {
	return &reader{
		consumer: consumer,
		topic:    string(topic),
		messages: messages,
		log:      log,
	}
}

func (r *reader) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		msg, err := r.consumer.ReadMessage(5 * time.Second)
		if err != nil {
			if fatal := r.handleReadError(ctx, err); fatal != nil {
				return fatal
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case r.messages <- msg:
		}
	}
}

// handleReadError classifies a read failure. Returns non-nil only for fatal
// errors that make the consumer instance inoperable.
func (r *reader) handleReadError(ctx context.Context, err error) error {
	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) {
		switch {
		case kafkaErr.IsTimeout():
			// Normal poll timeout.
			return nil

		case kafkaErr.IsFatal():
			r.log.Error("fatal kafka error, consumer is no longer operable",
				zap.String("topic", r.topic), zap.Error(err))
			return err

		case kafkaErr.Code() == kafka.ErrUnknownTopicOrPart:
			r.log.Warn("topic not available, waiting for topic creation",
				zap.String("topic", r.topic))
			sleep(ctx, 10*time.Second)
			return nil

		case kafkaErr.Code() == kafka.ErrTransport,
			kafkaErr.Code() == kafka.ErrAllBrokersDown,
			kafkaErr.Code() == kafka.ErrNetworkException:
			r.log.Warn("broker connection issue, retrying",
				zap.String("topic", r.topic), zap.Error(err))
			sleep(ctx, 5*time.Second)
			return nil

		case kafkaErr.Code() == kafka.ErrLeaderNotAvailable,
			kafkaErr.Code() == kafka.ErrNotLeaderForPartition:
			r.log.Debug("partition leader changing, retrying",
				zap.String("topic", r.topic))
			sleep(ctx, 2*time.Second)
			return nil
		}
	}

	r.log.Error("failed to read message", zap.Error(err))
	return nil
}
