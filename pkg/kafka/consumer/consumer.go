// Package consumer bridges raw bus messages to typed handler dispatch.
//
// Each consumer group runs two loops: a reader pulling messages from the
// broker into a channel, and a dispatcher decoding envelopes and fanning
// them out to the handlers registered for the event kind.
package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sipeat/sipeat-events/pkg/core/health"
	"github.com/sipeat/sipeat-events/pkg/events"
	kafkaconfig "github.com/sipeat/sipeat-events/pkg/kafka/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// deployedTopic is the broker topic a consumer group subscribes to,
// resolved once from the logical topic registry.
type deployedTopic string

func resolveTopic(conf kafkaconfig.ConsumerConfig, topics *events.Topics) (deployedTopic, error) {
	name, err := topics.Resolve(conf.Topic)
	if err != nil {
		return "", err
	}
	return deployedTopic(name), nil
}

func provideKafkaConsumer(
	lc fx.Lifecycle,
	conf kafkaconfig.Config,
	consumerConf kafkaconfig.ConsumerConfig,
	topic deployedTopic,
	log *zap.Logger,
	readiness health.Readiness,
) (*kafka.Consumer, error) {
	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":        conf.Brokers,
		"group.id":                 consumerConf.GroupID,
		"enable.auto.commit":       true,
		"enable.auto.offset.store": false,
		"auto.commit.interval.ms":  3000,
		"auto.offset.reset":        consumerConf.AutoOffsetReset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer, name: %s: %w", consumerConf.Name, err)
	}

	componentName := "kafka-consumer-" + consumerConf.Name
	readiness.AddComponent(componentName)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("subscribing to topic", zap.String("topic", string(topic)))

			rebalanceCb := func(c *kafka.Consumer, event kafka.Event) error {
				switch ev := event.(type) {
				case kafka.AssignedPartitions:
					logPartitionEvent(log, "partitions assigned", ev.Partitions)
				case kafka.RevokedPartitions:
					logPartitionEvent(log, "partitions revoked", ev.Partitions)
				}
				return nil
			}

			if err := kafkaConsumer.SubscribeTopics([]string{string(topic)}, rebalanceCb); err != nil {
				return &SubscribeError{Topic: string(topic), GroupID: consumerConf.GroupID, Err: err}
			}

			if err := verifyTopicAvailable(kafkaConsumer, string(topic), log); err != nil {
				if consumerConf.FailOnTopicError {
					return &SubscribeError{Topic: string(topic), GroupID: consumerConf.GroupID, Err: err}
				}
				log.Warn("topic verification failed, continuing anyway", zap.Error(err))
			}

			readiness.MarkReady(componentName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if _, commitErr := kafkaConsumer.Commit(); commitErr != nil {
				var kafkaErr kafka.Error
				if !errors.As(commitErr, &kafkaErr) || kafkaErr.Code() != kafka.ErrNoOffset {
					log.Warn("failed to commit offsets on shutdown", zap.Error(commitErr))
				}
			}

			log.Info("closing kafka consumer")
			return kafkaConsumer.Close()
		},
	})

	return kafkaConsumer, nil
}

func logPartitionEvent(log *zap.Logger, event string, partitions []kafka.TopicPartition) {
	if len(partitions) == 0 {
		log.Warn(event + ": no partitions")
		return
	}

	partitionIDs := make([]int32, len(partitions))
	for idx, partition := range partitions {
		partitionIDs[idx] = partition.Partition
	}

	log.Info(event,
		zap.Int("partition_count", len(partitions)),
		zap.Int32s("partitions", partitionIDs))
}

// verifyTopicAvailable checks that the topic exists and has partitions.
func verifyTopicAvailable(consumer *kafka.Consumer, topic string, log *zap.Logger) error {
	metadata, err := consumer.GetMetadata(&topic, false, 10000)
	if err != nil {
		return fmt.Errorf("failed to get topic metadata: %w", err)
	}

	topicMeta, ok := metadata.Topics[topic]
	if !ok {
		return fmt.Errorf("topic %s not found in metadata", topic)
	}
	if topicMeta.Error.Code() != kafka.ErrNoError {
		return fmt.Errorf("topic %s has error: %s", topic, topicMeta.Error.String())
	}
	if len(topicMeta.Partitions) == 0 {
		return fmt.Errorf("topic %s has no partitions", topic)
	}

	log.Info("topic is ready",
		zap.String("topic", topic),
		zap.Int("partitions", len(topicMeta.Partitions)))
	return nil
}
