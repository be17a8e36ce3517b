// Package config loads the Kafka section of the worker configuration.
package config

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sipeat/sipeat-events/pkg/events"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Brokers         string          `mapstructure:"brokers"`
	Topics          TopicsConfig    `mapstructure:"topics"`
	ProducerConfig  ProducerConfig  `mapstructure:"producer-config"`
	ConsumersConfig ConsumersConfig `mapstructure:"consumers-config"`
}

// TopicsConfig overrides the deployed names of the logical topics.
type TopicsConfig struct {
	Contact string `mapstructure:"contact"`
	Machine string `mapstructure:"machine"`
	Request string `mapstructure:"request"`
	Discord string `mapstructure:"discord"`
}

type ProducerConfig struct {
	ReadinessTimeoutSeconds int   `mapstructure:"readiness-timeout-seconds"`
	FailOnBrokerError       *bool `mapstructure:"fail-on-broker-error"`
}

type ConsumersConfig struct {
	AutoOffsetReset string           `mapstructure:"auto-offset-reset"`
	Consumers       []ConsumerConfig `mapstructure:"consumers"`
}

type ConsumerConfig struct {
	Name                    string        `mapstructure:"name"`
	Topic                   events.Topic  `mapstructure:"topic"`
	GroupID                 string        `mapstructure:"group-id"`
	AutoOffsetReset         string        `mapstructure:"auto-offset-reset"`
	ReadinessTimeoutSeconds int           `mapstructure:"readiness-timeout-seconds"`
	FailOnTopicError        bool          `mapstructure:"fail-on-topic-error"`
	ProcessingTimeout       time.Duration `mapstructure:"processing-timeout"`
}

// The four consumer groups of the worker, one per topic, matching the
// original deployment names.
func defaultConsumers() []ConsumerConfig {
	return []ConsumerConfig{
		{Name: "contact", Topic: events.TopicContact, GroupID: "sipeat-contact-processor"},
		{Name: "machine", Topic: events.TopicMachine, GroupID: "sipeat-machine-processor"},
		{Name: "request", Topic: events.TopicRequest, GroupID: "sipeat-request-processor"},
		{Name: "discord", Topic: events.TopicDiscord, GroupID: "sipeat-discord-processor"},
	}
}

func NewKafkaConfigModule() fx.Option {
	return fx.Provide(
		newConfig,
		provideTopics,
	)
}

func newConfig(v *viper.Viper, log *zap.Logger) (Config, error) {
	var cfg Config
	if sub := v.Sub("kafka"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load kafka config: %w", err)
		}
	}

	if cfg.Brokers == "" {
		cfg.Brokers = "localhost:9092"
	}
	if len(cfg.ConsumersConfig.Consumers) == 0 {
		cfg.ConsumersConfig.Consumers = defaultConsumers()
	}
	if cfg.ConsumersConfig.AutoOffsetReset == "" {
		cfg.ConsumersConfig.AutoOffsetReset = "earliest"
	}

	defaults := lo.KeyBy(defaultConsumers(), func(c ConsumerConfig) string { return c.Name })
	for i := range cfg.ConsumersConfig.Consumers {
		consumer := &cfg.ConsumersConfig.Consumers[i]
		if def, ok := defaults[consumer.Name]; ok {
			if consumer.Topic == "" {
				consumer.Topic = def.Topic
			}
			if consumer.GroupID == "" {
				consumer.GroupID = def.GroupID
			}
		}
		if consumer.AutoOffsetReset == "" {
			consumer.AutoOffsetReset = cfg.ConsumersConfig.AutoOffsetReset
		}
		if consumer.ReadinessTimeoutSeconds == 0 {
			consumer.ReadinessTimeoutSeconds = 60
		}
		if consumer.ProcessingTimeout == 0 {
			consumer.ProcessingTimeout = 30 * time.Second
		}
	}

	if cfg.ProducerConfig.ReadinessTimeoutSeconds == 0 {
		cfg.ProducerConfig.ReadinessTimeoutSeconds = 60
	}
	if cfg.ProducerConfig.FailOnBrokerError == nil {
		cfg.ProducerConfig.FailOnBrokerError = lo.ToPtr(true)
	}

	log.Info("loaded kafka config",
		zap.String("brokers", cfg.Brokers),
		zap.Int("consumers", len(cfg.ConsumersConfig.Consumers)))
	return cfg, nil
}

func provideTopics(cfg Config) *events.Topics {
	return events.NewTopics(
		cfg.Topics.Contact,
		cfg.Topics.Machine,
		cfg.Topics.Request,
		cfg.Topics.Discord,
	)
}

// ConsumerByName looks up a named consumer configuration.
func ConsumerByName(cfg Config, name string) (ConsumerConfig, error) {
	for _, c := range cfg.ConsumersConfig.Consumers {
		if c.Name == name {
			return c, nil
		}
	}
	return ConsumerConfig{}, fmt.Errorf("no consumer config found for consumer name: %s", name)
}
