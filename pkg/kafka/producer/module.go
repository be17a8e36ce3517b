package producer

import (
	"context"

	"github.com/sipeat/sipeat-events/pkg/core/health"
	"github.com/sipeat/sipeat-events/pkg/events"
	"github.com/sipeat/sipeat-events/pkg/kafka/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewProducerModule() fx.Option {
	return fx.Provide(providePublisher)
}

func providePublisher(lc fx.Lifecycle, log *zap.Logger, conf config.Config, topics *events.Topics, readiness health.Readiness) (Publisher, error) {
	componentLog := log.With(zap.String("component", "producer"))

	p, err := newPublisher(conf.Brokers, topics, componentLog)
	if err != nil {
		return nil, err
	}

	readiness.AddComponent("kafka-producer")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := waitForBrokers(ctx, p.producer, componentLog,
				conf.ProducerConfig.ReadinessTimeoutSeconds,
				*conf.ProducerConfig.FailOnBrokerError)
			if err != nil {
				return err
			}
			readiness.MarkReady("kafka-producer")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Close()
			return nil
		},
	})

	return p, nil
}
