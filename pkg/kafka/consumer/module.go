package consumer

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sipeat/sipeat-events/pkg/core/worker"
	kafkaconfig "github.com/sipeat/sipeat-events/pkg/kafka/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RegisterHandlerAndConsumer builds an fx module for one consumer group:
// the Kafka consumer, its reader and dispatcher loops, and the given
// handler constructors registered by their event kind. All provides are
// module-private so consumer groups do not leak into each other.
func RegisterHandlerAndConsumer(consumerName string, handlerConstructors ...any) fx.Option {
	providers := []any{
		fx.Annotate(
			kafkaconfig.ConsumerByName,
			fx.ParamTags(``, `name:"consumerName"`),
		),
		resolveTopic,
		provideKafkaConsumer,
		provideMessageChannel,
		provideTracerProvider,
		newMessageTracer,
		newReader,
		fx.Annotate(
			provideDispatcher,
			fx.ParamTags(``, ``, ``, ``, ``, `group:"handlers"`),
		),
		worker.Register[*reader]("reader", worker.WithReady(), worker.WithShutdown()),
		worker.Register[*dispatcher]("dispatcher", worker.WithShutdown()),
	}
	for _, constructor := range handlerConstructors {
		providers = append(providers, fx.Annotate(
			constructor,
			fx.As(new(Handler)),
			fx.ResultTags(`group:"handlers"`),
		))
	}
	providers = append(providers, fx.Private)

	return fx.Module(
		consumerName,
		fx.Decorate(
			func(log *zap.Logger, consumerConf kafkaconfig.ConsumerConfig) *zap.Logger {
				return log.With(
					zap.String("component", "consumer"),
					zap.String("consumer_name", consumerConf.Name),
					zap.String("group_id", consumerConf.GroupID),
				)
			},
		),
		fx.Supply(
			fx.Annotate(
				consumerName,
				fx.ResultTags(`name:"consumerName"`),
			),
			fx.Private,
		),
		fx.Provide(providers...),
		worker.Activate(),
	)
}

func provideMessageChannel() chan *kafka.Message {
	return make(chan *kafka.Message, 100)
}

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

func provideDispatcher(
	messages chan *kafka.Message,
	kafkaConsumer *kafka.Consumer,
	log *zap.Logger,
	tracer MessageTracer,
	consumerConf kafkaconfig.ConsumerConfig,
	handlers []Handler,
) *dispatcher {
	d := newDispatcher(messages, kafkaConsumer, log, tracer, consumerConf.ProcessingTimeout)
	for _, h := range handlers {
		d.register(h)
	}
	return d
}
