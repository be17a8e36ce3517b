// Package main runs the event processing worker: one consumer group per
// topic, the shared producer, and the operational HTTP endpoints.
package main

import (
	"fmt"
	"os"

	"github.com/sipeat/sipeat-events/internal/contact"
	"github.com/sipeat/sipeat-events/internal/discord"
	"github.com/sipeat/sipeat-events/internal/machine"
	"github.com/sipeat/sipeat-events/internal/request"
	"github.com/sipeat/sipeat-events/pkg/core"
	healthroutes "github.com/sipeat/sipeat-events/pkg/http/health"
	"github.com/sipeat/sipeat-events/pkg/http/server"
	kafkaconfig "github.com/sipeat/sipeat-events/pkg/kafka/config"
	"github.com/sipeat/sipeat-events/pkg/kafka/consumer"
	"github.com/sipeat/sipeat-events/pkg/kafka/producer"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "sipeat-events",
		Short:   "SipEat event processing worker",
		Long:    `Consumes the contact, machine, request and discord topics and runs the business workflows behind them.`,
		Version: version,
	}

	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the worker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			newApp().Run()
			return nil
		},
	}
}

func newApp() *fx.App {
	return fx.New(
		core.NewCoreModule(),

		kafkaconfig.NewKafkaConfigModule(),
		producer.NewProducerModule(),

		discord.NewDiscordModule(),

		consumer.RegisterHandlerAndConsumer("contact", contact.NewHandler),
		consumer.RegisterHandlerAndConsumer("machine", machine.NewHandler),
		consumer.RegisterHandlerAndConsumer("request", request.NewHandler),
		consumer.RegisterHandlerAndConsumer("discord", discord.NewHandler),

		server.NewHTTPServerModule(),
		healthroutes.NewHealthRoutesModule(),
	)
}
