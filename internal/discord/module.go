package discord

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewDiscordModule provides the side-channel notifier shared by all domain
// workflows plus the webhook sender used by the discord consumer.
func NewDiscordModule() fx.Option {
	return fx.Module("discord",
		fx.Provide(
			newConfig,
			NewWebhookSender,
			NewNotifier,
		),
		fx.Decorate(func(log *zap.Logger) *zap.Logger {
			return log.With(zap.String("component", "discord"))
		}),
	)
}
