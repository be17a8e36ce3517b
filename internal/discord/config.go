// Package discord routes workflow outcomes to a Discord webhook through a
// dedicated side-channel topic, keeping the external call out of the domain
// workflows.
package discord

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const webhookPrefix = "https://discord.com/api/webhooks/"

type Config struct {
	WebhookURL string  `mapstructure:"webhook-url"`
	Username   string  `mapstructure:"username"`
	AvatarURL  string  `mapstructure:"avatar-url"`
	SendRate   float64 `mapstructure:"send-rate"`
}

func newConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Username: "SipEat Kafka",
		// Discord allows roughly 30 webhook calls per minute.
		SendRate: 0.5,
	}

	if sub := v.Sub("discord"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to load discord config: %w", err)
		}
	}

	if cfg.WebhookURL != "" && !strings.HasPrefix(cfg.WebhookURL, webhookPrefix) {
		return Config{}, fmt.Errorf("invalid discord webhook URL format")
	}
	return cfg, nil
}
