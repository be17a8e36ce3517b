package discord

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viperFromYAML(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return v
}

func TestConfigDefaults(t *testing.T) {
	cfg, err := newConfig(viper.New())
	require.NoError(t, err)

	assert.Empty(t, cfg.WebhookURL)
	assert.Equal(t, "SipEat Kafka", cfg.Username)
	assert.InDelta(t, 0.5, cfg.SendRate, 0.001)
}

func TestConfigValidWebhookURL(t *testing.T) {
	v := viperFromYAML(t, `
discord:
  webhook-url: https://discord.com/api/webhooks/123/abc
  username: Custom Bot
`)
	cfg, err := newConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "https://discord.com/api/webhooks/123/abc", cfg.WebhookURL)
	assert.Equal(t, "Custom Bot", cfg.Username)
}

func TestConfigRejectsInvalidWebhookURL(t *testing.T) {
	v := viperFromYAML(t, `
discord:
  webhook-url: https://example.com/hook
`)
	_, err := newConfig(v)
	assert.Error(t, err)
}
