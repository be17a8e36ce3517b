package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Port int `mapstructure:"port"`

	Connection ConnectionConfig `mapstructure:"connection"`
}

// ConnectionConfig holds the low-level HTTP server timeouts. These close
// the connection without an HTTP response.
type ConnectionConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read-header-timeout"`
	ReadTimeout       time.Duration `mapstructure:"read-timeout"`
	WriteTimeout      time.Duration `mapstructure:"write-timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle-timeout"`
	MaxHeaderBytes    int           `mapstructure:"max-header-bytes"`
}

func newConfig(v *viper.Viper, log *zap.Logger) (Config, error) {
	var cfg Config
	if sub := v.Sub("server"); sub != nil {
		if err := sub.UnmarshalExact(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to load server config: %w", err)
		}
	}
	cfg.setDefaults()

	log.Info("loaded server config", zap.Any("config", cfg))
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Connection.ReadHeaderTimeout == 0 {
		c.Connection.ReadHeaderTimeout = 10 * time.Second
	}
	if c.Connection.ReadTimeout == 0 {
		c.Connection.ReadTimeout = 30 * time.Second
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = 40 * time.Second
	}
	if c.Connection.IdleTimeout == 0 {
		c.Connection.IdleTimeout = 120 * time.Second
	}
	if c.Connection.MaxHeaderBytes == 0 {
		c.Connection.MaxHeaderBytes = 1 << 20
	}
}
