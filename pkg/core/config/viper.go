package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewViperModule provides a *viper.Viper loaded from the AppConfig's config
// file, with environment variable overrides (dots and dashes map to
// underscores). The provider takes no logger so the logger's own config can
// be read from viper without a dependency cycle.
func NewViperModule() fx.Option {
	return fx.Module("viper",
		fx.Provide(newViper),
		fx.Invoke(logViperConfig),
	)
}

func newViper(conf AppConfig) (*viper.Viper, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if conf.ConfigFile == "" {
		return v, nil
	}

	if _, err := os.Stat(conf.ConfigFile); err != nil {
		// Missing file is tolerated, defaults and environment apply.
		return v, nil
	}

	v.SetConfigFile(conf.ConfigFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file [%s]: %w", conf.ConfigFile, err)
	}
	return v, nil
}

func logViperConfig(log *zap.Logger, v *viper.Viper) {
	if used := v.ConfigFileUsed(); used == "" {
		log.Warn("no config file loaded, relying on defaults and environment")
	} else {
		log.Info("configuration loaded",
			zap.String("configFile", used),
			zap.Int("settingsCount", len(v.AllSettings())))
	}
}
