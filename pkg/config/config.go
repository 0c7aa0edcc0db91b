package config

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName               = "APP_NAME"
	AppEnv                = "APP_ENV"
	AppLogLevel           = "APP_LOG_LEVEL"
	AppMetricSamplingRate = "APP_METRIC_SAMPLING_RATE"
	AppPort               = "APP_PORT"
	TelegrafAddress       = "TELEGRAF_ADDRESS"
	MetricsEnabled        = "METRICS_ENABLED"

	DefaultLogLevel        = "INFO"
	DefaultTelegrafAddress = "localhost:8125"
	DefaultAppPort         = 8000
)

// Configs holds the application level settings shared by every binary in this repo
type Configs struct {
	AppName               string  `mapstructure:"app_name"`
	AppEnv                string  `mapstructure:"app_env"`
	AppLogLevel           string  `mapstructure:"app_log_level"`
	AppMetricSamplingRate float64 `mapstructure:"app_metric_sampling_rate"`
	AppPort               int     `mapstructure:"app_port"`
	TelegrafAddress       string  `mapstructure:"telegraf_address"`
	MetricsEnabled        bool    `mapstructure:"metrics_enabled"`
}

var (
	initialized = false
	once        sync.Once
)

func InitEnv() {
	if initialized {
		log.Debug().Msg("Env already initialized!")
		return
	}
	once.Do(func() {
		viper.AutomaticEnv()
		initialized = true
		log.Debug().Msg("Env initialized!")
	})
}

// Load reads the application configs from the environment, falling back to defaults
// for anything unset. appName is used when APP_NAME is empty.
func Load(appName string) (*Configs, error) {
	InitEnv()
	viper.SetDefault(AppName, appName)
	viper.SetDefault(AppLogLevel, DefaultLogLevel)
	viper.SetDefault(AppMetricSamplingRate, 1.0)
	viper.SetDefault(AppPort, DefaultAppPort)
	viper.SetDefault(TelegrafAddress, DefaultTelegrafAddress)
	viper.SetDefault(MetricsEnabled, false)

	cfg := &Configs{
		AppName:               viper.GetString(AppName),
		AppEnv:                viper.GetString(AppEnv),
		AppLogLevel:           viper.GetString(AppLogLevel),
		AppMetricSamplingRate: viper.GetFloat64(AppMetricSamplingRate),
		AppPort:               viper.GetInt(AppPort),
		TelegrafAddress:       viper.GetString(TelegrafAddress),
		MetricsEnabled:        viper.GetBool(MetricsEnabled),
	}
	if cfg.AppMetricSamplingRate < 0 || cfg.AppMetricSamplingRate > 1 {
		return nil, fmt.Errorf("%s must be within [0, 1], got %v", AppMetricSamplingRate, cfg.AppMetricSamplingRate)
	}
	if cfg.AppPort <= 0 || cfg.AppPort > 65535 {
		return nil, fmt.Errorf("%s must be a valid port, got %d", AppPort, cfg.AppPort)
	}
	return cfg, nil
}

// BindFlags binds viper keys to flags. A flag set on the command line takes precedence
// over the environment, an unset one falls through to it.
func BindFlags(flags *pflag.FlagSet, bindings map[string]string) error {
	for key, flagName := range bindings {
		flag := flags.Lookup(flagName)
		if flag == nil {
			return fmt.Errorf("flag %q not defined", flagName)
		}
		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q to %q: %w", flagName, key, err)
		}
	}
	return nil
}
