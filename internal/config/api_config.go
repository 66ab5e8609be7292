package config

import (
	"github.com/spf13/viper"
)

type APIConfig struct {
	Port        int `mapstructure:"port"`
	MetricsPort int `mapstructure:"metrics_port"`
}

func (config APIConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("api.port", "PORT"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("api.metrics_port", "METRICS_PORT"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
