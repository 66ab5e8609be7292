package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type AIConfig struct {
	Keys          string        `mapstructure:"keys"`
	Model         string        `mapstructure:"model"`
	ThrottleDelay time.Duration `mapstructure:"throttle_delay"`
	RetryBackoff  string        `mapstructure:"retry_backoff"`
}

// KeyList splits the comma-separated key string, dropping empty entries.
// An empty list is valid: the service then runs on offline placeholders.
func (config AIConfig) KeyList() []string {
	parts := strings.Split(config.Keys, ",")
	return lo.FilterMap(parts, func(part string, _ int) (string, bool) {
		trimmed := strings.TrimSpace(part)
		return trimmed, trimmed != ""
	})
}

// BackoffSchedule parses the comma-separated retry delays, e.g. "60s,120s,240s".
func (config AIConfig) BackoffSchedule() ([]time.Duration, error) {
	var schedule []time.Duration
	for _, part := range strings.Split(config.RetryBackoff, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.ParseDuration(part)
		if err != nil {
			return nil, fmt.Errorf("invalid retry_backoff entry %q: %w", part, err)
		}
		schedule = append(schedule, d)
	}
	return schedule, nil
}

func (config AIConfig) validate() error {

	if config.Model == "" {
		return fmt.Errorf("missing variable: model")
	}

	if config.ThrottleDelay < 0 {
		return fmt.Errorf("throttle_delay must not be negative")
	}

	if _, err := config.BackoffSchedule(); err != nil {
		return err
	}

	return nil
}

func (config AIConfig) bindEnvironmentVariables() error {
	var errs []error

	if err := viper.BindEnv("ai.keys", "AI_KEYS"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("ai.model", "AI_MODEL"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("ai.throttle_delay", "AI_THROTTLE_DELAY"); err != nil {
		errs = append(errs, err)
	}

	if err := viper.BindEnv("ai.retry_backoff", "AI_RETRY_BACKOFF"); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return createMultiError(errs)
	}

	return nil
}
