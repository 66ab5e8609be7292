package config

import (
	"time"

	"github.com/spf13/viper"
)

// CacheConfig is optional: an empty redis_url disables the Redis layer.
type CacheConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func (config CacheConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("cache.redis_url", "REDIS_URL")
}
