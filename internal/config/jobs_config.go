package config

type JobsConfig struct {
	ExpirationInDays    int `mapstructure:"expiration_days"`
	MaxBackfillAttempts int `mapstructure:"max_backfill_attempts"`
}
