package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_Config_EnvironmentOverrideWorksCorrect(t *testing.T) {

	os.Setenv("CONFIG_PATH", "../../configs/config.yaml")

	os.Setenv("AI_KEYS", "key-one, key-two ,")
	os.Setenv("AI_MODEL", "super_duper_model")
	os.Setenv("AI_THROTTLE_DELAY", "3s")
	os.Setenv("DB_CONNECTION_STRING", "newConnectionString")
	os.Setenv("PORT", "9999")
	os.Setenv("REDIS_URL", "redis://localhost:6379/1")
	os.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Get()

	assert.Equal(t, "super_duper_model", cfg.AI.Model)
	assert.Equal(t, 3*time.Second, cfg.AI.ThrottleDelay)
	assert.Equal(t, []string{"key-one", "key-two"}, cfg.AI.KeyList())
	assert.Equal(t, "newConnectionString", cfg.DB.ConnectionString)
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, LevelDebug, cfg.Logger.LogLevel)
}

func Test_AIConfig_KeyListSkipsEmptyEntries(t *testing.T) {
	cfg := AIConfig{Keys: " , a ,, b "}
	assert.Equal(t, []string{"a", "b"}, cfg.KeyList())

	assert.Empty(t, AIConfig{}.KeyList())
}

func Test_AIConfig_BackoffScheduleParsing(t *testing.T) {
	cfg := AIConfig{RetryBackoff: "60s, 120s ,240s"}

	schedule, err := cfg.BackoffSchedule()
	assert.NoError(t, err)
	assert.Equal(t, []time.Duration{60 * time.Second, 120 * time.Second, 240 * time.Second}, schedule)

	cfg.RetryBackoff = "sixty seconds"
	_, err = cfg.BackoffSchedule()
	assert.Error(t, err)
}
