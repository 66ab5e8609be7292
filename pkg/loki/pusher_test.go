package loki

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockLogger struct{}

func (m *mockLogger) Error(msg string, args ...any) {
}

func Test_ConfigValidation(t *testing.T) {
	cfg := Config{}
	_, err := New(context.Background(), cfg, &mockLogger{})
	assert.Error(t, err)

	cfg.URL = "http://localhost:3100/loki/api/v1/push"
	cfg.AppName = "jobvector"
	pusher, err := New(context.Background(), cfg, &mockLogger{})
	assert.NoError(t, err)
	assert.Equal(t, cfg.URL, pusher.config.URL)
	assert.Equal(t, 1000, pusher.config.BatchMaxSize)
	assert.Equal(t, 5*time.Second, pusher.config.BatchMaxWait)
	assert.Equal(t, "jobvector", pusher.config.Labels["app"])
	pusher.Stop()
}
