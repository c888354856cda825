package logutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/tasktracker/backend/internal/config"
)

func TestGetOrDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)
	l := GetOrDefault(ctx)
	l.Info().Str("k", "v").Msg("hello")

	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New(config.LogConfig{Level: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	logger = New(config.LogConfig{Level: "DEBUG", Format: "console"})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}
