package infrastructure

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/architeacher/svc-mq-factory/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		cfg       config.LoggingConfig
		wantLevel zerolog.Level
	}{
		{name: "debug", cfg: config.LoggingConfig{Level: "debug", Format: "json"}, wantLevel: zerolog.DebugLevel},
		{name: "upper case", cfg: config.LoggingConfig{Level: "WARN", Format: "json"}, wantLevel: zerolog.WarnLevel},
		{name: "unknown level", cfg: config.LoggingConfig{Level: "loud", Format: "json"}, wantLevel: zerolog.InfoLevel},
		{name: "empty level", cfg: config.LoggingConfig{Format: "json"}, wantLevel: zerolog.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			logger := NewWithWriter(tc.cfg, &bytes.Buffer{})
			assert.Equal(t, tc.wantLevel, logger.GetLevel())
		})
	}
}

func TestLogger_Component(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	componentLogger := logger.Component("queue-factory")
	componentLogger.Info().Msg("ready")

	entry := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "queue-factory", entry["component"])
	assert.Equal(t, "ready", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewWithWriter_Console(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewWithWriter(config.LoggingConfig{Level: "info", Format: "console"}, &buf)
	logger.Info().Str("identifier", "MySendQueue").Msg("queue ready")

	assert.Contains(t, buf.String(), "queue ready")
	assert.Contains(t, buf.String(), "MySendQueue")
	assert.False(t, json.Valid(buf.Bytes()))
}
