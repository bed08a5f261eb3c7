package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerTo_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, Config{Level: "debug", Format: "json"})

	logger.Debug().Str("address", "abc").Msg("queued")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "abc", line["address"])
	assert.Equal(t, "queued", line["message"])
	assert.Contains(t, line, "time")
}

func TestNewLoggerTo_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLoggerTo(&bytes.Buffer{}, Config{Level: tt.level})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNewLoggerTo_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, Config{Format: "console"})

	logger.Info().Msg("started")

	assert.Contains(t, buf.String(), "started")
	assert.False(t, json.Valid(buf.Bytes()))
}
