package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{JSON: true, Out: &buf})

	logger.Info().Str("agent", "Random").Msg("hello")
	logger.Debug().Msg("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Random", entry["agent"])
	assert.Equal(t, "hello", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want zerolog.Level
	}{
		{"default", Options{}, zerolog.InfoLevel},
		{"named", Options{Level: "WARN"}, zerolog.WarnLevel},
		{"unknown", Options{Level: "loud"}, zerolog.InfoLevel},
		{"debug flag wins", Options{Level: "error", Debug: true}, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Out = &bytes.Buffer{}
			assert.Equal(t, tt.want, New(tt.opts).GetLevel())
		})
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Out: &buf})
	logger.Info().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
}
