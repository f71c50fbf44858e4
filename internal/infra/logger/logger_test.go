package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected zerolog.Level
	}{
		{in: "debug", expected: zerolog.DebugLevel},
		{in: "DEBUG", expected: zerolog.DebugLevel},
		{in: "info", expected: zerolog.InfoLevel},
		{in: "", expected: zerolog.InfoLevel},
		{in: "warn", expected: zerolog.WarnLevel},
		{in: "warning", expected: zerolog.WarnLevel},
		{in: "error", expected: zerolog.ErrorLevel},
		{in: "verbose", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.in))
		})
	}
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "soundbox.log")

	closer, err := Init(Config{Output: "file", Level: "debug", File: path})
	require.NoError(t, err)

	zlog.Info().Msg("playback: started")
	zlog.Debug().Msg("playback: detail")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "playback: started", entry["message"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestInit_FileOutputRequiresPath(t *testing.T) {
	_, err := Init(Config{Output: "file"})
	assert.Error(t, err)
}

func TestInit_Console(t *testing.T) {
	closer, err := Init(Config{Output: "stderr", Level: "warn"})
	require.NoError(t, err)
	assert.NoError(t, closer.Close())
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}
