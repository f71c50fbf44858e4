package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func boolPtr(v bool) *bool {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

func validConfig() Config {
	return Config{
		Log:   LogConfig{Output: "stderr", Level: "info"},
		Audio: AudioConfig{Backend: "virtual", SampleRate: 48000, Channels: 2, TickIntervalMs: 16, CompletionPollMs: 1000, NotifyTimeoutMs: 500, ReclaimIntervalMs: intPtr(500)},
		Store: StoreConfig{Type: "memory"},
		Defaults: DefaultsConfig{
			SoundEnabled: boolPtr(true),
			MusicEnabled: boolPtr(true),
			SoundVolume:  floatPtr(1),
			MusicVolume:  floatPtr(1),
		},
		Playlist: PlaylistConfig{Loop: boolPtr(true), Volume: floatPtr(1), MixDurationMs: intPtr(0)},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "stderr", cfg.Log.Output)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "device", cfg.Audio.Backend)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.Equal(t, 2, cfg.Audio.Channels)
	assert.Equal(t, 16*time.Millisecond, cfg.Audio.TickInterval())
	assert.Equal(t, 500*time.Millisecond, cfg.Audio.ReclaimInterval())
	assert.Equal(t, time.Second, cfg.Audio.CompletionPoll())
	assert.Equal(t, 50*time.Millisecond, cfg.Audio.BufferSize())
	assert.Equal(t, "file", cfg.Store.Type)
	assert.True(t, *cfg.Defaults.SoundEnabled)
	assert.True(t, *cfg.Defaults.MusicEnabled)
	assert.Equal(t, 1.0, *cfg.Defaults.SoundVolume)
	assert.Equal(t, 1.0, *cfg.Defaults.MusicVolume)
	assert.True(t, *cfg.Playlist.Loop)
	assert.Equal(t, 2*time.Second, cfg.Playlist.MixDuration())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
audio:
  backend: virtual
  sample_rate: 44100
  channels: 1
  reclaim_interval_ms: 0
store:
  type: sqlite
  settings:
    path: /tmp/soundbox.db
defaults:
  music_enabled: false
  sound_volume: 0
playlist:
  tracks:
    - music/a.pcm
    - music/b.pcm
  shuffle: true
  loop: false
  mix_duration_ms: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "virtual", cfg.Audio.Backend)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, 1, cfg.Audio.Channels)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "/tmp/soundbox.db", cfg.Store.Settings["path"])
	assert.False(t, *cfg.Defaults.MusicEnabled, "explicit false survives defaults")
	assert.Equal(t, 0.0, *cfg.Defaults.SoundVolume, "explicit zero survives defaults")
	assert.True(t, *cfg.Defaults.SoundEnabled)
	assert.Equal(t, []string{"music/a.pcm", "music/b.pcm"}, cfg.Playlist.Tracks)
	assert.True(t, cfg.Playlist.Shuffle)
	assert.False(t, *cfg.Playlist.Loop)
	assert.Equal(t, time.Duration(0), cfg.Playlist.MixDuration(), "explicit zero mix survives defaults")
	assert.Equal(t, time.Duration(0), cfg.Audio.ReclaimInterval())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
audio:
  backend: device
playlist:
  tracks: [file.pcm]
`)
	t.Setenv("SOUNDBOX_AUDIO_BACKEND", "virtual")
	t.Setenv("SOUNDBOX_LOG_LEVEL", "warn")
	t.Setenv("SOUNDBOX_DEFAULTS_MUSIC_VOLUME", "0.25")
	t.Setenv("SOUNDBOX_PLAYLIST_TRACKS", "x.pcm,y.pcm")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "virtual", cfg.Audio.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 0.25, *cfg.Defaults.MusicVolume)
	assert.Equal(t, []string{"x.pcm", "y.pcm"}, cfg.Playlist.Tracks)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed yaml", content: "audio: [oops"},
		{name: "unknown backend", content: "audio:\n  backend: alsa\n"},
		{name: "bad sample rate", content: "audio:\n  sample_rate: 12345\n"},
		{name: "volume above one", content: "defaults:\n  music_volume: 1.5\n"},
		{name: "unknown store", content: "store:\n  type: redis\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(*Config) {},
		},
		{
			name: "file output without path",
			modify: func(c *Config) {
				c.Log.Output = "file"
			},
			wantErr: true,
			errMsg:  "log.file",
		},
		{
			name: "file output with path",
			modify: func(c *Config) {
				c.Log.Output = "file"
				c.Log.File = "/var/log/soundbox.log"
			},
		},
		{
			name: "blank track",
			modify: func(c *Config) {
				c.Playlist.Tracks = []string{"a.pcm", " "}
			},
			wantErr: true,
			errMsg:  "playlist.tracks[1]",
		},
		{
			name: "negative mix",
			modify: func(c *Config) {
				c.Playlist.MixDurationMs = intPtr(-1)
			},
			wantErr: true,
			errMsg:  "MixDurationMs",
		},
		{
			name: "zero tick interval",
			modify: func(c *Config) {
				c.Audio.TickIntervalMs = 0
			},
			wantErr: true,
			errMsg:  "TickIntervalMs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
