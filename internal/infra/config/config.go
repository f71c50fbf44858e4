// Package config provides configuration loading from YAML files and the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SOUNDBOX_"

// Config represents the application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Audio    AudioConfig    `yaml:"audio" envPrefix:"AUDIO_"`
	Store    StoreConfig    `yaml:"store" envPrefix:"STORE_"`
	Defaults DefaultsConfig `yaml:"defaults" envPrefix:"DEFAULTS_"`
	Playlist PlaylistConfig `yaml:"playlist" envPrefix:"PLAYLIST_"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" env:"OUTPUT" default:"stderr" validate:"required"`
	Level  string `yaml:"level" env:"LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	File   string `yaml:"file" env:"FILE"`
}

// AudioConfig represents playback device and manager timing configuration.
type AudioConfig struct {
	Backend           string `yaml:"backend" env:"BACKEND" default:"device" validate:"oneof=device virtual"`
	SampleRate        int    `yaml:"sample_rate" env:"SAMPLE_RATE" default:"48000" validate:"oneof=22050 44100 48000"`
	Channels          int    `yaml:"channels" env:"CHANNELS" default:"2" validate:"oneof=1 2"`
	BufferMs          int    `yaml:"buffer_ms" env:"BUFFER_MS" default:"50" validate:"gte=0,lte=1000"`
	MaxChannels       int    `yaml:"max_channels" env:"MAX_CHANNELS" validate:"gte=0"`
	TickIntervalMs    int    `yaml:"tick_interval_ms" env:"TICK_INTERVAL_MS" default:"16" validate:"gte=1,lte=1000"`
	ReclaimIntervalMs *int   `yaml:"reclaim_interval_ms" env:"RECLAIM_INTERVAL_MS" default:"500" validate:"omitempty,gte=0,lte=60000"`
	CompletionPollMs  int    `yaml:"completion_poll_ms" env:"COMPLETION_POLL_MS" default:"1000" validate:"gte=10,lte=60000"`
	NotifyTimeoutMs   int    `yaml:"notify_timeout_ms" env:"NOTIFY_TIMEOUT_MS" default:"500" validate:"gte=1,lte=30000"`
}

// StoreConfig represents settings persistence configuration.
// Settings are decoded by the selected store type.
type StoreConfig struct {
	Type     string         `yaml:"type" env:"TYPE" default:"file" validate:"oneof=memory file sqlite"`
	Settings map[string]any `yaml:"settings"`
}

// DefaultsConfig holds the settings used until something has been persisted.
type DefaultsConfig struct {
	SoundEnabled *bool    `yaml:"sound_enabled" env:"SOUND_ENABLED" default:"true"`
	MusicEnabled *bool    `yaml:"music_enabled" env:"MUSIC_ENABLED" default:"true"`
	SoundVolume  *float64 `yaml:"sound_volume" env:"SOUND_VOLUME" default:"1" validate:"omitempty,gte=0,lte=1"`
	MusicVolume  *float64 `yaml:"music_volume" env:"MUSIC_VOLUME" default:"1" validate:"omitempty,gte=0,lte=1"`
}

// PlaylistConfig represents the jukebox playlist.
type PlaylistConfig struct {
	Name          string   `yaml:"name" env:"NAME" default:"default"`
	Tracks        []string `yaml:"tracks" env:"TRACKS" envSeparator:","`
	Shuffle       bool     `yaml:"shuffle" env:"SHUFFLE"`
	Loop          *bool    `yaml:"loop" env:"LOOP" default:"true"`
	MixDurationMs *int     `yaml:"mix_duration_ms" env:"MIX_DURATION_MS" default:"2000" validate:"omitempty,gte=0,lte=60000"`
	Volume        *float64 `yaml:"volume" env:"VOLUME" default:"1" validate:"omitempty,gte=0,lte=1"`
}

// Load loads configuration from a YAML file.
// An empty path skips the file. Environment variables take precedence over file values,
// and anything still unset gets its default.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(err, "failed to parse environment")
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	switch strings.ToLower(c.Log.Output) {
	case "stdout", "stderr":
	default:
		if c.Log.File == "" {
			return errors.Newf("log.file is required when log.output is %q", c.Log.Output)
		}
	}

	for i, track := range c.Playlist.Tracks {
		if strings.TrimSpace(track) == "" {
			return errors.Newf("playlist.tracks[%d] is empty", i)
		}
	}

	return nil
}

// TickInterval returns how often the manager advances fades.
func (a AudioConfig) TickInterval() time.Duration {
	return time.Duration(a.TickIntervalMs) * time.Millisecond
}

// ReclaimInterval returns how often finished sessions are freed.
// Nil or 0 disables periodic reclamation.
func (a AudioConfig) ReclaimInterval() time.Duration {
	if a.ReclaimIntervalMs == nil {
		return 0
	}
	return time.Duration(*a.ReclaimIntervalMs) * time.Millisecond
}

// CompletionPoll returns how often single-shot music is checked for completion.
func (a AudioConfig) CompletionPoll() time.Duration {
	return time.Duration(a.CompletionPollMs) * time.Millisecond
}

// NotifyTimeout returns the per-listener delivery timeout.
func (a AudioConfig) NotifyTimeout() time.Duration {
	return time.Duration(a.NotifyTimeoutMs) * time.Millisecond
}

// BufferSize returns the device buffer length.
func (a AudioConfig) BufferSize() time.Duration {
	return time.Duration(a.BufferMs) * time.Millisecond
}

// MixDuration returns the crossfade length of the first playlist track.
func (p PlaylistConfig) MixDuration() time.Duration {
	if p.MixDurationMs == nil {
		return 0
	}
	return time.Duration(*p.MixDurationMs) * time.Millisecond
}
