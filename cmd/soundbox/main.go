// Package main provides the soundbox entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/soundbox/internal/app/jukebox"
	"github.com/osa030/soundbox/internal/app/notification"
	"github.com/osa030/soundbox/internal/app/playback"
	"github.com/osa030/soundbox/internal/app/settings"
	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/playlist"
	"github.com/osa030/soundbox/internal/infra/config"
	"github.com/osa030/soundbox/internal/infra/device"
	"github.com/osa030/soundbox/internal/infra/logger"
	"github.com/osa030/soundbox/internal/infra/store"
	"github.com/osa030/soundbox/internal/infra/virtual"
)

var (
	app        = kingpin.New("soundbox", "soundbox audio session manager")
	configPath = app.Flag("config", "Path to config file").Envar("SOUNDBOX_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	backend    = app.Flag("backend", "Playback backend override").Enum("device", "virtual")

	// play command (default)
	playCmd    = app.Command("play", "Play a playlist with auto-advance (default)").Default()
	playTracks = playCmd.Arg("clips", "Clip files (default: playlist.tracks)").Strings()
	playLoop   = playCmd.Flag("loop", "Loop the playlist").Bool()

	// sfx command
	sfxCmd    = app.Command("sfx", "Play a sound effect and wait for it to finish")
	sfxClip   = sfxCmd.Arg("clip", "Clip file").Required().String()
	sfxVolume = sfxCmd.Flag("volume", "Volume proportion").Default("1").Float64()

	// settings commands
	settingsCmd     = app.Command("settings", "Show or change persisted settings")
	settingsShowCmd = settingsCmd.Command("show", "Show the current settings").Default()
	settingsSetCmd  = settingsCmd.Command("set", "Change settings")
)

// settings set flags
var (
	soundEnabled    bool
	musicEnabled    bool
	soundVolume     float64
	musicVolume     float64
	soundEnabledSet bool
	musicEnabledSet bool
	soundVolumeSet  bool
	musicVolumeSet  bool
)

func init() {
	settingsSetCmd.Flag("sound-enabled", "Enable sound effects").IsSetByUser(&soundEnabledSet).BoolVar(&soundEnabled)
	settingsSetCmd.Flag("music-enabled", "Enable music").IsSetByUser(&musicEnabledSet).BoolVar(&musicEnabled)
	settingsSetCmd.Flag("sound-volume", "Sound volume in [0,1]").IsSetByUser(&soundVolumeSet).Float64Var(&soundVolume)
	settingsSetCmd.Flag("music-volume", "Music volume in [0,1]").IsSetByUser(&musicVolumeSet).Float64Var(&musicVolume)
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override the config file
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	if *backend != "" {
		cfg.Audio.Backend = *backend
	}

	switch command {
	case playCmd.FullCommand():
		err = runPlay(cfg)
	case sfxCmd.FullCommand():
		err = runSFX(cfg)
	case settingsShowCmd.FullCommand():
		err = runSettingsShow(cfg)
	case settingsSetCmd.FullCommand():
		err = runSettingsSet(cfg)
	}
	if err != nil {
		zlog.Error().Msgf("soundbox: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// services bundles the long-lived components of one invocation.
type services struct {
	store   store.Store
	manager *playback.Manager
	device  device.Config
}

func (r *services) Close() {
	r.manager.Close()
	if err := r.store.Close(); err != nil {
		zlog.Warn().Msgf("soundbox: failed to close store: %v", err)
	}
}

// newServices opens the settings store and the playback backend and creates the manager.
func newServices(cfg *config.Config, backendType string) (*services, error) {
	st, err := store.Open(cfg.Store.Type, cfg.Store.Settings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open settings store")
	}

	deviceConfig := device.Config{
		SampleRate:  cfg.Audio.SampleRate,
		Channels:    cfg.Audio.Channels,
		BufferSize:  cfg.Audio.BufferSize(),
		MaxChannels: cfg.Audio.MaxChannels,
	}

	var b playback.Backend
	switch backendType {
	case "device":
		b, err = device.New(deviceConfig)
		if err != nil {
			st.Close()
			return nil, errors.Wrap(err, "failed to open audio device")
		}
	default:
		b = virtual.New(virtual.WithMaxChannels(cfg.Audio.MaxChannels))
	}
	zlog.Info().Msgf("soundbox: backend=%s store=%s", backendType, cfg.Store.Type)

	m := playback.NewManager(playback.Config{
		TickInterval:           cfg.Audio.TickInterval(),
		ReclaimInterval:        cfg.Audio.ReclaimInterval(),
		CompletionPollInterval: cfg.Audio.CompletionPoll(),
		NotifyTimeout:          cfg.Audio.NotifyTimeout(),
	}, b, settings.New(st, settingsDefaults(cfg.Defaults)))

	return &services{store: st, manager: m, device: deviceConfig}, nil
}

func settingsDefaults(d config.DefaultsConfig) settings.Defaults {
	result := settings.DefaultValues()
	if d.SoundEnabled != nil {
		result.SoundEnabled = *d.SoundEnabled
	}
	if d.MusicEnabled != nil {
		result.MusicEnabled = *d.MusicEnabled
	}
	if d.SoundVolume != nil {
		result.SoundVolume = *d.SoundVolume
	}
	if d.MusicVolume != nil {
		result.MusicVolume = *d.MusicVolume
	}
	return result
}

// loadClips probes every file so clips carry their real duration.
func loadClips(paths []string, deviceConfig device.Config) ([]*clip.Clip, error) {
	clips := make([]*clip.Clip, 0, len(paths))
	for _, path := range paths {
		c, err := device.Probe(path, deviceConfig)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runPlay(cfg *config.Config) error {
	rt, err := newServices(cfg, cfg.Audio.Backend)
	if err != nil {
		return err
	}
	defer rt.Close()

	paths := cfg.Playlist.Tracks
	if len(*playTracks) > 0 {
		paths = *playTracks
	}
	clips, err := loadClips(paths, rt.device)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	go rt.manager.Run(ctx)

	loop := *playLoop || (cfg.Playlist.Loop != nil && *cfg.Playlist.Loop)
	volume := 1.0
	if cfg.Playlist.Volume != nil {
		volume = *cfg.Playlist.Volume
	}
	jb := jukebox.New(rt.manager, playlist.New(cfg.Playlist.Name, clips...), jukebox.Config{
		Shuffle:     cfg.Playlist.Shuffle,
		Loop:        loop,
		MixDuration: cfg.Playlist.MixDuration(),
		Volume:      volume,
	})
	if err := jb.Start(); err != nil {
		return errors.Wrap(err, "failed to start playlist")
	}
	defer jb.Stop()

	select {
	case <-ctx.Done():
		zlog.Info().Msg("soundbox: received shutdown signal")
	case <-jb.Done():
		zlog.Info().Msg("soundbox: playlist finished")
	}
	return nil
}

func runSFX(cfg *config.Config) error {
	rt, err := newServices(cfg, cfg.Audio.Backend)
	if err != nil {
		return err
	}
	defer rt.Close()

	clips, err := loadClips([]string{*sfxClip}, rt.device)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	go rt.manager.Run(ctx)

	id, err := rt.manager.PlaySound(clips[0], false, *sfxVolume)
	if err != nil {
		return errors.Wrap(err, "failed to play sound")
	}
	zlog.Info().Msgf("soundbox: playing %s: session=%d duration=%v", clips[0], id, clips[0].Duration)

	ticker := time.NewTicker(cfg.Audio.CompletionPoll())
	defer ticker.Stop()
	for rt.manager.IsPlaying(id) {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

func runSettingsShow(cfg *config.Config) error {
	rt, err := newServices(cfg, "virtual")
	if err != nil {
		return err
	}
	defer rt.Close()

	printSettings(rt.manager.Settings())
	return nil
}

func runSettingsSet(cfg *config.Config) error {
	rt, err := newServices(cfg, "virtual")
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.manager.Subscribe(notification.ListenerFunc(func(e notification.Event) error {
		if e.Type == notification.EventSettingChanged {
			fmt.Printf("%s: %v -> %v\n", e.Key, e.Prev, e.Value)
		}
		return nil
	}))

	if soundEnabledSet {
		rt.manager.SetSoundEnabled(soundEnabled)
	}
	if musicEnabledSet {
		rt.manager.SetMusicEnabled(musicEnabled)
	}
	if soundVolumeSet {
		rt.manager.SetSoundVolume(soundVolume)
	}
	if musicVolumeSet {
		rt.manager.SetMusicVolume(musicVolume)
	}

	printSettings(rt.manager.Settings())
	return nil
}

func printSettings(s settings.Defaults) {
	fmt.Printf("%-15s %t\n", "sound_enabled", s.SoundEnabled)
	fmt.Printf("%-15s %t\n", "music_enabled", s.MusicEnabled)
	fmt.Printf("%-15s %.2f\n", "sound_volume", s.SoundVolume)
	fmt.Printf("%-15s %.2f\n", "music_volume", s.MusicVolume)
}
