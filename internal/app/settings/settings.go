package settings

import "math"

// Keys under which the global settings are persisted.
const (
	KeySoundEnabled = "SoundManager.soundEnabled"
	KeyMusicEnabled = "SoundManager.musicEnabled"
	KeySoundVolume  = "SoundManager.soundVolume"
	KeyMusicVolume  = "SoundManager.musicVolume"
)

// Defaults holds the values used when the store has nothing saved yet.
type Defaults struct {
	SoundEnabled bool
	MusicEnabled bool
	SoundVolume  float64
	MusicVolume  float64
}

// DefaultValues returns everything enabled at full volume.
func DefaultValues() Defaults {
	return Defaults{
		SoundEnabled: true,
		MusicEnabled: true,
		SoundVolume:  1,
		MusicVolume:  1,
	}
}

// Settings groups the four global sound settings.
type Settings struct {
	SoundEnabled *Value[bool]
	MusicEnabled *Value[bool]
	SoundVolume  *Value[float64]
	MusicVolume  *Value[float64]
}

// New creates the settings backed by store.
func New(store Store, defaults Defaults) *Settings {
	return &Settings{
		SoundEnabled: NewValue(store, KeySoundEnabled, defaults.SoundEnabled),
		MusicEnabled: NewValue(store, KeyMusicEnabled, defaults.MusicEnabled),
		SoundVolume:  NewValue(store, KeySoundVolume, defaults.SoundVolume).WithNormalize(Clamp01),
		MusicVolume:  NewValue(store, KeyMusicVolume, defaults.MusicVolume).WithNormalize(Clamp01),
	}
}

// Snapshot returns the current values, loading them if needed.
func (s *Settings) Snapshot() Defaults {
	return Defaults{
		SoundEnabled: s.SoundEnabled.Get(),
		MusicEnabled: s.MusicEnabled.Get(),
		SoundVolume:  s.SoundVolume.Get(),
		MusicVolume:  s.MusicVolume.Get(),
	}
}

// Clamp01 saturates v to [0,1]. NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
