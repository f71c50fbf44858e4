package playback

import (
	"github.com/osa030/soundbox/internal/app/notification"
	"github.com/osa030/soundbox/internal/app/settings"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// SoundEnabled reports whether sound effects are audible.
func (m *Manager) SoundEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.SoundEnabled.Get()
}

// MusicEnabled reports whether music is audible.
func (m *Manager) MusicEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.MusicEnabled.Get()
}

// SoundVolume returns the global sound volume.
func (m *Manager) SoundVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.SoundVolume.Get()
}

// MusicVolume returns the global music volume.
func (m *Manager) MusicVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.MusicVolume.Get()
}

// Settings returns a snapshot of the four global settings.
func (m *Manager) Settings() settings.Defaults {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings.Snapshot()
}

// SetSoundEnabled mutes or unmutes every sound session and persists the flag.
func (m *Manager) SetSoundEnabled(v bool) {
	m.mu.Lock()
	defer m.unlockAndDispatch()
	m.setEnabledLocked(sound.CategorySound, m.settings.SoundEnabled, v)
}

// SetMusicEnabled mutes or unmutes every music session and persists the flag.
func (m *Manager) SetMusicEnabled(v bool) {
	m.mu.Lock()
	defer m.unlockAndDispatch()
	m.setEnabledLocked(sound.CategoryMusic, m.settings.MusicEnabled, v)
}

// SetSoundVolume clamps v to [0,1], persists it and applies it to every sound session.
func (m *Manager) SetSoundVolume(v float64) {
	m.mu.Lock()
	defer m.unlockAndDispatch()
	m.setVolumeLocked(sound.CategorySound, m.settings.SoundEnabled, m.settings.SoundVolume, v)
}

// SetMusicVolume clamps v to [0,1], persists it and applies it to every music session.
func (m *Manager) SetMusicVolume(v float64) {
	m.mu.Lock()
	defer m.unlockAndDispatch()
	m.setVolumeLocked(sound.CategoryMusic, m.settings.MusicEnabled, m.settings.MusicVolume, v)
}

func (m *Manager) setEnabledLocked(category sound.Category, enabled *settings.Value[bool], v bool) {
	if enabled.Get() == v {
		return
	}

	enabled.Set(v)
	for _, s := range m.registry.ByCategory(category) {
		m.applyVolumeLocked(s)
	}
	m.settingChangedLocked(enabled.Key(), enabled.Prev(), v)
}

func (m *Manager) setVolumeLocked(category sound.Category, enabled *settings.Value[bool], volume *settings.Value[float64], v float64) {
	v = settings.Clamp01(v)
	volume.Set(v)
	m.settingChangedLocked(volume.Key(), volume.Prev(), v)

	if !enabled.Get() {
		return
	}
	for _, s := range m.registry.ByCategory(category) {
		m.applyVolumeLocked(s)
	}
}

func (m *Manager) settingChangedLocked(key string, prev, value any) {
	m.pending = append(m.pending, notification.Event{
		Type:  notification.EventSettingChanged,
		Key:   key,
		Prev:  prev,
		Value: value,
	})
}
