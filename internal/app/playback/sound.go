package playback

import (
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/soundbox/internal/app/settings"
	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// PlaySound starts a sound effect and returns its session id.
// A nil clip is a no-op returning 0.
func (m *Manager) PlaySound(c *clip.Clip, looped bool, volumeProportion float64) (sound.ID, error) {
	if c == nil {
		zlog.Debug().Msg("playback: PlaySound called without a clip")
		return 0, nil
	}
	volumeProportion = settings.Clamp01(volumeProportion)

	m.mu.Lock()
	defer m.unlockAndDispatch()

	m.reclaimLocked()

	s, err := m.createLocked(sound.CategorySound, c, volumeProportion, looped)
	if err != nil {
		return 0, err
	}
	m.applyVolumeLocked(s)
	s.Handle().Play()
	return s.ID, nil
}

// Stop stops and releases the session with the given id. Unknown ids are ignored.
func (m *Manager) Stop(id sound.ID) {
	m.mu.Lock()
	defer m.unlockAndDispatch()

	s, ok := m.registry.Get(id)
	if !ok {
		zlog.Debug().Msgf("playback: Stop on unknown session %d", id)
		return
	}
	m.removeLocked(s, sound.EndStopped)
}

// StopClip stops every session, of either category, playing the clip.
func (m *Manager) StopClip(c *clip.Clip) {
	m.mu.Lock()
	defer m.unlockAndDispatch()

	for _, s := range m.registry.FindByClip(c) {
		m.removeLocked(s, sound.EndStopped)
	}
}

// Pause pauses a session. Paused sessions are never reclaimed.
func (m *Manager) Pause(id sound.ID) {
	m.mu.Lock()
	defer m.unlockAndDispatch()

	s, ok := m.registry.Get(id)
	if !ok {
		zlog.Debug().Msgf("playback: Pause on unknown session %d", id)
		return
	}
	if !s.Pending {
		s.Handle().Pause()
	}
	s.Paused = true
}

// Resume resumes a paused session.
func (m *Manager) Resume(id sound.ID) {
	m.mu.Lock()
	defer m.unlockAndDispatch()

	s, ok := m.registry.Get(id)
	if !ok {
		zlog.Debug().Msgf("playback: Resume on unknown session %d", id)
		return
	}
	if !s.Pending {
		s.Handle().Resume()
	}
	s.Paused = false
}

// IsPlaying reports whether the session exists and its primitive is playing.
func (m *Manager) IsPlaying(id sound.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.registry.Get(id)
	if !ok {
		return false
	}
	return s.IsPlaying()
}

// Reclaim removes every finished session and returns how many were freed.
func (m *Manager) Reclaim() int {
	m.mu.Lock()
	defer m.unlockAndDispatch()
	return m.reclaimLocked()
}

// reclaimLocked frees sessions whose primitive stopped on its own.
// Paused and pending sessions are skipped.
func (m *Manager) reclaimLocked() int {
	freed := 0
	for _, s := range m.registry.All() {
		if s.Paused || s.Pending || s.IsPlaying() {
			continue
		}
		m.removeLocked(s, sound.EndReclaimed)
		freed++
	}
	if freed > 0 {
		zlog.Debug().Msgf("playback: reclaimed %d finished sessions", freed)
	}
	return freed
}
