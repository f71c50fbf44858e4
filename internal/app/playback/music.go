package playback

import (
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/soundbox/internal/app/notification"
	"github.com/osa030/soundbox/internal/app/settings"
	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// PlayMusic replaces the current music with a single-shot track.
//
// With fadeDuration 0 the previous music stops at once and the new track starts at full
// volume. Otherwise the previous music fades out over fadeDuration and the new track
// fades in afterwards, so the two ramps are sequenced. Every scheduled fade and
// completion wait is cancelled first. Listeners get EventMusicCompleted when the
// track ends on its own.
func (m *Manager) PlayMusic(c *clip.Clip, fadeDuration time.Duration, volumeProportion float64) (sound.ID, error) {
	if c == nil {
		zlog.Debug().Msg("playback: PlayMusic called without a clip")
		return 0, nil
	}
	fadeDuration = max(fadeDuration, 0)
	volumeProportion = settings.Clamp01(volumeProportion)

	m.mu.Lock()
	defer m.unlockAndDispatch()

	m.scheduler.CancelAll()
	musicPlaying := m.stopPrevMusicLocked(fadeDuration)
	m.reclaimLocked()

	s, err := m.createLocked(sound.CategoryMusic, c, volumeProportion, false)
	if err != nil {
		return 0, err
	}

	if fadeDuration == 0 {
		m.applyVolumeLocked(s)
		s.Handle().Play()
		m.waitForFinishLocked(s)
		return s.ID, nil
	}

	s.Gain = 0
	m.applyVolumeLocked(s)
	s.Pending = true
	var delay time.Duration
	if musicPlaying {
		delay = fadeDuration
	}
	m.scheduler.FadeAfter(fader{m, s}, delay, fadeDuration, 1, func() {
		s.Pending = false
		s.Handle().Play()
		if s.Paused {
			s.Handle().Pause()
		}
		m.waitForFinishLocked(s)
	}, nil)
	zlog.Debug().Msgf("playback: music %d scheduled: delay=%v fade=%v", s.ID, delay, fadeDuration)
	return s.ID, nil
}

// PlayMusicWithMix replaces the current music with a looping track, crossfading the
// outgoing and incoming tracks concurrently over mixDuration.
func (m *Manager) PlayMusicWithMix(c *clip.Clip, mixDuration time.Duration, volumeProportion float64) (sound.ID, error) {
	if c == nil {
		zlog.Debug().Msg("playback: PlayMusicWithMix called without a clip")
		return 0, nil
	}
	mixDuration = max(mixDuration, 0)
	volumeProportion = settings.Clamp01(volumeProportion)

	m.mu.Lock()
	defer m.unlockAndDispatch()

	m.scheduler.CancelAll()
	m.stopPrevMusicLocked(mixDuration)
	m.reclaimLocked()

	s, err := m.createLocked(sound.CategoryMusic, c, volumeProportion, true)
	if err != nil {
		return 0, err
	}

	if mixDuration > 0 {
		s.Gain = 0
		m.scheduler.Fade(fader{m, s}, mixDuration, 1, nil)
	}
	m.applyVolumeLocked(s)
	s.Handle().Play()
	return s.ID, nil
}

// IsClipPlaying reports whether any music session wraps the clip and is playing.
func (m *Manager) IsClipPlaying(c *clip.Clip) bool {
	if c == nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.registry.FindByClip(c) {
		if s.IsMusic() && s.IsPlaying() {
			return true
		}
	}
	return false
}

// stopPrevMusicLocked tears down every music session, fading it out first when
// fadeDuration is positive. Reports whether any of them was audibly playing;
// finished, paused and pending tracks do not count.
func (m *Manager) stopPrevMusicLocked(fadeDuration time.Duration) bool {
	playing := false
	for _, s := range m.registry.ByCategory(sound.CategoryMusic) {
		if s.IsPlaying() {
			playing = true
		}
		if fadeDuration == 0 {
			m.removeLocked(s, sound.EndReplaced)
			continue
		}
		m.scheduler.Fade(fader{m, s}, fadeDuration, 0, func() {
			m.removeLocked(s, sound.EndReplaced)
		})
	}
	return playing
}

// waitForFinishLocked polls the session until its playback ends and then raises
// EventMusicCompleted. Sessions stopped or replaced by a caller end the wait silently.
func (m *Manager) waitForFinishLocked(s *sound.Session) {
	m.scheduler.Wait(m.config.CompletionPollInterval, func() bool {
		if !s.Alive() {
			return true
		}
		return !s.Paused && !s.Pending && !s.IsPlaying()
	}, func() {
		switch s.Ended() {
		case sound.EndNone, sound.EndReclaimed:
			zlog.Debug().Msgf("playback: music %d completed", s.ID)
			m.pending = append(m.pending, notification.Event{
				Type:      notification.EventMusicCompleted,
				SessionID: s.ID,
			})
		default:
			zlog.Debug().Msgf("playback: music %d ended without completion: %s", s.ID, s.Ended())
		}
	})
}
