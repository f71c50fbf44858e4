package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/soundbox/internal/app/fade"
	"github.com/osa030/soundbox/internal/app/notification"
	"github.com/osa030/soundbox/internal/app/registry"
	"github.com/osa030/soundbox/internal/app/settings"
	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// Config holds manager configuration.
type Config struct {
	TickInterval           time.Duration // How often Run advances fades
	ReclaimInterval        time.Duration // How often Tick reclaims finished sessions (0 disables)
	CompletionPollInterval time.Duration // How often single-shot music is checked for completion
	NotifyTimeout          time.Duration // Per-listener delivery timeout
}

// DefaultConfig returns a 60Hz tick, half-second reclamation and one-second completion polling.
func DefaultConfig() Config {
	return Config{
		TickInterval:           time.Second / 60,
		ReclaimInterval:        500 * time.Millisecond,
		CompletionPollInterval: time.Second,
		NotifyTimeout:          500 * time.Millisecond,
	}
}

// Manager multiplexes sound and music sessions over a playback backend.
// All operations are safe for concurrent use; listeners are notified outside the lock
// and may call back into the manager.
type Manager struct {
	mu sync.Mutex

	config   Config
	backend  Backend
	settings *settings.Settings

	registry  *registry.SessionRegistry
	scheduler *fade.Scheduler
	notifier  *notification.Manager

	// Events raised while locked, broadcast on unlock
	pending []notification.Event

	sinceReclaim time.Duration
	closed       bool
}

// NewManager creates a manager. Settings are loaded lazily on first use.
func NewManager(config Config, backend Backend, s *settings.Settings) *Manager {
	defaults := DefaultConfig()
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	if config.CompletionPollInterval <= 0 {
		config.CompletionPollInterval = defaults.CompletionPollInterval
	}
	if config.ReclaimInterval < 0 {
		config.ReclaimInterval = 0
	}
	return &Manager{
		config:    config,
		backend:   backend,
		settings:  s,
		registry:  registry.NewSessionRegistry(),
		scheduler: fade.NewScheduler(),
		notifier:  notification.NewManager(config.NotifyTimeout),
	}
}

// Subscribe registers a listener for music completion and settings changes.
func (m *Manager) Subscribe(l notification.Listener) string {
	return m.notifier.Subscribe(l)
}

// Unsubscribe removes a listener.
func (m *Manager) Unsubscribe(id string) {
	m.notifier.Unsubscribe(id)
}

// Tick advances fades and waits by dt and periodically reclaims finished sessions.
func (m *Manager) Tick(dt time.Duration) {
	m.mu.Lock()
	defer m.unlockAndDispatch()

	if m.closed {
		return
	}
	if dt < 0 {
		dt = 0
	}
	m.scheduler.Advance(dt)

	if m.config.ReclaimInterval > 0 {
		m.sinceReclaim += dt
		if m.sinceReclaim >= m.config.ReclaimInterval {
			m.sinceReclaim = 0
			m.reclaimLocked()
		}
	}
}

// Run calls Tick with wall-clock deltas every TickInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.TickInterval)
	defer ticker.Stop()

	last := toWallTime(time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := toWallTime(time.Now())
			dt := now.Sub(last)
			last = now
			m.Tick(dt)
		}
	}
}

// Close stops every session, cancels all scheduled tasks and drops all listeners.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.scheduler.CancelAll()
	for _, s := range m.registry.All() {
		m.removeLocked(s, sound.EndStopped)
	}
	m.pending = nil
	m.mu.Unlock()

	m.notifier.Close()
}

// Sessions returns a snapshot of every live session in id order.
func (m *Manager) Sessions() []SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	all := m.registry.All()
	result := make([]SessionInfo, 0, len(all))
	for _, s := range all {
		result = append(result, SessionInfo{
			ID:              s.ID,
			Category:        s.Category,
			Clip:            s.Clip,
			State:           stateOf(s),
			Volume:          s.Volume(),
			RequestedVolume: s.RequestedVolume,
			Looping:         s.Looping,
			Age:             now.Sub(s.CreatedAt),
		})
	}
	return result
}

// Session returns a snapshot of one session.
func (m *Manager) Session(id sound.ID) (SessionInfo, bool) {
	for _, info := range m.Sessions() {
		if info.ID == id {
			return info, true
		}
	}
	return SessionInfo{}, false
}

// PendingTasks returns the number of scheduled fades and waits.
func (m *Manager) PendingTasks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scheduler.Len()
}

// unlockAndDispatch releases the lock, then broadcasts events raised while it was held.
func (m *Manager) unlockAndDispatch() {
	events := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, e := range events {
		m.notifier.Broadcast(e)
	}
}

func (m *Manager) createLocked(category sound.Category, c *clip.Clip, requested float64, looped bool) (*sound.Session, error) {
	if m.closed {
		return nil, errors.New("manager is closed")
	}
	handle, err := m.backend.Create(c, looped)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "failed to create %s channel for %s", category, c), ErrChannelUnavailable)
	}
	s := sound.NewSession(category, c, requested, looped, handle)
	m.registry.Add(s)
	zlog.Debug().Msgf("playback: session created: id=%d category=%s clip=%s looped=%t", s.ID, category, c, looped)
	return s, nil
}

// removeLocked unregisters the session and releases its handle.
func (m *Manager) removeLocked(s *sound.Session, reason sound.EndReason) {
	if !m.registry.Contains(s) {
		return
	}
	m.registry.Remove(s.ID)
	s.Release(reason, true)
	zlog.Debug().Msgf("playback: session removed: id=%d reason=%s", s.ID, reason)
}

// volumeFor computes the effective volume of a session from the global settings.
func (m *Manager) volumeFor(category sound.Category, requested float64) float64 {
	if category == sound.CategoryMusic {
		if !m.settings.MusicEnabled.Get() {
			return 0
		}
		return requested * m.settings.MusicVolume.Get()
	}
	if !m.settings.SoundEnabled.Get() {
		return 0
	}
	return requested * m.settings.SoundVolume.Get()
}

// applyVolumeLocked writes the session's fade gain scaled by the category settings.
func (m *Manager) applyVolumeLocked(s *sound.Session) {
	s.SetVolume(s.Gain * m.volumeFor(s.Category, s.RequestedVolume))
}

// fader exposes a session's gain to the fade scheduler. Every step goes through
// applyVolumeLocked, so settings changed mid-ramp hold.
type fader struct {
	m *Manager
	s *sound.Session
}

func (f fader) Volume() float64 {
	return f.s.Gain
}

func (f fader) SetVolume(v float64) {
	f.s.Gain = v
	f.m.applyVolumeLocked(f.s)
}

func (f fader) Alive() bool {
	return f.s.Alive()
}

// toWallTime returns the time with monotonic clock stripped.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
