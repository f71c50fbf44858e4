// Package sound provides the playback Session domain entity.
package sound

import (
	"time"

	"github.com/osa030/soundbox/internal/domain/clip"
)

// ID identifies a session for the lifetime of a manager. Zero means "no session".
type ID uint64

// Category selects which global volume/enable pair governs a session.
type Category int

const (
	CategorySound Category = iota // Sound effects
	CategoryMusic                 // Music tracks
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategorySound:
		return "sound"
	case CategoryMusic:
		return "music"
	default:
		return "unknown"
	}
}

// EndReason records why a session left the registry.
type EndReason int

const (
	EndNone      EndReason = iota // Still registered
	EndStopped                    // Stopped explicitly by a caller
	EndReplaced                   // Torn down because new music started
	EndReclaimed                  // Playback finished on its own
)

// String returns the string representation of the end reason.
func (r EndReason) String() string {
	switch r {
	case EndNone:
		return "none"
	case EndStopped:
		return "stopped"
	case EndReplaced:
		return "replaced"
	case EndReclaimed:
		return "reclaimed"
	default:
		return "unknown"
	}
}

// Handle is one channel of the underlying playback primitive.
type Handle interface {
	Play()
	Pause()
	Resume()
	Stop()
	SetVolume(volume float64)
	IsPlaying() bool
	Destroy()
}

// Session represents a single active playback channel.
type Session struct {
	ID              ID
	Category        Category
	Clip            *clip.Clip
	RequestedVolume float64 // Proportion of the category volume, in [0,1]
	Looping         bool
	Paused          bool
	Pending         bool    // Music waiting for a delayed start
	Gain            float64 // Fade level in [0,1] applied on top of the category volume
	CreatedAt       time.Time

	handle Handle
	volume float64
	ended  EndReason
}

// NewSession creates a session wrapping the given handle.
func NewSession(category Category, c *clip.Clip, requested float64, looping bool, handle Handle) *Session {
	return &Session{
		Category:        category,
		Clip:            c,
		RequestedVolume: requested,
		Looping:         looping,
		Gain:            1,
		CreatedAt:       time.Now(),
		handle:          handle,
	}
}

// IsMusic reports whether the session belongs to the music category.
func (s *Session) IsMusic() bool {
	return s.Category == CategoryMusic
}

// Volume returns the last volume written to the handle.
func (s *Session) Volume() float64 {
	return s.volume
}

// SetVolume writes the volume to the handle. Ignored once the session has ended.
func (s *Session) SetVolume(v float64) {
	if s.ended != EndNone {
		return
	}
	s.volume = v
	s.handle.SetVolume(v)
}

// Handle returns the playback handle, or nil after release.
func (s *Session) Handle() Handle {
	return s.handle
}

// IsPlaying reports whether the underlying primitive is playing.
func (s *Session) IsPlaying() bool {
	if s.handle == nil {
		return false
	}
	return s.handle.IsPlaying()
}

// Ended returns the reason the session was removed, or EndNone while it is live.
func (s *Session) Ended() EndReason {
	return s.ended
}

// Alive reports whether the session has not been released yet.
func (s *Session) Alive() bool {
	return s.ended == EndNone
}

// Release stops the primitive and destroys the handle. Only the first call has an effect.
func (s *Session) Release(reason EndReason, stop bool) {
	if s.ended != EndNone {
		return
	}
	s.ended = reason
	if s.handle == nil {
		return
	}
	if stop {
		s.handle.Stop()
	}
	s.handle.Destroy()
	s.handle = nil
}
