// Package playback provides the audio session manager: sound and music playback,
// fades and crossfades, volume cascades and reclamation of finished sessions.
package playback

import (
	"time"

	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// State represents the playback state of a session.
type State int

const (
	StatePending  State = iota // Music waiting for a delayed start
	StatePlaying               // Primitive is playing
	StatePaused                // Paused by a caller
	StateFinished              // Primitive stopped; waiting to be reclaimed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// SessionInfo is a read-only snapshot of a live session.
type SessionInfo struct {
	ID              sound.ID
	Category        sound.Category
	Clip            *clip.Clip
	State           State
	Volume          float64
	RequestedVolume float64
	Looping         bool
	Age             time.Duration
}

func stateOf(s *sound.Session) State {
	switch {
	case s.Paused:
		return StatePaused
	case s.Pending:
		return StatePending
	case s.IsPlaying():
		return StatePlaying
	default:
		return StateFinished
	}
}
