// Package registry provides the session registry that owns live playback sessions.
package registry

import (
	"slices"

	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// SessionRegistry tracks live sessions and allocates their ids.
// It is not safe for concurrent use; the owner serializes access.
type SessionRegistry struct {
	sessions map[sound.ID]*sound.Session
	lastID   sound.ID
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[sound.ID]*sound.Session),
	}
}

// Add registers the session and assigns it the next id.
func (r *SessionRegistry) Add(s *sound.Session) sound.ID {
	r.lastID++
	s.ID = r.lastID
	r.sessions[s.ID] = s
	return s.ID
}

// Remove unregisters the session with the given id.
func (r *SessionRegistry) Remove(id sound.ID) (*sound.Session, bool) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	return s, true
}

// Get retrieves a session by id.
func (r *SessionRegistry) Get(id sound.ID) (*sound.Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// Contains reports whether the given session is still registered.
func (r *SessionRegistry) Contains(s *sound.Session) bool {
	if s == nil {
		return false
	}
	cur, ok := r.sessions[s.ID]
	return ok && cur == s
}

// ByCategory returns the sessions of the given category in id order.
func (r *SessionRegistry) ByCategory(category sound.Category) []*sound.Session {
	return r.filter(func(s *sound.Session) bool {
		return s.Category == category
	})
}

// FindByClip returns the sessions wrapping the given clip in id order.
func (r *SessionRegistry) FindByClip(c *clip.Clip) []*sound.Session {
	if c == nil {
		return nil
	}
	return r.filter(func(s *sound.Session) bool {
		return s.Clip == c
	})
}

// All returns every session in id order.
func (r *SessionRegistry) All() []*sound.Session {
	return r.filter(func(*sound.Session) bool { return true })
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	return len(r.sessions)
}

// LastID returns the most recently allocated id.
func (r *SessionRegistry) LastID() sound.ID {
	return r.lastID
}

func (r *SessionRegistry) filter(keep func(*sound.Session) bool) []*sound.Session {
	result := make([]*sound.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if keep(s) {
			result = append(result, s)
		}
	}
	slices.SortFunc(result, func(a, b *sound.Session) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return result
}
