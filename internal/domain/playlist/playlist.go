// Package playlist provides the Playlist domain entity.
package playlist

import (
	"math/rand/v2"

	"github.com/osa030/soundbox/internal/domain/clip"
)

// Playlist represents an ordered set of music clips.
type Playlist struct {
	Name  string       // Playlist name
	Clips []*clip.Clip // Clips in play order
}

// New creates a playlist from the given clips.
func New(name string, clips ...*clip.Clip) *Playlist {
	return &Playlist{
		Name:  name,
		Clips: clips,
	}
}

// Len returns the number of clips.
func (p *Playlist) Len() int {
	return len(p.Clips)
}

// Contains reports whether the clip is part of the playlist.
func (p *Playlist) Contains(c *clip.Clip) bool {
	for _, pc := range p.Clips {
		if pc == c {
			return true
		}
	}
	return false
}

// Shuffle reorders the clips in place (Fisher-Yates).
func (p *Playlist) Shuffle(rng *rand.Rand) {
	last := len(p.Clips) - 1
	for i := 0; i < last; i++ {
		r := i + rng.IntN(len(p.Clips)-i)
		p.Clips[i], p.Clips[r] = p.Clips[r], p.Clips[i]
	}
}

// PickNext picks a random clip that differs from last.
// With a single clip, that clip is returned even if it equals last.
// Returns nil for an empty playlist.
func (p *Playlist) PickNext(rng *rand.Rand, last *clip.Clip) *clip.Clip {
	candidates := p.Clips
	if len(p.Clips) > 1 {
		candidates = make([]*clip.Clip, 0, len(p.Clips))
		for _, c := range p.Clips {
			if c != last {
				candidates = append(candidates, c)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rng.IntN(len(candidates))]
}

// TotalDuration returns the sum of declared clip durations in seconds.
func (p *Playlist) TotalDuration() int64 {
	var total int64
	for _, c := range p.Clips {
		total += int64(c.Duration.Seconds())
	}
	return total
}
