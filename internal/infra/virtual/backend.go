// Package virtual provides a simulated playback device driven by a clock.
// Each channel plays for its clip's declared duration; nothing is audible.
package virtual

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// ErrNoChannels is returned when every channel is in use.
var ErrNoChannels = errors.New("all virtual channels are in use")

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Backend.
type Option func(*Backend)

// WithClock sets the time source. Defaults to time.Now.
func WithClock(clock Clock) Option {
	return func(b *Backend) {
		b.clock = clock
	}
}

// WithMaxChannels limits how many handles may exist at once. 0 means unlimited.
func WithMaxChannels(n int) Option {
	return func(b *Backend) {
		b.maxChannels = n
	}
}

// WithDefaultDuration sets the length used for clips without a declared duration.
// 0 means such clips play until stopped.
func WithDefaultDuration(d time.Duration) Option {
	return func(b *Backend) {
		b.defaultDuration = d
	}
}

// Backend hands out simulated channels.
type Backend struct {
	mu              sync.Mutex
	clock           Clock
	maxChannels     int
	defaultDuration time.Duration
	handles         []*Handle
	created         int
}

// New creates a virtual backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		clock:   time.Now,
		handles: make([]*Handle, 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Create allocates a stopped channel for the clip.
func (b *Backend) Create(c *clip.Clip, looped bool) (sound.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxChannels > 0 && len(b.handles) >= b.maxChannels {
		return nil, errors.Wrapf(ErrNoChannels, "limit %d", b.maxChannels)
	}

	duration := c.Duration
	if duration <= 0 {
		duration = b.defaultDuration
	}
	h := &Handle{
		backend:  b,
		clip:     c,
		looped:   looped,
		duration: duration,
	}
	b.handles = append(b.handles, h)
	b.created++
	return h, nil
}

// Active returns the number of handles not yet destroyed.
func (b *Backend) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handles)
}

// Created returns the number of handles ever created.
func (b *Backend) Created() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.created
}

// HandlesFor returns the live handles playing the clip, oldest first.
func (b *Backend) HandlesFor(c *clip.Clip) []*Handle {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]*Handle, 0)
	for _, h := range b.handles {
		if h.clip == c {
			result = append(result, h)
		}
	}
	return result
}

func (b *Backend) release(h *Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, cur := range b.handles {
		if cur == h {
			b.handles = append(b.handles[:i], b.handles[i+1:]...)
			return
		}
	}
}

// Handle is one simulated channel.
type Handle struct {
	mu       sync.Mutex
	backend  *Backend
	clip     *clip.Clip
	looped   bool
	duration time.Duration

	volume    float64
	playing   bool
	started   bool
	startedAt time.Time
	position  time.Duration // Accumulated before startedAt
	destroyed bool
}

// Play starts playback from the beginning.
func (h *Handle) Play() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed {
		return
	}
	h.position = 0
	h.started = true
	h.playing = true
	h.startedAt = h.backend.clock()
}

// Pause freezes the playback position.
func (h *Handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return
	}
	h.position = h.positionLocked()
	h.playing = false
}

// Resume continues from the paused position. Does nothing before the first Play.
func (h *Handle) Resume() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.destroyed || h.playing || !h.started {
		return
	}
	h.playing = true
	h.startedAt = h.backend.clock()
}

// Stop halts playback and rewinds.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playing = false
	h.position = 0
}

// SetVolume records the output volume.
func (h *Handle) SetVolume(volume float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = volume
}

// Volume returns the last volume set.
func (h *Handle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

// IsPlaying reports whether the channel is playing and has not reached the clip end.
func (h *Handle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing {
		return false
	}
	if h.looped || h.duration <= 0 {
		return true
	}
	return h.positionLocked() < h.duration
}

// Position returns the playback position, wrapped for looping channels.
func (h *Handle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	pos := h.positionLocked()
	if h.looped && h.duration > 0 {
		return pos % h.duration
	}
	if h.duration > 0 && pos > h.duration {
		return h.duration
	}
	return pos
}

// Destroyed reports whether Destroy was called.
func (h *Handle) Destroyed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.destroyed
}

// Destroy releases the channel.
func (h *Handle) Destroy() {
	h.mu.Lock()
	if h.destroyed {
		h.mu.Unlock()
		return
	}
	h.destroyed = true
	h.playing = false
	h.mu.Unlock()

	h.backend.release(h)
}

func (h *Handle) positionLocked() time.Duration {
	if !h.playing {
		return h.position
	}
	return h.position + h.backend.clock().Sub(h.startedAt)
}
