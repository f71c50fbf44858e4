// Package device plays clips on the system audio device through oto.
//
// Clips are raw signed 16-bit little-endian PCM files at the configured sample rate
// and channel count, or RIFF/WAVE files which are decoded into that format. Files are
// read once and cached for the lifetime of the backend.
package device

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ebitengine/oto/v3"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

const readyTimeout = 5 * time.Second

// ErrNoChannels is returned when MaxChannels players are already allocated.
var ErrNoChannels = errors.New("all device channels are in use")

// Config holds the device output format.
type Config struct {
	SampleRate  int
	Channels    int
	BufferSize  time.Duration
	MaxChannels int // 0 means unlimited
}

// Validate checks the output format.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.Newf("sample rate must be positive: %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return errors.Newf("channels must be 1 or 2: %d", c.Channels)
	}
	if c.BufferSize < 0 {
		return errors.Newf("buffer size must not be negative: %v", c.BufferSize)
	}
	if c.MaxChannels < 0 {
		return errors.Newf("max channels must not be negative: %d", c.MaxChannels)
	}
	return nil
}

// Duration returns how long size bytes of PCM play for.
func (c Config) Duration(size int) time.Duration {
	frame := c.Channels * 2
	if frame <= 0 || c.SampleRate <= 0 {
		return 0
	}
	frames := size / frame
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// Backend allocates oto players on a single device context.
type Backend struct {
	config  Config
	context *oto.Context

	mu     sync.Mutex
	cache  map[string][]byte
	active int
}

// New opens the audio device and waits until it is ready.
func New(config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid device config")
	}

	options := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}
	ctx, ready, err := oto.NewContext(options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create audio context")
	}

	select {
	case <-ready:
	case <-time.After(readyTimeout):
		return nil, errors.Newf("audio context not ready after %v", readyTimeout)
	}

	zlog.Info().Msgf("device: audio context ready: rate=%d channels=%d buffer=%v",
		config.SampleRate, config.Channels, config.BufferSize)

	return &Backend{
		config:  config,
		context: ctx,
		cache:   make(map[string][]byte),
	}, nil
}

// Create prepares a paused player for the clip.
func (b *Backend) Create(c *clip.Clip, looped bool) (sound.Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.config.MaxChannels > 0 && b.active >= b.config.MaxChannels {
		return nil, errors.Wrapf(ErrNoChannels, "limit %d", b.config.MaxChannels)
	}

	data, err := b.loadLocked(c.Path)
	if err != nil {
		return nil, err
	}

	var src io.ReadSeeker = bytes.NewReader(data)
	if looped {
		src = newLoopReader(data)
	}
	b.active++
	return &Handle{
		backend: b,
		player:  b.context.NewPlayer(src),
	}, nil
}

// Active returns the number of players not yet destroyed.
func (b *Backend) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *Backend) loadLocked(path string) ([]byte, error) {
	if data, ok := b.cache[path]; ok {
		return data, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read clip %s", path)
	}
	data, err := PCMData(raw, b.config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode clip %s", path)
	}
	b.cache[path] = data
	zlog.Debug().Msgf("device: loaded %s: %d bytes (%v)", path, len(data), b.config.Duration(len(data)))
	return data, nil
}

func (b *Backend) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active--
}

// Handle is one oto player.
type Handle struct {
	backend *Backend
	player  *oto.Player
	once    sync.Once
}

// Play starts or continues playback.
func (h *Handle) Play() {
	h.player.Play()
}

// Pause pauses playback.
func (h *Handle) Pause() {
	h.player.Pause()
}

// Resume continues playback after Pause.
func (h *Handle) Resume() {
	h.player.Play()
}

// Stop pauses playback and rewinds to the start.
func (h *Handle) Stop() {
	h.player.Pause()
	if _, err := h.player.Seek(0, io.SeekStart); err != nil {
		zlog.Debug().Msgf("device: failed to rewind player: %v", err)
	}
}

// SetVolume sets the player volume in [0,1].
func (h *Handle) SetVolume(volume float64) {
	h.player.SetVolume(volume)
}

// IsPlaying reports whether the player is still producing sound.
func (h *Handle) IsPlaying() bool {
	return h.player.IsPlaying()
}

// Destroy pauses the player for good and frees its channel.
// The player is reclaimed by oto once unreferenced.
func (h *Handle) Destroy() {
	h.once.Do(func() {
		h.player.Pause()
		h.backend.release()
	})
}
