package playback

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// ErrChannelUnavailable marks failures to allocate a playback channel.
var ErrChannelUnavailable = errors.New("no playback channel available")

// Backend allocates playback channels.
type Backend interface {
	// Create prepares a stopped channel for the clip.
	Create(c *clip.Clip, looped bool) (sound.Handle, error)
}
