// Package jukebox plays a playlist through the playback manager, advancing to the
// next track whenever the current one completes.
package jukebox

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/soundbox/internal/app/notification"
	"github.com/osa030/soundbox/internal/domain/clip"
	"github.com/osa030/soundbox/internal/domain/playlist"
	"github.com/osa030/soundbox/internal/domain/sound"
)

// ErrEmptyPlaylist is returned when starting a jukebox without tracks.
var ErrEmptyPlaylist = errors.New("playlist is empty")

// Player is the part of the playback manager the jukebox drives.
type Player interface {
	PlayMusic(c *clip.Clip, fadeDuration time.Duration, volumeProportion float64) (sound.ID, error)
	IsClipPlaying(c *clip.Clip) bool
	Subscribe(l notification.Listener) string
	Unsubscribe(id string)
}

// Config holds jukebox configuration.
type Config struct {
	Shuffle     bool          // Shuffle once on start and pick random tracks when looping
	Loop        bool          // Keep playing after every track has been played once
	MixDuration time.Duration // Fade used for the first track only
	Volume      float64       // Volume proportion passed to every track
}

// Option configures a Jukebox.
type Option func(*Jukebox)

// WithRand sets the random source used for shuffling.
func WithRand(rng *rand.Rand) Option {
	return func(j *Jukebox) {
		j.rng = rng
	}
}

// Jukebox advances through a playlist on music completion.
type Jukebox struct {
	mu sync.Mutex

	player   Player
	playlist *playlist.Playlist
	config   Config
	rng      *rand.Rand

	subscriptionID string
	running        bool
	current        sound.ID
	last           *clip.Clip
	next           int // Index of the next track in sequential mode
	played         int

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a jukebox for the playlist.
func New(player Player, pl *playlist.Playlist, config Config, opts ...Option) *Jukebox {
	j := &Jukebox{
		player:   player,
		playlist: pl,
		config:   config,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start subscribes to completion events and plays the first track with the mix duration.
// If a playlist track is already playing, it is adopted instead of restarted.
func (j *Jukebox) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil
	}
	if j.playlist == nil || j.playlist.Len() == 0 {
		return ErrEmptyPlaylist
	}

	if j.config.Shuffle {
		j.playlist.Shuffle(j.rng)
	}
	j.subscriptionID = j.player.Subscribe(j)
	j.running = true
	zlog.Info().Msgf("jukebox: started: playlist=%s tracks=%d shuffle=%t loop=%t",
		j.playlist.Name, j.playlist.Len(), j.config.Shuffle, j.config.Loop)

	for i, c := range j.playlist.Clips {
		if j.player.IsClipPlaying(c) {
			zlog.Info().Msgf("jukebox: %s already playing, not restarting", c)
			j.current = 0
			j.last = c
			j.next = (i + 1) % j.playlist.Len()
			j.played++
			return nil
		}
	}

	if _, err := j.playNextLocked(j.config.MixDuration); err != nil {
		j.player.Unsubscribe(j.subscriptionID)
		j.running = false
		return err
	}
	return nil
}

// Stop unsubscribes from completion events. The current track keeps playing.
func (j *Jukebox) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopLocked()
}

// Skip starts the next track immediately.
func (j *Jukebox) Skip() (sound.ID, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return 0, errors.New("jukebox is not running")
	}
	return j.playNextLocked(0)
}

// Current returns the session and clip of the track started last.
func (j *Jukebox) Current() (sound.ID, *clip.Clip) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.current, j.last
}

// Played returns how many tracks the jukebox has started.
func (j *Jukebox) Played() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.played
}

// Done is closed once a non-looping playlist has finished or the jukebox is stopped.
func (j *Jukebox) Done() <-chan struct{} {
	return j.done
}

// Notify advances the playlist when the track it started completes.
func (j *Jukebox) Notify(e notification.Event) error {
	if e.Type != notification.EventMusicCompleted {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	// An adopted track has no known session, so any completion advances.
	if !j.running || (j.current != 0 && e.SessionID != j.current) {
		return nil
	}
	zlog.Debug().Msgf("jukebox: track completed: session=%d clip=%s", e.SessionID, j.last)

	if !j.config.Loop && j.played >= j.playlist.Len() {
		zlog.Info().Msgf("jukebox: playlist finished: playlist=%s played=%d", j.playlist.Name, j.played)
		j.stopLocked()
		return nil
	}

	_, err := j.playNextLocked(0)
	return err
}

func (j *Jukebox) stopLocked() {
	if j.running {
		j.player.Unsubscribe(j.subscriptionID)
		j.running = false
		j.subscriptionID = ""
		zlog.Info().Msgf("jukebox: stopped: playlist=%s", j.playlist.Name)
	}
	j.doneOnce.Do(func() {
		close(j.done)
	})
}

func (j *Jukebox) playNextLocked(fade time.Duration) (sound.ID, error) {
	c := j.pickLocked()
	if c == nil {
		zlog.Warn().Msgf("jukebox: no track to play: playlist=%s", j.playlist.Name)
		return 0, ErrEmptyPlaylist
	}

	id, err := j.player.PlayMusic(c, fade, j.config.Volume)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to play %s", c)
	}
	j.current = id
	j.last = c
	j.played++
	zlog.Info().Msgf("jukebox: now playing: session=%d clip=%s fade=%v", id, c, fade)
	return id, nil
}

// pickLocked walks the playlist in order, or picks a random track different from the
// last one when shuffling a looping playlist.
func (j *Jukebox) pickLocked() *clip.Clip {
	if j.config.Shuffle && j.config.Loop {
		return j.playlist.PickNext(j.rng, j.last)
	}
	if j.playlist.Len() == 0 {
		return nil
	}
	c := j.playlist.Clips[j.next%j.playlist.Len()]
	j.next = (j.next + 1) % j.playlist.Len()
	return c
}
