package virtual

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/soundbox/internal/domain/clip"
)

func newBackend(opts ...Option) (*Backend, *ManualClock) {
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func TestHandle_PlaysForClipDuration(t *testing.T) {
	b, clock := newBackend()
	h, err := b.Create(clip.New("jingle.pcm", 2*time.Second), false)
	require.NoError(t, err)

	assert.False(t, h.IsPlaying(), "created channels are stopped")

	h.Play()
	assert.True(t, h.IsPlaying())

	clock.Advance(1999 * time.Millisecond)
	assert.True(t, h.IsPlaying())

	clock.Advance(time.Millisecond)
	assert.False(t, h.IsPlaying())
}

func TestHandle_LoopNeverEnds(t *testing.T) {
	b, clock := newBackend()
	h, err := b.Create(clip.New("loop.pcm", time.Second), true)
	require.NoError(t, err)

	h.Play()
	clock.Advance(10*time.Second + 250*time.Millisecond)

	assert.True(t, h.IsPlaying())
	assert.Equal(t, 250*time.Millisecond, h.(*Handle).Position())
}

func TestHandle_PauseResume(t *testing.T) {
	b, clock := newBackend()
	sh, err := b.Create(clip.New("voice.pcm", 2*time.Second), false)
	require.NoError(t, err)
	h := sh.(*Handle)

	h.Resume()
	assert.False(t, h.IsPlaying(), "resume before play does nothing")

	h.Play()
	clock.Advance(time.Second)
	h.Pause()
	assert.False(t, h.IsPlaying())

	clock.Advance(time.Hour)
	assert.Equal(t, time.Second, h.Position())

	h.Resume()
	clock.Advance(900 * time.Millisecond)
	assert.True(t, h.IsPlaying())
	clock.Advance(100 * time.Millisecond)
	assert.False(t, h.IsPlaying())
}

func TestHandle_StopAndDestroy(t *testing.T) {
	b, _ := newBackend()
	c := clip.New("theme.pcm", time.Minute)
	sh, err := b.Create(c, false)
	require.NoError(t, err)
	h := sh.(*Handle)

	h.SetVolume(0.4)
	h.Play()
	h.Stop()
	assert.False(t, h.IsPlaying())
	assert.Equal(t, 0.4, h.Volume())
	assert.Len(t, b.HandlesFor(c), 1)

	h.Destroy()
	h.Destroy()
	assert.True(t, h.Destroyed())
	assert.Equal(t, 0, b.Active())
	assert.Equal(t, 1, b.Created())
	assert.Empty(t, b.HandlesFor(c))

	h.Play()
	assert.False(t, h.IsPlaying(), "destroyed channels cannot play")
}

func TestBackend_MaxChannels(t *testing.T) {
	b, _ := newBackend(WithMaxChannels(2))
	c := clip.New("click.pcm", time.Second)

	first, err := b.Create(c, false)
	require.NoError(t, err)
	_, err = b.Create(c, false)
	require.NoError(t, err)

	_, err = b.Create(c, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoChannels))

	first.Destroy()
	_, err = b.Create(c, false)
	assert.NoError(t, err, "destroying a handle frees its channel")
}

func TestBackend_DefaultDuration(t *testing.T) {
	tests := []struct {
		name        string
		defaultDur  time.Duration
		advance     time.Duration
		wantPlaying bool
	}{
		{name: "no default plays forever", defaultDur: 0, advance: time.Hour, wantPlaying: true},
		{name: "default applies", defaultDur: 3 * time.Second, advance: 3 * time.Second, wantPlaying: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clock := newBackend(WithDefaultDuration(tt.defaultDur))
			h, err := b.Create(clip.New("unknown.pcm", 0), false)
			require.NoError(t, err)

			h.Play()
			clock.Advance(tt.advance)
			assert.Equal(t, tt.wantPlaying, h.IsPlaying())
		})
	}
}
