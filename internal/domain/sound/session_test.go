package sound

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/soundbox/internal/domain/clip"
)

type recordingHandle struct {
	volume    float64
	playing   bool
	stops     int
	destroyed int
}

func (h *recordingHandle) Play()               { h.playing = true }
func (h *recordingHandle) Pause()              { h.playing = false }
func (h *recordingHandle) Resume()             { h.playing = true }
func (h *recordingHandle) SetVolume(v float64) { h.volume = v }
func (h *recordingHandle) IsPlaying() bool     { return h.playing }
func (h *recordingHandle) Destroy()            { h.destroyed++ }

func (h *recordingHandle) Stop() {
	h.playing = false
	h.stops++
}

func TestNewSession(t *testing.T) {
	c := clip.New("theme.pcm", 0)
	h := &recordingHandle{}

	s := NewSession(CategoryMusic, c, 0.5, true, h)

	assert.Equal(t, ID(0), s.ID)
	assert.True(t, s.IsMusic())
	assert.Same(t, c, s.Clip)
	assert.Equal(t, 0.5, s.RequestedVolume)
	assert.True(t, s.Looping)
	assert.False(t, s.Paused)
	assert.False(t, s.Pending)
	assert.Equal(t, 1.0, s.Gain)
	assert.True(t, s.Alive())
	assert.Equal(t, EndNone, s.Ended())
}

func TestSession_SetVolume(t *testing.T) {
	h := &recordingHandle{}
	s := NewSession(CategorySound, nil, 1, false, h)

	s.SetVolume(0.25)
	assert.Equal(t, 0.25, s.Volume())
	assert.Equal(t, 0.25, h.volume)

	s.Release(EndStopped, true)
	s.SetVolume(0.75)
	assert.Equal(t, 0.25, s.Volume(), "volume must not change after release")
	assert.Equal(t, 0.25, h.volume)
}

func TestSession_Release(t *testing.T) {
	tests := []struct {
		name      string
		stop      bool
		wantStops int
	}{
		{name: "stop and destroy", stop: true, wantStops: 1},
		{name: "destroy only", stop: false, wantStops: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandle{playing: true}
			s := NewSession(CategorySound, nil, 1, false, h)

			s.Release(EndReclaimed, tt.stop)
			s.Release(EndStopped, tt.stop)

			assert.Equal(t, tt.wantStops, h.stops)
			assert.Equal(t, 1, h.destroyed, "handle must be destroyed exactly once")
			assert.Equal(t, EndReclaimed, s.Ended(), "first reason wins")
			assert.False(t, s.Alive())
			assert.Nil(t, s.Handle())
			assert.False(t, s.IsPlaying())
		})
	}
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "sound", CategorySound.String())
	assert.Equal(t, "music", CategoryMusic.String())
	assert.Equal(t, "unknown", Category(42).String())
	assert.Equal(t, "replaced", EndReplaced.String())
}
