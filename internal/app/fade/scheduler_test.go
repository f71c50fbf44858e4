package fade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	volume float64
	alive  bool
	writes int
}

func newTarget(volume float64) *fakeTarget {
	return &fakeTarget{volume: volume, alive: true}
}

func (f *fakeTarget) Volume() float64 { return f.volume }
func (f *fakeTarget) Alive() bool     { return f.alive }

func (f *fakeTarget) SetVolume(v float64) {
	f.volume = v
	f.writes++
}

const tick = 100 * time.Millisecond

func advance(s *Scheduler, total time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += tick {
		s.Advance(tick)
	}
}

func TestLerp(t *testing.T) {
	tests := []struct {
		name     string
		a, b, p  float64
		expected float64
	}{
		{name: "start", a: 0, b: 1, p: 0, expected: 0},
		{name: "middle", a: 0, b: 1, p: 0.5, expected: 0.5},
		{name: "end", a: 1, b: 0, p: 1, expected: 0},
		{name: "clamped below", a: 0.2, b: 0.8, p: -3, expected: 0.2},
		{name: "clamped above", a: 0.2, b: 0.8, p: 7, expected: 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Lerp(tt.a, tt.b, tt.p), 1e-9)
		})
	}
}

func TestScheduler_FadeRampsLinearly(t *testing.T) {
	s := NewScheduler()
	target := newTarget(1)
	completed := 0

	s.Fade(target, time.Second, 0, func() { completed++ })

	advance(s, 300*time.Millisecond)
	assert.InDelta(t, 0.7, target.volume, 1e-9)
	assert.Equal(t, 0, completed)

	advance(s, 700*time.Millisecond)
	assert.Equal(t, 0.0, target.volume, "final volume is exactly the target")
	assert.Equal(t, 1, completed)
	assert.Equal(t, 0, s.Len())

	advance(s, time.Second)
	assert.Equal(t, 1, completed, "onComplete fires exactly once")
}

func TestScheduler_FadeZeroDuration(t *testing.T) {
	s := NewScheduler()
	target := newTarget(0)
	completed := false

	s.Fade(target, 0, 0.6, func() { completed = true })
	s.Advance(tick)

	assert.Equal(t, 0.6, target.volume)
	assert.True(t, completed)
}

func TestScheduler_FadeTargetDiesMidRamp(t *testing.T) {
	s := NewScheduler()
	target := newTarget(1)
	completed := 0

	s.Fade(target, time.Second, 0, func() { completed++ })
	advance(s, 500*time.Millisecond)
	writes := target.writes

	target.alive = false
	s.Advance(tick)

	assert.Equal(t, 1, completed, "onComplete still runs when the target is gone")
	assert.Equal(t, writes, target.writes, "no volume write after the target died")
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_FadeAfterDelay(t *testing.T) {
	s := NewScheduler()
	target := newTarget(0)
	started := 0

	s.FadeAfter(target, time.Second, time.Second, 1, func() { started++ }, nil)

	advance(s, 900*time.Millisecond)
	assert.Equal(t, 0, started)
	assert.Equal(t, 0, target.writes, "target untouched during the delay")

	s.Advance(tick)
	assert.Equal(t, 1, started)
	assert.Equal(t, 0.0, target.volume)

	advance(s, 500*time.Millisecond)
	assert.InDelta(t, 0.5, target.volume, 1e-9)

	advance(s, 500*time.Millisecond)
	assert.Equal(t, 1.0, target.volume)
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_FadeAfterDelayTargetGone(t *testing.T) {
	s := NewScheduler()
	target := newTarget(0)
	started := false
	completed := false

	s.FadeAfter(target, time.Second, time.Second, 1,
		func() { started = true },
		func() { completed = true })

	advance(s, 500*time.Millisecond)
	target.alive = false
	advance(s, time.Second)

	assert.False(t, started, "playback must not start for a dead target")
	assert.False(t, completed)
	assert.Equal(t, 0, target.writes)
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_CancelDoesNotComplete(t *testing.T) {
	s := NewScheduler()
	target := newTarget(1)
	completed := false

	task := s.Fade(target, time.Second, 0, func() { completed = true })
	advance(s, 200*time.Millisecond)

	task.Cancel()
	task.Cancel()
	advance(s, 2*time.Second)

	assert.False(t, completed)
	assert.True(t, task.Cancelled())
	assert.True(t, task.Done())
	assert.InDelta(t, 0.8, target.volume, 1e-9, "volume frozen at cancellation")
}

func TestScheduler_CancelAll(t *testing.T) {
	s := NewScheduler()
	fired := 0

	s.Fade(newTarget(1), time.Second, 0, func() { fired++ })
	s.FadeAfter(newTarget(0), time.Second, time.Second, 1, func() { fired++ }, func() { fired++ })
	s.Wait(time.Second, func() bool { return true }, func() { fired++ })
	require.Equal(t, 3, s.Len())

	s.CancelAll()
	s.CancelAll()
	advance(s, 5*time.Second)

	assert.Equal(t, 0, fired)
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_CancelAllFromCallback(t *testing.T) {
	s := NewScheduler()
	otherFired := false
	var replacement *Task

	s.Fade(newTarget(1), tick, 0, func() {
		s.CancelAll()
		replacement = s.Wait(tick, func() bool { return true }, func() {})
	})
	s.Fade(newTarget(1), time.Second, 0, func() { otherFired = true })

	s.Advance(tick)
	require.NotNil(t, replacement)
	assert.False(t, replacement.Done(), "tasks scheduled from callbacks start next tick")

	advance(s, 2*time.Second)
	assert.False(t, otherFired)
	assert.True(t, replacement.Done())
}

func TestScheduler_WaitPollsAtInterval(t *testing.T) {
	s := NewScheduler()
	polls := 0
	ready := false
	fired := 0

	s.Wait(time.Second, func() bool {
		polls++
		return ready
	}, func() { fired++ })

	advance(s, 900*time.Millisecond)
	assert.Equal(t, 0, polls)

	s.Advance(tick)
	assert.Equal(t, 1, polls)

	advance(s, 2*time.Second)
	assert.Equal(t, 3, polls)
	assert.Equal(t, 0, fired)

	ready = true
	advance(s, time.Second)
	assert.Equal(t, 1, fired)

	advance(s, 3*time.Second)
	assert.Equal(t, 1, fired, "wait fires once")
	assert.Equal(t, 0, s.Len())
}

func TestScheduler_Tasks(t *testing.T) {
	s := NewScheduler()
	fadeTask := s.Fade(newTarget(1), time.Second, 0, nil)
	waitTask := s.Wait(time.Second, func() bool { return false }, func() {})

	tasks := s.Tasks()
	require.Len(t, tasks, 2)
	assert.Same(t, fadeTask, tasks[0])
	assert.Same(t, waitTask, tasks[1])
	assert.Equal(t, KindFade, tasks[0].Kind())
	assert.Equal(t, "wait", tasks[1].Kind().String())
}
