// Package fade provides cooperative, tick-driven volume ramps and polling waits.
package fade

import (
	"time"
)

// Target is something whose volume can be ramped.
type Target interface {
	Volume() float64
	SetVolume(v float64)
	Alive() bool
}

// Kind identifies what a task does.
type Kind int

const (
	KindFade Kind = iota // Linear volume ramp
	KindWait             // Polling wait
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFade:
		return "fade"
	case KindWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Task is a scheduled fade or wait.
type Task struct {
	kind Kind

	// Fade
	target     Target
	from       float64
	to         float64
	duration   time.Duration
	elapsed    time.Duration
	delay      time.Duration
	waited     time.Duration
	started    bool
	onStart    func()
	onComplete func()

	// Wait
	interval time.Duration
	polled   time.Duration
	cond     func() bool
	then     func()

	done      bool
	cancelled bool
}

// Kind returns the task kind.
func (t *Task) Kind() Kind {
	return t.kind
}

// Done reports whether the task has finished or was cancelled.
func (t *Task) Done() bool {
	return t.done || t.cancelled
}

// Cancelled reports whether the task was cancelled.
func (t *Task) Cancelled() bool {
	return t.cancelled
}

// Cancel stops the task without firing its completion callback.
func (t *Task) Cancel() {
	if t.done {
		return
	}
	t.cancelled = true
}

// Scheduler advances tasks by explicit time steps.
// It is not safe for concurrent use; the owner serializes access.
type Scheduler struct {
	tasks []*Task
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		tasks: make([]*Task, 0),
	}
}

// Fade ramps the target linearly to volume `to` over duration.
// onComplete fires once when the ramp ends, or early if the target dies mid-ramp.
func (s *Scheduler) Fade(target Target, duration time.Duration, to float64, onComplete func()) *Task {
	return s.FadeAfter(target, 0, duration, to, nil, onComplete)
}

// FadeAfter waits delay, then runs onStart and ramps like Fade.
// If the target is gone once the delay elapses, nothing else runs.
func (s *Scheduler) FadeAfter(target Target, delay, duration time.Duration, to float64, onStart, onComplete func()) *Task {
	t := &Task{
		kind:       KindFade,
		target:     target,
		to:         to,
		duration:   max(duration, 0),
		delay:      max(delay, 0),
		onStart:    onStart,
		onComplete: onComplete,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Wait evaluates cond every interval of advanced time and runs then once it holds.
func (s *Scheduler) Wait(interval time.Duration, cond func() bool, then func()) *Task {
	t := &Task{
		kind:     KindWait,
		interval: interval,
		cond:     cond,
		then:     then,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Advance steps every task scheduled before the call by dt.
// Tasks scheduled from callbacks start on the next call.
func (s *Scheduler) Advance(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}
	current := s.tasks
	for _, t := range current {
		if t.Done() {
			continue
		}
		switch t.kind {
		case KindFade:
			t.stepFade(dt)
		case KindWait:
			t.stepWait(dt)
		}
	}
	s.compact()
}

// CancelAll cancels every scheduled task. Completion callbacks do not fire.
func (s *Scheduler) CancelAll() {
	for _, t := range s.tasks {
		t.Cancel()
	}
	s.tasks = make([]*Task, 0)
}

// Len returns the number of live tasks.
func (s *Scheduler) Len() int {
	n := 0
	for _, t := range s.tasks {
		if !t.Done() {
			n++
		}
	}
	return n
}

// Tasks returns the live tasks in scheduling order.
func (s *Scheduler) Tasks() []*Task {
	result := make([]*Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Done() {
			result = append(result, t)
		}
	}
	return result
}

func (s *Scheduler) compact() {
	live := s.tasks[:0]
	for _, t := range s.tasks {
		if !t.Done() {
			live = append(live, t)
		}
	}
	for i := len(live); i < len(s.tasks); i++ {
		s.tasks[i] = nil
	}
	s.tasks = live
}

func (t *Task) stepFade(dt time.Duration) {
	if !t.started {
		t.waited += dt
		if t.waited < t.delay {
			return
		}
		if !t.target.Alive() {
			t.done = true
			return
		}
		t.started = true
		t.from = t.target.Volume()
		if t.onStart != nil {
			t.onStart()
		}
		if t.cancelled {
			return
		}
		// Time past the delay counts toward the ramp only when there was a delay.
		if t.delay == 0 {
			t.elapsed = dt
		} else {
			t.elapsed = t.waited - t.delay
		}
	} else {
		t.elapsed += dt
	}

	if !t.target.Alive() {
		t.finish()
		return
	}
	if t.elapsed >= t.duration {
		t.target.SetVolume(t.to)
		t.finish()
		return
	}
	t.target.SetVolume(Lerp(t.from, t.to, float64(t.elapsed)/float64(t.duration)))
}

func (t *Task) finish() {
	t.done = true
	if t.onComplete != nil {
		t.onComplete()
	}
}

func (t *Task) stepWait(dt time.Duration) {
	if t.interval <= 0 {
		if t.cond() {
			t.done = true
			t.then()
		}
		return
	}
	t.polled += dt
	for t.polled >= t.interval {
		t.polled -= t.interval
		if t.cond() {
			t.done = true
			t.then()
			return
		}
	}
}

// Lerp interpolates between a and b with p clamped to [0,1].
func Lerp(a, b, p float64) float64 {
	if p < 0 {
		p = 0
	} else if p > 1 {
		p = 1
	}
	return a + (b-a)*p
}
