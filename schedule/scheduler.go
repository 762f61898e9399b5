package schedule

import (
	"sync"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("bracketlens.schedule")

// Timer is the part of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// Clock starts timers. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// RealClock uses the time package.
var RealClock Clock = realClock{}

type task struct {
	seq   uint64
	timer Timer
	fn    func()
}

// Scheduler keeps at most one pending task per key. Scheduling a key again
// replaces its pending task. When a deadline passes the task is posted to
// the Poster, and it runs only if nothing replaced or cancelled it in the
// meantime.
//
// Schedule, Cancel and the other methods may be called from any goroutine.
type Scheduler struct {
	mu           sync.Mutex
	clock        Clock
	poster       Poster
	delay        time.Duration
	focusedDelay time.Duration
	focused      string
	tasks        map[string]*task
	seq          uint64
	stopped      bool
}

type Option func(*Scheduler)

func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// New creates a scheduler. delay applies to background keys, focusedDelay to
// the focused key.
func New(poster Poster, delay, focusedDelay time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:        RealClock,
		poster:       poster,
		delay:        delay,
		focusedDelay: focusedDelay,
		tasks:        make(map[string]*task),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDelays changes the delays for tasks scheduled from now on.
func (s *Scheduler) SetDelays(delay, focusedDelay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay, s.focusedDelay = delay, focusedDelay
}

func (s *Scheduler) SetFocused(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = key
}

func (s *Scheduler) Focused() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused
}

// Schedule arranges for fn to run after the key's delay, replacing any task
// already pending for key.
func (s *Scheduler) Schedule(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if old := s.tasks[key]; old != nil {
		old.timer.Stop()
	}
	s.seq++
	seq := s.seq
	d := s.delay
	if key == s.focused {
		d = s.focusedDelay
	}
	t := &task{seq: seq, fn: fn}
	s.tasks[key] = t
	t.timer = s.clock.AfterFunc(d, func() { s.fire(key, seq) })
	log.Debugf("scheduled %s in %s", key, d)
}

func (s *Scheduler) fire(key string, seq uint64) {
	if !s.current(key, seq) {
		return
	}
	if !s.poster.Post(func() { s.run(key, seq) }) {
		log.Debugf("dropped %s: loop stopped", key)
	}
}

func (s *Scheduler) current(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tasks[key]
	return !s.stopped && t != nil && t.seq == seq
}

// run executes the task if it is still the pending one for key.
func (s *Scheduler) run(key string, seq uint64) {
	s.mu.Lock()
	t := s.tasks[key]
	if s.stopped || t == nil || t.seq != seq {
		s.mu.Unlock()
		return
	}
	delete(s.tasks, key)
	s.mu.Unlock()
	t.fn()
}

// Flush runs the pending task for key right away on the calling goroutine.
// It reports whether there was one.
func (s *Scheduler) Flush(key string) bool {
	s.mu.Lock()
	t := s.tasks[key]
	if s.stopped || t == nil {
		s.mu.Unlock()
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	s.mu.Unlock()
	t.fn()
	return true
}

func (s *Scheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.tasks[key]; t != nil {
		t.timer.Stop()
		delete(s.tasks, key)
	}
}

func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[key] != nil
}

// Stop cancels every pending task. Later calls to Schedule are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.stopped = true
}
