package navigation

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/answerstore"
	"github.com/vk/palila/internal/compiler"
	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/testutil"
)

const sessionHCL = `
pid_mode = "input"

questionnaire {
  question "1" {
    type    = "MultipleChoice"
    text    = "Do you have hearing issues?"
    choices = ["Yes", "No"]
  }
  question "2" {
    type             = "FreeText"
    text             = "Please describe them."
    unlocked_by      = "1"
    unlock_condition = "Yes"
  }
}

part "1" {
  intro {
    text = "Part one"
    time = 2
  }
  breaks {
    interval = 1
    time     = 5
  }
  audio "1" {
    filename    = "a.wav"
    max_replays = 2
    question "1" {
      type    = "MultipleChoice"
      text    = "Did you hear it?"
      choices = ["Yes", "No"]
    }
  }
  audio "2" {
    filename   = "a.wav"
    filename_2 = "b.wav"
    question "1" {
      type    = "MultipleChoice"
      text    = "Which one was louder?"
      choices = ["Left", "Right"]
    }
  }
}
`

type fakeTask struct {
	f       func()
	d       time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTask) Stop() bool {
	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// fakeScheduler records tasks; tests fire them by hand, even stopped ones,
// to deliver late events.
type fakeScheduler struct {
	mu    sync.Mutex
	tasks []*fakeTask
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTask{f: f, d: d}
	s.tasks = append(s.tasks, t)
	return t
}

func (s *fakeScheduler) task(i int) *fakeTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[i]
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *fakeScheduler) fire(i int) {
	t := s.task(i)
	t.fired = true
	t.f()
}

func (s *fakeScheduler) fireLast() {
	s.fire(s.count() - 1)
}

// stepClock returns start, start+step, start+2*step, ...
func stepClock(start time.Time, step time.Duration) answerstore.Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}

type session struct {
	ctx   context.Context
	logs  *testutil.SafeBuffer
	dir   string
	exp   *compiler.Experiment
	store *answerstore.Store
	sched *fakeScheduler
	c     *Controller
}

func newSession(t *testing.T, src string) *session {
	t.Helper()
	ctx, logs := testutil.Context(t)
	dir := testutil.ExperimentDir(t, nil, "a.wav", "b.wav")

	def, err := experiment.Build(ctx, testutil.ParseHCL(t, src), experiment.Options{Dir: dir})
	require.NoError(t, err)
	exp, err := compiler.Compile(ctx, def, compiler.Options{Rand: rand.New(rand.NewPCG(1, 2))})
	require.NoError(t, err)

	start := time.Date(2026, 10, 17, 9, 31, 0, 0, time.UTC)
	store, err := answerstore.New(dir, exp.QuestionIDs, answerstore.Options{Clock: stepClock(start, time.Minute)})
	require.NoError(t, err)

	sched := &fakeScheduler{}
	c := New(exp, store, Options{Clock: stepClock(start, time.Second), Scheduler: sched})
	return &session{ctx: ctx, logs: logs, dir: dir, exp: exp, store: store, sched: sched, c: c}
}

func (s *session) start(t *testing.T) {
	t.Helper()
	require.NoError(t, s.c.Start(s.ctx))
}

func (s *session) next(t *testing.T) {
	t.Helper()
	require.NoError(t, s.c.NavigateNext(s.ctx))
}

func (s *session) answer(t *testing.T, id, value string) {
	t.Helper()
	require.NoError(t, s.c.ChangeAnswer(s.ctx, id, value))
}

func (s *session) elapse(t *testing.T) {
	t.Helper()
	s.sched.fireLast()
	require.Equal(t, 1, s.c.Pump(s.ctx))
}

func (s *session) at(t *testing.T, screen string) {
	t.Helper()
	require.Equal(t, screen, s.c.Current().Name)
}
