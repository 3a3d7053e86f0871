package navigation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vk/palila/internal/answerstore"
	"github.com/vk/palila/internal/compiler"
	"github.com/vk/palila/internal/completion"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/qid"
)

// Options configures a Controller.
type Options struct {
	// Clock derives the participant id in auto mode; nil means time.Now.
	Clock answerstore.Clock
	// Scheduler runs the timers of timed screens; nil means SystemScheduler.
	Scheduler Scheduler
	// Observer is told about milestones; nil disables reporting.
	Observer Observer
}

// screenState is what the participant left on a screen. It survives
// navigating away and back.
type screenState struct {
	agg     *completion.Aggregator
	plays   []int
	elapsed bool
}

// Controller is the navigation state machine of one session.
type Controller struct {
	exp       *compiler.Experiment
	store     *answerstore.Store
	clock     answerstore.Clock
	scheduler Scheduler
	observer  Observer

	events chan event

	current    *compiler.Screen
	states     map[string]*screenState
	generation uint64
	pending    Task
	waiters    []chan<- error

	started  bool
	pidSet   bool
	detour   bool
	finished bool
}

// New creates a controller for exp writing into store.
func New(exp *compiler.Experiment, store *answerstore.Store, opts Options) *Controller {
	c := &Controller{
		exp:       exp,
		store:     store,
		clock:     opts.Clock,
		scheduler: opts.Scheduler,
		observer:  opts.Observer,
		events:    make(chan event, 8),
		states:    make(map[string]*screenState),
	}
	if c.scheduler == nil {
		c.scheduler = SystemScheduler{}
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	return c
}

// Start prepares the output folder, derives the participant id in auto mode
// and enters the first screen.
func (c *Controller) Start(ctx context.Context) error {
	if c.started {
		return fmt.Errorf("session already started")
	}
	if len(c.exp.Screens) == 0 {
		return fmt.Errorf("experiment has no screens")
	}
	if err := c.store.Prepare(); err != nil {
		return err
	}
	c.started = true
	if c.exp.Definition.PIDMode == experiment.PIDAuto {
		c.setParticipant(ctx, answerstore.AutoID(c.now()))
	}
	logger := ctxlog.FromContext(ctx)
	logger.Info("Session started.", "participant", c.store.Participant(), "screens", len(c.exp.Screens))
	c.observer.SessionStarted(ctx, c.progress())
	return c.enter(ctx, c.exp.Screens[0])
}

// Current returns the visible screen.
func (c *Controller) Current() *compiler.Screen {
	return c.current
}

// Finished reports whether the final screen was reached.
func (c *Controller) Finished() bool {
	return c.finished
}

// Store returns the session's answer store.
func (c *Controller) Store() *answerstore.Store {
	return c.store
}

// NavigateNext leaves the current screen: it flushes its answers into the
// store, runs the timer hooks and enters the successor.
func (c *Controller) NavigateNext(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	s := c.current
	if err := c.checkLeave(s); err != nil {
		return err
	}
	next := c.nextOf(s)
	if next == "" {
		return ErrNoNext
	}
	target, ok := c.exp.Screen(next)
	if !ok {
		return fmt.Errorf("screen %q names missing successor %q", s.Name, next)
	}

	if err := c.flush(ctx, s); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	if s.Name == c.exp.TimerStart && c.store.Timer().Start() {
		logger.Info("Timer started.", "screen", s.Name)
	}
	if next == c.exp.TimerStop && c.store.Timer().Stop() {
		logger.Info("Timer stopped.", "screen", next, "elapsed", c.store.Timer().Elapsed())
	}
	return c.enter(ctx, target)
}

// NavigatePrevious enters the predecessor without flushing the current
// screen. Its answers stay visible and are flushed when it is left forward.
func (c *Controller) NavigatePrevious(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	prev := c.previousOf(c.current)
	if prev == "" {
		return ErrNoPrevious
	}
	target, ok := c.exp.Screen(prev)
	if !ok {
		return fmt.Errorf("screen %q names missing predecessor %q", c.current.Name, prev)
	}
	return c.enter(ctx, target)
}

// ChangeAnswer applies a participant's answer on the current screen.
func (c *Controller) ChangeAnswer(ctx context.Context, id, value string) error {
	if err := c.ready(); err != nil {
		return err
	}
	st := c.states[c.current.Name]
	q, ok := st.agg.Question(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	if !st.agg.Interactive(id) {
		return fmt.Errorf("%w: %s", ErrNotInteractive, id)
	}
	if err := q.Accepts(value); err != nil {
		return err
	}
	if err := st.agg.ChangeAnswer(id, value); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Answer changed.", "screen", c.current.Name, "question", id, "value", value)
	return nil
}

// SetParticipantID sets the participant id once. In auto mode the id was
// derived from the clock at start and value is ignored; later calls are
// ignored in both modes.
func (c *Controller) SetParticipantID(ctx context.Context, value string) error {
	if err := c.ready(); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx)
	if c.pidSet {
		logger.Warn("Participant id already set, ignoring.", "participant", c.store.Participant(), "ignored", value)
		return nil
	}
	if c.exp.Definition.PIDMode == experiment.PIDAuto {
		c.setParticipant(ctx, answerstore.AutoID(c.now()))
		return nil
	}
	pid, err := answerstore.CheckID(value)
	if err != nil {
		return err
	}
	c.setParticipant(ctx, pid)
	return nil
}

func (c *Controller) setParticipant(ctx context.Context, pid string) {
	c.store.SetParticipant(pid)
	c.pidSet = true
	ctxlog.FromContext(ctx).Info("Participant id set.", "participant", pid, "path", c.store.Path())
}

// RecordPlayback counts one playback of the current audio screen. side is
// "" or "left" for the first file and "right" for the second.
func (c *Controller) RecordPlayback(ctx context.Context, side string) error {
	if err := c.ready(); err != nil {
		return err
	}
	s := c.current
	if s.Audio == nil {
		return ErrNoAudio
	}
	st := c.states[s.Name]
	i := 0
	switch strings.ToLower(side) {
	case "", "left":
	case "right":
		i = 1
	default:
		return fmt.Errorf("unknown audio side %q", side)
	}
	if i >= len(st.plays) {
		return fmt.Errorf("%w: no %s file", ErrNoAudio, side)
	}
	if st.plays[i] >= s.Audio.MaxReplays {
		return fmt.Errorf("%w: played %d of %d times", ErrReplayLimit, st.plays[i], s.Audio.MaxReplays)
	}
	st.plays[i]++
	ctxlog.FromContext(ctx).Debug("Audio played.", "screen", s.Name, "side", side, "count", st.plays[i])
	return nil
}

// RestartQuestionnaire returns from the end screen to the first page of the
// root questionnaire. Until the session finishes, the last page of that
// questionnaire leads back to the end screen.
func (c *Controller) RestartQuestionnaire(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	pages := c.exp.QuestionnaireScreens(qid.RootPart)
	if c.current.Kind != compiler.KindEnd || len(pages) == 0 {
		return ErrNoQuestionnaire
	}
	first, _ := c.exp.Screen(pages[0])
	c.detour = true
	ctxlog.FromContext(ctx).Info("Returning to the questionnaire.", "screen", first.Name)
	return c.enter(ctx, first)
}

// MayAdvance reports whether NavigateNext would leave the current screen.
func (c *Controller) MayAdvance() bool {
	if c.current == nil || c.finished {
		return false
	}
	return c.checkLeave(c.current) == nil
}

func (c *Controller) ready() error {
	if !c.started {
		return fmt.Errorf("session not started")
	}
	if c.finished {
		return ErrSessionFinished
	}
	return nil
}

// checkLeave returns ErrScreenLocked, wrapped with the reason, when s may not
// be left.
func (c *Controller) checkLeave(s *compiler.Screen) error {
	st := c.states[s.Name]
	if s.Kind == compiler.KindWelcome && c.exp.Definition.PIDMode == experiment.PIDInput && !c.pidSet {
		return fmt.Errorf("%w: enter a participant id first", ErrScreenLocked)
	}
	if s.Override {
		return nil
	}
	if s.Timed() && !st.elapsed {
		return fmt.Errorf("%w: wait for the screen to elapse", ErrScreenLocked)
	}
	if s.Audio != nil && !s.Audio.Builtin {
		for i, n := range st.plays {
			if n == 0 {
				return fmt.Errorf("%w: audio %d has not been played", ErrScreenLocked, i+1)
			}
		}
	}
	if !st.agg.MayAdvance() {
		return fmt.Errorf("%w: unanswered %s", ErrScreenLocked, strings.Join(st.agg.Pending(), ", "))
	}
	return nil
}

func (c *Controller) lastRootPage() string {
	pages := c.exp.QuestionnaireScreens(qid.RootPart)
	if len(pages) == 0 {
		return ""
	}
	return pages[len(pages)-1]
}

func (c *Controller) nextOf(s *compiler.Screen) string {
	if c.detour && s.Name == c.lastRootPage() {
		return compiler.EndScreen
	}
	return s.Next
}

func (c *Controller) previousOf(s *compiler.Screen) string {
	if c.detour && s.Kind == compiler.KindEnd {
		return c.lastRootPage()
	}
	if s.Kind == compiler.KindFinal {
		return ""
	}
	return s.Previous
}

// flush copies the answers of s into the store. The demo screen is never
// flushed.
func (c *Controller) flush(ctx context.Context, s *compiler.Screen) error {
	if s.Kind == compiler.KindDemo {
		return nil
	}
	st := c.states[s.Name]
	for _, a := range st.agg.Answers() {
		if err := c.store.Set(a.ID, a.Value); err != nil {
			return fmt.Errorf("flushing %s: %w", s.Name, err)
		}
	}
	for i, col := range s.ReplayColumns {
		if err := c.store.Set(col, strconv.Itoa(st.plays[i])); err != nil {
			return fmt.Errorf("flushing %s: %w", s.Name, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Screen flushed.", "screen", s.Name)
	return nil
}

func (c *Controller) state(s *compiler.Screen) (*screenState, error) {
	if st, ok := c.states[s.Name]; ok {
		return st, nil
	}
	agg, err := completion.New(s.Questions, s.Override)
	if err != nil {
		return nil, fmt.Errorf("screen %s: %w", s.Name, err)
	}
	st := &screenState{agg: agg}
	if s.Audio != nil {
		st.plays = make([]int, max(1, len(s.Audio.Files)))
	}
	c.states[s.Name] = st
	return st, nil
}

// enter makes s the visible screen.
func (c *Controller) enter(ctx context.Context, s *compiler.Screen) error {
	st, err := c.state(s)
	if err != nil {
		return err
	}
	c.cancelPending()
	c.releaseWaiters(nil)
	c.current = s

	logger := ctxlog.FromContext(ctx)
	logger.Info("Screen entered.", "screen", s.Name, "kind", s.Kind)
	c.observer.ScreenEntered(ctx, c.progress())

	if s.Timed() && !st.elapsed {
		c.schedule(ctx, s)
	}
	if s.Kind == compiler.KindFinal {
		return c.finish(ctx)
	}
	return nil
}

// finish persists the session. Outside auto mode the timer is stopped here
// as well in case the stop hook did not run.
func (c *Controller) finish(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if c.exp.Definition.PIDMode != experiment.PIDAuto && c.store.Timer().Stop() {
		logger.Warn("Timer was still running at the final screen.")
	}
	c.finished = true
	path, err := c.store.Persist(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	p := c.progress()
	p.Path = path
	logger.Info("Session finished.", "participant", c.store.Participant(), "path", path, "elapsed", c.store.Timer().Elapsed())
	c.observer.SessionFinished(ctx, p)
	return nil
}

func (c *Controller) progress() Progress {
	p := Progress{
		Participant: c.store.Participant(),
		Total:       len(c.exp.Screens),
		Position:    -1,
	}
	if c.current != nil {
		p.Screen = c.current.Name
		p.Kind = c.current.Kind.String()
		p.Position = c.exp.Position(c.current.Name)
	}
	return p
}

func (c *Controller) now() time.Time {
	if c.clock == nil {
		return time.Now()
	}
	return c.clock()
}

// IsFatal reports whether err ends the session. Refused participant
// actions are not fatal; broken invariants and a failed write are.
func IsFatal(err error) bool {
	return experr.IsProgramming(err) || errors.Is(err, ErrPersist)
}
