package navigation

import (
	"context"
	"fmt"

	"github.com/vk/palila/internal/completion"
	"github.com/vk/palila/internal/ctxlog"
)

// Op is a participant action.
type Op int

const (
	OpNext Op = iota
	OpBack
	OpAnswer
	OpParticipant
	OpPlay
	OpWait
	OpRestart
	OpStatus
)

var opNames = [...]string{"next", "back", "answer", "pid", "play", "wait", "restart-questionnaire", "status"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Command is one participant action for Run.
type Command struct {
	Op Op
	// ID is the question of OpAnswer.
	ID string
	// Value is the answer, participant id or audio side.
	Value string
	// Result receives the outcome when not nil. It must be buffered.
	Result chan<- error
	// Snapshot receives the status after the command was applied when not
	// nil. It must be buffered. Queued wait commands get no snapshot.
	Snapshot chan<- Status
}

// Apply executes a command. OpWait returns at once; use Run to wait for a
// timed screen.
func (c *Controller) Apply(ctx context.Context, cmd Command) error {
	switch cmd.Op {
	case OpNext:
		return c.NavigateNext(ctx)
	case OpBack:
		return c.NavigatePrevious(ctx)
	case OpAnswer:
		return c.ChangeAnswer(ctx, cmd.ID, cmd.Value)
	case OpParticipant:
		return c.SetParticipantID(ctx, cmd.Value)
	case OpPlay:
		return c.RecordPlayback(ctx, cmd.Value)
	case OpRestart:
		return c.RestartQuestionnaire(ctx)
	case OpWait, OpStatus:
		return nil
	default:
		return fmt.Errorf("unknown operation %d", cmd.Op)
	}
}

// Run serializes commands and elapsed events until the commands channel is
// closed, the context ends or a fatal error occurs. A wait command is
// answered once the current timed screen has elapsed, or at once on any
// other screen.
func (c *Controller) Run(ctx context.Context, commands <-chan Command) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Controller loop started.")
	defer c.cancelPending()

	for {
		select {
		case <-ctx.Done():
			c.releaseWaiters(ctx.Err())
			return ctx.Err()
		case ev := <-c.events:
			c.handle(ctx, ev)
		case cmd, ok := <-commands:
			if !ok {
				logger.Debug("Controller loop stopped.")
				c.releaseWaiters(nil)
				return nil
			}
			if cmd.Op == OpWait && c.waiting() {
				if cmd.Result != nil {
					c.waiters = append(c.waiters, cmd.Result)
				}
				continue
			}
			err := c.Apply(ctx, cmd)
			if cmd.Result != nil {
				cmd.Result <- err
			}
			if cmd.Snapshot != nil {
				cmd.Snapshot <- c.Status()
			}
			if IsFatal(err) {
				logger.Error("Session aborted.", "error", err)
				return err
			}
		}
	}
}

// waiting reports whether the current screen is a timed screen that has not
// elapsed yet.
func (c *Controller) waiting() bool {
	if c.current == nil || !c.current.Timed() {
		return false
	}
	return !c.states[c.current.Name].elapsed
}

// Status is a snapshot of the visible screen.
type Status struct {
	Screen      string
	Kind        string
	Participant string
	Position    int
	Total       int
	MayAdvance  bool
	Elapsed     bool
	Finished    bool
	Pending     []string
	Answers     []completion.Answer
	Plays       []int
}

// Status returns a snapshot of the visible screen.
func (c *Controller) Status() Status {
	p := c.progress()
	st := Status{
		Screen:      p.Screen,
		Kind:        p.Kind,
		Participant: p.Participant,
		Position:    p.Position,
		Total:       p.Total,
		MayAdvance:  c.MayAdvance(),
		Finished:    c.finished,
	}
	if c.current == nil {
		return st
	}
	s := c.states[c.current.Name]
	st.Elapsed = s.elapsed
	st.Pending = s.agg.Pending()
	st.Answers = s.agg.Answers()
	st.Plays = append([]int(nil), s.plays...)
	return st
}
