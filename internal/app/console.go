package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vk/palila/internal/compiler"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/navigation"
)

const consoleHelp = `Commands:
  next                      leave the screen
  back                      return to the previous screen
  answer <id> <value>       answer a question, tokens separated by ";"
  pid <value>               set the participant id
  play [left|right]         play the audio of the screen
  wait                      wait for a timed screen to elapse
  restart-questionnaire     return to the questionnaire from the end screen
  status                    show the screen
  help                      show this help
`

var errEmptyLine = errors.New("empty line")

// ParseCommand translates one console line into a controller command.
func ParseCommand(line string) (navigation.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return navigation.Command{}, errEmptyLine
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	noArgs := func(op navigation.Op) (navigation.Command, error) {
		if len(args) > 0 {
			return navigation.Command{}, fmt.Errorf("%s takes no arguments", verb)
		}
		return navigation.Command{Op: op}, nil
	}

	switch verb {
	case "next":
		return noArgs(navigation.OpNext)
	case "back":
		return noArgs(navigation.OpBack)
	case "wait":
		return noArgs(navigation.OpWait)
	case "status":
		return noArgs(navigation.OpStatus)
	case "restart-questionnaire":
		return noArgs(navigation.OpRestart)
	case "answer":
		if len(args) < 2 {
			return navigation.Command{}, fmt.Errorf("usage: answer <id> <value>")
		}
		return navigation.Command{Op: navigation.OpAnswer, ID: args[0], Value: strings.Join(args[1:], " ")}, nil
	case "pid":
		if len(args) != 1 {
			return navigation.Command{}, fmt.Errorf("usage: pid <value>")
		}
		return navigation.Command{Op: navigation.OpParticipant, Value: args[0]}, nil
	case "play":
		switch {
		case len(args) == 0:
			return navigation.Command{Op: navigation.OpPlay}, nil
		case len(args) == 1 && (args[0] == "left" || args[0] == "right"):
			return navigation.Command{Op: navigation.OpPlay, Value: args[0]}, nil
		default:
			return navigation.Command{}, fmt.Errorf("usage: play [left|right]")
		}
	default:
		return navigation.Command{}, fmt.Errorf("unknown command %q, type help", verb)
	}
}

type reply struct {
	err    error
	status *navigation.Status
}

// console reads commands line by line and prints the screen after each.
type console struct {
	in  io.Reader
	out io.Writer
	exp *compiler.Experiment
}

func newConsole(in io.Reader, out io.Writer, exp *compiler.Experiment) *console {
	return &console{in: in, out: out, exp: exp}
}

// drive runs the controller loop until the session is finished or the
// input ends.
func (c *console) drive(ctx context.Context, ctrl *navigation.Controller) error {
	commands := make(chan navigation.Command)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx, commands) }()

	send := func(cmd navigation.Command) (reply, bool) {
		res := make(chan error, 1)
		snap := make(chan navigation.Status, 1)
		cmd.Result = res
		if cmd.Op != navigation.OpWait {
			cmd.Snapshot = snap
		}
		select {
		case commands <- cmd:
		case err := <-done:
			done <- err
			return reply{}, false
		}
		select {
		case err := <-res:
			r := reply{err: err}
			if cmd.Snapshot != nil {
				st := <-snap
				r.status = &st
			}
			return r, true
		case err := <-done:
			done <- err
			return reply{}, false
		}
	}

	if r, ok := send(navigation.Command{Op: navigation.OpStatus}); ok {
		c.printStatus(r.status)
	}

	finished := false
	scanner := bufio.NewScanner(c.in)
	for !finished && scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(strings.ToLower(line)) == "help" {
			fmt.Fprint(c.out, consoleHelp)
			continue
		}
		cmd, err := ParseCommand(line)
		if errors.Is(err, errEmptyLine) {
			continue
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
			continue
		}

		r, ok := send(cmd)
		if !ok {
			break
		}
		if r.err != nil {
			fmt.Fprintf(c.out, "refused: %v\n", r.err)
		}
		if r.status == nil {
			// Wait commands carry no snapshot.
			if r, ok = send(navigation.Command{Op: navigation.OpStatus}); !ok {
				break
			}
		}
		c.printStatus(r.status)
		finished = r.status.Finished
	}

	close(commands)
	if err := <-done; err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}
	if !finished {
		ctxlog.FromContext(ctx).Warn("Input ended before the session finished, answers were not persisted.")
	}
	return nil
}

func (c *console) printStatus(st *navigation.Status) {
	if st == nil {
		return
	}
	advance := "no"
	if st.MayAdvance {
		advance = "yes"
	}
	fmt.Fprintf(c.out, "[%d/%d] %s (%s) participant=%q advance=%s\n", st.Position+1, st.Total, st.Screen, st.Kind, st.Participant, advance)

	if s, ok := c.exp.Screen(st.Screen); ok {
		if s.Text != "" {
			for _, l := range strings.Split(s.Text, "\n") {
				fmt.Fprintf(c.out, "  | %s\n", l)
			}
		}
		if s.Timed() && !st.Elapsed {
			fmt.Fprintf(c.out, "  waiting %s\n", s.Duration)
		}
	}
	for _, a := range st.Answers {
		fmt.Fprintf(c.out, "  %s = %q\n", a.ID, a.Value)
	}
	if len(st.Pending) > 0 {
		fmt.Fprintf(c.out, "  pending: %s\n", strings.Join(st.Pending, " "))
	}
	if len(st.Plays) > 0 && st.Kind == compiler.KindAudio.String() {
		fmt.Fprintf(c.out, "  plays: %v\n", st.Plays)
	}
	if st.Finished {
		fmt.Fprintln(c.out, "Session finished.")
	}
}
