package unlock

import (
	"fmt"

	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/question"
)

// State is the lock state of a dependent question.
type State int

const (
	// None is reported for questions without a controller.
	None State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return "none"
	}
}

// Answers is the answer map the engine reads and writes. Writes go through
// ChangeAnswer, the same entry point a participant's edit uses, so that
// aggregation and further reactions run identically.
type Answers interface {
	Answer(id string) string
	ChangeAnswer(id, value string) error
}

// dependent is the lock state of one question with a controller.
type dependent struct {
	id         string
	controller string
	match      []string
	state      State
	cached     string
	hasCache   bool
}

// Engine holds the controller -> dependents adjacency of one screen.
type Engine struct {
	answers    Answers
	dependents map[string][]*dependent
	nodes      map[string]*dependent
}

// New creates an engine writing through answers.
func New(answers Answers) *Engine {
	return &Engine{
		answers:    answers,
		dependents: make(map[string][]*dependent),
		nodes:      make(map[string]*dependent),
	}
}

// Register builds the adjacency for the questions of a screen in one pass
// and locks every dependent. It must run after all questions of the screen
// hold their initial answers. A controller id that is not on the screen is a
// ProgrammingError: the compiler resolves controllers within the screen.
func (e *Engine) Register(questions []*question.Question) error {
	onScreen := make(map[string]bool, len(questions))
	for _, q := range questions {
		onScreen[q.ID] = true
	}

	var registered []*dependent
	for _, q := range questions {
		if q.Dependency == nil {
			continue
		}
		if err := e.addEdge(q, onScreen); err != nil {
			return err
		}
		registered = append(registered, e.nodes[q.ID])
	}

	for _, d := range registered {
		if err := e.lock(d); err != nil {
			return err
		}
	}
	for _, d := range registered {
		if err := e.React(d.controller); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) addEdge(q *question.Question, onScreen map[string]bool) error {
	ctrl := q.Dependency.ControllerID
	switch {
	case ctrl == "":
		return experr.Programmingf("question %s: controller %q was never resolved", q.ID, q.Dependency.ControllerRef)
	case ctrl == q.ID:
		return experr.Programmingf("self-referential dependency not allowed: %s", q.ID)
	case !onScreen[ctrl]:
		return experr.Programmingf("question %s: controller not found on screen: %s", q.ID, ctrl)
	}
	if _, ok := e.nodes[q.ID]; ok {
		return experr.Programmingf("question %s registered twice", q.ID)
	}

	d := &dependent{
		id:         q.ID,
		controller: ctrl,
		match:      q.Dependency.Match,
		state:      Unlocked,
	}
	e.nodes[q.ID] = d
	e.dependents[ctrl] = append(e.dependents[ctrl], d)
	return nil
}

// React re-evaluates the dependents of controllerID after its answer
// changed. Dependents whose condition now holds are unlocked, the others are
// locked. Transitions into the current state are no-ops.
func (e *Engine) React(controllerID string) error {
	deps := e.dependents[controllerID]
	if len(deps) == 0 {
		return nil
	}
	answer := e.answers.Answer(controllerID)
	for _, d := range deps {
		var err error
		if e.matches(d, answer) {
			err = e.unlock(d)
		} else {
			err = e.lock(d)
		}
		if err != nil {
			return fmt.Errorf("reacting to %s: %w", controllerID, err)
		}
	}
	return nil
}

// matches reports whether d's condition holds for the controller answer.
func (e *Engine) matches(d *dependent, answer string) bool {
	if e.State(d.controller) == Locked {
		return false
	}
	return question.Intersects(question.Tokens(answer), d.match)
}

// lock caches the current answer unless a cache exists, then forces the
// sentinel answer.
func (e *Engine) lock(d *dependent) error {
	if d.state == Locked {
		return nil
	}
	if !d.hasCache {
		current := e.answers.Answer(d.id)
		if current == question.NotApplicable {
			current = ""
		}
		d.cached, d.hasCache = current, true
	}
	d.state = Locked
	return e.answers.ChangeAnswer(d.id, question.NotApplicable)
}

// unlock replays the cached answer and clears the cache.
func (e *Engine) unlock(d *dependent) error {
	if d.state != Locked {
		return nil
	}
	d.state = Unlocked
	if err := e.answers.ChangeAnswer(d.id, d.cached); err != nil {
		return err
	}
	d.cached, d.hasCache = "", false
	return nil
}

// State returns the lock state of a question; None when it has no
// controller.
func (e *Engine) State(id string) State {
	if d, ok := e.nodes[id]; ok {
		return d.state
	}
	return None
}

// Interactive reports whether a dependent currently takes answers. Questions
// without a controller are not tracked and report true.
func (e *Engine) Interactive(id string) bool {
	return e.State(id) != Locked
}

// Dependents returns the ids controlled by controllerID in declaration
// order.
func (e *Engine) Dependents(controllerID string) []string {
	deps := e.dependents[controllerID]
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.id)
	}
	return out
}
