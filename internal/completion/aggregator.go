// Package completion tracks the answers of the visible screen and decides
// whether the screen may be left.
package completion

import (
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/question"
	"github.com/vk/palila/internal/unlock"
)

// Answer is one question id with its current answer.
type Answer struct {
	ID    string
	Value string
}

// Aggregator holds the answers of one screen. Answers start empty for
// interactive questions and "n/a" for display-only ones; dependents are
// locked by the unlock engine as soon as the aggregator is created.
type Aggregator struct {
	ids       []string
	questions map[string]*question.Question
	answers   map[string]string
	engine    *unlock.Engine
	override  bool
}

// New creates the aggregator of a screen and registers its dependencies.
// override lets the screen be left while incomplete.
func New(questions []*question.Question, override bool) (*Aggregator, error) {
	a := &Aggregator{
		questions: make(map[string]*question.Question, len(questions)),
		answers:   make(map[string]string, len(questions)),
		override:  override,
	}
	for _, q := range questions {
		if _, dup := a.questions[q.ID]; dup {
			return nil, experr.Programmingf("question %s appears twice on one screen", q.ID)
		}
		a.ids = append(a.ids, q.ID)
		a.questions[q.ID] = q
		a.answers[q.ID] = q.InitialAnswer()
	}
	a.engine = unlock.New(a)
	if err := a.engine.Register(questions); err != nil {
		return nil, err
	}
	return a, nil
}

// Answer returns the current answer of id.
func (a *Aggregator) Answer(id string) string {
	return a.answers[id]
}

// ChangeAnswer stores value and runs the unlock reaction for id before
// returning. It does not check whether the question is interactive; callers
// handling participant input use Interactive first.
func (a *Aggregator) ChangeAnswer(id, value string) error {
	if _, ok := a.answers[id]; !ok {
		return experr.Programmingf("question %s is not on this screen", id)
	}
	a.answers[id] = value
	return a.engine.React(id)
}

// GetState reports whether every answer is non-empty.
func (a *Aggregator) GetState() bool {
	for _, v := range a.answers {
		if v == "" {
			return false
		}
	}
	return true
}

// MayAdvance is GetState unless the screen has an override.
func (a *Aggregator) MayAdvance() bool {
	return a.override || a.GetState()
}

// Override reports whether the screen may be left while incomplete.
func (a *Aggregator) Override() bool {
	return a.override
}

// Interactive reports whether id currently takes participant answers.
func (a *Aggregator) Interactive(id string) bool {
	q, ok := a.questions[id]
	if !ok || !q.Interactive {
		return false
	}
	return a.engine.Interactive(id)
}

// LockState returns the unlock state of id.
func (a *Aggregator) LockState(id string) unlock.State {
	return a.engine.State(id)
}

// Question returns the question with the given id.
func (a *Aggregator) Question(id string) (*question.Question, bool) {
	q, ok := a.questions[id]
	return q, ok
}

// Pending returns the ids that still block completion, in display order.
func (a *Aggregator) Pending() []string {
	var out []string
	for _, id := range a.ids {
		if a.answers[id] == "" {
			out = append(out, id)
		}
	}
	return out
}

// Answers returns every answer in display order.
func (a *Aggregator) Answers() []Answer {
	out := make([]Answer, 0, len(a.ids))
	for _, id := range a.ids {
		out = append(out, Answer{ID: id, Value: a.answers[id]})
	}
	return out
}
