package question

import (
	"fmt"
	"math"
	"slices"
	"strconv"
)

// Question is a decoded `question N` section. Values are read-only once the
// compiler has assigned the ID.
type Question struct {
	// ID is assigned by the compiler, see package qid.
	ID string
	// Label is the part of the section name after "question ".
	Label string
	Kind  Kind
	Text  string

	Interactive bool
	Slots       int

	Choices    *ChoiceSet
	Range      *Range
	Notes      Notes
	Dependency *Dependency

	// ManualScreen is the 1-based target screen for manually split
	// questionnaires, 0 when not set.
	ManualScreen int
}

// ChoiceSet is the capability of button-like kinds.
type ChoiceSet struct {
	Options []string
	Multi   bool
}

// Range is the capability of numeric kinds.
type Range struct {
	Min     float64
	Max     float64
	Step    float64
	Initial float64
}

// Notes are the captions at the two ends of a scale or slider.
type Notes struct {
	Left  string
	Right string
}

// Dependency declares that a question is unlocked by another question of the
// same screen when the controller's answer shares a token with Match.
type Dependency struct {
	// ControllerRef is the value of "unlocked by" as written.
	ControllerRef string
	// ControllerID is the resolved question id, set by the compiler.
	ControllerID string
	Match        []string
}

// Clone returns a deep copy, used when audio items are repeated.
func (q *Question) Clone() *Question {
	c := *q
	if q.Choices != nil {
		cs := *q.Choices
		cs.Options = slices.Clone(q.Choices.Options)
		c.Choices = &cs
	}
	if q.Range != nil {
		r := *q.Range
		c.Range = &r
	}
	if q.Dependency != nil {
		d := *q.Dependency
		d.Match = slices.Clone(q.Dependency.Match)
		c.Dependency = &d
	}
	return &c
}

// InitialAnswer is the answer a fresh screen starts with.
func (q *Question) InitialAnswer() string {
	if q.Interactive {
		return ""
	}
	return NotApplicable
}

// Accepts checks an answer a participant gave. The empty string clears an
// answer and is always accepted.
func (q *Question) Accepts(answer string) error {
	if answer == "" {
		return nil
	}
	if !q.Interactive {
		if answer != NotApplicable {
			return fmt.Errorf("question %s does not take answers", q.ID)
		}
		return nil
	}

	switch q.Kind {
	case KindMultipleChoice, KindSpinner, KindIntegerScale:
		tokens := Tokens(answer)
		if len(tokens) == 0 {
			return fmt.Errorf("question %s: empty selection", q.ID)
		}
		if len(tokens) > 1 && (q.Choices == nil || !q.Choices.Multi) {
			return fmt.Errorf("question %s accepts a single choice", q.ID)
		}
		for _, tok := range tokens {
			if !slices.Contains(q.Choices.Options, tok) {
				return fmt.Errorf("question %s: %q is not one of %v", q.ID, tok, q.Choices.Options)
			}
		}
	case KindSlider:
		f, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return fmt.Errorf("question %s expects a number: %w", q.ID, err)
		}
		if f < q.Range.Min || f > q.Range.Max {
			return fmt.Errorf("question %s: %v is outside [%v, %v]", q.ID, f, q.Range.Min, q.Range.Max)
		}
		if !onStep(f, q.Range.Min, q.Range.Step) {
			return fmt.Errorf("question %s: %v is not a multiple of the step %v", q.ID, f, q.Range.Step)
		}
	case KindFreeNumber:
		if _, err := strconv.ParseFloat(answer, 64); err != nil {
			return fmt.Errorf("question %s expects a number: %w", q.ID, err)
		}
	case KindPointCompass:
		f, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return fmt.Errorf("question %s expects an angle in degrees: %w", q.ID, err)
		}
		if f < 0 || f >= 360 {
			return fmt.Errorf("question %s: angle %v is outside [0, 360)", q.ID, f)
		}
	}
	return nil
}

// onStep reports whether v lies on the grid lo + k*step.
func onStep(v, lo, step float64) bool {
	if step <= 0 {
		return true
	}
	k := (v - lo) / step
	return math.Abs(k-math.Round(k)) < 1e-9
}
