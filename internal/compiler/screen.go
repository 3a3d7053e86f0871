package compiler

import (
	"time"

	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/question"
)

// Fixed screen names.
const (
	WelcomeScreen = "welcome"
	DemoScreen    = "demo"
	EndScreen     = "end"
	FinalScreen   = "final"
)

// Kind tells which role a screen plays in the session.
type Kind int

const (
	KindWelcome Kind = iota
	KindDemo
	KindQuestionnaire
	KindIntro
	KindAudio
	KindBreak
	KindEnd
	KindFinal
)

var kindNames = [...]string{"welcome", "demo", "questionnaire", "intro", "audio", "break", "end", "final"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Screen is one compiled, navigable unit. Screens are read-only once Compile
// returns.
type Screen struct {
	Name     string
	Kind     Kind
	Previous string
	Next     string

	// Part is the label of the owning part, empty for global screens.
	Part string
	// Text is the message of welcome, intro, break and final screens.
	Text string
	// Duration is how long a timed screen holds the participant.
	Duration time.Duration

	// Audio is the stimulus of audio and demo screens.
	Audio *experiment.AudioItem
	// ReplayColumns holds one answer column per audio file when replays are
	// counted, nil otherwise.
	ReplayColumns []string

	// Questions carry their compiled ids and resolved controllers.
	Questions []*question.Question

	// Owner and Page locate a questionnaire screen: qid.RootPart or a part
	// label, and the 1-based page within that questionnaire.
	Owner string
	Page  int

	// Override lets the screen be left without completing it.
	Override bool
}

// Timed reports whether the screen holds the participant for Duration.
func (s *Screen) Timed() bool {
	return s.Kind == KindIntro || s.Kind == KindBreak
}

// QuestionIDs returns the ids of the screen's questions in display order.
func (s *Screen) QuestionIDs() []string {
	ids := make([]string, 0, len(s.Questions))
	for _, q := range s.Questions {
		ids = append(ids, q.ID)
	}
	return ids
}

// Question returns the question with the given id.
func (s *Screen) Question(id string) (*question.Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return nil, false
}

// ReplaySide names the audio file at index i for playback commands: "" for
// a single file, "left" and "right" for a pair.
func ReplaySide(files, i int) string {
	if files < 2 {
		return ""
	}
	if i == 0 {
		return "left"
	}
	return "right"
}

// Plan maps the 1-based page of a questionnaire to the ids placed on it.
type Plan map[int][]string

// Pages returns the number of pages.
func (p Plan) Pages() int {
	return len(p)
}

// Experiment is the compiled session.
type Experiment struct {
	Definition *experiment.Definition
	// Screens are in session order; Screens[0] is the welcome screen.
	Screens []*Screen
	// QuestionIDs are the answer table columns without "timer", in order.
	QuestionIDs []string
	// Plans is keyed by questionnaire owner.
	Plans map[string]Plan
	// TimerStart is the screen whose departure starts the elapsed timer.
	TimerStart string
	// TimerStop is the screen whose arrival stops it.
	TimerStop string

	byName map[string]*Screen
	index  map[string]int
}

// Screen looks a screen up by name.
func (e *Experiment) Screen(name string) (*Screen, bool) {
	s, ok := e.byName[name]
	return s, ok
}

// Position returns the 0-based position of a screen in session order, or -1.
func (e *Experiment) Position(name string) int {
	if i, ok := e.index[name]; ok {
		return i
	}
	return -1
}

// QuestionnaireScreens returns the page names of a questionnaire in order.
func (e *Experiment) QuestionnaireScreens(owner string) []string {
	var out []string
	for _, s := range e.Screens {
		if s.Kind == KindQuestionnaire && s.Owner == owner {
			out = append(out, s.Name)
		}
	}
	return out
}
