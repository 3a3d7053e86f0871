package compiler

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/qid"
	"github.com/vk/palila/internal/question"
	"github.com/vk/palila/internal/testutil"
)

func freeText(label string) *question.Question {
	return &question.Question{Label: label, Kind: question.KindFreeText, Text: "Q" + label, Interactive: true, Slots: 1}
}

func choice(label string, options ...string) *question.Question {
	return &question.Question{
		Label:       label,
		Kind:        question.KindMultipleChoice,
		Interactive: true,
		Slots:       1,
		Choices:     &question.ChoiceSet{Options: options},
	}
}

func lockedBy(q *question.Question, ref string, match ...string) *question.Question {
	q.Dependency = &question.Dependency{ControllerRef: ref, Match: match}
	return q
}

func onScreen(q *question.Question, n int) *question.Question {
	q.ManualScreen = n
	return q
}

func audioItem(label string, questions ...*question.Question) *experiment.AudioItem {
	return &experiment.AudioItem{
		Label:      label,
		Files:      []string{label + ".wav"},
		MaxReplays: 1,
		Filler:     true,
		Questions:  questions,
	}
}

func part(label string, items ...*experiment.AudioItem) *experiment.Part {
	return &experiment.Part{
		Label: label,
		Intro: experiment.Intro{Duration: experiment.DefaultIntroDuration},
		Audio: items,
	}
}

func numberedQuestions(n int) []*question.Question {
	out := make([]*question.Question, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, freeText(fmt.Sprint(i)))
	}
	return out
}

func newDefinition(parts ...*experiment.Part) *experiment.Definition {
	return &experiment.Definition{
		PIDMode:       experiment.PIDAuto,
		Welcome:       experiment.DefaultWelcome,
		Goodbye:       experiment.DefaultGoodbye,
		Questionnaire: &experiment.Questionnaire{Owner: qid.RootPart},
		Parts:         parts,
	}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func mustCompile(t *testing.T, def *experiment.Definition, opts Options) *Experiment {
	t.Helper()
	ctx, _ := testutil.Context(t)
	if opts.Rand == nil {
		opts.Rand = seeded(1)
	}
	exp, err := Compile(ctx, def, opts)
	require.NoError(t, err)
	return exp
}

func screenNames(exp *Experiment) []string {
	names := make([]string, 0, len(exp.Screens))
	for _, s := range exp.Screens {
		names = append(names, s.Name)
	}
	return names
}

// requireWellLinked checks that names are unique and every link resolves
// and is mirrored.
func requireWellLinked(t *testing.T, exp *Experiment) {
	t.Helper()
	seen := make(map[string]bool)
	for i, s := range exp.Screens {
		require.False(t, seen[s.Name], "duplicate screen %q", s.Name)
		seen[s.Name] = true

		if i == 0 {
			require.Empty(t, s.Previous)
		} else {
			require.Equal(t, exp.Screens[i-1].Name, s.Previous, "previous of %q", s.Name)
		}
		if i == len(exp.Screens)-1 {
			require.Empty(t, s.Next)
		} else {
			require.Equal(t, exp.Screens[i+1].Name, s.Next, "next of %q", s.Name)
		}
	}
	for _, s := range exp.Screens {
		if s.Next != "" {
			_, ok := exp.Screen(s.Next)
			require.True(t, ok, "next of %q does not resolve", s.Name)
		}
	}
}
