package unlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/question"
)

// answerMap is a minimal answer sink that reacts like the completion
// aggregator does and records every write.
type answerMap struct {
	engine  *Engine
	answers map[string]string
	writes  []string
}

func (m *answerMap) Answer(id string) string {
	return m.answers[id]
}

func (m *answerMap) ChangeAnswer(id, value string) error {
	m.answers[id] = value
	m.writes = append(m.writes, id+"="+value)
	return m.engine.React(id)
}

func controller(id string) *question.Question {
	return &question.Question{ID: id, Kind: question.KindMultipleChoice, Interactive: true,
		Choices: &question.ChoiceSet{Options: []string{"Yes", "No", "Maybe"}, Multi: true}}
}

func dependentOn(id, ctrl string, match ...string) *question.Question {
	return &question.Question{ID: id, Kind: question.KindFreeText, Interactive: true,
		Dependency: &question.Dependency{ControllerRef: ctrl, ControllerID: ctrl, Match: match}}
}

func setup(t *testing.T, questions ...*question.Question) (*Engine, *answerMap) {
	t.Helper()
	m := &answerMap{answers: make(map[string]string)}
	for _, q := range questions {
		m.answers[q.ID] = q.InitialAnswer()
	}
	e := New(m)
	m.engine = e
	require.NoError(t, e.Register(questions))
	m.writes = nil
	return e, m
}

func TestRegister_LocksDependents(t *testing.T) {
	e, m := setup(t, controller("c"), dependentOn("d", "c", "Yes"), dependentOn("d2", "c", "No"))

	assert.Equal(t, None, e.State("c"))
	assert.Equal(t, Locked, e.State("d"))
	assert.Equal(t, Locked, e.State("d2"))
	assert.False(t, e.Interactive("d"))
	assert.True(t, e.Interactive("c"))
	assert.Equal(t, question.NotApplicable, m.answers["d"])
	assert.Equal(t, "", m.answers["c"])
	assert.Equal(t, []string{"d", "d2"}, e.Dependents("c"))
}

func TestRegister_Errors(t *testing.T) {
	testCases := []struct {
		name      string
		questions []*question.Question
		errSubstr string
	}{
		{
			name:      "controller absent from the screen",
			questions: []*question.Question{dependentOn("d", "elsewhere", "Yes")},
			errSubstr: "controller not found on screen: elsewhere",
		},
		{
			name:      "unresolved controller",
			questions: []*question.Question{controller("c"), dependentOn("d", "", "Yes")},
			errSubstr: "was never resolved",
		},
		{
			name:      "self reference",
			questions: []*question.Question{dependentOn("d", "d", "Yes")},
			errSubstr: "self-referential dependency",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &answerMap{answers: make(map[string]string)}
			e := New(m)
			m.engine = e
			err := e.Register(tc.questions)
			require.Error(t, err)
			assert.True(t, experr.IsProgramming(err))
			assert.ErrorContains(t, err, tc.errSubstr)
		})
	}
}

func TestReact_UnlockAndLock(t *testing.T) {
	e, m := setup(t, controller("c"), dependentOn("d", "c", "Yes"))

	require.NoError(t, m.ChangeAnswer("c", "Yes"))
	assert.Equal(t, Unlocked, e.State("d"))
	assert.True(t, e.Interactive("d"))
	assert.Equal(t, "", m.answers["d"], "the cached empty answer is restored")

	require.NoError(t, m.ChangeAnswer("d", "details"))
	require.NoError(t, m.ChangeAnswer("c", "No"))
	assert.Equal(t, Locked, e.State("d"))
	assert.Equal(t, question.NotApplicable, m.answers["d"])

	require.NoError(t, m.ChangeAnswer("c", "Yes"))
	assert.Equal(t, Unlocked, e.State("d"))
	assert.Equal(t, "details", m.answers["d"])
}

func TestReact_RoundTripRestoresAnswer(t *testing.T) {
	for _, prior := range []string{"", "free text", "a;b"} {
		t.Run(prior, func(t *testing.T) {
			e, m := setup(t, controller("c"), dependentOn("d", "c", "Yes"))
			require.NoError(t, m.ChangeAnswer("c", "Yes"))
			require.NoError(t, m.ChangeAnswer("d", prior))

			require.NoError(t, m.ChangeAnswer("c", "No"))
			require.NoError(t, m.ChangeAnswer("c", ""))
			require.NoError(t, m.ChangeAnswer("c", "Maybe"))
			assert.Equal(t, Locked, e.State("d"))

			require.NoError(t, m.ChangeAnswer("c", "Yes"))
			assert.Equal(t, prior, m.answers["d"])
		})
	}
}

func TestReact_RepeatedEventsAreNoOps(t *testing.T) {
	e, m := setup(t, controller("c"), dependentOn("d", "c", "Yes"))

	require.NoError(t, m.ChangeAnswer("c", "No"))
	require.NoError(t, m.ChangeAnswer("c", "Maybe"))
	assert.Equal(t, []string{"c=No", "c=Maybe"}, m.writes, "a locked dependent is not written again")

	require.NoError(t, m.ChangeAnswer("c", "Yes"))
	require.NoError(t, m.ChangeAnswer("d", "edited"))
	m.writes = nil
	require.NoError(t, m.ChangeAnswer("c", "Yes;Maybe"))
	assert.Equal(t, []string{"c=Yes;Maybe"}, m.writes, "an unlocked dependent is not replayed")
	assert.Equal(t, "edited", m.answers["d"])
	assert.Equal(t, Unlocked, e.State("d"))
}

func TestReact_MultiSelectController(t *testing.T) {
	testCases := []struct {
		answer   string
		expected State
	}{
		{answer: "No", expected: Locked},
		{answer: "No;Maybe", expected: Unlocked},
		{answer: " Yes ; No", expected: Unlocked},
		{answer: "", expected: Locked},
		{answer: question.NotApplicable, expected: Locked},
	}
	for _, tc := range testCases {
		t.Run(tc.answer, func(t *testing.T) {
			e, m := setup(t, controller("c"), dependentOn("d", "c", "Yes", "Maybe"))
			require.NoError(t, m.ChangeAnswer("c", tc.answer))
			assert.Equal(t, tc.expected, e.State("d"))
		})
	}
}

func TestReact_LockedControllerNeverUnlocks(t *testing.T) {
	e, m := setup(t, controller("c"), dependentOn("d", "c", "Yes"))
	e.nodes["c"] = &dependent{id: "c", state: Locked}

	require.NoError(t, m.ChangeAnswer("c", "Yes"))
	assert.Equal(t, Locked, e.State("d"))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "locked", Locked.String())
	assert.Equal(t, "unlocked", Unlocked.String())
	assert.Equal(t, "none", None.String())
}
