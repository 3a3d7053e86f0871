package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/question"
	"github.com/vk/palila/internal/unlock"
)

func screenQuestions() []*question.Question {
	return []*question.Question{
		{ID: "q-01", Kind: question.KindText, Text: "Listen carefully."},
		{ID: "q-02", Kind: question.KindMultipleChoice, Interactive: true,
			Choices: &question.ChoiceSet{Options: []string{"Yes", "No"}}},
		{ID: "q-03", Kind: question.KindFreeText, Interactive: true,
			Dependency: &question.Dependency{ControllerRef: "2", ControllerID: "q-02", Match: []string{"Yes"}}},
		{ID: "q-04", Kind: question.KindFreeNumber, Interactive: true},
	}
}

func TestNew_InitialAnswers(t *testing.T) {
	a, err := New(screenQuestions(), false)
	require.NoError(t, err)

	assert.Equal(t, []Answer{
		{ID: "q-01", Value: question.NotApplicable},
		{ID: "q-02", Value: ""},
		{ID: "q-03", Value: question.NotApplicable},
		{ID: "q-04", Value: ""},
	}, a.Answers())
	assert.Equal(t, []string{"q-02", "q-04"}, a.Pending())
	assert.False(t, a.Interactive("q-01"))
	assert.False(t, a.Interactive("q-03"))
	assert.True(t, a.Interactive("q-02"))
	assert.False(t, a.Interactive("unknown"))
	assert.Equal(t, unlock.Locked, a.LockState("q-03"))
}

func TestNew_Errors(t *testing.T) {
	qs := screenQuestions()
	qs[3].ID = "q-02"
	_, err := New(qs, false)
	assert.True(t, experr.IsProgramming(err))

	qs = screenQuestions()
	qs[2].Dependency.ControllerID = "q-99"
	_, err = New(qs, false)
	assert.True(t, experr.IsProgramming(err))
}

func TestGetState_IndependentOfOrder(t *testing.T) {
	orders := [][]string{
		{"q-02", "q-04"},
		{"q-04", "q-02"},
	}
	values := map[string]string{"q-02": "No", "q-04": "12"}

	for _, order := range orders {
		a, err := New(screenQuestions(), false)
		require.NoError(t, err)
		for i, id := range order {
			assert.False(t, a.GetState(), "before answering %s", id)
			require.NoError(t, a.ChangeAnswer(id, values[id]))
			assert.Equal(t, i == len(order)-1, a.GetState(), "after answering %s", id)
		}
	}
}

func TestGetState_FollowsUnlocks(t *testing.T) {
	a, err := New(screenQuestions(), false)
	require.NoError(t, err)
	require.NoError(t, a.ChangeAnswer("q-04", "3"))

	require.NoError(t, a.ChangeAnswer("q-02", "Yes"))
	assert.False(t, a.GetState(), "the unlocked dependent is empty again")
	assert.Equal(t, []string{"q-03"}, a.Pending())
	assert.True(t, a.Interactive("q-03"))

	require.NoError(t, a.ChangeAnswer("q-03", "tinnitus"))
	assert.True(t, a.GetState())

	require.NoError(t, a.ChangeAnswer("q-02", "No"))
	assert.True(t, a.GetState(), "the locked dependent no longer blocks")
	assert.Equal(t, question.NotApplicable, a.Answer("q-03"))

	require.NoError(t, a.ChangeAnswer("q-02", "Yes"))
	assert.Equal(t, "tinnitus", a.Answer("q-03"))
	assert.True(t, a.GetState())

	require.NoError(t, a.ChangeAnswer("q-04", ""))
	assert.False(t, a.GetState())
}

func TestMayAdvance(t *testing.T) {
	a, err := New(screenQuestions(), false)
	require.NoError(t, err)
	assert.False(t, a.MayAdvance())

	b, err := New(screenQuestions(), true)
	require.NoError(t, err)
	assert.True(t, b.MayAdvance())
	assert.True(t, b.Override())
	assert.False(t, b.GetState())

	empty, err := New(nil, false)
	require.NoError(t, err)
	assert.True(t, empty.MayAdvance())
}

func TestChangeAnswer_UnknownQuestion(t *testing.T) {
	a, err := New(screenQuestions(), false)
	require.NoError(t, err)
	err = a.ChangeAnswer("q-42", "x")
	require.Error(t, err)
	assert.True(t, experr.IsProgramming(err))
}
