package navigation

import "errors"

var (
	// ErrScreenLocked is returned when the current screen may not be left yet.
	ErrScreenLocked = errors.New("screen cannot be left yet")
	// ErrNoPrevious is returned on the first screen.
	ErrNoPrevious = errors.New("no previous screen")
	// ErrNoNext is returned on a screen without successor.
	ErrNoNext = errors.New("no next screen")
	// ErrSessionFinished is returned for any action after the final screen.
	ErrSessionFinished = errors.New("session finished")
	// ErrNotInteractive is returned when answering a locked or display-only
	// question.
	ErrNotInteractive = errors.New("question does not take answers")
	// ErrUnknownQuestion is returned when answering a question that is not on
	// the current screen.
	ErrUnknownQuestion = errors.New("question is not on the current screen")
	// ErrNoAudio is returned when playing on a screen without audio.
	ErrNoAudio = errors.New("screen has no audio")
	// ErrReplayLimit is returned once an audio file was played max replays
	// times.
	ErrReplayLimit = errors.New("replay limit reached")
	// ErrNoQuestionnaire is returned when returning to a root questionnaire
	// that does not exist or from a screen other than the end screen.
	ErrNoQuestionnaire = errors.New("cannot return to the questionnaire")
	// ErrPersist wraps a failure to write the answer table. It is fatal.
	ErrPersist = errors.New("failed to persist answers")
)
