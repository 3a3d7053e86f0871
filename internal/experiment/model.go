// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package experiment

import (
	"time"

	"github.com/vk/palila/internal/question"
)

// PIDMode selects how the participant id is obtained.
type PIDMode string

const (
	// PIDAuto derives the id from the session start time.
	PIDAuto PIDMode = "auto"
	// PIDInput asks the participant to type it on the welcome screen.
	PIDInput PIDMode = "input"
)

// Definition is the validated experiment.
type Definition struct {
	// Dir is the experiment directory; audio paths and the responses folder
	// are relative to it.
	Dir string

	PIDMode   PIDMode
	Randomise bool
	Demo      bool
	// Override lets every screen be left without completing it.
	Override bool
	Welcome  string
	Goodbye  string

	// Questionnaire is the root questionnaire. It is never nil but may hold
	// no questions.
	Questionnaire *Questionnaire
	Parts         []*Part
}

// Part is one `part N` section.
type Part struct {
	Label     string
	Randomise bool
	Intro     Intro
	Breaks    *BreakPolicy
	Audio     []*AudioItem
	// Questionnaire is nil when the part has none.
	Questionnaire *Questionnaire
}

// Name is the section name, e.g. "part 1".
func (p *Part) Name() string {
	return PartPrefix + p.Label
}

// Intro is the timed text screen opening a part. Text is empty when the part
// has no intro section; the compiler then uses DefaultIntroText.
type Intro struct {
	Text     string
	Duration time.Duration
}

// BreakPolicy configures the timed rest screens of a part.
type BreakPolicy struct {
	// Interval is the number of audio screens between breaks; values <= 0
	// disable interleaved breaks.
	Interval int
	Duration time.Duration
	Text     string
	// AfterPart adds one more break after the part's last screen.
	AfterPart bool
}

// AudioItem is one `audio N` section after repeat expansion.
type AudioItem struct {
	Label string
	// Files holds one path, or two for left/right comparisons.
	Files      []string
	MaxReplays int
	Filler     bool
	Questions  []*question.Question
	// Builtin marks the demo item, which has no file on disk.
	Builtin bool
	// Template is the label of the repeated section this item was copied
	// from; empty for items that were not repeated.
	Template string
}

// Name is the section name, e.g. "audio 1_02".
func (a *AudioItem) Name() string {
	return AudioPrefix + a.Label
}

// Questionnaire is a root or part questionnaire.
type Questionnaire struct {
	// Owner is qid.RootPart or the owning part's label.
	Owner       string
	ManualSplit bool
	Questions   []*question.Question
}
