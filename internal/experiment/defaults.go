// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package experiment

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/vk/palila/internal/hclconfig"
	"github.com/vk/palila/internal/question"
)

//go:embed default_questionnaire.hcl
var defaultQuestionnaireSrc []byte

// defaultQuestions decodes the canned root questionnaire.
func defaultQuestions(ctx context.Context, reg *question.Registry) ([]*question.Question, error) {
	root, err := hclconfig.NewLoader().LoadBytes(ctx, defaultQuestionnaireSrc, "default_questionnaire.hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to load the default questionnaire: %w", err)
	}
	var out []*question.Question
	for _, sec := range root.SectionsWithPrefix(question.SectionPrefix) {
		q, err := reg.Decode(ctx, sec, question.InQuestionnaire)
		if err != nil {
			return nil, fmt.Errorf("invalid default questionnaire: %w", err)
		}
		out = append(out, q)
	}
	return out, nil
}

// mergeQuestions overlays canned onto configured by label: a canned question
// replaces the configured one with the same label in place, the others are
// appended in their canned order.
func mergeQuestions(configured, canned []*question.Question) []*question.Question {
	out := make([]*question.Question, len(configured))
	copy(out, configured)

	pos := make(map[string]int, len(out))
	for i, q := range out {
		pos[q.Label] = i
	}
	for _, q := range canned {
		if i, ok := pos[q.Label]; ok {
			out[i] = q
			continue
		}
		pos[q.Label] = len(out)
		out = append(out, q)
	}
	return out
}

// DemoLabel is the label of the built-in demo audio item.
const DemoLabel = "demo"

// DemoItem returns the built-in audio item shown on the demo screen: an
// integer scale from 0 to 7 and a slider from 0 to 10 in steps of 0.5.
func DemoItem() *AudioItem {
	scale := make([]string, 0, 8)
	for i := 0; i <= 7; i++ {
		scale = append(scale, fmt.Sprint(i))
	}
	return &AudioItem{
		Label:      DemoLabel,
		MaxReplays: 1,
		Builtin:    true,
		Questions: []*question.Question{
			{
				Label:       "1",
				Kind:        question.KindIntegerScale,
				Text:        "How loud was the sound?",
				Interactive: true,
				Slots:       1,
				Choices:     &question.ChoiceSet{Options: scale},
				Range:       &question.Range{Min: 0, Max: 7, Step: 1},
				Notes:       question.Notes{Left: "very soft", Right: "very loud"},
			},
			{
				Label:       "2",
				Kind:        question.KindSlider,
				Text:        "How pleasant was the sound?",
				Interactive: true,
				Slots:       1,
				Range:       &question.Range{Min: 0, Max: 10, Step: 0.5},
				Notes:       question.Notes{Left: "not at all", Right: "very"},
			},
		},
	}
}
