// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package experiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/palila/internal/config"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/fsutil"
	"github.com/vk/palila/internal/qid"
	"github.com/vk/palila/internal/question"
	"github.com/vk/palila/internal/validation"
)

// Section names and prefixes of the configuration format.
const (
	PartPrefix           = "part "
	AudioPrefix          = "audio "
	QuestionnaireSection = "questionnaire"
	SharedQuestions      = "questions"
	IntroSection         = "intro"
	BreaksSection        = "breaks"
)

// MaxAudioSlots is the number of question slots on an audio screen.
const MaxAudioSlots = 2

// Texts used when the configuration leaves them out.
const (
	DefaultWelcome   = "Welcome to this listening experiment.\nPlease enter your participant ID:"
	DefaultGoodbye   = "Thank you for your participation in this experiment!"
	DefaultBreakText = "Please take some time to refocus during this break."
	// DefaultIntroDuration applies to generated intro screens.
	DefaultIntroDuration = 3 * time.Second
)

// DefaultIntroText is the intro of a part without an intro section. position
// is the 1-based position of the part in the compiled order.
func DefaultIntroText(position int) string {
	return fmt.Sprintf("You have reached part %d of the experiment.\nPress \"Continue\" below to resume the experiment.", position)
}

// Options configures Build.
type Options struct {
	// Dir is the experiment directory.
	Dir string
	// Registry resolves question types; nil means question.DefaultRegistry().
	Registry *question.Registry
	// FileExists checks audio files; nil means fsutil.FileExists.
	FileExists func(path string) bool
}

type builder struct {
	ctx  context.Context
	opts Options
}

type settings struct {
	PIDMode string `cfg:"pid mode" validate:"required,oneof=auto input"`
}

// Build validates the Config Tree and returns the Definition. It fails with
// ConfigErrors (joined when several sections are wrong) and never returns a
// partial Definition.
func Build(ctx context.Context, root *config.Section, opts Options) (*Definition, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building experiment definition.", "dir", opts.Dir)

	if opts.Registry == nil {
		opts.Registry = question.DefaultRegistry()
	}
	if opts.FileExists == nil {
		opts.FileExists = fsutil.FileExists
	}
	b := &builder{ctx: ctx, opts: opts}

	var errs []error
	s := settings{PIDMode: strings.ToLower(strings.TrimSpace(root.StringOr("pid mode", "")))}
	if err := validation.Struct(root, &s); err != nil {
		errs = append(errs, err)
	}

	def := &Definition{
		Dir:     opts.Dir,
		PIDMode: PIDMode(s.PIDMode),
		Welcome: question.StripTabs(root.StringOr("welcome", DefaultWelcome)),
		Goodbye: question.StripTabs(root.StringOr("goodbye", DefaultGoodbye)),
	}
	flags := []struct {
		key string
		dst *bool
	}{
		{"randomise", &def.Randomise},
		{"demo", &def.Demo},
		{"override", &def.Override},
	}
	for _, f := range flags {
		v, err := root.Bool(f.key, false)
		if err != nil {
			errs = append(errs, err)
		}
		*f.dst = v
	}

	rootQ, err := b.questionnaire(root, qid.RootPart, true)
	if err != nil {
		errs = append(errs, err)
	}
	def.Questionnaire = rootQ

	partSections := root.SectionsWithPrefix(PartPrefix)
	if len(partSections) == 0 {
		errs = append(errs, root.Errorf("", "the experiment has no parts"))
	}
	for _, sec := range partSections {
		part, err := b.part(sec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		def.Parts = append(def.Parts, part)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	logger.Debug("Experiment definition built.", "parts", len(def.Parts), "root_questions", len(def.Questionnaire.Questions))
	return def, nil
}

func (b *builder) part(sec *config.Section) (*Part, error) {
	part := &Part{Label: strings.TrimPrefix(sec.Name, PartPrefix)}

	var err error
	if part.Randomise, err = sec.Bool("randomise", false); err != nil {
		return nil, err
	}
	if part.Intro, err = b.intro(sec); err != nil {
		return nil, err
	}
	if part.Breaks, err = b.breaks(sec); err != nil {
		return nil, err
	}

	audioSections := sec.SectionsWithPrefix(AudioPrefix)
	if len(audioSections) == 0 {
		return nil, sec.Errorf("", "part has no audio items")
	}
	shared, hasShared := sec.Section(SharedQuestions)

	for _, audioSec := range audioSections {
		items, err := b.audio(audioSec, shared, hasShared)
		if err != nil {
			return nil, err
		}
		part.Audio = append(part.Audio, items...)
	}

	if part.Questionnaire, err = b.questionnaire(sec, part.Label, false); err != nil {
		return nil, err
	}
	if part.Questionnaire != nil && len(part.Questionnaire.Questions) == 0 {
		part.Questionnaire = nil
	}
	return part, nil
}

type introParams struct {
	Text string  `cfg:"text" validate:"required"`
	Time float64 `cfg:"time" validate:"gte=0"`
}

func (b *builder) intro(part *config.Section) (Intro, error) {
	sec, ok := part.Section(IntroSection)
	if !ok {
		return Intro{Duration: DefaultIntroDuration}, nil
	}
	p := introParams{Text: question.StripTabs(sec.StringOr("text", ""))}
	t, present, err := sec.Float("time")
	if err != nil {
		return Intro{}, err
	}
	if !present {
		return Intro{}, sec.Errorf("time", `"time" is required`)
	}
	p.Time = t
	if err := validation.Struct(sec, &p); err != nil {
		return Intro{}, err
	}
	return Intro{Text: p.Text, Duration: seconds(p.Time)}, nil
}

type breakParams struct {
	Interval int     `cfg:"interval"`
	Time     float64 `cfg:"time" validate:"gte=0"`
}

func (b *builder) breaks(part *config.Section) (*BreakPolicy, error) {
	sec, ok := part.Section(BreaksSection)
	if !ok {
		return nil, nil
	}
	var p breakParams
	var present bool
	var err error
	if p.Interval, present, err = sec.Int("interval"); err != nil {
		return nil, err
	} else if !present {
		return nil, sec.Errorf("interval", `"interval" is required`)
	}
	if p.Time, present, err = sec.Float("time"); err != nil {
		return nil, err
	} else if !present {
		return nil, sec.Errorf("time", `"time" is required`)
	}
	if err := validation.Struct(sec, &p); err != nil {
		return nil, err
	}
	afterPart, err := sec.Bool("after part", false)
	if err != nil {
		return nil, err
	}
	return &BreakPolicy{
		Interval:  p.Interval,
		Duration:  seconds(p.Time),
		Text:      question.StripTabs(sec.StringOr("text", DefaultBreakText)),
		AfterPart: afterPart,
	}, nil
}

type audioParams struct {
	Filename   string `cfg:"filename" validate:"required"`
	MaxReplays int    `cfg:"max replays" validate:"min=1"`
	Repeat     int    `cfg:"repeat" validate:"gte=0"`
}

// audio decodes one audio section and expands its repeat count.
func (b *builder) audio(sec *config.Section, shared *config.Section, hasShared bool) ([]*AudioItem, error) {
	logger := ctxlog.FromContext(b.ctx)

	p := audioParams{Filename: strings.TrimSpace(sec.StringOr("filename", "")), MaxReplays: 1}
	if n, ok, err := sec.Int("max replays"); err != nil {
		return nil, err
	} else if ok {
		p.MaxReplays = n
	}
	if n, ok, err := sec.Int("repeat"); err != nil {
		return nil, err
	} else if ok {
		p.Repeat = n
	}
	if err := validation.Struct(sec, &p); err != nil {
		return nil, err
	}

	filler, err := sec.Bool("filler", true)
	if err != nil {
		return nil, err
	}

	files := []string{p.Filename}
	if second, ok := sec.String("filename_2"); ok && strings.TrimSpace(second) != "" {
		files = append(files, strings.TrimSpace(second))
	}
	for i, f := range files {
		key := "filename"
		if i == 1 {
			key = "filename_2"
		}
		resolved := f
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(b.opts.Dir, f)
		}
		if !b.opts.FileExists(resolved) {
			return nil, sec.Errorf(key, "audio file %q does not exist", resolved)
		}
		files[i] = resolved
	}

	questionsFrom := sec
	if hasShared {
		if len(sec.SectionsWithPrefix(question.SectionPrefix)) > 0 {
			logger.Warn("Audio questions replaced by the part's shared questions.", "audio", sec.Path())
		}
		questionsFrom = shared
	}
	questions, err := b.questions(questionsFrom, question.OnAudio)
	if err != nil {
		return nil, err
	}
	slots := 0
	for _, q := range questions {
		slots += q.Slots
	}
	if slots > MaxAudioSlots {
		return nil, sec.Errorf("", "audio screens hold at most %d question slots, got %d", MaxAudioSlots, slots)
	}

	template := &AudioItem{
		Label:      strings.TrimPrefix(sec.Name, AudioPrefix),
		Files:      files,
		MaxReplays: p.MaxReplays,
		Filler:     filler,
		Questions:  questions,
	}
	if p.Repeat == 0 {
		return []*AudioItem{template}, nil
	}
	return ExpandRepeats(template, p.Repeat), nil
}

// ExpandRepeats returns n independent copies of the template labelled
// "<label>_01" .. "<label>_NN".
func ExpandRepeats(template *AudioItem, n int) []*AudioItem {
	items := make([]*AudioItem, 0, n)
	for i := 1; i <= n; i++ {
		item := &AudioItem{
			Label:      fmt.Sprintf("%s_%02d", template.Label, i),
			Files:      append([]string(nil), template.Files...),
			MaxReplays: template.MaxReplays,
			Filler:     template.Filler,
			Builtin:    template.Builtin,
			Template:   template.Label,
		}
		for _, q := range template.Questions {
			item.Questions = append(item.Questions, q.Clone())
		}
		items = append(items, item)
	}
	return items
}

func (b *builder) questions(sec *config.Section, placement question.Placement) ([]*question.Question, error) {
	var out []*question.Question
	for _, qs := range sec.SectionsWithPrefix(question.SectionPrefix) {
		q, err := b.opts.Registry.Decode(b.ctx, qs, placement)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

// questionnaire decodes the questionnaire section of parent, returning nil
// for parts without one. The root questionnaire always exists.
func (b *builder) questionnaire(parent *config.Section, owner string, isRoot bool) (*Questionnaire, error) {
	sec, ok := parent.Section(QuestionnaireSection)
	if !ok {
		if isRoot {
			return &Questionnaire{Owner: owner}, nil
		}
		return nil, nil
	}

	manual, err := sec.Bool("manual split", false)
	if err != nil {
		return nil, err
	}
	questions, err := b.questions(sec, question.InQuestionnaire)
	if err != nil {
		return nil, err
	}

	useDefault, err := sec.Bool("default", false)
	if err != nil {
		return nil, err
	}
	if useDefault {
		if !isRoot {
			ctxlog.FromContext(b.ctx).Warn("The default questionnaire is only available as the root questionnaire.", "section", sec.Path())
		} else {
			canned, err := defaultQuestions(b.ctx, b.opts.Registry)
			if err != nil {
				return nil, err
			}
			questions = mergeQuestions(questions, canned)
		}
	}

	return &Questionnaire{Owner: owner, ManualSplit: manual, Questions: questions}, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
