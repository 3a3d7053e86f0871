package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/qid"
	"github.com/vk/palila/internal/question"
	"github.com/vk/palila/internal/screengraph"
)

// DefaultQuestionsPerScreen is the number of questionnaire questions that
// fit on one screen.
const DefaultQuestionsPerScreen = 7

// Options configures Compile.
type Options struct {
	// Rand drives the part and audio shuffles. nil uses a randomly seeded
	// source.
	Rand *rand.Rand
	// QuestionsPerScreen caps questionnaire pages; 0 means
	// DefaultQuestionsPerScreen.
	QuestionsPerScreen int
}

// compiledPart is a part after ordering and identification.
type compiledPart struct {
	def      *experiment.Part
	position int
	audio    []*compiledAudio
	pages    []page
	// questions of the part questionnaire in declaration order.
	questions []*question.Question
}

type compiledAudio struct {
	item      *experiment.AudioItem
	prefix    string
	questions []*question.Question
	replays   []string
}

type compilation struct {
	ctx    context.Context
	logger *slog.Logger
	def    *experiment.Definition
	opts   Options

	graph   *screengraph.Graph
	screens []*Screen
}

// Compile builds the screen sequence of def. It returns ConfigErrors for
// invalid questionnaires and dependencies and a ProgrammingError when the
// produced links are inconsistent.
func Compile(ctx context.Context, def *experiment.Definition, opts Options) (*Experiment, error) {
	logger := ctxlog.FromContext(ctx)
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.QuestionsPerScreen <= 0 {
		opts.QuestionsPerScreen = DefaultQuestionsPerScreen
	}
	c := &compilation{
		ctx:    ctx,
		logger: logger,
		def:    def,
		opts:   opts,
		graph:  screengraph.New(),
	}
	logger.Debug("Compile: Starting.", "parts", len(def.Parts))

	if err := checkLabels(def); err != nil {
		return nil, err
	}

	// Stage 1 and 2: order and identify.
	parts := c.order()
	rootQuestions := identifyQuestionnaire(def.Questionnaire)
	for _, p := range parts {
		c.identify(p)
	}
	if err := checkIDs(rootQuestions, parts); err != nil {
		return nil, err
	}
	logger.Debug("Compile: Questions identified.")

	// Stage 3: plan questionnaires and resolve dependencies.
	rootPages, err := c.plan(def.Questionnaire, rootQuestions, parts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Compile: Planning complete.")

	// Stage 4: emit and link.
	if err := c.linearize(rootPages, parts); err != nil {
		return nil, err
	}
	if err := c.graph.Validate(); err != nil {
		return nil, fmt.Errorf("error validating screen graph: %w", err)
	}
	for _, s := range c.screens {
		s.Previous, _ = c.graph.Previous(s.Name)
		s.Next, _ = c.graph.Next(s.Name)
	}
	logger.Debug("Compile: Screen graph validated.", "screens", len(c.screens))

	exp := &Experiment{
		Definition:  def,
		Screens:     c.screens,
		QuestionIDs: questionIDs(rootQuestions, parts),
		Plans:       make(map[string]Plan),
		TimerStop:   FinalScreen,
		byName:      make(map[string]*Screen, len(c.screens)),
		index:       make(map[string]int, len(c.screens)),
	}
	for i, s := range c.screens {
		exp.byName[s.Name] = s
		exp.index[s.Name] = i
	}
	exp.Plans[qid.RootPart] = toPlan(rootPages)
	for _, p := range parts {
		if p.def.Questionnaire != nil {
			exp.Plans[p.def.Label] = toPlan(p.pages)
		}
	}
	if len(parts) > 0 {
		exp.TimerStart, _ = c.graph.Previous(introScreenName(parts[0].def))
	}

	logger.Debug("Compile: Finished.", "screens", len(exp.Screens), "columns", len(exp.QuestionIDs))
	return exp, nil
}

// order copies the parts and audio items, shuffling where requested.
func (c *compilation) order() []*compiledPart {
	defs := slices.Clone(c.def.Parts)
	if c.def.Randomise {
		c.opts.Rand.Shuffle(len(defs), func(i, j int) { defs[i], defs[j] = defs[j], defs[i] })
		c.logger.Debug("Compile: Parts shuffled.")
	}

	parts := make([]*compiledPart, 0, len(defs))
	for i, d := range defs {
		items := slices.Clone(d.Audio)
		if d.Randomise {
			c.opts.Rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
			c.logger.Debug("Compile: Audio items shuffled.", "part", d.Label)
		}
		p := &compiledPart{def: d, position: i + 1}
		for _, item := range items {
			p.audio = append(p.audio, &compiledAudio{item: item})
		}
		parts = append(parts, p)
	}
	return parts
}

// identify clones the questions of a part and assigns their ids.
func (c *compilation) identify(p *compiledPart) {
	for _, a := range p.audio {
		a.prefix = qid.Audio(p.def.Label, a.item.Label, "").Prefix()
		for _, q := range a.item.Questions {
			clone := q.Clone()
			clone.ID = qid.Audio(p.def.Label, a.item.Label, q.Label).String()
			a.questions = append(a.questions, clone)
		}
		if a.item.MaxReplays > 1 {
			for i := range a.item.Files {
				a.replays = append(a.replays, qid.ReplayColumn(p.def.Label, a.item.Label, ReplaySide(len(a.item.Files), i)))
			}
		}
	}
	if p.def.Questionnaire != nil {
		p.questions = identifyQuestionnaire(p.def.Questionnaire)
	}
}

func identifyQuestionnaire(q *experiment.Questionnaire) []*question.Question {
	if q == nil {
		return nil
	}
	out := make([]*question.Question, 0, len(q.Questions))
	for _, qu := range q.Questions {
		clone := qu.Clone()
		clone.ID = qid.Questionnaire(q.Owner, qu.Label).String()
		out = append(out, clone)
	}
	return out
}

// plan splits every questionnaire into pages and resolves the controllers of
// every screen. It fails before any screen is built.
func (c *compilation) plan(root *experiment.Questionnaire, rootQuestions []*question.Question, parts []*compiledPart) ([]page, error) {
	var errs []error

	rootPages, err := c.planQuestionnaire(root, rootQuestions)
	if err != nil {
		errs = append(errs, err)
	}
	rootPrefix := qid.Questionnaire(qid.RootPart, "").Prefix()
	for _, pg := range rootPages {
		errs = append(errs, resolveDependencies(questionnairePath(qid.RootPart), rootPrefix, pg.questions)...)
	}

	for _, p := range parts {
		for _, a := range p.audio {
			path := experr.Path(p.def.Name(), a.item.Name())
			errs = append(errs, resolveDependencies(path, a.prefix, a.questions)...)
		}
		if p.def.Questionnaire == nil {
			continue
		}
		p.pages, err = c.planQuestionnaire(p.def.Questionnaire, p.questions)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		prefix := qid.Questionnaire(p.def.Label, "").Prefix()
		for _, pg := range p.pages {
			errs = append(errs, resolveDependencies(questionnairePath(p.def.Label), prefix, pg.questions)...)
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rootPages, nil
}

// add appends a screen after the previously added one.
func (c *compilation) add(s *Screen) error {
	var last string
	if n := len(c.screens); n > 0 {
		last = c.screens[n-1].Name
	}
	if err := c.graph.AddScreen(s.Name, "", ""); err != nil {
		return err
	}
	if last != "" {
		if err := c.graph.Link(last, s.Name); err != nil {
			return err
		}
	}
	c.screens = append(c.screens, s)
	c.logger.Debug("Compile: Screen added.", "screen", s.Name, "kind", s.Kind)
	return nil
}

// linearize emits the screens in session order:
// welcome, demo, root questionnaire, parts, end, final.
func (c *compilation) linearize(rootPages []page, parts []*compiledPart) error {
	def := c.def
	if err := c.add(&Screen{Name: WelcomeScreen, Kind: KindWelcome, Text: def.Welcome, Override: def.Override}); err != nil {
		return err
	}
	if def.Demo {
		demo := experiment.DemoItem()
		s := &Screen{Name: DemoScreen, Kind: KindDemo, Audio: demo, Override: def.Override}
		for _, q := range demo.Questions {
			clone := q.Clone()
			clone.ID = qid.Demo(q.Label).String()
			s.Questions = append(s.Questions, clone)
		}
		if err := c.add(s); err != nil {
			return err
		}
	}
	if err := c.addQuestionnaire(qid.RootPart, "", rootPages); err != nil {
		return err
	}

	for _, p := range parts {
		if err := c.addPart(p); err != nil {
			return err
		}
	}

	if err := c.add(&Screen{Name: EndScreen, Kind: KindEnd, Override: def.Override}); err != nil {
		return err
	}
	return c.add(&Screen{Name: FinalScreen, Kind: KindFinal, Text: def.Goodbye})
}

func (c *compilation) addQuestionnaire(owner, part string, pages []page) error {
	for i, pg := range pages {
		s := &Screen{
			Name:      QuestionnaireScreenName(owner, i+1),
			Kind:      KindQuestionnaire,
			Part:      part,
			Questions: pg.questions,
			Owner:     owner,
			Page:      i + 1,
			Override:  c.def.Override || i < len(pages)-1,
		}
		if err := c.add(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) addPart(p *compiledPart) error {
	d := p.def
	intro := &Screen{
		Name:     introScreenName(d),
		Kind:     KindIntro,
		Part:     d.Label,
		Text:     d.Intro.Text,
		Duration: d.Intro.Duration,
		Override: c.def.Override,
	}
	if intro.Text == "" {
		intro.Text = experiment.DefaultIntroText(p.position)
	}
	if err := c.add(intro); err != nil {
		return err
	}

	breaks := 0
	addBreak := func() error {
		breaks++
		return c.add(&Screen{
			Name:     breakScreenName(d, breaks),
			Kind:     KindBreak,
			Part:     d.Label,
			Text:     d.Breaks.Text,
			Duration: d.Breaks.Duration,
			Override: c.def.Override,
		})
	}

	for i, a := range p.audio {
		s := &Screen{
			Name:          audioScreenName(d, a.item),
			Kind:          KindAudio,
			Part:          d.Label,
			Audio:         a.item,
			ReplayColumns: a.replays,
			Questions:     a.questions,
			Override:      c.def.Override,
		}
		if err := c.add(s); err != nil {
			return err
		}
		if breakAfter(d.Breaks, i, len(p.audio)) {
			if err := addBreak(); err != nil {
				return err
			}
		}
	}

	if err := c.addQuestionnaire(d.Label, d.Label, p.pages); err != nil {
		return err
	}
	if d.Breaks != nil && d.Breaks.AfterPart {
		return addBreak()
	}
	return nil
}

// breakAfter reports whether a break follows the audio item at index i of n.
func breakAfter(policy *experiment.BreakPolicy, i, n int) bool {
	if policy == nil || policy.Interval <= 0 {
		return false
	}
	return (i+1)%policy.Interval == 0 && i+1 < n
}

// questionIDs lists the answer columns: the root questionnaire, then every
// part in session order with its replay counters, audio questions and
// questionnaire.
func questionIDs(root []*question.Question, parts []*compiledPart) []string {
	var ids []string
	for _, q := range root {
		ids = append(ids, q.ID)
	}
	for _, p := range parts {
		for _, a := range p.audio {
			ids = append(ids, a.replays...)
			for _, q := range a.questions {
				ids = append(ids, q.ID)
			}
		}
		for _, q := range p.questions {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

func toPlan(pages []page) Plan {
	plan := make(Plan, len(pages))
	for i, pg := range pages {
		ids := make([]string, 0, len(pg.questions))
		for _, q := range pg.questions {
			ids = append(ids, q.ID)
		}
		plan[i+1] = ids
	}
	return plan
}
