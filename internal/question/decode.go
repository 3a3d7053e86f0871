package question

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/vk/palila/internal/config"
	"github.com/vk/palila/internal/ctxlog"
	"github.com/vk/palila/internal/validation"
)

// SectionPrefix starts the name of every question section.
const SectionPrefix = "question "

// deprecatedKeys are accepted with a warning.
var deprecatedKeys = map[string]string{
	"dependant":           `read as "unlocked by", use that instead`,
	"dependant condition": `read as a single-answer "unlock condition", use that instead`,
	"id":                  "ignored, the section label is the question id",
}

// Decoder reads one question section. Factories use its helpers so that
// every error points at the offending key.
type Decoder struct {
	Section *config.Section
}

// Decode turns a question section into a Question. placement is the kind of
// screen the question is declared on.
func (r *Registry) Decode(ctx context.Context, sec *config.Section, placement Placement) (*Question, error) {
	logger := ctxlog.FromContext(ctx).With("question", sec.Path())

	typeName, ok := sec.String("type")
	if !ok {
		return nil, sec.Errorf("type", `"type" is required`)
	}
	spec, adjust, err := r.Lookup(strings.TrimSpace(typeName))
	if err != nil {
		return nil, sec.Errorf("type", "%v", err)
	}
	if adjust != nil {
		logger.Warn("Deprecated question type, it will be removed in a future version.", "type", typeName, "replacement", spec.Kind.String())
	}
	if spec.Placement&placement == 0 {
		return nil, sec.Errorf("type", "%s questions are only allowed on %s", spec.Kind, spec.Placement)
	}

	for key, hint := range deprecatedKeys {
		if sec.Has(key) {
			logger.Warn("Deprecated question key.", "key", key, "hint", hint)
		}
	}

	q := &Question{
		Label:       strings.TrimPrefix(sec.Name, SectionPrefix),
		Kind:        spec.Kind,
		Text:        StripTabs(sec.StringOr("text", "")),
		Interactive: spec.Interactive,
		Slots:       spec.Slots,
	}
	if q.Kind == KindText && q.Text == "" {
		return nil, sec.Errorf("text", `"text" is required for Text questions`)
	}

	d := &Decoder{Section: sec}
	if err := d.decodeDependency(q); err != nil {
		return nil, err
	}
	if err := d.decodeManualScreen(q); err != nil {
		return nil, err
	}
	if spec.Build != nil {
		if err := spec.Build(d, q); err != nil {
			return nil, err
		}
	}
	if adjust != nil {
		adjust(q)
	}
	return q, nil
}

func (d *Decoder) decodeDependency(q *Question) error {
	ref, hasRef := d.Section.String("unlocked by")
	cond, hasCond := d.Section.Value("unlock condition")
	if !hasRef {
		if hasCond {
			return d.Section.Errorf("unlock condition", `"unlock condition" requires "unlocked by"`)
		}
		return d.decodeLegacyDependency(q)
	}
	if !q.Interactive {
		return d.Section.Errorf("unlocked by", "%s questions cannot be locked", q.Kind)
	}
	if !hasCond {
		return d.Section.Errorf("unlock condition", `"unlock condition" is required when "unlocked by" is set`)
	}

	var match []string
	for _, item := range cond.Items {
		match = append(match, Tokens(item)...)
	}
	if len(match) == 0 {
		return d.Section.Errorf("unlock condition", `"unlock condition" must name at least one answer`)
	}
	q.Dependency = &Dependency{ControllerRef: strings.TrimSpace(ref), Match: match}
	return nil
}

// decodeLegacyDependency reads the old "dependant" pair. The condition is one
// answer, matched as a whole rather than split into tokens.
func (d *Decoder) decodeLegacyDependency(q *Question) error {
	ref, hasRef := d.Section.String("dependant")
	cond, hasCond := d.Section.String("dependant condition")
	if !hasRef {
		if hasCond {
			return d.Section.Errorf("dependant condition", `"dependant condition" requires "dependant"`)
		}
		return nil
	}
	if !q.Interactive {
		return d.Section.Errorf("dependant", "%s questions cannot be locked", q.Kind)
	}
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return d.Section.Errorf("dependant condition", `"dependant condition" is required when "dependant" is set`)
	}
	q.Dependency = &Dependency{ControllerRef: strings.TrimSpace(ref), Match: []string{cond}}
	return nil
}

func (d *Decoder) decodeManualScreen(q *Question) error {
	n, ok, err := d.Section.Int("manual screen")
	if err != nil || !ok {
		return err
	}
	if n < 1 {
		return d.Section.Errorf("manual screen", `"manual screen" must be at least 1`)
	}
	q.ManualScreen = n
	return nil
}

// Choices reads the "choices" list.
func (d *Decoder) Choices() ([]string, error) {
	v, ok := d.Section.Value("choices")
	if !ok {
		return nil, d.Section.Errorf("choices", `"choices" is required`)
	}
	options := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, d.Section.Errorf("choices", "choices cannot be empty")
		}
		if strings.Contains(item, Delimiter) {
			return nil, d.Section.Errorf("choices", "choice %q contains the reserved %q", item, Delimiter)
		}
		if item == NotApplicable {
			return nil, d.Section.Errorf("choices", "%q is reserved", NotApplicable)
		}
		if slices.Contains(options, item) {
			return nil, d.Section.Errorf("choices", "choice %q is listed twice", item)
		}
		options = append(options, item)
	}
	if len(options) == 0 {
		return nil, d.Section.Errorf("choices", `"choices" must list at least one option`)
	}
	return options, nil
}

// RequiredInt reads an integer key that must be present.
func (d *Decoder) RequiredInt(key string) (int, error) {
	n, ok, err := d.Section.Int(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, d.Section.Errorf(key, "%q is required", key)
	}
	return n, nil
}

// RequiredFloat reads a number key that must be present.
func (d *Decoder) RequiredFloat(key string) (float64, error) {
	f, ok, err := d.Section.Float(key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, d.Section.Errorf(key, "%q is required", key)
	}
	return f, nil
}

// Notes reads the optional "left note" and "right note".
func (d *Decoder) Notes() Notes {
	return Notes{
		Left:  StripTabs(d.Section.StringOr("left note", "")),
		Right: StripTabs(d.Section.StringOr("right note", "")),
	}
}

// StripTabs removes tab characters from prompt text.
func StripTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "")
}

func buildChoice(d *Decoder, q *Question) error {
	options, err := d.Choices()
	if err != nil {
		return err
	}
	multi, err := d.Section.Bool("multi", false)
	if err != nil {
		return err
	}
	q.Choices = &ChoiceSet{Options: options, Multi: multi}
	return nil
}

func buildSpinner(d *Decoder, q *Question) error {
	options, err := d.Choices()
	if err != nil {
		return err
	}
	q.Choices = &ChoiceSet{Options: options}
	return nil
}

type scaleParams struct {
	Min int `cfg:"min" validate:"ltfield=Max"`
	Max int `cfg:"max"`
}

func buildIntegerScale(d *Decoder, q *Question) error {
	var p scaleParams
	var err error
	if p.Min, err = d.RequiredInt("min"); err != nil {
		return err
	}
	if p.Max, err = d.RequiredInt("max"); err != nil {
		return err
	}
	if err := validation.Struct(d.Section, &p); err != nil {
		return err
	}

	options := make([]string, 0, p.Max-p.Min+1)
	for i := p.Min; i <= p.Max; i++ {
		options = append(options, strconv.Itoa(i))
	}
	q.Choices = &ChoiceSet{Options: options}
	q.Range = &Range{Min: float64(p.Min), Max: float64(p.Max), Step: 1, Initial: float64(p.Min)}
	q.Notes = d.Notes()
	return nil
}

type sliderParams struct {
	Min  float64 `cfg:"min" validate:"ltfield=Max"`
	Max  float64 `cfg:"max"`
	Step float64 `cfg:"step" validate:"gt=0"`
}

func buildSlider(d *Decoder, q *Question) error {
	var p sliderParams
	var err error
	if p.Min, err = d.RequiredFloat("min"); err != nil {
		return err
	}
	if p.Max, err = d.RequiredFloat("max"); err != nil {
		return err
	}
	if p.Step, err = d.RequiredFloat("step"); err != nil {
		return err
	}
	if err := validation.Struct(d.Section, &p); err != nil {
		return err
	}

	initial, ok, err := d.Section.Float("initial")
	if err != nil {
		return err
	}
	if !ok {
		initial = p.Min
	}
	if initial < p.Min || initial > p.Max {
		return d.Section.Errorf("initial", `"initial" %v is outside [%v, %v]`, initial, p.Min, p.Max)
	}
	if !onStep(initial, p.Min, p.Step) {
		return d.Section.Errorf("initial", `"initial" %v is not a multiple of the step %v`, initial, p.Step)
	}

	q.Range = &Range{Min: p.Min, Max: p.Max, Step: p.Step, Initial: initial}
	q.Notes = d.Notes()
	return nil
}

// DefaultRegistry returns a registry holding every built-in kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	both := OnAudio | InQuestionnaire
	r.Register(&Spec{Kind: KindText, Placement: both, Slots: 1})
	r.Register(&Spec{Kind: KindMultipleChoice, Placement: both, Slots: 1, Interactive: true, Build: buildChoice})
	r.Register(&Spec{Kind: KindIntegerScale, Placement: OnAudio, Slots: 1, Interactive: true, Build: buildIntegerScale})
	r.Register(&Spec{Kind: KindSlider, Placement: OnAudio, Slots: 1, Interactive: true, Build: buildSlider})
	r.Register(&Spec{Kind: KindSpinner, Placement: both, Slots: 1, Interactive: true, Build: buildSpinner})
	r.Register(&Spec{Kind: KindPointCompass, Placement: OnAudio, Slots: 2, Interactive: true})
	r.Register(&Spec{Kind: KindFreeText, Placement: InQuestionnaire, Slots: 1, Interactive: true})
	r.Register(&Spec{Kind: KindFreeNumber, Placement: InQuestionnaire, Slots: 1, Interactive: true})
	r.RegisterDeprecated("MultiMultipleChoice", KindMultipleChoice.String(), func(q *Question) {
		q.Choices.Multi = true
	})
	return r
}
