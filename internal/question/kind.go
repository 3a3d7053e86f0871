package question

import (
	"fmt"
	"log/slog"
	"sort"
)

// Kind is the closed set of question types.
type Kind int

const (
	KindText Kind = iota + 1
	KindMultipleChoice
	KindIntegerScale
	KindSlider
	KindSpinner
	KindPointCompass
	KindFreeText
	KindFreeNumber
)

var kindNames = map[Kind]string{
	KindText:           "Text",
	KindMultipleChoice: "MultipleChoice",
	KindIntegerScale:   "IntegerScale",
	KindSlider:         "Slider",
	KindSpinner:        "Spinner",
	KindPointCompass:   "PointCompass",
	KindFreeText:       "FreeText",
	KindFreeNumber:     "FreeNumber",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Placement is a bit set of the screens a kind may appear on.
type Placement uint8

const (
	OnAudio Placement = 1 << iota
	InQuestionnaire
)

func (p Placement) String() string {
	switch p {
	case OnAudio:
		return "audio screens"
	case InQuestionnaire:
		return "questionnaires"
	}
	return "audio screens and questionnaires"
}

// Factory fills the kind-specific parts of a Question from its section.
type Factory func(d *Decoder, q *Question) error

// Spec describes one kind: where it may appear, how many of the two audio
// screen slots it takes, whether the participant answers it, and its factory.
type Spec struct {
	Kind        Kind
	Placement   Placement
	Slots       int
	Interactive bool
	Build       Factory
}

// Registry maps type names from the configuration to kind specs.
type Registry struct {
	byName  map[string]*Spec
	byKind  map[Kind]*Spec
	aliases map[string]alias
}

type alias struct {
	target string
	apply  func(q *Question)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]*Spec),
		byKind:  make(map[Kind]*Spec),
		aliases: make(map[string]alias),
	}
}

// Register adds a kind under its canonical name. Registering a kind twice
// is a programming mistake and panics.
func (r *Registry) Register(spec *Spec) {
	name := spec.Kind.String()
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("question kind '%s' already registered", name))
	}
	slog.Debug("Registering question kind.", "name", name)
	r.byName[name] = spec
	r.byKind[spec.Kind] = spec
}

// RegisterDeprecated adds a legacy type name resolving to a registered kind.
// apply adjusts the decoded question to the legacy meaning.
func (r *Registry) RegisterDeprecated(name, target string, apply func(q *Question)) {
	if _, exists := r.aliases[name]; exists {
		panic(fmt.Sprintf("question kind alias '%s' already registered", name))
	}
	r.aliases[name] = alias{target: target, apply: apply}
}

// Lookup resolves a type name. For legacy aliases it also returns the
// adjustment to apply after decoding; adjust is nil for canonical names.
func (r *Registry) Lookup(name string) (spec *Spec, adjust func(q *Question), err error) {
	if s, ok := r.byName[name]; ok {
		return s, nil, nil
	}
	if a, ok := r.aliases[name]; ok {
		target, ok := r.byName[a.target]
		if !ok {
			return nil, nil, fmt.Errorf("question type %q is an alias of unregistered %q", name, a.target)
		}
		return target, a.apply, nil
	}
	return nil, nil, fmt.Errorf("unknown question type %q (known: %v)", name, r.Names())
}

// Spec returns the spec of a registered kind.
func (r *Registry) Spec(k Kind) (*Spec, bool) {
	s, ok := r.byKind[k]
	return s, ok
}

// Names lists the canonical type names in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
