package compiler

import (
	"errors"
	"fmt"

	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/qid"
	"github.com/vk/palila/internal/question"
)

// claims maps a key to the first section that used it.
type claims map[string]string

// claim records path as the owner of key. It returns a ConfigError naming
// both sections when key is taken.
func (c claims) claim(key, path, what string) error {
	if first, ok := c[key]; ok {
		return experr.Configf(path, "", "%s %q is also produced by %s", what, key, first)
	}
	c[key] = path
	return nil
}

func audioPath(p *experiment.Part, a *experiment.AudioItem) string {
	if a.Template != "" {
		return experr.Path(p.Name(), experiment.AudioPrefix+a.Template) + fmt.Sprintf(" (copy %s)", a.Label)
	}
	return experr.Path(p.Name(), a.Name())
}

// checkLabels rejects parts, and audio items within a part, whose labels
// only differ before zero-filling or collide after repeat expansion. It
// walks the definition order so the report does not depend on shuffling.
func checkLabels(def *experiment.Definition) error {
	var errs []error
	parts := make(claims)
	for _, p := range def.Parts {
		if err := parts.claim(qid.ZeroFill(p.Label), p.Name(), "part label"); err != nil {
			errs = append(errs, err)
			continue
		}
		items := make(claims)
		for _, a := range p.Audio {
			if err := items.claim(qid.ZeroFill(a.Label), audioPath(p, a), "audio label"); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// checkIDs rejects answer columns produced twice, e.g. by "question 1" and
// "question 01" or a question labelled like a replay column.
func checkIDs(root []*question.Question, parts []*compiledPart) error {
	var errs []error
	ids := make(claims)
	add := func(id, path string) {
		if err := ids.claim(id, path, "answer column"); err != nil {
			errs = append(errs, err)
		}
	}
	questions := func(base string, qs []*question.Question) {
		for _, q := range qs {
			add(q.ID, experr.Path(base, question.SectionPrefix+q.Label))
		}
	}

	questions(experiment.QuestionnaireSection, root)
	for _, p := range parts {
		for _, a := range p.audio {
			base := audioPath(p.def, a.item)
			for _, col := range a.replays {
				add(col, experr.Path(base, "max replays"))
			}
			questions(base, a.questions)
		}
		questions(experr.Path(p.def.Name(), experiment.QuestionnaireSection), p.questions)
	}
	return errors.Join(errs...)
}
