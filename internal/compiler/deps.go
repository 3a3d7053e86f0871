package compiler

import (
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/qid"
	"github.com/vk/palila/internal/question"
)

// resolveRef turns an "unlocked by" value into a question id. A full id is
// taken verbatim, anything else is a question label under prefix.
func resolveRef(prefix, ref string) string {
	if _, err := qid.Parse(ref); err == nil {
		return ref
	}
	return prefix + qid.ZeroFill(ref)
}

// resolveDependencies sets Dependency.ControllerID for the questions of one
// screen. The controller must be another question of the same screen and
// must not be a dependent itself.
func resolveDependencies(path, prefix string, questions []*question.Question) []error {
	onScreen := make(map[string]*question.Question, len(questions))
	for _, q := range questions {
		onScreen[q.ID] = q
	}

	var errs []error
	for _, q := range questions {
		if q.Dependency == nil {
			continue
		}
		at := experr.Path(path, question.SectionPrefix+q.Label, "unlocked by")
		id := resolveRef(prefix, q.Dependency.ControllerRef)
		controller, ok := onScreen[id]
		switch {
		case !ok:
			errs = append(errs, experr.Configf(at, "", "controller %q is not a question on the same screen as %s", id, q.ID))
			continue
		case controller == q:
			errs = append(errs, experr.Configf(at, "", "question %s cannot unlock itself", q.ID))
			continue
		case controller.Dependency != nil:
			errs = append(errs, experr.Configf(at, "", "controller %s is itself locked by another question; chained dependencies are not supported", id))
			continue
		case !controller.Interactive:
			errs = append(errs, experr.Configf(at, "", "controller %s is a %s question and takes no answers", id, controller.Kind))
			continue
		}
		q.Dependency.ControllerID = id
	}
	return errs
}
