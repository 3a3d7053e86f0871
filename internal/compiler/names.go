package compiler

import (
	"fmt"

	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/qid"
)

// QuestionnaireScreenName returns the page name of a questionnaire, e.g.
// "main-questionnaire-1" or "part 2-questionnaire-3".
func QuestionnaireScreenName(owner string, page int) string {
	if owner == qid.RootPart {
		return fmt.Sprintf("%s-questionnaire-%d", qid.RootPart, page)
	}
	return fmt.Sprintf("%s%s-questionnaire-%d", experiment.PartPrefix, owner, page)
}

func introScreenName(p *experiment.Part) string {
	return p.Name() + "-intro"
}

func audioScreenName(p *experiment.Part, a *experiment.AudioItem) string {
	return p.Name() + "-" + a.Name()
}

func breakScreenName(p *experiment.Part, n int) string {
	return fmt.Sprintf("%s-break %d", p.Name(), n)
}
