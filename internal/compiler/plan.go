package compiler

import (
	"errors"
	"slices"

	"github.com/vk/palila/internal/experiment"
	"github.com/vk/palila/internal/experr"
	"github.com/vk/palila/internal/qid"
	"github.com/vk/palila/internal/question"
)

// page is one planned questionnaire screen.
type page struct {
	questions []*question.Question
}

// questionnairePath is the Config Tree location of a questionnaire.
func questionnairePath(owner string) string {
	if owner == qid.RootPart {
		return experiment.QuestionnaireSection
	}
	return experr.Path(experiment.PartPrefix+owner, experiment.QuestionnaireSection)
}

// planQuestionnaire distributes the (already identified) questions of a
// questionnaire over pages of at most perScreen questions.
//
// Automatic splitting slices the declaration order into consecutive chunks.
// Manual splitting buckets questions by their "manual screen"; buckets are
// numbered consecutively in ascending order of the declared screen, so
// screens 1, 3 and 4 become pages 1, 2 and 3.
func (c *compilation) planQuestionnaire(q *experiment.Questionnaire, questions []*question.Question) ([]page, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	perScreen := c.opts.QuestionsPerScreen
	path := questionnairePath(q.Owner)

	if !q.ManualSplit {
		var pages []page
		for chunk := range slices.Chunk(questions, perScreen) {
			pages = append(pages, page{questions: chunk})
		}
		for _, qu := range questions {
			if qu.ManualScreen != 0 {
				c.logger.Warn("Manual screen ignored, the questionnaire is split automatically.", "question", qu.ID)
			}
		}
		return pages, nil
	}

	var errs []error
	buckets := make(map[int][]*question.Question)
	for _, qu := range questions {
		if qu.ManualScreen < 1 {
			errs = append(errs, experr.Configf(experr.Path(path, question.SectionPrefix+qu.Label), "",
				`"manual screen" is required when the questionnaire is split manually`))
			continue
		}
		buckets[qu.ManualScreen] = append(buckets[qu.ManualScreen], qu)
	}
	indexes := make([]int, 0, len(buckets))
	for idx := range buckets {
		indexes = append(indexes, idx)
	}
	slices.Sort(indexes)

	pages := make([]page, 0, len(indexes))
	for _, idx := range indexes {
		bucket := buckets[idx]
		if len(bucket) > perScreen {
			errs = append(errs, experr.Configf(path, "",
				"manual screen %d holds %d questions, at most %d are allowed", idx, len(bucket), perScreen))
			continue
		}
		pages = append(pages, page{questions: bucket})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return pages, nil
}
