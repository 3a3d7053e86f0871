package app

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/vk/palila/internal/compiler"
	"github.com/vk/palila/internal/qid"
)

// printPlan writes the compiled screen sequence, the answer columns and the
// questionnaire pages.
func printPlan(w io.Writer, exp *compiler.Experiment) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Screens (%d):\n", len(exp.Screens))
	fmt.Fprintln(tw, "#\tSCREEN\tKIND\tPREVIOUS\tNEXT\tQUESTIONS")
	for i, s := range exp.Screens {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, s.Name, s.Kind, dash(s.Previous), dash(s.Next), dash(strings.Join(s.QuestionIDs(), " ")))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nAnswer columns (%d):\n", len(exp.QuestionIDs))
	for _, id := range exp.QuestionIDs {
		fmt.Fprintf(w, "  %s\n", id)
	}

	owners := make([]string, 0, len(exp.Plans))
	for owner := range exp.Plans {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		// The root questionnaire comes first.
		if owners[i] == qid.RootPart || owners[j] == qid.RootPart {
			return owners[i] == qid.RootPart && owners[j] != qid.RootPart
		}
		return owners[i] < owners[j]
	})
	fmt.Fprintln(w, "\nQuestionnaire pages:")
	for _, owner := range owners {
		plan := exp.Plans[owner]
		for page := 1; page <= plan.Pages(); page++ {
			fmt.Fprintf(w, "  %s: %s\n", compiler.QuestionnaireScreenName(owner, page), strings.Join(plan[page], " "))
		}
	}

	fmt.Fprintf(w, "\nTimer: starts after %s, stops at %s\n", dash(exp.TimerStart), exp.TimerStop)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
