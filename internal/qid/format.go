package qid

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	questionnaireSegment = "questionnaire"
	demoSegment          = "demo"
	width                = 2
)

// String serializes the ID into its canonical form.
func (id ID) String() string {
	switch id.Scope {
	case ScopeQuestionnaire:
		return id.Part + "-" + questionnaireSegment + "-" + id.Question
	case ScopeDemo:
		return demoSegment + "-" + id.Question
	default:
		return id.Prefix() + id.Question
	}
}

// Prefix is the id without its question segment, including the trailing
// dash, e.g. "01-02-". Questions sharing a prefix share a screen unless the
// questionnaire was split.
func (id ID) Prefix() string {
	switch id.Scope {
	case ScopeQuestionnaire:
		return id.Part + "-" + questionnaireSegment + "-"
	case ScopeDemo:
		return demoSegment + "-"
	default:
		return id.Part + "-" + id.Audio + "-"
	}
}

// WithQuestion returns a copy of id pointing at another question of the same
// prefix.
func (id ID) WithQuestion(question string) ID {
	id.Question = ZeroFill(question)
	return id
}

// ReplayColumn returns the column that counts playbacks of an audio item.
// side is "", "left" or "right".
func ReplayColumn(part, audio, side string) string {
	col := ZeroFill(part) + "-" + ZeroFill(audio) + "-replays"
	if side != "" {
		col += "-" + side
	}
	return col
}

var (
	segment           = `([A-Za-z0-9_.]+)`
	rootQuestionnaire = regexp.MustCompile(`^` + RootPart + `-` + questionnaireSegment + `-` + segment + `$`)
	partQuestionnaire = regexp.MustCompile(`^` + segment + `-` + questionnaireSegment + `-` + segment + `$`)
	demoQuestion      = regexp.MustCompile(`^` + demoSegment + `-` + segment + `$`)
	audioQuestion     = regexp.MustCompile(`^` + segment + `-` + segment + `-` + segment + `$`)
)

// Parse converts a canonical identifier back into an ID.
func Parse(raw string) (ID, error) {
	if raw == "" {
		return ID{}, fmt.Errorf("identifier cannot be empty")
	}
	if m := rootQuestionnaire.FindStringSubmatch(raw); m != nil {
		return ID{Scope: ScopeQuestionnaire, Part: RootPart, Question: m[1]}, nil
	}
	if m := partQuestionnaire.FindStringSubmatch(raw); m != nil {
		return ID{Scope: ScopeQuestionnaire, Part: m[1], Question: m[2]}, nil
	}
	if m := demoQuestion.FindStringSubmatch(raw); m != nil {
		return ID{Scope: ScopeDemo, Question: m[1]}, nil
	}
	if m := audioQuestion.FindStringSubmatch(raw); m != nil {
		return ID{Scope: ScopeAudio, Part: m[1], Audio: m[2], Question: m[3]}, nil
	}
	return ID{}, fmt.Errorf("invalid question identifier %q", raw)
}

// ZeroFill left-pads s with zeros to two characters, keeping a leading sign
// in front. Longer strings are returned unchanged.
func ZeroFill(s string) string {
	if len(s) >= width {
		return s
	}
	pad := strings.Repeat("0", width-len(s))
	if s != "" && (s[0] == '+' || s[0] == '-') {
		return s[:1] + pad + s[1:]
	}
	return pad + s
}
