package qid

// Scope tells which kind of screen owns a question.
type Scope int

const (
	ScopeAudio Scope = iota
	ScopeQuestionnaire
	ScopeDemo
)

// RootPart is the part segment of the root questionnaire.
const RootPart = "main"

// ID is the structured form of a question identifier.
type ID struct {
	Scope    Scope
	Part     string
	Audio    string
	Question string
}

// Audio builds the id of a question attached to an audio item.
func Audio(part, audio, question string) ID {
	return ID{Scope: ScopeAudio, Part: ZeroFill(part), Audio: ZeroFill(audio), Question: ZeroFill(question)}
}

// Questionnaire builds the id of a questionnaire question. Use RootPart for
// the root questionnaire.
func Questionnaire(part, question string) ID {
	if part != RootPart {
		part = ZeroFill(part)
	}
	return ID{Scope: ScopeQuestionnaire, Part: part, Question: ZeroFill(question)}
}

// Demo builds the id of a question on the demo screen.
func Demo(question string) ID {
	return ID{Scope: ScopeDemo, Question: ZeroFill(question)}
}
