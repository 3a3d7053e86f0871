package question

import "strings"

// NotApplicable is the answer of locked and display-only questions. It never
// blocks completion.
const NotApplicable = "n/a"

// Delimiter separates the tokens of multi-select answers and unlock conditions.
const Delimiter = ";"

// Tokens splits an answer into trimmed, non-empty tokens.
func Tokens(answer string) []string {
	var out []string
	for _, tok := range strings.Split(answer, Delimiter) {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// JoinTokens is the inverse of Tokens.
func JoinTokens(tokens []string) string {
	return strings.Join(tokens, Delimiter)
}

// Intersects reports whether the token sets a and b share an element.
func Intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, tok := range a {
		set[tok] = struct{}{}
	}
	for _, tok := range b {
		if _, ok := set[tok]; ok {
			return true
		}
	}
	return false
}
