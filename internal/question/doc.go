// Package question defines the closed set of question kinds, the per-kind
// factory registry that turns a `question N` config section into a typed
// Question, and the answer conventions shared by the runtime (the "n/a"
// sentinel and the ";" token delimiter).
//
// A Question is composed of optional capabilities rather than specialised
// types: a ChoiceSet for button-like kinds, a Range for numeric kinds, and a
// Dependency when the question is unlocked by another one.
package question
