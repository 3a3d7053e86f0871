// Package unlock implements the dependency engine of a screen: questions
// that declare "unlocked by" stay locked (answered "n/a", not interactive)
// until their controller's answer shares a token with their unlock
// condition.
//
// Only one level is supported. A dependent reacts to its controller; it is
// never a controller itself (the compiler rejects such configurations).
package unlock
