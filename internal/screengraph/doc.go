// Package screengraph holds the previous/next links between compiled screens
// and checks them once compilation is done.
//
// The graph is built incrementally: a screen may name a successor that does
// not exist yet (the end screens are only added at the very end), and links
// can be patched with SetNext and SetPrevious. Validate then rejects any link
// that still dangles.
package screengraph
