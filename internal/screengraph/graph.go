package screengraph

import (
	"github.com/vk/palila/internal/experr"
)

// Graph is an ordered set of screens and their links. It is not safe for
// concurrent use; the compiler builds it on a single goroutine.
type Graph struct {
	order []string
	nodes map[string]*node
}

// node is a single screen. It is un-exported so that callers work with
// screen names only.
type node struct {
	name     string
	previous string
	next     string
}

// New creates and returns an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

// AddScreen appends a screen. Adding a name twice is a ProgrammingError.
func (g *Graph) AddScreen(name, previous, next string) error {
	if name == "" {
		return experr.Programmingf("screen name cannot be empty")
	}
	if _, ok := g.nodes[name]; ok {
		return experr.Programmingf("duplicate screen name %q", name)
	}
	g.nodes[name] = &node{name: name, previous: previous, next: next}
	g.order = append(g.order, name)
	return nil
}

// SetNext patches the successor of an existing screen.
func (g *Graph) SetNext(name, next string) error {
	n, ok := g.nodes[name]
	if !ok {
		return experr.Programmingf("screen not found: %s", name)
	}
	if name == next {
		return experr.Programmingf("self-referential link not allowed: %s -> %s", name, next)
	}
	n.next = next
	return nil
}

// SetPrevious patches the predecessor of an existing screen.
func (g *Graph) SetPrevious(name, previous string) error {
	n, ok := g.nodes[name]
	if !ok {
		return experr.Programmingf("screen not found: %s", name)
	}
	if name == previous {
		return experr.Programmingf("self-referential link not allowed: %s -> %s", previous, name)
	}
	n.previous = previous
	return nil
}

// Link makes to the successor of from and from the predecessor of to.
func (g *Graph) Link(from, to string) error {
	if err := g.SetNext(from, to); err != nil {
		return err
	}
	return g.SetPrevious(to, from)
}

// Has reports whether a screen exists.
func (g *Graph) Has(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// Next returns the successor of a screen, "" for the last one.
func (g *Graph) Next(name string) (string, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return "", false
	}
	return n.next, true
}

// Previous returns the predecessor of a screen, "" for the first one.
func (g *Graph) Previous(name string) (string, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return "", false
	}
	return n.previous, true
}

// Names returns the screens in the order they were added.
func (g *Graph) Names() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of screens.
func (g *Graph) Len() int {
	return len(g.order)
}
