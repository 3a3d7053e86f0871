package screengraph

import (
	"errors"

	"github.com/vk/palila/internal/experr"
)

// Validate checks the finished graph. Every failure is a ProgrammingError:
//   - a previous or next link names a screen that does not exist,
//   - a link is not mirrored (a.next == b but b.previous != a),
//   - walking next links from the first screen loops or misses a screen.
func (g *Graph) Validate() error {
	var errs []error
	for _, name := range g.order {
		n := g.nodes[name]
		if n.next != "" {
			succ, ok := g.nodes[n.next]
			switch {
			case !ok:
				errs = append(errs, experr.Programmingf("screen %q: next screen %q does not exist", name, n.next))
			case succ.previous != name:
				errs = append(errs, experr.Programmingf("screen %q: next screen %q points back to %q", name, n.next, succ.previous))
			}
		}
		if n.previous != "" {
			if _, ok := g.nodes[n.previous]; !ok {
				errs = append(errs, experr.Programmingf("screen %q: previous screen %q does not exist", name, n.previous))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if len(g.order) == 0 {
		return nil
	}

	walk, err := g.Walk(g.order[0])
	if err != nil {
		return err
	}
	if len(walk) != len(g.order) {
		seen := make(map[string]bool, len(walk))
		for _, name := range walk {
			seen[name] = true
		}
		for _, name := range g.order {
			if !seen[name] {
				return experr.Programmingf("screen %q cannot be reached from %q", name, g.order[0])
			}
		}
	}
	return nil
}

// Walk follows next links from start until a screen without successor and
// returns the visited names. A loop is a ProgrammingError.
func (g *Graph) Walk(start string) ([]string, error) {
	visited := make(map[string]bool)
	var out []string
	for name := start; name != ""; {
		n, ok := g.nodes[name]
		if !ok {
			return nil, experr.Programmingf("screen not found: %s", name)
		}
		if visited[name] {
			return nil, experr.Programmingf("cycle detected involving screen %q", name)
		}
		visited[name] = true
		out = append(out, name)
		name = n.next
	}
	return out, nil
}
