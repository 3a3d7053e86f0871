package navigation

import (
	"context"

	"github.com/vk/palila/internal/compiler"
	"github.com/vk/palila/internal/ctxlog"
)

// event is posted by scheduled tasks and consumed on the controller's loop.
type event struct {
	screen     string
	generation uint64
}

// schedule starts the single-shot task of a timed screen. A pending task is
// stopped first, so at most one is ever outstanding.
func (c *Controller) schedule(ctx context.Context, s *compiler.Screen) {
	c.cancelPending()
	gen := c.generation
	logger := ctxlog.FromContext(ctx)
	c.pending = c.scheduler.AfterFunc(s.Duration, func() {
		select {
		case c.events <- event{screen: s.Name, generation: gen}:
		default:
			logger.Warn("Event queue full, elapsed event dropped.", "screen", s.Name)
		}
	})
	logger.Debug("Timed screen scheduled.", "screen", s.Name, "duration", s.Duration, "generation", gen)
}

// cancelPending stops the outstanding task and invalidates its events.
func (c *Controller) cancelPending() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.generation++
}

// handle consumes one event.
func (c *Controller) handle(ctx context.Context, ev event) {
	logger := ctxlog.FromContext(ctx)
	if ev.generation != c.generation || c.current == nil || ev.screen != c.current.Name {
		logger.Debug("Stale elapsed event dropped.", "screen", ev.screen, "generation", ev.generation)
		return
	}
	c.pending = nil
	c.states[ev.screen].elapsed = true
	logger.Debug("Timed screen elapsed.", "screen", ev.screen)
	c.releaseWaiters(nil)
}

// Pump consumes the events already queued without blocking and returns how
// many it handled. Callers that drive the controller directly use it instead
// of Run.
func (c *Controller) Pump(ctx context.Context) int {
	n := 0
	for {
		select {
		case ev := <-c.events:
			c.handle(ctx, ev)
			n++
		default:
			return n
		}
	}
}

// releaseWaiters answers every pending wait command.
func (c *Controller) releaseWaiters(err error) {
	for _, w := range c.waiters {
		w <- err
	}
	c.waiters = nil
}
