// Package navigation walks a compiled experiment one screen at a time.
//
// A Controller owns the visible screen, the per-screen answer aggregators
// and the session's answer store. Participant actions and timer events are
// applied one after another: either by calling the Controller methods from a
// single goroutine, or by feeding Commands to Run, which also consumes the
// "elapsed" events of timed screens on the same loop.
//
// Timed screens (part intros and breaks) schedule a single-shot task when
// entered. The task only posts an event; the controller marks the screen as
// elapsed when it consumes that event. Entering another screen stops the
// pending task and bumps a generation counter so that a late event for the
// old screen is dropped.
package navigation
