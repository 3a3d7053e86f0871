package navigation

import "context"

// Progress describes where a session is.
type Progress struct {
	Participant string
	Screen      string
	Kind        string
	// Position is the 0-based position of Screen in session order.
	Position int
	Total    int
	// Path is the written answer table, set when the session finished.
	Path string
}

// Observer is told about session milestones. Implementations must not block;
// they are called on the controller's goroutine.
type Observer interface {
	SessionStarted(ctx context.Context, p Progress)
	ScreenEntered(ctx context.Context, p Progress)
	SessionFinished(ctx context.Context, p Progress)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(context.Context, Progress)  {}
func (nopObserver) ScreenEntered(context.Context, Progress)   {}
func (nopObserver) SessionFinished(context.Context, Progress) {}
