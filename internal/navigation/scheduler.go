package navigation

import "time"

// Task is a scheduled single-shot function.
type Task interface {
	// Stop prevents the task from firing and reports whether it was pending.
	Stop() bool
}

// Scheduler runs f once after d on its own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// SystemScheduler schedules with time.AfterFunc.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}
