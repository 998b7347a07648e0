package tui

import "time"

// RowStartedMsg marks a composition as running.
type RowStartedMsg struct {
	Index int
}

// RowFinishedMsg records the outcome of one composition.
type RowFinishedMsg struct {
	Index      int
	Status     string
	Background string
	Detail     string
	Elapsed    time.Duration
}

// WorkDoneMsg signals that all background work has completed.
type WorkDoneMsg struct{}

// ErrorMsg signals a fatal error; the TUI should quit.
type ErrorMsg struct {
	Err error
}
