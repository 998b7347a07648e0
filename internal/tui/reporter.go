package tui

import (
	"errors"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"shortsmith/internal/compose"
)

// BatchReporter forwards batch progress to a bubbletea program.
type BatchReporter struct {
	send func(tea.Msg)
}

// NewBatchReporter returns a reporter that delivers messages through send.
func NewBatchReporter(send func(tea.Msg)) *BatchReporter {
	return &BatchReporter{send: send}
}

// Start implements compose.Reporter.
func (r *BatchReporter) Start(index int, _ compose.Request) {
	r.send(RowStartedMsg{Index: index})
}

// Complete implements compose.Reporter.
func (r *BatchReporter) Complete(index int, outcome compose.Outcome) {
	r.send(FinishedRow(index, outcome))
}

// FinishedRow summarizes outcome as a table row update.
func FinishedRow(index int, outcome compose.Outcome) RowFinishedMsg {
	msg := RowFinishedMsg{Index: index, Elapsed: outcome.Elapsed}
	if outcome.Result != nil {
		msg.Background = filepath.Base(outcome.Result.BackgroundSource)
	}
	switch {
	case outcome.OK():
		msg.Status = StatusDone
		msg.Detail = filepath.Base(outcome.OutputPath)
		if n := len(outcome.Recovered); n > 0 {
			msg.Detail += " (" + recoveredSummary(outcome.Recovered) + ")"
		}
	case compose.IsPredictable(outcome.Err):
		msg.Status = StatusFailed
		msg.Detail = outcome.Reason
	default:
		msg.Status = StatusError
		msg.Detail = outcome.Reason
	}
	return msg
}

func recoveredSummary(errs []error) string {
	switch {
	case len(errs) == 1 && errors.Is(errs[0], compose.ErrMusicMix):
		return "no music"
	case len(errs) == 1:
		return "1 caption skipped"
	default:
		return "recovered from failures"
	}
}

var _ compose.Reporter = (*BatchReporter)(nil)
