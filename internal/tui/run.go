package tui

import (
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine,
// and blocks until the program exits. It returns the final model.
func RunWithWork(out io.Writer, model BatchModel, workFn func(send func(tea.Msg))) (BatchModel, error) {
	p := tea.NewProgram(model, tea.WithOutput(out))

	go func() {
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)
		workFn(p.Send)
		p.Send(WorkDoneMsg{})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return model, err
	}
	m, ok := finalModel.(BatchModel)
	if !ok {
		return model, nil
	}
	return m, m.Err()
}
