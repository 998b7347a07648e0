package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

const (
	tickInterval = 150 * time.Millisecond
	marqueeGap   = "   "
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// tickMsg drives animation (spinner, marquee).
type tickMsg time.Time

type column struct {
	header string
	width  int
}

var batchColumns = []column{
	{header: "#", width: 3},
	{header: "AUDIO", width: 24},
	{header: "STATUS", width: 9},
	{header: "BACKGROUND", width: 20},
	{header: "TIME", width: 7},
	{header: "DETAIL", width: 40},
}

// Row is one composition in the batch table.
type Row struct {
	Audio      string
	Status     string
	Background string
	Detail     string
	Started    time.Time
	Elapsed    time.Duration
}

// BatchModel is a bubbletea model that renders one row per composition.
type BatchModel struct {
	title string
	rows  []Row
	done  bool
	err   error
	now   func() time.Time

	// Animation state.
	tick int
}

// NewBatchModel creates a model with a pending row for every narration.
func NewBatchModel(title string, audio []string) BatchModel {
	rows := make([]Row, len(audio))
	for i, path := range audio {
		rows[i] = Row{Audio: filepath.Base(path), Status: StatusPending}
	}
	return BatchModel{title: title, rows: rows, now: time.Now}
}

func scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init satisfies the tea.Model interface.
func (m BatchModel) Init() tea.Cmd {
	return scheduleTick()
}

// Update satisfies the tea.Model interface.
func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.tick++
		if m.done {
			return m, nil
		}
		return m, scheduleTick()

	case RowStartedMsg:
		if row := m.row(msg.Index); row != nil {
			row.Status = StatusComposing
			row.Started = m.now()
		}
		return m, nil

	case RowFinishedMsg:
		if row := m.row(msg.Index); row != nil {
			row.Status = msg.Status
			row.Background = msg.Background
			row.Detail = msg.Detail
			row.Elapsed = msg.Elapsed
		}
		return m, nil

	case WorkDoneMsg:
		m.done = true
		return m, tea.Quit

	case ErrorMsg:
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *BatchModel) row(index int) *Row {
	if index < 0 || index >= len(m.rows) {
		return nil
	}
	return &m.rows[index]
}

// View satisfies the tea.Model interface.
func (m BatchModel) View() string {
	if m.done && m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	var b strings.Builder
	if m.title != "" {
		b.WriteString(titleStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	headers := make([]string, len(batchColumns))
	for i, col := range batchColumns {
		headers[i] = HeaderStyle.Render(runewidth.FillRight(col.header, col.width))
	}
	b.WriteString(strings.Join(headers, "  "))
	b.WriteByte('\n')

	for i, row := range m.rows {
		values := []string{
			fmt.Sprintf("%d", i+1),
			row.Audio,
			row.Status,
			NonEmptyOrDash(row.Background),
			m.elapsed(row),
			row.Detail,
		}
		parts := make([]string, len(values))
		for j, val := range values {
			width := batchColumns[j].width
			if !m.done && row.Status == StatusComposing && runewidth.StringWidth(val) > width {
				val = marqueeText(val, width, m.tick)
			} else {
				val = runewidth.Truncate(strings.TrimSpace(val), width, "...")
			}
			cell := runewidth.FillRight(val, width)
			if j == 2 {
				cell = StatusStyle(row.Status).Render(cell)
			}
			parts[j] = cell
		}
		b.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		b.WriteByte('\n')
	}

	if !m.done {
		finished, total := m.Progress()
		spinner := spinnerFrames[m.tick%len(spinnerFrames)]
		fmt.Fprintf(&b, "\n%s Composing %d/%d...\n", spinner, finished, total)
	}
	return b.String()
}

func (m BatchModel) elapsed(row Row) string {
	switch {
	case row.Elapsed > 0:
		return formatElapsed(row.Elapsed)
	case row.Status == StatusComposing && !row.Started.IsZero():
		return formatElapsed(m.now().Sub(row.Started))
	default:
		return "-"
	}
}

// Progress returns how many rows have finished out of the total.
func (m BatchModel) Progress() (int, int) {
	finished := 0
	for _, row := range m.rows {
		if row.Status != StatusPending && row.Status != StatusComposing {
			finished++
		}
	}
	return finished, len(m.rows)
}

// Rows returns a copy of the current rows.
func (m BatchModel) Rows() []Row {
	return append([]Row(nil), m.rows...)
}

// Done returns whether the model has finished (work done or error).
func (m BatchModel) Done() bool {
	return m.done
}

// Err returns any fatal error that occurred.
func (m BatchModel) Err() error {
	return m.err
}

// marqueeText renders a scrolling window over text wider than width.
func marqueeText(text string, width, tick int) string {
	text = strings.TrimSpace(text)
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	cycle := []rune(text + marqueeGap)
	offset := tick % len(cycle)
	var result strings.Builder
	for i := 0; runewidth.StringWidth(result.String()) < width && i < len(cycle); i++ {
		r := cycle[(offset+i)%len(cycle)]
		if runewidth.StringWidth(result.String())+runewidth.RuneWidth(r) > width {
			break
		}
		result.WriteRune(r)
	}
	return result.String()
}

// formatElapsed formats a duration for display.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < 10*time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

// NonEmptyOrDash returns "-" for empty/whitespace strings.
func NonEmptyOrDash(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "-"
	}
	return value
}
