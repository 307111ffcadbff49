package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/chitboxes/pkg/config"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type boxStartedMsg struct{ index int }

type boxDoneMsg boxResult

type batchDoneMsg struct{ err error }

type tickMsg time.Time

// =============================================================================
// BatchModel - Live batch progress
// =============================================================================

type boxState int

const (
	boxPending boxState = iota
	boxRunning
	boxDone
	boxFailed
)

type boxRow struct {
	state  boxState
	result boxResult
	start  time.Time
}

// BatchModel is the bubbletea model showing one row per box of a batch.
type BatchModel struct {
	Entries []config.Entry
	rows    []boxRow
	frame   int
	done    bool
	err     error
	cancel  context.CancelFunc
}

func newBatchModel(entries []config.Entry, cancel context.CancelFunc) BatchModel {
	return BatchModel{
		Entries: entries,
		rows:    make([]boxRow, len(entries)),
		cancel:  cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m BatchModel) Init() tea.Cmd {
	return tick()
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case boxStartedMsg:
		m.rows[msg.index] = boxRow{state: boxRunning, start: time.Now()}
	case boxDoneMsg:
		row := &m.rows[msg.index]
		row.result = boxResult(msg)
		row.state = boxDone
		if msg.err != nil {
			row.state = boxFailed
		}
	case batchDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

// Counts returns how many boxes finished and how many failed.
func (m BatchModel) Counts() (finished, failed int) {
	for _, r := range m.rows {
		switch r.state {
		case boxDone:
			finished++
		case boxFailed:
			finished++
			failed++
		}
	}
	return finished, failed
}

func (m BatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Generating boxes"))
	b.WriteString("\n")
	if !m.done {
		b.WriteString(listDimStyle.Render("q quit"))
	}
	b.WriteString("\n\n")

	rows := make([][]string, len(m.Entries))
	for i, e := range m.Entries {
		rows[i] = []string{m.statusIcon(m.rows[i]), e.Name, e.Options.Dimensions().String(), strings.Join(e.Options.Formats, ", "), m.detail(m.rows[i])}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Box", "Size", "Formats", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if row >= len(m.rows) {
				return lipgloss.NewStyle()
			}
			switch m.rows[row].state {
			case boxDone:
				return StyleSuccess
			case boxFailed:
				return lipgloss.NewStyle().Foreground(colorRed)
			case boxRunning:
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorDim)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")

	finished, failed := m.Counts()
	summary := fmt.Sprintf("  [%d/%d]", finished, len(m.Entries))
	if failed > 0 {
		summary += fmt.Sprintf(" %d failed", failed)
	}
	if m.done && m.err != nil && failed == 0 {
		summary += " stopped: " + m.err.Error()
	}
	b.WriteString(listDimStyle.Render(summary))
	b.WriteString("\n")
	return b.String()
}

func (m BatchModel) statusIcon(r boxRow) string {
	switch r.state {
	case boxRunning:
		return spinnerFrames[m.frame%len(spinnerFrames)]
	case boxDone:
		return iconSuccess
	case boxFailed:
		return iconError
	}
	return " "
}

func (m BatchModel) detail(r boxRow) string {
	switch r.state {
	case boxRunning:
		return "rendering " + time.Since(r.start).Round(100*time.Millisecond).String()
	case boxDone:
		status := iconFresh
		if r.result.cached {
			status = iconCached
		}
		return fmt.Sprintf("%s · %s", status, r.result.duration.Round(time.Millisecond))
	case boxFailed:
		return r.result.err.Error()
	}
	return "pending"
}
