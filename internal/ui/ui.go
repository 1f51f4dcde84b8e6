package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mist/internal/tasks"
)

// Model is the bubbletea model of a running batch.
type Model struct {
	events  <-chan tasks.Event
	stop    context.CancelFunc
	tally   *Tally
	bar     progress.Model
	help    help.Model
	keys    keyMap
	current string
	bytes   string
	stopped bool
}

// NewModel creates a progress view over events. stop is called when the user presses the
// stop key.
func NewModel(events <-chan tasks.Event, stop context.CancelFunc) *Model {
	return &Model{
		events: events,
		stop:   stop,
		tally:  &Tally{},
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.stop) && !m.stopped {
			m.stopped = true
			if m.stop != nil {
				m.stop()
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-30, 10), 60)
		return m, nil
	case doneMsg:
		return m, tea.Quit
	case eventMsg:
		line := m.tally.Apply(msg.event)
		switch ev := msg.event.(type) {
		case tasks.ItemStarted:
			m.current, m.bytes = ev.Title, ""
		case tasks.ItemProgress:
			if ev.Total > 0 {
				m.bytes = fmt.Sprintf("%s / %s", formatBytes(ev.Downloaded), formatBytes(ev.Total))
			}
		}
		cmds := []tea.Cmd{waitForEvent(m.events)}
		if line != "" {
			cmds = append(cmds, tea.Println(line))
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.bar.ViewAs(m.tally.Percent()))
	fmt.Fprintf(&b, " %d/%d", m.tally.Done, m.tally.Total)
	if m.tally.Failed > 0 {
		b.WriteString(" " + Error(fmt.Sprintf("%d failed", m.tally.Failed)))
	}
	b.WriteString("\n")
	if m.stopped {
		b.WriteString(Warn("stopping, waiting for running downloads...") + "\n")
	} else if m.current != "" {
		b.WriteString(Muted(m.current))
		if m.bytes != "" {
			b.WriteString(" " + Muted(m.bytes))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// runProgram runs the bubbletea program for m.
var runProgram = func(m tea.Model, out io.Writer) error {
	_, err := tea.NewProgram(m, tea.WithOutput(out)).Run()
	return err
}

// RunProgress renders events on out until the channel is closed. If the program fails,
// the remaining events are printed by a [LineReporter] and the error is returned.
func RunProgress(events <-chan tasks.Event, stop context.CancelFunc, out io.Writer) (*Tally, error) {
	m := NewModel(events, stop)
	if err := runProgram(m, out); err != nil {
		tally := NewLineReporter(out).drain(m.tally, events)
		return tally, fmt.Errorf("progress display failed: %w", err)
	}
	return m.tally, nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
