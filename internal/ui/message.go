package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/mist/internal/tasks"
)

// eventMsg carries one batch event into the program.
type eventMsg struct {
	event tasks.Event
}

// doneMsg is sent once the event channel is closed.
type doneMsg struct{}

var (
	_ tea.Msg = eventMsg{}
	_ tea.Msg = doneMsg{}
)

// waitForEvent blocks on the channel and turns the next event into a message.
func waitForEvent(events <-chan tasks.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return doneMsg{}
		}
		return eventMsg{event: ev}
	}
}
