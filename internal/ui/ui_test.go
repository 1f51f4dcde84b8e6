package ui

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/desertthunder/mist/internal/config"
	"github.com/desertthunder/mist/internal/diff"
	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/tasks"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func batch() []tasks.Event {
	return []tasks.Event{
		tasks.BatchStarted{RunID: "run", Remote: "origin", Total: 3},
		tasks.ItemStarted{ID: "a", Title: "Song A"},
		tasks.ItemProgress{ID: "a", Downloaded: 512, Total: 2048},
		tasks.ItemFinished{ID: "a", Title: "Song A", Done: 1, Total: 3},
		tasks.ItemFailed{ID: "b", Err: errors.New("private video"), Done: 2, Total: 3},
		tasks.ItemFinished{ID: "c", Title: "Song C", Done: 3, Total: 3},
		tasks.BatchFinished{RunID: "run", Outcome: models.OutcomePartial, Fetched: 2, Failed: 1, Total: 3},
	}
}

func TestLineReporter(t *testing.T) {
	events := make(chan tasks.Event, 10)
	for _, ev := range batch() {
		events <- ev
	}
	close(events)

	var out bytes.Buffer
	tally := NewLineReporter(&out).Run(events)

	if tally.Done != 3 || tally.Failed != 1 || tally.Outcome != models.OutcomePartial || tally.Percent() != 1 {
		t.Errorf("unexpected tally %+v", tally)
	}
	want := "origin: 3 item(s)\n✓ Song A\n✗ b: private video\n✓ Song C\n"
	if out.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
	}
}

func TestRunProgressFallback(t *testing.T) {
	saved := runProgram
	t.Cleanup(func() { runProgram = saved })
	runProgram = func(tea.Model, io.Writer) error { return errors.New("no tty") }

	events := make(chan tasks.Event, 10)
	for _, ev := range batch() {
		events <- ev
	}
	close(events)

	var out bytes.Buffer
	tally, err := RunProgress(events, func() {}, &out)
	if err == nil || !strings.Contains(err.Error(), "no tty") {
		t.Errorf("expected the display error, got %v", err)
	}
	if tally.Done != 3 || tally.Outcome != models.OutcomePartial {
		t.Errorf("unexpected tally %+v", tally)
	}
	if !strings.Contains(out.String(), "✓ Song C\n") {
		t.Errorf("remaining events were not printed:\n%s", out.String())
	}
}

func TestModelUpdate(t *testing.T) {
	events := make(chan tasks.Event)
	stopped := false
	m := NewModel(events, func() { stopped = true })

	for _, ev := range batch()[:3] {
		m.Update(eventMsg{event: ev})
	}
	view := m.View()
	if !strings.Contains(view, "0/3") || !strings.Contains(view, "Song A") || !strings.Contains(view, "512 B / 2.0 KiB") {
		t.Errorf("unexpected view:\n%s", view)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !stopped {
		t.Error("stop key should cancel the batch")
	}
	if !strings.Contains(m.View(), "stopping") {
		t.Errorf("expected stopping notice:\n%s", m.View())
	}

	if _, cmd := m.Update(doneMsg{}); cmd == nil {
		t.Error("done should quit")
	}
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	PrintStatus(&out, diff.Report{Remote: "origin", Missing: []string{"z", "a"}, Leftovers: []string{"x"}})
	want := "missing (2):\n  a\n  z\nleftovers (1):\n  x\n"
	if out.String() != want {
		t.Errorf("got:\n%s", out.String())
	}

	out.Reset()
	PrintStatus(&out, diff.Report{Remote: "origin"})
	if out.String() != "origin is up to date\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestPrintRemotesAndConfig(t *testing.T) {
	var out bytes.Buffer
	remotes := []models.Remote{{Name: "origin", URL: "https://a"}, {Name: "b", URL: "https://b"}}
	PrintRemotes(&out, remotes, "origin", true)
	if out.String() != "origin\thttps://a\nb\thttps://b\n" {
		t.Errorf("got %q", out.String())
	}

	out.Reset()
	PrintConfig(&out, []config.Entry{{Key: config.NewKey("remote", "origin", "url"), Value: "https://a"}})
	if out.String() != "remote.origin.url=https://a\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestPrintRuns(t *testing.T) {
	var out bytes.Buffer
	PrintRuns(&out, nil)
	if !strings.Contains(out.String(), "no runs") {
		t.Errorf("got %q", out.String())
	}

	out.Reset()
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	PrintRuns(&out, []models.Run{{ID: "0123456789", StartedAt: start, FinishedAt: start.Add(90 * time.Second), Missing: 2, Fetched: 2, Outcome: models.OutcomeCompleted}})
	line := out.String()
	for _, want := range []string{"01234567 ", "2024-01-02 03:04:05", "completed", "missing 2, fetched 2, failed 0", "1m30s"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected %q in %q", want, line)
		}
	}
}

func TestProfileFor(t *testing.T) {
	var buf bytes.Buffer
	if p := profileFor(config.ColorOff, &buf); p != termenv.Ascii {
		t.Errorf("off: got %v", p)
	}
	if p := profileFor(config.ColorForce, &buf); p != termenv.ANSI256 {
		t.Errorf("force: got %v", p)
	}
	if p := profileFor(config.ColorAuto, &buf); p != termenv.Ascii {
		t.Errorf("auto on a buffer: got %v", p)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{0: "0 B", 1023: "1023 B", 1024: "1.0 KiB", 5 << 20: "5.0 MiB"}
	for n, want := range tests {
		if got := formatBytes(n); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
