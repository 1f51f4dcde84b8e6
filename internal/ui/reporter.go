package ui

import (
	"fmt"
	"io"

	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/tasks"
)

// Tally accumulates batch events into counters and renders finished items as lines.
type Tally struct {
	RunID   string
	Total   int
	Done    int
	Failed  int
	Outcome models.Outcome
}

// Apply records ev and returns the line to print for it, if any.
func (t *Tally) Apply(ev tasks.Event) string {
	switch ev := ev.(type) {
	case tasks.BatchStarted:
		t.RunID, t.Total = ev.RunID, ev.Total
		return Title(fmt.Sprintf("%s: %d item(s)", ev.Remote, ev.Total))
	case tasks.ItemFinished:
		t.Done = max(t.Done, ev.Done)
		return fmt.Sprintf("%s %s", OK("✓"), ev.Title)
	case tasks.ItemFailed:
		t.Done = max(t.Done, ev.Done)
		t.Failed++
		return fmt.Sprintf("%s %s: %v", Error("✗"), ev.ID, ev.Err)
	case tasks.BatchFinished:
		t.Outcome = ev.Outcome
		t.Failed = ev.Failed
	}
	return ""
}

// Percent is the completed share of the batch.
func (t *Tally) Percent() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Done) / float64(t.Total)
}

// LineReporter writes one line per finished item, for non-interactive output.
type LineReporter struct {
	out io.Writer
}

func NewLineReporter(out io.Writer) *LineReporter {
	return &LineReporter{out: out}
}

// Run drains events until the channel is closed.
func (r *LineReporter) Run(events <-chan tasks.Event) *Tally {
	return r.drain(&Tally{}, events)
}

func (r *LineReporter) drain(t *Tally, events <-chan tasks.Event) *Tally {
	for ev := range events {
		if line := t.Apply(ev); line != "" {
			fmt.Fprintln(r.out, line)
		}
	}
	return t
}

// Bell rings the terminal bell.
func Bell(out io.Writer) {
	fmt.Fprint(out, "\a")
}
