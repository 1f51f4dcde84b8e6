package ui

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/mist/internal/config"
	"github.com/desertthunder/mist/internal/diff"
	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/tasks"
)

// PrintStatus writes the sorted sections of a report.
func PrintStatus(out io.Writer, r diff.Report) {
	if r.Clean() && len(r.Failed) == 0 {
		fmt.Fprintf(out, "%s is up to date\n", r.Remote)
		return
	}

	section := func(title string, ids []string, render func(string) string) {
		if len(ids) == 0 {
			return
		}
		sorted := slices.Clone(ids)
		slices.Sort(sorted)
		fmt.Fprintf(out, "%s (%d):\n", Title(title), len(sorted))
		for _, id := range sorted {
			fmt.Fprintf(out, "  %s\n", render(id))
		}
	}

	section("missing", r.Missing, Warn)
	section("leftovers", r.Leftovers, Muted)
	section("duplicates", r.Duplicates, Error)
	section("failed", r.Failed, Error)
}

// PrintEntries writes recorded entries in snapshot order.
func PrintEntries(out io.Writer, items []tasks.ListItem, verbose bool) {
	for _, item := range items {
		mark := " "
		if item.Local {
			mark = OK("✓")
		}
		if verbose && item.Title != "" {
			fmt.Fprintf(out, "%s %s  %s\n", mark, item.ID, item.Title)
			continue
		}
		fmt.Fprintf(out, "%s %s\n", mark, item.ID)
	}
}

// PrintTags writes the tags of each entry.
func PrintTags(out io.Writer, items []tasks.TagItem) {
	for _, item := range items {
		switch {
		case item.Err != nil:
			fmt.Fprintf(out, "%s  %s\n", item.ID, Error(item.Err.Error()))
		case item.Tags == nil:
			fmt.Fprintf(out, "%s  %s  %s\n", item.ID, item.Title, Muted("no tags"))
		default:
			fmt.Fprintf(out, "%s  %s  %s\n", item.ID, item.Title, strings.Join(item.Tags, ", "))
		}
	}
}

// PrintRemotes lists remote names, with URLs when verbose.
func PrintRemotes(out io.Writer, remotes []models.Remote, current string, verbose bool) {
	for _, r := range remotes {
		name := r.Name
		if r.Name == current {
			name = OK(name)
		}
		if verbose {
			fmt.Fprintf(out, "%s\t%s\n", name, r.URL)
			continue
		}
		fmt.Fprintln(out, name)
	}
}

// PrintConfig writes flattened key=value pairs.
func PrintConfig(out io.Writer, entries []config.Entry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%s=%s\n", e.Key, e.Value)
	}
}

// PrintRuns writes journal rows, newest first.
func PrintRuns(out io.Writer, runs []models.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, Muted("no runs recorded"))
		return
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %s  missing %d, fetched %d, failed %d  %s\n",
			Muted(r.ID[:min(8, len(r.ID))]),
			r.StartedAt.Format(time.DateTime),
			outcomeStyle(r.Outcome),
			r.Missing, r.Fetched, r.Failed,
			Muted(r.Duration().Round(time.Second).String()),
		)
	}
}

// PrintMerge summarizes a merge result.
func PrintMerge(out io.Writer, result *tasks.MergeResult) {
	run := result.Run
	switch run.Outcome {
	case models.OutcomeNoop:
		fmt.Fprintf(out, "%s: nothing to merge\n", run.Remote)
	case models.OutcomeStopped:
		fmt.Fprintf(out, "%s after %d of %d item(s)\n", Warn("stopped"), run.Fetched, run.Missing)
	default:
		fmt.Fprintf(out, "%s: fetched %d of %d item(s)", run.Remote, run.Fetched, run.Missing)
		if run.Failed > 0 {
			fmt.Fprintf(out, ", %s", Error(fmt.Sprintf("%d failed", run.Failed)))
		}
		fmt.Fprintln(out)
	}
}

func outcomeStyle(o models.Outcome) string {
	s := fmt.Sprintf("%-9s", o)
	switch o {
	case models.OutcomeCompleted:
		return OK(s)
	case models.OutcomePartial, models.OutcomeStopped:
		return Warn(s)
	}
	return Muted(s)
}
