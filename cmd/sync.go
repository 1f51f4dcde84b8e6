package main

import (
	"context"

	"github.com/desertthunder/mist/internal/formatter"
	"github.com/desertthunder/mist/internal/tasks"
	"github.com/desertthunder/mist/internal/ui"
	"github.com/urfave/cli/v3"
)

// Fetch refreshes the recorded entry list of a remote, the current one by default.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 1); err != nil {
		return err
	}
	engine, err := r.project()
	if err != nil {
		return err
	}
	remote, err := r.registry.Resolve(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	if cmd.Bool("set-upstream") {
		if err := r.registry.SetCurrent(remote.Name); err != nil {
			return err
		}
	}

	ids, err := engine.Fetch(ctx, remote)
	if err != nil {
		return err
	}
	if err := r.writePlain("%s: %d entries\n", remote.Name, len(ids)); err != nil {
		return err
	}

	if !cmd.Bool("tags") {
		return nil
	}
	var items []tasks.TagItem
	err = r.withProgress(ctx, func(ctx context.Context, events chan<- tasks.Event) error {
		items, err = engine.FetchTags(ctx, events, remote.Name)
		return err
	})
	if items != nil {
		ui.PrintTags(r.output, items)
	}
	return err
}

// Merge downloads recorded entries missing from the working directory.
func (r *Runner) Merge(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 1); err != nil {
		return err
	}
	engine, err := r.project()
	if err != nil {
		return err
	}
	remote, err := r.registry.Resolve(cmd.Args().Get(0))
	if err != nil {
		return err
	}

	var result *tasks.MergeResult
	err = r.withProgress(ctx, func(ctx context.Context, events chan<- tasks.Event) error {
		result, err = engine.Merge(ctx, events, remote.Name)
		return err
	})
	if err != nil {
		return err
	}
	ui.PrintMerge(r.output, result)
	return nil
}

// Pull fetches a remote and merges it.
func (r *Runner) Pull(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 1); err != nil {
		return err
	}
	return r.pull(ctx, cmd.Args().Get(0), cmd.Bool("set-upstream"))
}

func (r *Runner) pull(ctx context.Context, name string, setUpstream bool) error {
	engine, err := r.project()
	if err != nil {
		return err
	}
	remote, err := r.registry.Resolve(name)
	if err != nil {
		return err
	}
	if setUpstream {
		if err := r.registry.SetCurrent(remote.Name); err != nil {
			return err
		}
	}

	var result *tasks.MergeResult
	err = r.withProgress(ctx, func(ctx context.Context, events chan<- tasks.Event) error {
		result, err = engine.Pull(ctx, events, remote)
		return err
	})
	if err != nil {
		return err
	}
	ui.PrintMerge(r.output, result)
	return nil
}

// Status compares the recorded entries with the working directory.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 1); err != nil {
		return err
	}
	engine, err := r.project()
	if err != nil {
		return err
	}
	remote, err := r.registry.Resolve(cmd.Args().Get(0))
	if err != nil {
		return err
	}

	report, err := engine.Status(remote.Name)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	ui.PrintStatus(r.output, report)
	return nil
}

// List prints the recorded entries of a remote.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 1); err != nil {
		return err
	}
	engine, err := r.project()
	if err != nil {
		return err
	}
	remote, err := r.registry.Resolve(cmd.Args().Get(0))
	if err != nil {
		return err
	}

	verbose := cmd.Bool("verbose")
	items, err := engine.List(ctx, remote.Name, verbose)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}
	if cmd.IsSet("format") || cmd.IsSet("output") {
		return r.export(formatter.Listing{Remote: remote, Items: items}, cmd.String("format"), cmd.String("output"))
	}
	ui.PrintEntries(r.output, items, verbose)
	return nil
}

func (r *Runner) export(listing formatter.Listing, format, path string) error {
	f, err := formatter.ParseFormat(format)
	if err != nil {
		return err
	}
	if path == "" {
		data, err := formatter.Export(listing, f)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	}

	written, err := formatter.WriteExport(listing, f, path)
	if err != nil {
		return err
	}
	return r.writePlain("Wrote %s\n", written)
}

// Log prints recent merge runs from the journal.
func (r *Runner) Log(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 1); err != nil {
		return err
	}
	if _, err := r.project(); err != nil {
		return err
	}

	runs, err := r.journal.Recent(cmd.Args().Get(0), cmd.Int("limit"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	ui.PrintRuns(r.output, runs)
	return nil
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output JSON",
	}
}

func upstreamFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "set-upstream",
		Aliases: []string{"u"},
		Usage:   "Make the remote current",
	}
}

func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Record the current entry list of a remote",
		ArgsUsage: "[remote]",
		Flags: []cli.Flag{
			upstreamFlag(),
			&cli.BoolFlag{
				Name:  "tags",
				Usage: "Look up tags for every recorded entry",
			},
		},
		Action: r.Fetch,
	}
}

func mergeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Download recorded entries missing locally",
		ArgsUsage: "[remote]",
		Action:    r.Merge,
	}
}

func pullCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "pull",
		Usage:     "Fetch a remote and merge it",
		ArgsUsage: "[remote]",
		Flags:     []cli.Flag{upstreamFlag()},
		Action:    r.Pull,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show missing, leftover, duplicate and failed entries",
		ArgsUsage: "[remote]",
		Flags:     []cli.Flag{jsonFlag()},
		Action:    r.Status,
	}
}

func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List recorded entries",
		ArgsUsage: "[remote]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show titles, resolving missing ones",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export as csv, markdown or text",
				Value:   string(formatter.FormatText),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the export to `file`",
			},
			jsonFlag(),
		},
		Action: r.List,
	}
}

func logCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "log",
		Usage:     "Show recent merge runs",
		ArgsUsage: "[remote]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show, 0 for all",
				Value:   20,
			},
			jsonFlag(),
		},
		Action: r.Log,
	}
}
