package main

import (
	"context"
	"errors"

	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/shared"
	"github.com/desertthunder/mist/internal/ui"
	"github.com/urfave/cli/v3"
)

// RemoteList prints configured remotes, marking the current one.
func (r *Runner) RemoteList(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 0); err != nil {
		return err
	}
	if err := r.requireProject(); err != nil {
		return err
	}

	current, err := r.registry.Current()
	if err != nil && !errors.Is(err, shared.ErrNoUpstream) {
		return err
	}
	list := r.registry.List()
	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Current string          `json:"current,omitempty"`
			Remotes []models.Remote `json:"remotes"`
		}{current, list}, true)
	}
	ui.PrintRemotes(r.output, list, current, cmd.Bool("verbose"))
	return nil
}

// RemoteAdd registers a new remote.
func (r *Runner) RemoteAdd(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 2, 2); err != nil {
		return err
	}
	if err := r.requireProject(); err != nil {
		return err
	}
	_, err := r.registry.Add(cmd.Args().Get(0), cmd.Args().Get(1))
	return err
}

// RemoteSetURL changes the URL of an existing remote.
func (r *Runner) RemoteSetURL(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 2, 2); err != nil {
		return err
	}
	if err := r.requireProject(); err != nil {
		return err
	}
	_, err := r.registry.SetURL(cmd.Args().Get(0), cmd.Args().Get(1))
	return err
}

// RemoteRemove deletes a remote together with its caches.
func (r *Runner) RemoteRemove(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, 1); err != nil {
		return err
	}
	if err := r.requireProject(); err != nil {
		return err
	}
	name := cmd.Args().Get(0)
	if err := r.registry.Remove(name); err != nil {
		return err
	}
	return r.layout.RemoveCache(name)
}

func remoteCommand(r *Runner) *cli.Command {
	listFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show remote URLs",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON",
			},
		}
	}

	return &cli.Command{
		Name:   "remote",
		Usage:  "Manage remotes",
		Flags:  listFlags(),
		Action: r.RemoteList,
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Add a remote",
				ArgsUsage: "<name> <url>",
				Action:    r.RemoteAdd,
			},
			{
				Name:      "set-url",
				Usage:     "Change the URL of a remote",
				ArgsUsage: "<name> <url>",
				Action:    r.RemoteSetURL,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a remote and its cached data",
				ArgsUsage: "<name>",
				Action:    r.RemoteRemove,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List remotes",
				Flags:   listFlags(),
				Action:  r.RemoteList,
			},
		},
	}
}
