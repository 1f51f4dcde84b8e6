package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/desertthunder/mist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Init creates an empty project in the working directory.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 0, 0); err != nil {
		return err
	}
	if err := r.initProject(); err != nil {
		return err
	}
	return r.writePlain("Initialized empty mist project in %s\n", r.layout.Dir())
}

func (r *Runner) initProject() error {
	if err := r.layout.Create(); err != nil {
		return err
	}
	if err := r.store.Project.Load(); err != nil {
		return err
	}
	r.store.Project.EnsureSection("core")
	if err := r.store.Project.Save(); err != nil {
		return err
	}
	r.logger.Info("initialized project", "dir", r.layout.Dir())
	return nil
}

// Clone creates a project for url in a new directory, checks the remote out and pulls it.
func (r *Runner) Clone(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, 2); err != nil {
		return err
	}
	rawURL := cmd.Args().Get(0)
	origin := cmd.String("origin")

	dir := cmd.Args().Get(1)
	if dir == "" {
		dir = r.cloneDir(ctx, rawURL)
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.layout.Root, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", shared.ErrInitialization, dir, err)
	}
	if err := r.bind(dir); err != nil {
		return err
	}
	if err := r.initProject(); err != nil {
		return err
	}

	remote, err := r.registry.Add(origin, rawURL)
	if err != nil {
		return err
	}
	if err := r.registry.SetCurrent(remote.Name); err != nil {
		return err
	}
	if err := r.writePlain("Cloning %s into %s\n", remote.URL, dir); err != nil {
		return err
	}

	return r.pull(ctx, remote.Name, false)
}

// cloneDir derives a directory name from the remote title, falling back to the last URL
// path segment.
func (r *Runner) cloneDir(ctx context.Context, rawURL string) string {
	title, err := r.remoteExtractor().RemoteTitle(ctx, rawURL)
	if err == nil && title != "" {
		return shared.SanitizeFilename(title)
	}
	r.logger.Info("remote title unavailable", "url", rawURL, "err", err)

	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." {
			return shared.SanitizeFilename(base)
		}
		if u.Host != "" {
			return shared.SanitizeFilename(u.Host)
		}
	}
	return "mist"
}

// Checkout makes the named remote current.
func (r *Runner) Checkout(ctx context.Context, cmd *cli.Command) error {
	if err := requireArgs(cmd, 1, 1); err != nil {
		return err
	}
	if err := r.requireProject(); err != nil {
		return err
	}
	name := cmd.Args().Get(0)
	if err := r.registry.SetCurrent(name); err != nil {
		return err
	}
	return r.writePlain("Switched to remote '%s'\n", name)
}

func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Create an empty project in the current directory",
		Action: r.Init,
	}
}

func cloneCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "clone",
		Usage:     "Create a project for a remote list and pull it",
		ArgsUsage: "<url> [dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "origin",
				Aliases: []string{"o"},
				Usage:   "Name of the remote",
				Value:   r.defaults.Layout.DefaultOrigin,
			},
		},
		Action: r.Clone,
	}
}

func checkoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "checkout",
		Usage:     "Set the current remote",
		ArgsUsage: "<remote>",
		Action:    r.Checkout,
	}
}
