package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/desertthunder/mist/internal/config"
	"github.com/desertthunder/mist/internal/shared"
	"github.com/desertthunder/mist/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultEditor = "vi"

// Config reads or writes one key, lists a layer, or opens a layer in an editor.
//
// Without --local or --global reads use the effective configuration and writes go to the
// project layer.
func (r *Runner) Config(ctx context.Context, cmd *cli.Command) error {
	list, edit, unset := cmd.Bool("list"), cmd.Bool("edit"), cmd.Bool("unset")

	modes := 0
	for _, on := range []bool{list, edit, cmd.NArg() > 0} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		return fmt.Errorf("%w: config needs exactly one of <key>, --list or --edit", shared.ErrInvalidArgument)
	}
	if cmd.Bool("local") && cmd.Bool("global") {
		return fmt.Errorf("%w: --local and --global are exclusive", shared.ErrInvalidArgument)
	}

	switch {
	case list:
		return r.configList(cmd)
	case edit:
		return r.configEdit(ctx, cmd)
	}

	if err := requireArgs(cmd, 1, 2); err != nil {
		return err
	}
	key, err := config.ParseKey(cmd.Args().Get(0))
	if err != nil {
		return err
	}

	switch {
	case unset:
		if cmd.NArg() != 1 {
			return fmt.Errorf("%w: --unset takes only a key", shared.ErrInvalidArgument)
		}
		return r.configUnset(cmd, key)
	case cmd.NArg() == 2:
		return r.configSet(cmd, key, cmd.Args().Get(1))
	default:
		return r.configGet(cmd, key)
	}
}

// configLayer picks the layer named by the scope flags. With neither flag set, reading
// returns nil (use the effective view) and writing returns the project layer.
func (r *Runner) configLayer(cmd *cli.Command, write bool) (*config.Layer, error) {
	switch {
	case cmd.Bool("global"):
		return r.store.Layer(config.ScopeGlobal)
	case cmd.Bool("local"), write:
		if err := r.requireProject(); err != nil {
			return nil, err
		}
		return r.store.Layer(config.ScopeProject)
	}
	return nil, nil
}

func (r *Runner) configGet(cmd *cli.Command, key config.Key) error {
	layer, err := r.configLayer(cmd, false)
	if err != nil {
		return err
	}

	var (
		value string
		ok    bool
	)
	if layer == nil {
		value, ok = r.store.Effective().Get(key)
	} else {
		value, ok = layer.Get(key)
	}
	if !ok {
		return fmt.Errorf("%w: %s is not set", shared.ErrInvalidArgument, key)
	}
	return r.writePlain("%s\n", value)
}

func (r *Runner) configSet(cmd *cli.Command, key config.Key, value string) error {
	layer, err := r.configLayer(cmd, true)
	if err != nil {
		return err
	}

	layer.Set(key, value)
	if key.Section == "core" {
		if _, err := config.Resolve(r.store.Effective(), r.defaults); err != nil {
			return err
		}
	}
	return layer.Save()
}

func (r *Runner) configUnset(cmd *cli.Command, key config.Key) error {
	layer, err := r.configLayer(cmd, true)
	if err != nil {
		return err
	}
	if !layer.Unset(key) {
		return fmt.Errorf("%w: %s is not set", shared.ErrInvalidArgument, key)
	}
	return layer.Save()
}

func (r *Runner) configList(cmd *cli.Command) error {
	layer, err := r.configLayer(cmd, false)
	if err != nil {
		return err
	}
	if layer == nil {
		ui.PrintConfig(r.output, r.store.Effective().Entries())
		return nil
	}
	ui.PrintConfig(r.output, layer.Entries())
	return nil
}

// configEdit opens the selected layer in core.editor, then $EDITOR, then vi. The file is
// created first so the editor never opens a missing path.
func (r *Runner) configEdit(ctx context.Context, cmd *cli.Command) error {
	layer, err := r.configLayer(cmd, true)
	if err != nil {
		return err
	}
	if _, err := os.Stat(layer.Path()); errors.Is(err, os.ErrNotExist) {
		if err := layer.Save(); err != nil {
			return err
		}
	}

	editor := r.settings.Editor
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = defaultEditor
	}
	args := strings.Fields(editor)

	c := exec.CommandContext(ctx, args[0], append(args[1:], layer.Path())...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	r.logger.Debug("launching editor", "editor", editor, "path", layer.Path())
	if err := c.Run(); err != nil {
		return fmt.Errorf("%w: editor %q failed: %v", shared.ErrConfiguration, editor, err)
	}

	if err := layer.Load(); err != nil {
		return err
	}
	_, err = config.Resolve(r.store.Effective(), r.defaults)
	return err
}

func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "Get and set configuration values",
		ArgsUsage: "[key] [value]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "local",
				Usage: "Use the project configuration",
			},
			&cli.BoolFlag{
				Name:  "global",
				Usage: "Use the global configuration",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List all values",
			},
			&cli.BoolFlag{
				Name:    "edit",
				Aliases: []string{"e"},
				Usage:   "Open the configuration in an editor",
			},
			&cli.BoolFlag{
				Name:  "unset",
				Usage: "Remove a key",
			},
		},
		Action: r.Config,
	}
}
