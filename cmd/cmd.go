// submodule cmd contains command definitions
package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mist/internal/shared"
	"github.com/urfave/cli/v3"
)

const version = "0.1.0"

// app builds the root command. Root flags go before the subcommand, git style, and land in
// the forced configuration layer.
func (r *Runner) app() *cli.Command {
	app := &cli.Command{
		Name:      "mist",
		Usage:     "Mirror remote media lists into a local directory",
		Version:   version,
		Writer:    r.output,
		ErrWriter: r.errOutput,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "C",
				Usage: "Run as if started in `dir`",
				Local: true,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging (core.debug)",
				Local: true,
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable informational logging (core.verbose)",
				Local: true,
			},
			&cli.StringFlag{
				Name:  "color",
				Usage: "Color output: auto, off or force (core.color)",
				Local: true,
			},
			&cli.BoolFlag{
				Name:  "sound",
				Usage: "Ring the terminal bell when a batch finishes (core.sound)",
				Local: true,
			},
		},
		Before:   r.setup,
		After:    r.teardown,
		Commands: r.register(),
	}
	wrapUsageErrors(app)
	return app
}

// wrapUsageErrors tags flag and argument parsing errors as invalid arguments so they are
// reported like any other expected error.
func wrapUsageErrors(cmd *cli.Command) {
	cmd.OnUsageError = func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	for _, sub := range cmd.Commands {
		wrapUsageErrors(sub)
	}
}

// requireArgs fails unless cmd received between min and max positional arguments.
func requireArgs(cmd *cli.Command, min, max int) error {
	n := cmd.NArg()
	if n < min || n > max {
		return fmt.Errorf("%w: %s takes %s, got %d", shared.ErrInvalidArgument, cmd.FullName(), argRange(min, max), n)
	}
	return nil
}

func argRange(min, max int) string {
	switch {
	case min == max && min == 1:
		return "1 argument"
	case min == max:
		return fmt.Sprintf("%d arguments", min)
	default:
		return fmt.Sprintf("%d to %d arguments", min, max)
	}
}
