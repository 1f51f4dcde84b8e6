package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/mist/internal/shared"
	"github.com/desertthunder/mist/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	err := runner.app().Run(ctx, os.Args)
	stop()
	if err == nil {
		return
	}

	switch {
	case errors.Is(err, shared.ErrStopped):
		fmt.Fprintln(os.Stderr, ui.Warn(err.Error()))
		os.Exit(1)
	case shared.IsExpected(err):
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Error("error:"), err)
		os.Exit(1)
	}
	logger.Fatal("unexpected error, please report it", "err", err)
}
