package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mist/internal/config"
	"github.com/desertthunder/mist/internal/history"
	"github.com/desertthunder/mist/internal/pool"
	"github.com/desertthunder/mist/internal/project"
	"github.com/desertthunder/mist/internal/ratelimit"
	"github.com/desertthunder/mist/internal/remotes"
	"github.com/desertthunder/mist/internal/services"
	"github.com/desertthunder/mist/internal/shared"
	"github.com/desertthunder/mist/internal/tasks"
	"github.com/desertthunder/mist/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Project-scoped state (layout, store, registry, engine) is bound in the root Before hook and
// rebound by clone once the target directory exists.
type Runner struct {
	defaults   *shared.Defaults
	logger     *log.Logger
	output     io.Writer
	errOutput  io.Writer
	httpClient *http.Client

	extractor services.Extractor
	titles    services.TitleResolver
	tags      services.TagFinder

	settings config.Settings
	store    *config.Store
	layout   project.Layout
	registry *remotes.Registry
	journal  *history.Journal
	engine   *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
//
// The service fields replace the yt-dlp, music and last.fm clients when set.
type RunnerOpts struct {
	Defaults   *shared.Defaults
	Logger     *log.Logger
	Output     io.Writer
	ErrOutput  io.Writer
	HTTPClient *http.Client
	Extractor  services.Extractor
	Titles     services.TitleResolver
	Tags       services.TagFinder
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Defaults == nil {
		opts.Defaults = shared.DefaultDefaults()
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(opts.ErrOutput)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Runner{
		defaults:   opts.Defaults,
		logger:     opts.Logger,
		output:     opts.Output,
		errOutput:  opts.ErrOutput,
		httpClient: opts.HTTPClient,
		extractor:  opts.Extractor,
		titles:     opts.Titles,
		tags:       opts.Tags,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		initCommand, cloneCommand, checkoutCommand, remoteCommand,
		fetchCommand, mergeCommand, pullCommand, statusCommand, listCommand, logCommand,
		configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// setup loads configuration for the project rooted at -C (or the working directory) and
// applies the resolved settings to logging and color output.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	root := cmd.String("C")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return ctx, fmt.Errorf("failed to get working directory: %w", err)
		}
		root = wd
	}

	r.store = nil
	if err := r.bind(root); err != nil {
		return ctx, err
	}

	for _, name := range []string{"debug", "verbose", "sound"} {
		if cmd.IsSet(name) {
			r.store.SetForced(config.NewKey("core", "", name), fmt.Sprint(cmd.Bool(name)))
		}
	}
	if cmd.IsSet("color") {
		r.store.SetForced(config.KeyColor, cmd.String("color"))
	}

	if err := r.applySettings(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// bind points the runner at a project root and loads its configuration layers.
// A root that is not a project is not an error here; commands that need one call project.
func (r *Runner) bind(root string) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: bad directory %q: %v", shared.ErrInvalidArgument, root, err)
	}
	globalPath, err := r.defaults.GlobalConfigPath()
	if err != nil {
		return err
	}

	// clone rebinds mid-command; flags given on the command line still apply
	var forced *config.Layer
	if r.store != nil {
		forced = r.store.Forced
	}
	r.closeJournal()

	r.layout = project.New(root, r.defaults)
	r.store = config.NewStore(r.defaults, globalPath, r.layout.ConfigPath())
	if forced != nil {
		r.store.Forced = forced
	}
	if err := r.store.Load(); err != nil && !errors.Is(err, shared.ErrNotAProject) {
		return err
	}
	r.registry = remotes.NewRegistry(r.store.Project, r.layout.RemotePath(), r.logger)
	r.engine = nil
	return nil
}

// applySettings resolves the effective core settings and reconfigures the logger and palette.
func (r *Runner) applySettings() error {
	settings, err := config.Resolve(r.store.Effective(), r.defaults)
	if err != nil {
		return err
	}
	r.settings = settings

	switch {
	case settings.Debug:
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case settings.Verbose:
		shared.SetLogLevel(r.logger, log.InfoLevel)
	default:
		shared.SetLogLevel(r.logger, log.WarnLevel)
	}
	r.logger.SetOutput(shared.LogSink(r.errOutput, settings.LogFile))
	ui.ApplyColorMode(settings.Color)

	r.logger.Debug("settings resolved", "root", r.layout.Root, "workers", settings.Workers, "ratelimit", settings.RateLimit)
	return nil
}

// requireProject fails with [shared.ErrNotAProject] outside a project.
func (r *Runner) requireProject() error {
	if !r.layout.IsProject() {
		return fmt.Errorf("%w: %s", shared.ErrNotAProject, r.layout.Root)
	}
	return nil
}

// project returns the sync engine of the bound project, opening the run journal on first use.
func (r *Runner) project() (*tasks.Engine, error) {
	if err := r.requireProject(); err != nil {
		return nil, err
	}
	if r.engine != nil {
		return r.engine, nil
	}

	journal, err := history.Open(r.layout.HistoryPath())
	if err != nil {
		return nil, err
	}
	r.journal = journal

	limiter := ratelimit.New(r.settings.RateLimit.Calls, r.settings.RateLimit.Period)
	titles := r.titles
	if titles == nil {
		titles = services.NewMusicTitleResolver("", r.httpClient, limiter, shared.WithLogger(r.logger, "service", "music"))
	}
	tags := r.tags
	if tags == nil {
		tags = services.NewLastFM("", r.httpClient, limiter, shared.WithLogger(r.logger, "service", "lastfm"))
	}

	r.engine = tasks.NewEngine(tasks.Deps{
		Layout:    r.layout,
		Extractor: r.remoteExtractor(),
		Titles:    titles,
		Tags:      tags,
		Scheduler: pool.NewScheduler(pool.Options{
			MaxWorkers:   r.settings.Workers,
			DispatchRate: r.defaults.Workers.DispatchRate,
			Logger:       r.logger,
		}),
		Journal: journal,
		Logger:  shared.WithLogger(r.logger, "task", "sync"),
	})
	return r.engine, nil
}

// remoteExtractor returns the configured extractor, yt-dlp by default.
func (r *Runner) remoteExtractor() services.Extractor {
	if r.extractor == nil {
		r.extractor = services.NewYTDLP("", shared.WithLogger(r.logger, "service", "yt-dlp"))
	}
	return r.extractor
}

func (r *Runner) closeJournal() {
	if r.journal == nil {
		return
	}
	if err := r.journal.Close(); err != nil {
		r.logger.Warn("failed to close run journal", "err", err)
	}
	r.journal = nil
}

func (r *Runner) teardown(ctx context.Context, cmd *cli.Command) error {
	r.closeJournal()
	r.engine = nil
	return nil
}

// withProgress runs fn with an event channel rendered on the output. On a terminal the
// progress view can stop the batch; elsewhere one line is printed per item.
func (r *Runner) withProgress(ctx context.Context, fn func(ctx context.Context, events chan<- tasks.Event) error) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	events := make(chan tasks.Event, 64)
	rendered := make(chan struct{})
	go func() {
		defer close(rendered)
		if !ui.IsTerminal(r.output) {
			ui.NewLineReporter(r.output).Run(events)
			return
		}
		if _, err := ui.RunProgress(events, stop, r.output); err != nil {
			r.logger.Warn("fell back to plain output", "err", err)
		}
	}()

	err := fn(ctx, events)
	close(events)
	<-rendered

	if r.settings.Sound {
		ui.Bell(r.output)
	}
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
