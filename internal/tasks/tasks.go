package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samber/lo"

	"github.com/desertthunder/mist/internal/cache"
	"github.com/desertthunder/mist/internal/diff"
	"github.com/desertthunder/mist/internal/models"
	"github.com/desertthunder/mist/internal/pool"
	"github.com/desertthunder/mist/internal/project"
	"github.com/desertthunder/mist/internal/services"
	"github.com/desertthunder/mist/internal/shared"
)

// Journal stores finished runs.
type Journal interface {
	Record(run models.Run) error
}

// Deps wires an [Engine].
type Deps struct {
	Layout    project.Layout
	Extractor services.Extractor
	Titles    services.TitleResolver
	Tags      services.TagFinder
	Scheduler *pool.Scheduler
	Journal   Journal
	Logger    *log.Logger
}

// Engine runs sync operations for one project.
type Engine struct {
	layout    project.Layout
	extractor services.Extractor
	titles    services.TitleResolver
	tags      services.TagFinder
	scheduler *pool.Scheduler
	journal   Journal
	logger    *log.Logger
	now       func() time.Time
}

// NewEngine creates an engine. Tags and Journal are optional.
func NewEngine(d Deps) *Engine {
	logger := d.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	scheduler := d.Scheduler
	if scheduler == nil {
		scheduler = pool.NewScheduler(pool.Options{Logger: logger})
	}
	return &Engine{
		layout:    d.Layout,
		extractor: d.Extractor,
		titles:    d.Titles,
		tags:      d.Tags,
		scheduler: scheduler,
		journal:   d.Journal,
		logger:    logger,
		now:       time.Now,
	}
}

// MergeResult summarizes one merge.
type MergeResult struct {
	Run      models.Run
	Failures map[string]error
}

// ListItem is one recorded entry of a remote.
type ListItem struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Local bool   `json:"local"`
}

// TagItem is the tag lookup result of one entry. Tags is nil when nothing matched.
type TagItem struct {
	ID    string
	Title string
	Tags  []string
	Err   error
}

// Fetch replaces the recorded entry snapshot of remote with the current remote list.
func (e *Engine) Fetch(ctx context.Context, remote models.Remote) ([]string, error) {
	logger := e.logger.With("remote", remote.Name)
	logger.Info("fetching entries", "url", remote.URL)

	ids, err := e.extractor.ListRemoteIDs(ctx, remote.URL)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, shared.ErrStopped) {
			err = fmt.Errorf("%w: %v", shared.ErrStopped, err)
		}
		return nil, err
	}
	if err := cache.WriteList(e.layout.CachePath(remote.Name, project.CacheEntries), ids); err != nil {
		return nil, err
	}

	logger.Info("recorded entries", "count", len(ids))
	return ids, nil
}

// Entries returns the recorded snapshot, or [shared.ErrNoDataFile] if remote was never fetched.
func (e *Engine) Entries(remote string) ([]string, error) {
	path := e.layout.CachePath(remote, project.CacheEntries)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: remote %q", shared.ErrNoDataFile, remote)
	}
	return cache.ReadList(path)
}

// Status compares the snapshot with the working directory without writing anything.
func (e *Engine) Status(remote string) (diff.Report, error) {
	entries, err := e.Entries(remote)
	if err != nil {
		return diff.Report{}, err
	}
	failed, err := cache.ReadList(e.layout.CachePath(remote, project.CacheErrors))
	if err != nil {
		return diff.Report{}, err
	}
	local, err := diff.LocalIDs(e.layout.Root)
	if err != nil {
		return diff.Report{}, err
	}
	return diff.Compute(remote, entries, local, failed), nil
}

// Pull fetches the remote list, then merges it.
func (e *Engine) Pull(ctx context.Context, progress chan<- Event, remote models.Remote) (*MergeResult, error) {
	if _, err := e.Fetch(ctx, remote); err != nil {
		return nil, err
	}
	return e.Merge(ctx, progress, remote.Name)
}

// Merge downloads every recorded entry that is neither local nor in the failure ledger.
//
// Cancelling ctx stops dispatch and yields [models.OutcomeStopped]; the title cache and
// the ledger are still saved.
func (e *Engine) Merge(ctx context.Context, progress chan<- Event, remote string) (result *MergeResult, err error) {
	entries, err := e.Entries(remote)
	if err != nil {
		return nil, err
	}
	errorsPath := e.layout.CachePath(remote, project.CacheErrors)
	ledger, err := cache.ReadList(errorsPath)
	if err != nil {
		return nil, err
	}
	local, err := diff.LocalIDs(e.layout.Root)
	if err != nil {
		return nil, err
	}

	run := models.Run{ID: shared.GenerateID(), Remote: remote, StartedAt: e.now()}
	logger := e.logger.With("remote", remote, "run", run.ID)
	missing := diff.Missing(entries, local, ledger)
	run.Missing = len(missing)

	if len(missing) == 0 {
		logger.Info("nothing to merge")
		run.FinishedAt = e.now()
		run.Outcome = models.OutcomeNoop
		e.record(logger, run)
		return &MergeResult{Run: run}, nil
	}

	titles := e.titleCache(remote)
	if err := titles.Load(); err != nil {
		return nil, err
	}

	failures := &failureCollector{errs: map[string]error{}}
	defer func() {
		if saveErr := titles.Save(); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
		failed := failures.ids()
		if len(failed) == 0 {
			return
		}
		if saveErr := cache.WriteList(errorsPath, lo.Uniq(append(ledger, failed...))); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}()

	logger.Info("merging", "missing", len(missing))
	sendProgress(progress, BatchStarted{RunID: run.ID, Remote: remote, Total: len(missing)})

	var done atomic.Int32
	total := len(missing)
	worker := func(ctx context.Context, id string) (string, error) {
		title, err := e.resolveTitle(ctx, titles, id)
		if err == nil {
			sendProgress(progress, ItemStarted{ID: id, Title: title})
			var path string
			path, err = e.extractor.FetchItem(ctx, services.FetchRequest{ID: id, Title: title, Dir: e.layout.Root},
				func(downloaded, size int64) {
					sendProgress(progress, ItemProgress{ID: id, Downloaded: downloaded, Total: size})
				})
			if err == nil {
				sendProgress(progress, ItemFinished{ID: id, Title: title, Path: path, Done: int(done.Add(1)), Total: total})
				return path, nil
			}
		}

		if ctx.Err() != nil && !errors.Is(err, shared.ErrStopped) {
			err = fmt.Errorf("%w: %v", shared.ErrStopped, err)
		}
		sendProgress(progress, ItemFailed{ID: id, Err: err, Done: int(done.Add(1)), Total: total})
		return "", err
	}

	results, runErr := pool.RunAll(ctx, e.scheduler, missing, worker)
	for _, res := range results {
		switch {
		case res.Err == nil:
			run.Fetched++
		case !errors.Is(res.Err, shared.ErrStopped):
			failures.add(missing[res.Index], res.Err)
			logger.Warn("entry failed", "id", missing[res.Index], "err", res.Err)
		}
	}
	run.Failed = failures.len()
	run.FinishedAt = e.now()

	switch {
	case errors.Is(runErr, shared.ErrStopped):
		run.Outcome = models.OutcomeStopped
		logger.Warn("merge stopped", "fetched", run.Fetched, "failed", run.Failed)
	case run.Failed > 0:
		run.Outcome = models.OutcomePartial
	default:
		run.Outcome = models.OutcomeCompleted
	}

	sendProgress(progress, BatchFinished{RunID: run.ID, Outcome: run.Outcome, Fetched: run.Fetched, Failed: run.Failed, Total: total})
	e.record(logger, run)
	logger.Info("merge finished", "outcome", run.Outcome, "fetched", run.Fetched, "failed", run.Failed)

	return &MergeResult{Run: run, Failures: failures.snapshot()}, nil
}

// List returns the recorded entries in snapshot order. With titles set, missing titles are
// resolved and cached.
func (e *Engine) List(ctx context.Context, remote string, titled bool) (items []ListItem, err error) {
	entries, err := e.Entries(remote)
	if err != nil {
		return nil, err
	}
	local, err := diff.LocalIDs(e.layout.Root)
	if err != nil {
		return nil, err
	}
	present := lo.SliceToMap(local, func(id string) (string, bool) { return id, true })

	items = lo.Map(entries, func(id string, _ int) ListItem {
		return ListItem{ID: id, Local: present[id]}
	})
	if !titled {
		return items, nil
	}

	titles := e.titleCache(remote)
	if err := titles.Load(); err != nil {
		return nil, err
	}
	defer func() {
		if saveErr := titles.Save(); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}()

	results, runErr := pool.RunAll(ctx, e.scheduler, entries, func(ctx context.Context, id string) (string, error) {
		return e.resolveTitle(ctx, titles, id)
	})
	for _, res := range results {
		if res.Err != nil {
			e.logger.Warn("title lookup failed", "id", entries[res.Index], "err", res.Err)
			continue
		}
		items[res.Index].Title = res.Value
	}
	return items, runErr
}

// FetchTags looks up tags for every recorded entry, caching hits in the tags file.
func (e *Engine) FetchTags(ctx context.Context, progress chan<- Event, remote string) (items []TagItem, err error) {
	if e.tags == nil {
		return nil, fmt.Errorf("%w: no tag finder configured", shared.ErrNotImplemented)
	}
	entries, err := e.Entries(remote)
	if err != nil {
		return nil, err
	}

	titles := e.titleCache(remote)
	tags := cache.New(e.layout.CachePath(remote, project.CacheTags), cache.JSONCodec[[]string](),
		func(v []string) bool { return v == nil })
	if err := titles.Load(); err != nil {
		return nil, err
	}
	if err := tags.Load(); err != nil {
		return nil, errors.Join(err, titles.Save())
	}
	defer func() {
		if saveErr := errors.Join(tags.Save(), titles.Save()); saveErr != nil {
			err = errors.Join(err, saveErr)
		}
	}()

	runID := shared.GenerateID()
	logger := e.logger.With("remote", remote, "run", runID)
	sendProgress(progress, BatchStarted{RunID: runID, Remote: remote, Total: len(entries)})

	items = lo.Map(entries, func(id string, _ int) TagItem { return TagItem{ID: id} })
	var done atomic.Int32
	results, runErr := pool.RunAll(ctx, e.scheduler, entries, func(ctx context.Context, id string) (TagItem, error) {
		item := TagItem{ID: id}
		item.Title, item.Err = e.resolveTitle(ctx, titles, id)
		if item.Err == nil {
			item.Tags, item.Err = tags.CachedCall(id, func() ([]string, error) {
				return e.tags.FindTags(ctx, id, item.Title)
			})
		}
		if item.Err != nil {
			sendProgress(progress, ItemFailed{ID: id, Err: item.Err, Done: int(done.Add(1)), Total: len(entries)})
			return item, item.Err
		}
		sendProgress(progress, ItemFinished{ID: id, Title: item.Title, Done: int(done.Add(1)), Total: len(entries)})
		return item, nil
	})

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			items[res.Index].Err = res.Err
			continue
		}
		items[res.Index] = res.Value
	}

	outcome := models.OutcomeCompleted
	switch {
	case errors.Is(runErr, shared.ErrStopped):
		outcome = models.OutcomeStopped
	case failed > 0:
		outcome = models.OutcomePartial
	}
	sendProgress(progress, BatchFinished{RunID: runID, Outcome: outcome, Fetched: len(entries) - failed, Failed: failed, Total: len(entries)})
	logger.Info("tag lookup finished", "outcome", outcome, "failed", failed)
	return items, runErr
}

func (e *Engine) titleCache(remote string) *cache.Cache[string] {
	return cache.New(e.layout.CachePath(remote, project.CacheTitles), cache.StringCodec(),
		func(v string) bool { return v == shared.TitlePlaceholder || v == "" })
}

// resolveTitle consults the title cache before the resolver. A placeholder or empty title
// falls back to the id so the file name stays meaningful.
func (e *Engine) resolveTitle(ctx context.Context, titles *cache.Cache[string], id string) (string, error) {
	title, err := titles.CachedCall(id, func() (string, error) {
		return e.titles.ResolveTitle(ctx, id)
	})
	if err != nil {
		return "", err
	}
	if title == shared.TitlePlaceholder || title == "" {
		return id, nil
	}
	return title, nil
}

func (e *Engine) record(logger *log.Logger, run models.Run) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(run); err != nil {
		logger.Warn("failed to record run", "err", err)
	}
}

// failureCollector gathers per-item failures from concurrent workers.
type failureCollector struct {
	mu    sync.Mutex
	order []string
	errs  map[string]error
}

func (f *failureCollector) add(id string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.errs[id]; !ok {
		f.order = append(f.order, id)
	}
	f.errs[id] = err
}

func (f *failureCollector) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *failureCollector) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.order)
}

func (f *failureCollector) snapshot() map[string]error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]error, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}
