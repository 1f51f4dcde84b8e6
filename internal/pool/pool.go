// Package pool runs a worker function over a batch of inputs, in parallel where the platform
// allows it and sequentially otherwise.
//
// Every input yields exactly one [Result]. Failures and panics inside the worker become
// errored results and never abort the batch. Cancelling the context stops dispatch; inputs
// that never started come back as results wrapping [shared.ErrStopped].
package pool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/mist/internal/shared"
)

// Result is the outcome of one worker invocation.
type Result[T any] struct {
	Seq   int64 // task sequence number, assigned when the task starts; 0 if it never ran
	Index int   // position of the input in the batch
	Value T
	Err   error
}

// Options configures a [Scheduler].
type Options struct {
	MaxWorkers   int     // upper bound on the pool size; 0 uses the default
	DispatchRate float64 // tasks started per second; 0 disables pacing
	Sequential   bool    // force the sequential strategy
	Logger       *log.Logger
}

// Scheduler holds the execution strategy chosen at startup.
type Scheduler struct {
	parallel bool
	workers  int
	dispatch *rate.Limiter
	logger   *log.Logger
	seq      atomic.Int64
}

// NewScheduler picks the parallel strategy unless forced sequential or unsupported.
func NewScheduler(opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Scheduler{
		parallel: !opts.Sequential,
		workers:  poolSize(opts.MaxWorkers),
		logger:   logger,
	}
	if s.parallel && !SupportsParallel() {
		logger.Warn("parallel downloads are not supported on this platform, running sequentially")
		s.parallel = false
	}
	if opts.DispatchRate > 0 {
		s.dispatch = rate.NewLimiter(rate.Limit(opts.DispatchRate), 1)
	}
	return s
}

// Parallel reports whether the scheduler uses the worker pool.
func (s *Scheduler) Parallel() bool { return s.parallel }

// Workers returns the pool size.
func (s *Scheduler) Workers() int { return s.workers }

func poolSize(max int) int {
	n := runtime.NumCPU() + 4
	if max > 0 && n > max {
		n = max
	}
	return n
}

// RunAll invokes worker once per input.
//
// In parallel mode results arrive in completion order followed by stopped inputs; in
// sequential mode they follow input order. RunAll returns [shared.ErrStopped] when ctx was
// cancelled before the batch completed.
func RunAll[In, Out any](
	ctx context.Context,
	s *Scheduler,
	inputs []In,
	worker func(context.Context, In) (Out, error),
) ([]Result[Out], error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	var results []Result[Out]
	if s.parallel {
		results = runParallel(ctx, s, inputs, worker)
	} else {
		results = runSequential(ctx, s, inputs, worker)
	}

	if ctx.Err() != nil {
		return results, fmt.Errorf("%w: %v", shared.ErrStopped, context.Cause(ctx))
	}
	return results, nil
}

func runSequential[In, Out any](
	ctx context.Context,
	s *Scheduler,
	inputs []In,
	worker func(context.Context, In) (Out, error),
) []Result[Out] {
	results := make([]Result[Out], 0, len(inputs))
	for i, in := range inputs {
		if ctx.Err() != nil {
			results = append(results, stopped[Out](i))
			continue
		}
		results = append(results, call(ctx, s, i, in, worker))
	}
	return results
}

func runParallel[In, Out any](
	ctx context.Context,
	s *Scheduler,
	inputs []In,
	worker func(context.Context, In) (Out, error),
) []Result[Out] {
	workers := min(s.workers, len(inputs))
	jobs := make(chan int)
	out := make(chan Result[Out], len(inputs))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					out <- stopped[Out](i)
					continue
				}
				out <- call(ctx, s, i, inputs[i], worker)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range inputs {
			if s.dispatch != nil {
				if err := s.dispatch.Wait(ctx); err != nil {
					return
				}
			}
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	seen := make([]bool, len(inputs))
	results := make([]Result[Out], 0, len(inputs))
	for res := range out {
		seen[res.Index] = true
		results = append(results, res)
	}
	for i, ok := range seen {
		if !ok {
			results = append(results, stopped[Out](i))
		}
	}
	return results
}

// call runs one task with a fresh sequence number, converting panics into errors.
func call[In, Out any](
	ctx context.Context,
	s *Scheduler,
	index int,
	in In,
	worker func(context.Context, In) (Out, error),
) (res Result[Out]) {
	res.Index = index
	res.Seq = s.seq.Add(1)
	logger := s.logger.With("task", res.Seq)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", "panic", r)
			res.Err = fmt.Errorf("task %d panicked: %v", res.Seq, r)
		}
	}()

	logger.Debug("task started", "index", index)
	res.Value, res.Err = worker(ctx, in)
	if res.Err != nil {
		logger.Debug("task failed", "index", index, "err", res.Err)
	}
	return res
}

func stopped[Out any](index int) Result[Out] {
	return Result[Out]{Index: index, Err: fmt.Errorf("%w: task %d not started", shared.ErrStopped, index)}
}
