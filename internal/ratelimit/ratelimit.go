// Package ratelimit provides a sliding-window limiter shared by concurrent workers.
//
// At most N acquisitions complete in any trailing window of length D. The check, sleep and
// record sequence runs under one mutex, so while the window is full every caller waits in
// line behind the sleeper.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most maxCalls acquisitions per period.
type Limiter struct {
	maxCalls int
	period   time.Duration

	mu    sync.Mutex
	calls []time.Time

	now       func() time.Time
	sleep     func(context.Context, time.Duration) error
	onAcquire func(time.Time)
}

// Option configures a [Limiter].
type Option func(*Limiter)

// WithClock replaces the time source and sleep function.
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// WithAcquireHook is called with the recorded timestamp of each admitted call, under the lock.
func WithAcquireHook(fn func(time.Time)) Option {
	return func(l *Limiter) { l.onAcquire = fn }
}

// New creates a limiter. A non-positive maxCalls or period disables limiting.
func New(maxCalls int, period time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until a call is admitted or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.maxCalls <= 0 || l.period <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := l.now()
		l.evict(now)
		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			if l.onAcquire != nil {
				l.onAcquire(now)
			}
			return nil
		}

		wait := l.calls[0].Add(l.period).Sub(now)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// InWindow returns the number of calls recorded in the current window.
func (l *Limiter) InWindow() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	return len(l.calls)
}

func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.period)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	l.calls = l.calls[i:]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
