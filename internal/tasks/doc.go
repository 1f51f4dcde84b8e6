// Package tasks composes the caches, the diff engine and the scheduler into the sync
// operations: fetch, merge, pull, status, list and tag lookup.
//
// # Merge
//
// [Engine.Merge] computes the missing set before touching any cache; an empty set is a
// no-op. Otherwise it loads the title cache, runs one download per missing entry through
// the [pool.Scheduler] and collects failures in a mutex-guarded collector. The title cache
// and the failure ledger are flushed in a deferred path, so they are saved after partial
// failure and after cancellation alike.
//
// # Progress Reporting
//
// Operations accept an optional Event channel. Sends never block: a slow consumer loses
// events rather than stalling workers.
//
// # Run Journal
//
// Every merge is recorded through the [Journal] when one is configured. Journal errors are
// logged and never fail the merge.
package tasks
