package reconcile

import (
	"context"
	"time"

	"github.com/nodewatch/viewfs/pkg/pending"
)

// Watch starts the watcher event pump alongside the I/O worker loop and
// blocks until ctx is cancelled or Stop is called. It's the usual entry
// point for running a root; callers that want to drive the loop and the
// watcher pump on their own schedule can call Run and PumpWatcherEvents
// separately instead.
func (r *RootContext) Watch(ctx context.Context) {
	go r.PumpWatcherEvents(ctx)
	r.Run(ctx)
}

// PumpWatcherEvents forwards notifications from the Watcher into the
// pending queue until ctx is cancelled or the watcher's channels close.
// A path notification arrives with VIA_NOTIFY set, the flag the Path
// Reconciler's cookie classification (spec.md §4.5 step 1) depends on.
//
// An error from the watcher is treated as a desync: the watcher may have
// dropped events, so this forces a full recrawl and flags it
// IS_DESYNCED|CRAWL_ONLY so processAllPending reports Desynced and the
// worker aborts outstanding cookies once recovery completes.
func (r *RootContext) PumpWatcherEvents(ctx context.Context) {
	events := r.Watcher.Events()
	errs := r.Watcher.Errors()

	for {
		select {
		case <-ctx.Done():
			return
		case path, ok := <-events:
			if !ok {
				return
			}
			r.pending.Add(path, time.Now(), pending.ViaNotify)
		case err, ok := <-errs:
			if !ok {
				return
			}
			r.logger.Warn(err)
			r.ScheduleRecrawl("watcher reported an error: " + err.Error())
			r.pending.Add(r.RootPath, time.Now(), pending.ViaNotify|pending.IsDesynced|pending.CrawlOnly|pending.Recursive)
		}
	}
}
