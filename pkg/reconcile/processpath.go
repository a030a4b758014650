package reconcile

import (
	"github.com/nodewatch/viewfs/pkg/filesystem/watching"
	"github.com/nodewatch/viewfs/pkg/pending"
)

// processAllPending implements the drain loop of spec.md §4.4. It consumes
// localPending until empty, dispatching every item to the Path Reconciler;
// a reconciled item may append further items to localPending (the
// crawler's re-entrant calls), and those are picked up by the same loop
// rather than requiring a fresh pass, since localPending is a single
// mutable chain rather than a value re-stolen every round.
//
// It reports whether a desync was observed among the drained items
// (spec.md's IsDesynced), and fulfills every sync token that was pending
// at entry only after the loop (and everything it transitively enqueued)
// has finished — the ordering guarantee invariant I4 depends on.
func (r *RootContext) processAllPending(localPending *pending.WorkingSet) bool {
	syncs := localPending.StealSyncs()
	desynced := false

	for item := localPending.Head(); item != nil; item = localPending.Head() {
		localPending.Advance()

		if r.stopRequested() {
			continue
		}

		if item.Flags.Has(pending.IsDesynced | pending.CrawlOnly) {
			desynced = true
		}

		r.processPath(item, localPending)
	}

	for _, token := range syncs {
		token.Fulfill(desynced)
	}

	return desynced
}

// processPath implements the Path Reconciler (processPath) of spec.md
// §4.5: classify a pending path as a cookie, the root (or explicitly
// CRAWL_ONLY), or generic, and dispatch accordingly.
func (r *RootContext) processPath(item *pending.Change, localPending *pending.WorkingSet) {
	if r.Cookies.IsCookiePrefix(item.Path) {
		var consider bool
		if r.Watcher.Capabilities().Has(watching.HasPerFileNotifications) {
			consider = item.Flags.Has(pending.ViaNotify) || !r.DoneInitial()
		} else {
			consider = !item.Flags.Has(pending.IsDesynced)
		}
		if consider {
			r.Cookies.NotifyCookie(item.Path)
		}
		// Cookie files never enter the tree (I3).
		return
	}

	if item.Path == r.RootPath || item.Flags.Has(pending.CrawlOnly) {
		r.crawler(item, localPending)
		return
	}

	r.statPath(item, localPending)
}
