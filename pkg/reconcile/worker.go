package reconcile

import (
	"context"
	"time"

	"github.com/nodewatch/viewfs/pkg/contextutil"
	"github.com/nodewatch/viewfs/pkg/pending"
)

// Run drives the I/O Worker Loop of spec.md §4.1 for this root until ctx
// is cancelled or Stop is called. It's meant to be the body of the one
// long-lived goroutine per root that invariant I1 assumes.
func (r *RootContext) Run(ctx context.Context) {
	biggestTimeout := r.Config.BiggestTimeout()
	currentTimeout := r.Config.TriggerSettle
	localPending := &pending.WorkingSet{}

	for r.step(ctx, localPending, &currentTimeout, biggestTimeout) {
	}
}

// step runs a single iteration of the worker loop's state machine, per the
// step algorithm of spec.md §4.1. It returns false once the worker should
// stop.
func (r *RootContext) step(ctx context.Context, localPending *pending.WorkingSet, currentTimeout *time.Duration, biggestTimeout time.Duration) bool {
	if r.stopRequested() || contextutil.IsCancelled(ctx) {
		return false
	}

	if !r.DoneInitial() {
		r.fullCrawl(localPending)
		*currentTimeout = r.Config.TriggerSettle
	}

	waitCtx, cancel := context.WithTimeout(ctx, *currentTimeout)
	r.logger.Debugf("poll_events timeout=%s", *currentTimeout)
	pinged := r.pending.Wait(waitCtx)
	cancel()
	r.logger.Debugf("... wake up (pinged=%v)", pinged)

	items, syncs := r.pending.Drain()
	localPending.Append(items, syncs)

	if contextutil.IsCancelled(ctx) || r.stopRequested() {
		return false
	}

	if r.handleShouldRecrawl() {
		r.fullCrawl(localPending)
		*currentTimeout = r.Config.TriggerSettle
		return true
	}

	if !pinged && localPending.Empty() {
		if r.doSettleThings() == settleStop {
			return false
		}
		next := *currentTimeout * 2
		if next > biggestTimeout {
			next = biggestTimeout
		}
		*currentTimeout = next
		return true
	}

	// We're unsettled: reduce the timeout back down for the next loop.
	*currentTimeout = r.Config.TriggerSettle

	// Some kernels report notifications before the file has been evicted
	// from the page cache; this delay, when configured, mitigates that
	// race at the cost of added latency on every query waiting on a
	// cookie (spec.md §4.1 step 6).
	if ms := r.Config.NotifySleepMS; ms > 0 {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}

	r.View.Lock()
	r.View.AdvanceTick()
	desynced := r.processAllPending(localPending)
	r.View.Unlock()
	r.touchActivity()

	if desynced {
		r.logger.Debug("recrawl complete, aborting all pending cookies")
		r.Cookies.AbortAllCookies()
	}

	return true
}
