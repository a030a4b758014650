package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/nodewatch/viewfs/pkg/pending"
	"github.com/nodewatch/viewfs/pkg/timeutil"
)

// ErrStopped is returned by WaitForSettle if the root is stopped while a
// caller is waiting, regardless of whether ctx itself was ever cancelled.
var ErrStopped = errors.New("root stopped while waiting for settle")

// SyncResult is the typed result of SyncToNow (SUPPLEMENTED FEATURES §2 of
// SPEC_FULL.md), distinguishing an ordinary fulfillment from one that
// completed during desync recovery.
type SyncResult struct {
	// Fulfilled is true if the sync token was fulfilled before ctx/timeout
	// expired.
	Fulfilled bool
	// DesyncedDuring is true if a desync (and the recrawl it triggers) was
	// detected while this sync was outstanding. A caller that cares about
	// strict "I have observed everything up to here" semantics should
	// treat this the same as a failed sync, since the desync means some
	// items between enqueue and fulfillment may not have been reconciled
	// from direct observation.
	DesyncedDuring bool
}

// WaitUntilReadyToQuery blocks until the root's first full crawl has
// completed, per spec.md §4.9. It returns early if ctx is cancelled.
func (r *RootContext) WaitUntilReadyToQuery(ctx context.Context) error {
	r.recrawlMu.RLock()
	r.crawlMu.Lock()

	if r.ready != nil {
		p := r.ready
		r.crawlMu.Unlock()
		r.recrawlMu.RUnlock()
		return p.wait(ctx)
	}

	if r.doneInitial.Load() && !r.shouldRecrawl {
		r.crawlMu.Unlock()
		r.recrawlMu.RUnlock()
		return nil
	}

	r.ready = newReadyPromise()
	p := r.ready
	r.crawlMu.Unlock()
	r.recrawlMu.RUnlock()
	return p.wait(ctx)
}

func (p *readyPromise) wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncToNow implements the query surface's "sync to now" operation
// (spec.md §6, §4.3/§4.4, invariant I4): it enqueues a sync token into the
// pending queue and blocks until the worker has fully drained the working
// set that contained it, or until timeout elapses.
func (r *RootContext) SyncToNow(ctx context.Context, timeout time.Duration) (SyncResult, error) {
	token, err := pending.NewSyncToken()
	if err != nil {
		return SyncResult{}, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.pending.AddSync(token)

	desynced, err := token.Wait(waitCtx)
	if err != nil {
		return SyncResult{Fulfilled: false}, err
	}
	return SyncResult{Fulfilled: true, DesyncedDuring: desynced}, nil
}

// WaitForSettle blocks until no reconciliation activity (a full crawl or a
// non-empty drain pass) has occurred for period, or until ctx is done.
// Unlike the internal Settle Detector (doSettleThings), which fires off the
// worker's own adaptive backoff cadence, this lets a caller specify an
// independent quiet window.
//
// Rather than polling on a fixed-interval timer, it blocks on r.activity
// (a state.Tracker) and only wakes when touchActivity actually fires or the
// tracker is poisoned by Stop, waking itself up again with its own timer
// once per remaining quiet window to re-check elapsed time.
func (r *RootContext) WaitForSettle(ctx context.Context, period time.Duration) error {
	index, poisoned := r.activity.WaitForChange(0)
	for {
		elapsed := time.Since(r.lastActivityTime())
		if elapsed >= period {
			return nil
		}
		if poisoned {
			return ErrStopped
		}

		changed := make(chan struct{})
		go func() {
			index, poisoned = r.activity.WaitForChange(index)
			close(changed)
		}()

		timer := time.NewTimer(period - elapsed)
		select {
		case <-changed:
			timeutil.StopAndDrainTimer(timer)
		case <-timer.C:
		case <-ctx.Done():
			timeutil.StopAndDrainTimer(timer)
			return ctx.Err()
		}
	}
}
