// Package pending implements the pending change queue described in
// spec.md §3/§4: the single point of contact between the watcher callback
// (and the other producers named on Queue) and the reconciliation worker
// that drains it. The crawler's re-enqueuing of children goes to the
// worker's own WorkingSet, not to the Queue.
package pending

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/nodewatch/viewfs/pkg/state"
)

// Queue is the shared, concurrency-safe side of the pending change queue.
// Producers (the watcher callback, the full crawl's root seed, SyncToNow)
// call Add/AddChild/AddSync;
// exactly one consumer (the root's reconciliation worker) calls Wait followed
// by Drain, per invariant I1.
//
// Entries are coalesced by path: a second Add for a path still sitting in
// the queue merges its flags into the existing entry instead of appending a
// duplicate, so a directory hammered by notifications between two drains
// costs one chain node, not one per notification.
type Queue struct {
	mu    sync.Mutex
	head  *Change
	tail  *Change
	index map[string]*Change
	syncs []*SyncToken
	// woken records a Wake call that Wait hasn't reported yet.
	woken bool

	coalescer *state.Coalescer
}

// NewQueue creates an empty pending queue. window controls how long the
// queue waits, after the first unconsumed change arrives, before signaling a
// waiting worker — the same coalescing mutagen's watch loops apply to avoid
// waking the worker once per individual filesystem event.
func NewQueue(window time.Duration) *Queue {
	return &Queue{
		index:     make(map[string]*Change),
		coalescer: state.NewCoalescer(window),
	}
}

// Terminate shuts down the queue's internal coalescing loop. It does not
// discard any pending changes or syncs; Drain remains valid afterward.
func (q *Queue) Terminate() {
	q.coalescer.Terminate()
}

// Add enqueues a change to path, merging it into an existing unconsumed
// entry for the same path if one exists.
func (q *Queue) Add(path string, now time.Time, flags Flags) {
	q.mu.Lock()
	if existing, ok := q.index[path]; ok {
		existing.Flags |= flags
		q.mu.Unlock()
		return
	}

	change := &Change{Path: path, Now: now, Flags: flags}
	if q.tail != nil {
		q.tail.next = change
	} else {
		q.head = change
	}
	q.tail = change
	q.index[path] = change
	q.mu.Unlock()

	q.coalescer.Strobe()
}

// AddChild is a convenience wrapper around Add for enqueuing a named child
// of a directory that's already known to the caller.
func (q *Queue) AddChild(dirPath, name string, now time.Time, flags Flags) {
	q.Add(filepath.Join(dirPath, name), now, flags)
}

// AddSync enqueues a sync token. It's drained (and fulfilled by the worker)
// at the same point in the queue as any change that was pending ahead of it,
// which is what gives "sync to now" its ordering guarantee (I4).
func (q *Queue) AddSync(token *SyncToken) {
	q.mu.Lock()
	q.syncs = append(q.syncs, token)
	q.mu.Unlock()

	q.coalescer.Strobe()
}

// Wake signals any waiter without enqueuing anything, used to interrupt a
// blocked Wait when the worker needs to notice a stop signal immediately
// rather than waiting out the current timeout.
func (q *Queue) Wake() {
	q.mu.Lock()
	q.woken = true
	q.mu.Unlock()
	q.coalescer.Strobe()
}

// Wait blocks until a change or sync has been added since the last Drain (or
// Wake has been called), or until ctx is done, whichever comes first. A
// coalesced signal for changes that a Drain has already taken is ignored. It
// reports whether it returned because of a signal (true) or because ctx ended
// (false); a false return
// with Empty() still true means the worker should fall through to whatever
// periodic work its caller does on a timeout (recrawl checks, settle
// detection, GC).
func (q *Queue) Wait(ctx context.Context) bool {
	for {
		select {
		case <-q.coalescer.Signals():
			q.mu.Lock()
			ready := q.head != nil || len(q.syncs) > 0 || q.woken
			q.woken = false
			q.mu.Unlock()
			if ready {
				return true
			}
		case <-ctx.Done():
			return false
		}
	}
}

// Drain atomically removes every currently queued change and sync token and
// returns them, leaving the queue empty. It's always safe to call, even if
// Wait returned false or wasn't called at all (a spurious or absent wake
// just drains nothing).
func (q *Queue) Drain() (*Change, []*SyncToken) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.head
	q.head, q.tail = nil, nil
	q.index = make(map[string]*Change)

	syncs := q.syncs
	q.syncs = nil

	return items, syncs
}

// Empty reports whether the queue currently has no changes and no sync
// tokens awaiting a drain.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.head == nil && len(q.syncs) == 0
}

// PendingItemCount returns the number of distinct changes currently queued,
// for use in diagnostic logging (not a size limit — the queue is unbounded).
func (q *Queue) PendingItemCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	count := 0
	for c := q.head; c != nil; c = c.next {
		count++
	}
	return count
}
