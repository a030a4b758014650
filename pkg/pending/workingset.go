package pending

// WorkingSet is the reconciliation worker's private accumulation of changes
// and sync tokens stolen from a Queue. It's unsynchronized: spec.md's
// invariant I1 guarantees exactly one worker ever touches it.
//
// The worker appends whatever Drain returns onto its working set on every
// wait/drain cycle, then processes the whole set, including anything
// appended to it while the pass runs, before the pass ends.
type WorkingSet struct {
	head *Change
	tail *Change

	syncs []*SyncToken
}

// Append attaches a chain of changes and a slice of sync tokens, in that
// order, to the end of the working set.
func (w *WorkingSet) Append(items *Change, syncs []*SyncToken) {
	if items != nil {
		last := items
		for last.next != nil {
			last = last.next
		}
		if w.tail != nil {
			w.tail.next = items
		} else {
			w.head = items
		}
		w.tail = last
	}
	w.syncs = append(w.syncs, syncs...)
}

// Head returns the first change in the working set without removing it.
func (w *WorkingSet) Head() *Change {
	return w.head
}

// Advance drops the first change off the front of the working set, for use
// once a worker has finished processing it.
func (w *WorkingSet) Advance() {
	if w.head == nil {
		return
	}
	w.head = w.head.next
	if w.head == nil {
		w.tail = nil
	}
}

// Requeue pushes a change back onto the front of the working set, so that
// it's the next change Head returns.
func (w *WorkingSet) Requeue(change *Change) {
	if change == nil {
		return
	}
	change.next = w.head
	w.head = change
	if w.tail == nil {
		w.tail = change
	}
}

// StealSyncs removes and returns every sync token currently held, leaving
// the working set's sync list empty. Unlike changes, sync tokens are never
// partially processed: the caller fulfills the entire batch at once.
func (w *WorkingSet) StealSyncs() []*SyncToken {
	syncs := w.syncs
	w.syncs = nil
	return syncs
}

// Empty reports whether the working set has no remaining changes and no
// sync tokens.
func (w *WorkingSet) Empty() bool {
	return w.head == nil && len(w.syncs) == 0
}

// PendingItemCount returns the number of changes remaining in the working
// set.
func (w *WorkingSet) PendingItemCount() int {
	count := 0
	for c := w.head; c != nil; c = c.next {
		count++
	}
	return count
}
