package pending

import "time"

// Change is a single pending path awaiting reconciliation. Changes form a
// singly-linked chain rather than a slice so that the queue can steal an
// entire chain in O(1) and so that a change can be re-enqueued (pushed back
// onto a worker's local chain) without touching the shared queue.
type Change struct {
	// Path is the absolute path that needs reconciling.
	Path string
	// Now is the observation time recorded when the change was enqueued.
	// Changes the crawler enqueues for children carry their parent's Now.
	Now time.Time
	// Flags carries the modifiers described in spec.md §3.
	Flags Flags

	next *Change
}

// Next returns the next change in the chain, or nil at the end.
func (c *Change) Next() *Change {
	if c == nil {
		return nil
	}
	return c.next
}
