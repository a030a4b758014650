package pending

import (
	"context"
	"testing"
	"time"
)

func TestQueueAddAndDrain(t *testing.T) {
	q := NewQueue(0)
	defer q.Terminate()

	now := time.Now()
	q.Add("/root/a", now, ViaNotify)
	q.Add("/root/b", now, Recursive)

	if !q.Wait(context.Background()) {
		t.Fatal("expected Wait to return true after Add")
	}

	items, syncs := q.Drain()
	if len(syncs) != 0 {
		t.Fatalf("expected no syncs, got %d", len(syncs))
	}

	var paths []string
	for c := items; c != nil; c = c.Next() {
		paths = append(paths, c.Path)
	}
	if len(paths) != 2 || paths[0] != "/root/a" || paths[1] != "/root/b" {
		t.Fatalf("unexpected drained paths: %v", paths)
	}

	if !q.Empty() {
		t.Fatal("expected queue to be empty after drain")
	}
}

func TestQueueCoalescesByPath(t *testing.T) {
	q := NewQueue(0)
	defer q.Terminate()

	now := time.Now()
	q.Add("/root/a", now, ViaNotify)
	q.Add("/root/a", now, Recursive)

	if count := q.PendingItemCount(); count != 1 {
		t.Fatalf("expected 1 pending item after coalescing, got %d", count)
	}

	items, _ := q.Drain()
	if items == nil || items.Next() != nil {
		t.Fatal("expected exactly one coalesced change")
	}
	if !items.Flags.Has(ViaNotify) || !items.Flags.Has(Recursive) {
		t.Fatalf("expected merged flags, got %v", items.Flags)
	}
}

func TestQueueAddSync(t *testing.T) {
	q := NewQueue(0)
	defer q.Terminate()

	token, err := NewSyncToken()
	if err != nil {
		t.Fatal(err)
	}
	q.AddSync(token)

	if !q.Wait(context.Background()) {
		t.Fatal("expected Wait to return true after AddSync")
	}

	_, syncs := q.Drain()
	if len(syncs) != 1 || syncs[0] != token {
		t.Fatalf("expected to drain the enqueued token, got %v", syncs)
	}
}

func TestQueueWaitTimesOutWithoutSignal(t *testing.T) {
	q := NewQueue(0)
	defer q.Terminate()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if q.Wait(ctx) {
		t.Fatal("expected Wait to return false when nothing was added")
	}
}

func TestSyncTokenFulfillIsIdempotent(t *testing.T) {
	token, err := NewSyncToken()
	if err != nil {
		t.Fatal(err)
	}

	token.Fulfill(false)
	token.Fulfill(true) // should not override the first fulfillment

	desynced, err := token.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if desynced {
		t.Fatal("expected first Fulfill call to win")
	}
}

func TestWorkingSetAppendAndAdvance(t *testing.T) {
	var w WorkingSet

	w.Append(&Change{Path: "/a"}, nil)
	w.Append(&Change{Path: "/b"}, nil)

	if got := w.PendingItemCount(); got != 2 {
		t.Fatalf("expected 2 items, got %d", got)
	}
	if w.Head().Path != "/a" {
		t.Fatalf("expected head to be /a, got %s", w.Head().Path)
	}

	w.Advance()
	if w.Head().Path != "/b" {
		t.Fatalf("expected head to be /b after advance, got %s", w.Head().Path)
	}

	w.Advance()
	if !w.Empty() {
		t.Fatal("expected working set to be empty")
	}
}

func TestWorkingSetRequeue(t *testing.T) {
	var w WorkingSet
	w.Append(&Change{Path: "/a"}, nil)

	budgetExceeded := w.Head()
	w.Advance()
	w.Requeue(budgetExceeded)

	if w.Head().Path != "/a" || w.PendingItemCount() != 1 {
		t.Fatal("expected requeued change to be back at the front")
	}
}
