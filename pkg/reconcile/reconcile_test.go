package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nodewatch/viewfs/pkg/config"
	"github.com/nodewatch/viewfs/pkg/cookie"
	"github.com/nodewatch/viewfs/pkg/filesystem/watching"
	"github.com/nodewatch/viewfs/pkg/pending"
)

func newTestRoot(t *testing.T, root string, caps watching.Capability) (*RootContext, *fakeWatcher, *fakeController) {
	t.Helper()
	w := newFakeWatcher(caps)
	controller := &fakeController{}
	cfg := config.RootConfiguration{
		TriggerSettle:      5 * time.Millisecond,
		HintNumFilesPerDir: 64,
		CaseSensitive:      true,
	}
	r := NewRoot(root, cfg, w, cookie.NewInMemoryRegistry("", nil), controller, nil, 0)
	return r, w, controller
}

func TestFullCrawlPopulatesView(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a"), "hello")
	mustMkdir(t, filepath.Join(root, "b"))
	mustWriteFile(t, filepath.Join(root, "b", "c"), "world")

	r, _, _ := newTestRoot(t, root, 0)

	r.fullCrawl(&pending.WorkingSet{})

	r.View.RLock()
	defer r.View.RUnlock()

	top := r.View.Root()
	if a := top.Files["a"]; a == nil || !a.Exists {
		t.Fatal("expected node a to exist")
	}
	b := top.Dirs["b"]
	if b == nil || !b.Exists {
		t.Fatal("expected directory b to exist")
	}
	if c := b.Files["c"]; c == nil || !c.Exists {
		t.Fatal("expected node b/c to exist")
	}

	if !r.DoneInitial() {
		t.Fatal("expected DoneInitial to be true after full crawl")
	}
	if r.Generation() == "" {
		t.Fatal("expected a generation tag to be assigned by the full crawl")
	}
}

func TestProcessPathCookieNeverEntersView(t *testing.T) {
	root := t.TempDir()
	r, _, _ := newTestRoot(t, root, watching.HasPerFileNotifications)

	cookiePath := filepath.Join(root, cookie.DefaultPrefix+"123")

	notified := make(chan struct{})
	done := r.Cookies.(*cookie.InMemoryRegistry).WaitForCookie(cookiePath)
	go func() {
		<-done
		close(notified)
	}()

	r.View.Lock()
	r.processPath(&pending.Change{Path: cookiePath, Now: time.Now(), Flags: pending.ViaNotify}, &pending.WorkingSet{})
	r.View.Unlock()

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("expected the cookie registry to be notified")
	}

	r.View.RLock()
	defer r.View.RUnlock()
	if _, ok := r.View.Root().Files[cookie.DefaultPrefix+"123"]; ok {
		t.Fatal("cookie path must never appear as a node in the view")
	}
}

func TestDeleteSweepMarksNodeGone(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "a"), "hello")

	r, _, _ := newTestRoot(t, root, 0)
	r.fullCrawl(&pending.WorkingSet{})

	if err := os.Remove(filepath.Join(root, "a")); err != nil {
		t.Fatal(err)
	}

	ws := &pending.WorkingSet{}
	ws.Append(&pending.Change{Path: root, Now: time.Now(), Flags: pending.Recursive}, nil)

	r.View.Lock()
	r.processAllPending(ws)
	r.View.Unlock()

	r.View.RLock()
	defer r.View.RUnlock()
	a := r.View.Root().Files["a"]
	if a == nil || a.Exists {
		t.Fatal("expected a to be marked deleted after removal and recrawl")
	}
}

func TestCrawlerSchedulesRecrawlOnRootReplacement(t *testing.T) {
	root := t.TempDir()
	r, _, _ := newTestRoot(t, root, 0)
	r.fullCrawl(&pending.WorkingSet{})

	// Move the old root aside rather than deleting it, so that its inode
	// stays in use and the new directory can't be given the same one.
	if err := os.Rename(root, root+".old"); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}

	r.View.Lock()
	r.crawler(&pending.Change{Path: root, Now: time.Now(), Flags: 0}, &pending.WorkingSet{})
	r.View.Unlock()

	r.recrawlMu.RLock()
	should := r.shouldRecrawl
	r.recrawlMu.RUnlock()
	if !should {
		t.Fatal("expected a root replacement to schedule a recrawl")
	}
}

func TestProcessAllPendingSuppressesCookiesDuringDesync(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, cookie.DefaultPrefix+"1"), "")

	r, _, _ := newTestRoot(t, root, 0) // no per-file notifications

	notifiedCh := make(chan struct{})
	reg := r.Cookies.(*cookie.InMemoryRegistry)
	waiter := reg.WaitForCookie(filepath.Join(root, cookie.DefaultPrefix+"1"))
	go func() {
		<-waiter
		close(notifiedCh)
	}()

	ws := &pending.WorkingSet{}
	ws.Append(&pending.Change{
		Path:  root,
		Now:   time.Now(),
		Flags: pending.IsDesynced | pending.CrawlOnly | pending.Recursive,
	}, nil)

	r.View.Lock()
	desynced := r.processAllPending(ws)
	r.View.Unlock()

	if !desynced {
		t.Fatal("expected processAllPending to report a desync")
	}

	select {
	case <-notifiedCh:
		t.Fatal("did not expect the cookie to be notified during desync recovery")
	case <-time.After(50 * time.Millisecond):
	}

	reg.AbortAllCookies()
	select {
	case <-notifiedCh:
	case <-time.After(time.Second):
		t.Fatal("expected AbortAllCookies to release the waiter")
	}
}

func TestSyncToNowFulfillsAfterDrain(t *testing.T) {
	root := t.TempDir()
	r, _, _ := newTestRoot(t, root, 0)
	r.fullCrawl(&pending.WorkingSet{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resultCh := make(chan SyncResult, 1)
	errCh := make(chan error, 1)
	go func() {
		result, err := r.SyncToNow(ctx, time.Second)
		resultCh <- result
		errCh <- err
	}()

	// SyncToNow only enqueues a token; nothing drains the shared queue on
	// its own once the initial crawl has finished, so drive one worker
	// pass here the way Run would.
	time.Sleep(20 * time.Millisecond)
	ws := &pending.WorkingSet{}
	items, syncs := r.pending.Drain()
	ws.Append(items, syncs)
	r.View.Lock()
	r.processAllPending(ws)
	r.View.Unlock()

	if err := <-errCh; err != nil {
		t.Fatal(err)
	}
	result := <-resultCh
	if !result.Fulfilled {
		t.Fatal("expected sync to be fulfilled once queued and drained")
	}
}

func TestWaitForSettleReturnsOnceQuietWindowElapses(t *testing.T) {
	root := t.TempDir()
	r, _, _ := newTestRoot(t, root, 0)
	r.fullCrawl(&pending.WorkingSet{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.WaitForSettle(context.Background(), 20*time.Millisecond)
	}()

	select {
	case err := <-errCh:
		t.Fatalf("expected WaitForSettle to block until the quiet window elapsed, got %v", err)
	case <-time.After(5 * time.Millisecond):
	}

	if err := <-errCh; err != nil {
		t.Fatal(err)
	}
}

func TestWaitForSettleUnblocksOnStop(t *testing.T) {
	root := t.TempDir()
	r, _, _ := newTestRoot(t, root, 0)
	r.fullCrawl(&pending.WorkingSet{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.WaitForSettle(context.Background(), time.Hour)
	}()

	time.Sleep(5 * time.Millisecond)
	r.Stop()

	select {
	case err := <-errCh:
		if err != ErrStopped {
			t.Fatalf("expected ErrStopped, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected WaitForSettle to return once the root was stopped")
	}
}

func TestBackoffDoublesUpToBiggestTimeout(t *testing.T) {
	root := t.TempDir()
	r, _, _ := newTestRoot(t, root, 0)
	r.Config.TriggerSettle = 5 * time.Millisecond
	r.Config.GCInterval = 20 * time.Millisecond

	biggest := r.Config.BiggestTimeout()
	currentTimeout := r.Config.TriggerSettle
	ws := &pending.WorkingSet{}
	ctx := context.Background()

	r.step(ctx, ws, &currentTimeout, biggest) // performs full crawl, then one quiet tick
	if currentTimeout != 10*time.Millisecond {
		t.Fatalf("expected 10ms after first quiet tick, got %s", currentTimeout)
	}

	r.step(ctx, ws, &currentTimeout, biggest)
	if currentTimeout != 20*time.Millisecond {
		t.Fatalf("expected 20ms after second quiet tick, got %s", currentTimeout)
	}

	r.step(ctx, ws, &currentTimeout, biggest)
	if currentTimeout != 20*time.Millisecond {
		t.Fatalf("expected timeout to stay capped at 20ms, got %s", currentTimeout)
	}
}

func mustWriteFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
}
