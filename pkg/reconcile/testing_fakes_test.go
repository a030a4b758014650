package reconcile

import (
	"os"

	"github.com/nodewatch/viewfs/pkg/filesystem/watching"
)

// fakeWatcher is a minimal watching.Watcher backed directly by the real
// filesystem, used so crawler/statPath tests exercise real stat calls
// against a temporary directory rather than a hand-rolled in-memory tree.
type fakeWatcher struct {
	caps   watching.Capability
	events chan string
	errs   chan error
}

func newFakeWatcher(caps watching.Capability) *fakeWatcher {
	return &fakeWatcher{
		caps:   caps,
		events: make(chan string, 16),
		errs:   make(chan error, 1),
	}
}

func (w *fakeWatcher) Capabilities() watching.Capability { return w.caps }

func (w *fakeWatcher) StartWatchDir(path string) (watching.DirHandle, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	return &fakeDirHandle{entries: entries}, nil
}

func (w *fakeWatcher) Events() <-chan string { return w.events }
func (w *fakeWatcher) Errors() <-chan error  { return w.errs }
func (w *fakeWatcher) Terminate() error      { return nil }

type fakeDirHandle struct {
	entries []os.DirEntry
	index   int
}

func (h *fakeDirHandle) ReadDir() (*watching.Entry, error) {
	if h.index >= len(h.entries) {
		return nil, nil
	}
	entry := h.entries[h.index]
	h.index++
	return &watching.Entry{Name: entry.Name()}, nil
}

func (h *fakeDirHandle) DeviceAndFileID() (uint64, uint64) { return 0, 0 }
func (h *fakeDirHandle) Close() error                      { return nil }

// fakeController is a no-op Controller that records whether a settle
// event was published and never reaps, so tests can run the worker loop
// for a bounded number of iterations without it stopping itself.
type fakeController struct {
	settledEvents int
	ageOuts       int
	cacheWarms    int
}

func (c *fakeController) ConsiderReap() bool  { return false }
func (c *fakeController) StopWatch()          {}
func (c *fakeController) ConsiderAgeOut()     { c.ageOuts++ }
func (c *fakeController) WarmContentCache()   { c.cacheWarms++ }
func (c *fakeController) EnqueueUnilateralResponse(event map[string]interface{}) {
	if event["settled"] == true {
		c.settledEvents++
	}
}
