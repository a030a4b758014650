// Package reconcile implements the I/O reconciliation engine: the worker
// loop, crawler, path reconciler, recrawl controller, and settle detector
// that keep a view.Database synchronized with a watched directory tree.
package reconcile

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nodewatch/viewfs/pkg/config"
	"github.com/nodewatch/viewfs/pkg/cookie"
	"github.com/nodewatch/viewfs/pkg/filesystem/watching"
	"github.com/nodewatch/viewfs/pkg/logging"
	"github.com/nodewatch/viewfs/pkg/pending"
	"github.com/nodewatch/viewfs/pkg/state"
	"github.com/nodewatch/viewfs/pkg/view"
)

// readyPromise is the single-shot fulfillable handle described in
// spec.md §9: fulfillment is idempotent, and once fulfilled the handle is
// discarded so the next recrawl allocates a fresh one.
type readyPromise struct {
	done chan struct{}
	once sync.Once
}

func newReadyPromise() *readyPromise {
	return &readyPromise{done: make(chan struct{})}
}

func (p *readyPromise) fulfill() {
	p.once.Do(func() { close(p.done) })
}

// RootContext is the per-watched-root state named in spec.md §3: the view,
// the pending queue, the cookie registry, the watcher handle, recrawl
// metadata, and the done-initial/cancelled/stop flags, plus the external
// collaborators this engine consumes.
//
// Per invariant I1, only the reconciliation worker returned by NewRoot's
// caller (via Run) ever mutates View, RecrawlInfo, or CrawlState; every
// other exported method here is safe to call from any goroutine.
type RootContext struct {
	RootPath      string
	CaseSensitive bool
	Config        config.RootConfiguration

	View       *view.Database
	Cookies    cookie.Registry
	Watcher    watching.Watcher
	Filesystem FilesystemProvider
	Controller Controller

	OnCrawlSample func(CrawlSample)

	logger  *logging.Logger
	pending *pending.Queue

	doneInitial atomic.Bool
	cancelled   state.Marker
	stopThreads state.Marker

	// recrawlMu guards recrawlCount, shouldRecrawl, crawlStart, crawlFinish
	// (spec.md §3's "recrawl metadata").
	recrawlMu     sync.RWMutex
	recrawlCount  int
	shouldRecrawl bool
	crawlStart    time.Time
	crawlFinish   time.Time
	// generation tags the crawl currently (or most recently) in progress,
	// regenerated at the start of every fullCrawl so log lines and
	// CrawlSample values from the same pass can be correlated.
	generation string

	// crawlMu guards ready (spec.md §3's "crawl state"). Acquired after
	// recrawlMu when both are needed, per spec.md §5's fixed lock order.
	crawlMu sync.Mutex
	ready   *readyPromise

	// crawlObserved counts entries stat'd during the crawl currently in
	// progress, for the performance sample.
	crawlObserved int

	// lastActivity is the UnixNano timestamp of the most recent full crawl
	// or non-empty drain pass, read by WaitForSettle.
	lastActivity atomic.Int64

	// activity is notified on every touchActivity and poisoned by Stop, so
	// WaitForSettle can block on a real wakeup instead of polling on a
	// fixed-interval timer.
	activity *state.Tracker
}

// touchActivity records that reconciliation activity just occurred and
// wakes anything blocked in WaitForSettle.
func (r *RootContext) touchActivity() {
	r.lastActivity.Store(time.Now().UnixNano())
	r.activity.NotifyOfChange()
}

// lastActivityTime returns the timestamp touchActivity most recently
// recorded.
func (r *RootContext) lastActivityTime() time.Time {
	return time.Unix(0, r.lastActivity.Load())
}

// NewRoot constructs a root context. settleWindow controls how long the
// pending queue coalesces bursts of notifications before waking the worker;
// spec.md doesn't name a value for this, so it defaults to zero (no
// coalescing beyond what a single Drain naturally picks up) unless the
// caller opts in.
func NewRoot(rootPath string, cfg config.RootConfiguration, w watching.Watcher, cookies cookie.Registry, controller Controller, logger *logging.Logger, settleWindow time.Duration) *RootContext {
	if logger == nil {
		logger = logging.RootLogger
	}
	root := &RootContext{
		RootPath:      rootPath,
		CaseSensitive: cfg.CaseSensitive,
		Config:        cfg,
		View:          view.New(rootPath, cfg.CaseSensitive),
		Cookies:       cookies,
		Watcher:       w,
		Filesystem:    osFilesystem{},
		Controller:    controller,
		logger:        logger.Sublogger("root"),
		pending:       pending.NewQueue(settleWindow),
		activity:      state.NewTracker(),
	}
	root.touchActivity()
	return root
}

// DoneInitial reports whether the first full crawl has completed.
func (r *RootContext) DoneInitial() bool {
	return r.doneInitial.Load()
}

// Cancelled reports whether the root has been cancelled.
func (r *RootContext) Cancelled() bool {
	return r.cancelled.Marked()
}

// Cancel marks the root as cancelled. It does not by itself stop the
// worker loop; callers also invoke Stop to interrupt a blocked wait.
func (r *RootContext) Cancel() {
	r.cancelled.Mark()
}

// Stop raises the cooperative stop signal checked by the worker loop and
// the pending drain (spec.md §5's cancellation model), and wakes the
// worker if it's currently blocked waiting on the pending queue.
func (r *RootContext) Stop() {
	r.stopThreads.Mark()
	r.pending.Wake()
	r.activity.Poison()
}

func (r *RootContext) stopRequested() bool {
	return r.stopThreads.Marked()
}

// RecrawlCount returns the number of recrawls performed so far.
func (r *RootContext) RecrawlCount() int {
	r.recrawlMu.RLock()
	defer r.recrawlMu.RUnlock()
	return r.recrawlCount
}

// Generation returns the tag of the crawl currently, or most recently, in
// progress.
func (r *RootContext) Generation() string {
	r.recrawlMu.RLock()
	defer r.recrawlMu.RUnlock()
	return r.generation
}

func newGenerationTag() string {
	return uuid.New().String()
}

// ScheduleRecrawl sets shouldRecrawl, to be picked up by the next worker
// loop iteration via handleShouldRecrawl (spec.md §4.7). See SPEC_FULL.md
// for why this is implemented directly here rather than on Controller.
func (r *RootContext) ScheduleRecrawl(reason string) {
	r.recrawlMu.Lock()
	already := r.shouldRecrawl
	r.shouldRecrawl = true
	r.recrawlMu.Unlock()

	if !already {
		r.logger.Debugf("scheduling recrawl: %s", reason)
	}
}

// Pending returns the shared pending change queue, for use by watcher
// callback wiring (see Run).
func (r *RootContext) Pending() *pending.Queue {
	return r.pending
}
