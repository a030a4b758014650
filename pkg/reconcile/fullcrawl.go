package reconcile

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nodewatch/viewfs/pkg/pending"
)

// fullCrawl implements spec.md §4.2: a complete recursive rediscovery of
// the root, holding the view's write lock for the duration. The two-level
// loop (drain shared queue, process, repeat until the shared queue is
// empty) avoids dropping events that arrive mid-crawl, per the rationale
// spec.md gives for it.
func (r *RootContext) fullCrawl(localPending *pending.WorkingSet) {
	r.recrawlMu.Lock()
	r.crawlStart = time.Now()
	r.generation = newGenerationTag()
	generation := r.generation
	r.recrawlMu.Unlock()

	started := time.Now()
	r.crawlObserved = 0

	r.View.Lock()
	r.View.AdvanceTick()

	r.pending.Add(r.RootPath, started, pending.Recursive)

	for {
		items, syncs := r.pending.Drain()
		localPending.Append(items, syncs)
		if localPending.Empty() {
			break
		}
		r.processAllPending(localPending)
	}

	r.View.Unlock()

	r.recrawlMu.Lock()
	r.shouldRecrawl = false
	recrawlCount := r.recrawlCount
	r.crawlFinish = time.Now()
	r.recrawlMu.Unlock()

	r.crawlMu.Lock()
	if r.ready != nil {
		r.ready.fulfill()
		r.ready = nil
	}
	r.crawlMu.Unlock()

	r.doneInitial.Store(true)
	r.touchActivity()

	// Every lock above is released before these side effects run, per the
	// lock discipline spec.md §5 calls for: abortAllCookies resolves
	// promises, which may run arbitrary client code.
	r.Cookies.AbortAllCookies()

	duration := time.Since(started)
	if r.OnCrawlSample != nil {
		r.OnCrawlSample(CrawlSample{
			Root:          r.RootPath,
			Recrawl:       recrawlCount > 0,
			FilesObserved: r.crawlObserved,
			Duration:      duration,
			Generation:    generation,
		})
	}

	prefix := ""
	if recrawlCount > 0 {
		prefix = "re"
	}
	r.logger.Debugf("%scrawl complete generation=%s (%s, %s entries observed)", prefix, generation, duration, humanize.Comma(int64(r.crawlObserved)))
}
