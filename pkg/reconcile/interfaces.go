package reconcile

import (
	"time"

	"github.com/nodewatch/viewfs/pkg/filesystem"
)

// FilesystemProvider is the "Filesystem (consumed)" external interface of
// spec.md §6: a single-path stat operation the crawler uses both for the
// root-replacement check and for the single-path stat that the path
// reconciler falls through to for every non-directory, non-root path.
type FilesystemProvider interface {
	GetFileInformation(path string, caseSensitive bool) (*filesystem.Metadata, error)
}

// osFilesystem is the default FilesystemProvider, backed directly by the
// local filesystem via pkg/filesystem.
type osFilesystem struct{}

func (osFilesystem) GetFileInformation(path string, caseSensitive bool) (*filesystem.Metadata, error) {
	return filesystem.GetFileInformation(path, caseSensitive)
}

// Controller is the "Root controller (consumed)" external interface of
// spec.md §6, minus scheduleRecrawl (implemented directly on RootContext;
// see SPEC_FULL.md). Every method here encodes a policy decision this
// module doesn't make: reap thresholds, age-out sweeps, and how (or
// whether) to fan a "settled" notification out to subscribers are all
// outside spec.md's scope (§1).
type Controller interface {
	// ConsiderReap reports whether the root is idle-reapable and, if so,
	// performs whatever bookkeeping the caller associates with reaping it.
	// A true return causes the worker loop to stop.
	ConsiderReap() bool
	// StopWatch releases the underlying watch. Called once, immediately
	// after ConsiderReap returns true.
	StopWatch()
	// ConsiderAgeOut gives the caller a chance to garbage-collect stale
	// view nodes on a settle tick that didn't warrant a full reap.
	ConsiderAgeOut()
	// EnqueueUnilateralResponse publishes an out-of-band event (such as
	// the "settled" notification) to whatever subscription mechanism the
	// caller maintains. This module has no subscription manager of its
	// own (spec.md §1).
	EnqueueUnilateralResponse(event map[string]interface{})
	// WarmContentCache gives a caller-maintained content hash cache (an
	// external collaborator named but not implemented by spec.md §1) a
	// chance to prime itself once a root has gone quiet, before "settled"
	// is published. Callers with no such cache leave this a no-op.
	WarmContentCache()
}

// CrawlSample is the performance sample emitted at the end of every full
// crawl (SUPPLEMENTED FEATURES §1 of SPEC_FULL.md), mirroring the
// PerfSample("full-crawl") the original wraps fullCrawl in.
type CrawlSample struct {
	Root          string
	Recrawl       bool
	FilesObserved int
	Duration      time.Duration
	// Generation tags which crawl produced this sample, so a caller
	// correlating samples against log lines doesn't have to rely on
	// timestamps alone.
	Generation string
}
