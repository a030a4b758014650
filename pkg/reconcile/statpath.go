package reconcile

import (
	"os"
	"path/filepath"

	"github.com/nodewatch/viewfs/pkg/pending"
)

// statPath is the single-path stat operation that spec.md §4.5 step 3 falls
// through to for every pending path other than the root or a CRAWL_ONLY
// item: refresh one node's metadata, create it if it's newly appeared,
// mark it deleted if it's gone, and treat a changed file identity as a
// replace (the same inode-change-implies-replace logic the crawler applies
// to the root, applied here to an ordinary child).
//
// Unlike the crawler, this never recurses into Path Reconciler directly;
// if the path turns out to be a directory it hasn't seen before (or one
// whose identity changed), it re-enqueues the path with RECURSIVE and
// CRAWL_ONLY so processPath routes it to the crawler on its own turn
// instead of looping back here, keeping recursion bounded by directory
// depth as spec.md §9 asks.
func (r *RootContext) statPath(item *pending.Change, localPending *pending.WorkingSet) {
	dirPath, name := filepath.Dir(item.Path), filepath.Base(item.Path)

	dir := r.View.ResolveDirectory(dirPath, true)
	if dir == nil {
		return
	}

	tick := r.View.Tick()
	info, err := r.Filesystem.GetFileInformation(item.Path, r.CaseSensitive)
	if err != nil {
		if os.IsNotExist(err) {
			r.View.MarkDeleted(dir, name, tick)
			return
		}
		r.handleOpenError(item.Path, "getFileInformation", err)
		r.View.MarkDeleted(dir, name, tick)
		return
	}

	if info.IsDirectory() {
		// Capture whatever was already known about this child *before*
		// ResolveDirectory auto-creates (and newDirectory defaults to
		// Exists: true) or mutates it — otherwise "is this new" can never
		// be answered once the entry already exists in the map.
		previous := r.View.ChildDirectory(dir, name)
		replaced := previous != nil && previous.Stat.FileID != 0 && previous.Stat.FileID != info.FileID
		isNew := previous == nil || !previous.Exists || replaced

		child := r.View.ResolveDirectory(item.Path, true)
		child.Exists = true
		child.Stat = *info
		child.Tick = tick

		if isNew {
			localPending.Append(&pending.Change{
				Path:  item.Path,
				Now:   item.Now,
				Flags: pending.Recursive | pending.CrawlOnly | (item.Flags & pending.IsDesynced),
			}, nil)
		}
		return
	}

	r.View.RemoveChildDir(dir, name)
	node := r.View.EnsureChildFile(dir, name)
	node.Name = name
	node.Exists = true
	node.MaybeDeleted = false
	node.Stat = *info
	node.Tick = tick
}
