package reconcile

import (
	"github.com/pkg/errors"

	"github.com/nodewatch/viewfs/pkg/filesystem/watching"
	"github.com/nodewatch/viewfs/pkg/pending"
	"github.com/nodewatch/viewfs/pkg/view"
)

// crawler implements the Crawler of spec.md §4.6: refresh a directory
// subtree, re-enqueuing its children (via the Path Reconciler) and
// sweeping away anything that's vanished since the last pass.
func (r *RootContext) crawler(item *pending.Change, localPending *pending.WorkingSet) {
	recursive := item.Flags.Has(pending.Recursive)

	caps := r.Watcher.Capabilities()
	var statAll bool
	if caps.Has(watching.HasPerFileNotifications) {
		statAll = caps.Has(watching.CoalescedRename)
	} else {
		statAll = item.Flags.Has(pending.NonrecursiveScan)
	}

	dir := r.View.ResolveDirectory(item.Path, true)
	tick := r.View.Tick()

	// Root replacement detection (spec.md §4.6): the root never gets a
	// watchman_file/Node of its own via the normal file path, so this is
	// special-cased here rather than falling through to statPath.
	if item.Path == r.RootPath {
		info, err := r.Filesystem.GetFileInformation(item.Path, r.CaseSensitive)
		if err != nil {
			r.handleOpenError(item.Path, "getFileInformation", err)
			dir.Exists = false
			dir.Tick = tick
			return
		}

		if _, rootFile := r.View.RootIdentity(); rootFile != 0 {
			if r.View.RootReplaced(info.DeviceID, info.FileID) {
				r.ScheduleRecrawl("root was replaced and we didn't get notified by the kernel")
				return
			}
		} else {
			recursive = true
			r.View.SetRootIdentity(info.DeviceID, info.FileID)
		}

		dir.Stat = *info
		dir.Exists = true
		dir.Tick = tick
	}

	handle, err := r.Watcher.StartWatchDir(item.Path)
	if err != nil {
		r.handleOpenError(item.Path, "startWatchDir", err)
		dir.Exists = false
		dir.Tick = tick
		return
	}
	defer handle.Close()

	if len(dir.Files) == 0 && len(dir.Dirs) == 0 {
		// The DirHandle contract has no link-count proxy for subdirectory
		// count (unlike the teacher's st_nlink-based hint), so the
		// directory-count half of the hint falls back to zero.
		dir.SizeHint(0, r.Config.HintNumFilesPerDir)
	}

	markMaybeDeleted := func(node *view.Node) {
		if node.Exists {
			node.MaybeDeleted = true
		}
	}
	for _, file := range dir.Files {
		markMaybeDeleted(file)
	}
	for _, sub := range dir.Dirs {
		markMaybeDeleted(&sub.Node)
	}

	for {
		entry, err := handle.ReadDir()
		if err != nil {
			r.logger.Warn(errors.Wrapf(err, "readdir(%s)", item.Path))
			localPending.Append(&pending.Change{Path: item.Path, Now: item.Now}, nil)
			break
		}
		if entry == nil {
			break
		}

		r.crawlObserved++

		existing := r.View.ChildNode(dir, entry.Name)
		if existing != nil {
			existing.MaybeDeleted = false
		}

		if existing == nil || !existing.Exists || statAll || recursive {
			var newFlags pending.Flags
			if recursive || existing == nil || !existing.Exists {
				newFlags |= pending.Recursive
			}
			newFlags |= item.Flags & pending.IsDesynced

			childPath := view.ChildPath(item.Path, entry.Name)
			r.processPath(&pending.Change{Path: childPath, Now: item.Now, Flags: newFlags}, localPending)
		}
	}

	sweep := func(node *view.Node) {
		if !node.Exists {
			return
		}
		if node.MaybeDeleted || (node.IsDirectory() && recursive) {
			var flags pending.Flags
			if recursive {
				flags = pending.Recursive
			}
			localPending.Append(&pending.Change{
				Path:  view.ChildPath(item.Path, node.Name),
				Now:   item.Now,
				Flags: flags,
			}, nil)
		}
	}
	for _, file := range dir.Files {
		sweep(file)
	}
	for _, sub := range dir.Dirs {
		sweep(&sub.Node)
	}
}
