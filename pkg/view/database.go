// Package view implements the in-memory directory/file tree that the
// reconciliation core keeps synchronized with a watched root.
package view

import (
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// Database is the tree of directory nodes rooted at a single watched path,
// along with the identity of the root's underlying filesystem entry and the
// observation clock shared by every node in the tree.
//
// Per invariant I1, exactly one goroutine (the reconciliation worker for
// this root) ever mutates a Database; all tree-mutating methods assume the
// caller holds the write lock (via Lock). Read-only access for queries
// should go through RLock/RUnlock and the exported read helpers.
type Database struct {
	mu sync.RWMutex

	rootPath      string
	caseSensitive bool
	root          *Directory

	// rootDevice and rootInode identify the filesystem entry last observed
	// at the root path. Both are zero until the first crawl completes,
	// used to detect root replacement (spec.md §4.6).
	rootDevice uint64
	rootInode  uint64

	// mostRecentTick is the process-wide observation clock for this root.
	// It is accessed atomically so that query paths can read it without
	// taking the view lock (invariant I5).
	mostRecentTick uint64
}

// New creates an empty view database for the given root path.
func New(rootPath string, caseSensitive bool) *Database {
	return &Database{
		rootPath:      rootPath,
		caseSensitive: caseSensitive,
		root:          newDirectory(""),
	}
}

// Lock acquires the view's write lock. Callers must hold it for the
// duration of any tree mutation.
func (db *Database) Lock() { db.mu.Lock() }

// Unlock releases the view's write lock.
func (db *Database) Unlock() { db.mu.Unlock() }

// RLock acquires the view's read lock, for query paths that only need to
// observe the tree.
func (db *Database) RLock() { db.mu.RLock() }

// RUnlock releases the view's read lock.
func (db *Database) RUnlock() { db.mu.RUnlock() }

// RootPath returns the absolute path this database is rooted at.
func (db *Database) RootPath() string {
	return db.rootPath
}

// CaseSensitive reports whether child name comparisons are case-sensitive.
func (db *Database) CaseSensitive() bool {
	return db.caseSensitive
}

// Root returns the root directory node. The caller must hold at least a
// read lock.
func (db *Database) Root() *Directory {
	return db.root
}

// Tick returns the current value of the observation clock.
func (db *Database) Tick() uint64 {
	return atomic.LoadUint64(&db.mostRecentTick)
}

// AdvanceTick increments and returns the observation clock (invariant I5).
// It's invoked once per reconciliation pass, not once per node, so that
// every node touched within a single pass shares a tick value.
func (db *Database) AdvanceTick() uint64 {
	return atomic.AddUint64(&db.mostRecentTick, 1)
}

// RootIdentity returns the device and file (inode) identifiers last
// recorded for the root path. A zero file identifier means the root has
// never been successfully stat'd.
func (db *Database) RootIdentity() (device, file uint64) {
	return db.rootDevice, db.rootInode
}

// SetRootIdentity records the device and file identifiers for the root
// path. Called under the write lock by the crawler after a successful stat
// of the root.
func (db *Database) SetRootIdentity(device, file uint64) {
	db.rootDevice, db.rootInode = device, file
}

// RootReplaced reports whether newDevice/newFile differ from the previously
// recorded root identity, given that an identity has already been recorded
// (file identifier non-zero). Comparing both device and file, rather than
// file alone, catches a root replaced by a bind mount from a different
// device that happens to reuse an inode number (see SPEC_FULL.md).
func (db *Database) RootReplaced(newDevice, newFile uint64) bool {
	return db.rootInode != 0 && (newDevice != db.rootDevice || newFile != db.rootInode)
}

// normalizeName returns the map key to use for a child name, folding case
// when the database is case-insensitive.
func (db *Database) normalizeName(name string) string {
	if db.caseSensitive {
		return name
	}
	return strings.ToLower(name)
}

// ResolveDirectory walks from the root to the directory at path, creating
// intermediate directory nodes along the way if create is true. It returns
// nil if the directory doesn't exist in the view and create is false, or if
// path isn't a descendant of (or equal to) the root.
func (db *Database) ResolveDirectory(path string, create bool) *Directory {
	if path == db.rootPath {
		return db.root
	}

	rel, err := filepath.Rel(db.rootPath, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}

	dir := db.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		key := db.normalizeName(part)
		child, ok := dir.Dirs[key]
		if !ok {
			if !create {
				return nil
			}
			child = newDirectory(part)
			dir.Dirs[key] = child
		}
		dir = child
	}
	return dir
}

// ChildFile returns the file node named name within dir, if any.
func (db *Database) ChildFile(dir *Directory, name string) *Node {
	return dir.Files[db.normalizeName(name)]
}

// EnsureChildFile returns the file node named name within dir, creating an
// empty (non-existent) one if necessary.
func (db *Database) EnsureChildFile(dir *Directory, name string) *Node {
	key := db.normalizeName(name)
	node, ok := dir.Files[key]
	if !ok {
		node = &Node{Name: name}
		dir.Files[key] = node
	}
	return node
}

// ChildNode returns the node — file or subdirectory — named name within
// dir, if any, regardless of which map it lives in.
func (db *Database) ChildNode(dir *Directory, name string) *Node {
	key := db.normalizeName(name)
	if file, ok := dir.Files[key]; ok {
		return file
	}
	if child, ok := dir.Dirs[key]; ok {
		return &child.Node
	}
	return nil
}

// ChildDirectory returns the subdirectory node named name within dir, if
// any, without creating one.
func (db *Database) ChildDirectory(dir *Directory, name string) *Directory {
	return dir.Dirs[db.normalizeName(name)]
}

// RemoveChildDir detaches a child directory entirely, used when a directory
// is observed to have been replaced by a non-directory entry of the same
// name.
func (db *Database) RemoveChildDir(dir *Directory, name string) {
	delete(dir.Dirs, db.normalizeName(name))
}

// MarkDeleted marks whichever child (file or subdirectory) named name
// within dir as no longer existing, stamping it with tick. It leaves the
// node in its parent's map: per Node.Exists's contract, a later
// re-creation is diffed against the node's prior state rather than
// starting fresh.
func (db *Database) MarkDeleted(dir *Directory, name string, tick uint64) {
	key := db.normalizeName(name)
	if file, ok := dir.Files[key]; ok {
		file.Exists = false
		file.MaybeDeleted = false
		file.Tick = tick
		return
	}
	if child, ok := dir.Dirs[key]; ok {
		child.Exists = false
		child.MaybeDeleted = false
		child.Tick = tick
	}
}

// ChildPath composes the absolute path of a child given its parent
// directory's path and its base name.
func ChildPath(parentPath, name string) string {
	return filepath.Join(parentPath, name)
}

// Stat returns a read-only snapshot of the node (file or directory) at
// path, for use by query paths that only hold a read lock.
func (db *Database) Stat(path string) (*Node, bool) {
	if path == db.rootPath {
		n := db.root.Node
		return &n, true
	}

	parent, name := filepath.Split(path)
	parent = filepath.Clean(parent)
	dir := db.ResolveDirectory(parent, false)
	if dir == nil {
		return nil, false
	}

	key := db.normalizeName(name)
	if child, ok := dir.Dirs[key]; ok {
		n := child.Node
		return &n, true
	}
	if child, ok := dir.Files[key]; ok {
		n := *child
		return &n, true
	}
	return nil, false
}
