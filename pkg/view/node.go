package view

import (
	"github.com/nodewatch/viewfs/pkg/filesystem"
)

// Node is the view's record of a single file (or symbolic link) beneath a
// watched root. Directories carry the same fields, embedded in Directory,
// since the crawler needs to treat "is this still here" identically for
// both.
type Node struct {
	// Name is the base name of the entry as last observed on disk.
	Name string
	// Exists indicates whether the entry was present the last time it was
	// reconciled. A Node is never removed from its parent's map on
	// deletion; it's left behind with Exists set to false so that a later
	// re-creation can be diffed against its prior state.
	Exists bool
	// MaybeDeleted is a transient flag set at the start of a directory scan
	// for every previously known child and cleared as each child is
	// re-observed; anything still set at the end of the scan has vanished.
	MaybeDeleted bool
	// Stat is the most recently observed metadata for the entry. It is the
	// zero value if the entry has never successfully been stat'd.
	Stat filesystem.Metadata
	// Tick is the value of the view's observation clock at the time this
	// node was last mutated.
	Tick uint64
}

// IsDirectory reports whether the node's last observed stat metadata
// indicates a directory.
func (n *Node) IsDirectory() bool {
	return n.Stat.IsDirectory()
}

// Directory is a Node that also owns child entries. Every watched root has
// exactly one Directory with an empty Name: the root itself.
type Directory struct {
	Node

	// Files maps (normalized) base names to child file/symlink nodes.
	Files map[string]*Node
	// Dirs maps (normalized) base names to child directory nodes.
	Dirs map[string]*Directory
}

// newDirectory constructs an empty directory node.
func newDirectory(name string) *Directory {
	return &Directory{
		Node:  Node{Name: name, Exists: true},
		Files: make(map[string]*Node),
		Dirs:  make(map[string]*Directory),
	}
}

// SizeHint pre-sizes the directory's child maps if they're currently empty.
// It's called once, on first crawl of a directory, the way the teacher's
// watchman analogue sizes its hash tables from st_nlink before inserting.
func (d *Directory) SizeHint(numDirs, numFiles int) {
	if len(d.Files) == 0 && numFiles > 0 {
		d.Files = make(map[string]*Node, numFiles)
	}
	if len(d.Dirs) == 0 && numDirs > 0 {
		d.Dirs = make(map[string]*Directory, numDirs)
	}
}
