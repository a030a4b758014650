// Package watching defines the contract that the reconciliation core uses to
// consume a kernel-level filesystem watcher, along with a cross-platform
// implementation backed by fsnotify.
package watching

import (
	"errors"

	"github.com/nodewatch/viewfs/pkg/filesystem"
)

// ErrWatchTerminated is the error for a watch that has been terminated. The
// fsnotify-backed watcher in this package never sends it: after Terminate,
// its Events and Errors channels just stop delivering values.
var ErrWatchTerminated = errors.New("watch terminated")

// Capability is a bit set describing what a Watcher implementation can
// promise about the notifications it produces.
type Capability uint8

const (
	// HasPerFileNotifications indicates that the watcher reports changes for
	// individual files rather than only at directory granularity. When this
	// capability is absent, the reconciler must treat any notification for a
	// directory as a signal to re-stat all of its children.
	HasPerFileNotifications Capability = 1 << iota
	// CoalescedRename indicates that the watcher may coalesce the two halves
	// of a rename (or otherwise drop per-file fidelity) even when it reports
	// per-file notifications, and thus that a crawl needs to re-stat every
	// child of a watched directory rather than trusting prior notifications.
	CoalescedRename
)

// Has reports whether the capability set contains c.
func (s Capability) Has(c Capability) bool {
	return s&c != 0
}

// Entry is a single entry returned while reading a directory, with an
// optional pre-stat hint so that callers that already have metadata (e.g.
// from a combined readdir+stat syscall) don't need to perform a redundant
// stat.
type Entry struct {
	// Name is the base name of the entry, never "." or "..".
	Name string
	// Stat is a pre-stat hint for the entry. It may be nil, in which case
	// the caller is responsible for stat'ing the entry itself.
	Stat *filesystem.Metadata
}

// DirHandle represents a directory opened (and, depending on the
// implementation, newly watched) for crawling.
type DirHandle interface {
	// ReadDir returns the next entry in the directory, or nil once
	// exhausted. "." and ".." are never returned.
	ReadDir() (*Entry, error)
	// DeviceAndFileID returns the device and file (inode) identifiers for
	// the underlying directory. A zero file ID indicates that the
	// information isn't available.
	DeviceAndFileID() (uint64, uint64)
	// Close releases any resources associated with the handle.
	Close() error
}

// Watcher is the contract that the reconciliation core consumes from a
// kernel-level filesystem watcher. Implementations are expected to both
// deliver asynchronous change notifications via Events and allow the
// crawler to open (and begin watching) directories on demand via
// StartWatchDir.
type Watcher interface {
	// Capabilities returns the capability set for this watcher.
	Capabilities() Capability
	// StartWatchDir atomically begins watching dir (identified by the
	// absolute path) and returns a handle that can be used to enumerate its
	// current contents.
	StartWatchDir(path string) (DirHandle, error)
	// Events returns a channel of paths that the watcher has observed as
	// changed. Paths are absolute.
	Events() <-chan string
	// Errors returns a channel that is populated if a watch error occurs,
	// such as notifications having been dropped. An error doesn't stop the
	// watcher; it keeps delivering events afterward.
	Errors() <-chan error
	// Terminate stops the watcher and releases any resources that it holds.
	// It is safe to call more than once.
	Terminate() error
}
