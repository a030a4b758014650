package watching

import (
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/nodewatch/viewfs/pkg/filesystem"
)

// recursiveWatcher is a Watcher implementation backed by fsnotify. Unlike
// platform-native recursive watch facilities (FSEvents, ReadDirectoryChangesW),
// fsnotify only watches the directories it's explicitly told about, so this
// implementation adds a watch for every directory it's asked to open. It
// never removes a watch itself. This gives per-file notifications but can't
// promise coalesced
// renames, so CoalescedRename is never reported.
type recursiveWatcher struct {
	watcher *fsnotify.Watcher
	events  chan string
	errors  chan error

	mu         sync.Mutex
	terminated bool
}

// NewRecursiveWatcher creates a Watcher rooted in no particular directory;
// directories are added to the watch as the crawler opens them via
// StartWatchDir.
func NewRecursiveWatcher() (Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	watcher := &recursiveWatcher{
		watcher: w,
		events:  make(chan string, 64),
		errors:  make(chan error, 1),
	}

	go watcher.pump()

	return watcher, nil
}

// pump drains the underlying fsnotify channels and republishes them on the
// simplified Events/Errors channels that the reconciler consumes.
func (w *recursiveWatcher) pump() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			select {
			case w.events <- event.Name:
			default:
				// The reconciler hasn't drained earlier notifications yet, so
				// this one is dropped and reported as an overflow error; the
				// reconciler answers an error with a full recrawl.
				select {
				case w.errors <- fsnotify.ErrEventOverflow:
				default:
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// Capabilities implements Watcher.Capabilities.
func (w *recursiveWatcher) Capabilities() Capability {
	return HasPerFileNotifications
}

// StartWatchDir implements Watcher.StartWatchDir.
func (w *recursiveWatcher) StartWatchDir(path string) (DirHandle, error) {
	if err := w.watcher.Add(path); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		w.watcher.Remove(path)
		return nil, err
	}

	return &fsnotifyDirHandle{path: path, entries: entries}, nil
}

// Events implements Watcher.Events.
func (w *recursiveWatcher) Events() <-chan string {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *recursiveWatcher) Errors() <-chan error {
	return w.errors
}

// Terminate implements Watcher.Terminate.
func (w *recursiveWatcher) Terminate() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return nil
	}
	w.terminated = true
	return w.watcher.Close()
}

// fsnotifyDirHandle implements DirHandle on top of a pre-enumerated
// os.ReadDir listing. fsnotify doesn't expose a file descriptor for the
// watched directory, so DeviceAndFileID always reports unavailable.
type fsnotifyDirHandle struct {
	path    string
	entries []os.DirEntry
	offset  int
}

// ReadDir implements DirHandle.ReadDir.
func (h *fsnotifyDirHandle) ReadDir() (*Entry, error) {
	for h.offset < len(h.entries) {
		entry := h.entries[h.offset]
		h.offset++
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Transient: the entry may have disappeared between readdir and
			// stat. Let the crawler re-discover its absence on its own turn.
			continue
		}

		mode := filesystem.ModeTypeFile
		if info.IsDir() {
			mode = filesystem.ModeTypeDirectory
		} else if info.Mode()&os.ModeSymlink != 0 {
			mode = filesystem.ModeTypeSymbolicLink
		}

		return &Entry{
			Name: name,
			Stat: &filesystem.Metadata{
				Mode:             mode,
				Size:             uint64(info.Size()),
				ModificationTime: info.ModTime(),
			},
		}, nil
	}
	return nil, nil
}

// DeviceAndFileID implements DirHandle.DeviceAndFileID.
func (h *fsnotifyDirHandle) DeviceAndFileID() (uint64, uint64) {
	return 0, 0
}

// Close implements DirHandle.Close.
func (h *fsnotifyDirHandle) Close() error {
	return nil
}
