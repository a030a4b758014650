package filesystem

import (
	"time"
)

// Metadata encodes the stat-level information that the view tracks for a
// path. It deliberately carries nothing about file contents: the view
// reasons about existence, type, and identity only.
type Metadata struct {
	// Name is the base name of the filesystem entry.
	Name string
	// Mode encodes the entry's type (file, directory, or symbolic link).
	Mode Mode
	// Size is the size of the entry in bytes. It is meaningless for
	// directories.
	Size uint64
	// ModificationTime is the modification time of the entry.
	ModificationTime time.Time
	// DeviceID is the device on which the entry resides. It is used, in
	// combination with FileID, to detect inode reuse across root
	// replacement.
	DeviceID uint64
	// FileID is the inode (or file index, on Windows) of the entry. It is
	// always 0 on platforms where this can't be cheaply obtained.
	FileID uint64
}

// IsDirectory reports whether the metadata describes a directory.
func (m *Metadata) IsDirectory() bool {
	return m.Mode.IsDirectory()
}
