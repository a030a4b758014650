//go:build !windows

package filesystem

import (
	"time"

	"golang.org/x/sys/unix"
)

// GetFileInformation queries stat-level metadata for path. caseSensitive is
// currently unused on POSIX systems, where the filesystem itself decides
// case sensitivity, but it is retained in the signature to match the
// Filesystem contract consumed by the reconciler.
func GetFileInformation(path string, _ bool) (*Metadata, error) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return nil, err
	}

	var mode Mode
	switch stat.Mode & unix.S_IFMT {
	case unix.S_IFDIR:
		mode = ModeTypeDirectory
	case unix.S_IFLNK:
		mode = ModeTypeSymbolicLink
	default:
		mode = ModeTypeFile
	}

	return &Metadata{
		Mode:             mode,
		Size:             uint64(stat.Size),
		ModificationTime: time.Unix(stat.Mtim.Unix()),
		DeviceID:         uint64(stat.Dev),
		FileID:           uint64(stat.Ino),
	}, nil
}
