//go:build windows

package filesystem

import (
	"os"
)

// GetFileInformation queries stat-level metadata for path. FileID and
// DeviceID are left at 0 on Windows, mirroring the rest of the codebase's
// treatment of file identity on this platform: it's not needed for root
// replacement detection here because NTFS volumes aren't expected to be
// swapped out from under a watch in the way that bind mounts are on POSIX.
func GetFileInformation(path string, caseSensitive bool) (*Metadata, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	mode := ModeTypeFile
	if info.IsDir() {
		mode = ModeTypeDirectory
	} else if info.Mode()&os.ModeSymlink != 0 {
		mode = ModeTypeSymbolicLink
	}

	return &Metadata{
		Mode:             mode,
		Size:             uint64(info.Size()),
		ModificationTime: info.ModTime(),
	}, nil
}
