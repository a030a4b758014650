package filesystem

// Mode is an opaque type representing the type bits of a file mode, enough
// to distinguish directories, regular files, and symbolic links. It does not
// track permission bits since the view never needs to reason about them.
type Mode uint32

const (
	// ModeTypeMask isolates the type bits of a Mode.
	ModeTypeMask = Mode(0xf000)
	// ModeTypeFile represents a regular file.
	ModeTypeFile = Mode(0x8000)
	// ModeTypeDirectory represents a directory.
	ModeTypeDirectory = Mode(0x4000)
	// ModeTypeSymbolicLink represents a symbolic link.
	ModeTypeSymbolicLink = Mode(0xa000)
)

// IsDirectory returns whether or not the mode's type bits indicate a
// directory.
func (m Mode) IsDirectory() bool {
	return m&ModeTypeMask == ModeTypeDirectory
}
