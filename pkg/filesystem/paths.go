package filesystem

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// NormalizeRoot normalizes a watch root path, expanding any home directory
// tilde, converting it to an absolute path, and cleaning the result. Watched
// roots are always tracked as absolute paths so that pending changes and
// view lookups can be compared without ambiguity.
func NormalizeRoot(path string) (string, error) {
	normalized, err := Normalize(path)
	if err != nil {
		return "", errors.Wrap(err, "unable to normalize root path")
	}
	return normalized, nil
}

// Join composes a child path from a parent directory path and a base name.
// It exists primarily so that pending-change composition in the crawler
// reads consistently with the rest of the package.
func Join(parent, name string) string {
	return filepath.Join(parent, name)
}
