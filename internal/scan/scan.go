// Package scan finds candidate files below a root folder.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/ruipin/flac-batch-reencode/internal/logger"
)

// Discovery failures are fatal and abort the run before any job is
// scheduled. They can be checked with errors.Is().
var (
	ErrRootNotFound = errors.New("root folder not found")
	ErrNotDirectory = errors.New("root is not a directory")
	ErrBadMask      = errors.New("invalid file mask")
)

// Discover walks root recursively and returns every file whose base name
// matches the glob mask, sorted lexicographically so processing order is
// deterministic. Unreadable subdirectories are logged and skipped; only a
// bad root or a bad mask is an error.
func Discover(root, mask string) ([]string, error) {
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	// Validate the mask up front; path.Match only reports a bad pattern
	// once it reaches the malformed part.
	if _, err := path.Match(mask, "probe"); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadMask, mask)
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Best-effort traversal: report and move on.
			logger.Warn("Skipping unreadable path", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ok, _ := path.Match(mask, d.Name())
		if ok {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Strings(files)
	return files, nil
}
