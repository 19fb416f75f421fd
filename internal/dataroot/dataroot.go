// Package dataroot manages the filesystem root under which every game's
// chunk log and archive live (spec.md §4.H). Unlike the CORE's original
// process-wide lazily-initialized path, this is an injectable value: a
// *Root is constructed once by the caller and passed to writers/readers,
// matching the teacher's convention of plumbing a directory through
// rather than reaching for global state.
package dataroot

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDir is the root used when a caller has no preference.
const DefaultDir = "./data"

// Root is a directory under which per-game subdirectories are created on
// first access. The zero value is not usable; construct with New.
type Root struct {
	dir string
}

// New returns a Root rooted at dir, creating dir if it does not exist.
// Pass "" to use DefaultDir.
func New(dir string) (*Root, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("dataroot: create root %q: %w", dir, err)
	}
	return &Root{dir: dir}, nil
}

// Dir returns the root directory path.
func (r *Root) Dir() string { return r.dir }

// GamePath returns <DATA_ROOT>/<decimal game_id>/, creating it if absent.
func (r *Root) GamePath(gameID int32) (string, error) {
	path := filepath.Join(r.dir, fmt.Sprintf("%d", gameID))
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("dataroot: create game dir %q: %w", path, err)
	}
	return path, nil
}
