package ignore

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/monochromegane/go-gitignore"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Files are the ignore files read from the root of each compared tree.
var Files = []string{".gitignore", ".ignore", ".folderdiffignore"}

type Ignore struct {
	path     string
	ignores  []gitignore.IgnoreMatcher
	excludes []string
}

// NewIgnore loads the ignore files found directly under path (when
// respectFiles is set) together with the exclude globs, which are matched
// against slash-separated paths relative to path.
func NewIgnore(fs afero.Fs, path string, respectFiles bool, excludes []string) (*Ignore, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	ignores := make([]gitignore.IgnoreMatcher, 0, len(Files))
	if respectFiles {
		for _, ignoreFile := range Files {
			f, err := fs.Open(filepath.Join(path, ignoreFile))
			if err != nil {
				continue
			}
			ignores = append(ignores, gitignore.NewGitIgnoreFromReader(path, f))
			f.Close()
		}
	}
	return &Ignore{path: path, ignores: ignores, excludes: excludes}, nil
}

// Match reports whether rel, a slash-separated path under the root, is
// ignored or excluded.
func (m *Ignore) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	for _, pattern := range m.excludes {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	full := filepath.Join(m.path, filepath.FromSlash(rel))
	for _, i := range m.ignores {
		if i.Match(full, isDir) {
			return true
		}
	}

	return false
}
